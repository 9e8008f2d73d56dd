package ratelimit

import (
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Identifier is the canonical key a limiter check is scoped to. Each scope
// carries a distinct prefix so an org, an API key, and an IP can never share
// a bucket; callers pick exactly one scope per surface.
type Identifier string

func OrgIdentifier(orgID snowflake.ID) Identifier {
	return Identifier("org:" + orgID.String())
}

func APIKeyIdentifier(key string) Identifier {
	return Identifier("key:" + strings.TrimSpace(key))
}

func IPIdentifier(ip string) Identifier {
	return Identifier("ip:" + strings.TrimSpace(ip))
}

func (id Identifier) String() string { return string(id) }

func (id Identifier) Valid() bool {
	s := string(id)
	i := strings.IndexByte(s, ':')
	return i > 0 && i < len(s)-1
}

// Package domain defines the quota engine's result types and errors.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warden/internal/plan"
)

// Severity buckets derived from CheckResult.Percentage.
const (
	SeverityOK          = "ok"
	SeverityApproaching = "approaching"
	SeverityCritical    = "critical"
)

// CheckResult is the advisory outcome of one quota check. Percentage is
// computed from current usage, not the projected value, so callers can show
// "80% used" before attempting the write.
type CheckResult struct {
	Resource   plan.Resource `json:"resource"`
	Allowed    bool          `json:"allowed"`
	Unlimited  bool          `json:"unlimited"`
	Used       int64         `json:"used"`
	Limit      int64         `json:"limit"`
	Percentage float64       `json:"percentage"`
	Reason     string        `json:"reason,omitempty"`
}

type Service interface {
	// Check compares used+increment against the tenant tier's ceiling.
	// It reads the cached snapshot, so concurrent bursts can transiently
	// overshoot; callers invoke it immediately before the mutating write.
	Check(ctx context.Context, resource plan.Resource, tenantID snowflake.ID, increment int64) (*CheckResult, error)
}

var (
	ErrInvalidResource  = errors.New("invalid_resource")
	ErrInvalidIncrement = errors.New("invalid_increment")
)

// Severity classifies a result purely from its percentage.
func Severity(result CheckResult) string {
	switch {
	case !result.Allowed || result.Percentage >= 90:
		return SeverityCritical
	case result.Percentage >= 80:
		return SeverityApproaching
	default:
		return SeverityOK
	}
}

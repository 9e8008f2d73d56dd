package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Record is one admitted request for an identifier. Rejections never create
// records, so abusive retry storms cannot grow the table.
type Record struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	Identifier string       `gorm:"type:text;not null;index:ix_rate_limit_identifier_created,priority:1"`
	CreatedAt  time.Time    `gorm:"not null;index:ix_rate_limit_identifier_created,priority:2"`
}

// TableName sets the database table name.
func (Record) TableName() string { return "rate_limit_records" }

// Result reports one admission decision.
type Result struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// Limiter admits or rejects requests per identifier over a rolling window.
type Limiter interface {
	// Check counts in-window admissions and, when below limit, records
	// this one. On rejection ResetAt is the oldest in-window admission
	// plus the window, the precise moment budget frees up.
	Check(ctx context.Context, id Identifier, limit int, window time.Duration) (*Result, error)

	// Status reports the current budget without recording anything.
	Status(ctx context.Context, id Identifier, limit int, window time.Duration) (*Result, error)
}

var (
	ErrInvalidIdentifier = errors.New("invalid_identifier")
	ErrInvalidLimit      = errors.New("invalid_limit")
	ErrInvalidWindow     = errors.New("invalid_window")
)

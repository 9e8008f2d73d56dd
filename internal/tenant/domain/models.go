// Package domain contains persistence models for the tenant service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warden/internal/plan"
	"gorm.io/datatypes"
)

const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
)

// Tenant represents an isolated customer organization. Tenants are never
// hard-deleted; lifecycle is tracked through Status.
type Tenant struct {
	ID                   snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name                 string            `gorm:"type:text;not null" json:"name"`
	Slug                 string            `gorm:"type:text;not null;uniqueIndex:ux_tenants_slug" json:"slug"`
	Subdomain            string            `gorm:"type:text;not null;uniqueIndex:ux_tenants_subdomain" json:"subdomain"`
	CustomDomain         string            `gorm:"type:text;index:ix_tenants_custom_domain" json:"custom_domain,omitempty"`
	CustomDomainVerified bool              `gorm:"not null;default:false" json:"custom_domain_verified"`
	Tier                 plan.Tier         `gorm:"type:text;not null;default:'FREE'" json:"tier"`
	Status               string            `gorm:"type:text;not null;default:'ACTIVE'" json:"status"`
	FeatureFlags         datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"feature_flags"`
	CreatedAt            time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

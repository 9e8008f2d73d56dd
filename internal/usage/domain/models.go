// Package domain contains persistence models for the usage meter.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warden/internal/plan"
)

// Snapshot is the cached per-tenant resource census. It is overwritten
// wholesale on every calculation and read-only everywhere else; readers may
// see counts up to one calculation interval old.
type Snapshot struct {
	TenantID           snowflake.ID `gorm:"primaryKey" json:"tenant_id"`
	UsersCount         int64        `gorm:"not null;default:0" json:"users_count"`
	ContactsCount      int64        `gorm:"not null;default:0" json:"contacts_count"`
	ProjectsCount      int64        `gorm:"not null;default:0" json:"projects_count"`
	DocumentsCount     int64        `gorm:"not null;default:0" json:"documents_count"`
	AccountsCount      int64        `gorm:"not null;default:0" json:"accounts_count"`
	LeadsCount         int64        `gorm:"not null;default:0" json:"leads_count"`
	OpportunitiesCount int64        `gorm:"not null;default:0" json:"opportunities_count"`
	TasksCount         int64        `gorm:"not null;default:0" json:"tasks_count"`
	StorageBytes       int64        `gorm:"not null;default:0" json:"storage_bytes"`
	LastCalculatedAt   time.Time    `gorm:"not null" json:"last_calculated_at"`
}

// TableName sets the database table name.
func (Snapshot) TableName() string { return "usage_snapshots" }

// Count returns the cached count for one governed resource.
func (s Snapshot) Count(resource plan.Resource) int64 {
	switch resource {
	case plan.ResourceUsers:
		return s.UsersCount
	case plan.ResourceContacts:
		return s.ContactsCount
	case plan.ResourceProjects:
		return s.ProjectsCount
	case plan.ResourceDocuments:
		return s.DocumentsCount
	case plan.ResourceAccounts:
		return s.AccountsCount
	case plan.ResourceLeads:
		return s.LeadsCount
	case plan.ResourceOpportunities:
		return s.OpportunitiesCount
	case plan.ResourceTasks:
		return s.TasksCount
	case plan.ResourceStorageBytes:
		return s.StorageBytes
	default:
		return 0
	}
}

// SetCount stores the count for one governed resource.
func (s *Snapshot) SetCount(resource plan.Resource, value int64) {
	switch resource {
	case plan.ResourceUsers:
		s.UsersCount = value
	case plan.ResourceContacts:
		s.ContactsCount = value
	case plan.ResourceProjects:
		s.ProjectsCount = value
	case plan.ResourceDocuments:
		s.DocumentsCount = value
	case plan.ResourceAccounts:
		s.AccountsCount = value
	case plan.ResourceLeads:
		s.LeadsCount = value
	case plan.ResourceOpportunities:
		s.OpportunitiesCount = value
	case plan.ResourceTasks:
		s.TasksCount = value
	case plan.ResourceStorageBytes:
		s.StorageBytes = value
	}
}

// TenantError records one tenant's calculation failure inside a batch run.
type TenantError struct {
	TenantID snowflake.ID `json:"tenant_id"`
	Err      string       `json:"error"`
}

// BatchResult aggregates a full recalculation run. Per-tenant failures are
// collected here instead of aborting the batch.
type BatchResult struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Errors    []TenantError `json:"errors,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

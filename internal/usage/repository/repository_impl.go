package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warden/internal/plan"
	"github.com/smallbiznis/warden/internal/usage/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) domain.SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Upsert(ctx context.Context, snapshot domain.Snapshot) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			UpdateAll: true,
		}).
		Create(&snapshot).Error
}

func (r *snapshotRepository) FindByTenant(ctx context.Context, tenantID snowflake.ID) (*domain.Snapshot, error) {
	var snapshot domain.Snapshot
	err := r.db.WithContext(ctx).First(&snapshot, "tenant_id = ?", tenantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, err
	}
	return &snapshot, nil
}

// resourceTables maps each governed resource to its authoritative table.
// The tables are owned by the external CRUD services; the meter only ever
// counts rows in them.
var resourceTables = map[plan.Resource]string{
	plan.ResourceUsers:         "users",
	plan.ResourceContacts:      "contacts",
	plan.ResourceProjects:      "projects",
	plan.ResourceDocuments:     "documents",
	plan.ResourceAccounts:      "accounts",
	plan.ResourceLeads:         "leads",
	plan.ResourceOpportunities: "opportunities",
	plan.ResourceTasks:         "tasks",
}

type counterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) domain.CounterRepository {
	return &counterRepository{db: db}
}

func (r *counterRepository) CountResource(ctx context.Context, tenantID snowflake.ID, resource plan.Resource) (int64, error) {
	table, ok := resourceTables[resource]
	if !ok {
		return 0, fmt.Errorf("uncountable resource %q", resource)
	}

	var count int64
	err := r.db.WithContext(ctx).
		Table(table).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *counterRepository) SumDocumentBytes(ctx context.Context, tenantID snowflake.ID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Table("documents").
		Where("tenant_id = ?", tenantID).
		Select("COALESCE(SUM(size_bytes), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

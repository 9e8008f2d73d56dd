package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warden/internal/clock"
	"github.com/smallbiznis/warden/internal/plan"
	tenantdomain "github.com/smallbiznis/warden/internal/tenant/domain"
	tenantrepo "github.com/smallbiznis/warden/internal/tenant/repository"
	"github.com/smallbiznis/warden/internal/usage/domain"
	"github.com/smallbiznis/warden/internal/usage/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// resource tables belong to the external CRUD services in production; the
// tests create bare stand-ins so the counters have something to count.
var testResourceTables = []string{
	"users", "contacts", "projects", "accounts", "leads", "opportunities", "tasks",
}

type meterFixture struct {
	db       *gorm.DB
	tenants  tenantdomain.Repository
	counters domain.CounterRepository
	clk      *clock.FakeClock
	svc      domain.Service
}

func setupMeter(t *testing.T) *meterFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&tenantdomain.Tenant{}, &domain.Snapshot{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, table := range testResourceTables {
		stmt := fmt.Sprintf("CREATE TABLE %s (id INTEGER PRIMARY KEY AUTOINCREMENT, tenant_id INTEGER NOT NULL)", table)
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create %s: %v", table, err)
		}
	}
	if err := db.Exec("CREATE TABLE documents (id INTEGER PRIMARY KEY AUTOINCREMENT, tenant_id INTEGER NOT NULL, size_bytes INTEGER)").Error; err != nil {
		t.Fatalf("create documents: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC))
	tenants := tenantrepo.NewRepository(db)
	counters := repository.NewCounterRepository(db)
	svc := NewService(
		repository.NewSnapshotRepository(db),
		counters,
		tenants,
		clk,
		zap.NewNop(),
		4,
	)
	return &meterFixture{db: db, tenants: tenants, counters: counters, clk: clk, svc: svc}
}

func (f *meterFixture) createTenant(t *testing.T, id int64, slug string) snowflake.ID {
	t.Helper()
	tenant := tenantdomain.Tenant{
		ID:        snowflake.ID(id),
		Name:      slug,
		Slug:      slug,
		Subdomain: slug,
		Tier:      plan.TierFree,
		Status:    tenantdomain.StatusActive,
		CreatedAt: f.clk.Now(),
		UpdatedAt: f.clk.Now(),
	}
	if err := f.tenants.Create(context.Background(), tenant); err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return tenant.ID
}

func (f *meterFixture) insertRows(t *testing.T, table string, tenantID snowflake.ID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := f.db.Exec(fmt.Sprintf("INSERT INTO %s (tenant_id) VALUES (?)", table), int64(tenantID)).Error; err != nil {
			t.Fatalf("insert %s: %v", table, err)
		}
	}
}

func TestCalculateCountsResources(t *testing.T) {
	f := setupMeter(t)
	id := f.createTenant(t, 101, "acme")

	f.insertRows(t, "contacts", id, 3)
	f.insertRows(t, "users", id, 2)
	if err := f.db.Exec("INSERT INTO documents (tenant_id, size_bytes) VALUES (?, ?), (?, ?), (?, NULL)",
		int64(id), 1024, int64(id), 2048, int64(id)).Error; err != nil {
		t.Fatalf("insert documents: %v", err)
	}
	// rows belonging to another tenant must not leak into the census
	f.insertRows(t, "contacts", snowflake.ID(999), 5)

	snapshot, err := f.svc.Calculate(context.Background(), id)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if snapshot.ContactsCount != 3 {
		t.Fatalf("expected 3 contacts, got %d", snapshot.ContactsCount)
	}
	if snapshot.UsersCount != 2 {
		t.Fatalf("expected 2 users, got %d", snapshot.UsersCount)
	}
	if snapshot.DocumentsCount != 3 {
		t.Fatalf("expected 3 documents, got %d", snapshot.DocumentsCount)
	}
	if snapshot.StorageBytes != 3072 {
		t.Fatalf("expected 3072 storage bytes, got %d", snapshot.StorageBytes)
	}
	if snapshot.LeadsCount != 0 {
		t.Fatalf("expected 0 leads, got %d", snapshot.LeadsCount)
	}
}

func TestCalculateUpsertAdvancesTimestamp(t *testing.T) {
	f := setupMeter(t)
	id := f.createTenant(t, 102, "globex")
	f.insertRows(t, "contacts", id, 2)

	first, err := f.svc.Calculate(context.Background(), id)
	if err != nil {
		t.Fatalf("first calculate: %v", err)
	}

	f.clk.Advance(24 * time.Hour)
	second, err := f.svc.Calculate(context.Background(), id)
	if err != nil {
		t.Fatalf("second calculate: %v", err)
	}

	if second.ContactsCount != first.ContactsCount {
		t.Fatalf("count drifted between identical runs: %d vs %d", first.ContactsCount, second.ContactsCount)
	}
	if !second.LastCalculatedAt.After(first.LastCalculatedAt) {
		t.Fatalf("expected a strictly newer last_calculated_at")
	}

	stored, err := f.svc.GetSnapshot(context.Background(), id)
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if !stored.LastCalculatedAt.Equal(second.LastCalculatedAt) {
		t.Fatalf("stored snapshot not replaced: %v vs %v", stored.LastCalculatedAt, second.LastCalculatedAt)
	}
}

func TestCalculateUnknownTenant(t *testing.T) {
	f := setupMeter(t)

	_, err := f.svc.Calculate(context.Background(), snowflake.ID(404))
	if !errors.Is(err, tenantdomain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestGetSnapshotMissing(t *testing.T) {
	f := setupMeter(t)
	id := f.createTenant(t, 103, "fresh")

	_, err := f.svc.GetSnapshot(context.Background(), id)
	if !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

// failingCounters wraps a real counter repository and fails for one tenant.
type failingCounters struct {
	domain.CounterRepository
	poisoned snowflake.ID
}

func (f *failingCounters) CountResource(ctx context.Context, tenantID snowflake.ID, resource plan.Resource) (int64, error) {
	if tenantID == f.poisoned {
		return 0, errors.New("authoritative table unavailable")
	}
	return f.CounterRepository.CountResource(ctx, tenantID, resource)
}

func TestCalculateAllCollectsFailures(t *testing.T) {
	f := setupMeter(t)
	healthy := f.createTenant(t, 201, "healthy")
	poisoned := f.createTenant(t, 202, "poisoned")
	other := f.createTenant(t, 203, "other")
	f.insertRows(t, "contacts", healthy, 1)
	f.insertRows(t, "contacts", other, 2)

	svc := NewService(
		repository.NewSnapshotRepository(f.db),
		&failingCounters{CounterRepository: f.counters, poisoned: poisoned},
		f.tenants,
		f.clk,
		zap.NewNop(),
		2,
	)

	result, err := svc.CalculateAll(context.Background())
	if err != nil {
		t.Fatalf("calculate all: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("expected 3 tenants, got %d", result.Total)
	}
	if result.Succeeded != 2 || result.Failed != 1 {
		t.Fatalf("expected 2 succeeded / 1 failed, got %d / %d", result.Succeeded, result.Failed)
	}
	if len(result.Errors) != 1 || result.Errors[0].TenantID != poisoned {
		t.Fatalf("expected failure recorded for poisoned tenant, got %+v", result.Errors)
	}

	// the healthy tenants still got their snapshots
	if _, err := svc.GetSnapshot(context.Background(), healthy); err != nil {
		t.Fatalf("healthy snapshot missing: %v", err)
	}
	if _, err := svc.GetSnapshot(context.Background(), poisoned); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("poisoned tenant should have no snapshot, got %v", err)
	}
}

func TestCalculateAllSkipsSuspendedTenants(t *testing.T) {
	f := setupMeter(t)
	active := f.createTenant(t, 301, "active")

	suspended := tenantdomain.Tenant{
		ID:        snowflake.ID(302),
		Name:      "suspended",
		Slug:      "suspended",
		Subdomain: "suspended",
		Tier:      plan.TierFree,
		Status:    tenantdomain.StatusSuspended,
		CreatedAt: f.clk.Now(),
		UpdatedAt: f.clk.Now(),
	}
	if err := f.tenants.Create(context.Background(), suspended); err != nil {
		t.Fatalf("create suspended: %v", err)
	}

	result, err := f.svc.CalculateAll(context.Background())
	if err != nil {
		t.Fatalf("calculate all: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected only the active tenant, got %d", result.Total)
	}
	if _, err := f.svc.GetSnapshot(context.Background(), active); err != nil {
		t.Fatalf("active snapshot missing: %v", err)
	}
}

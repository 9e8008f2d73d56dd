package ratelimit

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warden/internal/clock"
	"gorm.io/gorm"
)

// SlidingLog is the store-backed reference limiter: count the admissions in
// [now-window, now], admit and insert when below limit, otherwise reject
// without writing.
//
// The count and the insert are two round trips, not one transaction: under
// contention on a single identifier two requests can both observe count <
// limit before either insert lands, admitting one extra request in that
// window. Deployments that need the strict guarantee use RedisWindow.
type SlidingLog struct {
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
}

func NewSlidingLog(db *gorm.DB, genID *snowflake.Node, clk clock.Clock) *SlidingLog {
	return &SlidingLog{db: db, genID: genID, clock: clk}
}

func (l *SlidingLog) Check(ctx context.Context, id Identifier, limit int, window time.Duration) (*Result, error) {
	return l.check(ctx, id, limit, window, true)
}

func (l *SlidingLog) Status(ctx context.Context, id Identifier, limit int, window time.Duration) (*Result, error) {
	return l.check(ctx, id, limit, window, false)
}

func (l *SlidingLog) check(ctx context.Context, id Identifier, limit int, window time.Duration, record bool) (*Result, error) {
	if !id.Valid() {
		return nil, ErrInvalidIdentifier
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}

	now := l.clock.Now()
	windowStart := now.Add(-window)

	var count int64
	err := l.db.WithContext(ctx).
		Model(&Record{}).
		Where("identifier = ? AND created_at >= ?", id.String(), windowStart).
		Count(&count).Error
	if err != nil {
		return nil, err
	}

	result := &Result{Limit: limit}

	if count >= int64(limit) {
		oldest, err := l.oldestInWindow(ctx, id, windowStart)
		if err != nil {
			return nil, err
		}
		result.ResetAt = oldest.Add(window)
		return result, nil
	}

	result.Allowed = true
	result.Remaining = limit - int(count) - 1
	result.ResetAt = now.Add(window)

	if !record {
		// a read-only status never consumes budget
		result.Remaining = limit - int(count)
		return result, nil
	}

	entry := Record{
		ID:         l.genID.Generate(),
		Identifier: id.String(),
		CreatedAt:  now,
	}
	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (l *SlidingLog) oldestInWindow(ctx context.Context, id Identifier, windowStart time.Time) (time.Time, error) {
	var oldest Record
	err := l.db.WithContext(ctx).
		Where("identifier = ? AND created_at >= ?", id.String(), windowStart).
		Order("created_at ASC").
		First(&oldest).Error
	if err != nil {
		return time.Time{}, err
	}
	return oldest.CreatedAt, nil
}

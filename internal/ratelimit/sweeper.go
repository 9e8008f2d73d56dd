package ratelimit

import (
	"context"
	"time"

	"github.com/smallbiznis/warden/internal/clock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sweeper deletes admission records older than the largest configured
// window. It runs off the request path so a slow delete never delays a
// check.
type Sweeper struct {
	db        *gorm.DB
	clock     clock.Clock
	log       *zap.Logger
	maxWindow time.Duration
	every     time.Duration
}

func NewSweeper(db *gorm.DB, clk clock.Clock, log *zap.Logger, maxWindow, every time.Duration) *Sweeper {
	if maxWindow <= 0 {
		maxWindow = time.Hour
	}
	if every <= 0 {
		every = 5 * time.Minute
	}
	return &Sweeper{
		db:        db,
		clock:     clk,
		log:       log.Named("ratelimit.sweeper"),
		maxWindow: maxWindow,
		every:     every,
	}
}

func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for {
		if deleted, err := s.RunOnce(ctx); err != nil {
			s.log.Warn("rate limit sweep failed", zap.Error(err))
		} else if deleted > 0 {
			s.log.Debug("rate limit sweep", zap.Int64("deleted", deleted))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-s.maxWindow)
	res := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&Record{})
	return res.RowsAffected, res.Error
}

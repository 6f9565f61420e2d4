package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/litmer/backend/internal/models"
	"github.com/litmer/backend/pkg/logger"
	"github.com/litmer/backend/pkg/response"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultAIRateLimit is the per-actor AI call budget within one minute window.
const DefaultAIRateLimit = 10

// RateWindowService enforces the per-actor fixed-window AI budget. Windows
// are minute-aligned rows; past minutes are simply never matched again.
type RateWindowService struct {
	db    *gorm.DB
	limit int
	log   zerolog.Logger

	gc *cron.Cron
}

func NewRateWindowService(db *gorm.DB, limit int) *RateWindowService {
	if limit <= 0 {
		limit = DefaultAIRateLimit
	}
	return &RateWindowService{db: db, limit: limit, log: logger.With("ratewindow")}
}

// CheckAndConsume consumes one unit of the actor's budget for the current
// minute window, or denies with RateLimited once the budget is spent. The
// unit is consumed before any external call and is never refunded.
func (s *RateWindowService) CheckAndConsume(actorID uint) error {
	window := time.Now().UTC().Truncate(time.Minute)

	return s.db.Transaction(func(tx *gorm.DB) error {
		row := models.AIRateWindow{UserID: actorID, WindowStart: window}
		// Concurrent first calls in the same window race on row creation;
		// the unique (user, window) index plus DoNothing make it idempotent.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("create rate window: %w", err)
		}

		res := tx.Model(&models.AIRateWindow{}).
			Where("user_id = ? AND window_start = ? AND request_count < ?", actorID, window, s.limit).
			UpdateColumn("request_count", gorm.Expr("request_count + 1"))
		if res.Error != nil {
			return fmt.Errorf("consume rate window: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return response.NewRateLimited("AI rate limit exceeded, try again in a minute")
		}
		return nil
	})
}

// Remaining reports the unused budget in the current window. Informational
// only; CheckAndConsume is the authoritative gate.
func (s *RateWindowService) Remaining(actorID uint) (int, error) {
	window := time.Now().UTC().Truncate(time.Minute)

	var row models.AIRateWindow
	err := s.db.Where("user_id = ? AND window_start = ?", actorID, window).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.limit, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load rate window: %w", err)
	}

	remaining := s.limit - row.RequestCount
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Purge removes windows older than the cutoff. Stale windows are harmless
// for correctness; this only bounds table growth.
func (s *RateWindowService) Purge(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res := s.db.Where("window_start < ?", cutoff).Delete(&models.AIRateWindow{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// StartGC schedules periodic purging of stale windows.
func (s *RateWindowService) StartGC(spec string) error {
	if spec == "" {
		spec = "@hourly"
	}

	s.gc = cron.New()
	_, err := s.gc.AddFunc(spec, func() {
		deleted, err := s.Purge(time.Hour)
		if err != nil {
			s.log.Warn().Err(err).Msg("rate window purge failed")
			return
		}
		if deleted > 0 {
			s.log.Info().Int64("deleted", deleted).Msg("purged stale rate windows")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule rate window purge: %w", err)
	}

	s.gc.Start()
	return nil
}

// StopGC stops the purge scheduler.
func (s *RateWindowService) StopGC() {
	if s.gc != nil {
		s.gc.Stop()
	}
}

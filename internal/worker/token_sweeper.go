package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/repository"
)

// TokenSweeper periodically deletes expired refresh token rows. Presentation
// of an expired token already removes it lazily; the sweeper catches rows
// from sessions that were simply abandoned.
type TokenSweeper struct {
	refresh  repository.RefreshTokenRepository
	interval time.Duration
	logger   *zap.Logger
}

// NewTokenSweeper builds the sweeper.
func NewTokenSweeper(refresh repository.RefreshTokenRepository, interval time.Duration, logger *zap.Logger) *TokenSweeper {
	return &TokenSweeper{refresh: refresh, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, sweeping on every tick.
func (w *TokenSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *TokenSweeper) sweep(ctx context.Context) {
	deleted, err := w.refresh.DeleteExpired(ctx, time.Now())
	if err != nil {
		w.logger.Warn("refresh token sweep failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		w.logger.Info("swept expired refresh tokens", zap.Int64("deleted", deleted))
	}
}

package service

import (
	"context"
	"time"

	"github.com/ignatzorin/studyhub-auth/internal/logger"
)

// ExpiredSessionStore удаляет истёкшие записи user_sessions.
type ExpiredSessionStore interface {
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// SessionJanitor периодически чистит таблицу сессий.
type SessionJanitor struct {
	store    ExpiredSessionStore
	interval time.Duration
}

// NewSessionJanitor создаёт чистильщик с заданным интервалом (по умолчанию час).
func NewSessionJanitor(store ExpiredSessionStore, interval time.Duration) *SessionJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionJanitor{store: store, interval: interval}
}

// Run выполняет очистку до отмены контекста.
func (j *SessionJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		j.Sweep(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep выполняет один проход очистки.
func (j *SessionJanitor) Sweep(ctx context.Context) {
	removed, err := j.store.DeleteExpiredSessions(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Log.WithField("error", err.Error()).Warn("session janitor: очистка не удалась")
		}
		return
	}
	if removed > 0 {
		logger.Log.WithField("removed", removed).Info("session janitor: истёкшие сессии удалены")
	}
}

package store

import (
	"context"
	"time"

	"github.com/nhle/attendance-kiosk/internal/model"
)

// Store is the attempt journal: one row per attendance submission.
type Store interface {
	RecordAttempt(ctx context.Context, a model.Attempt) error
	RecentAttempts(ctx context.Context, limit int) ([]model.Attempt, error)
	OutcomeCounts(ctx context.Context, since time.Time) (map[model.OutcomeKind]int, error)
	Close() error
}

var _ Store = (*SQLiteStore)(nil)

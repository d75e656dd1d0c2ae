package ports

import (
	"context"

	"github.com/cocopam/binny-buddy-ai/internal/core/domain"
)

// HistoryRecorder persists detection runs.
type HistoryRecorder interface {
	Record(ctx context.Context, rec domain.DetectionRecord) error
	Recent(ctx context.Context, limit int) ([]domain.DetectionRecord, error)
}

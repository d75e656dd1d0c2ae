// Package sqlite stores the detection history in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cocopam/binny-buddy-ai/internal/core/domain"
	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME NOT NULL,
		success INTEGER NOT NULL,
		total_objects INTEGER NOT NULL,
		labels TEXT NOT NULL,
		duration_ms INTEGER NOT NULL
	)
`

// History implements ports.HistoryRecorder.
type History struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared between calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &History{db: db}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) Record(ctx context.Context, rec domain.DetectionRecord) error {
	labels := make([]string, len(rec.Labels))
	for i, l := range rec.Labels {
		labels[i] = string(l)
	}
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO detections (created_at, success, total_objects, labels, duration_ms)
		VALUES (?, ?, ?, ?, ?)
	`, rec.CreatedAt.UTC(), rec.Success, rec.TotalObjects, strings.Join(labels, ","), rec.DurationMs)
	if err != nil {
		return fmt.Errorf("failed to insert detection: %w", err)
	}
	return nil
}

// Recent returns the newest limit records, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]domain.DetectionRecord, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, created_at, success, total_objects, labels, duration_ms
		FROM detections
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	out := []domain.DetectionRecord{}
	for rows.Next() {
		var (
			rec    domain.DetectionRecord
			labels string
			at     time.Time
		)
		if err := rows.Scan(&rec.ID, &at, &rec.Success, &rec.TotalObjects, &labels, &rec.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		rec.CreatedAt = at.UTC()
		rec.Labels = []domain.PlasticType{}
		if labels != "" {
			for _, l := range strings.Split(labels, ",") {
				rec.Labels = append(rec.Labels, domain.PlasticType(l))
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

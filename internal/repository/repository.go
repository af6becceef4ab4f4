// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres, memory) inside this directory.
package repository

import (
	"context"
	"errors"
	"time"

	"textscrub/internal/model"
)

// ErrNotFound is returned when a scan session does not exist or has expired.
var ErrNotFound = errors.New("scan session not found")

// ScanRepository stores scan sessions so an apply can refer to a scan by ID.
// No business logic here, strictly persistence operations.
type ScanRepository interface {
	// Create stores a new session. The caller sets ID and CreatedAt.
	Create(ctx context.Context, s *model.ScanSession) (*model.ScanSession, error)

	// FindByID returns a session by its ID or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.ScanSession, error)

	// MarkApplied records when a session was applied. Unknown IDs yield ErrNotFound.
	MarkApplied(ctx context.Context, id string, at time.Time) error

	// DeleteOlderThan removes sessions created before cutoff and reports how many went.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"textscrub/internal/model"
	"textscrub/internal/repository"
)

// ScanPostgres is a PostgreSQL implementation of repository.ScanRepository.
// Replacements are kept as a JSONB document next to the summary columns.
type ScanPostgres struct {
	db *sql.DB
}

// NewScanPostgres creates a new ScanPostgres repository.
func NewScanPostgres(db *sql.DB) *ScanPostgres {
	return &ScanPostgres{db: db}
}

var _ repository.ScanRepository = (*ScanPostgres)(nil)

// Create inserts a new session row and returns the stored record.
func (r *ScanPostgres) Create(ctx context.Context, s *model.ScanSession) (*model.ScanSession, error) {
	payload, err := json.Marshal(s.Replacements)
	if err != nil {
		return nil, fmt.Errorf("encode replacements: %w", err)
	}

	const q = `
		INSERT INTO scan_sessions (id, project_root, total_found, components_affected, replacements, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, project_root, total_found, components_affected, replacements, created_at, applied_at
	`
	row := r.db.QueryRowContext(ctx, q,
		s.ID,
		s.ProjectRoot,
		s.TotalFound,
		s.ComponentsAffected,
		payload,
		s.CreatedAt,
	)
	return scanSession(row)
}

// FindByID fetches a single session by its ID.
func (r *ScanPostgres) FindByID(ctx context.Context, id string) (*model.ScanSession, error) {
	const q = `
		SELECT id, project_root, total_found, components_affected, replacements, created_at, applied_at
		FROM scan_sessions
		WHERE id = $1
	`
	out, err := scanSession(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return out, err
}

// MarkApplied stamps applied_at on a session.
func (r *ScanPostgres) MarkApplied(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE scan_sessions SET applied_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteOlderThan removes expired sessions.
func (r *ScanPostgres) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM scan_sessions WHERE created_at < $1`
	res, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSession(row *sql.Row) (*model.ScanSession, error) {
	var (
		out       model.ScanSession
		payload   []byte
		appliedAt sql.NullTime
	)
	if err := row.Scan(
		&out.ID,
		&out.ProjectRoot,
		&out.TotalFound,
		&out.ComponentsAffected,
		&payload,
		&out.CreatedAt,
		&appliedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &out.Replacements); err != nil {
		return nil, fmt.Errorf("decode replacements: %w", err)
	}
	if appliedAt.Valid {
		t := appliedAt.Time
		out.AppliedAt = &t
	}
	return &out, nil
}

// Package memory keeps scan sessions in process memory. It serves single
// instance deployments that run without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"textscrub/internal/model"
	"textscrub/internal/repository"
)

type ScanMemory struct {
	mu       sync.RWMutex
	sessions map[string]model.ScanSession
}

func NewScanMemory() *ScanMemory {
	return &ScanMemory{sessions: make(map[string]model.ScanSession)}
}

var _ repository.ScanRepository = (*ScanMemory)(nil)

func (r *ScanMemory) Create(_ context.Context, s *model.ScanSession) (*model.ScanSession, error) {
	stored := clone(*s)
	r.mu.Lock()
	r.sessions[s.ID] = stored
	r.mu.Unlock()
	out := clone(stored)
	return &out, nil
}

func (r *ScanMemory) FindByID(_ context.Context, id string) (*model.ScanSession, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clone(s)
	return &out, nil
}

func (r *ScanMemory) MarkApplied(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.AppliedAt = &at
	r.sessions[id] = s
	return nil
}

func (r *ScanMemory) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if s.CreatedAt.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// clone copies the replacement slice so callers cannot mutate stored state.
func clone(s model.ScanSession) model.ScanSession {
	s.Replacements = append([]model.Replacement(nil), s.Replacements...)
	if s.AppliedAt != nil {
		t := *s.AppliedAt
		s.AppliedAt = &t
	}
	return s
}

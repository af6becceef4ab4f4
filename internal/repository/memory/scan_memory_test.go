package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textscrub/internal/model"
	"textscrub/internal/repository"
)

func TestScanMemory_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewScanMemory()
	now := time.Now().UTC()

	in := &model.ScanSession{
		ID:           "s1",
		CreatedAt:    now,
		Replacements: []model.Replacement{{ID: "r1", Key: "page.text.hello"}},
	}
	_, err := repo.Create(ctx, in)
	require.NoError(t, err)

	in.Replacements[0].Key = "mutated"
	got, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "page.text.hello", got.Replacements[0].Key)
	assert.Nil(t, got.AppliedAt)

	require.NoError(t, repo.MarkApplied(ctx, "s1", now.Add(time.Second)))
	got, err = repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got.AppliedAt)

	assert.ErrorIs(t, repo.MarkApplied(ctx, "nope", now), repository.ErrNotFound)
	_, err = repo.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestScanMemory_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	repo := NewScanMemory()
	now := time.Now().UTC()

	_, _ = repo.Create(ctx, &model.ScanSession{ID: "old", CreatedAt: now.Add(-2 * time.Hour)})
	_, _ = repo.Create(ctx, &model.ScanSession{ID: "new", CreatedAt: now})

	n, err := repo.DeleteOlderThan(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindByID(ctx, "old")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.FindByID(ctx, "new")
	assert.NoError(t, err)
}

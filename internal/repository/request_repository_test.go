package repository

import (
	"context"
	"testing"

	"ksk-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRepository_SeedsOnFirstLoad(t *testing.T) {
	storage := NewMemoryStorage()
	repo := NewRequestRepository(storage, MockRequests())
	ctx := context.Background()

	state, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, state.Requests, len(MockRequests()))
	assert.Equal(t, int64(1), state.Version)

	for _, r := range state.Requests {
		assert.Len(t, r.Identifier, 12, "request %s must carry an identifier", r.ID)
	}
	assert.Equal(t, model.PlaceholderIdentifier, state.Requests[3].Identifier)

	rec, err := storage.Get(ctx, KeyRequests)
	require.NoError(t, err, "seed must be persisted")
	assert.Equal(t, int64(1), rec.Version)

	again, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.Requests, again.Requests, "second load reads the stored list")
}

func TestRequestRepository_SaveDetectsStaleState(t *testing.T) {
	repo := NewRequestRepository(NewMemoryStorage(), MockRequests())
	ctx := context.Background()

	a, err := repo.Load(ctx)
	require.NoError(t, err)
	b, err := repo.Load(ctx)
	require.NoError(t, err)

	a.Requests = a.Requests[:1]
	_, err = repo.Save(ctx, a)
	require.NoError(t, err)

	_, err = repo.Save(ctx, b)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestRequestRepository_EmptySeed(t *testing.T) {
	repo := NewRequestRepository(NewMemoryStorage(), nil)

	state, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, state.Requests)
	assert.Empty(t, state.Requests)
}

func TestRequestRepository_Reseed(t *testing.T) {
	storage := NewMemoryStorage()
	repo := NewRequestRepository(storage, MockRequests())
	ctx := context.Background()

	_, err := storage.Put(ctx, KeyRequests, []byte(`[]`), AnyVersion)
	require.NoError(t, err)

	n, err := repo.Reseed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(MockRequests()), n)

	state, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, state.Requests, n)
}

func TestRequestRepository_CorruptList(t *testing.T) {
	storage := NewMemoryStorage()
	_, err := storage.Put(context.Background(), KeyRequests, []byte(`{not json`), AnyVersion)
	require.NoError(t, err)

	_, err = NewRequestRepository(storage, nil).Load(context.Background())
	assert.ErrorContains(t, err, "decode requests")
}

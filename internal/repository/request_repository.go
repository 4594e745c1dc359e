package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ksk-service/internal/model"
)

// RequestState is the full cross-city request list with the storage version it was read at.
type RequestState struct {
	Requests []model.Request
	Version  int64
}

// RequestRepository is the system of record for every request in every city.
type RequestRepository struct {
	storage Storage
	seed    []model.Request
}

func NewRequestRepository(storage Storage, seed []model.Request) *RequestRepository {
	return &RequestRepository{storage: storage, seed: seed}
}

// Load returns the full list, seeding it from the mock dataset on first run.
func (r *RequestRepository) Load(ctx context.Context) (RequestState, error) {
	rec, err := r.storage.Get(ctx, KeyRequests)
	if errors.Is(err, ErrNotFound) {
		return r.seedState(ctx)
	}
	if err != nil {
		return RequestState{}, err
	}

	var requests []model.Request
	if err := json.Unmarshal(rec.Value, &requests); err != nil {
		return RequestState{}, fmt.Errorf("decode requests: %w: %w", ErrCorruptRecord, err)
	}
	if requests == nil {
		requests = []model.Request{}
	}
	return RequestState{Requests: requests, Version: rec.Version}, nil
}

// Save persists the full list. It fails with ErrVersionConflict when the stored
// list changed since state was loaded.
func (r *RequestRepository) Save(ctx context.Context, state RequestState) (int64, error) {
	body, err := json.Marshal(state.Requests)
	if err != nil {
		return 0, fmt.Errorf("encode requests: %w", err)
	}
	return r.storage.Put(ctx, KeyRequests, body, state.Version)
}

// Reseed overwrites the stored list with the mock dataset.
func (r *RequestRepository) Reseed(ctx context.Context) (int, error) {
	initial := r.initialRequests()
	body, err := json.Marshal(initial)
	if err != nil {
		return 0, fmt.Errorf("encode requests: %w", err)
	}
	if _, err := r.storage.Put(ctx, KeyRequests, body, AnyVersion); err != nil {
		return 0, err
	}
	return len(initial), nil
}

func (r *RequestRepository) seedState(ctx context.Context) (RequestState, error) {
	initial := r.initialRequests()
	body, err := json.Marshal(initial)
	if err != nil {
		return RequestState{}, fmt.Errorf("encode requests: %w", err)
	}

	version, err := r.storage.Put(ctx, KeyRequests, body, 0)
	if errors.Is(err, ErrVersionConflict) {
		// Seeded concurrently by another client.
		return r.Load(ctx)
	}
	if err != nil {
		return RequestState{}, err
	}
	return RequestState{Requests: initial, Version: version}, nil
}

func (r *RequestRepository) initialRequests() []model.Request {
	initial := make([]model.Request, len(r.seed))
	for i, req := range r.seed {
		if req.Identifier == "" {
			req.Identifier = model.PlaceholderIdentifier
		}
		initial[i] = req
	}
	return initial
}

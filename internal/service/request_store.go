package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"ksk-service/internal/messaging"
	"ksk-service/internal/model"
	"ksk-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestStore is one client's view of the request list: the durable
// cross-city list filtered by the session's city.
type RequestStore struct {
	mu          sync.RWMutex
	requestRepo *repository.RequestRepository
	publisher   messaging.Publisher
	logger      *zap.Logger
	now         func() time.Time
	newID       func() (string, error)

	hasSession bool
	city       string
	visible    []model.Request
}

func NewRequestStore(requestRepo *repository.RequestRepository, publisher messaging.Publisher, logger *zap.Logger) *RequestStore {
	return &RequestStore{
		requestRepo: requestRepo,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
		newID:       newRequestID,
		visible:     []model.Request{},
	}
}

func newRequestID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// FilterByCity returns the requests in city, preserving order.
func FilterByCity(requests []model.Request, city string) []model.Request {
	out := make([]model.Request, 0, len(requests))
	for _, r := range requests {
		if r.City == city {
			out = append(out, r)
		}
	}
	return out
}

// Reload recomputes the visible list for session from durable storage.
// Usable directly as a SessionListener.
func (s *RequestStore) Reload(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session == nil {
		s.hasSession = false
		s.city = ""
		s.visible = []model.Request{}
		return nil
	}

	state, err := s.requestRepo.Load(ctx)
	if err != nil {
		return err
	}
	s.hasSession = true
	s.city = session.City
	s.visible = FilterByCity(state.Requests, session.City)
	return nil
}

// List returns a copy of the visible requests.
func (s *RequestStore) List() []model.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRequests(s.visible)
}

func (s *RequestStore) Get(id string) (model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.visible {
		if r.ID == id {
			return cloneRequest(r), nil
		}
	}
	return model.Request{}, ErrRequestNotFound
}

// Add assigns an id and creation time, appends the request to the durable
// list and, when it belongs to the session's city, to the visible list.
func (s *RequestStore) Add(ctx context.Context, in model.NewRequest) (model.Request, error) {
	if in.Status == "" {
		in.Status = model.StatusNew
	}
	if !in.Status.Valid() {
		return model.Request{}, model.ErrInvalidStatus
	}
	if !model.IsValidCategory(in.Category) {
		return model.Request{}, model.ErrInvalidCategory
	}
	if !model.ValidIdentifier(in.Identifier) {
		return model.Request{}, model.ErrInvalidIdentifier
	}

	id, err := s.newID()
	if err != nil {
		return model.Request{}, err
	}
	req := model.Request{
		ID:           id,
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		Status:       in.Status,
		Coordinates:  in.Coordinates,
		CreatedAt:    s.now().UTC(),
		Address:      in.Address,
		Author:       in.Author,
		Identifier:   in.Identifier,
		City:         in.City,
		Report:       in.Report,
		ReportPhotos: in.ReportPhotos,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = repository.RetryOnConflict(ctx, func() error {
		state, err := s.requestRepo.Load(ctx)
		if err != nil {
			return err
		}
		state.Requests = append(state.Requests, req)
		_, err = s.requestRepo.Save(ctx, state)
		return err
	})
	if err != nil {
		return model.Request{}, err
	}

	if s.hasSession && req.City == s.city {
		s.visible = append(s.visible, cloneRequest(req))
	}

	s.logger.Info("request created", zap.String("request_id", req.ID), zap.String("city", req.City), zap.String("category", req.Category))
	s.publishCreated(ctx, req)
	return cloneRequest(req), nil
}

// Refresh recomputes the visible list from durable storage for the current
// session, picking up writes made by other clients.
func (s *RequestStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasSession {
		return nil
	}
	state, err := s.requestRepo.Load(ctx)
	if err != nil {
		return err
	}
	s.visible = FilterByCity(state.Requests, s.city)
	return nil
}

// Update merges upd into the stored request and into the visible list,
// whichever city the request belongs to. An empty update changes nothing.
func (s *RequestStore) Update(ctx context.Context, id string, upd model.RequestUpdate) (model.Request, error) {
	if err := upd.Validate(); err != nil {
		return model.Request{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before, after, err := s.modifyLocked(ctx, id, func(r model.Request) (model.Request, bool) {
		if upd.IsEmpty() {
			return r, false
		}
		return upd.Apply(r), true
	})
	if err != nil {
		return model.Request{}, err
	}
	if upd.IsEmpty() {
		return cloneRequest(after), nil
	}

	s.logger.Info("request updated", zap.String("request_id", id), zap.String("status", string(after.Status)))
	if before.Status != after.Status {
		s.publishStatusUpdate(ctx, before, after)
	}
	return cloneRequest(after), nil
}

// AppendReportPhoto adds url to the request's report photos. The append happens
// on the durable record, so concurrent uploads all survive.
func (s *RequestStore) AppendReportPhoto(ctx context.Context, id, url string) (model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, after, err := s.modifyLocked(ctx, id, func(r model.Request) (model.Request, bool) {
		r.ReportPhotos = append(append([]string{}, r.ReportPhotos...), url)
		return r, true
	})
	if err != nil {
		return model.Request{}, err
	}

	s.logger.Info("report photo attached", zap.String("request_id", id), zap.Int("photos", len(after.ReportPhotos)))
	return cloneRequest(after), nil
}

// modifyLocked runs a versioned read-modify-write of one durable record and
// mirrors the stored result into the visible list.
func (s *RequestStore) modifyLocked(ctx context.Context, id string, fn func(model.Request) (model.Request, bool)) (model.Request, model.Request, error) {
	var before, after model.Request
	changed := false
	err := repository.RetryOnConflict(ctx, func() error {
		state, err := s.requestRepo.Load(ctx)
		if err != nil {
			return err
		}

		idx := -1
		for i := range state.Requests {
			if state.Requests[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrRequestNotFound
		}

		before = cloneRequest(state.Requests[idx])
		after, changed = fn(cloneRequest(state.Requests[idx]))
		if !changed {
			return nil
		}
		state.Requests[idx] = after
		_, err = s.requestRepo.Save(ctx, state)
		return err
	})
	if err != nil {
		return model.Request{}, model.Request{}, err
	}

	if changed {
		for i := range s.visible {
			if s.visible[i].ID == id {
				s.visible[i] = cloneRequest(after)
			}
		}
	}
	return before, after, nil
}

// Query applies the request panel filters to the visible list, newest first.
func (s *RequestStore) Query(filter model.RequestFilter) []model.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Request, 0, len(s.visible))
	for _, r := range s.visible {
		if filter.Matches(r) {
			out = append(out, cloneRequest(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *RequestStore) Stats() model.RequestStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats model.RequestStats
	for _, r := range s.visible {
		switch r.Status {
		case model.StatusNew:
			stats.New++
		case model.StatusInProgress:
			stats.InProgress++
		case model.StatusDone:
			stats.Done++
		}
	}
	stats.Total = len(s.visible)
	return stats
}

func (s *RequestStore) publishCreated(ctx context.Context, req model.Request) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishRequestCreated(ctx, messaging.RequestCreatedMessage{
		RequestID:  req.ID,
		Title:      req.Title,
		Category:   req.Category,
		City:       req.City,
		Identifier: req.Identifier,
		Timestamp:  req.CreatedAt.Unix(),
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("publish request created", zap.String("request_id", req.ID), zap.Error(err))
	}
}

func (s *RequestStore) publishStatusUpdate(ctx context.Context, before, after model.Request) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishStatusUpdate(ctx, messaging.StatusUpdateMessage{
		RequestID:  after.ID,
		Title:      after.Title,
		City:       after.City,
		Identifier: after.Identifier,
		OldStatus:  string(before.Status),
		NewStatus:  string(after.Status),
		Timestamp:  s.now().Unix(),
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("publish status update", zap.String("request_id", after.ID), zap.Error(err))
	}
}

func cloneRequest(r model.Request) model.Request {
	if r.Report != nil {
		report := *r.Report
		r.Report = &report
	}
	if r.ReportPhotos != nil {
		r.ReportPhotos = append([]string{}, r.ReportPhotos...)
	}
	return r
}

func cloneRequests(in []model.Request) []model.Request {
	out := make([]model.Request, len(in))
	for i, r := range in {
		out[i] = cloneRequest(r)
	}
	return out
}

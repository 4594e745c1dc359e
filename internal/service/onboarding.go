package service

import (
	"context"
	"sync"
	"time"

	"ksk-service/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgChooseCity        = "Выберите город"
	msgInvalidIdentifier = "ИИН должен состоять из 12 цифр"
)

// Committer stores the session produced by a completed onboarding.
type Committer func(ctx context.Context, session *model.Session) error

// OnboardingGate walks a visitor from city choice to a committed session:
// choosing_city -> entering_identifier -> complete. Once complete it is inert.
type OnboardingGate struct {
	mu         sync.Mutex
	step       model.OnboardingStep
	city       *model.City
	validation string
	session    *model.Session
	roles      *RoleResolver
	commit     Committer
}

// NewOnboardingGate starts at complete when existing is non-nil.
func NewOnboardingGate(existing *model.Session, roles *RoleResolver, commit Committer) *OnboardingGate {
	g := &OnboardingGate{
		step:   model.StepChoosingCity,
		roles:  roles,
		commit: commit,
	}
	if existing != nil {
		session := *existing
		g.session = &session
		g.step = model.StepComplete
	}
	return g
}

// SelectCity advances to identifier entry when name is one of the fixed cities.
func (g *OnboardingGate) SelectCity(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.step != model.StepChoosingCity {
		return false
	}
	city, ok := model.FindCity(name)
	if !ok {
		g.validation = msgChooseCity
		return false
	}
	g.city = &city
	g.validation = ""
	g.step = model.StepEnteringIdentifier
	return true
}

// Back returns from identifier entry to city choice.
func (g *OnboardingGate) Back() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.step != model.StepEnteringIdentifier {
		return
	}
	g.validation = ""
	g.step = model.StepChoosingCity
}

// SubmitIdentifier commits a session when value is exactly 12 decimal digits.
// Invalid input only sets the validation message; the error reports a failed commit.
func (g *OnboardingGate) SubmitIdentifier(ctx context.Context, value string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.step != model.StepEnteringIdentifier {
		return false, nil
	}
	if !model.ValidIdentifier(value) {
		g.validation = msgInvalidIdentifier
		return false, nil
	}

	session := &model.Session{
		Identifier:      value,
		City:            g.city.Name,
		CityCoordinates: g.city.Coordinates,
		Role:            g.roles.Resolve(value),
	}
	if err := g.commit(ctx, session); err != nil {
		return false, err
	}

	g.session = session
	g.validation = ""
	g.step = model.StepComplete
	return true, nil
}

func (g *OnboardingGate) Step() model.OnboardingStep {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.step
}

func (g *OnboardingGate) Validation() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.validation
}

func (g *OnboardingGate) SelectedCity() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.city == nil {
		return ""
	}
	return g.city.Name
}

func (g *OnboardingGate) Session() *model.Session {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session == nil {
		return nil
	}
	session := *g.session
	return &session
}

type onboardingFlow struct {
	gate     *OnboardingGate
	lastSeen time.Time

	mu     sync.Mutex
	client *Client
	token  string
}

// OnboardingService keeps in-progress onboarding flows in memory.
type OnboardingService struct {
	roles    *RoleResolver
	registry *Registry
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu    sync.Mutex
	flows map[string]*onboardingFlow
}

func NewOnboardingService(roles *RoleResolver, registry *Registry, ttl time.Duration, logger *zap.Logger) *OnboardingService {
	return &OnboardingService{
		roles:    roles,
		registry: registry,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		flows:    make(map[string]*onboardingFlow),
	}
}

// Start opens a flow. A visitor who already has a client starts complete.
func (s *OnboardingService) Start(existing *Client) model.OnboardingResponse {
	f := &onboardingFlow{lastSeen: s.now()}
	var session *model.Session
	if existing != nil {
		session = existing.Sessions.Get()
		f.client = existing
	}
	f.gate = NewOnboardingGate(session, s.roles, func(ctx context.Context, session *model.Session) error {
		client, token, err := s.registry.Create(ctx, session)
		if err != nil {
			return err
		}
		f.mu.Lock()
		f.client = client
		f.token = token
		f.mu.Unlock()
		return nil
	})

	id := uuid.NewString()
	s.mu.Lock()
	s.flows[id] = f
	s.mu.Unlock()

	return s.response(id, f)
}

func (s *OnboardingService) Get(id string) (model.OnboardingResponse, error) {
	f, err := s.flow(id)
	if err != nil {
		return model.OnboardingResponse{}, err
	}
	return s.response(id, f), nil
}

func (s *OnboardingService) SelectCity(id, city string) (model.OnboardingResponse, error) {
	f, err := s.flow(id)
	if err != nil {
		return model.OnboardingResponse{}, err
	}
	f.gate.SelectCity(city)
	return s.response(id, f), nil
}

func (s *OnboardingService) Back(id string) (model.OnboardingResponse, error) {
	f, err := s.flow(id)
	if err != nil {
		return model.OnboardingResponse{}, err
	}
	f.gate.Back()
	return s.response(id, f), nil
}

func (s *OnboardingService) SubmitIdentifier(ctx context.Context, id, identifier string) (model.OnboardingResponse, error) {
	f, err := s.flow(id)
	if err != nil {
		return model.OnboardingResponse{}, err
	}
	ok, err := f.gate.SubmitIdentifier(ctx, identifier)
	if err != nil {
		return model.OnboardingResponse{}, err
	}
	if ok {
		s.logger.Info("onboarding complete", zap.String("flow_id", id), zap.String("city", f.gate.SelectedCity()))
	}
	return s.response(id, f), nil
}

// Evict drops flows untouched for longer than the TTL.
func (s *OnboardingService) Evict() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, f := range s.flows {
		if f.lastSeen.Before(cutoff) {
			delete(s.flows, id)
			n++
		}
	}
	return n
}

// Run evicts stale flows every interval until ctx is done.
func (s *OnboardingService) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Evict(); n > 0 {
				s.logger.Debug("evicted onboarding flows", zap.Int("count", n))
			}
		}
	}
}

func (s *OnboardingService) flow(id string) (*onboardingFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flows[id]
	if !ok {
		return nil, ErrFlowNotFound
	}
	f.lastSeen = s.now()
	return f, nil
}

func (s *OnboardingService) response(id string, f *onboardingFlow) model.OnboardingResponse {
	resp := model.OnboardingResponse{
		FlowID:       id,
		Step:         f.gate.Step(),
		SelectedCity: f.gate.SelectedCity(),
		Error:        f.gate.Validation(),
	}
	switch resp.Step {
	case model.StepChoosingCity:
		resp.Cities = model.Cities
	case model.StepComplete:
		f.mu.Lock()
		client, token := f.client, f.token
		f.mu.Unlock()
		if client != nil {
			session := client.SessionResponse(token)
			resp.Session = &session
		}
	}
	return resp
}

package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"ksk-service/internal/model"

	"go.uber.org/zap"
)

const (
	chatAuthor = "Жилец"

	msgWelcome       = "Здравствуйте! Я помогу вам подать заявку. Расскажите, пожалуйста, какая у вас проблема?"
	msgNeedLocation  = "Пожалуйста, укажите местоположение на карте, нажав на кнопку с маркером внизу. Это обязательно для подачи заявки."
	msgAfterCategory = "Отлично! Теперь расскажите подробнее о проблеме и укажите адрес."
	msgSubmitted     = "Заявка успешно отправлена! Вы можете увидеть её на карте. Спасибо!"
)

// Assistant proposes request fields from the conversation so far. It never fails;
// upstream problems come back as a degraded reply.
type Assistant interface {
	Reply(ctx context.Context, transcript []model.ChatTurn, draft model.RequestDraft) model.AssistantReply
}

// ChatService is one client's conversation with the assistant.
type ChatService struct {
	assistant Assistant
	sessions  *SessionStore
	requests  *RequestStore
	logger    *zap.Logger
	now       func() time.Time

	mu         sync.Mutex
	turns      []model.ChatTurn
	draft      model.RequestDraft
	busy       bool
	generation uint64
	submitted  *model.Request
}

func NewChatService(assistant Assistant, sessions *SessionStore, requests *RequestStore, logger *zap.Logger) *ChatService {
	s := &ChatService{
		assistant: assistant,
		sessions:  sessions,
		requests:  requests,
		logger:    logger,
		now:       time.Now,
	}
	s.resetLocked()
	return s
}

func (s *ChatService) State() model.ChatStateResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Send appends the citizen's message, asks the assistant and merges the fields
// it proposes. Only one call may be in flight.
func (s *ChatService) Send(ctx context.Context, text string) (model.ChatStateResponse, error) {
	if strings.TrimSpace(text) == "" {
		return model.ChatStateResponse{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return model.ChatStateResponse{}, ErrChatBusy
	}
	if s.submitted != nil {
		s.resetLocked()
	}
	s.appendLocked(model.ChatRoleUser, text)
	s.busy = true
	generation := s.generation
	transcript := append([]model.ChatTurn(nil), s.turns...)
	draft := s.draftLocked()
	s.mu.Unlock()

	reply := s.assistant.Reply(ctx, transcript, draft)

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		s.logger.Debug("dropping reply for closed chat")
		return s.stateLocked(), nil
	}
	s.busy = false

	s.appendLocked(model.ChatRoleAssistant, reply.Message)
	s.draft.RequestFields = s.draft.RequestFields.Merge(reply.RequestData)

	if reply.IsComplete {
		if s.draft.Coordinates == nil {
			s.appendLocked(model.ChatRoleAssistant, msgNeedLocation)
		} else if err := s.submitLocked(ctx); err != nil {
			return s.stateLocked(), err
		}
	}
	return s.stateLocked(), nil
}

// PickLocation records a map pick and submits the draft once it is complete.
func (s *ChatService) PickLocation(ctx context.Context, coords model.Coordinates, address string) (model.ChatStateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted != nil {
		s.resetLocked()
	}
	s.draft.Coordinates = &coords
	s.draft.Address = address
	s.appendLocked(model.ChatRoleUser, "Местоположение: "+address)

	if s.draft.Complete() {
		if err := s.submitLocked(ctx); err != nil {
			return s.stateLocked(), err
		}
	}
	return s.stateLocked(), nil
}

func (s *ChatService) SelectCategory(id string) (model.ChatStateResponse, error) {
	if !model.IsValidCategory(id) {
		return model.ChatStateResponse{}, model.ErrInvalidCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted != nil {
		s.resetLocked()
	}
	s.draft.Category = id
	s.appendLocked(model.ChatRoleUser, "Категория: "+model.CategoryInfo(id).Label)
	s.appendLocked(model.ChatRoleAssistant, msgAfterCategory)
	return s.stateLocked(), nil
}

// Close discards the conversation. A reply still in flight is dropped when it arrives.
func (s *ChatService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.busy = false
	s.resetLocked()
}

func (s *ChatService) submitLocked(ctx context.Context) error {
	draft := s.draft
	if !draft.Complete() {
		s.logger.Warn("incomplete submission skipped",
			zap.Bool("title", draft.Title != ""),
			zap.Bool("description", draft.Description != ""),
			zap.Bool("category", draft.Category != ""),
			zap.Bool("address", draft.Address != ""),
			zap.Bool("coordinates", draft.Coordinates != nil),
		)
		return nil
	}

	identifier := model.PlaceholderIdentifier
	city := model.DefaultCity().Name
	if session := s.sessions.Get(); session != nil {
		identifier = session.Identifier
		city = session.City
	}

	req, err := s.requests.Add(ctx, model.NewRequest{
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		Status:      model.StatusNew,
		Coordinates: *draft.Coordinates,
		Address:     draft.Address,
		Author:      chatAuthor,
		Identifier:  identifier,
		City:        city,
	})
	if err != nil {
		return err
	}

	s.submitted = &req
	s.appendLocked(model.ChatRoleAssistant, msgSubmitted)
	return nil
}

func (s *ChatService) resetLocked() {
	s.turns = nil
	s.draft = model.RequestDraft{}
	s.submitted = nil
	s.appendLocked(model.ChatRoleAssistant, msgWelcome)
}

func (s *ChatService) appendLocked(role model.ChatRole, content string) {
	s.turns = append(s.turns, model.ChatTurn{Role: role, Content: content, Timestamp: s.now()})
}

func (s *ChatService) draftLocked() model.RequestDraft {
	draft := s.draft
	if draft.Coordinates != nil {
		coords := *draft.Coordinates
		draft.Coordinates = &coords
	}
	return draft
}

func (s *ChatService) stateLocked() model.ChatStateResponse {
	state := model.ChatStateResponse{
		Messages: append([]model.ChatTurn(nil), s.turns...),
		Draft:    s.draftLocked(),
		Busy:     s.busy,
	}
	if s.submitted != nil {
		req := cloneRequest(*s.submitted)
		state.Submitted = &req
	}
	return state
}

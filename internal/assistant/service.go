package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skillora/instructor-os/internal/localstore"
	"github.com/skillora/instructor-os/internal/logger"
)

var ErrUnknownField = errors.New("the assistant cannot help with this field")

// SuggestRequest asks for a draft of one application field.
type SuggestRequest struct {
	Field   string   `json:"field"`
	Context []string `json:"context,omitempty"`
}

// Suggestion is one generated draft.
type Suggestion struct {
	Field     string    `json:"field"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the per-user assistant history, persisted locally so drafts
// survive restarts alongside the application snapshot.
type Session struct {
	UserID      string       `json:"user_id"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Service generates suggestions and keeps per-user sessions.
type Service struct {
	llm   Completer
	local *localstore.Store
	log   *logger.Logger
}

// NewService creates the assistant service.
func NewService(llm Completer, local *localstore.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Get()
	}
	return &Service{llm: llm, local: local, log: log}
}

// Suggest generates a draft for one field and appends it to the session.
func (s *Service) Suggest(ctx context.Context, userID string, req SuggestRequest) (*Suggestion, error) {
	if !KnownField(req.Field) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, req.Field)
	}

	text, err := s.llm.Complete(ctx, systemPrompt, buildUserPrompt(req.Field, req.Context))
	if err != nil {
		return nil, fmt.Errorf("generate suggestion: %w", err)
	}

	sug := Suggestion{
		Field:     req.Field,
		Text:      strings.TrimSpace(text),
		CreatedAt: time.Now().UTC(),
	}

	session, err := s.Session(userID)
	if err != nil {
		return nil, err
	}
	session.Suggestions = append(session.Suggestions, sug)
	if err := s.local.Save(localstore.AssistantSessionKey(userID), session); err != nil {
		// the suggestion is still usable, only the history write failed
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Could not persist assistant session")
	}

	return &sug, nil
}

// Session loads the user's assistant history, or an empty one.
func (s *Service) Session(userID string) (*Session, error) {
	session := &Session{UserID: userID}
	if s.local == nil {
		return session, nil
	}
	if _, err := s.local.Load(localstore.AssistantSessionKey(userID), session); err != nil {
		return nil, fmt.Errorf("load assistant session: %w", err)
	}
	session.UserID = userID
	return session, nil
}

// Reset clears the user's assistant history.
func (s *Service) Reset(userID string) error {
	if s.local == nil {
		return nil
	}
	return s.local.Delete(localstore.AssistantSessionKey(userID))
}

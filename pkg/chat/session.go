// Package chat keeps the transcript of a classification chat and drives one
// pipeline run per user turn.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jcpsimmons/teachat/pkg/response"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// KindText marks a user turn; assistant turns carry a response.Kind, or
// KindError when the pipeline itself failed.
const (
	KindText  = "text"
	KindError = "error"
)

const errorPrefix = "Falha ao gerar a resposta: "

var ErrEmptyInput = errors.New("input is empty")

type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Kind      string    `json:"kind"`
	Content   any       `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Classifier is the pipeline as seen by a session.
type Classifier interface {
	Run(ctx context.Context, input string) (response.Outcome, error)
}

type Session struct {
	id         string
	classifier Classifier

	// turnMu serialises Submit so one turn finishes before the next starts.
	turnMu sync.Mutex

	mu    sync.RWMutex
	turns []Turn
}

func NewSession(classifier Classifier) *Session {
	return &Session{
		id:         uuid.NewString(),
		classifier: classifier,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Submit appends the user's turn, classifies it and appends the assistant's
// answer. Pipeline failures become an error turn; the session carries on.
func (s *Session) Submit(ctx context.Context, input string) (Turn, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Turn{}, ErrEmptyInput
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.append(RoleUser, KindText, input)

	var reply Turn
	outcome, err := s.classifier.Run(ctx, input)
	if err != nil {
		zap.L().Warn("Pipeline failed", zap.String("session", s.id), zap.Error(err))
		reply = s.append(RoleAssistant, KindError, map[string]string{"error": errorPrefix + err.Error()})
	} else {
		reply = s.append(RoleAssistant, string(outcome.Kind), outcome.Payload())
	}

	return reply, nil
}

func (s *Session) append(role Role, kind string, content any) Turn {
	turn := Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Kind:      kind,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.mu.Unlock()

	return turn
}

// Transcript returns a copy of the turns so far, oldest first.
func (s *Session) Transcript() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

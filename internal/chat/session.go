// Package chat runs the insight chat loop against the backend, answering
// locally from a rule table when the backend cannot.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/oceanboard/internal/appstate"
	"github.com/raphaelgruber/oceanboard/internal/client"
	"github.com/raphaelgruber/oceanboard/internal/models"
	"github.com/raphaelgruber/oceanboard/internal/notify"
)

var (
	// ErrBusy is returned when a message is submitted while a reply is pending.
	ErrBusy = errors.New("waiting for the previous reply")
	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("message is empty")
)

// LocalPrefix marks session ids that were never created on the backend.
const LocalPrefix = "local_"

// DefaultTitle names sessions created by Start and NewChat.
const DefaultTitle = "New Chat"

// State is the loop state.
type State int

const (
	Idle State = iota
	Awaiting
)

func (s State) String() string {
	if s == Awaiting {
		return "awaiting-response"
	}
	return "idle"
}

// Backend is the subset of the REST client the chat loop needs.
type Backend interface {
	ChatSessions(ctx context.Context) ([]models.ChatSession, error)
	CreateChatSession(ctx context.Context, title string) (*models.ChatSession, error)
	SendChatMessage(ctx context.Context, sessionID, message string) (*client.ChatReply, error)
	ChatMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
}

// Config configures a Session.
type Config struct {
	Backend   Backend
	Responder *Responder
	Notifier  notify.Notifier
	Logger    *slog.Logger
}

// Session is one chat conversation. Safe for concurrent use; network calls
// run outside the lock.
type Session struct {
	backend   Backend
	responder *Responder
	notifier  notify.Notifier
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	state    State
	current  models.ChatSession
	messages []models.ChatMessage
}

// New creates a session loop. Call Start before Submit.
func New(cfg Config) *Session {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		backend:   cfg.Backend,
		responder: cfg.Responder,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// Start picks the conversation to continue: the most recent backend session
// with its history, else a newly created one, else a local-only session.
func (s *Session) Start(ctx context.Context) error {
	sessions, err := s.backend.ChatSessions(ctx)
	switch {
	case errors.Is(err, appstate.ErrUnauthenticated):
		return err
	case err != nil:
		s.logger.Warn("list chat sessions failed", "error", err)
	case len(sessions) > 0:
		s.resume(ctx, sessions[0])
		return nil
	}
	return s.create(ctx, DefaultTitle)
}

// NewChat starts a fresh conversation and clears the message list.
func (s *Session) NewChat(ctx context.Context, title string) error {
	s.mu.Lock()
	busy := s.state == Awaiting
	s.mu.Unlock()
	if busy {
		return ErrBusy
	}
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	return s.create(ctx, title)
}

func (s *Session) resume(ctx context.Context, session models.ChatSession) {
	history, err := s.backend.ChatMessages(ctx, session.ID)
	if err != nil {
		s.logger.Warn("load chat history failed", "session", session.ID, "error", err)
		history = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = session
	s.messages = append([]models.ChatMessage{}, history...)
}

func (s *Session) create(ctx context.Context, title string) error {
	session, err := s.backend.CreateChatSession(ctx, title)
	if errors.Is(err, appstate.ErrUnauthenticated) {
		return err
	}
	if err != nil {
		s.logger.Warn("create chat session failed, continuing locally", "error", err)
		now := s.now().UTC()
		session = &models.ChatSession{
			ID:        fmt.Sprintf("%s%d", LocalPrefix, now.UnixMilli()),
			Title:     title,
			CreatedAt: now,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = *session
	s.messages = nil
	return nil
}

// Submit sends text and returns the assistant's reply. The user message is
// appended before the request is made. Backend failures are answered by the
// local responder; only an authentication failure is returned, in which case
// no reply is appended.
func (s *Session) Submit(ctx context.Context, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state == Awaiting {
		s.mu.Unlock()
		return models.ChatMessage{}, ErrBusy
	}
	s.state = Awaiting
	sessionID := s.current.ID
	s.messages = append(s.messages, models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: s.now().UTC(),
	})
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = Idle
		s.mu.Unlock()
	}()

	reply := models.ChatMessage{ID: uuid.NewString(), Role: models.RoleAssistant}

	resp, err := s.backend.SendChatMessage(ctx, sessionID, text)
	switch {
	case err == nil:
		reply.Content = resp.Response
		reply.Charts = resp.Charts
		reply.Timestamp = resp.Timestamp
	case errors.Is(err, appstate.ErrUnauthenticated):
		return models.ChatMessage{}, err
	default:
		s.logger.Warn("chat backend failed, answering locally", "session", sessionID, "error", err)
		notify.Info(s.notifier, "Assistant is offline, showing a local answer")
		reply.Content, reply.Charts = s.responder.Respond(text)
	}
	if reply.Timestamp.IsZero() {
		reply.Timestamp = s.now().UTC()
	}

	s.mu.Lock()
	s.messages = append(s.messages, reply)
	s.mu.Unlock()
	return reply, nil
}

// State returns the loop state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the active session.
func (s *Session) Current() models.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Local reports whether the active session exists only on this machine.
func (s *Session) Local() bool {
	return strings.HasPrefix(s.Current().ID, LocalPrefix)
}

// Messages returns a copy of the conversation in order.
func (s *Session) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage{}, s.messages...)
}

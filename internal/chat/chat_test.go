package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/oceanboard/internal/appstate"
	"github.com/raphaelgruber/oceanboard/internal/client"
	"github.com/raphaelgruber/oceanboard/internal/models"
	"github.com/raphaelgruber/oceanboard/internal/notify"
	"github.com/raphaelgruber/oceanboard/internal/synth"
)

var errDown = errors.New("connection refused")

type fakeBackend struct {
	sessions    []models.ChatSession
	listErr     error
	createErr   error
	sendErr     error
	historyErr  error
	history     []models.ChatMessage
	reply       *client.ChatReply
	block       chan struct{}
	sendStarted chan struct{}
	created     int
}

func (f *fakeBackend) ChatSessions(context.Context) ([]models.ChatSession, error) {
	return f.sessions, f.listErr
}

func (f *fakeBackend) CreateChatSession(_ context.Context, title string) (*models.ChatSession, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	return &models.ChatSession{ID: "srv-1", Title: title, CreatedAt: time.Now()}, nil
}

func (f *fakeBackend) SendChatMessage(ctx context.Context, _, _ string) (*client.ChatReply, error) {
	if f.sendStarted != nil {
		close(f.sendStarted)
	}
	if f.block != nil {
		<-f.block
	}
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.reply, nil
}

func (f *fakeBackend) ChatMessages(context.Context, string) ([]models.ChatMessage, error) {
	return f.history, f.historyErr
}

func newSession(b Backend) (*Session, *notify.Recorder) {
	rec := &notify.Recorder{}
	s := New(Config{Backend: b, Responder: NewResponder(synth.New(7), nil), Notifier: rec})
	s.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return s, rec
}

func TestResponderRules(t *testing.T) {
	r := NewResponder(synth.New(1), nil)

	tests := []struct {
		in        string
		chartType string
	}{
		{"What is the ocean TEMPERATURE near Hawaii?", models.ChartLine},
		{"salinity please", models.ChartHistogram},
		{"how deep do floats go", models.ChartScatter},
		{"where are the floats", models.ChartMap},
		{"plot something", models.ChartBar},
		{"temperature and salinity", models.ChartLine},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			reply, charts := r.Respond(tt.in)
			assert.NotEmpty(t, reply)
			require.Len(t, charts, 1)
			assert.Equal(t, tt.chartType, charts[0].Type)
		})
	}

	reply, charts := r.Respond("hello there")
	assert.Equal(t, DefaultReply, reply)
	assert.Empty(t, charts)
}

func TestStartResumesLatestSession(t *testing.T) {
	b := &fakeBackend{
		sessions: []models.ChatSession{{ID: "s-new"}, {ID: "s-old"}},
		history:  []models.ChatMessage{{ID: "m1", Role: models.RoleUser, Content: "hi"}},
	}
	s, _ := newSession(b)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, "s-new", s.Current().ID)
	assert.Len(t, s.Messages(), 1)
	assert.Zero(t, b.created)
}

func TestStartHistoryFailureKeepsSession(t *testing.T) {
	b := &fakeBackend{sessions: []models.ChatSession{{ID: "s1"}}, historyErr: errDown}
	s, _ := newSession(b)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, "s1", s.Current().ID)
	assert.Empty(t, s.Messages())
}

func TestStartCreatesWhenNoSessions(t *testing.T) {
	b := &fakeBackend{listErr: errDown}
	s, _ := newSession(b)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, "srv-1", s.Current().ID)
	assert.Equal(t, 1, b.created)
	assert.False(t, s.Local())
}

func TestStartFallsBackToLocalSession(t *testing.T) {
	b := &fakeBackend{createErr: errDown}
	s, _ := newSession(b)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, "local_1700000000123", s.Current().ID)
	assert.True(t, s.Local())
}

func TestStartUnauthenticated(t *testing.T) {
	s, _ := newSession(&fakeBackend{listErr: appstate.ErrUnauthenticated})
	assert.ErrorIs(t, s.Start(context.Background()), appstate.ErrUnauthenticated)
}

func TestSubmitUsesBackendReply(t *testing.T) {
	b := &fakeBackend{reply: &client.ChatReply{
		Response: "Mean temperature is 14.2°C",
		Charts:   []models.ChartSpec{{Type: models.ChartBar}},
	}}
	s, rec := newSession(b)
	require.NoError(t, s.Start(context.Background()))

	reply, err := s.Submit(context.Background(), "  mean temperature?  ")
	require.NoError(t, err)
	assert.Equal(t, "Mean temperature is 14.2°C", reply.Content)
	assert.False(t, reply.Timestamp.IsZero())

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "mean temperature?", msgs[0].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, rec.Notices())
}

func TestSubmitFallsBackWithOneChart(t *testing.T) {
	b := &fakeBackend{sendErr: errDown}
	s, rec := newSession(b)
	require.NoError(t, s.Start(context.Background()))

	reply, err := s.Submit(context.Background(), "Show me temperature trends")
	require.NoError(t, err)
	assert.True(t, strings.Contains(strings.ToLower(reply.Content), "temperature"))
	require.Len(t, reply.Charts, 1)
	assert.Equal(t, models.ChartLine, reply.Charts[0].Type)
	assert.Len(t, s.Messages(), 2)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 1, rec.Count(notify.LevelInfo))
}

func TestSubmitEmpty(t *testing.T) {
	s, _ := newSession(&fakeBackend{})
	_, err := s.Submit(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, s.Messages())
}

func TestSubmitWhileAwaiting(t *testing.T) {
	b := &fakeBackend{
		reply:       &client.ChatReply{Response: "ok"},
		block:       make(chan struct{}),
		sendStarted: make(chan struct{}),
	}
	s, _ := newSession(b)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "first")
		done <- err
	}()

	<-b.sendStarted
	assert.Equal(t, Awaiting, s.State())
	_, err := s.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, s.NewChat(context.Background(), ""), ErrBusy)

	close(b.block)
	require.NoError(t, <-done)
	assert.Equal(t, Idle, s.State())
	assert.Len(t, s.Messages(), 2)
}

func TestSubmitUnauthenticated(t *testing.T) {
	s, _ := newSession(&fakeBackend{sendErr: appstate.ErrUnauthenticated})

	_, err := s.Submit(context.Background(), "temperature")
	assert.ErrorIs(t, err, appstate.ErrUnauthenticated)
	assert.Equal(t, Idle, s.State())
	assert.Len(t, s.Messages(), 1)
}

func TestNewChatResetsMessages(t *testing.T) {
	b := &fakeBackend{sendErr: errDown}
	s, _ := newSession(b)
	require.NoError(t, s.Start(context.Background()))
	_, err := s.Submit(context.Background(), "depth")
	require.NoError(t, err)

	require.NoError(t, s.NewChat(context.Background(), "Salinity questions"))
	assert.Empty(t, s.Messages())
	assert.Equal(t, "Salinity questions", s.Current().Title)
}

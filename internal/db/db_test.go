package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/oceanboard/internal/models"
)

func openTest(t *testing.T) *Client {
	t.Helper()
	c, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	// Deterministic, strictly increasing clock.
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	c.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return c
}

func createUser(t *testing.T, c *Client, name string) User {
	t.Helper()
	u, err := c.CreateUser(context.Background(), User{
		Username:     name,
		Email:        name + "@example.org",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return u
}

func TestInitSchemaIdempotent(t *testing.T) {
	c := openTest(t)
	require.NoError(t, c.InitSchema(context.Background()))
	require.NoError(t, c.Ping(context.Background()))
}

func TestOpenInMemory(t *testing.T) {
	c, err := Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	defer c.Close()

	u, err := c.CreateUser(context.Background(), User{Username: "mem", Email: "m@example.org", PasswordHash: "h"})
	require.NoError(t, err)
	got, err := c.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "mem", got.Username)
}

func TestCreateUserUnique(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	u := createUser(t, c, "ana")
	assert.Len(t, u.ID, 26, "ULID ids")
	assert.Equal(t, "user", u.Role)

	_, err := c.CreateUser(ctx, User{Username: "ana", Email: "other@example.org", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = c.CreateUser(ctx, User{Username: "other", Email: "ana@example.org", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUserLookup(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()
	u := createUser(t, c, "ana")

	got, err := c.UserByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = c.UserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfilePartial(t *testing.T) {
	c := openTest(t)
	u := createUser(t, c, "ana")

	org := "NOAA"
	got, err := c.UpdateProfile(context.Background(), u.ID, ProfileChanges{Organization: &org})
	require.NoError(t, err)
	assert.Equal(t, "NOAA", got.Organization)
	assert.Equal(t, "ana@example.org", got.Email)

	p := got.Profile()
	assert.Equal(t, "ana", p.Username)
	assert.Equal(t, "NOAA", p.Organization)
}

func TestChatSessionsAndMessages(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()
	ana := createUser(t, c, "ana")
	bob := createUser(t, c, "bob")

	first, err := c.CreateChatSession(ctx, ana.ID, "first")
	require.NoError(t, err)
	second, err := c.CreateChatSession(ctx, ana.ID, "second")
	require.NoError(t, err)

	sessions, err := c.ChatSessions(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID, "newest first")
	assert.Equal(t, first.ID, sessions[1].ID)

	assert.NoError(t, c.ChatSessionOwned(ctx, ana.ID, first.ID))
	assert.ErrorIs(t, c.ChatSessionOwned(ctx, bob.ID, first.ID), ErrNotFound)

	_, err = c.AddChatMessage(ctx, first.ID, models.ChatMessage{Role: models.RoleUser, Content: "temperature?"})
	require.NoError(t, err)
	_, err = c.AddChatMessage(ctx, first.ID, models.ChatMessage{
		Role:    models.RoleAssistant,
		Content: "here",
		Charts:  []models.ChartSpec{{Type: models.ChartLine, Title: "Profile"}},
	})
	require.NoError(t, err)

	msgs, err := c.ChatMessages(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Nil(t, msgs[0].Charts)
	require.Len(t, msgs[1].Charts, 1)
	assert.Equal(t, "Profile", msgs[1].Charts[0].Title)
	assert.True(t, msgs[1].Timestamp.After(msgs[0].Timestamp))
}

func TestNotifications(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()
	ana := createUser(t, c, "ana")
	bob := createUser(t, c, "bob")

	n, err := c.CreateNotification(ctx, ana.ID, "Welcome", "Thanks for signing up")
	require.NoError(t, err)

	assert.ErrorIs(t, c.MarkNotificationRead(ctx, bob.ID, n.ID), ErrNotFound)
	require.NoError(t, c.MarkNotificationRead(ctx, ana.ID, n.ID))

	list, err := c.Notifications(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Read)

	list, err = c.Notifications(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestActivityAndStats(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()
	ana := createUser(t, c, "ana")

	require.NoError(t, c.RecordActivity(ctx, ana.ID, ActionUpload, "floats.csv"))
	require.NoError(t, c.RecordActivity(ctx, ana.ID, ActionQuery, "temperature"))
	require.NoError(t, c.RecordActivity(ctx, ana.ID, ActionQuery, "salinity"))
	require.NoError(t, c.RecordActivity(ctx, ana.ID, ActionLogin, "signed in"))
	_, err := c.CreateChatSession(ctx, ana.ID, "chat")
	require.NoError(t, err)

	activity, err := c.Activity(ctx, ana.ID, 3)
	require.NoError(t, err)
	require.Len(t, activity, 3)
	assert.Equal(t, ActionLogin, activity[0].Action)

	stats, err := c.UserStats(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserStats{Uploads: 1, Exports: 0, Queries: 2, Sessions: 1}, stats)
}

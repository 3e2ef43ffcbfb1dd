package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/raphaelgruber/oceanboard/internal/models"
)

// User is a stored account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	Organization string
}

// Profile returns the public part of the account.
func (u User) Profile() models.UserProfile {
	return models.UserProfile{
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		Role:         u.Role,
		Organization: u.Organization,
	}
}

// Activity actions counted by UserStats.
const (
	ActionUpload = "upload"
	ActionExport = "export"
	ActionQuery  = "query"
	ActionLogin  = "login"
)

// =============================================================================
// USERS
// =============================================================================

// CreateUser inserts an account. A taken username or email yields ErrAlreadyExists.
func (c *Client) CreateUser(ctx context.Context, u User) (User, error) {
	u.ID = newID()
	if u.Role == "" {
		u.Role = "user"
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, full_name, role, organization, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FullName, u.Role, u.Organization, c.timestamp())
	if err != nil {
		return User{}, fmt.Errorf("create user %s: %w", u.Username, wrapQueryError(err))
	}
	return u, nil
}

const userColumns = `id, username, email, password_hash, full_name, role, organization`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.Organization)
	return u, wrapQueryError(err)
}

// UserByUsername looks up an account for login.
func (c *Client) UserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(c.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

// UserByID looks up an account by id.
func (c *Client) UserByID(ctx context.Context, id string) (User, error) {
	return scanUser(c.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// ProfileChanges lists editable profile fields; nil fields are unchanged.
type ProfileChanges struct {
	Email        *string
	FullName     *string
	Organization *string
}

// UpdateProfile applies changes and returns the updated account.
func (c *Client) UpdateProfile(ctx context.Context, id string, ch ProfileChanges) (User, error) {
	_, err := c.db.ExecContext(ctx, `
		UPDATE users SET
			email        = COALESCE(?, email),
			full_name    = COALESCE(?, full_name),
			organization = COALESCE(?, organization)
		WHERE id = ?`,
		ch.Email, ch.FullName, ch.Organization, id)
	if err != nil {
		return User{}, fmt.Errorf("update profile: %w", wrapQueryError(err))
	}
	return c.UserByID(ctx, id)
}

// =============================================================================
// CHAT
// =============================================================================

// CreateChatSession starts a session owned by userID.
func (c *Client) CreateChatSession(ctx context.Context, userID, title string) (models.ChatSession, error) {
	s := models.ChatSession{ID: newID(), Title: title}
	ts := c.timestamp()
	if _, err := c.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, user_id, title, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, userID, title, ts); err != nil {
		return models.ChatSession{}, fmt.Errorf("create chat session: %w", wrapQueryError(err))
	}
	s.CreatedAt = parseTime(ts)
	return s, nil
}

// ChatSessions lists the user's sessions, newest first.
func (c *Client) ChatSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, title, created_at FROM chat_sessions
		WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.ChatSession{}
	for rows.Next() {
		var (
			s  models.ChatSession
			ts string
		)
		if err := rows.Scan(&s.ID, &s.Title, &ts); err != nil {
			return nil, fmt.Errorf("scan chat session: %w", err)
		}
		s.CreatedAt = parseTime(ts)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ChatSessionOwned reports ErrNotFound unless session belongs to userID.
func (c *Client) ChatSessionOwned(ctx context.Context, userID, sessionID string) error {
	var id string
	err := c.db.QueryRowContext(ctx,
		`SELECT id FROM chat_sessions WHERE id = ? AND user_id = ?`, sessionID, userID).Scan(&id)
	return wrapQueryError(err)
}

// AddChatMessage appends a message to a session. ID and Timestamp are assigned when empty.
func (c *Client) AddChatMessage(ctx context.Context, sessionID string, m models.ChatMessage) (models.ChatMessage, error) {
	if m.ID == "" {
		m.ID = newID()
	}
	ts := c.timestamp()
	if !m.Timestamp.IsZero() {
		ts = m.Timestamp.UTC().Format(timeLayout)
	}

	charts := m.Charts
	if charts == nil {
		charts = []models.ChartSpec{}
	}
	chartsJSON, err := json.Marshal(charts)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("encode charts: %w", err)
	}

	if _, err := c.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, role, content, charts, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, sessionID, m.Role, m.Content, string(chartsJSON), ts); err != nil {
		return models.ChatMessage{}, fmt.Errorf("add chat message: %w", wrapQueryError(err))
	}
	m.Timestamp = parseTime(ts)
	return m, nil
}

// ChatMessages returns a session's messages in the order they were added.
func (c *Client) ChatMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, role, content, charts, created_at FROM chat_messages
		WHERE session_id = ? ORDER BY rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var (
			m          models.ChatMessage
			charts, ts string
		)
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &charts, &ts); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		if err := json.Unmarshal([]byte(charts), &m.Charts); err != nil {
			return nil, fmt.Errorf("decode charts of %s: %w", m.ID, err)
		}
		if len(m.Charts) == 0 {
			m.Charts = nil
		}
		m.Timestamp = parseTime(ts)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// CreateNotification adds an unread notification for userID.
func (c *Client) CreateNotification(ctx context.Context, userID, title, body string) (models.Notification, error) {
	n := models.Notification{ID: newID(), Title: title, Body: body}
	ts := c.timestamp()
	if _, err := c.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, title, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		n.ID, userID, title, body, ts); err != nil {
		return models.Notification{}, fmt.Errorf("create notification: %w", wrapQueryError(err))
	}
	n.CreatedAt = parseTime(ts)
	return n, nil
}

// Notifications lists the user's notifications, newest first.
func (c *Client) Notifications(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, title, body, read, created_at FROM notifications
		WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var (
			n  models.Notification
			ts string
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.Read, &ts); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.CreatedAt = parseTime(ts)
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead marks one of the user's notifications as read.
func (c *Client) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================================================
// ACTIVITY
// =============================================================================

// RecordActivity appends an entry to the user's activity log.
func (c *Client) RecordActivity(ctx context.Context, userID, action, detail string) error {
	if _, err := c.db.ExecContext(ctx, `
		INSERT INTO activity (id, user_id, action, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		newID(), userID, action, detail, c.timestamp()); err != nil {
		return fmt.Errorf("record activity: %w", wrapQueryError(err))
	}
	return nil
}

// Activity returns the user's most recent activity, newest first.
func (c *Client) Activity(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT action, detail, created_at FROM activity
		WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	out := []models.Activity{}
	for rows.Next() {
		var (
			a  models.Activity
			ts string
		)
		if err := rows.Scan(&a.Action, &a.Detail, &ts); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Timestamp = parseTime(ts)
		out = append(out, a)
	}
	return out, rows.Err()
}

// UserStats counts the user's uploads, exports, queries and chat sessions.
func (c *Client) UserStats(ctx context.Context, userID string) (models.UserStats, error) {
	var s models.UserStats
	err := c.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM activity WHERE user_id = ?1 AND action = ?2),
			(SELECT COUNT(*) FROM activity WHERE user_id = ?1 AND action = ?3),
			(SELECT COUNT(*) FROM activity WHERE user_id = ?1 AND action = ?4),
			(SELECT COUNT(*) FROM chat_sessions WHERE user_id = ?1)`,
		userID, ActionUpload, ActionExport, ActionQuery,
	).Scan(&s.Uploads, &s.Exports, &s.Queries, &s.Sessions)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	return s, nil
}

package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/raphaelgruber/oceanboard/internal/models"
)

// =============================================================================
// AUTH
// =============================================================================

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// Login exchanges credentials for a token. Bad credentials yield ErrUnauthenticated.
func (c *Client) Login(ctx context.Context, username, password string) (*models.AuthToken, error) {
	var token models.AuthToken
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   map[string]string{"username": username, "password": password},
		public: true,
	}, &token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Register creates an account and returns its first token.
func (c *Client) Register(ctx context.Context, input RegisterInput) (*models.AuthToken, error) {
	var token models.AuthToken
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   input,
		public: true,
	}, &token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Health pings the backend.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/api/health", public: true}, nil)
}

// =============================================================================
// DASHBOARD
// =============================================================================

// DashboardStats returns the dashboard summary cards.
func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/dashboard/stats"}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GeographicData returns map points, optionally restricted to a region.
func (c *Client) GeographicData(ctx context.Context, region string, limit int) ([]models.GeoPoint, error) {
	q := url.Values{}
	if region != "" {
		q.Set("region", region)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var result struct {
		Data []models.GeoPoint `json:"data"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/dashboard/geographic-data", query: q}, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// MonthlyDistribution returns observation counts per month.
func (c *Client) MonthlyDistribution(ctx context.Context) ([]models.MonthlyCount, error) {
	var result struct {
		Data []models.MonthlyCount `json:"data"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/dashboard/monthly-distribution"}, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// ProfilerStats returns per-parameter summaries.
func (c *Client) ProfilerStats(ctx context.Context) ([]models.ProfilerStat, error) {
	var result struct {
		Stats []models.ProfilerStat `json:"stats"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/dashboard/profiler-stats"}, &result); err != nil {
		return nil, err
	}
	return result.Stats, nil
}

// =============================================================================
// DATA EXPLORER
// =============================================================================

// Records returns observation records for the data explorer.
func (c *Client) Records(ctx context.Context, limit int) ([]models.Record, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var result struct {
		Records []models.Record `json:"records"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/data/records", query: q}, &result); err != nil {
		return nil, err
	}
	return result.Records, nil
}

// ExportFile is a server-rendered export.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export asks the backend to render its dataset in format.
func (c *Client) Export(ctx context.Context, format string) (*ExportFile, error) {
	body, headers, err := c.send(ctx, request{
		method: http.MethodGet,
		path:   "/api/export",
		query:  url.Values{"format": {format}},
	})
	if err != nil {
		return nil, err
	}

	file := &ExportFile{ContentType: headers.Get("Content-Type"), Data: body}
	if cd := headers.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			file.Filename = params["filename"]
		}
	}
	return file, nil
}

// =============================================================================
// CHAT
// =============================================================================

// ChatReply is the assistant's answer to one message.
type ChatReply struct {
	Response  string             `json:"response"`
	Charts    []models.ChartSpec `json:"charts,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// ChatSessions lists the user's chat sessions, most recent first.
func (c *Client) ChatSessions(ctx context.Context) ([]models.ChatSession, error) {
	var result struct {
		Sessions []models.ChatSession `json:"sessions"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/chat/sessions"}, &result); err != nil {
		return nil, err
	}
	return result.Sessions, nil
}

// CreateChatSession starts a new chat session.
func (c *Client) CreateChatSession(ctx context.Context, title string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/chat/session",
		body:   map[string]string{"title": title},
	}, &session)
	if err != nil {
		return nil, err
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	return &session, nil
}

// SendChatMessage posts a user message to a session and returns the reply.
func (c *Client) SendChatMessage(ctx context.Context, sessionID, message string) (*ChatReply, error) {
	var reply ChatReply
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/chat/message",
		body:   map[string]string{"message": message, "session_id": sessionID},
	}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// ChatMessages returns the stored history of a session.
func (c *Client) ChatMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	var result struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	path := "/api/chat/messages/" + url.PathEscape(sessionID)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &result); err != nil {
		return nil, err
	}
	return result.Messages, nil
}

// =============================================================================
// USER
// =============================================================================

// UserActivity returns the user's recent activity feed.
func (c *Client) UserActivity(ctx context.Context) ([]models.Activity, error) {
	var result struct {
		Activity []models.Activity `json:"activity"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/user/activity"}, &result); err != nil {
		return nil, err
	}
	return result.Activity, nil
}

// UserStats returns the user's usage counters.
func (c *Client) UserStats(ctx context.Context) (*models.UserStats, error) {
	var stats models.UserStats
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/user/stats"}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Notifications lists the user's notifications.
func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	var result struct {
		Notifications []models.Notification `json:"notifications"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/notifications"}, &result); err != nil {
		return nil, err
	}
	return result.Notifications, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	path := "/api/notifications/" + url.PathEscape(id) + "/read"
	return c.do(ctx, request{method: http.MethodPost, path: path}, nil)
}

// Profile returns the signed-in user's profile.
func (c *Client) Profile(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/profile"}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileUpdate holds the editable profile fields; nil fields are left unchanged.
type ProfileUpdate struct {
	Email        *string `json:"email,omitempty"`
	FullName     *string `json:"full_name,omitempty"`
	Organization *string `json:"organization,omitempty"`
}

// UpdateProfile saves profile changes and returns the updated profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, request{method: http.MethodPut, path: "/api/profile", body: update}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// =============================================================================
// UPLOAD
// =============================================================================

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Upload streams content as a multipart "file" part. The request body is
// produced while it is being sent, so reads from content track real progress.
func (c *Client) Upload(ctx context.Context, filename, contentType string, content io.Reader) (*models.UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
		header.Set("Content-Type", contentType)

		part, err := mw.CreatePart(header)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	var result models.UploadResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/upload",
		raw:    pr,
		header: http.Header{"Content-Type": {mw.FormDataContentType()}},
	}, &result)
	// Unblocks the writer goroutine if the request never consumed the body.
	pr.Close()
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}
	return &result, nil
}

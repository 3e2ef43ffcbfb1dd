package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/raphaelgruber/oceanboard/internal/auth"
	"github.com/raphaelgruber/oceanboard/internal/db"
	"github.com/raphaelgruber/oceanboard/internal/export"
	"github.com/raphaelgruber/oceanboard/internal/models"
	"github.com/raphaelgruber/oceanboard/internal/upload"
	"github.com/raphaelgruber/oceanboard/internal/views"
)

// =============================================================================
// AUTH
// =============================================================================

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()

	user, err := s.store.UserByUsername(ctx, req.Username)
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password))
	}
	if err != nil {
		abort(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if err := s.store.RecordActivity(ctx, user.ID, db.ActionLogin, "Signed in"); err != nil {
		s.logger.Warn("record login failed", "user", user.Username, "error", err)
	}
	s.respondToken(c, user)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	form := auth.SignupInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.Password,
		FullName:        req.FullName,
	}
	if err := form.Validate(); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Could not create account")
		return
	}

	ctx := c.Request.Context()
	user, err := s.store.CreateUser(ctx, db.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
	})
	if errors.Is(err, db.ErrAlreadyExists) {
		abort(c, http.StatusConflict, "Username or email already registered")
		return
	}
	if err != nil {
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Could not create account")
		return
	}

	if _, err := s.store.CreateNotification(ctx, user.ID, "Welcome aboard",
		"Your account is ready. Explore the dashboard or ask the assistant about ocean conditions."); err != nil {
		s.logger.Warn("create welcome notification failed", "user", user.Username, "error", err)
	}
	s.respondToken(c, user)
}

func (s *Server) respondToken(c *gin.Context, user db.User) {
	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Could not issue token")
		return
	}
	c.JSON(http.StatusOK, models.AuthToken{AccessToken: token, TokenType: "bearer", User: user.Profile()})
}

// =============================================================================
// DASHBOARD
// =============================================================================

func (s *Server) dashboardStats(c *gin.Context) {
	c.JSON(http.StatusOK, summarize(s.records, time.Now().UTC()))
}

func (s *Server) geographicData(c *gin.Context) {
	region := c.Query("region")
	limit := queryLimit(c, 500, geoSize)

	points := make([]models.GeoPoint, 0, limit)
	for _, p := range s.points {
		if len(points) == limit {
			break
		}
		if region == "" || strings.EqualFold(p.Region, region) {
			points = append(points, p)
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": points})
}

func (s *Server) monthlyDistribution(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": monthlyCounts(s.records)})
}

func (s *Server) profilerStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stats": profile(s.records)})
}

// =============================================================================
// DATA
// =============================================================================

func (s *Server) dataRecords(c *gin.Context) {
	limit := queryLimit(c, 100, len(s.records))
	c.JSON(http.StatusOK, gin.H{"records": s.records[:limit], "total": len(s.records)})
}

func (s *Server) exportData(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", "csv"))
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := export.Encode(&buf, s.records, views.RecordColumns(), format); err != nil {
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Export failed")
		return
	}

	if err := s.store.RecordActivity(c.Request.Context(), userID(c), db.ActionExport, "Exported dataset as "+string(format)); err != nil {
		s.logger.Warn("record export failed", "error", err)
	}

	filename := fmt.Sprintf("%s_%s.%s", views.NameExplorer, time.Now().UTC().Format("2006-01-02"), format.Extension())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (s *Server) uploadFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		abort(c, http.StatusBadRequest, "Missing file part")
		return
	}
	if err := (upload.Options{AllowNetCDF: true}).Check(header.Filename); err != nil {
		abort(c, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	f, err := header.Open()
	if err != nil {
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Could not read upload")
		return
	}
	defer f.Close()

	records, err := countRecords(f, filepath.Ext(header.Filename))
	if err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := c.Request.Context()
	uid := userID(c)
	if err := s.store.RecordActivity(ctx, uid, db.ActionUpload, "Uploaded "+header.Filename); err != nil {
		s.logger.Warn("record upload failed", "error", err)
	}
	if _, err := s.store.CreateNotification(ctx, uid, "Upload processed",
		fmt.Sprintf("%s was received (%d records).", header.Filename, records)); err != nil {
		s.logger.Warn("create upload notification failed", "error", err)
	}

	c.JSON(http.StatusOK, models.UploadResult{
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Records:     records,
	})
}

// countRecords counts data rows for formats it understands; others report 0.
func countRecords(r io.Reader, ext string) (int, error) {
	switch strings.ToLower(ext) {
	case ".csv", ".txt":
		data, err := io.ReadAll(r)
		if err != nil {
			return 0, err
		}
		lines := strings.Count(strings.TrimRight(string(data), "\n"), "\n")
		return max(lines, 0), nil
	case ".json":
		var rows []json.RawMessage
		if err := json.NewDecoder(r).Decode(&rows); err != nil {
			return 0, fmt.Errorf("invalid JSON array: %w", err)
		}
		return len(rows), nil
	default:
		return 0, nil
	}
}

// =============================================================================
// CHAT
// =============================================================================

func (s *Server) chatSessions(c *gin.Context) {
	sessions, err := s.store.ChatSessions(c.Request.Context(), userID(c))
	if err != nil {
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Could not list sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (s *Server) createChatSession(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	_ = c.ShouldBindJSON(&req)
	if strings.TrimSpace(req.Title) == "" {
		req.Title = "New Chat"
	}

	session, err := s.store.CreateChatSession(c.Request.Context(), userID(c), req.Title)
	if err != nil {
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Could not create session")
		return
	}
	c.JSON(http.StatusOK, session)
}

type chatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
}

func (s *Server) chatMessage(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()
	uid := userID(c)

	if err := s.store.ChatSessionOwned(ctx, uid, req.SessionID); err != nil {
		abort(c, http.StatusNotFound, "Unknown chat session")
		return
	}

	if _, err := s.store.AddChatMessage(ctx, req.SessionID, models.ChatMessage{
		Role:    models.RoleUser,
		Content: req.Message,
	}); err != nil {
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Could not store message")
		return
	}

	text, charts := s.responder.Respond(req.Message)
	reply, err := s.store.AddChatMessage(ctx, req.SessionID, models.ChatMessage{
		Role:    models.RoleAssistant,
		Content: text,
		Charts:  charts,
	})
	if err != nil {
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Could not store reply")
		return
	}

	if err := s.store.RecordActivity(ctx, uid, db.ActionQuery, truncate(req.Message, 80)); err != nil {
		s.logger.Warn("record query failed", "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"response": reply.Content, "charts": reply.Charts, "timestamp": reply.Timestamp})
}

func (s *Server) chatMessages(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")
	if err := s.store.ChatSessionOwned(ctx, userID(c), sessionID); err != nil {
		abort(c, http.StatusNotFound, "Unknown chat session")
		return
	}

	messages, err := s.store.ChatMessages(ctx, sessionID)
	if err != nil {
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Could not load messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// =============================================================================
// USER
// =============================================================================

func (s *Server) userActivity(c *gin.Context) {
	activity, err := s.store.Activity(c.Request.Context(), userID(c), queryLimit(c, 20, 200))
	if err != nil {
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Could not load activity")
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

func (s *Server) userStats(c *gin.Context) {
	stats, err := s.store.UserStats(c.Request.Context(), userID(c))
	if err != nil {
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Could not load stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) notifications(c *gin.Context) {
	list, err := s.store.Notifications(c.Request.Context(), userID(c))
	if err != nil {
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Could not load notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (s *Server) markNotificationRead(c *gin.Context) {
	err := s.store.MarkNotificationRead(c.Request.Context(), userID(c), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		abort(c, http.StatusNotFound, "Unknown notification")
		return
	}
	if err != nil {
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Could not update notification")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) profile(c *gin.Context) {
	user, err := s.store.UserByID(c.Request.Context(), userID(c))
	if errors.Is(err, db.ErrNotFound) {
		abort(c, http.StatusUnauthorized, "Account no longer exists")
		return
	}
	if err != nil {
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Could not load profile")
		return
	}
	c.JSON(http.StatusOK, user.Profile())
}

type profileRequest struct {
	Email        *string `json:"email"`
	FullName     *string `json:"full_name"`
	Organization *string `json:"organization"`
}

func (s *Server) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.store.UpdateProfile(c.Request.Context(), userID(c), db.ProfileChanges{
		Email:        req.Email,
		FullName:     req.FullName,
		Organization: req.Organization,
	})
	switch {
	case errors.Is(err, db.ErrAlreadyExists):
		abort(c, http.StatusConflict, "Email already in use")
		return
	case err != nil:
		c.Error(err)
		abort(c, http.StatusInternalServerError, "Could not update profile")
		return
	}
	c.JSON(http.StatusOK, user.Profile())
}

// queryLimit reads ?limit=, falling back to def and capping at maxLimit.
func queryLimit(c *gin.Context, def, maxLimit int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		n = def
	}
	return min(n, maxLimit)
}

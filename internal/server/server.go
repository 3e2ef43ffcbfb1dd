// Package server is the development REST backend: it serves the endpoints the
// oceanboard client consumes, backed by SQLite and a synthetic ocean dataset.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raphaelgruber/oceanboard/internal/chat"
	"github.com/raphaelgruber/oceanboard/internal/db"
	"github.com/raphaelgruber/oceanboard/internal/models"
	"github.com/raphaelgruber/oceanboard/internal/synth"
)

// Dataset sizes generated at startup.
const (
	datasetSize = 5000
	geoSize     = 2000
)

// Config holds the server dependencies.
type Config struct {
	Store    *db.Client
	Tokens   *TokenIssuer
	Seed     uint64
	FailRate float64
	Logger   *slog.Logger
}

// Server owns the gin engine and the data it serves.
type Server struct {
	engine    *gin.Engine
	store     *db.Client
	tokens    *TokenIssuer
	synth     *synth.Generator
	responder *chat.Responder
	records   []models.Record
	points    []models.GeoPoint
	logger    *slog.Logger
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// New builds the server and its routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	gen := synth.New(cfg.Seed)

	s := &Server{
		engine:    gin.New(),
		store:     cfg.Store,
		tokens:    cfg.Tokens,
		synth:     gen,
		responder: chat.NewResponder(gen, nil),
		records:   gen.Records(datasetSize),
		points:    gen.GeoPoints(geoSize),
		logger:    cfg.Logger,
	}
	s.routes(cfg.FailRate)
	return s
}

func (s *Server) routes(failRate float64) {
	r := s.engine
	r.Use(gin.Recovery(), LoggingMiddleware(s.logger))

	api := r.Group("/api")
	api.GET("/health", s.health)

	auth := api.Group("/auth")
	{
		auth.POST("/login", s.login)
		auth.POST("/register", s.register)
	}

	protected := api.Group("")
	protected.Use(AuthMiddleware(s.tokens), FailureMiddleware(failRate))
	{
		protected.GET("/dashboard/stats", s.dashboardStats)
		protected.GET("/dashboard/geographic-data", s.geographicData)
		protected.GET("/dashboard/monthly-distribution", s.monthlyDistribution)
		protected.GET("/dashboard/profiler-stats", s.profilerStats)

		protected.GET("/data/records", s.dataRecords)
		protected.GET("/export", s.exportData)
		protected.POST("/upload", s.uploadFile)

		protected.GET("/chat/sessions", s.chatSessions)
		protected.POST("/chat/session", s.createChatSession)
		protected.POST("/chat/message", s.chatMessage)
		protected.GET("/chat/messages/:id", s.chatMessages)

		protected.GET("/user/activity", s.userActivity)
		protected.GET("/user/stats", s.userStats)
		protected.GET("/notifications", s.notifications)
		protected.POST("/notifications/:id/read", s.markNotificationRead)
		protected.GET("/profile", s.profile)
		protected.PUT("/profile", s.updateProfile)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	status := "ok"
	if err := s.store.Ping(c.Request.Context()); err != nil {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "records": len(s.records)})
}

func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

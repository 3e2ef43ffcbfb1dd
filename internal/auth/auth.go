// Package auth validates login and signup forms and drives the token lifecycle.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/raphaelgruber/oceanboard/internal/client"
	"github.com/raphaelgruber/oceanboard/internal/models"
)

var (
	// ErrInvalidCredentials is returned when the backend rejects a login.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountExists is returned when signup conflicts with an existing account.
	ErrAccountExists = errors.New("username or email already registered")
)

// Field limits.
const (
	MinUsernameLen = 3
	MaxUsernameLen = 32
	MinPasswordLen = 8
)

// FieldError is a problem with one form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every field problem of a form.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Has reports whether field has an error.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

type validator struct {
	fields []FieldError
}

func (v *validator) add(field, msg string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: msg})
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// LoginInput is the login form.
type LoginInput struct {
	Username string
	Password string
}

// Validate requires both fields.
func (in LoginInput) Validate() error {
	var v validator
	if strings.TrimSpace(in.Username) == "" {
		v.add("username", "required")
	}
	if in.Password == "" {
		v.add("password", "required")
	}
	return v.err()
}

// SignupInput is the registration form.
type SignupInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
}

// Validate checks every field and reports all problems at once.
func (in SignupInput) Validate() error {
	var v validator

	username := strings.TrimSpace(in.Username)
	switch n := utf8.RuneCountInString(username); {
	case n == 0:
		v.add("username", "required")
	case n < MinUsernameLen || n > MaxUsernameLen:
		v.add("username", fmt.Sprintf("must be %d to %d characters", MinUsernameLen, MaxUsernameLen))
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		v.add("email", "required")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		v.add("email", "not a valid address")
	}

	if utf8.RuneCountInString(in.Password) < MinPasswordLen {
		v.add("password", fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}
	if in.Password != in.ConfirmPassword {
		v.add("confirm_password", "passwords do not match")
	}
	return v.err()
}

// Backend is the auth part of the REST client.
type Backend interface {
	Login(ctx context.Context, username, password string) (*models.AuthToken, error)
	Register(ctx context.Context, input client.RegisterInput) (*models.AuthToken, error)
}

// TokenStore keeps the issued token.
type TokenStore interface {
	SetToken(token string) error
	Clear() error
}

// Service runs login, signup and logout.
type Service struct {
	backend Backend
	tokens  TokenStore
	logger  *slog.Logger
}

// NewService creates a Service.
func NewService(backend Backend, tokens TokenStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{backend: backend, tokens: tokens, logger: logger}
}

// Login validates the form, authenticates and stores the token.
func (s *Service) Login(ctx context.Context, in LoginInput) (*models.AuthToken, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	token, err := s.backend.Login(ctx, strings.TrimSpace(in.Username), in.Password)
	if errors.Is(err, client.ErrUnauthenticated) {
		s.logger.Info("login rejected", "username", in.Username)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return token, s.store(token)
}

// Signup validates the form, registers and stores the token.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.AuthToken, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	token, err := s.backend.Register(ctx, client.RegisterInput{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.TrimSpace(in.Email),
		Password: in.Password,
		FullName: strings.TrimSpace(in.FullName),
	})
	var se *client.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusConflict {
		return nil, ErrAccountExists
	}
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	return token, s.store(token)
}

// Logout forgets the token.
func (s *Service) Logout() error {
	return s.tokens.Clear()
}

func (s *Service) store(token *models.AuthToken) error {
	if err := s.tokens.SetToken(token.AccessToken); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	s.logger.Info("signed in", "username", token.User.Username)
	return nil
}

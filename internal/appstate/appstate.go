// Package appstate holds the process-wide application state: the auth token
// and the dark-mode preference.
//
// The store is created once at startup and passed to whoever needs it. Only
// the auth flow writes the token (SetToken on login, Clear on logout); data
// loaders only read it. Changes are persisted to a YAML file and fanned out to
// subscribers.
package appstate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"gopkg.in/yaml.v3"
)

// ErrUnauthenticated means there is no usable token: missing, malformed or expired.
var ErrUnauthenticated = errors.New("not authenticated")

// Claims is the subset of token claims the client cares about.
type Claims struct {
	Subject   string
	UserID    int64
	ExpiresAt time.Time
}

// Change describes what a state mutation touched.
type Change struct {
	Token    bool
	DarkMode bool
}

type persisted struct {
	Token    string `yaml:"token,omitempty"`
	DarkMode bool   `yaml:"dark_mode"`
}

// Store is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	path   string
	state  persisted
	subs   map[int]func(Change)
	nextID int
	now    func() time.Time
}

// Open loads the store from path. A missing file yields an empty state.
func Open(path string) (*Store, error) {
	s := &Store{path: path, subs: map[int]func(Change){}, now: time.Now}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	return s, nil
}

// NewMemory returns a store that is never persisted.
func NewMemory() *Store {
	return &Store{subs: map[int]func(Change){}, now: time.Now}
}

// Token returns the current bearer token, or ErrUnauthenticated if it is
// missing, malformed or expired.
func (s *Store) Token() (string, error) {
	s.mu.RLock()
	token := s.state.Token
	s.mu.RUnlock()

	if _, err := CheckToken(token, s.now()); err != nil {
		return "", err
	}
	return token, nil
}

// Claims returns the claims of the current token.
func (s *Store) Claims() (Claims, error) {
	s.mu.RLock()
	token := s.state.Token
	s.mu.RUnlock()
	return CheckToken(token, s.now())
}

// SetToken stores the token issued at login.
func (s *Store) SetToken(token string) error {
	if _, err := CheckToken(token, s.now()); err != nil {
		return err
	}
	return s.update(Change{Token: true}, func(p *persisted) { p.Token = token })
}

// Clear removes the token (logout).
func (s *Store) Clear() error {
	return s.update(Change{Token: true}, func(p *persisted) { p.Token = "" })
}

// DarkMode reports the dark-mode preference.
func (s *Store) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.DarkMode
}

// SetDarkMode updates the dark-mode preference.
func (s *Store) SetDarkMode(on bool) error {
	return s.update(Change{DarkMode: true}, func(p *persisted) { p.DarkMode = on })
}

// ToggleDarkMode flips the preference and returns the new value.
func (s *Store) ToggleDarkMode() (bool, error) {
	var on bool
	err := s.update(Change{DarkMode: true}, func(p *persisted) {
		p.DarkMode = !p.DarkMode
		on = p.DarkMode
	})
	return on, err
}

// Subscribe registers fn to be called after every change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) update(change Change, mutate func(*persisted)) error {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := s.state
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if err := s.save(snapshot); err != nil {
		return err
	}
	for _, fn := range subs {
		fn(change)
	}
	return nil
}

func (s *Store) save(p persisted) error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// CheckToken parses token without verifying its signature (the backend does
// that) and rejects empty, malformed or expired tokens.
func CheckToken(token string, now time.Time) (Claims, error) {
	if token == "" {
		return Claims{}, ErrUnauthenticated
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, mapClaims); err != nil {
		return Claims{}, fmt.Errorf("%w: malformed token: %v", ErrUnauthenticated, err)
	}
	if !mapClaims.VerifyExpiresAt(now.Unix(), false) {
		return Claims{}, fmt.Errorf("%w: token expired", ErrUnauthenticated)
	}

	var c Claims
	if sub, ok := mapClaims["sub"].(string); ok {
		c.Subject = sub
	}
	if uid, ok := mapClaims["user_id"].(float64); ok {
		c.UserID = int64(uid)
	}
	if exp, ok := mapClaims["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return c, nil
}

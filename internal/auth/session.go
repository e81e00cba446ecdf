package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNoSession      = errors.New("no active marketplace session")
	ErrRefreshMissing = errors.New("session has no refresh token")
)

// Tokens is the credential pair issued by the marketplace on login.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Refresher exchanges a refresh token for a new token pair.
type Refresher func(ctx context.Context, refreshToken string) (Tokens, error)

// Session is the explicit credential container handed to the marketplace
// clients. It is created on login (Begin) and torn down on logout (End);
// nothing reads tokens from global state.
type Session struct {
	mu        sync.RWMutex
	tokens    Tokens
	subject   string
	expiresAt time.Time
	active    bool

	refresh Refresher
	flight  singleflight.Group
}

func NewSession(refresh Refresher) *Session {
	return &Session{refresh: refresh}
}

// SetRefresher installs the token exchange once the HTTP client exists.
func (s *Session) SetRefresher(refresh Refresher) {
	s.mu.Lock()
	s.refresh = refresh
	s.mu.Unlock()
}

// Begin starts the session with a token pair. The access token must be a
// JWT; its exp and sub claims are read without verification since only the
// marketplace can verify them.
func (s *Session) Begin(t Tokens) error {
	if t.AccessToken == "" {
		return fmt.Errorf("begin session: %w", ErrNoSession)
	}

	exp, sub, err := parseAccessToken(t.AccessToken)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = t
	s.expiresAt = exp
	s.subject = sub
	s.active = true
	return nil
}

// End tears the session down. Subsequent calls fail with ErrNoSession.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = Tokens{}
	s.subject = ""
	s.expiresAt = time.Time{}
	s.active = false
}

func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// UserID is the subject claim of the access token.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subject
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// AccessToken returns the current access token, refreshing it first when it
// expires within skew.
func (s *Session) AccessToken(ctx context.Context, skew time.Duration) (string, error) {
	s.mu.RLock()
	active, token, exp := s.active, s.tokens.AccessToken, s.expiresAt
	s.mu.RUnlock()

	if !active {
		return "", ErrNoSession
	}
	if exp.IsZero() || time.Until(exp) > skew {
		return token, nil
	}
	return s.Refresh(ctx)
}

// Refresh obtains a new token pair. Concurrent callers share one exchange.
func (s *Session) Refresh(ctx context.Context) (string, error) {
	v, err, _ := s.flight.Do("refresh", func() (interface{}, error) {
		s.mu.RLock()
		active, refreshToken, refresh := s.active, s.tokens.RefreshToken, s.refresh
		s.mu.RUnlock()

		if !active {
			return "", ErrNoSession
		}
		if refreshToken == "" || refresh == nil {
			return "", ErrRefreshMissing
		}

		next, err := refresh(ctx, refreshToken)
		if err != nil {
			return "", fmt.Errorf("refresh session: %w", err)
		}
		if next.RefreshToken == "" {
			next.RefreshToken = refreshToken
		}
		if err := s.Begin(next); err != nil {
			return "", err
		}
		return next.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func parseAccessToken(raw string) (time.Time, string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, "", fmt.Errorf("failed to parse access token: %w", err)
	}

	var exp time.Time
	if e, err := claims.GetExpirationTime(); err == nil && e != nil {
		exp = e.Time
	}
	sub, _ := claims.GetSubject()
	return exp, sub, nil
}

package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func TestSession_BeginReadsClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	s := NewSession(nil)

	if err := s.Begin(Tokens{AccessToken: signed(t, "user-1", exp), RefreshToken: "r"}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	if !s.Active() {
		t.Error("Expected session to be active")
	}
	if s.UserID() != "user-1" {
		t.Errorf("Expected subject user-1, got %q", s.UserID())
	}
	if !s.ExpiresAt().Equal(exp) {
		t.Errorf("Expected expiry %v, got %v", exp, s.ExpiresAt())
	}
}

func TestSession_BeginRejectsGarbage(t *testing.T) {
	s := NewSession(nil)
	if err := s.Begin(Tokens{AccessToken: "not-a-jwt"}); err == nil {
		t.Error("Expected error for malformed token")
	}
	if s.Active() {
		t.Error("Session must stay inactive")
	}
}

func TestSession_EndTearsDown(t *testing.T) {
	s := NewSession(nil)
	_ = s.Begin(Tokens{AccessToken: signed(t, "u", time.Now().Add(time.Hour))})

	s.End()

	if _, err := s.AccessToken(context.Background(), time.Minute); !errors.Is(err, ErrNoSession) {
		t.Errorf("Expected ErrNoSession, got %v", err)
	}
}

func TestSession_AccessTokenRefreshesNearExpiry(t *testing.T) {
	fresh := signed(t, "u", time.Now().Add(time.Hour))
	var calls int32
	s := NewSession(func(ctx context.Context, refreshToken string) (Tokens, error) {
		atomic.AddInt32(&calls, 1)
		if refreshToken != "refresh-1" {
			t.Errorf("Expected refresh-1, got %s", refreshToken)
		}
		return Tokens{AccessToken: fresh}, nil
	})
	_ = s.Begin(Tokens{AccessToken: signed(t, "u", time.Now().Add(10*time.Second)), RefreshToken: "refresh-1"})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := s.AccessToken(context.Background(), time.Minute)
			if err != nil {
				t.Errorf("AccessToken failed: %v", err)
				return
			}
			if tok != fresh {
				t.Errorf("Expected refreshed token")
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n < 1 {
		t.Errorf("Expected at least one refresh, got %d", n)
	}
	if got, _ := s.AccessToken(context.Background(), time.Minute); got != fresh {
		t.Error("Refreshed token was not stored")
	}
}

func TestSession_RefreshWithoutRefreshToken(t *testing.T) {
	s := NewSession(func(ctx context.Context, refreshToken string) (Tokens, error) {
		t.Error("refresher must not be called")
		return Tokens{}, nil
	})
	_ = s.Begin(Tokens{AccessToken: signed(t, "u", time.Now().Add(time.Hour))})

	if _, err := s.Refresh(context.Background()); !errors.Is(err, ErrRefreshMissing) {
		t.Errorf("Expected ErrRefreshMissing, got %v", err)
	}
}

func TestRequestContext(t *testing.T) {
	s := NewSession(nil)
	ctx := SetRequestID(SetSession(context.Background(), s), "req-1")

	if GetSession(ctx) != s {
		t.Error("Expected session from context")
	}
	if GetRequestID(ctx) != "req-1" {
		t.Errorf("Expected req-1, got %q", GetRequestID(ctx))
	}
	if GetSession(context.Background()) != nil {
		t.Error("Expected nil session on empty context")
	}
}

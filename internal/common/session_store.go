package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"autobazar/listing-editor/internal/auth"
	"autobazar/listing-editor/internal/logging"
)

const sessionKey = "SESSION_marketplace"

// sessionTTL matches the marketplace refresh token lifetime.
const sessionTTL = 7 * 24 * time.Hour

// StoredSession is the persisted form of the marketplace login.
type StoredSession struct {
	Tokens    auth.Tokens `json:"tokens"`
	UserID    string      `json:"user_id"`
	CreatedAt time.Time   `json:"created_at"`
}

// SessionStore keeps the marketplace tokens across agent restarts. With the
// Redis backend a restarted agent picks the login back up; with the memory
// backend it only lives as long as the process.
type SessionStore struct {
	cache CacheInterface
}

func NewSessionStore(cache CacheInterface) *SessionStore {
	return &SessionStore{cache: cache}
}

// Save persists the tokens of an active session.
func (s *SessionStore) Save(session *auth.Session, tokens auth.Tokens) error {
	data, err := json.Marshal(StoredSession{
		Tokens:    tokens,
		UserID:    session.UserID(),
		CreatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	s.cache.Set(sessionKey, data, sessionTTL)
	logging.Info("Session stored", "user_id", session.UserID())
	return nil
}

// Load returns the stored session, or an error when there is none.
func (s *SessionStore) Load() (*StoredSession, error) {
	val, found := s.cache.Get(sessionKey)
	if !found {
		return nil, errors.New("session not found")
	}

	var raw []byte
	switch v := val.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return nil, fmt.Errorf("unexpected session value %T", val)
	}

	var stored StoredSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &stored, nil
}

// Resume begins session from the stored tokens, if any.
func (s *SessionStore) Resume(session *auth.Session) bool {
	stored, err := s.Load()
	if err != nil {
		return false
	}
	if err := session.Begin(stored.Tokens); err != nil {
		logging.Warn("Stored session is unusable, dropping it", "error", err)
		s.Delete()
		return false
	}
	logging.Info("Resumed marketplace session", "user_id", session.UserID())
	return true
}

// Delete forgets the stored session (logout).
func (s *SessionStore) Delete() {
	s.cache.Delete(sessionKey)
}

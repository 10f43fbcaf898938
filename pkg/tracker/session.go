// Package tracker is the visitor-side half of listing engagement tracking:
// a per-tab session identity and an HTTP client for the ingestion API.
package tracker

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionKey is the storage key holding the session token.
const SessionKey = "listing_session_id"

const sessionSuffixLength = 9

// Storage is a tab-scoped key/value store. Get reports ok=false for a
// missing key.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// MemoryStorage lives exactly as long as one browsing context.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (s *MemoryStorage) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Reset drops every value, as closing the tab would.
func (s *MemoryStorage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
}

// SessionManager hands out one stable session token per storage scope.
type SessionManager struct {
	storage Storage
	now     func() time.Time
	mu      sync.Mutex
}

func NewSessionManager(storage Storage) *SessionManager {
	return &SessionManager{
		storage: storage,
		now:     time.Now,
	}
}

// GetOrCreate returns the stored token or creates and stores a new one.
// When storage fails the token is valid for this call only.
func (m *SessionManager) GetOrCreate() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok, err := m.storage.Get(SessionKey)
	if err != nil {
		log.Warn().Err(err).Msg("session storage unavailable, using ephemeral session id")
		return m.newToken()
	}
	if ok && existing != "" {
		return existing
	}

	token := m.newToken()
	if err := m.storage.Set(SessionKey, token); err != nil {
		log.Warn().Err(err).Msg("failed to persist session id")
	}
	return token
}

// newToken builds "<unix millis>-<random suffix>".
func (m *SessionManager) newToken() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:sessionSuffixLength]
	return fmt.Sprintf("%d-%s", m.now().UnixMilli(), suffix)
}

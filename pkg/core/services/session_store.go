package services

import (
	"context"
	"errors"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
	"go.uber.org/zap"
)

// SessionStore is the single slot holding the current credential.
// Writers are the auth flow (on success) and the gateway (on rejection).
type SessionStore struct {
	mu       sync.Mutex
	storage  ports.SlotStorage
	key      string
	log      *zap.Logger
	watchers []func()
}

var _ ports.SessionStore = (*SessionStore)(nil)

func NewSessionStore(storage ports.SlotStorage, key string, log *zap.Logger) *SessionStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionStore{storage: storage, key: key, log: log.Named("session")}
}

// Get returns the stored credential. A storage failure reads as "absent".
func (s *SessionStore) Get(ctx context.Context) (domain.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := s.storage.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ports.ErrSlotEmpty) {
			s.log.Warn("failed to read session slot", zap.Error(err))
		}
		return "", false
	}
	if value == "" {
		return "", false
	}
	return domain.Credential(value), true
}

// Watch registers fn to run after every Set or Clear. Anything derived from
// the previous credential must be dropped there.
func (s *SessionStore) Watch(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// Set replaces any existing credential.
func (s *SessionStore) Set(ctx context.Context, cred domain.Credential) error {
	if cred == "" {
		return errors.New("empty credential")
	}
	s.mu.Lock()
	err := s.storage.Save(ctx, s.key, string(cred))
	watchers := s.watchers
	s.mu.Unlock()

	s.notify(watchers)
	return err
}

func (s *SessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	err := s.storage.Delete(ctx, s.key)
	watchers := s.watchers
	s.mu.Unlock()

	s.notify(watchers)
	return err
}

func (s *SessionStore) notify(watchers []func()) {
	for _, fn := range watchers {
		fn()
	}
}

func (s *SessionStore) Authenticated(ctx context.Context) bool {
	_, ok := s.Get(ctx)
	return ok
}

// Subject reads the "sub" claim when the credential happens to be a JWT.
// The signature is not checked; this is for display only.
func (s *SessionStore) Subject(ctx context.Context) string {
	cred, ok := s.Get(ctx)
	if !ok {
		return ""
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(string(cred), claims); err != nil {
		return ""
	}
	return claims.Subject
}

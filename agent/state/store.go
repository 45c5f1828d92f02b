package state

import (
	"context"
	"errors"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

var (
	ErrStateNotFound  = errors.New("session state not found")
	ErrInvalidSession = errors.New("session id is empty")
)

// Store is the persistence contract used by the intake service.
// Implementations hand out copies; callers never share a request with the store.
type Store interface {
	Load(ctx context.Context, sessionID string) (TravelRequest, error)
	Save(ctx context.Context, sessionID string, req TravelRequest) error
	Delete(ctx context.Context, sessionID string) error
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps in-flight requests in process memory. Entries live until
// they are fulfilled or cleared.
type MemoryStore struct {
	sessions *xsync.MapOf[string, TravelRequest]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: xsync.NewMapOf[string, TravelRequest](),
	}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (TravelRequest, error) {
	key, err := sessionKey(sessionID)
	if err != nil {
		return TravelRequest{}, err
	}
	if err := ctx.Err(); err != nil {
		return TravelRequest{}, err
	}

	req, ok := s.sessions.Load(key)
	if !ok {
		return TravelRequest{}, ErrStateNotFound
	}
	return req.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, sessionID string, req TravelRequest) error {
	key, err := sessionKey(sessionID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.sessions.Store(key, req.Clone())
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	key, err := sessionKey(sessionID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.sessions.Delete(key)
	return nil
}

// Len returns the number of sessions currently awaiting information.
func (s *MemoryStore) Len() int {
	return s.sessions.Size()
}

func sessionKey(sessionID string) (string, error) {
	key := strings.TrimSpace(sessionID)
	if key == "" {
		return "", ErrInvalidSession
	}
	return key, nil
}

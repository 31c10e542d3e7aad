package refresh

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process [Store] for tests and single-node setups.
// A single mutex serializes every operation, which trivially gives
// TakeByToken its exactly-once guarantee.
type MemoryStore struct {
	mu      sync.Mutex
	byToken map[string]Token
	byOwner map[string]map[string]struct{}
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byToken: make(map[string]Token),
		byOwner: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Insert(_ context.Context, tok Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byToken[tok.Token] = tok
	owned := s.byOwner[tok.OwnerID]
	if owned == nil {
		owned = make(map[string]struct{})
		s.byOwner[tok.OwnerID] = owned
	}
	owned[tok.Token] = struct{}{}

	return nil
}

func (s *MemoryStore) FindByToken(_ context.Context, token string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.byToken[token]
	if !ok {
		return Token{}, ErrNotFound
	}
	return tok, nil
}

func (s *MemoryStore) TakeByToken(_ context.Context, token string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.byToken[token]
	if !ok {
		return Token{}, ErrNotFound
	}
	s.removeLocked(tok)

	return tok, nil
}

func (s *MemoryStore) DeleteByToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok, ok := s.byToken[token]; ok {
		s.removeLocked(tok)
	}
	return nil
}

func (s *MemoryStore) DeleteByOwner(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token := range s.byOwner[ownerID] {
		delete(s.byToken, token)
	}
	delete(s.byOwner, ownerID)

	return nil
}

func (s *MemoryStore) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for _, tok := range s.byToken {
		if tok.ExpiresAt.After(cutoff) {
			continue
		}
		s.removeLocked(tok)
		removed++
	}

	return removed, nil
}

func (s *MemoryStore) removeLocked(tok Token) {
	delete(s.byToken, tok.Token)
	if owned := s.byOwner[tok.OwnerID]; owned != nil {
		delete(owned, tok.Token)
		if len(owned) == 0 {
			delete(s.byOwner, tok.OwnerID)
		}
	}
}

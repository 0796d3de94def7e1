package moviebot

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is an in-process ProfileStore for tests and ephemeral runs.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	byUserID map[string]*Profile
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUserID: make(map[string]*Profile)}
}

func (s *MemoryStore) FindByUserID(ctx context.Context, userID string) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byUserID[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) FindByName(ctx context.Context, name, lastName string) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, lastName = foldName(name), foldName(lastName)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *Profile
	for _, p := range s.byUserID {
		if foldName(p.Name) != name || foldName(p.LastName) != lastName {
			continue
		}
		if best == nil || idLess(p.ID, best.ID) {
			best = p
		}
	}
	if best == nil {
		return nil, ErrProfileNotFound
	}
	cp := *best
	return &cp, nil
}

func idLess(a, b string) bool {
	x, _ := strconv.ParseInt(a, 10, 64)
	y, _ := strconv.ParseInt(b, 10, 64)
	return x < y
}

func (s *MemoryStore) Upsert(ctx context.Context, userID string, f ProfileFields) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	p, ok := s.byUserID[userID]
	if !ok {
		s.nextID++
		p = &Profile{ID: strconv.FormatInt(s.nextID, 10), UserID: userID, CreatedAt: now}
		s.byUserID[userID] = p
	}
	p.Name, p.LastName, p.Age, p.Email, p.FavouriteGenre = f.Name, f.LastName, f.Age, f.Email, f.FavouriteGenre
	p.UpdatedAt = now
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) Close() error { return nil }

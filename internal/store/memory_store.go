package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrbaitop40-blip/veo/internal/model"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrBadRequest = errors.New("bad request")
)

type MemoryStore struct {
	mu sync.RWMutex

	users       map[string]model.User
	userByEmail map[string]string

	refreshTokens map[string]model.RefreshToken

	generations        map[string]model.Generation
	eventsByGeneration map[string][]model.GenerationEvent
	eventSeq           map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:              map[string]model.User{},
		userByEmail:        map[string]string{},
		refreshTokens:      map[string]model.RefreshToken{},
		generations:        map[string]model.Generation{},
		eventsByGeneration: map[string][]model.GenerationEvent{},
		eventSeq:           map[string]int64{},
	}
}

func (s *MemoryStore) UpsertUser(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	s.userByEmail[strings.ToLower(user.Email)] = user.ID
}

func (s *MemoryStore) GetUserByEmail(email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.userByEmail[strings.ToLower(email)]
	if !ok {
		return model.User{}, ErrNotFound
	}
	user, ok := s.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) GetUserByID(id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) SaveRefreshToken(tok model.RefreshToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshTokens[tok.ID] = tok
}

func (s *MemoryStore) GetRefreshToken(id string) (model.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.refreshTokens[id]
	if !ok {
		return model.RefreshToken{}, ErrNotFound
	}
	return tok, nil
}

func (s *MemoryStore) RevokeRefreshToken(id string, revokedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.refreshTokens[id]
	if !ok {
		return ErrNotFound
	}
	tok.RevokedAt = &revokedAt
	s.refreshTokens[id] = tok
	return nil
}

func (s *MemoryStore) CreateGeneration(gen model.Generation) (model.Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.generations[gen.ID]; ok {
		return model.Generation{}, ErrConflict
	}
	s.generations[gen.ID] = gen
	s.eventsByGeneration[gen.ID] = []model.GenerationEvent{}
	s.eventSeq[gen.ID] = 0
	return gen, nil
}

func (s *MemoryStore) GetGeneration(id string) (model.Generation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.generations[id]
	if !ok {
		return model.Generation{}, ErrNotFound
	}
	return g, nil
}

func (s *MemoryStore) UpdateGeneration(gen model.Generation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.generations[gen.ID]; !ok {
		return ErrNotFound
	}
	s.generations[gen.ID] = gen
	return nil
}

func (s *MemoryStore) ListGenerations(kind model.GenerationKind) []model.Generation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Generation
	for _, g := range s.generations {
		if kind != "" && g.Kind != kind {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) AppendGenerationEvent(generationID string, event model.GenerationEvent) (model.GenerationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.generations[generationID]; !ok {
		return model.GenerationEvent{}, ErrNotFound
	}
	seq := s.eventSeq[generationID] + 1
	s.eventSeq[generationID] = seq
	event.Seq = seq
	event.EventID = uuid.NewString()
	event.GenerationID = generationID
	s.eventsByGeneration[generationID] = append(s.eventsByGeneration[generationID], event)
	return event, nil
}

func (s *MemoryStore) ListGenerationEventsFromSeq(generationID string, fromSeq int64) ([]model.GenerationEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events, ok := s.eventsByGeneration[generationID]
	if !ok {
		return nil, ErrNotFound
	}
	if fromSeq <= 0 {
		return append([]model.GenerationEvent(nil), events...), nil
	}
	out := make([]model.GenerationEvent, 0, len(events))
	for _, e := range events {
		if e.Seq > fromSeq {
			out = append(out, e)
		}
	}
	return out, nil
}

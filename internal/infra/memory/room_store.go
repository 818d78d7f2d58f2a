package memory

import (
	"sync"

	"quiz-battle-service/internal/app"
)

// RoomStore is an in-memory implementation of app.RoomStore.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*app.Match
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*app.Match),
	}
}

func (s *RoomStore) Add(code string, m *app.Match) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; ok {
		return false
	}
	s.rooms[code] = m
	return true
}

func (s *RoomStore) Get(code string) (*app.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.rooms[code]
	return m, ok
}

func (s *RoomStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
}

func (s *RoomStore) All() []*app.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Match, 0, len(s.rooms))
	for _, m := range s.rooms {
		out = append(out, m)
	}
	return out
}

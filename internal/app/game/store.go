package game

import (
	"sync"

	"github.com/dkeye/DrawQuiz/internal/domain"
)

// Store owns the runtime of every room keyed by invite code.
type Store struct {
	mu          sync.RWMutex
	rooms       map[domain.InviteCode]*Room
	strokeLimit int
}

func NewStore(strokeLimit int) *Store {
	return &Store{rooms: make(map[domain.InviteCode]*Room), strokeLimit: strokeLimit}
}

func (s *Store) Get(code domain.InviteCode) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[code]
	return r, ok
}

func (s *Store) GetOrCreate(code domain.InviteCode) *Room {
	s.mu.RLock()
	room, ok := s.rooms[code]
	s.mu.RUnlock()
	if ok {
		return room
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok = s.rooms[code]; ok {
		return room
	}
	room = newRoom(s.strokeLimit)
	s.rooms[code] = room
	return room
}

func (s *Store) Delete(code domain.InviteCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

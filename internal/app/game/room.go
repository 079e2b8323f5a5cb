package game

import (
	"slices"
	"sync"

	"github.com/dkeye/DrawQuiz/internal/domain"
)

// Room is the runtime of one room: game state, completion markers and stroke cache.
// Lock must be held around every method call.
type Room struct {
	mu        sync.Mutex
	state     *State
	completed map[domain.Identity]struct{}
	strokes   *StrokeCache
}

func newRoom(strokeLimit int) *Room {
	return &Room{
		state:     NewState(),
		completed: make(map[domain.Identity]struct{}),
		strokes:   NewStrokeCache(strokeLimit),
	}
}

func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

func (r *Room) State() *State         { return r.state }
func (r *Room) Strokes() *StrokeCache { return r.strokes }

// ResetCanvas clears markers and strokes, as done when a round starts.
func (r *Room) ResetCanvas() {
	clear(r.completed)
	r.strokes.Clear()
}

// Restart replaces the whole game state with a fresh one.
func (r *Room) Restart() {
	r.state = NewState()
	r.ResetCanvas()
}

// MarkCompleted reports whether id was newly added.
func (r *Room) MarkCompleted(id domain.Identity) bool {
	if _, ok := r.completed[id]; ok {
		return false
	}
	r.completed[id] = struct{}{}
	return true
}

// CancelCompleted reports whether id was removed.
func (r *Room) CancelCompleted(id domain.Identity) bool {
	if _, ok := r.completed[id]; !ok {
		return false
	}
	delete(r.completed, id)
	return true
}

// Completed returns sorted completion markers.
func (r *Room) Completed() []domain.Identity {
	out := make([]domain.Identity, 0, len(r.completed))
	for id := range r.completed {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

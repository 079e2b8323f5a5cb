package app

import (
	"context"
	"sync"

	"github.com/dkeye/DrawQuiz/internal/core"
	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Identity domain.Identity
	Conn     core.SignalConnection
	Rooms    map[domain.InviteCode]struct{}
	Cancel   context.CancelFunc
}

// Registry tracks live authenticated connections and the room groups they joined.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]*sessionEntry)}
}

func (r *Registry) Bind(sid core.SessionID, id domain.Identity, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		Identity: id,
		Conn:     conn,
		Rooms:    make(map[domain.InviteCode]struct{}),
		Cancel:   cancel,
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("identity", string(id)).Msg("bound session")
}

// Unbind forgets the session and returns the rooms it had joined.
func (r *Registry) Unbind(sid core.SessionID) (domain.Identity, []domain.InviteCode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return "", nil, false
	}
	delete(r.sessions, sid)
	rooms := make([]domain.InviteCode, 0, len(e.Rooms))
	for code := range e.Rooms {
		rooms = append(rooms, code)
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int("rooms", len(rooms)).Msg("unbind session")
	return e.Identity, rooms, true
}

func (r *Registry) Identity(sid core.SessionID) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Identity, true
	}
	return "", false
}

func (r *Registry) Conn(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Conn, true
	}
	return nil, false
}

// JoinRoom adds the session to the room group.
func (r *Registry) JoinRoom(sid core.SessionID, code domain.InviteCode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.Rooms[code] = struct{}{}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(code)).Msg("joined room group")
	return true
}

// LeaveRoom reports whether the session was in the room group.
func (r *Registry) LeaveRoom(sid core.SessionID, code domain.InviteCode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	if _, in := e.Rooms[code]; !in {
		return false
	}
	delete(e.Rooms, code)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(code)).Msg("left room group")
	return true
}

func (r *Registry) InRoom(sid core.SessionID, code domain.InviteCode) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	_, in := e.Rooms[code]
	return in
}

type regSnap struct {
	SID      core.SessionID
	Identity domain.Identity
	Conn     core.SignalConnection
}

func (r *Registry) MembersOfRoom(code domain.InviteCode) []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]regSnap, 0, len(r.sessions))
	for sid, e := range r.sessions {
		if _, in := e.Rooms[code]; in {
			out = append(out, regSnap{SID: sid, Identity: e.Identity, Conn: e.Conn})
		}
	}
	return out
}

// Connected returns identities with at least one connection in the room group.
func (r *Registry) Connected(code domain.InviteCode) map[domain.Identity]struct{} {
	out := make(map[domain.Identity]struct{})
	for _, snap := range r.MembersOfRoom(code) {
		out[snap.Identity] = struct{}{}
	}
	return out
}

// IsConnected reports whether id still has a connection in the room group.
func (r *Registry) IsConnected(code domain.InviteCode, id domain.Identity) bool {
	_, ok := r.Connected(code)[id]
	return ok
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

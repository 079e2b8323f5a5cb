package orch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/DrawQuiz/internal/app"
	"github.com/dkeye/DrawQuiz/internal/app/game"
	"github.com/dkeye/DrawQuiz/internal/core"
	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultLeaveTimeout = 5 * time.Second

// RoomReader is the slice of the Room Lifecycle Service the gateway depends on.
type RoomReader interface {
	Room(ctx context.Context, key string) (domain.Room, error)
	LeaveByIdentity(ctx context.Context, code domain.InviteCode, id domain.Identity) error
}

// Orchestrator is the realtime gateway: it owns room groups, game runtimes and fan-out.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    RoomReader
	Games    *game.Store
	Policy   app.Policy
	// Archive is optional.
	Archive      core.Archive
	Now          func() time.Time
	LeaveTimeout time.Duration
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Connect registers an authenticated connection. cancel tears the connection down.
func (o *Orchestrator) Connect(sid core.SessionID, id domain.Identity, conn core.SignalConnection, cancel context.CancelFunc) {
	o.Registry.Bind(sid, id, conn, cancel)
}

// Run rebroadcasts room snapshots for every room-changed notification until ctx is done.
func (o *Orchestrator) Run(ctx context.Context, events <-chan domain.InviteCode) {
	for {
		select {
		case <-ctx.Done():
			return
		case code, ok := <-events:
			if !ok {
				return
			}
			o.BroadcastRoomState(ctx, code)
		}
	}
}

// BroadcastRoomState sends a fresh snapshot to the group. A deleted room drops its runtime.
func (o *Orchestrator) BroadcastRoomState(ctx context.Context, code domain.InviteCode) {
	room, err := o.Rooms.Room(ctx, string(code))
	if errors.Is(err, domain.ErrRoomNotFound) {
		o.Games.Delete(code)
		log.Debug().Str("module", "orch").Str("room", string(code)).Msg("room gone, runtime dropped")
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("room", string(code)).Msg("snapshot lookup failed")
		return
	}
	g := o.Games.GetOrCreate(code)
	g.Lock()
	defer g.Unlock()
	o.sendRoomState(room, g)
}

// sendRoomState must be called with g locked.
func (o *Orchestrator) sendRoomState(room domain.Room, g *game.Room) {
	code := room.InviteCode
	o.broadcast(code, buildRoomState(room, g, o.Registry.Connected(code)), "")
}

// broadcast encodes v once and sends it to every connection in the group except skip.
func (o *Orchestrator) broadcast(code domain.InviteCode, v any, skip core.SessionID) {
	frame, ok := encode(v)
	if !ok {
		return
	}
	sent := 0
	for _, snap := range o.Registry.MembersOfRoom(code) {
		if snap.SID == skip {
			continue
		}
		o.send(code, snap.SID, snap.Conn, frame)
		sent++
	}
	log.Debug().Str("module", "orch").Str("room", string(code)).Int("sent", sent).Msg("broadcast")
}

func (o *Orchestrator) sendTo(code domain.InviteCode, sid core.SessionID, v any) {
	conn, ok := o.Registry.Conn(sid)
	if !ok {
		return
	}
	if frame, ok := encode(v); ok {
		o.send(code, sid, conn, frame)
	}
}

func (o *Orchestrator) send(code domain.InviteCode, sid core.SessionID, conn core.SignalConnection, frame core.Frame) {
	if err := conn.TrySend(frame); err == nil || o.Policy == nil {
		return
	}
	switch o.Policy.OnBackPressure(code, sid) {
	case app.Disconnect:
		log.Warn().Str("module", "orch").Str("room", string(code)).Str("sid", string(sid)).Msg("slow consumer disconnected")
		o.Registry.Cancel(sid)
	case app.DropFrame, app.NoAction:
	}
}

func encode(v any) (core.Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode")
		return nil, false
	}
	return b, true
}

package orch

import (
	"context"

	"github.com/dkeye/DrawQuiz/internal/core"
	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

// Join subscribes the connection to a room group it is a member of and broadcasts a snapshot.
// Returns domain.ErrRoomNotFound or domain.ErrMemberNotFound when the join is refused.
func (o *Orchestrator) Join(ctx context.Context, sid core.SessionID, key string) error {
	id, ok := o.Registry.Identity(sid)
	if !ok {
		return domain.ErrUnauthorized
	}
	room, err := o.Rooms.Room(ctx, key)
	if err != nil {
		return err
	}
	if _, ok := room.MemberByIdentity(id); !ok {
		return domain.ErrMemberNotFound
	}
	o.Registry.JoinRoom(sid, room.InviteCode)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room.InviteCode)).Msg("joined")

	g := o.Games.GetOrCreate(room.InviteCode)
	g.Lock()
	defer g.Unlock()
	o.sendRoomState(room, g)
	return nil
}

// Leave unsubscribes the connection and performs a best-effort durable leave.
func (o *Orchestrator) Leave(ctx context.Context, sid core.SessionID, code domain.InviteCode) {
	id, ok := o.Registry.Identity(sid)
	if !ok || !o.Registry.LeaveRoom(sid, code) {
		return
	}
	o.departRoom(ctx, code, id)
}

// Disconnect forgets the connection and departs every room it had joined, each independently.
func (o *Orchestrator) Disconnect(ctx context.Context, sid core.SessionID) {
	id, rooms, ok := o.Registry.Unbind(sid)
	if !ok {
		return
	}
	var wg conc.WaitGroup
	for _, code := range rooms {
		wg.Go(func() { o.departRoom(ctx, code, id) })
	}
	if r := wg.WaitAndRecover(); r != nil {
		log.Error().Str("module", "orch").Str("sid", string(sid)).Str("panic", r.String()).Msg("room cleanup panicked")
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Int("rooms", len(rooms)).Msg("disconnected")
}

// departRoom cleans up after id left the group. Another live connection of the same
// identity keeps its membership and markers.
func (o *Orchestrator) departRoom(ctx context.Context, code domain.InviteCode, id domain.Identity) {
	timeout := o.LeaveTimeout
	if timeout <= 0 {
		timeout = DefaultLeaveTimeout
	}
	if !o.Registry.IsConnected(code, id) {
		if g, ok := o.Games.Get(code); ok {
			g.Lock()
			g.CancelCompleted(id)
			g.Unlock()
		}
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		if err := o.Rooms.LeaveByIdentity(lctx, code, id); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("room", string(code)).Str("identity", string(id)).Msg("durable leave failed")
		}
		cancel()
	}
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	o.BroadcastRoomState(bctx, code)
}

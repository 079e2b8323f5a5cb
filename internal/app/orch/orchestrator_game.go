package orch

import (
	"context"
	"encoding/json"

	"github.com/dkeye/DrawQuiz/internal/app/game"
	"github.com/dkeye/DrawQuiz/internal/core"
	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/rs/zerolog/log"
)

// member resolves the sender's identity for a room group it has joined.
func (o *Orchestrator) member(sid core.SessionID, code domain.InviteCode) (domain.Identity, bool) {
	id, ok := o.Registry.Identity(sid)
	if !ok || !o.Registry.InRoom(sid, code) {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).Msg("event outside joined room")
		return "", false
	}
	return id, true
}

// hostAction runs fn under the room lock when the sender is the current durable host,
// then broadcasts a snapshot. Events from anyone else, or rejected by fn, are no-ops.
func (o *Orchestrator) hostAction(ctx context.Context, sid core.SessionID, code domain.InviteCode, event string,
	fn func(room domain.Room, g *game.Room, connected map[domain.Identity]struct{}) error,
) {
	id, ok := o.member(sid, code)
	if !ok {
		return
	}
	room, err := o.Rooms.Room(ctx, string(code))
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("room", string(code)).Str("event", event).Msg("host lookup failed")
		return
	}
	if !room.IsHostIdentity(id) {
		log.Debug().Str("module", "orch").Str("room", string(code)).Str("identity", string(id)).Str("event", event).Msg("not host")
		return
	}

	g := o.Games.GetOrCreate(code)
	g.Lock()
	defer g.Unlock()
	connected := o.Registry.Connected(code)
	if err := fn(room, g, connected); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("room", string(code)).Str("event", event).Str("phase", string(g.State().Phase)).Msg("event rejected")
		return
	}
	log.Info().Str("module", "orch").Str("room", string(code)).Str("event", event).Str("phase", string(g.State().Phase)).Msg("game event")
	o.broadcast(code, buildRoomState(room, g, connected), "")
}

func (o *Orchestrator) StartGame(ctx context.Context, sid core.SessionID, code domain.InviteCode) {
	o.hostAction(ctx, sid, code, MsgStartGame, func(_ domain.Room, g *game.Room, _ map[domain.Identity]struct{}) error {
		if err := g.State().Start(); err != nil {
			return err
		}
		g.ResetCanvas()
		o.broadcast(code, roomEvent{Type: EvtCanvasClearAll, RoomID: code}, "")
		return nil
	})
}

// LockAnswers marks every connected player completed, submitted or not.
func (o *Orchestrator) LockAnswers(ctx context.Context, sid core.SessionID, code domain.InviteCode) {
	o.hostAction(ctx, sid, code, MsgLockAnswers, func(room domain.Room, g *game.Room, connected map[domain.Identity]struct{}) error {
		if err := g.State().Lock(); err != nil {
			return err
		}
		for _, p := range players(room, connected) {
			if g.MarkCompleted(p) {
				o.broadcast(code, memberEvent{Type: EvtMemberCompleted, RoomID: code, Identity: p}, "")
			}
		}
		o.broadcast(code, roomEvent{Type: EvtAnswersLocked, RoomID: code}, "")
		return nil
	})
}

func (o *Orchestrator) OpenAnswers(ctx context.Context, sid core.SessionID, code domain.InviteCode) {
	o.hostAction(ctx, sid, code, MsgOpenAnswers, func(room domain.Room, g *game.Room, connected map[domain.Identity]struct{}) error {
		_, err := g.State().Open(players(room, connected))
		return err
	})
}

func (o *Orchestrator) NextQuestion(ctx context.Context, sid core.SessionID, code domain.InviteCode) {
	o.hostAction(ctx, sid, code, MsgNextQuestion, func(_ domain.Room, g *game.Room, _ map[domain.Identity]struct{}) error {
		if err := g.State().Next(); err != nil {
			return err
		}
		g.ResetCanvas()
		o.broadcast(code, roomEvent{Type: EvtCanvasClearAll, RoomID: code}, "")
		return nil
	})
}

func (o *Orchestrator) EndQuiz(ctx context.Context, sid core.SessionID, code domain.InviteCode) {
	o.hostAction(ctx, sid, code, MsgEndQuiz, func(_ domain.Room, g *game.Room, _ map[domain.Identity]struct{}) error {
		return g.State().End()
	})
}

func (o *Orchestrator) RestartGame(ctx context.Context, sid core.SessionID, code domain.InviteCode) {
	o.hostAction(ctx, sid, code, MsgRestartGame, func(_ domain.Room, g *game.Room, _ map[domain.Identity]struct{}) error {
		if !g.State().CanRestart() {
			return game.ErrInvalidTransition
		}
		g.Restart()
		return nil
	})
}

func (o *Orchestrator) JudgePlayer(ctx context.Context, sid core.SessionID, code domain.InviteCode, player domain.Identity, j game.Judgment) {
	o.hostAction(ctx, sid, code, MsgJudgePlayer, func(_ domain.Room, g *game.Room, _ map[domain.Identity]struct{}) error {
		g.State().Judge(player, j)
		return nil
	})
}

// SubmitSnapshot stores the sender's drawing for the current round and archives it best-effort.
// player must be empty or the sender's own identity.
func (o *Orchestrator) SubmitSnapshot(ctx context.Context, sid core.SessionID, code domain.InviteCode, player domain.Identity, snap game.Snapshot) {
	id, ok := o.member(sid, code)
	if !ok {
		return
	}
	if player != "" && player != id {
		log.Warn().Str("module", "orch").Str("room", string(code)).Str("identity", string(id)).Str("player", string(player)).Msg("snapshot for another player")
		return
	}
	room, err := o.Rooms.Room(ctx, string(code))
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("room", string(code)).Msg("snapshot room lookup failed")
		return
	}

	g := o.Games.GetOrCreate(code)
	g.Lock()
	st := g.State()
	if err := st.Submit(id, snap, o.now()); err != nil {
		g.Unlock()
		log.Debug().Err(err).Str("module", "orch").Str("room", string(code)).Str("phase", string(st.Phase)).Msg("snapshot rejected")
		return
	}
	round := st.RoundIndex
	payload, err := json.Marshal(st.Current().Snapshots[id])
	o.sendRoomState(room, g)
	g.Unlock()

	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("room", string(code)).Int("round", round).Msg("encode snapshot for archive")
		return
	}
	if o.Archive != nil {
		if err := o.Archive.SaveSnapshot(ctx, code, round, id, payload); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("room", string(code)).Int("round", round).Msg("archive snapshot failed")
		}
	}
}

func (o *Orchestrator) Complete(ctx context.Context, sid core.SessionID, code domain.InviteCode) {
	o.toggleCompleted(sid, code, true)
}

func (o *Orchestrator) CancelComplete(ctx context.Context, sid core.SessionID, code domain.InviteCode) {
	o.toggleCompleted(sid, code, false)
}

func (o *Orchestrator) toggleCompleted(sid core.SessionID, code domain.InviteCode, done bool) {
	id, ok := o.member(sid, code)
	if !ok {
		return
	}
	g := o.Games.GetOrCreate(code)
	g.Lock()
	defer g.Unlock()
	evt := EvtMemberCompleted
	if done {
		g.MarkCompleted(id)
	} else {
		g.CancelCompleted(id)
		evt = EvtMemberCancelled
	}
	o.broadcast(code, memberEvent{Type: evt, RoomID: code, Identity: id}, "")
}

// DrawStroke caches the stroke and relays it to the rest of the group.
func (o *Orchestrator) DrawStroke(ctx context.Context, sid core.SessionID, code domain.InviteCode, stroke json.RawMessage) {
	id, ok := o.member(sid, code)
	if !ok {
		return
	}
	g := o.Games.GetOrCreate(code)
	g.Lock()
	g.Strokes().Append(id, stroke)
	o.broadcast(code, strokeEvent{Type: EvtDrawBroadcast, RoomID: code, AuthorID: id, Stroke: stroke}, sid)
	g.Unlock()

	if o.Archive != nil {
		if err := o.Archive.SaveStroke(ctx, code, id, stroke); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("room", string(code)).Msg("archive stroke failed")
		}
	}
}

// ClearCanvas drops an author's cached strokes. Only the host may clear someone else's canvas.
func (o *Orchestrator) ClearCanvas(ctx context.Context, sid core.SessionID, code domain.InviteCode, author domain.Identity) {
	id, ok := o.member(sid, code)
	if !ok {
		return
	}
	if author == "" {
		author = id
	}
	if author != id {
		room, err := o.Rooms.Room(ctx, string(code))
		if err != nil || !room.IsHostIdentity(id) {
			log.Debug().Str("module", "orch").Str("room", string(code)).Str("identity", string(id)).Msg("clear of foreign canvas refused")
			return
		}
	}
	g := o.Games.GetOrCreate(code)
	g.Lock()
	defer g.Unlock()
	g.Strokes().ClearAuthor(author)
	o.broadcast(code, clearEvent{Type: EvtCanvasClear, RoomID: code, AuthorID: author}, sid)
}

// SyncRequest sends the cached strokes to the sender only.
func (o *Orchestrator) SyncRequest(ctx context.Context, sid core.SessionID, code domain.InviteCode) {
	if _, ok := o.member(sid, code); !ok {
		return
	}
	g := o.Games.GetOrCreate(code)
	g.Lock()
	defer g.Unlock()
	o.sendTo(code, sid, syncState{Type: EvtSyncState, RoomID: code, StrokesByAuthor: g.Strokes().ByAuthor()})
}

package signal

import (
	"context"
	"errors"

	"github.com/dkeye/DrawQuiz/internal/app/orch"
	"github.com/dkeye/DrawQuiz/internal/core"
	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleSignal(ctx context.Context, sid core.SessionID, c *WsSignalConn, data []byte) {
	ev, err := Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad message")
		ctl.sendJSON(c, orch.NewErrorEvent("", err.Error()))
		return
	}

	o := ctl.Orch
	code := ev.Room()
	switch e := ev.(type) {
	case *Ping:
		ctl.sendJSON(c, struct {
			Type string `json:"type"`
		}{Type: msgPong})
	case *Join:
		if err := o.Join(ctx, sid, string(code)); err != nil {
			log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", string(code)).Msg("join refused")
			ctl.sendJSON(c, orch.NewErrorEvent(code, joinError(err)))
		}
	case *Leave:
		o.Leave(ctx, sid, code)
	case *Complete:
		o.Complete(ctx, sid, code)
	case *CancelComplete:
		o.CancelComplete(ctx, sid, code)
	case *DrawStroke:
		if !c.strokes.Allow() {
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("stroke rate limited")
			return
		}
		o.DrawStroke(ctx, sid, code, e.Stroke)
	case *ClearCanvas:
		o.ClearCanvas(ctx, sid, code, e.AuthorID)
	case *SyncRequest:
		o.SyncRequest(ctx, sid, code)
	case *SubmitSnapshot:
		o.SubmitSnapshot(ctx, sid, code, e.PlayerID, *e.Snapshot)
	case *StartGame:
		o.StartGame(ctx, sid, code)
	case *LockAnswers:
		o.LockAnswers(ctx, sid, code)
	case *JudgePlayer:
		o.JudgePlayer(ctx, sid, code, e.PlayerID, e.Correct)
	case *OpenAnswers:
		o.OpenAnswers(ctx, sid, code)
	case *NextQuestion:
		o.NextQuestion(ctx, sid, code)
	case *EndQuiz:
		o.EndQuiz(ctx, sid, code)
	case *RestartGame:
		o.RestartGame(ctx, sid, code)
	}
}

func joinError(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, domain.ErrMemberNotFound):
		return "not_a_member"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	default:
		return "join_failed"
	}
}

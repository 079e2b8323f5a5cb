package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/DrawQuiz/internal/app/game"
	"github.com/dkeye/DrawQuiz/internal/app/orch"
	"github.com/dkeye/DrawQuiz/internal/domain"
)

const (
	msgPing = "ping"
	msgPong = "pong"

	maxRoomKeyLen = 64
)

var (
	ErrBadJSON        = errors.New("bad_json")
	ErrUnknownType    = errors.New("unknown_type")
	ErrMissingRoomID  = errors.New("missing_room_id")
	ErrInvalidPayload = errors.New("bad_payload")
)

// Event is a decoded client message.
type Event interface {
	Room() domain.InviteCode
}

type roomRef struct {
	RoomID domain.InviteCode `json:"roomId"`
}

func (r roomRef) Room() domain.InviteCode { return r.RoomID }

type (
	Ping           struct{ roomRef }
	Join           struct{ roomRef }
	Leave          struct{ roomRef }
	Complete       struct{ roomRef }
	CancelComplete struct{ roomRef }
	SyncRequest    struct{ roomRef }
	StartGame      struct{ roomRef }
	LockAnswers    struct{ roomRef }
	OpenAnswers    struct{ roomRef }
	NextQuestion   struct{ roomRef }
	EndQuiz        struct{ roomRef }
	RestartGame    struct{ roomRef }
)

type DrawStroke struct {
	roomRef
	Stroke json.RawMessage `json:"stroke"`
}

type ClearCanvas struct {
	roomRef
	AuthorID domain.Identity `json:"authorId"`
}

type SubmitSnapshot struct {
	roomRef
	PlayerID domain.Identity `json:"playerId"`
	Snapshot *game.Snapshot  `json:"snapshot"`
}

// JudgePlayer carries true, false or null in "correct"; null clears the verdict.
type JudgePlayer struct {
	roomRef
	PlayerID domain.Identity `json:"playerId"`
	Correct  game.Judgment   `json:"correct"`
}

func (e *DrawStroke) validate() error {
	if len(e.Stroke) == 0 || string(e.Stroke) == "null" {
		return ErrInvalidPayload
	}
	return nil
}

func (e *ClearCanvas) validate() error {
	if len(e.AuthorID) > domain.MaxIdentityLen {
		return ErrInvalidPayload
	}
	return nil
}

func (e *SubmitSnapshot) validate() error {
	if e.Snapshot == nil || e.Snapshot.Empty() || len(e.PlayerID) > domain.MaxIdentityLen {
		return ErrInvalidPayload
	}
	return nil
}

func (e *JudgePlayer) validate() error {
	if e.PlayerID == "" || len(e.PlayerID) > domain.MaxIdentityLen {
		return ErrInvalidPayload
	}
	return nil
}

var decoders = map[string]func() Event{
	msgPing:                func() Event { return &Ping{} },
	orch.MsgJoin:           func() Event { return &Join{} },
	orch.MsgLeave:          func() Event { return &Leave{} },
	orch.MsgComplete:       func() Event { return &Complete{} },
	orch.MsgCancelComplete: func() Event { return &CancelComplete{} },
	orch.MsgDrawStroke:     func() Event { return &DrawStroke{} },
	orch.MsgCanvasClear:    func() Event { return &ClearCanvas{} },
	orch.MsgSyncRequest:    func() Event { return &SyncRequest{} },
	orch.MsgSubmitSnapshot: func() Event { return &SubmitSnapshot{} },
	orch.MsgStartGame:      func() Event { return &StartGame{} },
	orch.MsgLockAnswers:    func() Event { return &LockAnswers{} },
	orch.MsgJudgePlayer:    func() Event { return &JudgePlayer{} },
	orch.MsgOpenAnswers:    func() Event { return &OpenAnswers{} },
	orch.MsgNextQuestion:   func() Event { return &NextQuestion{} },
	orch.MsgEndQuiz:        func() Event { return &EndQuiz{} },
	orch.MsgRestartGame:    func() Event { return &RestartGame{} },
}

// Decode parses and validates one client message. Every event except ping needs a roomId.
func Decode(data []byte) (Event, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrBadJSON
	}
	newEvent, ok := decoders[env.Type]
	if !ok {
		return nil, ErrUnknownType
	}
	ev := newEvent()
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, ErrInvalidPayload
	}
	if _, ping := ev.(*Ping); !ping {
		if ev.Room() == "" {
			return nil, ErrMissingRoomID
		}
		if len(ev.Room()) > maxRoomKeyLen {
			return nil, ErrInvalidPayload
		}
	}
	if v, ok := ev.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return nil, err
		}
	}
	return ev, nil
}

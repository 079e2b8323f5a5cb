package orch

import (
	"encoding/json"

	"github.com/dkeye/DrawQuiz/internal/domain"
)

// Client to server event types.
const (
	MsgJoin           = "join"
	MsgLeave          = "leave"
	MsgComplete       = "complete"
	MsgCancelComplete = "cancelComplete"
	MsgDrawStroke     = "draw:stroke"
	MsgCanvasClear    = "canvas:clear"
	MsgSyncRequest    = "canvas:sync:request"
	MsgSubmitSnapshot = "submit-snapshot"
	MsgStartGame      = "start-game"
	MsgLockAnswers    = "lock-answers"
	MsgJudgePlayer    = "judge-player"
	MsgOpenAnswers    = "open-answers"
	MsgNextQuestion   = "next-question"
	MsgEndQuiz        = "end-quiz"
	MsgRestartGame    = "restart-game"
)

// Server to client event types.
const (
	EvtRoomState       = "roomState"
	EvtMemberCompleted = "memberCompleted"
	EvtMemberCancelled = "memberCancelled"
	EvtDrawBroadcast   = "draw:broadcast"
	EvtCanvasClear     = "canvas:clear"
	EvtCanvasClearAll  = "canvas:clearAll"
	EvtAnswersLocked   = "answers:locked"
	EvtSyncState       = "canvas:sync:state"
	EvtError           = "error"
)

type roomEvent struct {
	Type   string            `json:"type"`
	RoomID domain.InviteCode `json:"roomId"`
}

type memberEvent struct {
	Type     string            `json:"type"`
	RoomID   domain.InviteCode `json:"roomId"`
	Identity domain.Identity   `json:"identity"`
}

type strokeEvent struct {
	Type     string            `json:"type"`
	RoomID   domain.InviteCode `json:"roomId"`
	AuthorID domain.Identity   `json:"authorId"`
	Stroke   json.RawMessage   `json:"stroke"`
}

type clearEvent struct {
	Type     string            `json:"type"`
	RoomID   domain.InviteCode `json:"roomId"`
	AuthorID domain.Identity   `json:"authorId"`
}

type syncState struct {
	Type            string                                `json:"type"`
	RoomID          domain.InviteCode                     `json:"roomId"`
	StrokesByAuthor map[domain.Identity][]json.RawMessage `json:"strokesByAuthor"`
}

// ErrorEvent is sent to a single connection when its request cannot be served.
type ErrorEvent struct {
	Type   string            `json:"type"`
	RoomID domain.InviteCode `json:"roomId,omitempty"`
	Error  string            `json:"error"`
}

func NewErrorEvent(code domain.InviteCode, reason string) ErrorEvent {
	return ErrorEvent{Type: EvtError, RoomID: code, Error: reason}
}

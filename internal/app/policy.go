package app

import (
	"github.com/dkeye/DrawQuiz/internal/core"
	"github.com/dkeye/DrawQuiz/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	Disconnect
)

// Policy decides what happens to a connection whose send buffer is full.
type Policy interface {
	OnBackPressure(code domain.InviteCode, sid core.SessionID) BackpressureAction
}

// SimplePolicy disconnects slow consumers; the client resyncs on reconnect.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.InviteCode, core.SessionID) BackpressureAction {
	return Disconnect
}

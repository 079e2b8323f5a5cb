package orch_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/DrawQuiz/internal/adapters/storage"
	"github.com/dkeye/DrawQuiz/internal/app"
	"github.com/dkeye/DrawQuiz/internal/app/game"
	"github.com/dkeye/DrawQuiz/internal/app/orch"
	"github.com/dkeye/DrawQuiz/internal/core"
	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/stretchr/testify/require"
)

const code domain.InviteCode = "ROOMCODE"

var errFull = errors.New("full")

type recConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
}

func (c *recConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errFull
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *recConn) Close() {}

func (c *recConn) reset() {
	c.mu.Lock()
	c.frames = nil
	c.mu.Unlock()
}

// of returns the raw frames of the given event type.
func (c *recConn) of(typ string) []json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []json.RawMessage
	for _, f := range c.frames {
		var env struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(f, &env) == nil && env.Type == typ {
			out = append(out, json.RawMessage(f))
		}
	}
	return out
}

func (c *recConn) lastState(t *testing.T) orch.RoomState {
	t.Helper()
	states := c.of(orch.EvtRoomState)
	require.NotEmpty(t, states, "no roomState received")
	var st orch.RoomState
	require.NoError(t, json.Unmarshal(states[len(states)-1], &st))
	return st
}

type tokenVerifier struct{}

func (tokenVerifier) Verify(credential string) (domain.Identity, bool) {
	id, ok := strings.CutPrefix(credential, "tok:")
	return domain.Identity(id), ok && id != ""
}

func (tokenVerifier) Issue() (string, domain.Identity, error) {
	id := domain.NewIdentity()
	return "tok:" + string(id), id, nil
}

func (tokenVerifier) IssueFor(id domain.Identity) (string, error) { return "tok:" + string(id), nil }

type harness struct {
	t     *testing.T
	ctx   context.Context
	svc   *app.RoomService
	o     *orch.Orchestrator
	conns map[core.SessionID]*recConn
}

var fixedNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

// newHarness creates a room hosted by "host" with the given guests joined durably.
func newHarness(t *testing.T, guests ...domain.Identity) *harness {
	t.Helper()
	ctx := context.Background()
	svc := app.NewRoomService(storage.NewMemoryDirectory(), tokenVerifier{}, app.NewBroker(),
		func() domain.InviteCode { return code }, app.RoomOptions{})
	_, err := svc.Create(ctx, app.CreateRoomInput{Name: "Quiz"}, "tok:host")
	require.NoError(t, err)
	for _, g := range guests {
		_, err := svc.Join(ctx, code, string(g), "tok:"+string(g))
		require.NoError(t, err)
	}
	return &harness{
		t:   t,
		ctx: ctx,
		svc: svc,
		o: &orch.Orchestrator{
			Registry: app.NewRegistry(),
			Rooms:    svc,
			Games:    game.NewStore(0),
			Policy:   app.SimplePolicy{},
			Now:      func() time.Time { return fixedNow },
		},
		conns: make(map[core.SessionID]*recConn),
	}
}

// connect opens a connection for id and joins the room group.
func (h *harness) connect(sid core.SessionID, id domain.Identity) *recConn {
	h.t.Helper()
	c := &recConn{}
	h.conns[sid] = c
	h.o.Connect(sid, id, c, func() {})
	require.NoError(h.t, h.o.Join(h.ctx, sid, string(code)))
	return c
}

func (h *harness) resetAll() {
	for _, c := range h.conns {
		c.reset()
	}
}

func snapshot(png string) game.Snapshot {
	return game.Snapshot{PNGBase64: png}
}

package app_test

import (
	"context"
	"testing"

	"github.com/dkeye/DrawQuiz/internal/app"
	"github.com/dkeye/DrawQuiz/internal/core"
	"github.com/stretchr/testify/assert"
)

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

func TestRegistry(t *testing.T) {
	t.Parallel()
	r := app.NewRegistry()
	_, cancel := context.WithCancel(context.Background())
	canceled := false
	r.Bind("s1", "alice", nopConn{}, func() { canceled = true; cancel() })
	r.Bind("s2", "alice", nopConn{}, nil)
	r.Bind("s3", "bob", nopConn{}, nil)

	assert.True(t, r.JoinRoom("s1", "ROOM"))
	assert.True(t, r.JoinRoom("s2", "ROOM"))
	assert.True(t, r.JoinRoom("s3", "OTHER"))
	assert.False(t, r.JoinRoom("ghost", "ROOM"))

	assert.True(t, r.InRoom("s1", "ROOM"))
	assert.False(t, r.InRoom("s3", "ROOM"))
	assert.Len(t, r.MembersOfRoom("ROOM"), 2)
	assert.Len(t, r.Connected("ROOM"), 1)
	assert.True(t, r.IsConnected("ROOM", "alice"))
	assert.False(t, r.IsConnected("ROOM", "bob"))

	assert.True(t, r.LeaveRoom("s2", "ROOM"))
	assert.False(t, r.LeaveRoom("s2", "ROOM"))
	assert.True(t, r.IsConnected("ROOM", "alice"))

	assert.True(t, r.Cancel("s1"))
	assert.True(t, canceled)
	assert.False(t, r.Cancel("ghost"))

	id, rooms, ok := r.Unbind("s1")
	assert.True(t, ok)
	assert.Equal(t, "alice", string(id))
	assert.ElementsMatch(t, []string{"ROOM"}, toStrings(rooms))
	assert.False(t, r.IsConnected("ROOM", "alice"))

	_, _, ok = r.Unbind("s1")
	assert.False(t, ok)
}

func TestRandomInviteCodes(t *testing.T) {
	t.Parallel()
	gen := app.RandomInviteCodes(6)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code := string(gen())
		assert.Len(t, code, 6)
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

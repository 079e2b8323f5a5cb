package game

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrokeCache_EvictsOldest(t *testing.T) {
	t.Parallel()
	c := NewStrokeCache(3)
	for i := 0; i < 5; i++ {
		c.Append(alice, json.RawMessage(fmt.Sprintf(`{"n":%d}`, i)))
	}
	assert.Equal(t, 3, c.Len())
	got := c.ByAuthor()[alice]
	require.Len(t, got, 3)
	assert.JSONEq(t, `{"n":2}`, string(got[0]))
	assert.JSONEq(t, `{"n":4}`, string(got[2]))
}

func TestStrokeCache_DefaultBound(t *testing.T) {
	t.Parallel()
	c := NewStrokeCache(0)
	for i := 0; i < DefaultStrokeCacheSize+50; i++ {
		c.Append(bob, json.RawMessage(`{}`))
	}
	assert.Equal(t, DefaultStrokeCacheSize, c.Len())
}

func TestStrokeCache_ClearAuthor(t *testing.T) {
	t.Parallel()
	c := NewStrokeCache(10)
	c.Append(alice, json.RawMessage(`1`))
	c.Append(bob, json.RawMessage(`2`))
	c.Append(alice, json.RawMessage(`3`))

	c.ClearAuthor(alice)

	by := c.ByAuthor()
	assert.NotContains(t, by, alice)
	assert.Len(t, by[bob], 1)
}

func TestRoom_MarkersAndRestart(t *testing.T) {
	t.Parallel()
	r := newRoom(10)
	r.Lock()
	defer r.Unlock()

	assert.True(t, r.MarkCompleted(bob))
	assert.False(t, r.MarkCompleted(bob))
	assert.True(t, r.MarkCompleted(alice))
	assert.Equal(t, []domain.Identity{alice, bob}, r.Completed())
	assert.True(t, r.CancelCompleted(bob))
	assert.False(t, r.CancelCompleted(bob))

	r.Strokes().Append(alice, json.RawMessage(`{}`))
	require.NoError(t, r.State().Start())
	r.State().Scores[alice] = 3

	r.Restart()

	assert.Equal(t, PhaseLobby, r.State().Phase)
	assert.Empty(t, r.State().Scores)
	assert.Empty(t, r.Completed())
	assert.Equal(t, 0, r.Strokes().Len())
}

func TestStore_GetOrCreate(t *testing.T) {
	t.Parallel()
	s := NewStore(5)
	_, ok := s.Get("ROOM")
	assert.False(t, ok)

	a := s.GetOrCreate("ROOM")
	b := s.GetOrCreate("ROOM")
	assert.Same(t, a, b)
	assert.Equal(t, 1, s.Len())

	s.Delete("ROOM")
	_, ok = s.Get("ROOM")
	assert.False(t, ok)
}

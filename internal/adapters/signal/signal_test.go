package signal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/DrawQuiz/internal/adapters/signal"
	"github.com/dkeye/DrawQuiz/internal/adapters/storage"
	"github.com/dkeye/DrawQuiz/internal/app"
	"github.com/dkeye/DrawQuiz/internal/app/game"
	"github.com/dkeye/DrawQuiz/internal/app/orch"
	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const code domain.InviteCode = "WSROOM01"

type tokenVerifier struct{}

func (tokenVerifier) Verify(credential string) (domain.Identity, bool) {
	id, ok := strings.CutPrefix(credential, "tok:")
	return domain.Identity(id), ok && id != ""
}

func (tokenVerifier) Issue() (string, domain.Identity, error) { return "tok:anon", "anon", nil }

func (tokenVerifier) IssueFor(id domain.Identity) (string, error) { return "tok:" + string(id), nil }

func setup(t *testing.T) (*httptest.Server, *app.RoomService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := app.NewRoomService(storage.NewMemoryDirectory(), tokenVerifier{}, app.NewBroker(),
		func() domain.InviteCode { return code }, app.RoomOptions{})
	_, err := svc.Create(ctx, app.CreateRoomInput{Name: "Quiz"}, "tok:host")
	require.NoError(t, err)
	_, err = svc.Join(ctx, code, "Ann", "tok:ann")
	require.NoError(t, err)

	o := &orch.Orchestrator{Registry: app.NewRegistry(), Rooms: svc, Games: game.NewStore(0), Policy: app.SimplePolicy{}}
	ctl := signal.NewSignalWSController(o, tokenVerifier{}, signal.Options{})

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleSignal(ctx, c, c.Query("token")) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	return websocket.DefaultDialer.Dial(url, nil)
}

// readType reads until a message of typ arrives.
func readType(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		if msg["type"] == typ {
			return msg
		}
	}
}

func TestHandshake_RejectsWithoutCredential(t *testing.T) {
	srv, _ := setup(t)
	for _, token := range []string{"", "forged"} {
		_, resp, err := dial(t, srv, token)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestJoin_ReceivesRoomState(t *testing.T) {
	srv, _ := setup(t)
	conn, _, err := dial(t, srv, "tok:host")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "join", "roomId": string(code)}))
	st := readType(t, conn, orch.EvtRoomState)
	assert.Equal(t, string(code), st["roomId"])
	assert.Equal(t, string(game.PhaseLobby), st["phase"])
	assert.Equal(t, "host", st["hostUuid"])
}

func TestProtocolErrors(t *testing.T) {
	srv, _ := setup(t)
	conn, _, err := dial(t, srv, "tok:stranger")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	assert.Equal(t, "bad_json", readType(t, conn, orch.EvtError)["error"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "join", "roomId": string(code)}))
	assert.Equal(t, "not_a_member", readType(t, conn, orch.EvtError)["error"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "join", "roomId": "NOPE"}))
	assert.Equal(t, "room_not_found", readType(t, conn, orch.EvtError)["error"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	readType(t, conn, "pong")
}

func TestDisconnect_LeavesDurably(t *testing.T) {
	srv, svc := setup(t)
	host, _, err := dial(t, srv, "tok:host")
	require.NoError(t, err)
	defer host.Close()
	guest, _, err := dial(t, srv, "tok:ann")
	require.NoError(t, err)

	require.NoError(t, host.WriteJSON(map[string]any{"type": "join", "roomId": string(code)}))
	readType(t, host, orch.EvtRoomState)
	require.NoError(t, guest.WriteJSON(map[string]any{"type": "join", "roomId": string(code)}))
	readType(t, guest, orch.EvtRoomState)

	require.NoError(t, guest.Close())

	require.Eventually(t, func() bool {
		room, err := svc.Room(context.Background(), string(code))
		if err != nil {
			return false
		}
		_, still := room.MemberByIdentity("ann")
		return !still
	}, 2*time.Second, 20*time.Millisecond)
}

package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/DrawQuiz/internal/app/orch"
	"github.com/dkeye/DrawQuiz/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

const (
	DefaultReadLimit   = 32 << 10
	DefaultPingPeriod  = 54 * time.Second
	DefaultSendBuffer  = 64
	DefaultStrokeRate  = 60
	DefaultStrokeBurst = 120
	writeWait          = 5 * time.Second
)

type Options struct {
	ReadLimit   int64
	PingPeriod  time.Duration
	SendBuffer  int
	StrokeRate  float64
	StrokeBurst int
	// AllowedOrigins empty accepts any origin.
	AllowedOrigins []string
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	Verifier core.Verifier
	opts     Options
	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, verifier core.Verifier, opts Options) *SignalWSController {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = DefaultReadLimit
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = DefaultPingPeriod
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	if opts.StrokeRate <= 0 {
		opts.StrokeRate = DefaultStrokeRate
	}
	if opts.StrokeBurst <= 0 {
		opts.StrokeBurst = DefaultStrokeBurst
	}
	ctl := &SignalWSController{Orch: o, Verifier: verifier, opts: opts}
	ctl.upgrader = websocket.Upgrader{CheckOrigin: ctl.checkOrigin}
	return ctl
}

func (ctl *SignalWSController) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || len(ctl.opts.AllowedOrigins) == 0 || slices.Contains(ctl.opts.AllowedOrigins, origin)
}

type WsSignalConn struct {
	conn    *websocket.Conn
	send    chan core.Frame
	strokes *rate.Limiter

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

// HandleSignal authenticates the handshake and starts the pumps.
// An absent or invalid credential is rejected before the upgrade.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context, credential string) {
	id, ok := ctl.Verifier.Verify(credential)
	if !ok {
		log.Warn().Str("module", "signal").Str("remote", c.ClientIP()).Msg("ws handshake rejected")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	sid := core.SessionID(uuid.NewString())

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("identity", string(id)).Msg("new WS connection")

	conn := &WsSignalConn{
		conn:    ws,
		send:    make(chan core.Frame, ctl.opts.SendBuffer),
		strokes: rate.NewLimiter(rate.Limit(ctl.opts.StrokeRate), ctl.opts.StrokeBurst),
	}
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Connect(sid, id, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

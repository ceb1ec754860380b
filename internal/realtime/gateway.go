package realtime

import (
	"context"
	"errors"
	"net/http"
	"time"

	"hotel-portal/internal/auth"
	"hotel-portal/internal/models"
	"hotel-portal/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Connection modes
const (
	ModeAutomation = "automation"
	ModeOperator   = "operator"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxInbound = 4096
)

// Admission is the outcome of a successful connection check
type Admission struct {
	Mode  string
	Scope models.Scope
	Group string
}

// Gateway upgrades admitted clients to websockets and streams board frames to them
type Gateway struct {
	broadcaster *Broadcaster
	bus         Bus
	botKey      string
	origins     map[string]bool
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewGateway creates a new gateway. An empty origin list accepts any origin.
func NewGateway(broadcaster *Broadcaster, bus Bus, botKey string, origins []string) *Gateway {
	g := &Gateway{
		broadcaster: broadcaster,
		bus:         bus,
		botKey:      botKey,
		origins:     make(map[string]bool),
		logger:      util.GetLogger(),
	}
	for _, o := range origins {
		if o != "" {
			g.origins[o] = true
		}
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     g.checkOrigin,
	}
	return g
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	if len(g.origins) == 0 || g.origins["*"] {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || g.origins[origin]
}

// Admit decides whether the request may open a live connection
func (g *Gateway) Admit(c *gin.Context) (*Admission, error) {
	if key := c.Query("bot_key"); key != "" && g.botKey != "" && key == g.botKey {
		return &Admission{Mode: ModeAutomation, Scope: models.AllHotels(), Group: GroupAll}, nil
	}

	p, ok := auth.FromContext(c)
	if !ok {
		return nil, models.ErrUnauthenticated
	}
	scope, err := p.Scope()
	if err != nil {
		return nil, err
	}
	return &Admission{Mode: ModeOperator, Scope: scope, Group: GroupForScope(scope)}, nil
}

// Handle is the gin handler of the live endpoint
func (g *Gateway) Handle(c *gin.Context) {
	adm, err := g.Admit(c)
	if err != nil {
		status, reason := http.StatusForbidden, "forbidden"
		if errors.Is(err, models.ErrUnauthenticated) {
			status, reason = http.StatusUnauthorized, "unauthenticated"
		}
		util.LiveRejectionsTotal.WithLabelValues(reason).Inc()
		c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": reason})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		util.LiveRejectionsTotal.WithLabelValues("upgrade").Inc()
		g.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	g.serve(c.Request.Context(), conn, adm)
}

func (g *Gateway) serve(ctx context.Context, conn *websocket.Conn, adm *Admission) {
	connID := uuid.New().String()
	logger := g.logger.With(
		zap.String("conn_id", connID),
		zap.String("mode", adm.Mode),
		zap.String("group", adm.Group))
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, err := g.bus.Subscribe(ctx, adm.Group)
	if err != nil {
		logger.Error("Failed to subscribe live connection", zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "unavailable"),
			time.Now().Add(writeWait))
		return
	}
	defer sub.Close()

	util.LiveConnections.WithLabelValues(adm.Mode).Inc()
	defer util.LiveConnections.WithLabelValues(adm.Mode).Dec()
	logger.Info("Live connection opened")
	defer logger.Info("Live connection closed")

	snap, err := g.broadcaster.Snapshot(ctx, adm.Scope)
	if err != nil {
		logger.Error("Failed to build initial board", zap.Error(err))
		return
	}
	state, err := Encode(TypeBoardState, snap)
	if err != nil {
		logger.Error("Failed to encode initial board", zap.Error(err))
		return
	}
	if err := writeFrame(conn, state); err != nil {
		return
	}

	done := make(chan struct{})
	go readLoop(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			if err := writeFrame(conn, msg); err != nil {
				logger.Debug("Live write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, payload []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// readLoop discards inbound frames and closes done when the peer goes away
func readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxInbound)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Package gateway is the boundary between the websocket transport and the
// hub/registry. Per connection: Connecting -> Authenticated -> Open ->
// Closed. Registration only happens after authentication, and removal
// happens unconditionally on the way out.
package gateway

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-relay/contract"
	"chat-relay/observability"
	"chat-relay/services"
)

// Config carries the per-connection knobs. PongWait doubles as the idle
// timeout: a client that neither talks nor answers pings is dropped.
type Config struct {
	SendBufferSize int
	PongWait       time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

func (c Config) pingPeriod() time.Duration {
	return c.PongWait * 9 / 10
}

type Gateway struct {
	log      *slog.Logger
	auth     services.IAuthService
	chat     services.IChatService
	registry contract.IRegistry
	monitor  *observability.MonitoringManager
	cfg      Config
	upgrader websocket.Upgrader
}

func New(log *slog.Logger, authService services.IAuthService,
	chatService services.IChatService, registry contract.IRegistry,
	monitor *observability.MonitoringManager, cfg Config) *Gateway {
	return &Gateway{
		log:      log,
		auth:     authService,
		chat:     chatService,
		registry: registry,
		monitor:  monitor,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Allow all origins; apply CORS at the reverse-proxy level.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection, authenticates it, registers the
// session and runs the pumps. Blocks until the connection closes.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	// Connecting -> Authenticated. Failure goes straight to Closed with an
	// Unauthorized close code, before any session exists.
	identity, err := g.auth.Verify(bearerToken(r))
	if err != nil {
		g.monitor.CountUnauthorized()
		g.log.Info("connection rejected", "remote", r.RemoteAddr, "err", err)
		deadline := time.Now().Add(g.cfg.WriteTimeout)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, CodeUnauthorized),
			deadline)
		_ = conn.Close()
		return
	}

	client := newClient(conn, g.chat, g.monitor, g.log, g.cfg)

	// Authenticated -> Open.
	connectionID := uuid.NewString()
	session, err := g.registry.Register(connectionID, identity.UserID, identity.Username, client)
	if err != nil {
		g.log.Error("registration failed", "connection_id", connectionID, "err", err)
		deadline := time.Now().Add(g.cfg.WriteTimeout)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "registration failed"),
			deadline)
		_ = conn.Close()
		return
	}
	client.session = session
	client.cleanup = func() {
		// Open -> Closed: remove unconditionally, whatever triggered the exit.
		g.registry.Remove(connectionID)
		g.log.Info("session closed",
			"connection_id", connectionID,
			"user_id", session.UserID,
			"active", g.registry.Count())
	}

	g.log.Info("session open",
		"connection_id", connectionID,
		"user_id", session.UserID,
		"display_name", session.DisplayName,
		"active", g.registry.Count())

	go client.writePump()
	client.readPump(r.Context()) // blocks until the connection closes
}

// bearerToken pulls the identity token from the query string or the
// Authorization header.
func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

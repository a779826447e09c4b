package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/crecheapp/creche-backend/internal/middleware"
	"github.com/crecheapp/creche-backend/internal/response"
	"github.com/crecheapp/creche-backend/internal/service"
	ws "github.com/crecheapp/creche-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// sessionCheckPeriod bounds how long a revoked session keeps its stream open.
const sessionCheckPeriod = 30 * time.Second

// WSHandler streams live notifications over WebSocket.
type WSHandler struct {
	authService         *service.AuthService
	notificationService *service.NotificationService
	log                 zerolog.Logger
	upgrader            websocket.Upgrader
	sessionCheck        time.Duration
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(authService *service.AuthService, notificationService *service.NotificationService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		authService:         authService,
		notificationService: notificationService,
		log:                 log.With().Str("component", "ws_handler").Logger(),
		upgrader:            buildUpgrader(allowedOrigins),
		sessionCheck:        sessionCheckPeriod,
	}
}

// NotificationStream godoc
// WS /ws/v1/notifications?token=
// Forwards the caller's notifications as they are stored; accepts ping and mark_read.
func (h *WSHandler) NotificationStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	if err := h.authService.ValidateSession(c.Request.Context(), claims); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	viewer := claims.Viewer()
	wsLog := h.log.With().Int("profile_id", viewer.ProfileID).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.notificationService.Subscribe(ctx, viewer.ProfileID)
	defer sub.Close()

	// Wait for the subscription to be confirmed so nothing published after the
	// handshake is missed.
	if _, err := sub.Receive(ctx); err != nil {
		wsLog.Error().Err(err).Msg("Subscribe failed")
		conn.WriteError("subscription failed")
		return
	}

	wsLog.Info().Msg("Notification stream connected")

	go h.forward(ctx, cancel, conn, claims, sub.Channel(), wsLog)

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		case ws.ActionMarkRead:
			if msg.ID <= 0 {
				conn.WriteError("id is required")
				continue
			}
			if err := h.notificationService.MarkRead(ctx, viewer, msg.ID); err != nil {
				if errors.Is(err, service.ErrNotFound) {
					conn.WriteError("notification not found")
					continue
				}
				wsLog.Error().Err(err).Int("notification_id", msg.ID).Msg("Mark read failed")
				conn.WriteError("mark read failed")
				continue
			}
			conn.WriteTyped(ws.ReadEvent{Event: ws.EventRead, ID: msg.ID})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

// forward relays PubSub messages to the socket and keeps it alive with pings.
// The stream ends once the session behind claims is revoked.
func (h *WSHandler) forward(ctx context.Context, cancel context.CancelFunc, conn *ws.Conn, claims *service.Claims, ch <-chan *redis.Message, wsLog zerolog.Logger) {
	defer cancel()

	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()
	sessionTicker := time.NewTicker(h.sessionCheck)
	defer sessionTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			ev := ws.NotificationEvent{Event: ws.EventNotification, Notification: []byte(msg.Payload)}
			if err := conn.WriteTyped(ev); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed, closing stream")
				conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				conn.Close()
				return
			}
		case <-sessionTicker.C:
			err := h.authService.ValidateSession(ctx, claims)
			if errors.Is(err, service.ErrSessionInvalidated) {
				wsLog.Info().Msg("Session revoked, closing stream")
				conn.CloseWith(websocket.ClosePolicyViolation, "session invalidated")
				return
			}
			if err != nil {
				// Redis hiccup: keep streaming and try again next period.
				wsLog.Warn().Err(err).Msg("Session check failed")
			}
		}
	}
}

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/chatrelay/chat-system/internal/core/ports"
	"github.com/chatrelay/chat-system/internal/infrastructure/ws"
	"github.com/chatrelay/chat-system/internal/relay"
)

// presenceRefresher is the slice of the presence store the handler needs to
// keep a live session's TTL fresh.
type presenceRefresher interface {
	Refresh(ctx context.Context, sessionID string) error
}

// ChatHandler upgrades HTTP requests to websocket chat sessions.
type ChatHandler struct {
	registry    *relay.Registry
	broadcaster *relay.Broadcaster
	messages    ports.MessageRepository
	presence    presenceRefresher
	log         zerolog.Logger

	jwtSecret     string
	requireAuth   bool
	historyReplay int

	upgrader websocket.Upgrader
}

func NewChatHandler(
	registry *relay.Registry,
	broadcaster *relay.Broadcaster,
	messages ports.MessageRepository,
	presence presenceRefresher,
	log zerolog.Logger,
	jwtSecret string,
	requireAuth bool,
	historyReplay int,
) *ChatHandler {
	return &ChatHandler{
		registry:      registry,
		broadcaster:   broadcaster,
		messages:      messages,
		presence:      presence,
		log:           log,
		jwtSecret:     jwtSecret,
		requireAuth:   requireAuth,
		historyReplay: historyReplay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The relay is an open endpoint, matching the permissive CORS
			// policy on the HTTP side.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws — admits the connection as a chat session.
//
// @Summary      Open a chat session
// @Tags         chat
// @Param        token  query  string  false  "Session token (required when the relay enforces authentication)"
// @Success      101
// @Failure      401  {object}  errorResponse
// @Router       /ws [get]
func (h *ChatHandler) Serve(c echo.Context) error {
	var identity string
	if h.requireAuth {
		var err error
		identity, err = h.verifyToken(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the failure response.
		return nil
	}

	client := ws.NewClient(conn, h.log)
	session := h.registry.Admit(client)
	if identity != "" {
		h.registry.Authenticate(session, identity)
	}

	h.broadcaster.Enqueue(relay.Event{Kind: relay.EventConnect, Session: session})

	h.replayHistory(c.Request().Context(), client)

	client.Run(session, h.broadcaster, ws.Hooks{
		OnPing: func() {
			if h.presence == nil {
				return
			}
			if err := h.presence.Refresh(context.Background(), session.ID()); err != nil {
				h.log.Warn().Err(err).Str("session_id", session.ID()).Msg("presence refresh failed")
			}
		},
	})

	return nil
}

// verifyToken accepts the session token from the query string (browsers
// cannot set headers on websocket handshakes) or an Authorization header.
func (h *ChatHandler) verifyToken(c echo.Context) (string, error) {
	raw := c.QueryParam("token")
	if raw == "" {
		header := c.Request().Header.Get("Authorization")
		if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			raw = parts[1]
		}
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return "", jwt.ErrTokenSignatureInvalid
	}

	username, _ := claims["username"].(string)
	if username == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return username, nil
}

// replayHistory pushes the most recent persisted messages to a new session
// before live traffic. Best-effort: a store failure only costs the replay.
func (h *ChatHandler) replayHistory(ctx context.Context, client *ws.Client) {
	if h.historyReplay <= 0 {
		return
	}

	history, err := h.messages.Recent(ctx, h.historyReplay)
	if err != nil {
		h.log.Warn().Err(err).Msg("history replay skipped")
		return
	}
	for i := range history {
		payload, err := relay.EncodeMessage(&history[i])
		if err != nil {
			continue
		}
		if !client.Send(payload) {
			return
		}
	}
}

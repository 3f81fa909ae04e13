package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"coursehub-backend/internal/models"
	"coursehub-backend/internal/tracking"
)

const maxMessageSize = 64 << 10

// Client message types.
const (
	MsgPageView    = "page_view"
	MsgInteraction = "interaction"
	MsgVisibility  = "visibility"
	MsgSignOut     = "sign_out"
)

type tokenVerifier interface {
	Verify(token string) (models.Identity, error)
	WriteTokenError(w http.ResponseWriter, r *http.Request, err error)
}

type clientMessage struct {
	Type   string          `json:"type"`
	Path   string          `json:"path,omitempty"`
	Hidden bool            `json:"hidden,omitempty"`
	Event  json.RawMessage `json:"event,omitempty"`
}

// Handler upgrades authenticated clients and runs one tracked session per
// connection. Browsers cannot set headers on the upgrade request, so the ID
// token travels in the token query parameter.
type Handler struct {
	hub      *Hub
	registry *tracking.Registry
	verifier tokenVerifier
	upgrader websocket.Upgrader
	logger   zerolog.Logger
	wg       sync.WaitGroup
}

func NewHandler(hub *Hub, registry *tracking.Registry, verifier tokenVerifier, allowedOrigin string, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:      hub,
		registry: registry,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
		logger: logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := h.verifier.Verify(r.URL.Query().Get("token"))
	if err != nil {
		h.verifier.WriteTokenError(w, r, err)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}
	width, _ := strconv.Atoi(r.URL.Query().Get("w"))
	height, _ := strconv.Atoi(r.URL.Query().Get("h"))
	device := tracking.Fingerprint(r.UserAgent(), width, height)

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	ws.SetReadLimit(maxMessageSize)

	conn := newConn(ws)
	tracker := h.registry.Open(id.UserID, device)
	h.hub.register(id.UserID, conn)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.serve(conn, tracker, path)
	}()
}

func (h *Handler) serve(conn *Conn, tracker *tracking.Tracker, path string) {
	ctx := context.Background()
	userID := tracker.UserID()
	logger := h.logger.With().Str("client_id", tracker.ClientID()).Str("user_id", userID).Logger()

	defer func() {
		h.registry.Close(ctx, tracker.ClientID())
		h.hub.unregister(userID, conn)
	}()

	h.start(ctx, conn, tracker, path)

	// A signed-out connection stays open but never starts another session.
	signedOut := false
	for {
		var msg clientMessage
		if err := conn.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}

		switch msg.Type {
		case MsgPageView:
			if msg.Path != "" {
				path = msg.Path
			}
			tracker.RecordPageView(msg.Path)
		case MsgInteraction:
			var event models.InteractionEvent
			if err := json.Unmarshal(msg.Event, &event); err != nil {
				h.sendError(conn, "invalid interaction: "+err.Error())
				continue
			}
			tracker.Record(event)
		case MsgVisibility:
			switch {
			case msg.Hidden:
				h.end(ctx, conn, tracker)
			case !signedOut:
				h.start(ctx, conn, tracker, path)
			}
		case MsgSignOut:
			signedOut = true
			h.end(ctx, conn, tracker)
		default:
			h.sendError(conn, "unknown message type: "+msg.Type)
		}
	}
}

func (h *Handler) start(ctx context.Context, conn *Conn, tracker *tracking.Tracker, path string) {
	sessionID, opened := tracker.Start(ctx, path)
	if !opened {
		return
	}
	conn.WriteJSON(models.WSMessage{
		Type:    models.WSSessionStarted,
		Payload: models.SessionEvent{SessionID: sessionID, ClientID: tracker.ClientID()},
	})
}

func (h *Handler) end(ctx context.Context, conn *Conn, tracker *tracking.Tracker) {
	s, ok := tracker.Active()
	if !ok || !tracker.End(ctx) {
		return
	}
	conn.WriteJSON(models.WSMessage{
		Type:    models.WSSessionEnded,
		Payload: models.SessionEvent{SessionID: s.ID, ClientID: tracker.ClientID()},
	})
}

func (h *Handler) sendError(conn *Conn, message string) {
	conn.WriteJSON(models.WSMessage{Type: models.WSError, Payload: map[string]string{"message": message}})
}

// Wait blocks until every connection served by h has closed.
func (h *Handler) Wait() {
	h.wg.Wait()
}

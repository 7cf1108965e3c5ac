package server

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"parlor/internal/metrics"
	"parlor/internal/protocol"
	"parlor/internal/store"
)

// Handler upgrades websocket connections and runs the handshake: the
// room id comes from the "room" query parameter, is resolved once, and
// binds the session for its whole lifetime.
type Handler struct {
	store    *store.Store
	hub      *Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(st *store.Store, hub *Hub, log zerolog.Logger, allowedOrigin string) *Handler {
	return &Handler{
		store:    st,
		hub:      hub,
		log:      log,
		upgrader: makeUpgrader(allowedOrigin),
	}
}

// makeUpgrader builds an upgrader that validates the Origin header. An
// empty allowedOrigin permits only same-host origins; non-browser
// clients without an Origin header are always allowed.
func makeUpgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if allowedOrigin != "" {
				return origin == allowedOrigin
			}
			return origin == "http://"+r.Host || origin == "https://"+r.Host
		},
	}
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	room, code := h.resolveRoom(r)
	if room == nil {
		h.rejectHandshake(conn, code)
		return
	}

	s := &Session{
		id:     uuid.NewString(),
		hub:    h.hub,
		store:  h.store,
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		roomID: room.ID,
	}
	s.log = h.log.With().
		Str("session", s.id).
		Int64("room", room.ID).
		Logger()

	h.hub.Join(s)
	metrics.Connections.Inc()
	s.log.Info().Msg("session opened")

	s.sendEvent(roomInfoEvent(room))
	go s.writePump()
	go s.readPump()
}

// resolveRoom validates the handshake's room selection. A nil room
// means the handshake failed with the returned error code.
func (h *Handler) resolveRoom(r *http.Request) (*store.Room, protocol.ErrCode) {
	query, err := url.ParseQuery(r.URL.RawQuery)
	if err != nil {
		return nil, protocol.ErrBadReqURL
	}
	raw := query.Get("room")
	if raw == "" {
		return nil, protocol.ErrNoRoomID
	}
	roomID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, protocol.ErrInvalidRoomID
	}
	room, err := h.store.Room(roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, protocol.ErrRoomNotExist
		}
		h.log.Error().Err(err).Msg("room lookup failed")
		return nil, protocol.ErrRoomNotExist
	}
	return room, 0
}

// rejectHandshake sends one error event, then closes the connection
// with the Unsupported close code.
func (h *Handler) rejectHandshake(conn *websocket.Conn, code protocol.ErrCode) {
	deadline := time.Now().Add(5 * time.Second)
	conn.SetWriteDeadline(deadline)
	if err := conn.WriteJSON(protocol.NewErrorEvent(code)); err == nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseUnsupportedData, code.String()),
			deadline)
	}
	conn.Close()
}

// Healthz reports process liveness.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

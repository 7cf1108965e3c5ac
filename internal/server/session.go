package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"parlor/internal/auth"
	"parlor/internal/metrics"
	"parlor/internal/protocol"
	"parlor/internal/store"
)

const (
	maxFrameSize   = 64 * 1024
	maxUsernameLen = 20
	sendQueueSize  = 256
)

// Session is the per-connection state: the room bound at handshake
// (immutable for the connection's lifetime) and the authenticated user,
// if any. Inbound requests are handled sequentially per connection.
type Session struct {
	id    string
	hub   *Hub
	store *store.Store
	conn  *websocket.Conn
	send  chan []byte
	log   zerolog.Logger

	roomID   int64
	userID   int64 // 0 until authenticated
	username string
}

func (s *Session) authenticated() bool {
	return s.userID != 0
}

func (s *Session) readPump() {
	defer func() {
		s.hub.Leave(s)
		if s.authenticated() {
			s.systemMessage(fmt.Sprintf("%s has disconnected", s.username))
		}
		// After Leave no broadcast can reach this session, so the send
		// queue can be closed to let writePump drain and exit.
		close(s.send)
		s.conn.Close()
		metrics.Connections.Dec()
		s.log.Info().Msg("session closed")
	}()
	s.conn.SetReadLimit(maxFrameSize)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var req protocol.Request
		if err := json.Unmarshal(data, &req); err != nil {
			s.sendError(protocol.ErrMalformed)
			continue
		}
		s.dispatch(req)
	}
}

func (s *Session) writePump() {
	defer s.conn.Close()
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (s *Session) dispatch(req protocol.Request) {
	switch req.Type {
	case "auth":
		s.handleAuth(req)
	case "register":
		s.handleRegister(req)
	case "message":
		s.handleMessage(req)
	case "edit":
		s.handleEdit(req)
	case "delete":
		s.handleDelete(req)
	case "vote":
		s.handleVote(req)
	case "history":
		s.handleHistory(req)
	case "room":
		s.handleRoom(req)
	default:
		s.sendError(protocol.ErrMalformed)
	}
}

// --- Request handlers ---

func (s *Session) handleAuth(req protocol.Request) {
	// A previously issued token stands in for the password.
	if req.Token != nil {
		u, err := s.store.UserByToken(*req.Token)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				s.log.Error().Err(err).Msg("token lookup failed")
				return
			}
			s.sendEvent(protocol.AuthEvent{Type: "auth", Success: false})
			return
		}
		s.completeAuth(u.ID, u.Username, *req.Token, "auth")
		return
	}

	if req.Username == nil || req.Password == nil {
		s.sendError(protocol.ErrMalformed)
		return
	}

	userID, salt, hash, err := s.store.Credentials(*req.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.log.Error().Err(err).Msg("credential lookup failed")
		return
	}
	if err != nil || !auth.CheckPassword(*req.Password, salt, hash) {
		s.sendEvent(protocol.AuthEvent{Type: "auth", Success: false})
		return
	}

	token, err := s.store.Token(userID)
	if err != nil {
		s.log.Error().Err(err).Msg("token issue failed")
		return
	}
	s.completeAuth(userID, *req.Username, token, "auth")
}

func (s *Session) handleRegister(req protocol.Request) {
	if req.Username == nil || req.Password == nil {
		s.sendError(protocol.ErrMalformed)
		return
	}
	if len(*req.Username) > maxUsernameLen {
		s.sendError(protocol.ErrUsernameTooLong)
		return
	}

	salt, err := auth.NewSalt()
	if err != nil {
		s.log.Error().Err(err).Msg("salt generation failed")
		return
	}
	hash, err := auth.HashPassword(*req.Password, salt)
	if err != nil {
		s.log.Error().Err(err).Msg("password hashing failed")
		return
	}

	u, token, err := s.store.RegisterUser(*req.Username, salt, hash)
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			s.sendEvent(protocol.RegisterEvent{Type: "register", Success: false})
			return
		}
		s.log.Error().Err(err).Msg("register failed")
		return
	}

	s.userID = u.ID
	s.username = u.Username
	s.sendEvent(protocol.RegisterEvent{Type: "register", Success: true, Token: token, UserID: &u.ID})
	s.systemMessage(fmt.Sprintf("%s has connected", u.Username))
}

func (s *Session) completeAuth(userID int64, username, token, eventType string) {
	s.userID = userID
	s.username = username
	s.sendEvent(protocol.AuthEvent{Type: eventType, Success: true, Token: token})
	s.systemMessage(fmt.Sprintf("%s has connected", username))
}

func (s *Session) handleMessage(req protocol.Request) {
	if req.Text == nil {
		s.sendError(protocol.ErrMalformed)
		return
	}
	if *req.Text == "" {
		s.sendError(protocol.ErrEmptyMsg)
		return
	}
	if !s.authenticated() {
		s.sendError(protocol.ErrNeedLogin)
		return
	}

	m, err := s.store.PostMessage(s.roomID, s.userID, req.ReplyID, *req.Text)
	if err != nil {
		s.storeError(err, "post message")
		return
	}
	metrics.MessagesTotal.Inc()
	s.hub.Broadcast(s.roomID, messageEvent(m, false))
}

func (s *Session) handleEdit(req protocol.Request) {
	if req.ID == nil || req.Text == nil {
		s.sendError(protocol.ErrMalformed)
		return
	}
	// An edit to empty text is a delete; the reply link is cleared the
	// same way.
	if *req.Text == "" {
		s.revise(*req.ID, nil, "")
		return
	}
	s.revise(*req.ID, req.ReplyID, *req.Text)
}

func (s *Session) handleDelete(req protocol.Request) {
	if req.ID == nil {
		s.sendError(protocol.ErrMalformed)
		return
	}
	s.revise(*req.ID, nil, "")
}

func (s *Session) revise(id int64, replyID *int64, text string) {
	if !s.authenticated() {
		s.sendError(protocol.ErrNeedLogin)
		return
	}
	m, err := s.store.ReviseMessage(id, s.userID, replyID, text)
	if err != nil {
		s.storeError(err, "revise message")
		return
	}
	metrics.EditsTotal.Inc()
	s.hub.Broadcast(m.RoomID, messageEvent(m, true))
}

func (s *Session) handleVote(req protocol.Request) {
	if req.MessageID == nil || req.VoteType == nil {
		s.sendError(protocol.ErrMalformed)
		return
	}
	vt, ok := protocol.VoteTypeFromInt(*req.VoteType)
	if !ok {
		s.sendError(protocol.ErrMalformed)
		return
	}
	if !s.authenticated() {
		s.sendError(protocol.ErrNeedLogin)
		return
	}

	s.hub.voteMu.Lock()
	defer s.hub.voteMu.Unlock()
	res, err := s.store.ToggleVote(*req.MessageID, s.userID, vt)
	if err != nil {
		s.storeError(err, "toggle vote")
		return
	}
	metrics.VotesTotal.WithLabelValues(vt.String()).Inc()
	s.hub.Broadcast(res.RoomID, voteEvent(res))
	// Ranked toggles always carry a board, possibly empty after an undo.
	if res.Type.Ranked() {
		metrics.StarboardRecomputes.Inc()
		s.hub.Broadcast(res.RoomID, starboardEvent(vt, res.Board))
	}
}

func (s *Session) handleHistory(req protocol.Request) {
	if req.ID == nil {
		s.sendError(protocol.ErrMalformed)
		return
	}
	revs, err := s.store.History(*req.ID)
	if err != nil {
		s.log.Error().Err(err).Msg("history query failed")
		return
	}
	s.sendEvent(historyEvent(revs))
}

func (s *Session) handleRoom(req protocol.Request) {
	if req.Name == nil || req.Desc == nil {
		s.sendError(protocol.ErrMalformed)
		return
	}
	room, err := s.store.CreateRoom(*req.Name, *req.Desc)
	if err != nil {
		s.log.Error().Err(err).Msg("create room failed")
		return
	}
	s.sendEvent(roomInfoEvent(room))
}

// --- Helpers ---

// systemMessage records and broadcasts a system message in the
// session's room.
func (s *Session) systemMessage(text string) {
	m, err := s.store.SystemMessage(s.roomID, text)
	if err != nil {
		s.log.Error().Err(err).Msg("system message failed")
		return
	}
	s.hub.Broadcast(s.roomID, messageEvent(m, false))
}

// storeError maps a store failure onto the protocol. Policy rejections
// become client error codes; configuration gaps and I/O failures are
// logged as operational defects and produce no client code.
func (s *Session) storeError(err error, op string) {
	switch {
	case errors.Is(err, store.ErrRateLimited):
		metrics.RateLimitedTotal.Inc()
		s.sendError(protocol.ErrRateLimit)
	case errors.Is(err, store.ErrEditDeleted):
		s.sendError(protocol.ErrEditDeleted)
	case errors.Is(err, store.ErrNotFound):
		s.sendError(protocol.ErrMalformed)
	case errors.Is(err, store.ErrConfigMissing):
		s.log.Error().Err(err).Str("op", op).Msg("privilege configuration missing")
	default:
		s.log.Error().Err(err).Str("op", op).Msg("store operation failed")
	}
}

func (s *Session) sendError(code protocol.ErrCode) {
	s.sendEvent(protocol.NewErrorEvent(code))
}

func (s *Session) sendEvent(event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal event")
		return
	}
	select {
	case s.send <- data:
	default:
	}
}

package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"parlor/internal/metrics"
	"parlor/internal/protocol"
	"parlor/internal/store"
)

// Hub tracks which sessions are bound to which room and delivers events
// room-scoped: an event for room R reaches only sessions bound to R.
// While a room has at least one session, the hub also recomputes and
// broadcasts that room's starboards on a fixed interval.
type Hub struct {
	store    *store.Store
	log      zerolog.Logger
	interval time.Duration

	mu    sync.Mutex
	rooms map[int64]map[*Session]bool
	stops map[int64]chan struct{}

	// voteMu spans a vote toggle and its broadcasts, so board events
	// leave in recompute order.
	voteMu sync.Mutex
}

func NewHub(st *store.Store, log zerolog.Logger, interval time.Duration) *Hub {
	return &Hub{
		store:    st,
		log:      log,
		interval: interval,
		rooms:    make(map[int64]map[*Session]bool),
		stops:    make(map[int64]chan struct{}),
	}
}

// Join binds a session to its room. The first session in a room starts
// the room's starboard ticker.
func (h *Hub) Join(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[s.roomID] == nil {
		h.rooms[s.roomID] = make(map[*Session]bool)
		stop := make(chan struct{})
		h.stops[s.roomID] = stop
		go h.runStarboards(s.roomID, stop)
	}
	h.rooms[s.roomID][s] = true
}

// Leave removes a session. The last session out stops the room's
// ticker.
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[s.roomID]
	if !ok {
		return
	}
	delete(room, s)
	if len(room) == 0 {
		delete(h.rooms, s.roomID)
		close(h.stops[s.roomID])
		delete(h.stops, s.roomID)
	}
}

// Broadcast delivers an event to every session bound to the room. Slow
// sessions with a full send buffer miss the event rather than block the
// hub.
func (h *Hub) Broadcast(roomID int64, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal broadcast event")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.rooms[roomID] {
		select {
		case s.send <- data:
		default:
		}
	}
}

func (h *Hub) runStarboards(roomID int64, stop chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, vt := range []protocol.VoteType{protocol.Star, protocol.Pin} {
				board, err := h.store.Starboard(roomID, vt)
				if err != nil {
					h.log.Error().Err(err).Int64("room", roomID).
						Str("votetype", vt.String()).Msg("starboard recompute failed")
					continue
				}
				metrics.StarboardRecomputes.Inc()
				h.Broadcast(roomID, starboardEvent(vt, board))
			}
		}
	}
}

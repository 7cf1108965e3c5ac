package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"parlor/internal/store"
)

func newTestHub(t *testing.T, interval time.Duration) (*Hub, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewHub(st, zerolog.Nop(), interval), st
}

func newHubSession(roomID int64) *Session {
	return &Session{
		send:   make(chan []byte, 8),
		roomID: roomID,
	}
}

func recvEvent(t *testing.T, s *Session) map[string]interface{} {
	t.Helper()
	select {
	case data := <-s.send:
		var ev map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func TestBroadcastIsRoomScoped(t *testing.T) {
	h, _ := newTestHub(t, time.Hour)
	lobby := newHubSession(1)
	den := newHubSession(2)
	h.Join(lobby)
	h.Join(den)
	defer h.Leave(lobby)
	defer h.Leave(den)

	h.Broadcast(1, map[string]string{"type": "message", "text": "lobby only"})

	ev := recvEvent(t, lobby)
	require.Equal(t, "lobby only", ev["text"])
	require.Empty(t, den.send)
}

func TestBroadcastReachesAllRoomMembers(t *testing.T) {
	h, _ := newTestHub(t, time.Hour)
	a := newHubSession(1)
	b := newHubSession(1)
	h.Join(a)
	h.Join(b)
	defer h.Leave(a)
	defer h.Leave(b)

	h.Broadcast(1, map[string]string{"type": "message"})
	recvEvent(t, a)
	recvEvent(t, b)
}

func TestLeftSessionReceivesNothing(t *testing.T) {
	h, _ := newTestHub(t, time.Hour)
	s := newHubSession(1)
	h.Join(s)
	h.Leave(s)

	h.Broadcast(1, map[string]string{"type": "message"})
	require.Empty(t, s.send)
}

func TestOccupiedRoomTicksStarboards(t *testing.T) {
	h, _ := newTestHub(t, 20*time.Millisecond)
	s := newHubSession(1)
	h.Join(s)
	defer h.Leave(s)

	// One tick produces a star board and a pin board.
	types := map[float64]bool{}
	for i := 0; i < 2; i++ {
		ev := recvEvent(t, s)
		require.Equal(t, "starboard", ev["type"])
		types[ev["votetype"].(float64)] = true
	}
	require.Len(t, types, 2)
}

func TestFullSendQueueDoesNotBlockBroadcast(t *testing.T) {
	h, _ := newTestHub(t, time.Hour)
	s := &Session{send: make(chan []byte), roomID: 1}
	h.Join(s)
	defer h.Leave(s)

	done := make(chan struct{})
	go func() {
		h.Broadcast(1, map[string]string{"type": "message"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow session")
	}
}

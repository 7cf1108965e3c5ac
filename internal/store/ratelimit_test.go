package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"parlor/internal/protocol"
)

func TestSendRateLimitWindow(t *testing.T) {
	s := newTestStore(t)
	clock := installClock(s)
	u := mustRegister(t, s, "alice")

	require.NoError(t, s.SetPrivilege(1, nil, protocol.SendMessage, 3, 10*time.Second))

	for i := 0; i < 3; i++ {
		_, err := s.PostMessage(1, u.ID, nil, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	_, err := s.PostMessage(1, u.ID, nil, "one too many")
	require.ErrorIs(t, err, ErrRateLimited)

	// Once the window slides past the oldest of the three, the same
	// action is allowed again.
	clock.Advance(9 * time.Second)
	_, err = s.PostMessage(1, u.ID, nil, "fresh window")
	require.NoError(t, err)
}

func TestRateLimitCountEqualToThresholdDenies(t *testing.T) {
	s := newTestStore(t)
	u := mustRegister(t, s, "alice")

	require.NoError(t, s.SetPrivilege(1, nil, protocol.SendMessage, 1, time.Hour))

	_, err := s.PostMessage(1, u.ID, nil, "first")
	require.NoError(t, err)
	_, err = s.PostMessage(1, u.ID, nil, "second")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestZeroThresholdMeansUnlimited(t *testing.T) {
	s := newTestStore(t)
	u := mustRegister(t, s, "alice")

	require.NoError(t, s.SetPrivilege(1, nil, protocol.SendMessage, 0, 0))

	for i := 0; i < 20; i++ {
		_, err := s.PostMessage(1, u.ID, nil, fmt.Sprintf("burst %d", i))
		require.NoError(t, err)
	}
}

func TestRateLimitScopedToRoom(t *testing.T) {
	s := newTestStore(t)
	u := mustRegister(t, s, "alice")
	other, err := s.CreateRoom("annex", "second room")
	require.NoError(t, err)

	require.NoError(t, s.SetPrivilege(1, nil, protocol.SendMessage, 1, time.Hour))

	_, err = s.PostMessage(1, u.ID, nil, "fills room 1 quota")
	require.NoError(t, err)
	_, err = s.PostMessage(1, u.ID, nil, "denied in room 1")
	require.ErrorIs(t, err, ErrRateLimited)

	// The other room has its own default policy and its own counts.
	_, err = s.PostMessage(other.ID, u.ID, nil, "fine elsewhere")
	require.NoError(t, err)
}

func TestEditRateLimit(t *testing.T) {
	s := newTestStore(t)
	clock := installClock(s)
	u := mustRegister(t, s, "alice")

	m, err := s.PostMessage(1, u.ID, nil, "v0")
	require.NoError(t, err)

	require.NoError(t, s.SetPrivilege(1, nil, protocol.EditOwn, 2, 10*time.Second))

	_, err = s.ReviseMessage(m.ID, u.ID, nil, "v1")
	require.NoError(t, err)
	_, err = s.ReviseMessage(m.ID, u.ID, nil, "v2")
	require.NoError(t, err)
	_, err = s.ReviseMessage(m.ID, u.ID, nil, "v3")
	require.ErrorIs(t, err, ErrRateLimited)

	clock.Advance(11 * time.Second)
	_, err = s.ReviseMessage(m.ID, u.ID, nil, "v3")
	require.NoError(t, err)
}

func TestDeleteRateLimit(t *testing.T) {
	s := newTestStore(t)
	clock := installClock(s)
	u := mustRegister(t, s, "alice")

	var msgs []*Message
	for i := 0; i < 3; i++ {
		m, err := s.PostMessage(1, u.ID, nil, fmt.Sprintf("doomed %d", i))
		require.NoError(t, err)
		msgs = append(msgs, m)
	}

	require.NoError(t, s.SetPrivilege(1, nil, protocol.DeleteOwn, 2, 10*time.Second))

	_, err := s.ReviseMessage(msgs[0].ID, u.ID, nil, "")
	require.NoError(t, err)
	_, err = s.ReviseMessage(msgs[1].ID, u.ID, nil, "")
	require.NoError(t, err)
	_, err = s.ReviseMessage(msgs[2].ID, u.ID, nil, "")
	require.ErrorIs(t, err, ErrRateLimited)

	// The denied delete left no tombstone.
	cur, err := s.Message(msgs[2].ID)
	require.NoError(t, err)
	require.NotEqual(t, "", cur.Text)

	clock.Advance(11 * time.Second)
	_, err = s.ReviseMessage(msgs[2].ID, u.ID, nil, "")
	require.NoError(t, err)
}

func TestDeniedActionIsNotRecorded(t *testing.T) {
	s := newTestStore(t)
	u := mustRegister(t, s, "alice")

	require.NoError(t, s.SetPrivilege(1, nil, protocol.SendMessage, 1, time.Hour))

	_, err := s.PostMessage(1, u.ID, nil, "only message")
	require.NoError(t, err)
	_, err = s.PostMessage(1, u.ID, nil, "rejected")
	require.ErrorIs(t, err, ErrRateLimited)

	var n int
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE roomid = 1 AND userid = ?`, u.ID).Scan(&n))
	require.Equal(t, 1, n)
}

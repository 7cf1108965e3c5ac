package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateHasNoHistory(t *testing.T) {
	s := newTestStore(t)
	u := mustRegister(t, s, "alice")

	m, err := s.PostMessage(1, u.ID, nil, "hello")
	require.NoError(t, err)
	require.Equal(t, "hello", m.Text)
	require.Equal(t, u.ID, m.UserID)
	require.Equal(t, "alice", m.Username)

	revs, err := s.History(m.ID)
	require.NoError(t, err)
	require.Empty(t, revs)
}

func TestEditAppendsHistoryInOrder(t *testing.T) {
	s := newTestStore(t)
	u := mustRegister(t, s, "alice")

	m, err := s.PostMessage(1, u.ID, nil, "one")
	require.NoError(t, err)

	reply := int64(7)
	_, err = s.ReviseMessage(m.ID, u.ID, &reply, "two")
	require.NoError(t, err)
	_, err = s.ReviseMessage(m.ID, u.ID, nil, "three")
	require.NoError(t, err)

	revs, err := s.History(m.ID)
	require.NoError(t, err)
	require.Len(t, revs, 2)

	// Each entry captures the pre-edit state, in edit order.
	require.Equal(t, "one", revs[0].Text)
	require.Nil(t, revs[0].ReplyID)
	require.Equal(t, "two", revs[1].Text)
	require.NotNil(t, revs[1].ReplyID)
	require.Equal(t, int64(7), *revs[1].ReplyID)

	cur, err := s.Message(m.ID)
	require.NoError(t, err)
	require.Equal(t, "three", cur.Text)
	require.Nil(t, cur.ReplyID)
}

func TestDeleteTombstones(t *testing.T) {
	s := newTestStore(t)
	u := mustRegister(t, s, "alice")

	m, err := s.PostMessage(1, u.ID, nil, "doomed")
	require.NoError(t, err)

	deleted, err := s.ReviseMessage(m.ID, u.ID, nil, "")
	require.NoError(t, err)
	require.Equal(t, "", deleted.Text)

	cur, err := s.Message(m.ID)
	require.NoError(t, err)
	require.Equal(t, "", cur.Text)

	// The delete itself is recorded as one history entry.
	revs, err := s.History(m.ID)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	require.Equal(t, "doomed", revs[0].Text)
}

func TestTombstoneIsTerminal(t *testing.T) {
	s := newTestStore(t)
	u := mustRegister(t, s, "alice")

	m, err := s.PostMessage(1, u.ID, nil, "gone soon")
	require.NoError(t, err)
	_, err = s.ReviseMessage(m.ID, u.ID, nil, "")
	require.NoError(t, err)

	// Neither a further edit nor a further delete may touch it.
	_, err = s.ReviseMessage(m.ID, u.ID, nil, "resurrected")
	require.ErrorIs(t, err, ErrEditDeleted)
	_, err = s.ReviseMessage(m.ID, u.ID, nil, "")
	require.ErrorIs(t, err, ErrEditDeleted)

	revs, err := s.History(m.ID)
	require.NoError(t, err)
	require.Len(t, revs, 1, "rejected mutations must not grow history")
}

func TestEditByOtherKeepsAuthor(t *testing.T) {
	s := newTestStore(t)
	alice := mustRegister(t, s, "alice")
	bob := mustRegister(t, s, "bob")

	m, err := s.PostMessage(1, alice.ID, nil, "original")
	require.NoError(t, err)

	// EditOthers is unlimited by default.
	edited, err := s.ReviseMessage(m.ID, bob.ID, nil, "corrected")
	require.NoError(t, err)
	require.Equal(t, alice.ID, edited.UserID, "author never changes")
	require.Equal(t, "alice", edited.Username)
	require.Equal(t, int64(1), edited.RoomID)
}

func TestReviseMissingMessage(t *testing.T) {
	s := newTestStore(t)
	u := mustRegister(t, s, "alice")
	_, err := s.ReviseMessage(12345, u.ID, nil, "whatever")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSystemMessage(t *testing.T) {
	s := newTestStore(t)

	m, err := s.SystemMessage(1, "alice has connected")
	require.NoError(t, err)
	require.Equal(t, SystemUserID, m.UserID)
	require.Equal(t, "", m.Username)
	require.Equal(t, "alice has connected", m.Text)
}

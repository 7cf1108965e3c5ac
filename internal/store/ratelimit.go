package store

import (
	"fmt"
	"time"

	"parlor/internal/protocol"
)

// The rate limiter counts prior actions of the same effect inside the
// policy's trailing window, before the current action is recorded. A
// count equal to the threshold already denies. Each counter runs with
// the store mutex held by the calling mutation, so check-then-act is
// atomic.

func (s *Store) allow(p Privilege, count func(since time.Time) (int64, error)) error {
	if p.Unlimited() {
		return nil
	}
	n, err := count(s.now().Add(-p.Period))
	if err != nil {
		return fmt.Errorf("count prior actions: %w", err)
	}
	if n >= p.Threshold {
		return ErrRateLimited
	}
	return nil
}

// countSent counts messages the user posted in the room in the window.
func (s *Store) countSent(roomID, userID int64, since time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM messages
		WHERE roomid = ? AND userid = ? AND tstamp >= ?`,
		roomID, userID, since.Unix()).Scan(&n)
	return n, err
}

// countEdits counts overwrites of the user's messages in the room in
// the window. History rows carry the pre-edit text, so a non-empty text
// marks an overwrite of a live message.
func (s *Store) countEdits(roomID, userID int64, since time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM history h
		JOIN messages m ON m.id = h.messageid
		WHERE m.roomid = ? AND m.userid = ? AND h.text != '' AND h.tstamp >= ?`,
		roomID, userID, since.Unix()).Scan(&n)
	return n, err
}

// countDeletes counts the user's messages in the room that are
// currently tombstoned and were overwritten in the window.
func (s *Store) countDeletes(roomID, userID int64, since time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRow(`
		SELECT COUNT(DISTINCT h.messageid) FROM history h
		JOIN messages m ON m.id = h.messageid
		WHERE m.roomid = ? AND m.userid = ? AND m.text = '' AND h.tstamp >= ?`,
		roomID, userID, since.Unix()).Scan(&n)
	return n, err
}

// countVotes counts the user's votes of one type on messages in the
// room in the window.
func (s *Store) countVotes(roomID, userID int64, vt protocol.VoteType, since time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM votes v
		JOIN messages m ON m.id = v.messageid
		WHERE m.roomid = ? AND v.userid = ? AND v.votetype = ? AND v.tstamp >= ?`,
		roomID, userID, int(vt), since.Unix()).Scan(&n)
	return n, err
}

package store

import (
	"time"

	"parlor/internal/protocol"
	"parlor/internal/rank"
)

// Starboard computes the board for one room and votetype (Star or Pin).
// Star boards rank by decayed score, Pin boards by ascending raw count.
func (s *Store) Starboard(roomID int64, vt protocol.VoteType) ([]rank.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starboard(roomID, vt)
}

func (s *Store) starboard(roomID int64, vt protocol.VoteType) ([]rank.Entry, error) {
	rows, err := s.db.Query(`
		SELECT m.id, m.text, m.tstamp,
		       COALESCE(u.id, -1), COALESCE(u.username, ''),
		       COUNT(v.id)
		FROM votes v
		JOIN messages m ON m.id = v.messageid
		LEFT JOIN users u ON u.id = m.userid
		WHERE v.votetype = ? AND m.roomid = ?
		GROUP BY m.id`, int(vt), roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []rank.Entry
	for rows.Next() {
		var e rank.Entry
		var ts int64
		if err := rows.Scan(&e.ID, &e.Text, &ts, &e.UserID, &e.Username, &e.Votes); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if vt == protocol.Pin {
		return rank.Pins(entries), nil
	}
	return rank.Stars(entries, s.now()), nil
}

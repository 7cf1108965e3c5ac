package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parlor/internal/protocol"
	"parlor/internal/rank"
)

// VoteResult describes the outcome of a toggle. For Star and Pin votes,
// Board carries the starboard recomputed in the same critical section
// as the toggle, so it is guaranteed to reflect it.
type VoteResult struct {
	MessageID int64
	UserID    int64
	RoomID    int64
	Type      protocol.VoteType
	Undone    bool
	Board     []rank.Entry
}

// ToggleVote applies the user's vote on a message, or undoes it if an
// identical active vote exists. The toggle is gated by the
// {Upvote,Downvote,Star,Pin}{Own,Others} privilege matching whether the
// user authored the message.
func (s *Store) ToggleVote(messageID, userID int64, vt protocol.VoteType) (*VoteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.messageRow(messageID)
	if err != nil {
		return nil, err
	}

	own := userID == m.UserID
	priv, err := s.resolvePrivilege(m.RoomID, userID, protocol.VotePriv(vt, own))
	if err != nil {
		return nil, err
	}
	if err := s.allow(priv, func(since time.Time) (int64, error) {
		return s.countVotes(m.RoomID, userID, vt, since)
	}); err != nil {
		return nil, err
	}

	res := &VoteResult{MessageID: messageID, UserID: userID, RoomID: m.RoomID, Type: vt}

	var voteID int64
	err = s.db.QueryRow(`
		SELECT id FROM votes
		WHERE messageid = ? AND userid = ? AND votetype = ?`,
		messageID, userID, int(vt)).Scan(&voteID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec(`
			INSERT INTO votes (messageid, userid, votetype, tstamp)
			VALUES (?, ?, ?, ?)`,
			messageID, userID, int(vt), s.now().Unix()); err != nil {
			return nil, fmt.Errorf("insert vote: %w", err)
		}
	case err != nil:
		return nil, err
	default:
		if _, err := s.db.Exec(`DELETE FROM votes WHERE id = ?`, voteID); err != nil {
			return nil, fmt.Errorf("delete vote: %w", err)
		}
		res.Undone = true
	}

	if vt.Ranked() {
		board, err := s.starboard(m.RoomID, vt)
		if err != nil {
			return nil, err
		}
		res.Board = board
	}
	return res, nil
}

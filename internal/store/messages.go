package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parlor/internal/protocol"
)

// Message is a chat message. Text == "" is the tombstone state: the row
// stays, but the message counts as deleted and can no longer be edited.
// Username is resolved from the author at load time, not stored.
type Message struct {
	ID        int64
	RoomID    int64
	UserID    int64
	ReplyID   *int64
	Text      string
	Timestamp time.Time
	Username  string
}

// Revision is one pre-edit state captured in the history log.
type Revision struct {
	ReplyID   *int64
	Text      string
	Timestamp time.Time
}

// PostMessage creates a message, gated by the SendMessage privilege.
// Text must be non-empty; empty text is rejected upstream before this
// call.
func (s *Store) PostMessage(roomID, userID int64, replyID *int64, text string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	priv, err := s.resolvePrivilege(roomID, userID, protocol.SendMessage)
	if err != nil {
		return nil, err
	}
	if err := s.allow(priv, func(since time.Time) (int64, error) {
		return s.countSent(roomID, userID, since)
	}); err != nil {
		return nil, err
	}
	return s.insertMessage(roomID, userID, replyID, text)
}

// SystemMessage records a message authored by the system user. System
// messages bypass privilege gating.
func (s *Store) SystemMessage(roomID int64, text string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertMessage(roomID, SystemUserID, nil, text)
}

func (s *Store) insertMessage(roomID, userID int64, replyID *int64, text string) (*Message, error) {
	now := s.now()
	res, err := s.db.Exec(`
		INSERT INTO messages (roomid, userid, replyid, text, tstamp)
		VALUES (?, ?, ?, ?, ?)`,
		roomID, userID, replyID, text, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	username, err := s.username(userID)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:        id,
		RoomID:    roomID,
		UserID:    userID,
		ReplyID:   replyID,
		Text:      text,
		Timestamp: time.Unix(now.Unix(), 0),
		Username:  username,
	}, nil
}

// ReviseMessage applies an edit (non-empty text) or a delete (empty
// text) to an existing message on behalf of actingUser. The mutation is
// gated by the Edit*/Delete* privilege matching whether actingUser is
// the author. The pre-edit state is appended to the history log before
// the row is overwritten; a message whose text is already empty is
// terminal and yields ErrEditDeleted with no history entry and no
// mutation.
func (s *Store) ReviseMessage(id, actingUser int64, replyID *int64, text string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.messageRow(id)
	if err != nil {
		return nil, err
	}
	if m.Text == "" {
		return nil, ErrEditDeleted
	}

	own := actingUser == m.UserID
	var priv Privilege
	var count func(since time.Time) (int64, error)
	if text == "" {
		priv, err = s.resolvePrivilege(m.RoomID, actingUser, protocol.DeletePriv(own))
		count = func(since time.Time) (int64, error) {
			return s.countDeletes(m.RoomID, actingUser, since)
		}
	} else {
		priv, err = s.resolvePrivilege(m.RoomID, actingUser, protocol.EditPriv(own))
		count = func(since time.Time) (int64, error) {
			return s.countEdits(m.RoomID, actingUser, since)
		}
	}
	if err != nil {
		return nil, err
	}
	if err := s.allow(priv, count); err != nil {
		return nil, err
	}

	now := s.now()
	if _, err := s.db.Exec(`
		INSERT INTO history (messageid, replyid, text, tstamp)
		VALUES (?, ?, ?, ?)`,
		m.ID, m.ReplyID, m.Text, now.Unix()); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}
	if _, err := s.db.Exec(`
		UPDATE messages SET replyid = ?, text = ? WHERE id = ?`,
		replyID, text, m.ID); err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}

	m.ReplyID = replyID
	m.Text = text
	return m, nil
}

// History returns every recorded pre-edit state of a message, in edit
// order.
func (s *Store) History(messageID int64) ([]Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT replyid, text, tstamp FROM history
		WHERE messageid = ? ORDER BY id`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revs []Revision
	for rows.Next() {
		var r Revision
		var replyID sql.NullInt64
		var ts int64
		if err := rows.Scan(&replyID, &r.Text, &ts); err != nil {
			return nil, err
		}
		if replyID.Valid {
			r.ReplyID = &replyID.Int64
		}
		r.Timestamp = time.Unix(ts, 0)
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

// Message loads a message by id, with its author's username resolved.
func (s *Store) Message(id int64) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messageRow(id)
}

func (s *Store) messageRow(id int64) (*Message, error) {
	m := &Message{}
	var replyID sql.NullInt64
	var ts int64
	err := s.db.QueryRow(`
		SELECT id, roomid, userid, replyid, text, tstamp
		FROM messages WHERE id = ?`, id).
		Scan(&m.ID, &m.RoomID, &m.UserID, &replyID, &m.Text, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if replyID.Valid {
		m.ReplyID = &replyID.Int64
	}
	m.Timestamp = time.Unix(ts, 0)
	m.Username, err = s.username(m.UserID)
	if err != nil {
		return nil, err
	}
	return m, nil
}

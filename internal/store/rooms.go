package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parlor/internal/protocol"
)

type Room struct {
	ID          int64
	Name        string
	Description string
}

// defaultPrivileges is the room-wide (NULL user) policy installed for
// every new room. A zero threshold or period means the action is never
// rate limited.
var defaultPrivileges = []struct {
	privType  protocol.PrivType
	threshold int64
	period    time.Duration
}{
	{protocol.SendMessage, 5, 5 * time.Second},
	{protocol.EditOwn, 5, 5 * time.Second},
	{protocol.EditOthers, 0, 0},
	{protocol.DeleteOwn, 5, 5 * time.Second},
	{protocol.DeleteOthers, 0, 0},
	{protocol.StarOwn, 0, 0},
	{protocol.StarOthers, 5, 5 * time.Second},
	{protocol.PinOwn, 0, 0},
	{protocol.PinOthers, 5, 5 * time.Second},
	{protocol.UpvoteOwn, 0, 0},
	{protocol.UpvoteOthers, 3, 24 * time.Hour},
	{protocol.DownvoteOwn, 0, 0},
	{protocol.DownvoteOthers, 0, 0},
}

// CreateRoom creates a room together with its default privilege set.
func (s *Store) CreateRoom(name, description string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createRoom(name, description)
}

func (s *Store) createRoom(name, description string) (*Room, error) {
	res, err := s.db.Exec(`INSERT INTO rooms (name, description) VALUES (?, ?)`, name, description)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	for _, p := range defaultPrivileges {
		_, err := s.db.Exec(`
			INSERT INTO privileges (roomid, userid, privtype, threshold, period)
			VALUES (?, NULL, ?, ?, ?)`,
			id, int(p.privType), p.threshold, int64(p.period.Seconds()))
		if err != nil {
			return nil, fmt.Errorf("insert default privilege %d: %w", p.privType, err)
		}
	}
	return &Room{ID: id, Name: name, Description: description}, nil
}

// Room loads a room by id.
func (s *Store) Room(id int64) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &Room{}
	err := s.db.QueryRow(`SELECT id, name, description FROM rooms WHERE id = ?`, id).
		Scan(&r.ID, &r.Name, &r.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parlor/internal/protocol"
)

// Privilege is the rate-limit policy for one (room, user, action kind):
// at most Threshold actions per trailing Period. A zero threshold or
// period means the action is always permitted.
type Privilege struct {
	Threshold int64
	Period    time.Duration
}

// Unlimited reports whether this policy never denies.
func (p Privilege) Unlimited() bool {
	return p.Threshold <= 0 || p.Period <= 0
}

// ResolvePrivilege returns the policy applicable to (room, user, kind),
// preferring a user-specific row over the room's NULL-default row.
func (s *Store) ResolvePrivilege(roomID, userID int64, pt protocol.PrivType) (Privilege, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolvePrivilege(roomID, userID, pt)
}

func (s *Store) resolvePrivilege(roomID, userID int64, pt protocol.PrivType) (Privilege, error) {
	var p Privilege
	var periodSec int64
	// "userid IS NULL" sorts user-specific rows first so the override
	// wins when both rows exist.
	err := s.db.QueryRow(`
		SELECT threshold, period FROM privileges
		WHERE roomid = ? AND (userid = ? OR userid IS NULL) AND privtype = ?
		ORDER BY userid IS NULL
		LIMIT 1`, roomID, userID, int(pt)).
		Scan(&p.Threshold, &periodSec)
	if errors.Is(err, sql.ErrNoRows) {
		return Privilege{}, fmt.Errorf("room %d privtype %d: %w", roomID, pt, ErrConfigMissing)
	}
	if err != nil {
		return Privilege{}, err
	}
	p.Period = time.Duration(periodSec) * time.Second
	return p, nil
}

// SetPrivilege installs or replaces a privilege row. A nil userID sets
// the room-wide default.
func (s *Store) SetPrivilege(roomID int64, userID *int64, pt protocol.PrivType, threshold int64, period time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if userID == nil {
		_, err = s.db.Exec(`DELETE FROM privileges WHERE roomid = ? AND userid IS NULL AND privtype = ?`,
			roomID, int(pt))
	} else {
		_, err = s.db.Exec(`DELETE FROM privileges WHERE roomid = ? AND userid = ? AND privtype = ?`,
			roomID, *userID, int(pt))
	}
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO privileges (roomid, userid, privtype, threshold, period)
		VALUES (?, ?, ?, ?, ?)`,
		roomID, userID, int(pt), threshold, int64(period.Seconds()))
	return err
}

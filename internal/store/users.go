package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parlor/internal/auth"
)

type User struct {
	ID        int64
	Username  string
	Theme     string
	CreatedAt time.Time
}

// SystemUserID is the author id reserved for system messages.
const SystemUserID int64 = -1

// RegisterUser creates a user with the given salt and password hash and
// issues an auth token. Returns ErrUsernameTaken if the username is
// already registered; no row or token is created in that case.
func (s *Store) RegisterUser(username string, salt, hash []byte) (*User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM users WHERE username = ?`, username).Scan(&exists)
	if err == nil {
		return nil, "", ErrUsernameTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("check username: %w", err)
	}

	now := s.now()
	res, err := s.db.Exec(
		`INSERT INTO users (username, salt, hash, created_at) VALUES (?, ?, ?, ?)`,
		username, salt, hash, now.Unix())
	if err != nil {
		return nil, "", fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, "", err
	}

	token, err := s.authToken(id)
	if err != nil {
		return nil, "", err
	}
	return &User{ID: id, Username: username, Theme: "dark", CreatedAt: now}, token, nil
}

// Credentials returns the stored salt and hash for a username, for
// password verification by the caller.
func (s *Store) Credentials(username string) (userID int64, salt, hash []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.QueryRow(
		`SELECT id, salt, hash FROM users WHERE username = ?`, username).
		Scan(&userID, &salt, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, nil, ErrNotFound
	}
	return userID, salt, hash, err
}

// Token returns the user's auth token, issuing one the first time and
// reusing it on every later call.
func (s *Store) Token(userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authToken(userID)
}

func (s *Store) authToken(userID int64) (string, error) {
	var token string
	err := s.db.QueryRow(`SELECT token FROM tokens WHERE userid = ?`, userID).Scan(&token)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("load token: %w", err)
	}

	token, err = auth.NewToken()
	if err != nil {
		return "", err
	}
	if _, err := s.db.Exec(`INSERT INTO tokens (userid, token) VALUES (?, ?)`, userID, token); err != nil {
		return "", fmt.Errorf("insert token: %w", err)
	}
	return token, nil
}

// UserByToken resolves a previously issued auth token.
func (s *Store) UserByToken(token string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := &User{}
	var created int64
	err := s.db.QueryRow(`
		SELECT u.id, u.username, u.theme, u.created_at
		FROM users u JOIN tokens t ON t.userid = u.id
		WHERE t.token = ?`, token).
		Scan(&u.ID, &u.Username, &u.Theme, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = time.Unix(created, 0)
	return u, nil
}

// Username resolves a user id to its display name. The system user
// resolves to the empty string.
func (s *Store) Username(userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username(userID)
}

func (s *Store) username(userID int64) (string, error) {
	if userID == SystemUserID {
		return "", nil
	}
	var name string
	err := s.db.QueryRow(`SELECT username FROM users WHERE id = ?`, userID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return name, err
}

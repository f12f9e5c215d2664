package store

import (
	"context"
	"fmt"
	"time"
)

// User is an account that can sign in.
type User struct {
	ID           int64
	Username     string
	Email        string
	Name         string
	PasswordHash string
	IsStaff      bool
	CreatedAt    time.Time
}

// PK returns the primary key.
func (u *User) PK() int64 { return u.ID }

const userColumns = "id, username, email, name, password_hash, is_staff, created_at"

// CreateUser inserts u and sets its ID and CreatedAt.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, email, name, password_hash, is_staff, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.Username, u.Email, u.Name, u.PasswordHash, u.IsStaff, formatTime(u.CreatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %q: %w", u.Username, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("cannot create user %q: %w", u.Username, err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

// UserByID loads a user by primary key.
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

// UserByUsername loads a user by username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user", username)
	}
	return u, nil
}

func scanUser(row scanner) (*User, error) {
	var (
		u       User
		created string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.PasswordHash, &u.IsStaff, &created); err != nil {
		return nil, err
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = t
	return &u, nil
}

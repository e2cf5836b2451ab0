package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Access names who is acting and whose data is touched.
type Access struct {
	Actor   string
	Subject string
}

// Self returns access to user's own data.
func Self(user string) Access {
	return Access{Actor: user, Subject: user}
}

// Impersonate returns access for actor operating on subject's data.
// The store only honours it when actor is a registered administrator.
func Impersonate(actor, subject string) Access {
	return Access{Actor: actor, Subject: subject}
}

// Impersonated reports whether the actor differs from the subject.
func (a Access) Impersonated() bool {
	return a.Actor != a.Subject
}

func (a Access) String() string {
	if a.Impersonated() {
		return fmt.Sprintf("%s as %s", a.Actor, a.Subject)
	}
	return a.Subject
}

// authorize checks that a may proceed.
func (s *Store) authorize(ctx context.Context, a Access) error {
	if a.Actor == "" || a.Subject == "" {
		return fmt.Errorf("%w: actor and subject are required", ErrNotPermitted)
	}
	if !a.Impersonated() {
		return nil
	}
	ok, err := s.IsAdmin(ctx, a.Actor)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s may not impersonate %s", ErrNotPermitted, a.Actor, a.Subject)
	}
	return nil
}

// AddAdmin registers userID as an administrator. Idempotent.
func (s *Store) AddAdmin(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("add admin: empty user id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO administrators (user_id, created_at)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO NOTHING
	`, userID, s.timestamp())
	if err != nil {
		return fmt.Errorf("add admin: %w", err)
	}
	return nil
}

// IsAdmin reports whether userID may impersonate other users.
func (s *Store) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM administrators WHERE user_id = ?`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return true, nil
}

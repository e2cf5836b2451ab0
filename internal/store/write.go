package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/stageledger/internal/ledger"
	"github.com/roach88/stageledger/internal/negotiation"
)

// UpsertLedger stores l for a.Subject, replacing the whole stored ledger.
// Returns written=false when the stored ledger already has the same
// fingerprint. The ledger must pass validation.
//
// Concurrent writers on the same (user, stage) key are last-write-wins.
func (s *Store) UpsertLedger(ctx context.Context, a Access, l ledger.Ledger) (written bool, err error) {
	if err := s.authorize(ctx, a); err != nil {
		return false, fmt.Errorf("upsert ledger: %w", err)
	}
	if err := l.Validate(); err != nil {
		return false, fmt.Errorf("upsert ledger: %w", err)
	}

	fingerprint, err := l.Fingerprint()
	if err != nil {
		return false, fmt.Errorf("upsert ledger: %w", err)
	}
	payload, err := marshalLedger(l)
	if err != nil {
		return false, fmt.Errorf("upsert ledger: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("upsert ledger: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var stored string
	err = tx.QueryRowContext(ctx, `
		SELECT fingerprint FROM ledgers WHERE user_id = ? AND stage = ?
	`, a.Subject, int(l.Stage)).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return false, fmt.Errorf("upsert ledger: select fingerprint: %w", err)
	case stored == fingerprint:
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledgers (user_id, stage, payload, fingerprint, updated_by, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, stage) DO UPDATE SET
			payload = excluded.payload,
			fingerprint = excluded.fingerprint,
			updated_by = excluded.updated_by,
			updated_at = excluded.updated_at
	`, a.Subject, int(l.Stage), payload, fingerprint, a.Actor, s.timestamp())
	if err != nil {
		return false, fmt.Errorf("upsert ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("upsert ledger: commit: %w", err)
	}
	return true, nil
}

// PutNegotiation stores the negotiation note for one debt of a.Subject.
func (s *Store) PutNegotiation(ctx context.Context, a Access, debtID string, e negotiation.Entry) error {
	if err := s.authorize(ctx, a); err != nil {
		return fmt.Errorf("put negotiation: %w", err)
	}
	if err := s.putNegotiation(ctx, s.db, a, debtID, e); err != nil {
		return fmt.Errorf("put negotiation: %w", err)
	}
	return nil
}

// ImportNegotiations stores every entry of table in one transaction.
func (s *Store) ImportNegotiations(ctx context.Context, a Access, table negotiation.Table) error {
	if err := s.authorize(ctx, a); err != nil {
		return fmt.Errorf("import negotiations: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("import negotiations: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for debtID, e := range table {
		if err := s.putNegotiation(ctx, tx, a, debtID, e); err != nil {
			return fmt.Errorf("import negotiations: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import negotiations: commit: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) putNegotiation(ctx context.Context, db execer, a Access, debtID string, e negotiation.Entry) error {
	if debtID == "" {
		return fmt.Errorf("empty debt id")
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO negotiation_notes (user_id, debt_id, installment, term, rate, comment, updated_by, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, debt_id) DO UPDATE SET
			installment = excluded.installment,
			term = excluded.term,
			rate = excluded.rate,
			comment = excluded.comment,
			updated_by = excluded.updated_by,
			updated_at = excluded.updated_at
	`, a.Subject, debtID, e.Installment, e.Term, e.Rate, e.Comment, a.Actor, s.timestamp())
	return err
}

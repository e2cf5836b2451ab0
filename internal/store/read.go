package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/stageledger/internal/ledger"
	"github.com/roach88/stageledger/internal/negotiation"
)

// LedgerInfo describes a stored ledger without its records.
type LedgerInfo struct {
	Stage       ledger.Stage
	Fingerprint string
	UpdatedBy   string
	UpdatedAt   string
}

// GetLedger returns the ledger stored for a.Subject at stage.
// Returns ErrNotFound if the stage has never been saved.
func (s *Store) GetLedger(ctx context.Context, a Access, stage ledger.Stage) (ledger.Ledger, error) {
	if err := s.authorize(ctx, a); err != nil {
		return ledger.Ledger{}, fmt.Errorf("get ledger: %w", err)
	}

	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM ledgers WHERE user_id = ? AND stage = ?
	`, a.Subject, int(stage)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Ledger{}, fmt.Errorf("get ledger %s/%s: %w", a.Subject, stage, ErrNotFound)
	}
	if err != nil {
		return ledger.Ledger{}, fmt.Errorf("get ledger: %w", err)
	}

	l, err := unmarshalLedger(payload)
	if err != nil {
		return ledger.Ledger{}, fmt.Errorf("get ledger %s/%s: %w", a.Subject, stage, err)
	}
	return l, nil
}

// LoadLedger is GetLedger with a never-saved stage read as an empty ledger.
func (s *Store) LoadLedger(ctx context.Context, a Access, stage ledger.Stage) (ledger.Ledger, error) {
	l, err := s.GetLedger(ctx, a, stage)
	if errors.Is(err, ErrNotFound) {
		return ledger.New(stage), nil
	}
	return l, err
}

// ListLedgers returns the saved stages of a.Subject in stage order.
// Returns an empty slice (not nil) if nothing has been saved.
func (s *Store) ListLedgers(ctx context.Context, a Access) ([]LedgerInfo, error) {
	if err := s.authorize(ctx, a); err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT stage, fingerprint, updated_by, updated_at
		FROM ledgers
		WHERE user_id = ?
		ORDER BY stage ASC
	`, a.Subject)
	if err != nil {
		return nil, fmt.Errorf("query ledgers: %w", err)
	}
	defer rows.Close()

	infos := []LedgerInfo{}
	for rows.Next() {
		var info LedgerInfo
		var stage int
		if err := rows.Scan(&stage, &info.Fingerprint, &info.UpdatedBy, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		info.Stage = ledger.Stage(stage)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledgers: %w", err)
	}
	return infos, nil
}

// GetNegotiations returns every negotiation note of a.Subject.
// Returns an empty table (not nil) if there are none.
func (s *Store) GetNegotiations(ctx context.Context, a Access) (negotiation.Table, error) {
	if err := s.authorize(ctx, a); err != nil {
		return nil, fmt.Errorf("get negotiations: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT debt_id, installment, term, rate, comment
		FROM negotiation_notes
		WHERE user_id = ?
		ORDER BY debt_id COLLATE BINARY ASC
	`, a.Subject)
	if err != nil {
		return nil, fmt.Errorf("query negotiations: %w", err)
	}
	defer rows.Close()

	table := negotiation.Table{}
	for rows.Next() {
		var id string
		var e negotiation.Entry
		if err := rows.Scan(&id, &e.Installment, &e.Term, &e.Rate, &e.Comment); err != nil {
			return nil, fmt.Errorf("scan negotiation: %w", err)
		}
		table[id] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate negotiations: %w", err)
	}
	return table, nil
}

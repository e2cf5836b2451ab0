package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/stageledger/internal/ledger"
)

// marshalLedger serializes l for the payload column.
func marshalLedger(l ledger.Ledger) (string, error) {
	if l.Records == nil {
		l.Records = []ledger.DebtRecord{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("marshal ledger: %w", err)
	}
	return string(data), nil
}

// unmarshalLedger parses a payload column. Unknown provenance tags fail.
func unmarshalLedger(data string) (ledger.Ledger, error) {
	var l ledger.Ledger
	if err := json.Unmarshal([]byte(data), &l); err != nil {
		return ledger.Ledger{}, fmt.Errorf("unmarshal ledger: %w", err)
	}
	if l.Records == nil {
		l.Records = []ledger.DebtRecord{}
	}
	return l, nil
}

package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/stageledger/internal/ledger"
)

// IDGenerator produces the unique part of a new record ID.
// Implemented by UUIDv7Generator (production) and
// testutil.SequenceGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 strings.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Record ID namespaces. Manual IDs embed the stage that minted them, and
// inherited records keep their ID forever, so a manual ID can never collide
// with an inherited one.
const (
	mappingPrefix = "map-"
	manualPrefix  = "manual-s"
)

func recordID(stage ledger.Stage, unique string) string {
	if stage == ledger.StageMapping {
		return mappingPrefix + unique
	}
	return fmt.Sprintf("%s%d-%s", manualPrefix, int(stage), unique)
}

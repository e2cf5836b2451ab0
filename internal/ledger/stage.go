package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Stage is one sequential advisory session. Stages are visited in order;
// each one inherits its working ledger from the one before it.
type Stage int

const (
	StageMapping Stage = iota + 1
	Stage2
	Stage3
	Stage4
	Stage5
)

// FirstStage and LastStage bound the advisory workflow.
const (
	FirstStage = StageMapping
	LastStage  = Stage5
)

// ErrUnknownStage is returned for stage numbers outside the workflow.
var ErrUnknownStage = errors.New("unknown stage")

// Valid reports whether s is part of the workflow.
func (s Stage) Valid() bool {
	return s >= FirstStage && s <= LastStage
}

// Prev returns the stage whose ledger s inherits from.
// The mapping stage has no predecessor.
func (s Stage) Prev() (Stage, bool) {
	if !s.Valid() || s == StageMapping {
		return 0, false
	}
	return s - 1, true
}

// NegotiationStage reports whether s is the first stage with ledger history
// behind it, the only stage whose derivation applies negotiation overrides.
func (s Stage) NegotiationStage() bool {
	return s == StageMapping+1
}

// Tag returns the provenance tag stamped on records derived in s.
func (s Stage) Tag() Provenance {
	switch s {
	case StageMapping:
		return OriginMapping
	case Stage2:
		return OriginStage2
	case Stage3:
		return OriginStage3
	case Stage4:
		return OriginStage4
	case Stage5:
		return OriginStage5
	}
	return ""
}

// ManualTag returns the tag for records added by hand in s.
// Records entered during mapping are the baseline itself and carry OriginMapping.
func (s Stage) ManualTag() Provenance {
	switch s {
	case StageMapping:
		return OriginMapping
	case Stage2:
		return OriginManualStage2
	case Stage3:
		return OriginManualStage3
	case Stage4:
		return OriginManualStage4
	case Stage5:
		return OriginManualStage5
	}
	return ""
}

func (s Stage) String() string {
	if s == StageMapping {
		return "mapping"
	}
	return "stage" + strconv.Itoa(int(s))
}

// ParseStage accepts "mapping", "stageN" or a bare stage number.
func ParseStage(v string) (Stage, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "mapping" {
		return StageMapping, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(v, "stage"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStage, v)
	}
	s := Stage(n)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStage, v)
	}
	return s, nil
}

package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Provenance identifies which stage created or most recently re-derived a record.
type Provenance string

const (
	OriginMapping Provenance = "mapping"
	OriginStage2  Provenance = "stage2"
	OriginStage3  Provenance = "stage3"
	OriginStage4  Provenance = "stage4"
	OriginStage5  Provenance = "stage5"

	OriginManualStage2 Provenance = "manual_stage2"
	OriginManualStage3 Provenance = "manual_stage3"
	OriginManualStage4 Provenance = "manual_stage4"
	OriginManualStage5 Provenance = "manual_stage5"
)

var provenanceTags = map[Provenance]bool{
	OriginMapping:      true,
	OriginStage2:       true,
	OriginStage3:       true,
	OriginStage4:       true,
	OriginStage5:       true,
	OriginManualStage2: true,
	OriginManualStage3: true,
	OriginManualStage4: true,
	OriginManualStage5: true,
}

// ErrUnknownProvenance is returned when decoding a tag outside the enumeration.
var ErrUnknownProvenance = errors.New("unknown provenance tag")

// Valid reports whether p is one of the known tags.
func (p Provenance) Valid() bool {
	return provenanceTags[p]
}

// Stamped reports whether p records a stage later than the mapping baseline.
// Records still tagged with the mapping origin get re-stamped with the
// deriving stage's tag the first time they are inherited.
func (p Provenance) Stamped() bool {
	return p.Valid() && p != OriginMapping
}

// Manual reports whether p is one of the manual-add tags.
func (p Provenance) Manual() bool {
	switch p {
	case OriginManualStage2, OriginManualStage3, OriginManualStage4, OriginManualStage5:
		return true
	}
	return false
}

func (p Provenance) String() string {
	return string(p)
}

// ParseProvenance converts s to a Provenance, rejecting unknown tags.
func ParseProvenance(s string) (Provenance, error) {
	p := Provenance(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvenance, s)
	}
	return p, nil
}

// MarshalJSON implements json.Marshaler.
func (p Provenance) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvenance, string(p))
	}
	return json.Marshal(string(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Provenance) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseProvenance(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvenance_Stamped(t *testing.T) {
	assert.False(t, OriginMapping.Stamped())
	assert.False(t, Provenance("").Stamped())
	assert.False(t, Provenance("stage9").Stamped())

	for _, p := range []Provenance{OriginStage2, OriginStage5, OriginManualStage3} {
		assert.True(t, p.Stamped(), p)
	}
}

func TestProvenance_Manual(t *testing.T) {
	assert.True(t, OriginManualStage2.Manual())
	assert.True(t, OriginManualStage5.Manual())
	assert.False(t, OriginStage2.Manual())
	assert.False(t, OriginMapping.Manual())
}

func TestProvenance_JSONRejectsUnknownTag(t *testing.T) {
	var p Provenance
	err := json.Unmarshal([]byte(`"stage7"`), &p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProvenance)

	require.NoError(t, json.Unmarshal([]byte(`"manual_stage4"`), &p))
	assert.Equal(t, OriginManualStage4, p)
}

func TestStage_Prev(t *testing.T) {
	_, ok := StageMapping.Prev()
	assert.False(t, ok)

	prev, ok := Stage3.Prev()
	require.True(t, ok)
	assert.Equal(t, Stage2, prev)

	_, ok = Stage(9).Prev()
	assert.False(t, ok)
}

func TestStage_Tags(t *testing.T) {
	assert.Equal(t, OriginMapping, StageMapping.Tag())
	assert.Equal(t, OriginMapping, StageMapping.ManualTag())
	assert.Equal(t, OriginStage4, Stage4.Tag())
	assert.Equal(t, OriginManualStage4, Stage4.ManualTag())
}

func TestStage_NegotiationStage(t *testing.T) {
	assert.True(t, Stage2.NegotiationStage())
	assert.False(t, StageMapping.NegotiationStage())
	assert.False(t, Stage3.NegotiationStage())
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		in   string
		want Stage
	}{
		{"mapping", StageMapping},
		{"Mapping", StageMapping},
		{"stage2", Stage2},
		{"3", Stage3},
		{" stage5 ", Stage5},
		{"1", StageMapping},
	}
	for _, tt := range tests {
		got, err := ParseStage(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "stage6", "0", "foo"} {
		_, err := ParseStage(bad)
		assert.ErrorIs(t, err, ErrUnknownStage, bad)
	}
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "mapping", StageMapping.String())
	assert.Equal(t, "stage3", Stage3.String())
}

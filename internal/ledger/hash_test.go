package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_IgnoresOrderAndTimestamps(t *testing.T) {
	a := New(Stage2)
	a.Put(record("x", OriginStage2))
	a.Put(record("y", OriginStage2))

	b := New(Stage2)
	ry := record("y", OriginStage2)
	ry.UpdatedAt = testNow.AddDate(0, 1, 0)
	b.Put(ry)
	b.Put(record("x", OriginStage2))

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
	assert.Len(t, fa, 64)
}

func TestFingerprint_ChangesWithValues(t *testing.T) {
	a := New(Stage2)
	a.Put(record("x", OriginStage2))
	fa, err := a.Fingerprint()
	require.NoError(t, err)

	require.NoError(t, a.EditCurrent("x", decimal.NewFromInt(99), decimal.Zero, testNow))
	fb, err := a.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fa, fb)
}

func TestFingerprint_NormalizesUnicode(t *testing.T) {
	composed := New(Stage2)
	r := record("x", OriginStage2)
	r.Creditor = "Caf\u00e9"
	composed.Put(r)

	decomposed := New(Stage2)
	r2 := record("x", OriginStage2)
	r2.Creditor = "Cafe\u0301"
	decomposed.Put(r2)

	fa, err := composed.Fingerprint()
	require.NoError(t, err)
	fb, err := decomposed.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
}

func TestMarshalCanonical_SortedKeysNoHTMLEscape(t *testing.T) {
	out, err := marshalCanonical(map[string]any{"b": "<x>", "a": 1, "c": true})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":"<x>","c":true}`, string(out))

	_, err = marshalCanonical(map[string]any{"f": 1.5})
	assert.Error(t, err)
	_, err = marshalCanonical(nil)
	assert.Error(t, err)
}

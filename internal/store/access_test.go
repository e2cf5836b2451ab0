package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stageledger/internal/ledger"
)

func TestAccess_Modes(t *testing.T) {
	assert.False(t, Self("u1").Impersonated())
	assert.True(t, Impersonate("admin", "u1").Impersonated())
	assert.Equal(t, "u1", Self("u1").String())
	assert.Equal(t, "admin as u1", Impersonate("admin", "u1").String())
}

func TestImpersonation_RequiresAdmin(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.UpsertLedger(ctx, Self("u1"), createTestLedger(ledger.Stage2, "a"))
	require.NoError(t, err)

	_, err = s.GetLedger(ctx, Impersonate("mallory", "u1"), ledger.Stage2)
	assert.ErrorIs(t, err, ErrNotPermitted)

	require.NoError(t, s.AddAdmin(ctx, "advisor"))
	require.NoError(t, s.AddAdmin(ctx, "advisor"))

	got, err := s.GetLedger(ctx, Impersonate("advisor", "u1"), ledger.Stage2)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestImpersonation_RecordsActor(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddAdmin(ctx, "advisor"))

	_, err := s.UpsertLedger(ctx, Impersonate("advisor", "u1"), createTestLedger(ledger.Stage2, "a"))
	require.NoError(t, err)

	infos, err := s.ListLedgers(ctx, Self("u1"))
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "advisor", infos[0].UpdatedBy)
}

func TestAccess_RequiresNames(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LoadLedger(context.Background(), Access{}, ledger.Stage2)
	assert.ErrorIs(t, err, ErrNotPermitted)
	assert.Error(t, s.AddAdmin(context.Background(), ""))
}

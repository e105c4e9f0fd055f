package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/escrow-swap-ledger/internal/ledger"
)

func TestGuard(t *testing.T) {
	var g ledger.Guard
	require.False(t, g.Busy())

	release, err := g.Enter()
	require.NoError(t, err)
	require.True(t, g.Busy())

	_, err = g.Enter()
	require.ErrorIs(t, err, ledger.ErrReentrantCall)

	release()
	require.False(t, g.Busy())

	again, err := g.Enter()
	require.NoError(t, err)

	// A stale release must not clear a guard taken by someone else.
	release()
	require.True(t, g.Busy())

	again()
	require.False(t, g.Busy())
}

package txm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/venga-labs/evm-txm/txm"
)

func TestTxStore(t *testing.T) {
	t.Parallel()

	t.Run("lifecycle", func(t *testing.T) {
		store := txm.NewTxStore()

		require.NoError(t, store.Add("tx-1", newRequest()))
		require.Equal(t, 1, store.InflightCount())

		require.NoError(t, store.MarkInFlight("tx-1"))
		require.NoError(t, store.Complete("tx-1", txm.Confirmed))
		require.Equal(t, 0, store.InflightCount())
	})

	t.Run("duplicate id", func(t *testing.T) {
		store := txm.NewTxStore()

		require.NoError(t, store.Add("tx-1", newRequest()))
		err := store.Add("tx-1", newRequest())
		require.Error(t, err)
		require.ErrorContains(t, err, "already exists")
	})

	t.Run("invalid transitions", func(t *testing.T) {
		store := txm.NewTxStore()

		require.NoError(t, store.Add("tx-1", newRequest()))
		require.NoError(t, store.MarkInFlight("tx-1"))

		// InFlight -> InFlight is not allowed
		err := store.MarkInFlight("tx-1")
		require.Error(t, err)
		require.ErrorContains(t, err, "invalid state transition")

		// Queued is not terminal
		err = store.Complete("tx-1", txm.Queued)
		require.Error(t, err)
		require.ErrorContains(t, err, "not a terminal state")
	})

	t.Run("errored from queued", func(t *testing.T) {
		store := txm.NewTxStore()

		require.NoError(t, store.Add("tx-1", newRequest()))
		require.NoError(t, store.Complete("tx-1", txm.Errored))
		require.Equal(t, 0, store.InflightCount())
	})

	t.Run("unknown id", func(t *testing.T) {
		store := txm.NewTxStore()

		require.Error(t, store.MarkInFlight("missing"))
		require.Error(t, store.Complete("missing", txm.Confirmed))
	})
}

func TestAccountStore(t *testing.T) {
	t.Parallel()

	accountStore := txm.NewAccountStore()

	store := accountStore.GetTxStore("0xabc")
	require.Same(t, store, accountStore.GetTxStore("0xabc"))

	require.NoError(t, store.Add("tx-1", newRequest()))
	require.NoError(t, accountStore.GetTxStore("0xdef").Add("tx-2", newRequest()))

	require.Equal(t, 2, accountStore.GetTotalInflightCount())

	allPending := accountStore.GetAllPending()
	require.Len(t, allPending["0xabc"], 1)
	require.Len(t, allPending["0xdef"], 1)
	require.Equal(t, txm.Queued, allPending["0xabc"][0].State)
}

func TestTxStateString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Queued", txm.Queued.String())
	require.Equal(t, "InFlight", txm.InFlight.String())
	require.Equal(t, "Confirmed", txm.Confirmed.String())
	require.Equal(t, "Errored", txm.Errored.String())
	require.Equal(t, "NotFound", txm.NotFound.String())
	require.Equal(t, "TxState(99)", txm.TxState(99).String())
}

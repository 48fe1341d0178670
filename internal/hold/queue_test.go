package hold_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/hold"
	"github.com/congo-pay/omnibus/internal/store"
	"github.com/congo-pay/omnibus/internal/store/memory"
)

var (
	silvan = address.MustParse("0x0000000000000000000000000000000000000051")
	alice  = address.MustParse("0x00000000000000000000000000000000000000a1")
	btc    = address.MustParse("0x00000000000000000000000000000000000000b7")
	eth    = address.MustParse("0x00000000000000000000000000000000000000e7")
)

func TestEnqueueAssignsSequentialIndexesPerAsset(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	var btcIdx, ethIdx []uint64
	for i := 0; i < 4; i++ {
		require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
			idx, err := hold.Enqueue(ctx, tx, btc, hold.Entry{Kind: hold.Transfer, Amount: 10, Initiator: silvan, Counterparty: alice})
			btcIdx = append(btcIdx, idx)
			return err
		}))
		if i%2 == 0 {
			require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
				idx, err := hold.Enqueue(ctx, tx, eth, hold.Entry{Kind: hold.Buy, Amount: 1, Initiator: alice})
				ethIdx = append(ethIdx, idx)
				return err
			}))
		}
	}
	require.Equal(t, []uint64{0, 1, 2, 3}, btcIdx)
	require.Equal(t, []uint64{0, 1}, ethIdx)
}

func TestEnqueueRejectsInvalidEntries(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	err := s.Update(ctx, func(tx store.Tx) error {
		_, err := hold.Enqueue(ctx, tx, btc, hold.Entry{Kind: hold.Transfer, Amount: 0})
		return err
	})
	require.ErrorIs(t, err, hold.ErrInvalidEntry)

	err = s.Update(ctx, func(tx store.Tx) error {
		_, err := hold.Enqueue(ctx, tx, btc, hold.Entry{Amount: 3})
		return err
	})
	require.ErrorIs(t, err, hold.ErrInvalidEntry)
}

func TestCloseTransitionsOnce(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		_, err := hold.Enqueue(ctx, tx, btc, hold.Entry{Kind: hold.Sell, Amount: 20, Initiator: silvan})
		return err
	}))

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		closed, err := hold.Close(ctx, tx, btc, 0, at)
		require.NoError(t, err)
		require.Equal(t, hold.Closed, closed.Status)
		require.Equal(t, at, closed.ClosedAt)
		return nil
	}))

	err := s.Update(ctx, func(tx store.Tx) error {
		_, err := hold.Close(ctx, tx, btc, 0, at)
		return err
	})
	require.ErrorIs(t, err, hold.ErrAlreadyClosed)

	err = s.View(ctx, func(tx store.Tx) error {
		_, err := hold.EntryAt(ctx, tx, btc, 1)
		return err
	})
	require.ErrorIs(t, err, hold.ErrIndexOutOfRange)
}

package allowlist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/hold"
	"github.com/congo-pay/omnibus/internal/record"
	"github.com/congo-pay/omnibus/internal/store/memory"
)

var (
	owner  = address.MustParse("0x00000000000000000000000000000000000000f0")
	silvan = address.MustParse("0x0000000000000000000000000000000000000051")
	alice  = address.MustParse("0x00000000000000000000000000000000000000a1")
	leon   = address.MustParse("0x00000000000000000000000000000000000000e0")
	assetX = address.MustParse("0x00000000000000000000000000000000000000e7")
)

func newEngine(t *testing.T) (*Engine, *record.Recorder) {
	t.Helper()
	rec := record.NewRecorder()
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	eng := New(owner, memory.New(), WithEmitter(rec), WithClock(func() time.Time { return now }))

	ctx := context.Background()
	require.NoError(t, eng.SetApprovedSender(ctx, owner, silvan, true))
	require.NoError(t, eng.SetApprovedReceiver(ctx, owner, alice, true))
	require.NoError(t, eng.SetApprovedReceiver(ctx, owner, leon, true))
	return eng, rec
}

func TestQueueAndConfirmOutOfOrder(t *testing.T) {
	eng, rec := newEngine(t)
	ctx := context.Background()

	idx, err := eng.TransferFrom(ctx, silvan, alice, assetX, 30)
	require.NoError(t, err)
	require.Zero(t, idx)

	p, err := eng.PendingTransaction(ctx, assetX, 0)
	require.NoError(t, err)
	require.Equal(t, Pending{Status: hold.Open, Amount: 30, Receiver: alice}, p)

	idx, err = eng.TransferFrom(ctx, silvan, leon, assetX, 40)
	require.NoError(t, err)
	require.Equal(t, uint64(1), idx)

	settled, err := eng.ConfirmTransfer(ctx, owner, silvan, assetX, 1)
	require.NoError(t, err)
	require.Equal(t, record.NameTransfer, settled.Name)
	require.Equal(t, silvan, settled.From)
	require.Equal(t, leon, settled.To)
	require.Equal(t, int64(40), settled.Amount)

	last, ok := rec.Last()
	require.True(t, ok)
	require.Equal(t, settled, last)

	p, err = eng.PendingTransaction(ctx, assetX, 1)
	require.NoError(t, err)
	require.Equal(t, hold.Closed, p.Status)

	p, err = eng.PendingTransaction(ctx, assetX, 0)
	require.NoError(t, err)
	require.Equal(t, Pending{Status: hold.Open, Amount: 30, Receiver: alice}, p)

	n, err := eng.QueueLen(ctx, assetX)
	require.NoError(t, err)
	require.Equal(t, uint64(2), n)
}

func TestApprovalGates(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	_, err := eng.TransferFrom(ctx, alice, silvan, assetX, 10)
	require.ErrorIs(t, err, ErrNotApproved)
	_, err = eng.TransferFrom(ctx, silvan, silvan, assetX, 10)
	require.ErrorIs(t, err, ErrNotApproved)
	_, err = eng.TransferFrom(ctx, silvan, alice, assetX, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)

	require.NoError(t, eng.SetApprovedReceiver(ctx, owner, alice, false))
	ok, err := eng.ApprovedReceiver(ctx, alice)
	require.NoError(t, err)
	require.False(t, ok)
	_, err = eng.TransferFrom(ctx, silvan, alice, assetX, 10)
	require.ErrorIs(t, err, ErrNotApproved)

	ok, err = eng.ApprovedSender(ctx, silvan)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := eng.QueueLen(ctx, assetX)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestOnlyAdminManagesListsAndConfirms(t *testing.T) {
	eng, rec := newEngine(t)
	ctx := context.Background()

	require.ErrorIs(t, eng.SetApprovedSender(ctx, silvan, alice, true), ErrUnauthorized)
	require.ErrorIs(t, eng.SetApprovedReceiver(ctx, alice, alice, true), ErrUnauthorized)

	idx, err := eng.TransferFrom(ctx, silvan, alice, assetX, 30)
	require.NoError(t, err)
	before := len(rec.Records())

	_, err = eng.ConfirmTransfer(ctx, silvan, silvan, assetX, idx)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Len(t, rec.Records(), before)

	entry, err := eng.EntryAt(ctx, assetX, idx)
	require.NoError(t, err)
	require.True(t, entry.IsOpen())
}

func TestConfirmChecks(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	_, err := eng.ConfirmTransfer(ctx, owner, silvan, assetX, 0)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	idx, err := eng.TransferFrom(ctx, silvan, alice, assetX, 30)
	require.NoError(t, err)

	_, err = eng.ConfirmTransfer(ctx, owner, alice, assetX, idx)
	require.ErrorIs(t, err, ErrInitiatorMismatch)

	_, err = eng.ConfirmTransfer(ctx, owner, silvan, assetX, idx)
	require.NoError(t, err)
	_, err = eng.ConfirmTransfer(ctx, owner, silvan, assetX, idx)
	require.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestRecordsCarryApprovalFlag(t *testing.T) {
	eng, rec := newEngine(t)
	require.NoError(t, eng.SetApprovedSender(context.Background(), owner, leon, false))

	last, ok := rec.Last()
	require.True(t, ok)
	require.Equal(t, record.NameSetApprovedSender, last.Name)
	require.Equal(t, leon, last.Account)
	require.NotNil(t, last.Approved)
	require.False(t, *last.Approved)
}

// Package memory provides a concurrency-safe in-memory store. Each Update
// stages its writes in an overlay that is applied only when the callback
// succeeds, so a failed operation leaves no trace.
package memory

import (
	"context"
	"sync"

	"github.com/congo-pay/omnibus/internal/account"
	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/hold"
	"github.com/congo-pay/omnibus/internal/store"
)

type balanceKey struct {
	account address.Address
	asset   address.Address
}

type approvalKey struct {
	list store.ApprovalList
	addr address.Address
}

type entryKey struct {
	asset address.Address
	index uint64
}

type state struct {
	statuses  map[address.Address]account.Status
	balances  map[balanceKey]int64
	queues    map[address.Address][]hold.Entry
	approvals map[approvalKey]bool
}

// Store is the in-memory store.Store implementation.
type Store struct {
	mu sync.RWMutex
	st state
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{st: state{
		statuses:  make(map[address.Address]account.Status),
		balances:  make(map[balanceKey]int64),
		queues:    make(map[address.Address][]hold.Entry),
		approvals: make(map[approvalKey]bool),
	}}
}

var _ store.Store = (*Store)(nil)

// Update runs fn under the write lock and applies its writes if fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := newTx(&s.st, false)
	if err := fn(t); err != nil {
		return err
	}
	t.commit()
	return nil
}

// View runs fn under the read lock. Writes are rejected with store.ErrReadOnly.
func (s *Store) View(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(newTx(&s.st, true))
}

type tx struct {
	base     *state
	readOnly bool

	statuses  map[address.Address]account.Status
	balances  map[balanceKey]int64
	approvals map[approvalKey]bool
	appended  map[address.Address][]hold.Entry
	replaced  map[entryKey]hold.Entry
}

func newTx(base *state, readOnly bool) *tx {
	return &tx{
		base:      base,
		readOnly:  readOnly,
		statuses:  make(map[address.Address]account.Status),
		balances:  make(map[balanceKey]int64),
		approvals: make(map[approvalKey]bool),
		appended:  make(map[address.Address][]hold.Entry),
		replaced:  make(map[entryKey]hold.Entry),
	}
}

func (t *tx) commit() {
	for addr, status := range t.statuses {
		t.base.statuses[addr] = status
	}
	for key, amount := range t.balances {
		t.base.balances[key] = amount
	}
	for key, approved := range t.approvals {
		t.base.approvals[key] = approved
	}
	for asset, entries := range t.appended {
		t.base.queues[asset] = append(t.base.queues[asset], entries...)
	}
	for key, entry := range t.replaced {
		t.base.queues[key.asset][key.index] = entry
	}
}

func (t *tx) AccountStatus(_ context.Context, addr address.Address) (account.Status, error) {
	if status, ok := t.statuses[addr]; ok {
		return status, nil
	}
	return t.base.statuses[addr], nil
}

func (t *tx) PutAccountStatus(_ context.Context, addr address.Address, status account.Status) error {
	if t.readOnly {
		return store.ErrReadOnly
	}
	t.statuses[addr] = status
	return nil
}

func (t *tx) Balance(_ context.Context, addr, asset address.Address) (int64, bool, error) {
	key := balanceKey{account: addr, asset: asset}
	if amount, ok := t.balances[key]; ok {
		return amount, true, nil
	}
	amount, ok := t.base.balances[key]
	return amount, ok, nil
}

func (t *tx) PutBalance(_ context.Context, addr, asset address.Address, amount int64) error {
	if t.readOnly {
		return store.ErrReadOnly
	}
	t.balances[balanceKey{account: addr, asset: asset}] = amount
	return nil
}

func (t *tx) Approved(_ context.Context, list store.ApprovalList, addr address.Address) (bool, error) {
	key := approvalKey{list: list, addr: addr}
	if approved, ok := t.approvals[key]; ok {
		return approved, nil
	}
	return t.base.approvals[key], nil
}

func (t *tx) PutApproved(_ context.Context, list store.ApprovalList, addr address.Address, approved bool) error {
	if t.readOnly {
		return store.ErrReadOnly
	}
	t.approvals[approvalKey{list: list, addr: addr}] = approved
	return nil
}

func (t *tx) QueueLen(_ context.Context, asset address.Address) (uint64, error) {
	return t.queueLen(asset), nil
}

func (t *tx) queueLen(asset address.Address) uint64 {
	return uint64(len(t.base.queues[asset]) + len(t.appended[asset]))
}

func (t *tx) entry(asset address.Address, index uint64) (hold.Entry, bool) {
	if index >= t.queueLen(asset) {
		return hold.Entry{}, false
	}
	if e, ok := t.replaced[entryKey{asset: asset, index: index}]; ok {
		return e, true
	}
	base := t.base.queues[asset]
	if index < uint64(len(base)) {
		return base[index], true
	}
	return t.appended[asset][index-uint64(len(base))], true
}

func (t *tx) Entry(_ context.Context, asset address.Address, index uint64) (hold.Entry, bool, error) {
	e, ok := t.entry(asset, index)
	return e, ok, nil
}

func (t *tx) AppendEntry(_ context.Context, asset address.Address, entry hold.Entry) (uint64, error) {
	if t.readOnly {
		return 0, store.ErrReadOnly
	}
	idx := t.queueLen(asset)
	entry.Index = idx
	t.appended[asset] = append(t.appended[asset], entry)
	return idx, nil
}

func (t *tx) PutEntry(_ context.Context, asset address.Address, entry hold.Entry) error {
	if t.readOnly {
		return store.ErrReadOnly
	}
	if entry.Index >= t.queueLen(asset) {
		return hold.ErrIndexOutOfRange
	}
	t.replaced[entryKey{asset: asset, index: entry.Index}] = entry
	return nil
}

func (t *tx) ListEntries(_ context.Context, asset address.Address, offset, limit uint64) ([]hold.Entry, error) {
	n := t.queueLen(asset)
	if offset >= n {
		return nil, nil
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	out := make([]hold.Entry, 0, end-offset)
	for i := offset; i < end; i++ {
		e, _ := t.entry(asset, i)
		out = append(out, e)
	}
	return out, nil
}

func (t *tx) OpenAmount(_ context.Context, asset, initiator address.Address, kind hold.Kind) (int64, error) {
	var sum int64
	for i := uint64(0); i < t.queueLen(asset); i++ {
		e, _ := t.entry(asset, i)
		if e.Status == hold.Open && e.Kind == kind && e.Initiator == initiator {
			sum += e.Amount
		}
	}
	return sum, nil
}

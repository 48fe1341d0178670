// Package record defines the externally observable, append-only records a
// ledger emits after each committed operation, and the emitters that ship
// them.
package record

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/congo-pay/omnibus/internal/account"
	"github.com/congo-pay/omnibus/internal/address"
)

// Name identifies a record type.
type Name string

const (
	NameRegisterAccount     Name = "RegisterAccount"
	NameSetStatus           Name = "SetStatus"
	NameRegisterToken       Name = "RegisterToken"
	NameSetApprovedSender   Name = "SetApprovedSender"
	NameSetApprovedReceiver Name = "SetApprovedReceiver"
	NameTransferRequest     Name = "TransferRequest"
	NameSell                Name = "Sell"
	NameBuy                 Name = "Buy"
	NameBurnToken           Name = "BurnToken"
	// NameTransfer is the settlement record for both immediate and
	// confirmed movements.
	NameTransfer Name = "Transfer"
)

// Record is one emitted log entry. Only the fields relevant to Name are set.
type Record struct {
	ID       uuid.UUID       `json:"id"`
	Name     Name            `json:"name"`
	Account  address.Address `json:"account"`
	From     address.Address `json:"from"`
	To       address.Address `json:"to"`
	Asset    address.Address `json:"asset"`
	Amount   int64           `json:"amount"`
	Index    *uint64         `json:"index,omitempty"`
	Status   *account.Status `json:"status,omitempty"`
	Approved *bool           `json:"approved,omitempty"`
	At       time.Time       `json:"at"`
}

func newRecord(name Name, at time.Time) Record {
	return Record{ID: uuid.New(), Name: name, At: at.UTC()}
}

// RegisterAccount records a self-service registration.
func RegisterAccount(acct address.Address, at time.Time) Record {
	r := newRecord(NameRegisterAccount, at)
	r.Account = acct
	return r
}

// SetStatus records an administrator status change.
func SetStatus(acct address.Address, status account.Status, at time.Time) Record {
	r := newRecord(NameSetStatus, at)
	r.Account = acct
	r.Status = &status
	return r
}

// RegisterToken records the initialization of a balance row.
func RegisterToken(acct, asset address.Address, amount int64, at time.Time) Record {
	r := newRecord(NameRegisterToken, at)
	r.Account, r.Asset, r.Amount = acct, asset, amount
	return r
}

// SetApprovedSender records a sender allow-list change.
func SetApprovedSender(acct address.Address, approved bool, at time.Time) Record {
	r := newRecord(NameSetApprovedSender, at)
	r.Account = acct
	r.Approved = &approved
	return r
}

// SetApprovedReceiver records a recipient allow-list change.
func SetApprovedReceiver(acct address.Address, approved bool, at time.Time) Record {
	r := newRecord(NameSetApprovedReceiver, at)
	r.Account = acct
	r.Approved = &approved
	return r
}

// TransferRequest records a queued transfer and its assigned index.
func TransferRequest(from, to, asset address.Address, amount int64, index uint64, at time.Time) Record {
	r := newRecord(NameTransferRequest, at)
	r.From, r.To, r.Asset, r.Amount, r.Index = from, to, asset, amount, &index
	return r
}

// Sell records a queued sale.
func Sell(acct, asset address.Address, amount int64, index uint64, at time.Time) Record {
	return request(NameSell, acct, asset, amount, index, at)
}

// Buy records a queued purchase.
func Buy(acct, asset address.Address, amount int64, index uint64, at time.Time) Record {
	return request(NameBuy, acct, asset, amount, index, at)
}

// BurnToken records a queued burn.
func BurnToken(acct, asset address.Address, amount int64, index uint64, at time.Time) Record {
	return request(NameBurnToken, acct, asset, amount, index, at)
}

func request(name Name, acct, asset address.Address, amount int64, index uint64, at time.Time) Record {
	r := newRecord(name, at)
	r.Account, r.Asset, r.Amount, r.Index = acct, asset, amount, &index
	return r
}

// Transfer records an executed balance movement. The sink address stands in
// for the minting source or the burn destination.
func Transfer(from, to, asset address.Address, amount int64, at time.Time) Record {
	r := newRecord(NameTransfer, at)
	r.From, r.To, r.Asset, r.Amount = from, to, asset, amount
	return r
}

// Fields flattens the record into string values, omitting unset fields.
func (r Record) Fields() map[string]any {
	f := map[string]any{
		"id":   r.ID.String(),
		"name": string(r.Name),
		"at":   r.At.Format(time.RFC3339Nano),
	}
	switch r.Name {
	case NameRegisterAccount, NameSetStatus, NameSetApprovedSender, NameSetApprovedReceiver:
		f["account"] = r.Account.String()
	case NameRegisterToken, NameSell, NameBuy, NameBurnToken:
		f["account"] = r.Account.String()
		f["asset"] = r.Asset.String()
		f["amount"] = strconv.FormatInt(r.Amount, 10)
	case NameTransferRequest, NameTransfer:
		f["from"] = r.From.String()
		f["to"] = r.To.String()
		f["asset"] = r.Asset.String()
		f["amount"] = strconv.FormatInt(r.Amount, 10)
	}
	if r.Index != nil {
		f["index"] = strconv.FormatUint(*r.Index, 10)
	}
	if r.Status != nil {
		f["status"] = r.Status.String()
	}
	if r.Approved != nil {
		f["approved"] = strconv.FormatBool(*r.Approved)
	}
	return f
}

// Emitter ships committed records downstream.
type Emitter interface {
	Emit(ctx context.Context, records ...Record) error
}

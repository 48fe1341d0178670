// Package hold implements the per-asset, append-only queue of pending
// operations awaiting administrator confirmation.
package hold

import (
	"fmt"
	"time"

	"github.com/congo-pay/omnibus/internal/address"
)

// Status of a pending entry. The zero value is deliberately not a valid
// status; entries are created Open.
type Status uint8

const (
	Open Status = iota + 1
	Closed
)

func (s Status) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("hold_status(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if s != Open && s != Closed {
		return nil, fmt.Errorf("invalid hold status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// Kind is the deferred operation an entry settles into.
type Kind uint8

const (
	Transfer Kind = iota + 1
	Sell
	Buy
	Burn
)

func (k Kind) String() string {
	switch k {
	case Transfer:
		return "transfer"
	case Sell:
		return "sell"
	case Buy:
		return "buy"
	case Burn:
		return "burn"
	default:
		return fmt.Sprintf("hold_kind(%d)", uint8(k))
	}
}

// Valid reports whether k is a declared kind.
func (k Kind) Valid() bool {
	return k >= Transfer && k <= Burn
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid hold kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// Entry is one queued operation. Initiator is the account that created it;
// Counterparty is the receiver for transfers and the sink otherwise.
type Entry struct {
	Index        uint64          `json:"index"`
	Status       Status          `json:"status"`
	Kind         Kind            `json:"kind"`
	Amount       int64           `json:"amount"`
	Initiator    address.Address `json:"initiator"`
	Counterparty address.Address `json:"counterparty"`
	CreatedAt    time.Time       `json:"created_at"`
	ClosedAt     time.Time       `json:"closed_at"`
}

// IsOpen reports whether the entry still awaits confirmation.
func (e Entry) IsOpen() bool {
	return e.Status == Open
}

package omnibus

import (
	"errors"

	"github.com/congo-pay/omnibus/internal/hold"
)

var (
	// ErrUnauthorized indicates the caller is not the administrator.
	ErrUnauthorized = errors.New("caller is not the administrator")

	// ErrNotRegistered indicates the target account never registered.
	ErrNotRegistered = errors.New("account not registered")

	// ErrAlreadyRegistered indicates the caller already has an account row.
	ErrAlreadyRegistered = errors.New("account already registered")

	// ErrInvalidStatus is returned when an administrator tries to set a
	// status other than inactive or active.
	ErrInvalidStatus = errors.New("invalid account status")

	// ErrInvalidAmount indicates a non-positive amount (negative for
	// balance registration).
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance indicates a debit would drive a confirmed
	// balance negative.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientSellCapacity indicates a sale exceeds the confirmed
	// balance net of the caller's open sales.
	ErrInsufficientSellCapacity = errors.New("insufficient sell capacity")

	// ErrBalanceExists is returned when registering an (account, asset)
	// balance that was already initialized.
	ErrBalanceExists = errors.New("balance already registered")

	// ErrBalanceOverflow indicates a credit would exceed the representable
	// balance.
	ErrBalanceOverflow = errors.New("balance overflow")

	// ErrInitiatorMismatch is returned when confirming an entry on behalf of
	// an account that did not create it.
	ErrInitiatorMismatch = errors.New("account is not the hold initiator")

	// ErrSinkAddress is returned when the sink identity is used where a real
	// account is required.
	ErrSinkAddress = errors.New("sink address cannot be used as an account")

	ErrIndexOutOfRange = hold.ErrIndexOutOfRange
	ErrAlreadyClosed   = hold.ErrAlreadyClosed
)

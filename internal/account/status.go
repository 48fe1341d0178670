// Package account holds the activation state tracked for ledger accounts.
package account

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStatus is returned when parsing a status string fails.
var ErrUnknownStatus = errors.New("unknown account status")

// Status is the activation state of an account. The zero value is
// Unregistered, so a missing row reads as never registered.
type Status uint8

const (
	Unregistered Status = iota
	Inactive
	Active
)

func (s Status) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	return s <= Active
}

// ParseStatus maps a case-insensitive name to a Status.
func ParseStatus(v string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "unregistered":
		return Unregistered, nil
	case "inactive":
		return Inactive, nil
	case "active":
		return Active, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, v)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

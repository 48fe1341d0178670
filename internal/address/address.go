// Package address defines the opaque 20-byte identity used for ledger
// accounts and assets, along with its hex and base58 text forms.
package address

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/sha3"
)

// Length is the byte length of an Address.
const Length = 20

var (
	// ErrInvalid is returned when a string is neither 0x-hex nor base58 of
	// the expected length.
	ErrInvalid = errors.New("invalid address")

	// ErrChecksum is returned for mixed-case hex input whose casing does not
	// match the EIP-55 checksum.
	ErrChecksum = errors.New("address checksum mismatch")
)

// Address identifies an account or an asset.
type Address [Length]byte

// Zero is the sink identity: the source of minted value and the destination
// of value leaving custody in settlement records.
var Zero Address

// FromBytes copies b into an Address. b must be exactly Length bytes.
func FromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != Length {
		return a, fmt.Errorf("%w: %d bytes", ErrInvalid, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// MustParse is Parse that panics on error. Intended for tests and constants.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Parse accepts either a 0x-prefixed hex string or a base58 string.
func Parse(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return parseHex(s[2:])
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return FromBytes(raw)
}

func parseHex(s string) (Address, error) {
	if len(s) != 2*Length {
		return Address{}, fmt.Errorf("%w: hex length %d", ErrInvalid, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	a, _ := FromBytes(raw)
	if s != strings.ToLower(s) && s != strings.ToUpper(s) {
		if a.String()[2:] != s {
			return Address{}, ErrChecksum
		}
	}
	return a, nil
}

// IsZero reports whether a is the sink identity.
func (a Address) IsZero() bool {
	return a == Zero
}

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, Length)
	copy(b, a[:])
	return b
}

// String renders the address as EIP-55 checksummed hex.
func (a Address) String() string {
	lower := hex.EncodeToString(a[:])

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	sum := h.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := sum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}

// Base58 renders the raw address bytes in base58.
func (a Address) Base58() string {
	return base58.Encode(a[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

package primitives

import (
	"database/sql/driver"
	"encoding/hex"
	"strings"

	"github.com/klaytn/evmexec/common/hexutil"
	"github.com/pkg/errors"
)

const AddressLength = 20

// Address is a 20-byte Ethereum account identifier.
type Address [AddressLength]byte

// ZERO and COINBASE are the two addresses whose state changes are
// never persisted: COINBASE because this system does not charge gas,
// ZERO by Ethereum convention.
var (
	ZERO     = Address{}
	COINBASE = Address{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff}
)

// BytesToAddress truncates/pads b on the left to fit an Address.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// AddressFromHex parses a 0x-prefixed 20-byte hex string.
func AddressFromHex(s string) (Address, error) {
	b, err := hexutil.DecodeFixed(s, AddressLength)
	if err != nil {
		return Address{}, errors.Wrapf(ErrInvalidFormat, "address %q: %v", s, err)
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) String() string { return hexutil.Encode(a[:]) }

func (a Address) IsZero() bool { return a == ZERO }

func (a Address) IsCoinbase() bool { return a == COINBASE }

// IsIgnored reports whether this address's state changes must never
// be persisted: coinbase because no gas is actually charged in this
// single-transaction-per-block model, zero by convention.
func (a Address) IsIgnored() bool { return a.IsZero() || a.IsCoinbase() }

func (a Address) Equal(other Address) bool { return a == other }

func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := AddressFromHex(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements database/sql/driver.Valuer, encoding as raw bytes
// for a Postgres/MySQL BYTEA/BINARY column.
func (a Address) Value() (driver.Value, error) { return a.Bytes(), nil }

// Scan implements sql.Scanner.
func (a *Address) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		if len(v) != AddressLength {
			return errors.Wrapf(ErrInvalidFormat, "address column has %d bytes", len(v))
		}
		copy(a[:], v)
		return nil
	case string:
		if strings.HasPrefix(v, "0x") {
			parsed, err := AddressFromHex(v)
			if err != nil {
				return err
			}
			*a = parsed
			return nil
		}
		b, err := hex.DecodeString(v)
		if err != nil || len(b) != AddressLength {
			return errors.Wrapf(ErrInvalidFormat, "address column %q", v)
		}
		copy(a[:], b)
		return nil
	default:
		return errors.Wrapf(ErrInvalidFormat, "unsupported address column type %T", src)
	}
}

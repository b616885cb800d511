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
	"math/rand"

	"github.com/klaytn/evmexec/common/hexutil"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

const HashLength = 32

// Hash is a 32-byte identifier used for both blocks and transactions.
type Hash [HashLength]byte

var ZeroHash = Hash{}

func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

func HashFromHex(s string) (Hash, error) {
	b, err := hexutil.DecodeFixed(s, HashLength)
	if err != nil {
		return Hash{}, errors.Wrapf(ErrInvalidFormat, "hash %q: %v", s, err)
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// Keccak256Hash hashes the concatenation of data with Keccak-256.
func Keccak256Hash(data ...[]byte) Hash {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	var h Hash
	d.Sum(h[:0])
	return h
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) String() string { return hexutil.Encode(h[:]) }

func (h Hash) IsZero() bool { return h == ZeroHash }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := HashFromHex(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (h Hash) Value() (driver.Value, error) { return h.Bytes(), nil }

func (h *Hash) Scan(src interface{}) error {
	b, ok := src.([]byte)
	if !ok || len(b) != HashLength {
		return errors.Wrapf(ErrInvalidFormat, "hash column %v", src)
	}
	copy(h[:], b)
	return nil
}

// NewRandomHash returns a pseudo-random hash, for test fixtures only.
func NewRandomHash() Hash {
	var h Hash
	rand.Read(h[:])
	return h
}

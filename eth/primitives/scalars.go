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
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
)

// Nonce is the number of transactions sent from an account.
type Nonce uint64

// Index is a zero-based position within a block (transaction index)
// or within a transaction (log index).
type Index uint32

// BlockNumber is a monotonically increasing block height, starting at 0.
type BlockNumber uint64

// Gas is a quantity of EVM gas.
type Gas uint64

func (n Nonce) String() string       { return strconv.FormatUint(uint64(n), 10) }
func (i Index) String() string       { return strconv.FormatUint(uint64(i), 10) }
func (b BlockNumber) String() string { return strconv.FormatUint(uint64(b), 10) }
func (g Gas) String() string         { return strconv.FormatUint(uint64(g), 10) }

func (n Nonce) MarshalText() ([]byte, error) { return []byte(fmt.Sprintf("0x%x", uint64(n))), nil }
func (b BlockNumber) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("0x%x", uint64(b))), nil
}
func (g Gas) MarshalText() ([]byte, error) { return []byte(fmt.Sprintf("0x%x", uint64(g))), nil }

func (n *Nonce) UnmarshalText(text []byte) error {
	v, err := parseQuantity(string(text))
	if err != nil {
		return err
	}
	*n = Nonce(v)
	return nil
}

func (b *BlockNumber) UnmarshalText(text []byte) error {
	v, err := parseQuantity(string(text))
	if err != nil {
		return err
	}
	*b = BlockNumber(v)
	return nil
}

func (g *Gas) UnmarshalText(text []byte) error {
	v, err := parseQuantity(string(text))
	if err != nil {
		return err
	}
	*g = Gas(v)
	return nil
}

// parseQuantity decodes a JSON-RPC hex quantity ("0x..."); "0x0"
// parses to zero, and a string without the 0x prefix (including the
// empty string) is ErrInvalidFormat.
func parseQuantity(s string) (uint64, error) {
	if len(s) < 2 || s[:2] != "0x" {
		return 0, errors.Wrapf(ErrInvalidFormat, "quantity %q", s)
	}
	v, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidFormat, "quantity %q: %v", s, err)
	}
	return v, nil
}

// Wei is an account balance / transfer value, arbitrary precision.
type Wei struct {
	v *big.Int
}

func NewWei(v int64) Wei { return Wei{v: big.NewInt(v)} }

func WeiFromBigInt(v *big.Int) Wei {
	if v == nil {
		return Wei{v: new(big.Int)}
	}
	return Wei{v: new(big.Int).Set(v)}
}

func (w Wei) BigInt() *big.Int {
	if w.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(w.v)
}

func (w Wei) String() string {
	if w.v == nil {
		return "0"
	}
	return w.v.String()
}

func (w Wei) Cmp(other Wei) int { return w.BigInt().Cmp(other.BigInt()) }

func (w Wei) Add(other Wei) Wei { return WeiFromBigInt(new(big.Int).Add(w.BigInt(), other.BigInt())) }

func (w Wei) Sub(other Wei) Wei { return WeiFromBigInt(new(big.Int).Sub(w.BigInt(), other.BigInt())) }

func (w Wei) IsZero() bool { return w.BigInt().Sign() == 0 }

func (w Wei) MarshalText() ([]byte, error) { return []byte("0x" + w.BigInt().Text(16)), nil }

func (w *Wei) UnmarshalText(text []byte) error {
	s := string(text)
	if len(s) < 2 || s[:2] != "0x" {
		return errors.Wrapf(ErrInvalidFormat, "wei %q", s)
	}
	v, ok := new(big.Int).SetString(s[2:], 16)
	if !ok {
		return errors.Wrapf(ErrInvalidFormat, "wei %q", s)
	}
	w.v = v
	return nil
}

// Bytes is an opaque, arbitrary-length byte sequence (contract
// bytecode, calldata, log data).
type Bytes []byte

func (b Bytes) IsEmpty() bool { return len(b) == 0 }

func (b Bytes) String() string { return fmt.Sprintf("0x%x", []byte(b)) }

func (b Bytes) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Bytes) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" || s == "0x" {
		*b = nil
		return nil
	}
	if len(s) < 2 || s[:2] != "0x" {
		return errors.Wrapf(ErrInvalidFormat, "bytes %q", s)
	}
	decoded, err := hex.DecodeString(s[2:])
	if err != nil {
		return errors.Wrapf(ErrInvalidFormat, "bytes %q: %v", s, err)
	}
	*b = decoded
	return nil
}

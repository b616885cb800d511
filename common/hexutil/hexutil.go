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

// Package hexutil implements the Ethereum JSON-RPC hex-prefixed byte
// and quantity conventions used to encode/decode primitives on the
// wire.
package hexutil

import (
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrMissingPrefix = errors.New("hex string without 0x prefix")
	ErrOddLength     = errors.New("hex string has odd length")
	ErrSyntax        = errors.New("invalid hex string")
)

// Encode returns the 0x-prefixed lowercase hex encoding of b.
func Encode(b []byte) string {
	enc := make([]byte, len(b)*2+2)
	copy(enc, "0x")
	hex.Encode(enc[2:], b)
	return string(enc)
}

// Decode decodes a 0x-prefixed hex string into bytes.
func Decode(input string) ([]byte, error) {
	if len(input) < 2 || !strings.HasPrefix(input, "0x") {
		return nil, ErrMissingPrefix
	}
	raw := input[2:]
	if len(raw)%2 != 0 {
		return nil, ErrOddLength
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, ErrSyntax
	}
	return b, nil
}

// DecodeFixed decodes a 0x-prefixed hex string into a
// fixed-length byte slice, failing if the decoded length mismatches.
func DecodeFixed(input string, size int) ([]byte, error) {
	b, err := Decode(input)
	if err != nil {
		return nil, err
	}
	if len(b) != size {
		return nil, ErrSyntax
	}
	return b, nil
}

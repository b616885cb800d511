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

import "errors"

// ErrInvalidFormat is returned when a primitive fails to parse from
// its hex or binary wire representation.
var ErrInvalidFormat = errors.New("invalid format")

// RejectReason enumerates why a submitted transaction was refused
// outright rather than retried.
type RejectReason int

const (
	ZeroSigner RejectReason = iota
	InvalidSignature
	BadNonce
)

func (r RejectReason) String() string {
	switch r {
	case ZeroSigner:
		return "zero signer"
	case InvalidSignature:
		return "invalid signature"
	case BadNonce:
		return "bad nonce"
	default:
		return "unknown reject reason"
	}
}

// Rejected is returned when the transaction is malformed (refused
// before it reaches the EVM pool) or, after execution, conflicts with
// already-committed state in a way no retry can resolve (BadNonce).
type Rejected struct {
	Reason RejectReason
}

func (e Rejected) Error() string { return "rejected: " + e.Reason.String() }

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

// Package evm hosts the bounded pool of single-threaded EVM
// evaluators that back the executor coordinator's transact/call
// paths.
package evm

import (
	"github.com/klaytn/evmexec/eth/primitives"
)

// Evm is the external, synchronous, single-owner evaluator this
// system dispatches work to (e.g. a revm-like library). Its
// concrete implementation is out of scope for this repository; Pool
// only needs one instance per worker goroutine.
type Evm interface {
	Execute(Input) (*primitives.Execution, error)
}

// Input is the tagged union of work a Pool can submit to an Evm: a
// state-mutating Transact or a read-only Call.
type Input struct {
	IsCall bool

	From        primitives.Address
	Signer      primitives.Address
	To          *primitives.Address
	Data        primitives.Bytes
	Gas         primitives.Gas
	Value       primitives.Wei
	Nonce       primitives.Nonce
	PointInTime primitives.StoragePointInTime
}

// Transact builds an Input for a state-mutating transaction,
// evaluated against the present (latest) state.
func Transact(from, signer primitives.Address, to *primitives.Address, data primitives.Bytes, value primitives.Wei, gas primitives.Gas, nonce primitives.Nonce) Input {
	return Input{
		From:        from,
		Signer:      signer,
		To:          to,
		Data:        data,
		Value:       value,
		Gas:         gas,
		Nonce:       nonce,
		PointInTime: primitives.Present,
	}
}

// Call builds an Input for a read-only call at the given point in time.
func Call(from primitives.Address, to *primitives.Address, data primitives.Bytes, pointInTime primitives.StoragePointInTime) Input {
	return Input{
		IsCall:      true,
		From:        from,
		To:          to,
		Data:        data,
		PointInTime: pointInTime,
	}
}

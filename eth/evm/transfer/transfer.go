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

// Package transfer is a minimal evm.Evm that only moves value between
// accounts; it never runs bytecode. The pool this system dispatches
// to is meant to host a real EVM (a revm-like library), which is out
// of scope here, so evmexecd wires this one up by default to have
// something runnable end to end. Anyone embedding this module for a
// real chain swaps it for their own evm.Evm.
package transfer

import (
	"github.com/klaytn/evmexec/eth/evm"
	"github.com/klaytn/evmexec/eth/primitives"
	"github.com/klaytn/evmexec/eth/storage"
)

// Evm rejects any call carrying bytecode or calldata and otherwise
// debits From and credits To by Value.
type Evm struct {
	Storage storage.EthStorage
}

func New(s storage.EthStorage) *Evm { return &Evm{Storage: s} }

func (e *Evm) Execute(input evm.Input) (*primitives.Execution, error) {
	if !input.Data.IsEmpty() {
		return &primitives.Execution{Result: primitives.ResultRevert, GasUsed: input.Gas}, nil
	}

	from, err := e.Storage.ReadAccount(input.From, input.PointInTime)
	if err != nil {
		return nil, err
	}
	fromChange := primitives.NewAccountChange(from)
	changes := []primitives.AccountChange{fromChange}

	if !input.IsCall {
		fromChange.Nonce.Current = from.Nonce + 1
	}

	if from.Balance.Cmp(input.Value) < 0 {
		changes[0] = fromChange
		return &primitives.Execution{Result: primitives.ResultRevert, GasUsed: input.Gas, Changes: changes}, nil
	}
	fromChange.Balance.Current = from.Balance.Sub(input.Value)
	changes[0] = fromChange

	if input.To != nil && !input.Value.IsZero() {
		to, err := e.Storage.ReadAccount(*input.To, input.PointInTime)
		if err != nil {
			return nil, err
		}
		toChange := primitives.NewAccountChange(to)
		toChange.Balance.Current = to.Balance.Add(input.Value)
		changes = append(changes, toChange)
	}

	return &primitives.Execution{
		Result:  primitives.ResultSuccess,
		GasUsed: 21000,
		Changes: changes,
	}, nil
}

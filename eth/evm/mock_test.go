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

package evm

import (
	"github.com/klaytn/evmexec/eth/primitives"
)

// mockEvm deterministically "transfers" value from From to To,
// bumping From's nonce, with no storage-slot effects. Used by pool
// and executor tests in place of a real revm-like evaluator.
type mockEvm struct {
	panicOn func(Input) bool

	// blockUntil, if set, stalls Execute until the channel is closed —
	// used to hold a single worker busy while exercising the pool's
	// queue from the outside.
	blockUntil chan struct{}
}

func (m *mockEvm) Execute(in Input) (*primitives.Execution, error) {
	if m.panicOn != nil && m.panicOn(in) {
		panic("mock evm crash")
	}
	if m.blockUntil != nil {
		<-m.blockUntil
	}

	change := primitives.NewAccountChange(primitives.DefaultAccount(in.From))
	change.Nonce.Current = in.Nonce + 1
	change.Balance.Current = change.Balance.Current.Sub(in.Value)

	changes := []primitives.AccountChange{change}
	if in.To != nil {
		toChange := primitives.NewAccountChange(primitives.DefaultAccount(*in.To))
		toChange.Balance.Current = toChange.Balance.Current.Add(in.Value)
		changes = append(changes, toChange)
	}

	if in.IsCall {
		changes = nil
	}

	return &primitives.Execution{
		Result:  primitives.ResultSuccess,
		GasUsed: 21000,
		Changes: changes,
	}, nil
}

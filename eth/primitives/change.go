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

// Change records a before/after pair observed by an execution. It is
// "modified" iff Original and Current differ under eq.
type Change struct {
	Original interface{}
	Current  interface{}
}

// NonceChange, BalanceChange, BytecodeChange are typed Change
// specializations so call sites don't need type assertions.
type NonceChange struct {
	Original Nonce
	Current  Nonce
}

func (c NonceChange) Modified() bool { return c.Original != c.Current }

type BalanceChange struct {
	Original Wei
	Current  Wei
}

func (c BalanceChange) Modified() bool { return c.Original.Cmp(c.Current) != 0 }

type BytecodeChange struct {
	Original Bytes
	Current  Bytes
}

func (c BytecodeChange) Modified() bool {
	return string(c.Original) != string(c.Current)
}

type SlotChange struct {
	Original Slot
	Current  Slot
}

func (c SlotChange) Modified() bool { return c.Original.Value != c.Current.Value }

// AccountChange is the set of state mutations an execution proposes
// for a single account.
type AccountChange struct {
	Address  Address
	Nonce    NonceChange
	Balance  BalanceChange
	Bytecode BytecodeChange
	Slots    map[[32]byte]SlotChange
}

// NewAccountChange starts an AccountChange where nothing has moved
// yet (Original == Current for every field); callers mutate Current
// fields as the execution progresses.
func NewAccountChange(before Account) AccountChange {
	return AccountChange{
		Address:  before.Address,
		Nonce:    NonceChange{Original: before.Nonce, Current: before.Nonce},
		Balance:  BalanceChange{Original: before.Balance, Current: before.Balance},
		Bytecode: BytecodeChange{Original: before.Bytecode, Current: before.Bytecode},
		Slots:    make(map[[32]byte]SlotChange),
	}
}

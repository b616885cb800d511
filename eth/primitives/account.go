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

// Account is an Ethereum wallet or contract account.
type Account struct {
	Address  Address
	Nonce    Nonce
	Balance  Wei
	Bytecode Bytes // nil if the account has no code
}

// IsContract reports whether the account carries non-empty bytecode.
func (a Account) IsContract() bool { return len(a.Bytecode) > 0 }

// DefaultAccount is returned by storage reads for an address that has
// never been touched: zero nonce, zero balance, no code.
func DefaultAccount(addr Address) Account {
	return Account{Address: addr, Nonce: 0, Balance: WeiFromBigInt(nil)}
}

// Slot is a single 32-byte storage cell of a contract account.
type Slot struct {
	Index [32]byte
	Value [32]byte
}

// ZeroSlot is returned by storage reads for a slot that was never written.
func ZeroSlot(index [32]byte) Slot { return Slot{Index: index} }

func (s Slot) IsZero() bool {
	for _, b := range s.Value {
		if b != 0 {
			return false
		}
	}
	return true
}

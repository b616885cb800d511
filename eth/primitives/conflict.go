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

import "fmt"

// ConflictKind identifies which facet of an account diverged between
// what an execution observed and what is currently committed.
type ConflictKind int

const (
	ConflictNonce ConflictKind = iota
	ConflictBalance
	ConflictBytecode
	ConflictSlot
)

func (k ConflictKind) String() string {
	switch k {
	case ConflictNonce:
		return "nonce"
	case ConflictBalance:
		return "balance"
	case ConflictBytecode:
		return "bytecode"
	case ConflictSlot:
		return "slot"
	default:
		return "unknown"
	}
}

// ConflictEntry names one divergence found during check_conflicts.
type ConflictEntry struct {
	Address Address
	Kind    ConflictKind
	Slot    [32]byte // meaningful only when Kind == ConflictSlot
}

func (e ConflictEntry) String() string {
	if e.Kind == ConflictSlot {
		return fmt.Sprintf("%s/slot(%x)", e.Address, e.Slot)
	}
	return fmt.Sprintf("%s/%s", e.Address, e.Kind)
}

// StorageConflict is the full set of divergences detected for one
// execution. A nil/empty StorageConflict slice means "no conflict";
// callers should use len(conflict) == 0 to test for cleanliness
// rather than nil-checking, since both states are produced.
type StorageConflict []ConflictEntry

func (c StorageConflict) Error() string {
	return fmt.Sprintf("storage conflict: %d entries", len(c))
}

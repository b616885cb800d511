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

// StoragePointInTime selects either the latest committed state or the
// state as of a specific past block number.
type StoragePointInTime struct {
	Present bool
	Past    BlockNumber
}

var Present = StoragePointInTime{Present: true}

func AtBlock(n BlockNumber) StoragePointInTime { return StoragePointInTime{Past: n} }

func (p StoragePointInTime) String() string {
	if p.Present {
		return "present"
	}
	return "past(" + p.Past.String() + ")"
}

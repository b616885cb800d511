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

// Log is an event emitted by the EVM during contract execution,
// before it has been mined into a block.
type Log struct {
	Address Address
	Topics  []LogTopic // 0 to 4 entries
	Data    Bytes
}

// LogMined is a Log that has been assigned its position within a
// mined block.
type LogMined struct {
	Log

	BlockHash   Hash
	BlockNumber BlockNumber
	TxHash      Hash
	TxIndex     Index
	LogIndex    Index
}

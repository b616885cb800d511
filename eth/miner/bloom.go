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

package miner

import "github.com/klaytn/evmexec/eth/primitives"

// logsBloom builds the 2048-bit logs bloom the canonical Ethereum way:
// for each log, its address and every topic each set 3 bits, chosen by
// the low 11 bits of 3 non-overlapping 2-byte windows of that value's
// Keccak256. This bit-for-bit scheme is specified, not a tunable
// probabilistic filter, so it is built directly rather than through a
// general-purpose bloomfilter library (see DESIGN.md).
func logsBloom(logs []primitives.LogMined) primitives.Bloom {
	var bloom primitives.Bloom
	for _, l := range logs {
		addBloom(&bloom, l.Address.Bytes())
		for _, t := range l.Topics {
			addBloom(&bloom, t.Bytes())
		}
	}
	return bloom
}

func addBloom(bloom *primitives.Bloom, data []byte) {
	hash := primitives.Keccak256Hash(data)
	for i := 0; i < 3; i++ {
		bit := (uint(hash[2*i])<<8 | uint(hash[2*i+1])) & 2047
		byteIndex := 255 - bit/8
		bitIndex := bit % 8
		bloom[byteIndex] |= 1 << bitIndex
	}
}

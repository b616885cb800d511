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

package filters

import (
	"testing"

	"github.com/klaytn/evmexec/eth/primitives"
	"github.com/stretchr/testify/require"
)

func topic(b byte) primitives.LogTopic {
	var t primitives.LogTopic
	t[31] = b
	return t
}

func TestFilterMatchesTopicCombination(t *testing.T) {
	addr := primitives.BytesToAddress([]byte{0x01})
	t0, t1, t2 := topic(0xA0), topic(0xA1), topic(0xA2)

	log := primitives.LogMined{
		Log: primitives.Log{
			Address: addr,
			Topics:  []primitives.LogTopic{t0, t1},
		},
		BlockNumber: 10,
	}

	f := Filter{
		FromBlock: 0,
		Addresses: []primitives.Address{addr},
		TopicsCombinations: []TopicCombination{
			{{Position: 0, Topic: t0}},
		},
	}
	require.True(t, f.Matches(log))

	f2 := Filter{
		FromBlock: 0,
		Addresses: []primitives.Address{addr},
		TopicsCombinations: []TopicCombination{
			{{Position: 0, Topic: t0}, {Position: 1, Topic: t2}},
		},
	}
	require.False(t, f2.Matches(log))
}

func TestFilterEmptyAddressesMatchesAny(t *testing.T) {
	log := primitives.LogMined{
		Log:         primitives.Log{Address: primitives.BytesToAddress([]byte{0x09})},
		BlockNumber: 1,
	}
	f := Filter{FromBlock: 0}
	require.True(t, f.Matches(log))
}

func TestFilterBlockRange(t *testing.T) {
	log := primitives.LogMined{BlockNumber: 5}
	to := primitives.BlockNumber(4)
	f := Filter{FromBlock: 0, ToBlock: &to}
	require.False(t, f.Matches(log))

	to2 := primitives.BlockNumber(5)
	f2 := Filter{FromBlock: 0, ToBlock: &to2}
	require.True(t, f2.Matches(log))

	f3 := Filter{FromBlock: 6}
	require.False(t, f3.Matches(log))
}

func TestApplyPreservesOrder(t *testing.T) {
	logs := []primitives.LogMined{
		{BlockNumber: 1, TxIndex: 0, LogIndex: 0},
		{BlockNumber: 1, TxIndex: 0, LogIndex: 1},
		{BlockNumber: 2, TxIndex: 0, LogIndex: 0},
	}
	out := Apply(Filter{FromBlock: 0}, logs)
	require.Len(t, out, 3)
	require.Equal(t, logs, out)
}

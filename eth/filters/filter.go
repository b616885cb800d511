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

// Package filters implements the eth_getLogs-style filter semantics:
// block range, address set, and topic-position combinations.
package filters

import "github.com/klaytn/evmexec/eth/primitives"

// TopicCombination is one admissible assignment of topics: a log
// matches the combination iff, for every (position, topic) pair, the
// log's topic at that position exists and equals the expected value.
// Positions absent from the combination are unconstrained.
type TopicCombination []TopicAt

type TopicAt struct {
	Position int
	Topic    primitives.LogTopic
}

func (c TopicCombination) matches(topics []primitives.LogTopic) bool {
	for _, want := range c {
		if want.Position < 0 || want.Position >= len(topics) {
			return false
		}
		if topics[want.Position] != want.Topic {
			return false
		}
	}
	return true
}

// Filter is an eth_getLogs-style query over mined logs.
type Filter struct {
	FromBlock           primitives.BlockNumber
	ToBlock             *primitives.BlockNumber // nil == unbounded above
	Addresses           []primitives.Address    // empty == match any address
	TopicsCombinations  []TopicCombination      // empty == match any topics
}

// Matches reports whether log satisfies every clause of the filter.
func (f Filter) Matches(log primitives.LogMined) bool {
	if log.BlockNumber < f.FromBlock {
		return false
	}
	if f.ToBlock != nil && log.BlockNumber > *f.ToBlock {
		return false
	}

	if len(f.Addresses) > 0 && !containsAddress(f.Addresses, log.Address) {
		return false
	}

	if len(f.TopicsCombinations) == 0 {
		return true
	}
	for _, combo := range f.TopicsCombinations {
		if combo.matches(log.Topics) {
			return true
		}
	}
	return false
}

func containsAddress(addrs []primitives.Address, target primitives.Address) bool {
	for _, a := range addrs {
		if a == target {
			return true
		}
	}
	return false
}

// Apply runs Matches over logs, returning matches in their given
// order. Callers are expected to hand it logs already sorted in
// (block_number, tx_index, log_index) order, which Apply preserves.
func Apply(f Filter, logs []primitives.LogMined) []primitives.LogMined {
	out := make([]primitives.LogMined, 0, len(logs))
	for _, l := range logs {
		if f.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}

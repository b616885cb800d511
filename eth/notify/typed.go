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

package notify

import "github.com/klaytn/evmexec/eth/primitives"

// BlockFeed fans out newly mined blocks ("newHeads").
type BlockFeed struct{ b *Broadcaster }

func NewBlockFeed() *BlockFeed { return &BlockFeed{b: NewBroadcaster()} }

func (f *BlockFeed) Send(block primitives.Block) { f.b.Send(block) }

func (f *BlockFeed) Subscribe() *BlockSubscription {
	return &BlockSubscription{b: f.b, id: f.b.Subscribe()}
}

type BlockSubscription struct {
	b  *Broadcaster
	id string
}

func (s *BlockSubscription) Recv() (primitives.Block, error, bool) {
	v, err, ok := s.b.Recv(s.id)
	if !ok || v == nil {
		return primitives.Block{}, err, ok
	}
	return v.(primitives.Block), err, ok
}

func (s *BlockSubscription) Unsubscribe() { s.b.Unsubscribe(s.id) }

// LogFeed fans out mined logs.
type LogFeed struct{ b *Broadcaster }

func NewLogFeed() *LogFeed { return &LogFeed{b: NewBroadcaster()} }

func (f *LogFeed) Send(log primitives.LogMined) { f.b.Send(log) }

func (f *LogFeed) Subscribe() *LogSubscription {
	return &LogSubscription{b: f.b, id: f.b.Subscribe()}
}

type LogSubscription struct {
	b  *Broadcaster
	id string
}

func (s *LogSubscription) Recv() (primitives.LogMined, error, bool) {
	v, err, ok := s.b.Recv(s.id)
	if !ok || v == nil {
		return primitives.LogMined{}, err, ok
	}
	return v.(primitives.LogMined), err, ok
}

func (s *LogSubscription) Unsubscribe() { s.b.Unsubscribe(s.id) }

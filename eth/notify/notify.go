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

// Package notify implements a multi-producer, multi-subscriber
// broadcast with a bounded per-topic backlog. Unlike event.Feed, Send
// never blocks on a slow subscriber: a subscriber that falls behind
// the backlog observes a Lagged(n) signal on its next Recv instead of
// stalling the producer.
package notify

import (
	"sync"

	"github.com/hashicorp/go-uuid"
	"github.com/klaytn/evmexec/log"
)

// Capacity is the ring buffer size shared by every Broadcaster,
// matching the teacher's single backlog constant.
const Capacity = 65535

var logger = log.NewModuleLogger(log.Notify)

// Lagged is returned by Recv when the subscriber's cursor has fallen
// further behind the ring buffer than its capacity; n is how many
// events were skipped.
type Lagged struct {
	N uint64
}

func (l Lagged) Error() string { return "subscriber lagged" }

// Broadcaster is a ring-buffer broadcast channel for values of type
// interface{}; callers typically wrap it to get a typed API (see
// BlockFeed / LogFeed in typed.go).
type Broadcaster struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []interface{}
	next     uint64 // sequence number of the next Send
	subs     map[string]*cursor
	closed   bool
}

type cursor struct {
	read uint64 // next sequence number this subscriber wants to read
}

func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		buf:  make([]interface{}, Capacity),
		subs: make(map[string]*cursor),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Send appends an event and wakes any blocked subscribers. It never
// blocks: if there are no subscribers, the send is a no-op (logged at
// debug level).
func (b *Broadcaster) Send(v interface{}) {
	b.mu.Lock()
	if len(b.subs) == 0 {
		b.mu.Unlock()
		logger.Debug("no subscribers, dropping notification")
		return
	}
	b.buf[b.next%Capacity] = v
	b.next++
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Subscribe attaches a new receiver positioned at "now" (it will only
// see events sent after this call), returning an id used to
// Unsubscribe.
func (b *Broadcaster) Subscribe() string {
	id, err := uuid.GenerateUUID()
	if err != nil {
		id = randomFallbackID()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[id] = &cursor{read: b.next}
	return id
}

func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// Recv blocks until an event is available for subscriber id, the
// broadcaster is closed (returns ok=false), or the subscriber lagged
// past the backlog (returns the Lagged error).
func (b *Broadcaster) Recv(id string) (v interface{}, err error, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, exists := b.subs[id]
	if !exists {
		return nil, nil, false
	}

	for c.read == b.next && !b.closed {
		b.cond.Wait()
	}
	if b.closed && c.read == b.next {
		return nil, nil, false
	}

	oldest := uint64(0)
	if b.next > Capacity {
		oldest = b.next - Capacity
	}
	if c.read < oldest {
		skipped := oldest - c.read
		c.read = oldest
		return nil, Lagged{N: skipped}, true
	}

	v = b.buf[c.read%Capacity]
	c.read++
	return v, nil, true
}

func (b *Broadcaster) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cond.Broadcast()
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func randomFallbackID() string {
	return "sub"
}

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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBroadcasterDeliversInOrder(t *testing.T) {
	b := NewBroadcaster()
	id := b.Subscribe()

	b.Send(1)
	b.Send(2)

	v, err, ok := b.Recv(id)
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	v, err, ok = b.Recv(id)
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestBroadcasterSendNeverBlocksWithoutSubscribers(t *testing.T) {
	b := NewBroadcaster()
	// must return immediately, no deadlock
	b.Send("ignored")
}

func TestBroadcasterLaggedSubscriberObservesLagged(t *testing.T) {
	b := NewBroadcaster()
	id := b.Subscribe()

	for i := 0; i < Capacity+5; i++ {
		b.Send(i)
	}

	_, err, ok := b.Recv(id)
	require.True(t, ok)
	lagged, isLagged := err.(Lagged)
	require.True(t, isLagged)
	require.EqualValues(t, 5, lagged.N)
}

func TestBroadcasterCloseUnblocksSubscribers(t *testing.T) {
	b := NewBroadcaster()
	id := b.Subscribe()

	done := make(chan struct{})
	go func() {
		_, _, ok := b.Recv(id)
		require.False(t, ok)
		close(done)
	}()

	b.Close()
	<-done
}

func TestRecvUnknownSubscriberReturnsNotOK(t *testing.T) {
	b := NewBroadcaster()
	// an id that never subscribed gets ok=false
	_, _, ok := b.Recv("unknown")
	require.False(t, ok)
}

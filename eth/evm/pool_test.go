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

package evm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/klaytn/evmexec/eth/primitives"
	"github.com/stretchr/testify/require"
)

func TestPoolSubmitSuccess(t *testing.T) {
	pool := NewPool([]Evm{&mockEvm{}})
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	exec, err := pool.Submit(ctx, Transact(primitives.BytesToAddress([]byte{1}), primitives.BytesToAddress([]byte{1}), nil, nil, primitives.NewWei(1), 21000, 0))
	require.NoError(t, err)
	require.True(t, exec.IsSuccess())
}

func TestPoolIsolatesPanic(t *testing.T) {
	crashFrom := primitives.BytesToAddress([]byte{1})
	pool := NewPool([]Evm{&mockEvm{panicOn: func(in Input) bool { return in.From == crashFrom }}})
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := pool.Submit(ctx, Transact(crashFrom, crashFrom, nil, nil, primitives.NewWei(1), 21000, 0))
	require.ErrorIs(t, err, ErrCrashed)

	// the worker goroutine must still be alive afterwards: the same
	// single-worker pool serves the next task
	_, err = pool.Submit(ctx, Transact(primitives.BytesToAddress([]byte{2}), primitives.BytesToAddress([]byte{2}), nil, nil, primitives.NewWei(1), 21000, 0))
	require.NoError(t, err)
}

func TestPoolSubmitNeverBlocksOnQueueDepth(t *testing.T) {
	block := make(chan struct{})
	pool := NewPool([]Evm{&mockEvm{blockUntil: block}})
	defer pool.Close()
	defer close(block)

	const submissions = 1000
	done := make(chan struct{})
	go func() {
		for i := 0; i < submissions; i++ {
			ctx := context.Background()
			go pool.Submit(ctx, Transact(primitives.BytesToAddress([]byte{byte(i)}), primitives.BytesToAddress([]byte{byte(i)}), nil, nil, primitives.NewWei(1), 21000, primitives.Nonce(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("admission blocked on queue depth with a single stalled worker")
	}

	require.Eventually(t, func() bool { return pool.QueueDepth() == submissions-1 }, time.Second, 10*time.Millisecond)
}

func TestPoolParallelisesAcrossWorkers(t *testing.T) {
	pool := NewPool([]Evm{&mockEvm{}, &mockEvm{}, &mockEvm{}})
	defer pool.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n byte) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, err := pool.Submit(ctx, Transact(primitives.BytesToAddress([]byte{n}), primitives.BytesToAddress([]byte{n}), nil, nil, primitives.NewWei(1), 21000, 0))
			errs <- err
		}(byte(i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

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
	"sync/atomic"

	"github.com/klaytn/evmexec/eth/primitives"
	"github.com/klaytn/evmexec/log"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
)

// ErrCrashed is returned for a task whose worker goroutine panicked
// while executing it. The pool isolates the panic and keeps serving
// subsequent tasks from the same goroutine, exactly as CpuAgent.update
// keeps its select loop alive across individual mining failures.
var ErrCrashed = errors.New("evm worker crashed")

var logger = log.NewModuleLogger(log.EVM)

var (
	submittedCounter = metrics.NewRegisteredCounter("evm/submitted", nil)
	crashedCounter   = metrics.NewRegisteredCounter("evm/crashed", nil)
	queueDepthGauge  = metrics.NewRegisteredGauge("evm/queuedepth", nil)
)

type task struct {
	input Input
	reply chan result
}

type result struct {
	execution *primitives.Execution
	err       error
}

// Pool is a fixed-size set of single-threaded EVM evaluators fed by
// one shared, unbounded, FIFO work queue. It parallelises at most N
// concurrent executions, N = len(evms). Admission to the queue never
// blocks a submitter: the queue itself carries no back-pressure, it
// only reports its depth so a caller (the coordinator) can choose to
// throttle submission itself.
type Pool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []task
	size   int
	closed int32
}

// NewPool spawns one goroutine per evm, each processing tasks from a
// shared queue serially for the lifetime of the pool.
func NewPool(evms []Evm) *Pool {
	p := &Pool{size: len(evms)}
	p.cond = sync.NewCond(&p.mu)
	for i, e := range evms {
		go p.runWorker(i, e)
	}
	return p
}

func (p *Pool) runWorker(id int, e Evm) {
	for {
		t, ok := p.dequeue()
		if !ok {
			return
		}
		p.execute(id, e, t)
	}
}

// dequeue blocks until a task is available or the pool is closed and
// drained, in which case ok is false and the worker goroutine exits.
func (p *Pool) dequeue() (t task, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 {
		if atomic.LoadInt32(&p.closed) != 0 {
			return task{}, false
		}
		p.cond.Wait()
	}
	t = p.queue[0]
	p.queue = p.queue[1:]
	queueDepthGauge.Update(int64(len(p.queue)))
	return t, true
}

func (p *Pool) execute(id int, e Evm, t task) {
	defer func() {
		if r := recover(); r != nil {
			crashedCounter.Inc(1)
			logger.Error("evm worker panicked, task marked crashed", "worker", id, "panic", r)
			select {
			case t.reply <- result{err: ErrCrashed}:
			default:
			}
		}
	}()

	execution, err := e.Execute(t.input)
	// The reply channel may have no receiver left if the caller's
	// context was cancelled; that's fine, the result is simply
	// discarded, per the cancellation policy: EVM work always runs to
	// completion (bounded by gas) but its result may go unread.
	select {
	case t.reply <- result{execution: execution, err: err}:
	default:
	}
}

// QueueDepth reports how many tasks are currently waiting for a free
// worker, usable by callers as a back-pressure signal.
func (p *Pool) QueueDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Submit enqueues input and blocks until a worker replies or ctx is
// done. Admission itself never blocks on queue depth — the queue grows
// to fit whatever is submitted — so only the reply wait is subject to
// ctx. If ctx is cancelled first, the EVM request is not aborted: the
// worker keeps running to completion and its result is discarded.
func (p *Pool) Submit(ctx context.Context, input Input) (*primitives.Execution, error) {
	if atomic.LoadInt32(&p.closed) != 0 {
		return nil, errors.New("evm pool is closed")
	}
	submittedCounter.Inc(1)

	t := task{input: input, reply: make(chan result, 1)}
	p.mu.Lock()
	p.queue = append(p.queue, t)
	queueDepthGauge.Update(int64(len(p.queue)))
	p.mu.Unlock()
	p.cond.Signal()

	select {
	case r := <-t.reply:
		return r.execution, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting new submissions. In-flight tasks already
// queued continue to run to completion; workers exit once the queue
// is drained.
func (p *Pool) Close() {
	if atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		p.cond.Broadcast()
	}
}

// Size returns the configured number of workers.
func (p *Pool) Size() int { return p.size }

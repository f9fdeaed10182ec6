/*
Copyright Inferax-AI Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package tokenization

import (
	"context"
	"sync"

	"k8s.io/client-go/util/workqueue"
	"k8s.io/klog/v2"

	"github.com/inferax-ai/inferax/pkg/adapters"
)

const (
	defaultWorkers = 5
	// max number of times a failed task is retried before its error is
	// delivered to the caller.
	maxTaskRetries = 3
)

type encodeResult struct {
	tokens []int
	err    error
}

// encodeTask is a unit of tokenization work. The result channel is unique per
// task, which also keeps tasks distinct as workqueue keys.
type encodeTask struct {
	requestID string
	text      string
	lora      *adapters.LoRARequest
	resultCh  chan<- encodeResult
}

type encodeFunc func(ctx context.Context, requestID, text string, lora *adapters.LoRARequest) ([]int, error)

// Pool runs tokenization tasks on a bounded set of workers. Callers submit a
// task and park on its result channel, so a suspendable encode never ties up
// more than one of the pool's workers.
//
// Every accepted task receives exactly one result or error, including tasks
// the workqueue drops during shutdown: the pool tracks undelivered result
// channels and sweeps them once the workers have stopped.
type Pool struct {
	workers int
	encode  encodeFunc
	queue   workqueue.TypedRateLimitingInterface[encodeTask]
	wg      sync.WaitGroup

	// mu guards shutdown and pending. A task is pending from acceptance in
	// Submit until its single delivery.
	mu       sync.Mutex
	shutdown bool
	pending  map[chan<- encodeResult]struct{}
}

func newPool(workers int, encode encodeFunc) *Pool {
	if workers <= 0 {
		workers = defaultWorkers
	}

	return &Pool{
		workers: workers,
		encode:  encode,
		queue:   workqueue.NewTypedRateLimitingQueue(workqueue.DefaultTypedControllerRateLimiter[encodeTask]()),
		pending: make(map[chan<- encodeResult]struct{}),
	}
}

// Run launches worker goroutines that process tasks until the context is
// cancelled, then drains and stops them. Tasks the queue drops at shutdown
// (delayed retries, adds racing the shutdown) are answered with an error so
// no Submit caller is left parked.
func (p *Pool) Run(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.workerLoop()
	}

	<-ctx.Done()

	p.mu.Lock()
	p.shutdown = true
	p.mu.Unlock()

	p.queue.ShutDown()
	p.wg.Wait()

	p.mu.Lock()
	for ch := range p.pending {
		delete(p.pending, ch)
		ch <- encodeResult{err: ErrTokenizationFailed{Message: "tokenization pool is shut down"}}
		close(ch)
	}
	p.mu.Unlock()
}

// Submit enqueues a tokenization task and blocks until its result is
// available. Tasks are never cancelled once enqueued; the pool delivers
// exactly one result (tokens or error) per task.
func (p *Pool) Submit(requestID, text string, lora *adapters.LoRARequest) ([]int, error) {
	resultCh := make(chan encodeResult, 1)
	task := encodeTask{
		requestID: requestID,
		text:      text,
		lora:      lora,
		resultCh:  resultCh,
	}

	// Acceptance and shutdown are ordered under mu: a task registered here is
	// either processed by a worker or swept by Run, never silently dropped.
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return nil, ErrTokenizationFailed{Message: "tokenization pool is shut down"}
	}
	p.pending[task.resultCh] = struct{}{}
	p.queue.Add(task)
	p.mu.Unlock()

	res := <-resultCh
	return res.tokens, res.err
}

// deliver sends the task's single result and retires it. Duplicate delivery
// attempts are no-ops.
func (p *Pool) deliver(task encodeTask, res encodeResult) {
	p.mu.Lock()
	if _, ok := p.pending[task.resultCh]; !ok {
		p.mu.Unlock()
		return
	}
	delete(p.pending, task.resultCh)
	p.mu.Unlock()

	task.resultCh <- res
	close(task.resultCh)
}

func (p *Pool) workerLoop() {
	defer p.wg.Done()

	for {
		task, shutdown := p.queue.Get()
		if shutdown {
			return
		}

		// Workers use a background context: once a task is dispatched it runs
		// to completion, transport timeouts are the tokenizer's own concern.
		tokens, err := p.encode(context.Background(), task.requestID, task.text, task.lora)
		switch {
		case err == nil:
			p.deliver(task, encodeResult{tokens: tokens})
			p.queue.Forget(task)
		case p.queue.ShuttingDown():
			// A requeue would be dropped by the shut-down queue; the caller
			// gets the error instead of another attempt.
			p.deliver(task, encodeResult{err: err})
			p.queue.Forget(task)
		case p.queue.NumRequeues(task) < maxTaskRetries:
			p.queue.AddRateLimited(task)
		default:
			klog.Errorf("Dropping tokenization task for request %s after %d retries: %v",
				task.requestID, maxTaskRetries, err)
			p.deliver(task, encodeResult{err: err})
			p.queue.Forget(task)
		}
		p.queue.Done(task)
	}
}

package syncqueue

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Executor runs jobs on a fixed pool of shard workers. Jobs submitted with
// the same key land on the same shard and therefore run strictly in
// submission order; jobs on different shards run concurrently. Each job is
// retried with exponential backoff until it succeeds, its context is
// cancelled, or MaxAttempts is exhausted.
type Executor struct {
	cfg    Config
	queues []chan queued

	done   chan struct{} // closed in Stop()
	closed uint32        // 0 running, 1 closed

	wg sync.WaitGroup
}

type queued struct {
	ctx context.Context
	job Job
}

// NewExecutor starts cfg.Shards worker goroutines.
func NewExecutor(cfg Config) *Executor {
	cfg.applyDefaults()
	e := &Executor{
		cfg:    cfg,
		queues: make([]chan queued, cfg.Shards),
		done:   make(chan struct{}),
	}
	for i := range e.queues {
		e.queues[i] = make(chan queued, cfg.QueueSize)
		e.wg.Add(1)
		go e.worker(i)
	}
	return e
}

// Submit enqueues a job on the shard derived from key. It blocks up to
// EnqueueTimeout when the shard queue is full, then reports back-pressure
// with a QueueFullError. A Stop racing a blocked Submit unblocks it with
// ErrExecutorClosed; the shard queues themselves are never closed, so a
// Submit can never panic.
func (e *Executor) Submit(ctx context.Context, key string, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if atomic.LoadUint32(&e.closed) == 1 {
		return ErrExecutorClosed
	}
	// The flag may flip between the load above and the send below; the done
	// branch of the select covers that window.
	select {
	case <-e.done:
		return ErrExecutorClosed
	default:
	}

	shard := e.shardFor(key)
	q := e.queues[shard]

	timer := time.NewTimer(e.cfg.EnqueueTimeout)
	defer timer.Stop()
	select {
	case q <- queued{ctx: ctx, job: job}:
		submissionsTotal.WithLabelValues(labelFor(shard)).Inc()
		return nil
	case <-e.done:
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(labelFor(shard)).Inc()
		return &QueueFullError{Shard: shard, Length: len(q), Capacity: cap(q)}
	}
}

// Stop signals every worker to drain its queue and waits for them to finish.
// Idempotent and safe for concurrent use; Submit calls after (or racing) Stop
// fail with ErrExecutorClosed.
func (e *Executor) Stop() {
	if !atomic.CompareAndSwapUint32(&e.closed, 0, 1) {
		return
	}
	close(e.done)
	e.wg.Wait()
}

func (e *Executor) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(e.queues)))
}

func (e *Executor) worker(shard int) {
	defer e.wg.Done()
	label := labelFor(shard)
	q := e.queues[shard]

	for {
		select {
		case item := <-q:
			e.runJob(label, item)
			queueDepth.WithLabelValues(label).Set(float64(len(q)))

		case <-e.done:
			// Drain what is already queued, preserving FIFO, then exit.
			for {
				select {
				case item := <-q:
					e.runJob(label, item)
				default:
					queueDepth.WithLabelValues(label).Set(0)
					return
				}
			}
		}
	}
}

func (e *Executor) runJob(label string, item queued) {
	if item.job == nil {
		return
	}
	if err := item.ctx.Err(); err != nil {
		e.handleError(err)
		return
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = e.cfg.BaseBackoff
	exp.MaxInterval = e.cfg.MaxInterval
	exp.Reset()

	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := item.job.Run(item.ctx)
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

		if err == nil {
			return
		}
		if attempt >= e.cfg.MaxAttempts {
			e.handleError(err)
			return
		}
		// Back off before the next attempt, but let Stop and the job's own
		// context cut the wait short.
		select {
		case <-time.After(exp.NextBackOff()):
		case <-e.done:
			e.handleError(err)
			return
		case <-item.ctx.Done():
			e.handleError(item.ctx.Err())
			return
		}
	}
}

func (e *Executor) handleError(err error) {
	if err == nil || e.cfg.ErrorHandler == nil {
		return
	}
	e.cfg.ErrorHandler(err)
}

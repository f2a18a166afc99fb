package engine

import (
	"context"
	"sync"
	"time"

	"github.com/saworbit/orbit-sub003/internal/orbiterr"
	"github.com/saworbit/orbit-sub003/internal/ratelimit"
	"github.com/saworbit/orbit-sub003/internal/resilience"
	"github.com/saworbit/orbit-sub003/internal/resume"
)

// Dispatcher delivers one chunk's bytes to its destination. The engine
// only depends on this interface so the dispatch loop is agnostic to
// transport; cmd/orbitd's chunkDispatcher is the implementation it is
// wired with.
type Dispatcher interface {
	Dispatch(ctx context.Context, item *ChunkWorkItem) error
}

// Hooks lets a caller observe dispatch-loop events without the engine
// depending on internal/audit or internal/bulletin directly.
type Hooks struct {
	OnChunkTransferred  func(item *ChunkWorkItem)
	OnChunkDeadLettered func(item *ChunkWorkItem, reason resilience.FailureReason)
	OnCheckpoint        func(bytesCopied int64)
}

// Engine wires the prioritised queue, penalty box, dead-letter queue,
// backpressure guard, throttle, and concurrency semaphore into the
// dispatch loop.
type Engine struct {
	Dispatcher         Dispatcher
	PenaltyBox         *resilience.PenaltyBox
	DeadLetters        *resilience.DeadLetterQueue
	Backpressure       *resilience.BackpressureGuard
	Throttle           *ratelimit.Throttle
	Semaphore          *Semaphore
	Hooks              Hooks
	CheckpointInterval time.Duration
}

// NewEngine builds an Engine with sensible defaults: a default
// penalty box, a default-capacity DLQ, an unbounded backpressure guard
// (callers needing a bound should replace it), no throttle, and an
// auto-sized semaphore.
func NewEngine(dispatcher Dispatcher) *Engine {
	return &Engine{
		Dispatcher:         dispatcher,
		PenaltyBox:         resilience.NewPenaltyBox(resilience.DefaultPenaltyBoxConfig()),
		DeadLetters:        resilience.NewDeadLetterQueue(resilience.DefaultDeadLetterCapacity),
		Backpressure:       resilience.NewBackpressureGuard(1<<62, 1<<62),
		Semaphore:          NewSemaphore(0),
		CheckpointInterval: resume.CheckpointInterval,
	}
}

// RunJob drains queue against job, dispatching eligible items subject
// to backpressure and the penalty box, and routing exhausted or
// permanent failures to the dead-letter queue. It returns the first
// error encountered when job.Mode is ModeAbort; otherwise it always
// returns nil, with failures recorded in DeadLetters instead.
func (e *Engine) RunJob(ctx context.Context, job *TransferJob, queue *WorkQueue) error {
	if err := job.TransitionTo(JobRunning, ""); err != nil {
		return err
	}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		bytesCopied int64
		firstErr    error
		inflight    int
	)

	ticker := time.NewTicker(e.checkpointInterval())
	defer ticker.Stop()
	stopCheckpoints := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				mu.Lock()
				n := bytesCopied
				mu.Unlock()
				if e.Hooks.OnCheckpoint != nil {
					e.Hooks.OnCheckpoint(n)
				}
			case <-stopCheckpoints:
				return
			}
		}
	}()

	backoff := backpressureMinBackoff
	for {
		mu.Lock()
		empty := queue.Len() == 0
		idle := inflight == 0
		aborted := firstErr != nil && job.Mode == ModeAbort
		mu.Unlock()
		if (empty && idle) || aborted {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if empty {
			// A dispatch still in flight may re-queue its item for retry.
			time.Sleep(time.Millisecond)
			continue
		}
		if !e.Backpressure.CanAccept() {
			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > backpressureMaxBackoff {
				backoff = backpressureMaxBackoff
			}
			continue
		}
		backoff = backpressureMinBackoff

		mu.Lock()
		item := queue.Pop()
		mu.Unlock()
		key := dispatchKey(job.ID, item.Index)
		if !e.PenaltyBox.IsEligible(key) {
			mu.Lock()
			queue.Push(item)
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			continue
		}

		e.Semaphore.Acquire()
		e.Backpressure.RecordEnqueue(1, item.Length)
		mu.Lock()
		inflight++
		mu.Unlock()
		wg.Add(1)
		go func(item *ChunkWorkItem) {
			defer wg.Done()
			defer func() { mu.Lock(); inflight--; mu.Unlock() }()
			defer e.Semaphore.Release()
			defer e.Backpressure.RecordDequeue(1, item.Length)

			if err := e.Throttle.Wait(ctx, int(item.Length)); err != nil {
				return
			}

			err := e.Dispatcher.Dispatch(ctx, item)
			if err == nil {
				mu.Lock()
				bytesCopied += item.Length
				mu.Unlock()
				e.PenaltyBox.Clear(key)
				if e.Hooks.OnChunkTransferred != nil {
					e.Hooks.OnChunkTransferred(item)
				}
				return
			}

			reason := reasonFor(err)
			if orbiterr.Retryable(err) {
				if exhausted := e.PenaltyBox.Penalize(key); !exhausted {
					mu.Lock()
					queue.Push(item)
					mu.Unlock()
					return
				}
				reason = resilience.RetriesExhausted
			}

			e.DeadLetters.Push(resilience.DeadLetterEntry{
				ItemKey:      key,
				JobID:        job.ID,
				Reason:       reason,
				LastError:    err.Error(),
				LastFailedAt: time.Now().Unix(),
			})
			if e.Hooks.OnChunkDeadLettered != nil {
				e.Hooks.OnChunkDeadLettered(item, reason)
			}

			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}(item)
	}

	wg.Wait()
	close(stopCheckpoints)

	if firstErr != nil && job.Mode == ModeAbort {
		_ = job.TransitionTo(JobFailed, firstErr.Error())
		return firstErr
	}
	if e.DeadLetters.Len() > 0 && job.Mode == ModeAbort {
		_ = job.TransitionTo(JobFailed, "items dead-lettered under abort mode")
		return orbiterr.New(orbiterr.Permanent, "engine.RunJob", errDeadLettersUnderAbort)
	}

	return job.TransitionTo(JobCompleted, "")
}

// Backpressure is polled rather than waited on: the guard is two
// relaxed atomics with no notification primitive, so the dispatcher
// backs off in short doubling sleeps until a dequeue frees capacity.
const (
	backpressureMinBackoff = 1 * time.Millisecond
	backpressureMaxBackoff = 100 * time.Millisecond
)

func (e *Engine) checkpointInterval() time.Duration {
	if e.CheckpointInterval > 0 {
		return e.CheckpointInterval
	}
	return resume.CheckpointInterval
}

func reasonFor(err error) resilience.FailureReason {
	switch orbiterr.KindOf(err) {
	case orbiterr.IntegrityMismatch:
		return resilience.ChecksumMismatch
	case orbiterr.Corruption:
		return resilience.DataCorruption
	case orbiterr.ResourceExhaustion:
		return resilience.DestinationError
	default:
		return resilience.PermanentError
	}
}

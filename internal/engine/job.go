// Package engine implements Orbit's transfer orchestration loop:
// per-file job state, a prioritised chunk work queue,
// the dispatch loop consulting resume decisions, penalty-box retry,
// dead-lettering, throttling, and a bounded worker concurrency gate.
package engine

import (
	"sync"
	"time"

	"github.com/saworbit/orbit-sub003/internal/orbiterr"
)

// JobState is the closed set of states a TransferJob moves through.
type JobState int

const (
	JobPending JobState = iota + 1
	JobRunning
	JobPaused
	JobCompleted
	JobFailed
)

func (s JobState) String() string {
	switch s {
	case JobPending:
		return "Pending"
	case JobRunning:
		return "Running"
	case JobPaused:
		return "Paused"
	case JobCompleted:
		return "Completed"
	case JobFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// FailureMode controls how the engine reacts to a permanent per-item
// failure.
type FailureMode int

const (
	// ModeAbort stops the whole job on the first error.
	ModeAbort FailureMode = iota + 1
	// ModeSkip continues past the failed item, recording it.
	ModeSkip
	// ModePartial continues and keeps partial destination files so a
	// later run can resume them.
	ModePartial
)

// TransferJob tracks one file transfer's lifecycle through an explicit
// validTransitions map guarding TransitionTo across the
// Pending/Running/Paused/Completed/Failed vocabulary. TransferJob
// carries no transfer-rate sampling of its own; that concern belongs
// to internal/bulletin once progress events are published.
type TransferJob struct {
	ID         string
	SourcePath string
	DestPath   string
	Size       int64
	Mode       FailureMode

	mu           sync.RWMutex
	state        JobState
	errorMessage string
	updatedAt    time.Time
}

// NewTransferJob creates a job in JobPending.
func NewTransferJob(id, sourcePath, destPath string, size int64, mode FailureMode) *TransferJob {
	return &TransferJob{
		ID:         id,
		SourcePath: sourcePath,
		DestPath:   destPath,
		Size:       size,
		Mode:       mode,
		state:      JobPending,
		updatedAt:  time.Now(),
	}
}

var validJobTransitions = map[JobState][]JobState{
	JobPending:   {JobRunning, JobFailed},
	JobRunning:   {JobPaused, JobCompleted, JobFailed},
	JobPaused:    {JobRunning, JobFailed},
	JobCompleted: {},
	JobFailed:    {},
}

// TransitionTo moves the job to newState, rejecting any transition not
// present in validJobTransitions.
func (j *TransferJob) TransitionTo(newState JobState, errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	allowed := validJobTransitions[j.state]
	ok := false
	for _, s := range allowed {
		if s == newState {
			ok = true
			break
		}
	}
	if !ok {
		return orbiterr.New(orbiterr.Permanent, "engine.TransitionTo", errInvalidTransition(j.state, newState))
	}

	j.state = newState
	j.updatedAt = time.Now()
	if errMsg != "" {
		j.errorMessage = errMsg
	}
	return nil
}

// State returns the job's current state.
func (j *TransferJob) State() JobState {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// ErrorMessage returns the last error recorded against the job, if any.
func (j *TransferJob) ErrorMessage() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.errorMessage
}

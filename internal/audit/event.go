// Package audit implements Orbit's unified event logging and
// forensic hash-chain verification.
package audit

import "time"

// EventKind enumerates every OrbitEvent variant.
// The taxonomy is non-exhaustive; Custom carries anything
// not worth a dedicated kind.
type EventKind string

const (
	JobStart          EventKind = "JobStart"
	JobComplete       EventKind = "JobComplete"
	JobFailed         EventKind = "JobFailed"
	FileStart         EventKind = "FileStart"
	FileProgress      EventKind = "FileProgress"
	FileComplete      EventKind = "FileComplete"
	FileFailed        EventKind = "FileFailed"
	BackendRead       EventKind = "BackendRead"
	BackendWrite      EventKind = "BackendWrite"
	BackendList       EventKind = "BackendList"
	ChunkCreated      EventKind = "ChunkCreated"
	ChunkDeduplicated EventKind = "ChunkDeduplicated"
	ChunkTransferred  EventKind = "ChunkTransferred"
	ChunkVerified     EventKind = "ChunkVerified"
	ChunkHealed       EventKind = "ChunkHealed"
	ChunkPenalized    EventKind = "ChunkPenalized"
	ChunkDeadLettered EventKind = "ChunkDeadLettered"
	ChunkPacked       EventKind = "ChunkPacked"
	SpanStart         EventKind = "SpanStart"
	SpanEnd           EventKind = "SpanEnd"
	Custom            EventKind = "Custom"
)

// OrbitEvent is the single event envelope every component emits
// through a UnifiedLogger. Sequence and Hash/PrevHash are stamped by
// the logger, not the caller.
type OrbitEvent struct {
	Sequence     uint64            `json:"sequence"`
	Timestamp    time.Time         `json:"timestamp"`
	Kind         EventKind         `json:"kind"`
	TraceID      string            `json:"trace_id,omitempty"`
	SpanID       string            `json:"span_id,omitempty"`
	ParentSpanID string            `json:"parent_span_id,omitempty"`
	JobID        string            `json:"job_id,omitempty"`
	FileID       string            `json:"file_id,omitempty"`
	SessionID    string            `json:"session_id,omitempty"`
	Message      string            `json:"message,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
	PrevHash     string            `json:"prev_hash"`
	Hash         string            `json:"hash"`
}

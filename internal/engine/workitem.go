package engine

import "time"

// SemanticTier ranks a chunk's business importance, highest first
// (P0 down to P2 bulk).
type SemanticTier uint8

const (
	TierCritical SemanticTier = iota
	TierPreview
	TierBulk
)

// ChunkWorkItem is one unit of dispatchable work in a job's queue.
type ChunkWorkItem struct {
	JobID     string
	ChunkHash [32]byte
	Index     int64
	Length    int64
	Tier      SemanticTier
	QueuedAt  time.Time
}

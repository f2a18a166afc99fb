// Package bulletin implements Orbit's bulletin board:
// a bounded ring buffer of human-readable status posts, queryable by
// severity, source, category, and job. It is a sink for dashboards and
// REST endpoints, not a stream participants block on.
package bulletin

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Severity is the closed three-level lattice:
// Info < Warning < Error.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// DefaultCapacity is the board's default ring-buffer size.
const DefaultCapacity = 500

// Post is one entry on the board.
type Post struct {
	Sequence  uint64
	Timestamp time.Time
	Severity  Severity
	Source    string // component that posted, e.g. "engine", "wormhole"
	Category  string // free-form sub-classification, e.g. "chunk", "disk"
	JobID     string
	Message   string
}

// Filter narrows a Query. A zero-value field matches anything.
type Filter struct {
	MinSeverity Severity
	Source      string
	Category    string
	JobID       string
}

func (f Filter) matches(p Post) bool {
	if p.Severity < f.MinSeverity {
		return false
	}
	if f.Source != "" && p.Source != f.Source {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.JobID != "" && p.JobID != f.JobID {
		return false
	}
	return true
}

// Board is a bounded ring buffer of Posts. Reads take the read lock
// only (multiple readers proceed concurrently); appends take the
// write lock, matching EventPublisher's RWMutex discipline.
type Board struct {
	mu       sync.RWMutex
	capacity int
	posts    []Post
	next     uint64
	now      func() time.Time
}

// New creates a Board bounded at capacity posts. A non-positive
// capacity uses DefaultCapacity.
func New(capacity int) *Board {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Board{
		capacity: capacity,
		posts:    make([]Post, 0, capacity),
		now:      time.Now,
	}
}

// Post appends p to the board, stamping Sequence and Timestamp, and
// evicts the oldest entry once the board is at capacity.
func (b *Board) Post(p Post) Post {
	b.mu.Lock()
	defer b.mu.Unlock()

	p.Sequence = b.next
	b.next++
	p.Timestamp = b.now().UTC()

	if len(b.posts) >= b.capacity {
		copy(b.posts, b.posts[1:])
		b.posts = b.posts[:len(b.posts)-1]
	}
	b.posts = append(b.posts, p)
	return p
}

// Postf is a convenience wrapper that formats message with a
// human-readable byte count appended, for size-bearing posts (e.g.
// "dead-lettered 3 chunks (1.2 MB)").
func (b *Board) Postf(severity Severity, source, category, jobID, message string, bytes int64) Post {
	if bytes > 0 {
		message = message + " (" + humanize.Bytes(uint64(bytes)) + ")"
	}
	return b.Post(Post{Severity: severity, Source: source, Category: category, JobID: jobID, Message: message})
}

// Query returns every post matching filter, oldest first, the order
// posts were appended in.
func (b *Board) Query(filter Filter) []Post {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Post, 0, len(b.posts))
	for _, p := range b.posts {
		if filter.matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Len reports the number of posts currently retained.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.posts)
}

// Age renders how long ago p was posted, using the humanize.Time
// idiom for "3 minutes ago"-style relative timestamps.
func Age(p Post) string {
	return humanize.Time(p.Timestamp)
}

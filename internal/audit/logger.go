package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// genesisHash seeds the chain for the first event in a log.
const genesisHash = "genesis"

// UnifiedLogger is the single sink every Orbit component writes
// OrbitEvents through. Each event is appended to out as one JSON
// line and additionally mirrored to a zerolog logger for console/
// aggregator consumption.
//
// Every event's Hash is HMAC-SHA256(secret, prevHash ||
// canonicalJSON(event)), chaining it to the event before it: the same
// transcript-binding construction a handshake uses, applied across a
// whole log.
type UnifiedLogger struct {
	mu       sync.Mutex
	secret   []byte
	out      io.Writer
	console  zerolog.Logger
	seq      uint64
	prevHash string
	now      func() time.Time
}

// NewUnifiedLogger creates a logger that appends JSON-lines events to
// out and mirrors them as structured console logs via console.
func NewUnifiedLogger(secret []byte, out io.Writer, console zerolog.Logger) *UnifiedLogger {
	return &UnifiedLogger{
		secret:   secret,
		out:      out,
		console:  console,
		prevHash: genesisHash,
		now:      time.Now,
	}
}

// Log stamps e with the next sequence number, timestamp, and hash
// chain link, writes it to the backing log, and returns the stamped
// copy so callers (and tests) can inspect the assigned hash.
func (l *UnifiedLogger) Log(e OrbitEvent) (OrbitEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.Sequence = l.seq
	e.Timestamp = l.now().UTC()
	e.PrevHash = l.prevHash
	e.Hash = ""

	digest, err := l.computeHash(e)
	if err != nil {
		return OrbitEvent{}, fmt.Errorf("audit: compute hash: %w", err)
	}
	e.Hash = digest

	line, err := json.Marshal(e)
	if err != nil {
		return OrbitEvent{}, fmt.Errorf("audit: marshal event: %w", err)
	}
	line = append(line, '\n')
	if _, err := l.out.Write(line); err != nil {
		return OrbitEvent{}, fmt.Errorf("audit: write event: %w", err)
	}

	l.mirror(e)

	l.seq++
	l.prevHash = e.Hash
	return e, nil
}

func (l *UnifiedLogger) computeHash(e OrbitEvent) (string, error) {
	return chainHash(e, l.secret)
}

// chainHash computes HMAC-SHA256(secret, e.PrevHash || canonicalJSON(e))
// with e.Hash cleared first, so the hash never depends on itself. Used
// by both UnifiedLogger.Log (to stamp a new event) and Verify (to
// recompute what a stamped event's hash should be).
func chainHash(e OrbitEvent, secret []byte) (string, error) {
	e.Hash = ""
	body, err := canonicalJSON(e)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(e.PrevHash))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func (l *UnifiedLogger) mirror(e OrbitEvent) {
	evt := l.console.Info()
	if e.JobID != "" {
		evt = evt.Str("job_id", e.JobID)
	}
	if e.FileID != "" {
		evt = evt.Str("file_id", e.FileID)
	}
	if e.SessionID != "" {
		evt = evt.Str("session_id", e.SessionID)
	}
	for k, v := range e.Fields {
		evt = evt.Str(k, v)
	}
	evt.Str("kind", string(e.Kind)).Uint64("sequence", e.Sequence).Msg(e.Message)
}

// Emit is a convenience wrapper around Log for the common case of a
// kind, correlation IDs, a message, and optional fields.
func (l *UnifiedLogger) Emit(kind EventKind, jobID, fileID, sessionID, message string, fields map[string]string) (OrbitEvent, error) {
	return l.Log(OrbitEvent{
		Kind:      kind,
		JobID:     jobID,
		FileID:    fileID,
		SessionID: sessionID,
		Message:   message,
		Fields:    fields,
	})
}

package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// VerifyResult is the outcome of walking an audit log with Verify.
type VerifyResult struct {
	Valid      bool
	EventsRead uint64
	// FailedAt is the sequence number of the first event that failed
	// verification. Only meaningful when Valid is false.
	FailedAt uint64
	// Reason is a short, human-readable description of why FailedAt
	// failed. Only meaningful when Valid is false.
	Reason string
}

// Verify re-walks a JSON-Lines audit log with secret and reports
// whether it is tamper-free: every event's Hash must match
// HMAC-SHA256(secret, prevHash || canonicalJSON(event)) with prevHash
// equal to the previous line's Hash (genesisHash for the first line),
// and Sequence must be gap-free and strictly increasing starting at 0.
// Any modification, deletion, insertion, or reordering of lines
// surfaces as the earliest sequence number it affects.
func Verify(r io.Reader, secret []byte) (VerifyResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	prevHash := genesisHash
	wantSeq := uint64(0)
	var count uint64

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e OrbitEvent
		if err := json.Unmarshal(line, &e); err != nil {
			return VerifyResult{Valid: false, EventsRead: count, FailedAt: wantSeq,
				Reason: fmt.Sprintf("malformed event: %v", err)}, nil
		}
		if e.Sequence != wantSeq {
			return VerifyResult{Valid: false, EventsRead: count, FailedAt: wantSeq,
				Reason: fmt.Sprintf("sequence gap: expected %d, got %d", wantSeq, e.Sequence)}, nil
		}
		if e.PrevHash != prevHash {
			return VerifyResult{Valid: false, EventsRead: count, FailedAt: e.Sequence,
				Reason: "prev_hash does not chain to the preceding event"}, nil
		}
		claimed := e.Hash
		expected, err := chainHash(e, secret)
		if err != nil {
			return VerifyResult{}, fmt.Errorf("audit: verify sequence %d: %w", e.Sequence, err)
		}
		if claimed != expected {
			return VerifyResult{Valid: false, EventsRead: count, FailedAt: e.Sequence,
				Reason: "hash mismatch"}, nil
		}

		prevHash = claimed
		wantSeq++
		count++
	}
	if err := scanner.Err(); err != nil {
		return VerifyResult{}, fmt.Errorf("audit: read log: %w", err)
	}
	return VerifyResult{Valid: true, EventsRead: count}, nil
}

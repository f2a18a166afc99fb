package p2pdata

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/saworbit/orbit-sub003/internal/control"
	"github.com/saworbit/orbit-sub003/internal/orbiterr"
)

func writeTempFile(t *testing.T, contents []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.bin")
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestReadStreamSucceeds(t *testing.T) {
	secret := []byte("grid-secret")
	contents := bytes.Repeat([]byte("x"), ChunkSize+10)
	path := writeTempFile(t, contents)

	tok, _ := control.IssueToken(secret, path, "coordinator-1", time.Hour, time.Now())
	s := NewStreamServer(secret)

	var buf bytes.Buffer
	if err := s.ReadStream(context.Background(), &buf, path, tok); err != nil {
		t.Fatalf("ReadStream: %v", err)
	}

	fr := NewFrameReader(&buf, nil)
	got, err := io.ReadAll(fr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, contents) {
		t.Fatalf("expected %d bytes back, got %d", len(contents), len(got))
	}
}

func TestReadStreamRejectsBadToken(t *testing.T) {
	secret := []byte("grid-secret")
	path := writeTempFile(t, []byte("data"))
	tok, _ := control.IssueToken([]byte("wrong-secret"), path, "coordinator-1", time.Hour, time.Now())

	s := NewStreamServer(secret)
	var buf bytes.Buffer
	err := s.ReadStream(context.Background(), &buf, path, tok)
	if orbiterr.KindOf(err) != orbiterr.PolicyViolation {
		t.Fatalf("expected PolicyViolation, got %v", err)
	}
}

func TestReadStreamRejectsPathMismatch(t *testing.T) {
	secret := []byte("grid-secret")
	path := writeTempFile(t, []byte("data"))
	tok, _ := control.IssueToken(secret, "/some/other/path", "coordinator-1", time.Hour, time.Now())

	s := NewStreamServer(secret)
	var buf bytes.Buffer
	err := s.ReadStream(context.Background(), &buf, path, tok)
	if orbiterr.KindOf(err) != orbiterr.PolicyViolation {
		t.Fatalf("expected PolicyViolation, got %v", err)
	}
}

func TestReadStreamReportsNotFound(t *testing.T) {
	secret := []byte("grid-secret")
	missing := filepath.Join(t.TempDir(), "does-not-exist.bin")
	tok, _ := control.IssueToken(secret, missing, "coordinator-1", time.Hour, time.Now())

	s := NewStreamServer(secret)
	var buf bytes.Buffer
	err := s.ReadStream(context.Background(), &buf, missing, tok)
	if orbiterr.KindOf(err) != orbiterr.Permanent {
		t.Fatalf("expected Permanent, got %v", err)
	}
}

func TestReadStreamCancelledContextReturnsCancelled(t *testing.T) {
	secret := []byte("grid-secret")
	contents := bytes.Repeat([]byte("y"), ChunkSize*8)
	path := writeTempFile(t, contents)
	tok, _ := control.IssueToken(secret, path, "coordinator-1", time.Hour, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewStreamServer(secret)
	var buf blockingWriter
	err := s.ReadStream(ctx, &buf, path, tok)
	if orbiterr.KindOf(err) != orbiterr.Cancelled {
		t.Fatalf("expected Cancelled, got %v", err)
	}
}

// blockingWriter discards writes, simulating a transport that never
// reports backpressure so the cancellation path (not a write error)
// is what ends ReadStream.
type blockingWriter struct{}

func (blockingWriter) Write(p []byte) (int, error) { return len(p), nil }

package control

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/saworbit/orbit-sub003/internal/hashing"
	"github.com/saworbit/orbit-sub003/internal/orbiterr"
)

type fakeValidator struct{ err error }

func (f fakeValidator) ValidateSession(ctx context.Context, sourceURL string, tok *CapabilityToken) error {
	return f.err
}

type fakeStreamer struct {
	body []byte
	err  error
}

func (f fakeStreamer) OpenStream(ctx context.Context, sourceURL, remotePath string, tok *CapabilityToken) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(bytes.NewReader(f.body)), nil
}

func TestReplicateFileSucceeds(t *testing.T) {
	body := []byte("grid payload over the wire")
	h := hashing.NewStreamHasher()
	h.Write(body)
	digest := h.Sum()

	dir := t.TempDir()
	localPath := filepath.Join(dir, "out.bin")

	now := time.Unix(1700000000, 0)
	tok, _ := IssueToken([]byte("secret"), "/remote/file", "coordinator-1", time.Hour, now)

	resp, err := ReplicateFile(
		context.Background(),
		fakeValidator{},
		fakeStreamer{body: body},
		"source-1", "/remote/file", localPath,
		tok, int64(len(body)), &digest,
	)
	if err != nil {
		t.Fatalf("ReplicateFile: %v", err)
	}
	if resp.BytesTransferred != int64(len(body)) {
		t.Fatalf("expected %d bytes, got %d", len(body), resp.BytesTransferred)
	}
	if resp.Checksum != digest {
		t.Fatal("expected returned checksum to match source digest")
	}
}

func TestReplicateFileRejectsUnvalidatedSession(t *testing.T) {
	dir := t.TempDir()
	localPath := filepath.Join(dir, "out.bin")
	tok, _ := IssueToken([]byte("secret"), "/remote/file", "coordinator-1", time.Hour, time.Unix(1700000000, 0))

	_, err := ReplicateFile(
		context.Background(),
		fakeValidator{err: errSessionNotAdmitted},
		fakeStreamer{body: []byte("x")},
		"source-1", "/remote/file", localPath,
		tok, 1, nil,
	)
	if err == nil {
		t.Fatal("expected an error when session validation fails")
	}
	if orbiterr.KindOf(err) != orbiterr.PolicyViolation {
		t.Fatalf("expected PolicyViolation, got %s", orbiterr.KindOf(err))
	}
}

func TestReplicateFileDetectsSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	localPath := filepath.Join(dir, "out.bin")
	tok, _ := IssueToken([]byte("secret"), "/remote/file", "coordinator-1", time.Hour, time.Unix(1700000000, 0))

	_, err := ReplicateFile(
		context.Background(),
		fakeValidator{},
		fakeStreamer{body: []byte("short")},
		"source-1", "/remote/file", localPath,
		tok, 999, nil,
	)
	if err == nil {
		t.Fatal("expected a size mismatch error")
	}
	if orbiterr.KindOf(err) != orbiterr.IntegrityMismatch {
		t.Fatalf("expected IntegrityMismatch, got %s", orbiterr.KindOf(err))
	}
}

func TestReplicateFileDetectsChecksumMismatch(t *testing.T) {
	body := []byte("grid payload over the wire")
	dir := t.TempDir()
	localPath := filepath.Join(dir, "out.bin")
	tok, _ := IssueToken([]byte("secret"), "/remote/file", "coordinator-1", time.Hour, time.Unix(1700000000, 0))

	var wrongDigest hashing.Digest
	_, err := ReplicateFile(
		context.Background(),
		fakeValidator{},
		fakeStreamer{body: body},
		"source-1", "/remote/file", localPath,
		tok, int64(len(body)), &wrongDigest,
	)
	if err == nil {
		t.Fatal("expected a checksum mismatch error")
	}
	if orbiterr.KindOf(err) != orbiterr.IntegrityMismatch {
		t.Fatalf("expected IntegrityMismatch, got %s", orbiterr.KindOf(err))
	}
}

func TestReplicateFilePropagatesStreamOpenFailure(t *testing.T) {
	dir := t.TempDir()
	localPath := filepath.Join(dir, "out.bin")
	tok, _ := IssueToken([]byte("secret"), "/remote/file", "coordinator-1", time.Hour, time.Unix(1700000000, 0))

	_, err := ReplicateFile(
		context.Background(),
		fakeValidator{},
		fakeStreamer{err: io.ErrUnexpectedEOF},
		"source-1", "/remote/file", localPath,
		tok, 1, nil,
	)
	if err == nil {
		t.Fatal("expected stream open failure to propagate")
	}
	if orbiterr.KindOf(err) != orbiterr.Transient {
		t.Fatalf("expected Transient, got %s", orbiterr.KindOf(err))
	}
}

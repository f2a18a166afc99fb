package control

import (
	"context"
	"io"
	"os"

	"github.com/saworbit/orbit-sub003/internal/hashing"
	"github.com/saworbit/orbit-sub003/internal/orbiterr"
)

// SessionValidator confirms a destination's session with the
// coordinator out-of-band from token validation.
type SessionValidator interface {
	ValidateSession(ctx context.Context, sourceURL string, tok *CapabilityToken) error
}

// SourceStreamer opens a read stream to remotePath on the named
// source, presenting tok for authorisation.
type SourceStreamer interface {
	OpenStream(ctx context.Context, sourceURL, remotePath string, tok *CapabilityToken) (io.ReadCloser, error)
}

// ReplicateResponse reports what ReplicateFile actually wrote.
type ReplicateResponse struct {
	BytesTransferred int64
	Checksum         hashing.Digest
}

// ReplicateFile implements the replicate_file operation:
// validate the session, open an authenticated stream to the source,
// write it to localPath, then verify size and (if provided) checksum.
func ReplicateFile(
	ctx context.Context,
	validator SessionValidator,
	streamer SourceStreamer,
	sourceURL, remotePath, localPath string,
	tok *CapabilityToken,
	expectedSize int64,
	expectedChecksum *hashing.Digest,
) (*ReplicateResponse, error) {
	if err := validator.ValidateSession(ctx, sourceURL, tok); err != nil {
		return nil, orbiterr.New(orbiterr.PolicyViolation, "control.ReplicateFile", err)
	}

	stream, err := streamer.OpenStream(ctx, sourceURL, remotePath, tok)
	if err != nil {
		return nil, orbiterr.New(orbiterr.Transient, "control.ReplicateFile", err)
	}
	defer stream.Close()

	out, err := os.Create(localPath)
	if err != nil {
		return nil, orbiterr.New(orbiterr.Permanent, "control.ReplicateFile", err)
	}
	defer out.Close()

	hasher := hashing.NewStreamHasher()
	written, err := io.Copy(out, io.TeeReader(stream, hasher))
	if err != nil {
		return nil, orbiterr.New(orbiterr.Transient, "control.ReplicateFile", err)
	}

	if written != expectedSize {
		return nil, orbiterr.New(orbiterr.IntegrityMismatch, "control.ReplicateFile", errSizeMismatch)
	}

	digest := hasher.Sum()
	if expectedChecksum != nil && digest != *expectedChecksum {
		return nil, orbiterr.New(orbiterr.IntegrityMismatch, "control.ReplicateFile", errChecksumMismatch)
	}

	return &ReplicateResponse{BytesTransferred: written, Checksum: digest}, nil
}

package engine

import "github.com/saworbit/orbit-sub003/internal/orbiterr"

// VerificationMode selects when chunk digests are checked against the
// manifest.
type VerificationMode int

const (
	// VerifyStreaming checksums each chunk inline during the one-pass
	// buffered copy.
	VerifyStreaming VerificationMode = iota + 1
	// VerifyPostCopy re-reads and checksums the destination after a
	// zero-copy transfer completes (two-pass).
	VerifyPostCopy
	// VerifyNone performs no digest verification.
	VerifyNone
)

// VerificationPolicy names the knobs whose combination determines
// which VerificationMode is legal.
type VerificationPolicy struct {
	ZeroCopy      bool
	Resume        bool
	IntegrityOn   bool
	CompressionOn bool
	RequestedMode VerificationMode
}

// Resolve picks the verification mode consistent with the policy's
// other settings, enforcing the rule that checksum verification
// may never run concurrently with resume.
func Resolve(p VerificationPolicy) (VerificationMode, error) {
	if p.Resume && p.RequestedMode != VerifyNone {
		return 0, orbiterr.New(orbiterr.PolicyViolation, "engine.Resolve",
			errResumeChecksumConflict)
	}

	if p.ZeroCopy && p.IntegrityOn {
		return VerifyPostCopy, nil
	}
	if !p.ZeroCopy && !p.CompressionOn && !p.Resume {
		return VerifyStreaming, nil
	}
	return p.RequestedMode, nil
}

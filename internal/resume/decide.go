package resume

import "os"

// Decision is the outcome of Decide: exactly one of the four
// possible dispositions for a destination file.
type Decision struct {
	Kind     DecisionKind
	Reason   string
	Offset   uint64 // valid when Kind == Resume
	Verified int    // valid when Kind == Resume
}

// DecisionKind enumerates the closed set of resume dispositions.
type DecisionKind int

const (
	StartFresh DecisionKind = iota
	Restart
	Revalidate
	Resume
)

func (k DecisionKind) String() string {
	switch k {
	case StartFresh:
		return "StartFresh"
	case Restart:
		return "Restart"
	case Revalidate:
		return "Revalidate"
	case Resume:
		return "Resume"
	default:
		return "Unknown"
	}
}

// Decide applies the resume decision table to destPath and its
// resume record. present reports whether a resume file existed at
// all; when it does not, the answer is always StartFresh regardless
// of what info holds (the zero value).
func Decide(destPath string, info ResumeInfo, present bool) Decision {
	if !present {
		return Decision{Kind: StartFresh}
	}

	fi, err := os.Stat(destPath)
	if err != nil {
		return Decision{Kind: Restart, Reason: "dest missing"}
	}

	size := uint64(fi.Size())
	if size < info.BytesCopied {
		return Decision{Kind: Restart, Reason: "size mismatch"}
	}
	if info.FileSize != nil && size != *info.FileSize {
		return Decision{Kind: Restart, Reason: "size mismatch"}
	}

	if info.FileMtime != nil {
		mtime := uint64(fi.ModTime().Unix())
		if mtime > *info.FileMtime+uint64(mtimeTolerance.Seconds()) {
			return Decision{Kind: Revalidate, Reason: "mtime newer"}
		}
	}

	return Decision{
		Kind:     Resume,
		Offset:   info.BytesCopied,
		Verified: len(info.VerifiedChunks),
	}
}

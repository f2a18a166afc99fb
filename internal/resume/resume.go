// Package resume implements Orbit's resume state: the
// on-disk record of transfer progress beside each destination file,
// and the decision procedure that turns a stale record plus the
// current state of the destination into StartFresh/Restart/
// Revalidate/Resume.
package resume

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

// Suffix is appended to a destination path to name its resume file.
const Suffix = ".resume"

// ResumeInfo is persisted beside each destination file as
// "<dest>.resume". Chunk digests are recorded only for complete
// chunks; a partial tail chunk relies on the final file checksum
// instead.
type ResumeInfo struct {
	BytesCopied     uint64            `json:"bytes_copied"`
	CompressedBytes *uint64           `json:"compressed_bytes,omitempty"`
	VerifiedChunks  map[uint32]string `json:"verified_chunks"`
	VerifiedWindows []uint32          `json:"verified_windows"`
	FileMtime       *uint64           `json:"file_mtime,omitempty"`
	FileSize        *uint64           `json:"file_size,omitempty"`
}

// Empty returns the zero-value ResumeInfo used whenever no usable
// resume record can be recovered.
func Empty() ResumeInfo {
	return ResumeInfo{VerifiedChunks: map[uint32]string{}}
}

// Path returns the resume-file path for a destination file path.
func Path(destPath string) string {
	return destPath + Suffix
}

// Load reads the resume file for destPath. A missing file is not an
// error: it reports ok=false so callers treat it as StartFresh. A
// present-but-unparseable file (neither valid JSON nor the legacy
// plain-decimal format) falls back to Empty() rather than failing.
func Load(destPath string) (info ResumeInfo, ok bool, err error) {
	raw, readErr := os.ReadFile(Path(destPath))
	if os.IsNotExist(readErr) {
		return ResumeInfo{}, false, nil
	}
	if readErr != nil {
		return ResumeInfo{}, false, readErr
	}

	var parsed ResumeInfo
	if jsonErr := json.Unmarshal(raw, &parsed); jsonErr == nil {
		if parsed.VerifiedChunks == nil {
			parsed.VerifiedChunks = map[uint32]string{}
		}
		return parsed, true, nil
	}

	if legacy, legacyErr := parseLegacy(raw); legacyErr == nil {
		return legacy, true, nil
	}

	return Empty(), true, nil
}

// parseLegacy accepts the old single-decimal bytes_copied format this
// package's predecessor wrote.
func parseLegacy(raw []byte) (ResumeInfo, error) {
	text := strings.TrimSpace(string(raw))
	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return ResumeInfo{}, err
	}
	info := Empty()
	info.BytesCopied = n
	return info, nil
}

// Save atomically persists info beside destPath: write to a temp file
// in the same directory, then rename over the resume file, so a crash
// mid-write never leaves a half-written resume record.
func Save(destPath string, info ResumeInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	target := Path(destPath)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

// CheckpointInterval is how often an active transfer flushes the
// destination and persists its ResumeInfo.
const CheckpointInterval = 5 * time.Second

// mtimeTolerance absorbs filesystem mtime granularity differences
// between the writer and the host checking resumability.
const mtimeTolerance = 2 * time.Second

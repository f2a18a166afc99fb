package resume

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeDest(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("failed to write dest file: %v", err)
	}
}

func u64(v uint64) *uint64 { return &v }

func TestDecideStartFreshWhenNoResumeFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	d := Decide(dest, ResumeInfo{}, false)
	if d.Kind != StartFresh {
		t.Errorf("expected StartFresh, got %v", d.Kind)
	}
}

func TestDecideRestartWhenDestMissing(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	d := Decide(dest, ResumeInfo{BytesCopied: 100}, true)
	if d.Kind != Restart || d.Reason != "dest missing" {
		t.Errorf("expected Restart/dest missing, got %v/%s", d.Kind, d.Reason)
	}
}

func TestDecideRestartOnSizeMismatch(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	writeDest(t, dest, 50)
	info := ResumeInfo{BytesCopied: 100, FileSize: u64(200)}
	d := Decide(dest, info, true)
	if d.Kind != Restart || d.Reason != "size mismatch" {
		t.Errorf("expected Restart/size mismatch, got %v/%s", d.Kind, d.Reason)
	}
}

func TestDecideRestartWhenSizeDisagreesWithRecordedFileSize(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	writeDest(t, dest, 300)
	info := ResumeInfo{BytesCopied: 100, FileSize: u64(200)}
	d := Decide(dest, info, true)
	if d.Kind != Restart || d.Reason != "size mismatch" {
		t.Errorf("expected Restart/size mismatch, got %v/%s", d.Kind, d.Reason)
	}
}

func TestDecideRevalidateOnNewerMtime(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	writeDest(t, dest, 200)
	fi, err := os.Stat(dest)
	if err != nil {
		t.Fatal(err)
	}
	oldMtime := uint64(fi.ModTime().Unix()) - 10
	info := ResumeInfo{BytesCopied: 100, FileSize: u64(200), FileMtime: &oldMtime}

	d := Decide(dest, info, true)
	if d.Kind != Revalidate || d.Reason != "mtime newer" {
		t.Errorf("expected Revalidate/mtime newer, got %v/%s", d.Kind, d.Reason)
	}
}

func TestDecideResumeWhenMtimeExactlyAtTolerance(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	writeDest(t, dest, 200)
	fi, err := os.Stat(dest)
	if err != nil {
		t.Fatal(err)
	}
	// mtime exactly resume.file_mtime + 2s is still within tolerance.
	mtime := uint64(fi.ModTime().Unix()) - uint64(mtimeTolerance.Seconds())
	info := ResumeInfo{BytesCopied: 100, FileSize: u64(200), FileMtime: &mtime,
		VerifiedChunks: map[uint32]string{0: "abc", 1: "def"}}

	d := Decide(dest, info, true)
	if d.Kind != Resume {
		t.Errorf("expected Resume at tolerance boundary, got %v", d.Kind)
	}
	if d.Offset != 100 || d.Verified != 2 {
		t.Errorf("expected offset=100 verified=2, got offset=%d verified=%d", d.Offset, d.Verified)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	mtime := uint64(time.Now().Unix())
	info := ResumeInfo{
		BytesCopied:     1024,
		VerifiedChunks:  map[uint32]string{0: "h0", 1: "h1"},
		VerifiedWindows: []uint32{0},
		FileMtime:       &mtime,
		FileSize:        u64(4096),
	}
	if err := Save(dest, info); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, present, err := Load(dest)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !present {
		t.Fatal("expected resume file to be present")
	}
	if loaded.BytesCopied != info.BytesCopied {
		t.Errorf("got BytesCopied %d, want %d", loaded.BytesCopied, info.BytesCopied)
	}
	if len(loaded.VerifiedChunks) != 2 {
		t.Errorf("expected 2 verified chunks, got %d", len(loaded.VerifiedChunks))
	}
}

func TestLoadMissingResumeFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	_, present, err := Load(dest)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if present {
		t.Error("expected present=false for a missing resume file")
	}
}

func TestLoadLegacyPlainDecimalFormat(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	if err := os.WriteFile(Path(dest), []byte("  8388608  \n"), 0644); err != nil {
		t.Fatal(err)
	}
	info, present, err := Load(dest)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !present {
		t.Fatal("expected present=true for legacy format")
	}
	if info.BytesCopied != 8388608 {
		t.Errorf("got BytesCopied %d, want 8388608", info.BytesCopied)
	}
}

func TestLoadUnparseableFallsBackToEmpty(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	if err := os.WriteFile(Path(dest), []byte("not json, not a number"), 0644); err != nil {
		t.Fatal(err)
	}
	info, present, err := Load(dest)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !present {
		t.Fatal("expected present=true even for unparseable content")
	}
	if info.BytesCopied != 0 {
		t.Errorf("expected empty ResumeInfo, got BytesCopied=%d", info.BytesCopied)
	}
}

package backend

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/saworbit/orbit-sub003/internal/orbiterr"
)

// LocalBackend implements Backend against the host filesystem. It is
// the only Backend Orbit ships today; remote backends (S3-style
// object stores, SFTP) satisfy the same interface without the engine
// needing to change.
type LocalBackend struct {
	root string
}

// NewLocalBackend roots all paths passed to Backend methods at root.
func NewLocalBackend(root string) *LocalBackend {
	return &LocalBackend{root: root}
}

func (l *LocalBackend) resolve(path string) string {
	return filepath.Join(l.root, path)
}

// Capabilities reports that the local filesystem supports positional
// writes and atomic rename (same-filesystem os.Rename), but not
// server-side copy (there is no second backend to copy within).
func (l *LocalBackend) Capabilities() map[Capability]bool {
	return map[Capability]bool{
		WriteAt:        true,
		AtomicRename:   true,
		ServerSideCopy: false,
	}
}

func (l *LocalBackend) Stat(_ context.Context, path string) (Metadata, error) {
	const op = "backend.LocalBackend.Stat"
	fi, err := os.Stat(l.resolve(path))
	if err != nil {
		return Metadata{}, orbiterr.New(orbiterr.Permanent, op, err)
	}
	return Metadata{Size: fi.Size(), Mtime: fi.ModTime(), IsDir: fi.IsDir()}, nil
}

// List walks path and streams one Entry per file/directory found,
// closing the channel when the walk completes. A failure partway
// through the walk ends the stream early without a reported error;
// only failures to start the walk at all are returned synchronously.
func (l *LocalBackend) List(ctx context.Context, path string) (<-chan Entry, error) {
	const op = "backend.LocalBackend.List"
	root := l.resolve(path)
	if _, err := os.Stat(root); err != nil {
		return nil, orbiterr.New(orbiterr.Permanent, op, err)
	}

	out := make(chan Entry)
	go func() {
		defer close(out)
		_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p == root {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				rel = p
			}
			entry := Entry{
				Path: rel,
				Metadata: Metadata{
					Size:  info.Size(),
					Mtime: info.ModTime(),
					IsDir: d.IsDir(),
				},
			}
			select {
			case out <- entry:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
	}()
	return out, nil
}

func (l *LocalBackend) ReadAt(_ context.Context, path string, offset int64, length int) ([]byte, error) {
	const op = "backend.LocalBackend.ReadAt"
	f, err := os.Open(l.resolve(path))
	if err != nil {
		return nil, orbiterr.New(orbiterr.Permanent, op, err)
	}
	defer f.Close()

	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, orbiterr.New(orbiterr.Permanent, op, err)
	}
	return buf[:n], nil
}

func (l *LocalBackend) WriteAt(_ context.Context, path string, offset int64, data []byte) error {
	const op = "backend.LocalBackend.WriteAt"
	full := l.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return orbiterr.New(orbiterr.Permanent, op, err)
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return orbiterr.New(orbiterr.Permanent, op, err)
	}
	defer f.Close()
	if _, err := f.WriteAt(data, offset); err != nil {
		return orbiterr.New(orbiterr.Permanent, op, err)
	}
	return nil
}

func (l *LocalBackend) WriteFull(_ context.Context, path string, r io.Reader) error {
	const op = "backend.LocalBackend.WriteFull"
	full := l.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return orbiterr.New(orbiterr.Permanent, op, err)
	}
	f, err := os.Create(full)
	if err != nil {
		return orbiterr.New(orbiterr.Permanent, op, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return orbiterr.New(orbiterr.Permanent, op, err)
	}
	return nil
}

func (l *LocalBackend) Rename(_ context.Context, src, dst string) error {
	const op = "backend.LocalBackend.Rename"
	if err := os.MkdirAll(filepath.Dir(l.resolve(dst)), 0755); err != nil {
		return orbiterr.New(orbiterr.Permanent, op, err)
	}
	if err := os.Rename(l.resolve(src), l.resolve(dst)); err != nil {
		return orbiterr.New(orbiterr.Permanent, op, err)
	}
	return nil
}

func (l *LocalBackend) Delete(_ context.Context, path string) error {
	const op = "backend.LocalBackend.Delete"
	if err := os.Remove(l.resolve(path)); err != nil {
		return orbiterr.New(orbiterr.Permanent, op, err)
	}
	return nil
}

func (l *LocalBackend) Mkdir(_ context.Context, path string, recursive bool) error {
	const op = "backend.LocalBackend.Mkdir"
	full := l.resolve(path)
	var err error
	if recursive {
		err = os.MkdirAll(full, 0755)
	} else {
		err = os.Mkdir(full, 0755)
	}
	if err != nil {
		return orbiterr.New(orbiterr.Permanent, op, err)
	}
	return nil
}

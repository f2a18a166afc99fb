package packer

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/saworbit/orbit-sub003/internal/orbiterr"
)

// DefaultByteCap is the default size a container is allowed to reach
// before it is sealed and a fresh one opened.
const DefaultByteCap = 4 * 1024 * 1024 * 1024 // 4 GiB

// PackedChunkRef locates one chunk's bytes within a container.
type PackedChunkRef struct {
	ContainerID string `json:"container_id"`
	Offset      uint64 `json:"offset"`
	Length      uint32 `json:"length"`
}

// Packer appends chunks to a sequence of containers under dir,
// sealing (close+fsync) and rotating to a new container once the
// active one would exceed byteCap. Reads are positional, keyed by
// container-relative offset rather than bare per-file chunk offsets.
type Packer struct {
	dir     string
	byteCap int64

	mu        sync.Mutex
	active    *os.File
	activeID  string
	activeLen int64
}

// Open prepares a Packer rooted at dir, creating it if necessary.
func Open(dir string, byteCap int64) (*Packer, error) {
	const op = "packer.Open"
	if byteCap <= headerSize {
		byteCap = DefaultByteCap
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, orbiterr.New(orbiterr.Permanent, op, err)
	}
	return &Packer{dir: dir, byteCap: byteCap}, nil
}

func (p *Packer) containerPath(id string) string {
	return filepath.Join(p.dir, id+".orbitpak")
}

// rotate seals the active container, if any, and opens a fresh one.
// Callers must hold p.mu.
func (p *Packer) rotate() error {
	const op = "packer.rotate"
	if p.active != nil {
		if err := p.active.Sync(); err != nil {
			return orbiterr.New(orbiterr.Permanent, op, err)
		}
		if err := p.active.Close(); err != nil {
			return orbiterr.New(orbiterr.Permanent, op, err)
		}
	}

	id := uuid.NewString()
	f, err := os.OpenFile(p.containerPath(id), os.O_CREATE|os.O_RDWR|os.O_EXCL, 0644)
	if err != nil {
		return orbiterr.New(orbiterr.Permanent, op, err)
	}
	header := buildHeader()
	if _, err := f.Write(header); err != nil {
		f.Close()
		return orbiterr.New(orbiterr.Permanent, op, err)
	}

	p.active = f
	p.activeID = id
	p.activeLen = int64(len(header))
	return nil
}

// WriteChunk appends data to the active container, rotating first if
// it would not fit under byteCap. A chunk is never split across two
// containers.
func (p *Packer) WriteChunk(data []byte) (PackedChunkRef, error) {
	const op = "packer.WriteChunk"
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active == nil || p.activeLen+int64(len(data)) > p.byteCap {
		if err := p.rotate(); err != nil {
			return PackedChunkRef{}, err
		}
	}

	offset := p.activeLen
	n, err := p.active.Write(data)
	if err != nil {
		return PackedChunkRef{}, orbiterr.New(orbiterr.Permanent, op, err)
	}
	p.activeLen += int64(n)

	return PackedChunkRef{
		ContainerID: p.activeID,
		Offset:      uint64(offset),
		Length:      uint32(len(data)),
	}, nil
}

// Seal closes out the active container so all of its bytes are
// durable, without starting a new one. Safe to call on an idle Packer.
func (p *Packer) Seal() error {
	const op = "packer.Seal"
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return nil
	}
	if err := p.active.Sync(); err != nil {
		return orbiterr.New(orbiterr.Permanent, op, err)
	}
	err := p.active.Close()
	p.active = nil
	if err != nil {
		return orbiterr.New(orbiterr.Permanent, op, err)
	}
	return nil
}

// ReadChunk performs a positional read of ref's bytes from its
// container, rejecting containers whose header does not match.
func (p *Packer) ReadChunk(ref PackedChunkRef) ([]byte, error) {
	const op = "packer.ReadChunk"

	f, err := os.Open(p.containerPath(ref.ContainerID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, orbiterr.New(orbiterr.Permanent, op, errContainerNotFound)
		}
		return nil, orbiterr.New(orbiterr.Permanent, op, err)
	}
	defer f.Close()

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, orbiterr.New(orbiterr.Corruption, op, err)
	}
	if err := validateHeader(header); err != nil {
		return nil, orbiterr.New(orbiterr.Corruption, op, err)
	}

	buf := make([]byte, ref.Length)
	if _, err := f.ReadAt(buf, int64(ref.Offset)); err != nil {
		return nil, orbiterr.New(orbiterr.Corruption, op, err)
	}
	return buf, nil
}

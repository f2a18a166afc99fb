package p2pdata

import (
	"encoding/binary"
	"io"
)

// ChunkSize is the fixed read/write unit for streamed file data, per
// the framing used by ReadStream.
const ChunkSize = 64 * 1024

const (
	frameMagic   uint32 = 0x4F524231 // "ORB1"
	frameVersion uint8  = 1
	// frameHeaderSize is magic(4) + version(1) + reserved(3) + index(8) + length(8).
	frameHeaderSize = 24
)

func writeChunkFrame(w io.Writer, index uint64, payload []byte) error {
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header[0:4], frameMagic)
	header[4] = frameVersion
	binary.BigEndian.PutUint64(header[8:16], index)
	binary.BigEndian.PutUint64(header[16:24], uint64(len(payload)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

func readChunkFrame(r io.Reader) (index uint64, payload []byte, err error) {
	header := make([]byte, frameHeaderSize)
	if _, err = io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	if binary.BigEndian.Uint32(header[0:4]) != frameMagic {
		return 0, nil, errBadMagic
	}
	if header[4] != frameVersion {
		return 0, nil, errBadVersion
	}
	index = binary.BigEndian.Uint64(header[8:16])
	length := binary.BigEndian.Uint64(header[16:24])

	payload = make([]byte, length)
	if length > 0 {
		if _, err = io.ReadFull(r, payload); err != nil {
			return 0, nil, err
		}
	}
	return index, payload, nil
}

// FrameReader presents a stream of chunk frames read from r as a plain
// io.Reader, verifying that frame indices arrive consecutively starting
// at 0. It implements io.ReadCloser so it can satisfy
// control.SourceStreamer's return type directly.
type FrameReader struct {
	r         io.Reader
	closer    io.Closer
	nextIndex uint64
	pending   []byte
	eof       bool
}

// NewFrameReader wraps r, closing closer (if non-nil) on Close.
func NewFrameReader(r io.Reader, closer io.Closer) *FrameReader {
	return &FrameReader{r: r, closer: closer}
}

func (f *FrameReader) Read(p []byte) (int, error) {
	for len(f.pending) == 0 {
		if f.eof {
			return 0, io.EOF
		}
		index, payload, err := readChunkFrame(f.r)
		if err != nil {
			if err == io.EOF {
				f.eof = true
				return 0, io.EOF
			}
			return 0, err
		}
		if index != f.nextIndex {
			return 0, errOutOfOrder
		}
		f.nextIndex++
		if len(payload) == 0 {
			f.eof = true
			continue
		}
		f.pending = payload
	}
	n := copy(p, f.pending)
	f.pending = f.pending[n:]
	return n, nil
}

// Close closes the underlying transport, if one was supplied.
func (f *FrameReader) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

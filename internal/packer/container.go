// Package packer implements the Chunk Packer: an
// append-only ".orbitpak" container format that packs many chunks
// into large sequential files instead of one file per chunk, rotating
// to a fresh container once the active one reaches a byte cap.
package packer

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// containerMagic identifies an orbitpak container file. Readers reject
// any file that does not start with this exact sequence.
var containerMagic = []byte("ORBITPAK\x00")

const (
	containerVersion uint32 = 1
	// headerSize is magic(9) + version:u32 LE (4) + reserved(3).
	headerSize = 16
)

func buildHeader() []byte {
	h := make([]byte, headerSize)
	copy(h, containerMagic)
	binary.LittleEndian.PutUint32(h[len(containerMagic):], containerVersion)
	return h
}

func validateHeader(h []byte) error {
	if len(h) < headerSize {
		return fmt.Errorf("packer: short container header (%d bytes)", len(h))
	}
	if !bytes.Equal(h[:len(containerMagic)], containerMagic) {
		return fmt.Errorf("packer: bad container magic")
	}
	if v := binary.LittleEndian.Uint32(h[len(containerMagic):]); v != containerVersion {
		return fmt.Errorf("packer: unsupported container version %d", v)
	}
	return nil
}

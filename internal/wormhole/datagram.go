package wormhole

import (
	"encoding/binary"
	"errors"

	"github.com/saworbit/orbit-sub003/internal/hashing"
)

// ShardType distinguishes a datagram's payload role in the Wormhole
// wire format.
type ShardType uint8

const (
	ShardData ShardType = iota
	ShardParity
	ShardAck
	ShardNack
)

var errShortDatagram = errors.New("wormhole: datagram shorter than header")
var errDatagramMagic = errors.New("wormhole: bad datagram magic")

const (
	datagramMagic uint32 = 0x57484F4C // "WHOL"
	// header: magic(4) version(1) type(1) reserved(2) window_id(8)
	// shard_index(4) n(4) k(4) merkle_root(32) = 60 bytes, followed by
	// the AEAD-sealed payload (ciphertext || 16-byte tag).
	datagramHeaderSize = 60
)

// Datagram is one wire unit: a data or parity shard, or a control
// message (ack/nack), scoped to one window.
type Datagram struct {
	WindowID   uint64
	ShardIndex uint32
	Type       ShardType
	N          uint32
	K          uint32
	MerkleRoot hashing.Digest
	Ciphertext []byte
}

// aad binds the window ID, shard index, shard type and N into the AEAD
// tag so a tampered copy of those fields (e.g. a shard reassigned to a
// different window) fails authentication even if the ciphertext itself
// is untouched. K and the Merkle root are not covered.
func (d Datagram) aad() []byte {
	b := make([]byte, 17)
	binary.BigEndian.PutUint64(b[0:8], d.WindowID)
	binary.BigEndian.PutUint32(b[8:12], d.ShardIndex)
	b[12] = byte(d.Type)
	binary.BigEndian.PutUint32(b[13:17], d.N)
	return b
}

// EncodeDatagram seals plaintext with the window's derived key and
// serializes the full wire datagram.
func EncodeDatagram(secret []byte, d Datagram, plaintext []byte) ([]byte, error) {
	aad := d.aad()
	ciphertext, err := SealWindow(secret, d.WindowID, d.ShardIndex, aad, plaintext)
	if err != nil {
		return nil, err
	}
	d.Ciphertext = ciphertext

	out := make([]byte, datagramHeaderSize+len(ciphertext))
	binary.BigEndian.PutUint32(out[0:4], datagramMagic)
	out[4] = 1
	out[5] = byte(d.Type)
	binary.BigEndian.PutUint64(out[8:16], d.WindowID)
	binary.BigEndian.PutUint32(out[16:20], d.ShardIndex)
	binary.BigEndian.PutUint32(out[20:24], d.N)
	binary.BigEndian.PutUint32(out[24:28], d.K)
	copy(out[28:60], d.MerkleRoot[:])
	copy(out[60:], ciphertext)
	return out, nil
}

// DecodeDatagram parses and authenticates a wire datagram, returning
// its plaintext payload.
func DecodeDatagram(secret []byte, wire []byte) (Datagram, []byte, error) {
	if len(wire) < datagramHeaderSize {
		return Datagram{}, nil, errShortDatagram
	}
	if binary.BigEndian.Uint32(wire[0:4]) != datagramMagic {
		return Datagram{}, nil, errDatagramMagic
	}
	d := Datagram{
		Type:       ShardType(wire[5]),
		WindowID:   binary.BigEndian.Uint64(wire[8:16]),
		ShardIndex: binary.BigEndian.Uint32(wire[16:20]),
		N:          binary.BigEndian.Uint32(wire[20:24]),
		K:          binary.BigEndian.Uint32(wire[24:28]),
	}
	copy(d.MerkleRoot[:], wire[28:60])
	ciphertext := wire[60:]

	plaintext, err := OpenWindow(secret, d.WindowID, d.ShardIndex, d.aad(), ciphertext)
	if err != nil {
		return Datagram{}, nil, err
	}
	d.Ciphertext = ciphertext
	return d, plaintext, nil
}

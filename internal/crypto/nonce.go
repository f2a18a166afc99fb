package crypto

import "encoding/binary"

// controlBit separates the control-message nonce space from the chunk
// nonce space, so a control counter can never collide with a chunk
// index under the same key.
const controlBit = uint64(1) << 63

// ChunkNonce derives the nonce for the payload at index: the transfer's
// IVBase with the index XORed into its first eight bytes. Deterministic
// on both ends, so sender and receiver never exchange nonces, and
// unique as long as no index repeats within the transfer.
func ChunkNonce(ivBase [NonceSize]byte, index uint64) [NonceSize]byte {
	var ctr [8]byte
	binary.LittleEndian.PutUint64(ctr[:], index)
	nonce := ivBase
	for i := range ctr {
		nonce[i] ^= ctr[i]
	}
	return nonce
}

// ControlNonce derives the nonce for control message counter, offset
// into the half of the counter space chunk indices cannot reach.
func ControlNonce(ivBase [NonceSize]byte, counter uint64) [NonceSize]byte {
	return ChunkNonce(ivBase, controlBit|counter)
}

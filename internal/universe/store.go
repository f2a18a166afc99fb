package universe

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/saworbit/orbit-sub003/internal/hashing"
	"github.com/saworbit/orbit-sub003/internal/orbiterr"
)

// CurrentSchemaVersion is bumped whenever the on-disk bucket layout
// changes. Opening a store persisted under a different version fails
// rather than silently reinterpreting old rows.
const CurrentSchemaVersion uint32 = 1

var (
	bucketLocations = []byte("locations")
	bucketCounters  = []byte("counters")
	bucketMeta      = []byte("meta")
	keySchemaVers   = []byte("schema_version")
)

// Index is the Universe Index: a hash-to-locations multimap opened
// over a single bolt file, generalized from one value per key to an
// ordered set of values per key.
type Index struct {
	db      *bolt.DB
	version uint32
}

// Open opens or creates the index at path. A freshly created store is
// stamped with CurrentSchemaVersion; an existing store whose persisted
// version disagrees fails closed.
func Open(path string) (*Index, error) {
	const op = "universe.Open"

	db, err := bolt.Open(filepath.Clean(path), 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, orbiterr.New(orbiterr.Permanent, op, err)
	}

	idx := &Index{db: db}
	if err := idx.initOrCheckSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) initOrCheckSchema() error {
	const op = "universe.initOrCheckSchema"

	return idx.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketLocations, bucketCounters, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return orbiterr.New(orbiterr.Corruption, op, err)
			}
		}
		meta := tx.Bucket(bucketMeta)
		raw := meta.Get(keySchemaVers)
		if raw == nil {
			buf := make([]byte, 4)
			binary.BigEndian.PutUint32(buf, CurrentSchemaVersion)
			if err := meta.Put(keySchemaVers, buf); err != nil {
				return orbiterr.New(orbiterr.Permanent, op, err)
			}
			idx.version = CurrentSchemaVersion
			return nil
		}
		persisted := binary.BigEndian.Uint32(raw)
		if persisted != CurrentSchemaVersion {
			return orbiterr.New(orbiterr.Permanent, op,
				incompatibleSchemaError{have: persisted, want: CurrentSchemaVersion})
		}
		idx.version = persisted
		return nil
	})
}

// Close releases the underlying bolt file.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Version reports the on-disk schema version the store was opened
// with, via the version() -> u32 contract.
func (idx *Index) Version() uint32 {
	return idx.version
}

// Insert appends loc to the set of locations known for hash. Each
// hash's locations are assigned a monotonically increasing sequence
// number so the composite row key sorts contiguously per hash.
func (idx *Index) Insert(hash hashing.Digest, loc ChunkLocation) error {
	const op = "universe.Insert"

	return idx.db.Update(func(tx *bolt.Tx) error {
		counters := tx.Bucket(bucketCounters)
		locations := tx.Bucket(bucketLocations)

		seq := uint64(0)
		if raw := counters.Get(hash[:]); raw != nil {
			seq = binary.BigEndian.Uint64(raw)
		}
		seq++

		seqBuf := make([]byte, 8)
		binary.BigEndian.PutUint64(seqBuf, seq)
		if err := counters.Put(hash[:], seqBuf); err != nil {
			return orbiterr.New(orbiterr.ResourceExhaustion, op, err)
		}
		if err := locations.Put(key(hash, seq), loc.encode()); err != nil {
			return orbiterr.New(orbiterr.ResourceExhaustion, op, err)
		}
		return nil
	})
}

// Scan streams every known location for hash to callback without ever
// materializing the full set, holding a consistent read snapshot for
// the duration. Returning an error from callback stops the scan early
// and propagates that error.
func (idx *Index) Scan(hash hashing.Digest, callback func(ChunkLocation) error) error {
	const op = "universe.Scan"

	return idx.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketLocations).Cursor()
		prefix := hash[:]
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			loc, ok := decodeChunkLocation(v)
			if !ok {
				return orbiterr.New(orbiterr.Corruption, op, errCorruptRecord)
			}
			if err := callback(loc); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindFirst is the fast-path existence check: it returns the first
// known location for hash, if any, without a full scan.
func (idx *Index) FindFirst(hash hashing.Digest) (ChunkLocation, bool, error) {
	const op = "universe.FindFirst"

	var (
		loc   ChunkLocation
		found bool
	)
	err := idx.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketLocations).Cursor()
		prefix := hash[:]
		k, v := c.Seek(prefix)
		if k == nil || !bytes.HasPrefix(k, prefix) {
			return nil
		}
		decoded, ok := decodeChunkLocation(v)
		if !ok {
			return orbiterr.New(orbiterr.Corruption, op, errCorruptRecord)
		}
		loc, found = decoded, true
		return nil
	})
	return loc, found, err
}

// Delete removes every location for hash matching predicate. Used only
// by garbage collection.
func (idx *Index) Delete(hash hashing.Digest, predicate func(ChunkLocation) bool) (int, error) {
	const op = "universe.Delete"

	removed := 0
	err := idx.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketLocations).Cursor()
		prefix := hash[:]
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			loc, ok := decodeChunkLocation(v)
			if !ok {
				return orbiterr.New(orbiterr.Corruption, op, errCorruptRecord)
			}
			if predicate(loc) {
				if err := c.Delete(); err != nil {
					return orbiterr.New(orbiterr.Permanent, op, err)
				}
				removed++
			}
		}
		return nil
	})
	return removed, err
}

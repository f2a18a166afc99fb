package manifest

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/saworbit/orbit-sub003/internal/hashing"
	"github.com/saworbit/orbit-sub003/internal/orbiterr"
)

// Plan walks sourceTree, content-defined-chunks every regular file it
// finds, and records ordered chunk hashes plus windowed Merkle roots
// for each. It performs no I/O against any destination.
func Plan(sourceTree string) (*FlightPlan, error) {
	const op = "manifest.Plan"
	plan := &FlightPlan{
		TransferID: uuid.NewString(),
		CreatedAt:  time.Now(),
	}

	walkErr := filepath.WalkDir(sourceTree, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		cargo, err := planFile(sourceTree, path)
		if err != nil {
			return err
		}
		plan.Cargo = append(plan.Cargo, *cargo)
		return nil
	})
	if walkErr != nil {
		return nil, orbiterr.New(orbiterr.Permanent, op, walkErr)
	}
	return plan, nil
}

func planFile(root, path string) (*CargoManifest, error) {
	const op = "manifest.planFile"

	f, err := os.Open(path)
	if err != nil {
		return nil, orbiterr.New(orbiterr.Permanent, op, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, orbiterr.New(orbiterr.Permanent, op, err)
	}

	chunks, err := hashing.ChunkAll(f)
	if err != nil {
		return nil, orbiterr.New(orbiterr.IntegrityMismatch, op, err)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	descriptors := make([]ChunkDescriptor, len(chunks))
	leaves := make([]hashing.Digest, len(chunks))
	for i, c := range chunks {
		descriptors[i] = ChunkDescriptor{Index: i, Hash: c.Hash, Length: len(c.Data)}
		leaves[i] = c.Hash
	}

	return &CargoManifest{
		Path:          rel,
		Size:          info.Size(),
		ChunkCount:    len(descriptors),
		HashAlgo:      "blake3-256",
		Chunks:        descriptors,
		WindowRoots:   computeWindowRoots(descriptors),
		MerkleRoot:    merkleRoot(leaves),
		WindowSize:    WindowSize,
		WindowOverlap: WindowOverlap,
	}, nil
}

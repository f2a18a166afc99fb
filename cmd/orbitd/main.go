// Command orbitd is Orbit's thin composition root: it wires every
// core component into one runnable process that plans,
// chunks, dedupes, packs, transfers, and verifies a source tree
// against a destination root, while standing up the control-plane
// listener and observability surfaces alongside.
//
// This command intentionally carries no flag-parsing, config-file, or
// CLI surface beyond what is needed to run the demo end to end; that
// layer is explicitly out of Orbit's core scope.
package main

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/saworbit/orbit-sub003/internal/audit"
	"github.com/saworbit/orbit-sub003/internal/backend"
	"github.com/saworbit/orbit-sub003/internal/bulletin"
	"github.com/saworbit/orbit-sub003/internal/control"
	"github.com/saworbit/orbit-sub003/internal/engine"
	"github.com/saworbit/orbit-sub003/internal/guidance"
	"github.com/saworbit/orbit-sub003/internal/hashing"
	"github.com/saworbit/orbit-sub003/internal/manifest"
	"github.com/saworbit/orbit-sub003/internal/observability"
	"github.com/saworbit/orbit-sub003/internal/p2pdata"
	"github.com/saworbit/orbit-sub003/internal/packer"
	"github.com/saworbit/orbit-sub003/internal/resilience"
	"github.com/saworbit/orbit-sub003/internal/resume"
	"github.com/saworbit/orbit-sub003/internal/universe"
)

func main() {
	source := flag.String("source", "", "source tree to plan and transfer")
	destRoot := flag.String("dest", "", "destination root")
	storeDir := flag.String("store", "./orbit-store", "universe index + container store directory")
	grpcAddr := flag.String("grpc-addr", "127.0.0.1:9190", "control-plane gRPC listener")
	dataAddr := flag.String("data-addr", "127.0.0.1:9191", "P2P data-plane QUIC listener (empty to disable)")
	restAddr := flag.String("rest-addr", "127.0.0.1:9180", "control-plane REST listener")
	metricsAddr := flag.String("metrics-addr", "127.0.0.1:9181", "Prometheus metrics + health listener")
	jobMode := flag.String("mode", "skip", "failure mode: abort, skip, or partial")
	serve := flag.Bool("serve", false, "keep the control plane running after the demo transfer completes")
	flag.Parse()

	console := zerolog.New(os.Stdout).With().Timestamp().Str("service", "orbitd").Logger()
	logger := observability.NewLogger("orbitd", "1.0.0", os.Stdout)
	metrics := observability.NewMetrics()
	healthChecker := observability.NewHealthChecker("1.0.0")
	healthMonitor := resilience.NewHealthMonitor(resilience.DefaultHealthMonitorConfig())
	board := bulletin.New(bulletin.DefaultCapacity)

	secret := []byte(os.Getenv("ORBIT_AUTH_SECRET"))
	if len(secret) == 0 {
		logger.Warn("ORBIT_AUTH_SECRET not set; negotiating an ephemeral in-process secret for this run only")
		derived, err := ephemeralGridSecret(*source, *destRoot)
		if err != nil {
			logger.Fatal(err, "failed to negotiate ephemeral grid secret")
		}
		secret = derived
	}

	if err := os.MkdirAll(*storeDir, 0o755); err != nil {
		logger.Fatal(err, "failed to create store directory")
	}
	auditFile, err := os.OpenFile(filepath.Join(*storeDir, "audit.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Fatal(err, "failed to open audit log")
	}
	defer auditFile.Close()
	auditLogger := audit.NewUnifiedLogger(secret, auditFile, console)

	healthChecker.RegisterProbe("universe", observability.StoreFileProbe(filepath.Join(*storeDir, "universe.db")))
	healthChecker.RegisterProbe("control-grpc", observability.ListenerProbe(*grpcAddr))
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", healthChecker.Handler())
	go func() {
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			logger.Warn("observability listener stopped: " + err.Error())
		}
	}()

	shutdownTracing, err := observability.InitTracing(context.Background(), "orbitd")
	if err != nil {
		logger.Warn("tracing init failed: " + err.Error())
	} else {
		defer shutdownTracing(context.Background())
	}

	identity, err := control.LoadOrCreateIdentity("", "")
	if err != nil {
		logger.Fatal(err, "failed to load coordinator identity")
	}
	coordinator := control.NewCoordinatorServer(secret, hex.EncodeToString(identity.Pub))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	grpcStop, restStop, err := control.StartControlPlane(ctx, *grpcAddr, *restAddr, coordinator)
	if err != nil {
		logger.Fatal(err, "failed to start control plane")
	}
	defer grpcStop()
	defer restStop()
	logger.ListenerUp("control-grpc", *grpcAddr)
	logger.ListenerUp("control-rest", *restAddr)
	board.Post(bulletin.Post{Severity: bulletin.Info, Source: "control", Category: "startup",
		Message: fmt.Sprintf("control plane listening grpc=%s rest=%s", *grpcAddr, *restAddr)})

	if *dataAddr != "" {
		if err := startDataPlane(ctx, *dataAddr, secret, logger); err != nil {
			logger.Fatal(err, "failed to start data plane")
		}
		logger.ListenerUp("data", *dataAddr)
		board.Post(bulletin.Post{Severity: bulletin.Info, Source: "p2pdata", Category: "startup",
			Message: "data plane listening on " + *dataAddr})
	}

	if *source != "" && *destRoot != "" {
		mode := modeFromString(*jobMode)
		if err := runDemoTransfer(ctx, *source, *destRoot, *storeDir, mode, auditLogger, board, metrics, healthMonitor, logger); err != nil {
			logger.Error(err, "demo transfer failed")
		}
	} else {
		logger.Info("no -source/-dest given; control plane started with no demo transfer")
	}

	if !*serve {
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")
}

// ephemeralGridSecret stands in for the coordinator/destination pair
// negotiating a real session key over the control plane: both sides
// generate an X25519 ephemeral keypair and run NegotiateSessionKeys, so
// even this no-env-var demo path never falls back to a hardcoded
// string. The source/dest pair stands in for the manifest hash that
// would normally bind this to one specific transfer.
func ephemeralGridSecret(source, destRoot string) ([]byte, error) {
	coordinator, err := control.EphemeralKeypair()
	if err != nil {
		return nil, fmt.Errorf("generate coordinator keypair: %w", err)
	}
	destination, err := control.EphemeralKeypair()
	if err != nil {
		return nil, fmt.Errorf("generate destination keypair: %w", err)
	}
	binding := hashing.Hash([]byte(source + "|" + destRoot))
	keys, err := control.NegotiateSessionKeys(coordinator, destination.Public, binding[:])
	if err != nil {
		return nil, fmt.Errorf("negotiate session keys: %w", err)
	}
	return keys.ControlKey[:], nil
}

// startDataPlane stands up the source side of the P2P data plane: a
// QUIC listener serving read_stream requests against capability tokens
// signed with the same grid secret the control plane issues them under.
// The self-signed certificate is acceptable because stream authorisation
// rests on the token, not on the TLS identity.
func startDataPlane(ctx context.Context, addr string, secret []byte, logger *observability.Logger) error {
	tlsConf, err := p2pdata.ServerTLSConfig()
	if err != nil {
		return fmt.Errorf("build data-plane TLS config: %w", err)
	}
	l, err := p2pdata.ListenQUIC(addr, tlsConf)
	if err != nil {
		return fmt.Errorf("listen on data plane: %w", err)
	}
	srv := p2pdata.NewStreamServer(secret)
	go func() {
		if err := srv.Serve(ctx, l); err != nil && ctx.Err() == nil {
			logger.Warn("data-plane listener stopped: " + err.Error())
		}
	}()
	return nil
}

func modeFromString(s string) engine.FailureMode {
	switch s {
	case "abort":
		return engine.ModeAbort
	case "partial":
		return engine.ModePartial
	default:
		return engine.ModeSkip
	}
}

// runDemoTransfer wires hashing, universe index, packer, manifest,
// resume, backend, resilience, engine, and guidance into one
// end-to-end copy of source into destRoot, emitting audit events and
// bulletin posts throughout.
func runDemoTransfer(
	ctx context.Context,
	source, destRoot, storeDir string,
	mode engine.FailureMode,
	auditLogger *audit.UnifiedLogger,
	board *bulletin.Board,
	metrics *observability.Metrics,
	healthMonitor *resilience.HealthMonitor,
	logger *observability.Logger,
) error {
	planResult := guidance.Plan(guidance.Config{
		StreamingChecksum:  true,
		ManifestGeneration: true,
		MaxParallelism:     0,
	}, nil)
	for _, n := range planResult.Notices {
		board.Post(bulletin.Post{Severity: noticeSeverity(n.Level), Source: "guidance", Category: n.Category, Message: n.Message})
	}

	spans := audit.NewSpanBridge(auditLogger, "orbitd/transfer")
	ctx, endJobSpan := spans.StartSpan(ctx, "transfer-job", "")
	defer endJobSpan()

	flightPlan, err := manifest.Plan(source)
	if err != nil {
		return fmt.Errorf("orbitd: plan source tree: %w", err)
	}
	if err := persistFlightPlan(storeDir, flightPlan); err != nil {
		return fmt.Errorf("orbitd: persist flight plan: %w", err)
	}
	auditLogger.Emit(audit.JobStart, flightPlan.TransferID, "", "", "flight plan built", map[string]string{
		"files": fmt.Sprintf("%d", len(flightPlan.Cargo)),
	})

	idx, err := universe.Open(filepath.Join(storeDir, "universe.db"))
	if err != nil {
		return fmt.Errorf("orbitd: open universe index: %w", err)
	}
	defer idx.Close()

	pack, err := packer.Open(filepath.Join(storeDir, "containers"), packer.DefaultByteCap)
	if err != nil {
		return fmt.Errorf("orbitd: open packer: %w", err)
	}

	gc := resilience.NewRefCountGC()
	destBackend := backend.NewLocalBackend(destRoot)
	if err := destBackend.Mkdir(ctx, ".", true); err != nil {
		return fmt.Errorf("orbitd: create destination root: %w", err)
	}

	completed, failed, deadLettered := 0, 0, 0
	for _, cargo := range flightPlan.Cargo {
		destPath := filepath.Join(destRoot, cargo.Path)
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return fmt.Errorf("orbitd: create destination subdir: %w", err)
		}

		if err := ingestChunks(filepath.Join(source, cargo.Path), &cargo, idx, pack, gc, auditLogger, board, metrics); err != nil {
			failed++
			metrics.RecordFileOutcome(false)
			auditLogger.Emit(audit.FileFailed, flightPlan.TransferID, cargo.Path, "", err.Error(), nil)
			continue
		}

		job, queue, eng, resumeInfo := buildTransferJob(flightPlan.TransferID, filepath.Join(source, cargo.Path), destPath, &cargo, mode, idx, pack, auditLogger, board, metrics)
		auditLogger.Emit(audit.FileStart, flightPlan.TransferID, cargo.Path, "", "transfer starting", nil)

		if err := eng.RunJob(ctx, job, queue); err != nil {
			failed++
			metrics.RecordFileOutcome(false)
			auditLogger.Emit(audit.FileFailed, flightPlan.TransferID, cargo.Path, "", err.Error(), nil)
			board.Post(bulletin.Post{Severity: bulletin.Error, Source: "engine", Category: "file", JobID: flightPlan.TransferID, Message: "file failed: " + cargo.Path})
			continue
		}
		deadLettered += eng.DeadLetters.Len()

		if err := resume.Save(destPath, resumeInfo.snapshot()); err != nil {
			logger.Warn("failed to persist final resume state for " + destPath)
		}

		result, err := manifest.Verify(destPath, &cargo)
		if err != nil {
			failed++
			metrics.RecordFileOutcome(false)
			auditLogger.Emit(audit.FileFailed, flightPlan.TransferID, cargo.Path, "", "verification error: "+err.Error(), nil)
			continue
		}
		if !result.Matches() {
			failed++
			metrics.RecordFileOutcome(false)
			auditLogger.Emit(audit.FileFailed, flightPlan.TransferID, cargo.Path, "", "post-copy verification failed", nil)
			board.Post(bulletin.Post{Severity: bulletin.Error, Source: "manifest", Category: "verify", JobID: flightPlan.TransferID, Message: "verification failed: " + cargo.Path})
			continue
		}

		completed++
		metrics.RecordFileOutcome(true)
		auditLogger.Emit(audit.FileComplete, flightPlan.TransferID, cargo.Path, "", "file complete", map[string]string{
			"bytes":     fmt.Sprintf("%d", cargo.Size),
			"file_hash": fileHashB64(destPath),
		})
		board.Postf(bulletin.Info, "engine", "file", flightPlan.TransferID, "transferred "+cargo.Path, cargo.Size)
	}

	healthMonitor.Record(sampleDiskUsage(destRoot, completed, failed))
	for _, advisory := range healthMonitor.Evaluate() {
		if advisory.Kind != resilience.Healthy {
			board.Post(bulletin.Post{Severity: bulletin.Warning, Source: "health", Category: "disk", JobID: flightPlan.TransferID, Message: advisory.Message(resilience.Sample{})})
		}
	}

	kind := audit.JobComplete
	if failed > 0 {
		kind = audit.JobFailed
	}
	auditLogger.Emit(kind, flightPlan.TransferID, "", "", "job summary", map[string]string{
		"completed":     fmt.Sprintf("%d", completed),
		"failed":        fmt.Sprintf("%d", failed),
		"dead_lettered": fmt.Sprintf("%d", deadLettered),
	})
	logger.JobSummary(flightPlan.TransferID, completed, failed, deadLettered)
	return nil
}

// ingestChunks re-chunks srcPath (deterministic CDC guarantees the
// same boundaries manifest.Plan already recorded), deduplicating
// against the universe index before packing any chunk whose hash is
// not already known.
func ingestChunks(
	srcPath string,
	cargo *manifest.CargoManifest,
	idx *universe.Index,
	pack *packer.Packer,
	gc *resilience.RefCountGC,
	auditLogger *audit.UnifiedLogger,
	board *bulletin.Board,
	metrics *observability.Metrics,
) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	chunks, err := hashing.ChunkAll(f)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		hashHex := hex.EncodeToString(c.Hash[:])
		if _, ok, err := idx.FindFirst(c.Hash); err != nil {
			return err
		} else if ok {
			gc.Increment(hashHex)
			metrics.RecordChunkDeduplicated()
			auditLogger.Emit(audit.ChunkDeduplicated, "", cargo.Path, "", "chunk already present", map[string]string{"hash": hashHex})
			continue
		}

		ref, err := pack.WriteChunk(c.Data)
		if err != nil {
			return err
		}
		if err := idx.Insert(c.Hash, universe.ChunkLocation{
			ContainerID: ref.ContainerID,
			Offset:      ref.Offset,
			Length:      ref.Length,
			BackendID:   "local",
		}); err != nil {
			return err
		}
		gc.Increment(hashHex)
		metrics.RecordChunkPacked(len(c.Data))
		auditLogger.Emit(audit.ChunkPacked, "", cargo.Path, "", "chunk packed", map[string]string{
			"hash": hashHex, "container": ref.ContainerID,
		})
	}
	board.Postf(bulletin.Info, "packer", "ingest", "", "ingested "+cargo.Path, cargo.Size)
	return nil
}

// resumeStore accumulates verified-chunk digests in memory across a
// single file's dispatch loop so the engine's checkpoint hook can
// snapshot and persist ResumeInfo periodically, on a 5-second
// checkpoint cadence (internal/resume.CheckpointInterval).
type resumeStore struct {
	path string
	mu   sync.Mutex
	info resume.ResumeInfo
}

func (r *resumeStore) markVerified(index uint32, hash hashing.Digest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.info.VerifiedChunks == nil {
		r.info.VerifiedChunks = map[uint32]string{}
	}
	r.info.VerifiedChunks[index] = hex.EncodeToString(hash[:])
}

func (r *resumeStore) addBytes(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.info.BytesCopied += uint64(n)
}

func (r *resumeStore) snapshot() resume.ResumeInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.info
	copied := make(map[uint32]string, len(r.info.VerifiedChunks))
	for k, v := range r.info.VerifiedChunks {
		copied[k] = v
	}
	out.VerifiedChunks = copied
	return out
}

// chunkDispatcher implements engine.Dispatcher by resolving each
// chunk's location from the universe index, reading it back through
// the packer, and writing it into destPath at its plan-order byte
// offset via the destination backend.
type chunkDispatcher struct {
	destPath string
	offsets  []int64
	idx      *universe.Index
	pack     *packer.Packer
	backend  backend.Backend
}

func (d *chunkDispatcher) Dispatch(ctx context.Context, item *engine.ChunkWorkItem) error {
	hash := hashing.Digest(item.ChunkHash)
	loc, ok, err := d.idx.FindFirst(hash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("chunkDispatcher: no location known for chunk %d", item.Index)
	}
	data, err := d.pack.ReadChunk(packer.PackedChunkRef{
		ContainerID: loc.ContainerID,
		Offset:      loc.Offset,
		Length:      loc.Length,
	})
	if err != nil {
		return err
	}
	return d.backend.WriteAt(ctx, d.destPath, d.offsets[item.Index], data)
}

func buildTransferJob(
	transferID, srcFile, destPath string,
	cargo *manifest.CargoManifest,
	mode engine.FailureMode,
	idx *universe.Index,
	pack *packer.Packer,
	auditLogger *audit.UnifiedLogger,
	board *bulletin.Board,
	metrics *observability.Metrics,
) (*engine.TransferJob, *engine.WorkQueue, *engine.Engine, *resumeStore) {
	offsets := make([]int64, len(cargo.Chunks))
	var running int64
	for _, c := range cargo.Chunks {
		offsets[c.Index] = running
		running += int64(c.Length)
	}

	rs := &resumeStore{path: destPath}
	dispatcher := &chunkDispatcher{
		destPath: filepath.Base(destPath),
		offsets:  offsets,
		idx:      idx,
		pack:     pack,
		backend:  backend.NewLocalBackend(filepath.Dir(destPath)),
	}

	job := engine.NewTransferJob(transferID+":"+cargo.Path, srcFile, destPath, cargo.Size, mode)
	queue := engine.NewWorkQueue(engine.Chain(engine.DefaultChain()))
	for _, c := range cargo.Chunks {
		queue.Push(&engine.ChunkWorkItem{
			JobID:     job.ID,
			ChunkHash: [32]byte(c.Hash),
			Index:     int64(c.Index),
			Length:    int64(c.Length),
			Tier:      engine.TierBulk,
			QueuedAt:  time.Now(),
		})
	}

	eng := engine.NewEngine(dispatcher)
	eng.Backpressure = resilience.NewBackpressureGuard(10000, 1<<40)
	lastChunkIndex := int64(len(cargo.Chunks) - 1)
	eng.Hooks = engine.Hooks{
		OnChunkTransferred: func(item *engine.ChunkWorkItem) {
			if item.Index != lastChunkIndex {
				rs.markVerified(uint32(item.Index), hashing.Digest(item.ChunkHash))
			}
			rs.addBytes(item.Length)
			metrics.RecordChunkTransferred(item.Length)
			auditLogger.Emit(audit.ChunkTransferred, job.ID, cargo.Path, "", "chunk transferred", map[string]string{
				"index": fmt.Sprintf("%d", item.Index),
			})
		},
		OnChunkDeadLettered: func(item *engine.ChunkWorkItem, reason resilience.FailureReason) {
			auditLogger.Emit(audit.ChunkDeadLettered, job.ID, cargo.Path, "", reason.String(), map[string]string{
				"index": fmt.Sprintf("%d", item.Index),
			})
			board.Post(bulletin.Post{Severity: bulletin.Error, Source: "engine", Category: "chunk", JobID: job.ID,
				Message: fmt.Sprintf("dead-lettered chunk %d: %s", item.Index, reason)})
		},
		OnCheckpoint: func(bytesCopied int64) {
			_ = resume.Save(destPath, rs.snapshot())
		},
	}

	return job, queue, eng, rs
}

// fileHashB64 renders the whole-file digest the FileComplete audit
// event records; an unreadable file yields an empty field rather than
// failing the event.
func fileHashB64(path string) string {
	d, err := hashing.HashFile(path)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(d[:])
}

func noticeSeverity(l guidance.Level) bulletin.Severity {
	if l == guidance.LevelWarning {
		return bulletin.Warning
	}
	return bulletin.Info
}

func persistFlightPlan(storeDir string, plan *manifest.FlightPlan) error {
	dir := filepath.Join(storeDir, "manifests")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	body, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "job.flightplan.json"), body, 0o644); err != nil {
		return err
	}
	for _, cargo := range plan.Cargo {
		name := filepath.Base(cargo.Path) + ".cargo.json"
		body, err := json.MarshalIndent(cargo, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func sampleDiskUsage(path string, completed, failed int) resilience.Sample {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return resilience.Sample{At: time.Now(), TotalOps: uint64(completed + failed), ErrorCount: uint64(failed)}
	}
	return resilience.Sample{
		At:            time.Now(),
		DiskAvailable: stat.Bavail * uint64(stat.Bsize),
		DiskTotal:     stat.Blocks * uint64(stat.Bsize),
		TotalOps:      uint64(completed + failed),
		ErrorCount:    uint64(failed),
	}
}

// Package guidance implements Orbit's configuration advisor, a pure
// function that reconciles conflicting transfer options and annotates
// every mutation it makes.
package guidance

// Level is a Notice's severity.
type Level int

const (
	LevelInfo Level = iota + 1
	LevelWarning
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "Info"
	case LevelWarning:
		return "Warning"
	default:
		return "Unknown"
	}
}

// Notice records one rule's effect on Config, whether or not it
// changed anything.
type Notice struct {
	Level    Level
	Category string
	Message  string
}

// Config is the set of transfer options Plan reconciles. Fields
// outside the named rules (Retries, MaxParallelism) exist so the
// auto-tune probe rules have somewhere to write their adjustments.
type Config struct {
	ZeroCopy           bool
	StreamingChecksum  bool
	Resume             bool
	Compression        bool
	ManifestGeneration bool
	DeltaTransfer      bool
	BandwidthLimitBPS  int64
	Parallel           bool
	MaxParallelism     int
	ProgressBars       bool
	SyncMode           string // "sync" or "update"
	ChecksumCheckMode  bool
	Retries            int

	// PlatformSupportsZeroCopy and GOOS are supplied by the caller from
	// its own platform probe; Plan treats them as read-only facts, not
	// something any rule flips.
	PlatformSupportsZeroCopy bool
	GOOS                     string
}

// Probe is optional hardware/environment telemetry feeding the
// auto-tune rules.
type Probe struct {
	LogicalCores             int
	AvailableRAMBytes        uint64
	DestFSType               string // "local", "nfs", "smb", "cloud"
	EstimatedIOThroughputBPS float64
}

// FlightPlanResult is Plan's output: the reconciled configuration plus
// the full trail of notices every rule produced.
type FlightPlanResult struct {
	FinalConfig Config
	Notices     []Notice
}

// Auto-tune thresholds. Named constants rather than inline literals so
// the rule table below reads close to plain prose.
const (
	lowRAMThresholdBytes      = 2 << 30 // 2 GiB
	ioPoorThroughputBPS       = 20 << 20 // 20 MiB/s
	cpuRichLogicalCores       = 8
	reducedParallelismWorkers = 2
)

type rule func(cfg *Config, notices *[]Notice)

// Plan applies every rule in a fixed order, then the
// auto-tune rules if probe is non-nil. Plan never fails: it only
// rewrites cfg and appends notices: a pure function returning a
// reconciled config plus the structured evidence (Notices) for why
// each change was made.
func Plan(cfg Config, probe *Probe) FlightPlanResult {
	var notices []Notice

	for _, r := range orderedRules() {
		r(&cfg, &notices)
	}

	if probe != nil {
		for _, r := range autoTuneRules() {
			r(&cfg, &notices, *probe)
		}
		// An auto-tune rule can introduce a combination the ordered
		// rules forbid (compression enabled next to a user-set resume),
		// so reconcile once more. This makes Plan's output a fixed
		// point: planning a final config again changes nothing.
		for _, r := range orderedRules() {
			r(&cfg, &notices)
		}
	}

	return FlightPlanResult{FinalConfig: cfg, Notices: notices}
}

func orderedRules() []rule {
	return []rule{
		ruleHardware,
		ruleStrategy,
		ruleParadox,
		ruleSafety,
		rulePrecision,
		ruleObserver,
		rulePatchwork,
		ruleBandwidth,
		ruleVisualNoise,
		rulePerformance,
	}
}

func ruleHardware(cfg *Config, notices *[]Notice) {
	if cfg.ZeroCopy && !cfg.PlatformSupportsZeroCopy {
		cfg.ZeroCopy = false
		note(notices, LevelWarning, "Hardware", "zero-copy requested but not supported on this platform; disabled")
	}
}

func ruleStrategy(cfg *Config, notices *[]Notice) {
	if cfg.ZeroCopy && cfg.StreamingChecksum {
		cfg.ZeroCopy = false
		note(notices, LevelWarning, "Strategy", "zero-copy is incompatible with a streaming checksum; disabled")
	}
}

func ruleParadox(cfg *Config, notices *[]Notice) {
	if cfg.Resume && cfg.StreamingChecksum {
		cfg.StreamingChecksum = false
		note(notices, LevelWarning, "Paradox", "streaming checksum cannot run concurrently with resume; disabled")
	}
}

func ruleSafety(cfg *Config, notices *[]Notice) {
	if cfg.Resume && cfg.Compression {
		cfg.Resume = false
		note(notices, LevelWarning, "Safety", "resume is unsafe alongside compression; disabled")
	}
}

func rulePrecision(cfg *Config, notices *[]Notice) {
	if cfg.ZeroCopy && cfg.Resume {
		cfg.ZeroCopy = false
		note(notices, LevelWarning, "Precision", "zero-copy cannot be resumed precisely; disabled")
	}
}

func ruleObserver(cfg *Config, notices *[]Notice) {
	if cfg.ZeroCopy && cfg.ManifestGeneration {
		cfg.ZeroCopy = false
		note(notices, LevelWarning, "Observer", "zero-copy bypasses the read path manifest generation needs; disabled")
	}
}

func rulePatchwork(cfg *Config, notices *[]Notice) {
	if cfg.ZeroCopy && cfg.DeltaTransfer {
		cfg.ZeroCopy = false
		note(notices, LevelWarning, "Patchwork", "delta transfer requires read access zero-copy skips; disabled")
	}
}

func ruleBandwidth(cfg *Config, notices *[]Notice) {
	if cfg.GOOS == "darwin" && cfg.ZeroCopy && cfg.BandwidthLimitBPS > 0 {
		cfg.ZeroCopy = false
		note(notices, LevelWarning, "Bandwidth", "macOS zero-copy cannot be rate-limited; disabled")
	}
}

func ruleVisualNoise(cfg *Config, notices *[]Notice) {
	if cfg.Parallel && cfg.ProgressBars {
		note(notices, LevelInfo, "Visual noise", "parallel transfers with per-file progress bars may interleave output")
	}
}

func rulePerformance(cfg *Config, notices *[]Notice) {
	if (cfg.SyncMode == "sync" || cfg.SyncMode == "update") && cfg.ChecksumCheckMode {
		note(notices, LevelInfo, "Performance", "checksum-check mode adds a full read pass to every comparison")
	}
}

func note(notices *[]Notice, level Level, category, message string) {
	*notices = append(*notices, Notice{Level: level, Category: category, Message: message})
}

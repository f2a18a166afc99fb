package guidance

type probeRule func(cfg *Config, notices *[]Notice, probe Probe)

func autoTuneRules() []probeRule {
	return []probeRule{
		autoTuneNetworkFS,
		autoTuneCPURichIOPoor,
		autoTuneLowRAM,
		autoTuneCloudDestination,
	}
}

// autoTuneNetworkFS enables resume and retries when the destination is
// a network filesystem, where mid-transfer disconnects are common.
func autoTuneNetworkFS(cfg *Config, notices *[]Notice, probe Probe) {
	if probe.DestFSType != "nfs" && probe.DestFSType != "smb" {
		return
	}
	if !cfg.Resume {
		cfg.Resume = true
		note(notices, LevelInfo, "AutoTune", "network filesystem destination: resume enabled")
	}
	if cfg.Retries == 0 {
		cfg.Retries = 3
		note(notices, LevelInfo, "AutoTune", "network filesystem destination: retries enabled")
	}
}

// autoTuneCPURichIOPoor enables compression when there is CPU headroom
// to spend but the destination's measured throughput is the
// bottleneck.
func autoTuneCPURichIOPoor(cfg *Config, notices *[]Notice, probe Probe) {
	if probe.LogicalCores < cpuRichLogicalCores {
		return
	}
	if probe.EstimatedIOThroughputBPS <= 0 || probe.EstimatedIOThroughputBPS >= ioPoorThroughputBPS {
		return
	}
	if !cfg.Compression {
		cfg.Compression = true
		note(notices, LevelInfo, "AutoTune", "CPU-rich, IO-poor environment: compression enabled")
	}
}

// autoTuneLowRAM reduces parallelism when available memory is scarce.
func autoTuneLowRAM(cfg *Config, notices *[]Notice, probe Probe) {
	if probe.AvailableRAMBytes == 0 || probe.AvailableRAMBytes >= lowRAMThresholdBytes {
		return
	}
	if cfg.MaxParallelism == 0 || cfg.MaxParallelism > reducedParallelismWorkers {
		cfg.MaxParallelism = reducedParallelismWorkers
		note(notices, LevelWarning, "AutoTune", "low available RAM: parallelism reduced")
	}
}

// autoTuneCloudDestination enables retries, backoff, and compression
// for cloud destinations, where latency is high and egress is priced.
func autoTuneCloudDestination(cfg *Config, notices *[]Notice, probe Probe) {
	if probe.DestFSType != "cloud" {
		return
	}
	if cfg.Retries == 0 {
		cfg.Retries = 5
		note(notices, LevelInfo, "AutoTune", "cloud destination: retries with backoff enabled")
	}
	if !cfg.Compression {
		cfg.Compression = true
		note(notices, LevelInfo, "AutoTune", "cloud destination: compression enabled")
	}
}

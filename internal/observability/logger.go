// Package observability is orbitd's operational surface: structured
// process logging, Prometheus metrics over the chunk pipeline, liveness
// probes for the stores and listeners, and the OpenTelemetry tracer
// setup the audit span bridge exports through.
package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-level structured logger. Transfer-scoped
// events belong to the audit log; this logger carries what an operator
// tails: startup, shutdown, listener failures, and per-job summaries.
type Logger struct {
	z zerolog.Logger
}

// NewLogger builds a Logger writing JSON lines to output, stamped with
// the service name and version.
func NewLogger(service, version string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	zerolog.TimeFieldFormat = time.RFC3339
	host, _ := os.Hostname()
	return &Logger{
		z: zerolog.New(output).With().
			Timestamp().
			Str("service", service).
			Str("version", version).
			Str("host", host).
			Logger(),
	}
}

// WithJob scopes subsequent lines to one transfer job.
func (l *Logger) WithJob(jobID string) *Logger {
	return &Logger{z: l.z.With().Str("job_id", jobID).Logger()}
}

// WithFile scopes subsequent lines to one file under transfer.
func (l *Logger) WithFile(path string, size int64) *Logger {
	return &Logger{z: l.z.With().Str("file", path).Int64("size", size).Logger()}
}

func (l *Logger) Debug(msg string) { l.z.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.z.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.z.Warn().Msg(msg) }

func (l *Logger) Error(err error, msg string) {
	l.z.Error().Err(err).Msg(msg)
}

// Fatal logs and exits; reserved for startup wiring that cannot
// degrade (store unopenable, listener unbindable).
func (l *Logger) Fatal(err error, msg string) {
	l.z.Fatal().Err(err).Msg(msg)
}

// JobSummary is the one line an operator greps for per job: the final
// completed/failed/dead-lettered tallies the audit log records in full.
func (l *Logger) JobSummary(jobID string, completed, failed, deadLettered int) {
	l.z.Info().
		Str("job_id", jobID).
		Int("completed", completed).
		Int("failed", failed).
		Int("dead_lettered", deadLettered).
		Msg("job finished")
}

// ListenerUp records a listener binding, keyed by plane so dashboards
// can tell the control, data, and metrics surfaces apart.
func (l *Logger) ListenerUp(plane, addr string) {
	l.z.Info().Str("plane", plane).Str("addr", addr).Msg("listener up")
}

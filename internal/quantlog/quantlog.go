// Package quantlog wraps zap for the tool's verbose-mode progress
// logging: one line per feature processed, one per permutation
// milestone, with structured fields for the per-run parameters.
package quantlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a thin wrapper so callers depend on this package instead of
// zap directly, and so both a nil *Logger and the Logger New returns
// when verbose is off are always safe to call.
type Logger struct {
	z *zap.SugaredLogger
}

// New builds a Logger. When verbose is false it returns a Logger whose
// methods are no-ops, so call sites never need to branch on the flag.
func New(verbose bool) *Logger {
	if !verbose {
		return &Logger{}
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	z, err := cfg.Build()
	if err != nil {
		// Fall back to a no-op rather than fail the run over logging.
		return &Logger{}
	}
	return &Logger{z: z.Sugar()}
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Warnf(format, args...)
}

// FtrDone logs a single feature's completion with its SNP count and
// elapsed seconds, one structured entry per feature.
func (l *Logger) FtrDone(ftrName string, nbSnps int, elapsedSeconds float64) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Infow("feature processed",
		"ftr", ftrName,
		"nbSnps", nbSnps,
		"elapsedSeconds", elapsedSeconds,
	)
}

// PermMilestone logs a permutation-loop progress checkpoint.
func (l *Logger) PermMilestone(ftrName string, perm, nperm int) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Infow("permutation progress", "ftr", ftrName, "perm", perm, "nperm", nperm)
}

// Sync flushes any buffered log entries; call before process exit.
func (l *Logger) Sync() {
	if l == nil || l.z == nil {
		return
	}
	_ = l.z.Sync()
}

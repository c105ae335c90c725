package atomrun

import (
	"log/slog"

	"github.com/atomrun/atomrun/internal/config"
	"github.com/atomrun/atomrun/internal/env"
	"github.com/atomrun/atomrun/internal/logger"
	"github.com/atomrun/atomrun/internal/process"
	"github.com/atomrun/atomrun/internal/stream"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Spec = process.Spec

type Result = process.Result

type EnvSpec = env.Spec

type Disposition = stream.Disposition

type LogConfig = logger.Config

// Stream disposition kinds.
const (
	Inherit = stream.Inherit
	Null    = stream.Null
	File    = stream.File
	Shared  = stream.Shared
)

// ResolveStdin maps the stdin flag group to a disposition.
func ResolveStdin(null bool, path string) Disposition {
	return stream.ResolveStdin(null, path)
}

// ResolveOutput maps one stdout/stderr flag group to a disposition.
func ResolveOutput(null, shared bool, path string) Disposition {
	return stream.ResolveOutput(null, shared, path)
}

// Run launches the child described by s and blocks until it exits,
// committing staged artifacts on the way out. Diagnostics are discarded;
// use RunWithLogger to observe commit failures.
func Run(s Spec) (Result, error) {
	return process.Run(s, logger.Discard())
}

// RunWithLogger is Run with a caller-supplied diagnostics logger.
func RunWithLogger(s Spec, log *slog.Logger) (Result, error) {
	return process.Run(s, log)
}

// NewLogger builds a diagnostics logger from a config.
func NewLogger(c LogConfig) *slog.Logger { return logger.New(c) }

// LoadConfig parses a TOML config file with run defaults.
func LoadConfig(path string) (*config.File, error) { return config.Load(path) }

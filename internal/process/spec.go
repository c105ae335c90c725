package process

import (
	"github.com/atomrun/atomrun/internal/env"
	"github.com/atomrun/atomrun/internal/stream"
)

// Spec describes one supervised run. Values are read once at startup and
// immutable afterwards.
type Spec struct {
	// Command is the argv to execute verbatim; no shell, no reprocessing.
	Command []string
	// WorkDir, when set, is created if missing and becomes the child's
	// working directory.
	WorkDir string
	// Env composes the child's environment block.
	Env env.Spec
	// Stream dispositions. Stdin must not be Shared.
	Stdin  stream.Disposition
	Stdout stream.Disposition
	Stderr stream.Disposition
	// Atomic stages every output artifact in TmpDir and renames it into
	// place only after the child has exited.
	Atomic bool
	// TmpDir is the staging directory for Atomic mode; the system temp
	// directory when empty.
	TmpDir string
	// ExitFile, when set, receives the child's exit code as decimal text,
	// subject to the same commit discipline as the stream sinks.
	ExitFile string
}

// Result reports how the child run ended.
type Result struct {
	// ExitCode mirrors the child's exit code; 0 when the child was
	// terminated by a signal and no code is available.
	ExitCode int
	// Signaled is true when the child was killed by a signal.
	Signaled bool
}

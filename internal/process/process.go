package process

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"

	"github.com/atomrun/atomrun/internal/sink"
	"github.com/atomrun/atomrun/internal/stream"
)

// Run provisions the stdio sinks, spawns the child, waits for it, writes the
// exit-code artifact if requested and commits staged artifacts. The
// committer drain is deferred so every exit path settles the pending
// artifacts exactly once: before a successful spawn it discards them, after
// the spawn it commits them, even when Run unwinds with an error.
func Run(spec Spec, log *slog.Logger) (Result, error) {
	if len(spec.Command) == 0 {
		return Result{}, errors.New("command is empty")
	}

	committer := sink.NewCommitter(log)
	defer committer.Drain()

	prov := sink.NewDirect()
	if spec.Atomic {
		staging := spec.TmpDir
		if staging == "" {
			staging = os.TempDir()
		}
		prov = sink.NewStaged(staging, committer)
	}

	stdio, err := stream.Wirer{}.Wire(spec.Stdin, spec.Stdout, spec.Stderr, prov)
	if err != nil {
		return Result{}, err
	}
	defer stdio.Close()

	environ, err := spec.Env.Build()
	if err != nil {
		return Result{}, err
	}

	// #nosec G204 -- executing the caller's command is the whole point
	cmd := exec.Command(spec.Command[0], spec.Command[1:]...)
	cmd.Stdin = stdio.In
	cmd.Stdout = stdio.Out
	cmd.Stderr = stdio.Err
	cmd.Env = environ
	if spec.WorkDir != "" {
		if err := os.MkdirAll(spec.WorkDir, 0o750); err != nil {
			return Result{}, fmt.Errorf("create workdir %s: %w", spec.WorkDir, err)
		}
		cmd.Dir = spec.WorkDir
	}

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start %s: %w", spec.Command[0], err)
	}
	// The child holds duplicated descriptors now; release the parent copies
	// so the provisioned files have a single writer.
	stdio.Close()
	committer.Arm()

	waitErr := cmd.Wait()
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return Result{}, fmt.Errorf("wait for %s: %w", spec.Command[0], waitErr)
	}

	res := Result{ExitCode: cmd.ProcessState.ExitCode()}
	if res.ExitCode < 0 {
		res.ExitCode = 0
		res.Signaled = true
	}
	log.Info("child exited", "command", spec.Command[0], "exit_code", res.ExitCode, "signaled", res.Signaled)

	if spec.ExitFile != "" {
		if err := writeExitFile(prov, spec.ExitFile, res.ExitCode); err != nil {
			return res, err
		}
	}
	return res, nil
}

func writeExitFile(prov *sink.Provisioner, path string, code int) error {
	f, err := prov.Create(path)
	if err != nil {
		return fmt.Errorf("provision exit file: %w", err)
	}
	_, werr := f.WriteString(strconv.Itoa(code))
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("write exit file %s: %w", path, werr)
	}
	return nil
}

package process

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/atomrun/atomrun/internal/env"
	"github.com/atomrun/atomrun/internal/logger"
	"github.com/atomrun/atomrun/internal/stream"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests require sh on Unix-like systems")
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func sh(script string) []string { return []string{"sh", "-c", script} }

func TestRunEmptyCommandFails(t *testing.T) {
	if _, err := Run(Spec{}, logger.Discard()); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestRunSeparatesStdoutAndStderr(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	errf := filepath.Join(dir, "err.txt")

	res, err := Run(Spec{
		Command: sh("printf 'to out'; printf 'to err' 1>&2"),
		Stdin:   stream.Disposition{Kind: stream.Null},
		Stdout:  stream.Disposition{Kind: stream.File, Path: out},
		Stderr:  stream.Disposition{Kind: stream.File, Path: errf},
	}, logger.Discard())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, want 0", res.ExitCode)
	}
	if got := readFile(t, out); got != "to out" {
		t.Fatalf("stdout file = %q", got)
	}
	if got := readFile(t, errf); got != "to err" {
		t.Fatalf("stderr file = %q", got)
	}
}

func TestRunMirrorsExitCodeAndWritesExitFile(t *testing.T) {
	requireUnix(t)
	exitFile := filepath.Join(t.TempDir(), "code.txt")

	res, err := Run(Spec{
		Command:  sh("exit 7"),
		ExitFile: exitFile,
	}, logger.Discard())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 7 {
		t.Fatalf("exit code = %d, want 7", res.ExitCode)
	}
	if got := readFile(t, exitFile); got != "7" {
		t.Fatalf("exit file = %q, want %q", got, "7")
	}
}

func TestRunSignalTerminationYieldsZero(t *testing.T) {
	requireUnix(t)
	exitFile := filepath.Join(t.TempDir(), "code.txt")

	res, err := Run(Spec{
		Command:  sh("kill -9 $$"),
		ExitFile: exitFile,
	}, logger.Discard())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Signaled || res.ExitCode != 0 {
		t.Fatalf("result = %+v, want signaled with exit code 0", res)
	}
	if got := readFile(t, exitFile); got != "0" {
		t.Fatalf("exit file = %q, want %q", got, "0")
	}
}

func TestRunAtomicCommitsAndCleansStaging(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	staging := filepath.Join(dir, "staging")
	out := filepath.Join(dir, "out.txt")
	exitFile := filepath.Join(dir, "code.txt")

	res, err := Run(Spec{
		Command:  sh("printf payload"),
		Stdout:   stream.Disposition{Kind: stream.File, Path: out},
		Atomic:   true,
		TmpDir:   staging,
		ExitFile: exitFile,
	}, logger.Discard())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d", res.ExitCode)
	}
	if got := readFile(t, out); got != "payload" {
		t.Fatalf("out = %q", got)
	}
	if got := readFile(t, exitFile); got != "0" {
		t.Fatalf("exit file = %q", got)
	}
	entries, err := os.ReadDir(staging)
	if err != nil {
		t.Fatalf("read staging: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("residual temp files: %v", entries)
	}
}

func TestRunSpawnFailureLeavesDestinationAbsent(t *testing.T) {
	dir := t.TempDir()
	staging := filepath.Join(dir, "staging")
	out := filepath.Join(dir, "out.txt")

	_, err := Run(Spec{
		Command: []string{filepath.Join(dir, "no-such-binary")},
		Stdout:  stream.Disposition{Kind: stream.File, Path: out},
		Atomic:  true,
		TmpDir:  staging,
	}, logger.Discard())
	if err == nil {
		t.Fatal("expected spawn error")
	}
	if _, serr := os.Stat(out); !os.IsNotExist(serr) {
		t.Fatalf("destination must stay absent after failed spawn: %v", serr)
	}
	entries, rerr := os.ReadDir(staging)
	if rerr != nil {
		t.Fatalf("read staging: %v", rerr)
	}
	if len(entries) != 0 {
		t.Fatalf("residual temp files: %v", entries)
	}
}

func TestRunAtomicPreservesOldContentUntilCommit(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(out, []byte("previous"), 0o600); err != nil {
		t.Fatal(err)
	}

	// A failing child still commits in atomic mode; the destination flips
	// from the old complete content to the new complete content.
	res, err := Run(Spec{
		Command: sh("printf fresh; exit 3"),
		Stdout:  stream.Disposition{Kind: stream.File, Path: out},
		Atomic:  true,
		TmpDir:  filepath.Join(dir, "staging"),
	}, logger.Discard())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", res.ExitCode)
	}
	if got := readFile(t, out); got != "fresh" {
		t.Fatalf("out = %q, want %q", got, "fresh")
	}
}

func TestRunTruncatesPreviousOutput(t *testing.T) {
	requireUnix(t)
	out := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(out, []byte("a very long line from an earlier run\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Run(Spec{
		Command: sh("printf tiny"),
		Stdout:  stream.Disposition{Kind: stream.File, Path: out},
	}, logger.Discard()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := readFile(t, out); got != "tiny" {
		t.Fatalf("out = %q, want %q (no leftover bytes)", got, "tiny")
	}
}

func TestRunCreatesWorkdir(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	work := filepath.Join(dir, "nested", "work")
	out := filepath.Join(dir, "out.txt")

	if _, err := Run(Spec{
		Command: sh("pwd"),
		WorkDir: work,
		Stdout:  stream.Disposition{Kind: stream.File, Path: out},
	}, logger.Discard()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if fi, err := os.Stat(work); err != nil || !fi.IsDir() {
		t.Fatalf("workdir not created: %v", err)
	}
	got := strings.TrimSpace(readFile(t, out))
	if !strings.HasSuffix(got, filepath.Join("nested", "work")) {
		t.Fatalf("child pwd = %q, want suffix %q", got, filepath.Join("nested", "work"))
	}
}

func TestRunClearedEnvironmentIsExact(t *testing.T) {
	requireUnix(t)
	out := filepath.Join(t.TempDir(), "out.txt")

	if _, err := Run(Spec{
		Command: []string{"env"},
		Env:     env.Spec{Clear: true, Set: []string{"FOO=bar"}},
		Stdout:  stream.Disposition{Kind: stream.File, Path: out},
	}, logger.Discard()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := readFile(t, out); got != "FOO=bar\n" {
		t.Fatalf("child environment = %q, want exactly FOO=bar", got)
	}
}

func TestRunUnsetRemovesVariable(t *testing.T) {
	requireUnix(t)
	t.Setenv("ATOMRUN_DOOMED", "x")
	t.Setenv("ATOMRUN_SAFE", "y")
	out := filepath.Join(t.TempDir(), "out.txt")

	if _, err := Run(Spec{
		Command: []string{"env"},
		Env:     env.Spec{Unset: []string{"ATOMRUN_DOOMED"}},
		Stdout:  stream.Disposition{Kind: stream.File, Path: out},
	}, logger.Discard()); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimRight(readFile(t, out), "\n"), "\n")
	if slices.Contains(lines, "ATOMRUN_DOOMED=x") {
		t.Fatalf("unset variable leaked into child: %v", lines)
	}
	if !slices.Contains(lines, "ATOMRUN_SAFE=y") {
		t.Fatalf("unrelated variable lost: %v", lines)
	}
}

func TestRunProvisioningFailureAbortsBeforeSpawn(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")

	_, err := Run(Spec{
		Command: sh("touch " + marker),
		Stdout:  stream.Disposition{Kind: stream.File, Path: filepath.Join(dir, "missing", "out.txt")},
	}, logger.Discard())
	if err == nil {
		t.Fatal("expected provisioning error")
	}
	if _, serr := os.Stat(marker); !os.IsNotExist(serr) {
		t.Fatal("child must not run when provisioning fails")
	}
}

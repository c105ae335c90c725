package main

import (
	"github.com/spf13/cobra"

	"github.com/atomrun/atomrun/internal/config"
	"github.com/atomrun/atomrun/internal/env"
	"github.com/atomrun/atomrun/internal/logger"
	"github.com/atomrun/atomrun/internal/process"
	"github.com/atomrun/atomrun/internal/stream"
)

// newRootCmd creates the root command. The child's exit code is written to
// exitCode so main can mirror it; a RunE error means the run itself failed.
func newRootCmd(flags *RunFlags, exitCode *int) *cobra.Command {
	root := &cobra.Command{
		Use:   "atomrun [flags] command [args...]",
		Short: "Run a command with controlled stdio, environment and atomic output commit",
		Long: `Atomrun launches a single command with fully controlled standard-stream
routing, environment and working directory. With --atomic, redirected output
files and the exit-code file are staged in a temp directory and renamed into
place only after the child has exited, so readers never observe a partially
written file.

Flag parsing stops at the first positional argument; everything after it is
the command to execute, verbatim.

Examples:
  atomrun --out-file build.log --err-out -- make all
  atomrun --atomic --out-file out.txt --exit-file code.txt -- ./generate
  atomrun -n -e PATH=/usr/bin -e HOME=/tmp -w /tmp/scratch -- ./tool
  atomrun --out-err --err-out -- ./swapped`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, logCfg, err := buildSpec(cmd, flags, args)
			if err != nil {
				return err
			}
			res, err := process.Run(spec, logger.New(logCfg))
			if err != nil {
				return err
			}
			*exitCode = res.ExitCode
			return nil
		},
	}

	fl := root.Flags()
	// TrailingVarArg semantics: the first positional ends flag parsing.
	fl.SetInterspersed(false)

	fl.StringVar(&flags.ConfigPath, "config", "", "path to TOML config file with run defaults (optional)")

	fl.BoolVarP(&flags.NoEnvironment, "no-environment", "n", false, "start the child with an empty environment")
	fl.StringArrayVarP(&flags.Unset, "unset", "u", nil, "remove NAME from the inherited environment (repeatable)")
	fl.StringArrayVarP(&flags.Env, "env", "e", nil, "set NAME=VALUE in the child environment (repeatable)")
	fl.StringArrayVar(&flags.EnvFiles, "env-file", nil, "load NAME=VALUE pairs from a dotenv file (repeatable)")
	fl.StringVarP(&flags.WorkDir, "workdir", "w", "", "create DIR if missing and run the child inside it")

	fl.BoolVar(&flags.Atomic, "atomic", false, "stage output files and rename them into place after the child exits")
	fl.StringVar(&flags.TmpDir, "tmpdir", "", "staging directory for --atomic (default: system temp dir)")
	fl.StringVarP(&flags.ExitFile, "exit-file", "f", "", "write the child's decimal exit code to PATH")

	fl.StringVar(&flags.InFile, "in-file", "", "redirect stdin from PATH ('-' means inherit)")
	fl.BoolVar(&flags.InNull, "in-null", false, "connect stdin to the null device")
	fl.StringVar(&flags.OutFile, "out-file", "", "redirect stdout to PATH ('-' means inherit)")
	fl.BoolVar(&flags.OutNull, "out-null", false, "connect stdout to the null device")
	fl.BoolVar(&flags.OutErr, "out-err", false, "route stdout to the same target as stderr")
	fl.StringVar(&flags.ErrFile, "err-file", "", "redirect stderr to PATH ('-' means inherit)")
	fl.BoolVar(&flags.ErrNull, "err-null", false, "connect stderr to the null device")
	fl.BoolVar(&flags.ErrOut, "err-out", false, "route stderr to the same target as stdout")

	fl.StringVar(&flags.LogFile, "log-file", "", "write supervisor diagnostics to PATH (rotating) instead of stderr")
	fl.StringVar(&flags.LogLevel, "log-level", "warn", "diagnostics level: debug, info, warn, error")

	root.MarkFlagsMutuallyExclusive("in-file", "in-null")
	root.MarkFlagsMutuallyExclusive("out-file", "out-null", "out-err")
	root.MarkFlagsMutuallyExclusive("err-file", "err-null", "err-out")

	return root
}

// buildSpec merges config-file defaults into the flags and resolves the
// stream dispositions. Flags set explicitly on the command line win over the
// config file; the repeatable env lists compose (config first, then CLI).
func buildSpec(cmd *cobra.Command, f *RunFlags, args []string) (process.Spec, logger.Config, error) {
	logCfg := logger.Config{Level: f.LogLevel, File: f.LogFile}
	if f.ConfigPath != "" {
		fc, err := config.Load(f.ConfigPath)
		if err != nil {
			return process.Spec{}, logCfg, err
		}
		applyConfig(cmd, f, &logCfg, fc)
	}

	spec := process.Spec{
		Command: args,
		WorkDir: f.WorkDir,
		Env: env.Spec{
			Clear: f.NoEnvironment,
			Unset: f.Unset,
			Files: f.EnvFiles,
			Set:   f.Env,
		},
		Stdin:    stream.ResolveStdin(f.InNull, f.InFile),
		Stdout:   stream.ResolveOutput(f.OutNull, f.OutErr, f.OutFile),
		Stderr:   stream.ResolveOutput(f.ErrNull, f.ErrOut, f.ErrFile),
		Atomic:   f.Atomic,
		TmpDir:   f.TmpDir,
		ExitFile: f.ExitFile,
	}
	return spec, logCfg, nil
}

func applyConfig(cmd *cobra.Command, f *RunFlags, logCfg *logger.Config, fc *config.File) {
	changed := cmd.Flags().Changed

	if !changed("no-environment") {
		f.NoEnvironment = fc.NoEnvironment
	}
	if !changed("workdir") && fc.WorkDir != "" {
		f.WorkDir = fc.WorkDir
	}
	if !changed("atomic") {
		f.Atomic = fc.Atomic
	}
	if !changed("tmpdir") && fc.TmpDir != "" {
		f.TmpDir = fc.TmpDir
	}
	if !changed("exit-file") && fc.ExitFile != "" {
		f.ExitFile = fc.ExitFile
	}

	f.Unset = append(append([]string{}, fc.Unset...), f.Unset...)
	f.Env = append(append([]string{}, fc.Env...), f.Env...)
	f.EnvFiles = append(append([]string{}, fc.EnvFiles...), f.EnvFiles...)

	if fc.Log != nil {
		if !changed("log-file") && fc.Log.File != "" {
			logCfg.File = fc.Log.File
		}
		if !changed("log-level") && fc.Log.Level != "" {
			logCfg.Level = fc.Log.Level
		}
		logCfg.MaxSizeMB = fc.Log.MaxSizeMB
		logCfg.MaxBackups = fc.Log.MaxBackups
		logCfg.MaxAgeDays = fc.Log.MaxAgeDays
		logCfg.Compress = fc.Log.Compress
	}
}

package main

// RunFlags Flag struct to decouple cobra from logic for testing.
type RunFlags struct {
	ConfigPath string

	NoEnvironment bool
	Unset         []string
	Env           []string
	EnvFiles      []string
	WorkDir       string

	Atomic   bool
	TmpDir   string
	ExitFile string

	InFile string
	InNull bool

	OutFile string
	OutNull bool
	OutErr  bool

	ErrFile string
	ErrNull bool
	ErrOut  bool

	LogFile  string
	LogLevel string
}

package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// File represents the optional TOML config file. It carries defaults for
// the run; flags set explicitly on the command line override these.
//
// Example:
//
//	atomic = true
//	tmpdir = "/var/tmp/atomrun"
//	exit_file = "build.exit"
//	env = ["CI=1"]
//	env_files = [".env"]
//
//	[log]
//	file = "atomrun.log"
//	level = "info"
type File struct {
	NoEnvironment bool     `toml:"no_environment" mapstructure:"no_environment"`
	Unset         []string `toml:"unset" mapstructure:"unset"`
	Env           []string `toml:"env" mapstructure:"env"`
	EnvFiles      []string `toml:"env_files" mapstructure:"env_files"`
	WorkDir       string   `toml:"workdir" mapstructure:"workdir"`
	Atomic        bool     `toml:"atomic" mapstructure:"atomic"`
	TmpDir        string   `toml:"tmpdir" mapstructure:"tmpdir"`
	ExitFile      string   `toml:"exit_file" mapstructure:"exit_file"`
	Log           *Log     `toml:"log" mapstructure:"log"`
}

type Log struct {
	File       string `toml:"file" mapstructure:"file"`
	Level      string `toml:"level" mapstructure:"level"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// Load parses the TOML file at path.
func Load(path string) (*File, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc File
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &fc, nil
}

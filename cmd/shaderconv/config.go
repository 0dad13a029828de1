package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gogpu/shaderconv"
	"github.com/gogpu/shaderconv/engine"
)

const configName = "shaderconv.toml"

// Environment overrides, applied between the config file and the flags.
const (
	envInclude = "SHADERCONV_INCLUDE"
	envProfile = "SHADERCONV_PROFILE"
)

type fileConfig struct {
	Convert convertConfig `toml:"convert"`
}

// convertConfig holds the settings shared by convert and names.
type convertConfig struct {
	Include  []string          `toml:"include"`
	Defines  map[string]string `toml:"defines"`
	Profile  string            `toml:"profile"`
	Linkage  string            `toml:"linkage"`
	Target   string            `toml:"target"`
	Format   string            `toml:"format"`
	Out      string            `toml:"out"`
	Validate *bool             `toml:"validate"`
}

// findConfig walks up from startDir looking for shaderconv.toml.
func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// loadConfigFile decodes the [convert] section of path. Relative include
// directories are resolved against the file's directory.
func loadConfigFile(path string) (convertConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return convertConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return convertConfig{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	base := filepath.Dir(path)
	for i, dir := range cfg.Convert.Include {
		if !filepath.IsAbs(dir) {
			cfg.Convert.Include[i] = filepath.Join(base, dir)
		}
	}
	if cfg.Convert.Out != "" && !filepath.IsAbs(cfg.Convert.Out) {
		cfg.Convert.Out = filepath.Join(base, cfg.Convert.Out)
	}
	return cfg.Convert, nil
}

// applyEnv overrides cfg from the environment.
func applyEnv(cfg *convertConfig, getenv func(string) string) {
	if v := getenv(envInclude); v != "" {
		cfg.Include = filepath.SplitList(v)
	}
	if v := getenv(envProfile); v != "" {
		cfg.Profile = v
	}
}

// applyFlags overrides cfg with the flags set on the command line.
// Include directories and defines from flags extend the lower layers.
func applyFlags(cfg *convertConfig, cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("include") {
		dirs, err := flags.GetStringArray("include")
		if err != nil {
			return err
		}
		cfg.Include = append(dirs, cfg.Include...)
	}
	if flags.Changed("define") {
		defs, err := flags.GetStringArray("define")
		if err != nil {
			return err
		}
		if cfg.Defines == nil {
			cfg.Defines = make(map[string]string, len(defs))
		}
		for _, d := range defs {
			name, value, err := parseDefine(d)
			if err != nil {
				return err
			}
			cfg.Defines[name] = value
		}
	}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"profile", &cfg.Profile},
		{"linkage", &cfg.Linkage},
		{"target", &cfg.Target},
		{"format", &cfg.Format},
		{"out", &cfg.Out},
	} {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetString(f.name)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	if flags.Changed("no-validate") {
		off, err := flags.GetBool("no-validate")
		if err != nil {
			return err
		}
		on := !off
		cfg.Validate = &on
	}
	return nil
}

// resolveConfig layers the config file, .env, the environment and the
// flags, in increasing precedence.
func resolveConfig(cmd *cobra.Command) (convertConfig, error) {
	var cfg convertConfig

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return cfg, err
	}
	if path == "" {
		found, ok, err := findConfig(".")
		if err != nil {
			return cfg, err
		}
		if ok {
			path = found
		}
	}
	if path != "" {
		if cfg, err = loadConfigFile(path); err != nil {
			return cfg, err
		}
	}

	// .env never overrides variables already set in the process.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf(".env: %w", err)
	}
	applyEnv(&cfg, os.Getenv)

	if err := applyFlags(&cfg, cmd); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// options converts cfg to library options.
func (c convertConfig) options() (shaderconv.Options, error) {
	opts := shaderconv.DefaultOptions()
	profile, err := engine.ParseProfile(c.Profile)
	if err != nil {
		return opts, err
	}
	opts.Profile = profile
	opts.IncludeSearchPaths = c.Include
	opts.Defines = c.Defines
	if c.Linkage != "" {
		opts.LinkageName = c.Linkage
	}
	if c.Target != "" {
		opts.TargetName = c.Target
	}
	if c.Validate != nil {
		opts.Validate = *c.Validate
	}
	return opts, nil
}

// parseDefine splits NAME=VALUE. A bare NAME defines it as 1.
func parseDefine(s string) (name, value string, err error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("invalid define %q", s)
	}
	if !ok {
		value = "1"
	}
	return name, value, nil
}

// stageSpec is one stage:entry pair from --stage.
type stageSpec struct {
	Stage shaderconv.Stage
	Entry string
}

// parseStageSpec parses "stage:entry", e.g. "fragment:fs_main" or "vs:main".
func parseStageSpec(s string) (stageSpec, error) {
	stage, entry, ok := strings.Cut(s, ":")
	if !ok || entry == "" {
		return stageSpec{}, fmt.Errorf("invalid stage %q, want stage:entry", s)
	}
	st, err := engine.ParseStage(stage)
	if err != nil {
		return stageSpec{}, err
	}
	return stageSpec{Stage: st, Entry: entry}, nil
}

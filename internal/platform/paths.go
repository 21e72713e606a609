// Package platform resolves per-OS config, data and log locations.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppName is the default directory and database name.
const AppName = "skadi"

// Paths are the on-disk locations skadi reads and writes.
type Paths struct {
	ConfigPath string
	DataDir    string
	DBPath     string
	LogDir     string
}

// Options tune path resolution.
type Options struct {
	AppName string
	// DevMode keeps development data apart from the real board.
	DevMode bool
}

// envOverride names the variables that replace the config and data bases on one OS.
type envOverride struct {
	config string
	data   string
}

var envOverrides = map[string]envOverride{
	"linux":   {config: "XDG_CONFIG_HOME", data: "XDG_DATA_HOME"},
	"windows": {config: "APPDATA", data: "LOCALAPPDATA"},
}

// DefaultPaths returns the locations for the current user.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{})
}

// DefaultPathsWithOptions resolves paths from the current OS and environment.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	name := strings.TrimSpace(opts.AppName)
	if name == "" {
		name = AppName
	}
	if opts.DevMode {
		name += "-dev"
	}

	configBase, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user config dir: %w", err)
	}
	dataBase, err := userDataDir(runtime.GOOS, configBase)
	if err != nil {
		return Paths{}, err
	}

	env := map[string]string{}
	if o, ok := envOverrides[runtime.GOOS]; ok {
		env[o.config] = os.Getenv(o.config)
		env[o.data] = os.Getenv(o.data)
	}
	return PathsFor(runtime.GOOS, env, configBase, dataBase, name)
}

// userDataDir returns the platform data base before environment overrides.
func userDataDir(goos, configBase string) (string, error) {
	if goos != "linux" {
		return configBase, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("user home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share"), nil
}

// PathsFor resolves paths for goos from explicit inputs.
func PathsFor(goos string, env map[string]string, configBase, dataBase, appName string) (Paths, error) {
	if configBase == "" || dataBase == "" {
		return Paths{}, errors.New("empty base dirs")
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, errors.New("empty app name")
	}
	if o, ok := envOverrides[goos]; ok {
		configBase = firstNonEmpty(env[o.config], configBase)
		dataBase = firstNonEmpty(env[o.data], dataBase)
	}

	dataDir := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath: filepath.Join(configBase, appName, "config.toml"),
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, appName+".db"),
		LogDir:     filepath.Join(dataDir, "logs"),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// EnsureDirs creates the data and log directories.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.DataDir, p.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

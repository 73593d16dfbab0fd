package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultAppName names the config and data directories when no override is given.
const DefaultAppName = "lanes"

// Paths holds the per-user locations the lanes binary reads and writes.
type Paths struct {
	ConfigPath string
	DataDir    string
	DBPath     string
	LogDir     string
}

// Options selects the app directory name.
type Options struct {
	AppName string
	DevMode bool
}

// baseOverride names the environment variables that replace the user config
// and data roots on one OS.
type baseOverride struct {
	config, data string
}

var baseOverrides = map[string]baseOverride{
	"linux":   {config: "XDG_CONFIG_HOME", data: "XDG_DATA_HOME"},
	"windows": {config: "APPDATA", data: "LOCALAPPDATA"},
}

// DefaultPathsWithOptions resolves paths from the current user's environment.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	configRoot, dataRoot, err := userRoots(runtime.GOOS)
	if err != nil {
		return Paths{}, err
	}
	env := make(map[string]string, 2*len(baseOverrides))
	for _, o := range baseOverrides {
		env[o.config] = os.Getenv(o.config)
		env[o.data] = os.Getenv(o.data)
	}
	return PathsFor(runtime.GOOS, env, configRoot, dataRoot, dirName(opts))
}

func dirName(opts Options) string {
	name := strings.TrimSpace(opts.AppName)
	if name == "" {
		name = DefaultAppName
	}
	if opts.DevMode {
		return name + "-dev"
	}
	return name
}

// userRoots returns the OS defaults before any environment override. Linux
// keeps data under ~/.local/share rather than the config root.
func userRoots(goos string) (string, string, error) {
	configRoot, err := os.UserConfigDir()
	if err != nil {
		return "", "", fmt.Errorf("user config dir: %w", err)
	}
	switch goos {
	case "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", fmt.Errorf("user home dir: %w", err)
		}
		return configRoot, filepath.Join(home, ".local", "share"), nil
	case "windows":
		if local := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); local != "" {
			return configRoot, local, nil
		}
	}
	return configRoot, configRoot, nil
}

// PathsFor lays out the app's files under the given roots. Overrides in env
// apply only on the OS that defines them.
func PathsFor(goos string, env map[string]string, userConfigDir, userDataDir, appName string) (Paths, error) {
	if userConfigDir == "" || userDataDir == "" {
		return Paths{}, errors.New("empty base dirs")
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, errors.New("empty app name")
	}

	if o, ok := baseOverrides[goos]; ok {
		userConfigDir = envOr(env, o.config, userConfigDir)
		userDataDir = envOr(env, o.data, userDataDir)
	}
	data := filepath.Join(userDataDir, appName)
	return Paths{
		ConfigPath: filepath.Join(userConfigDir, appName, "config.toml"),
		DataDir:    data,
		DBPath:     filepath.Join(data, appName+".db"),
		LogDir:     filepath.Join(data, "log"),
	}, nil
}

func envOr(env map[string]string, key, fallback string) string {
	if v := env[key]; v != "" {
		return v
	}
	return fallback
}

// ResolveDir anchors a relative dir at base. Absolute and home-relative
// inputs are returned expanded but otherwise unchanged.
func ResolveDir(dir, base string) (string, error) {
	dir = strings.TrimSpace(dir)
	switch {
	case dir == "":
		return "", errors.New("empty dir")
	case dir == "~" || strings.HasPrefix(dir, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("user home dir: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(dir, "~")), nil
	case filepath.IsAbs(dir):
		return filepath.Clean(dir), nil
	}
	return filepath.Join(base, dir), nil
}

// Package config provides configuration management for cmdbook.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "cmdbook"

// Paths locates the files cmdbook reads and writes.
type Paths struct {
	ConfigDir string // config.toml or config.yaml
	DataDir   string // cmdbook.db
	StateDir  string // cmdbook.log
}

// DefaultPaths resolves the directories from the environment.
//
// CMDBOOK_HOME puts everything in one directory. Otherwise Unix systems use
// XDG_CONFIG_HOME, XDG_DATA_HOME and XDG_STATE_HOME with the usual fallbacks
// under $HOME, and Windows uses %APPDATA% and %LOCALAPPDATA%.
func DefaultPaths() *Paths {
	if root := os.Getenv("CMDBOOK_HOME"); root != "" {
		return &Paths{ConfigDir: root, DataDir: root, StateDir: root}
	}

	if runtime.GOOS == "windows" {
		roaming := envOr("APPDATA", "AppData", "Roaming")
		local := envOr("LOCALAPPDATA", "AppData", "Local")
		return &Paths{
			ConfigDir: filepath.Join(roaming, appName),
			DataDir:   filepath.Join(local, appName),
			StateDir:  filepath.Join(local, appName, "state"),
		}
	}

	return &Paths{
		ConfigDir: filepath.Join(envOr("XDG_CONFIG_HOME", ".config"), appName),
		DataDir:   filepath.Join(envOr("XDG_DATA_HOME", ".local", "share"), appName),
		StateDir:  filepath.Join(envOr("XDG_STATE_HOME", ".local", "state"), appName),
	}
}

// envOr returns $key, or the fallback elements joined under the home directory.
func envOr(key string, fallback ...string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return filepath.Join(append([]string{userHome()}, fallback...)...)
}

func userHome() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	if runtime.GOOS == "windows" {
		return os.Getenv("USERPROFILE")
	}
	return os.Getenv("HOME")
}

// ConfigFile returns config.toml when it exists, config.yaml otherwise.
func (p *Paths) ConfigFile() string {
	if toml := filepath.Join(p.ConfigDir, "config.toml"); fileExists(toml) {
		return toml
	}
	return filepath.Join(p.ConfigDir, "config.yaml")
}

func (p *Paths) DatabaseFile() string {
	return filepath.Join(p.DataDir, appName+".db")
}

func (p *Paths) LogFile() string {
	return filepath.Join(p.StateDir, appName+".log")
}

// EnsureDirectories creates the config, data and state directories
// with owner-only permissions.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ConfigDir, p.DataDir, p.StateDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

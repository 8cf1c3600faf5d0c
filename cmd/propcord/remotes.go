package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// RemotesConfig is the on-disk remotes file.
type RemotesConfig struct {
	Active  string            `toml:"active"`
	Remotes map[string]Remote `toml:"remotes"`
}

// Remote is a named propcord deployment. Empty fields fall back to the
// built-in defaults.
type Remote struct {
	URL      string `toml:"url" json:"url"`
	GRPCAddr string `toml:"grpc_addr,omitempty" json:"grpc_addr,omitempty"`
	Token    string `toml:"token,omitempty" json:"token,omitempty"`
	NATSURL  string `toml:"nats_url,omitempty" json:"nats_url,omitempty"`
}

// remoteConfigPath is $PROPCORD_REMOTES when set, otherwise a file under the
// user's XDG state directory.
func remoteConfigPath() (string, error) {
	if p := os.Getenv("PROPCORD_REMOTES"); p != "" {
		return p, nil
	}
	state := os.Getenv("XDG_STATE_HOME")
	if state == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		state = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(state, "propcord", "remotes.toml"), nil
}

// loadRemotesConfig reads the remotes file. A missing file is an empty
// configuration.
func loadRemotesConfig() (RemotesConfig, error) {
	cfg := RemotesConfig{Remotes: map[string]Remote{}}
	path, err := remoteConfigPath()
	if err != nil {
		return cfg, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return RemotesConfig{}, err
	}
	if cfg.Remotes == nil {
		cfg.Remotes = map[string]Remote{}
	}
	return cfg, nil
}

// saveRemotesConfig replaces the remotes file atomically with mode 0600.
func saveRemotesConfig(cfg RemotesConfig) error {
	path, err := remoteConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".remotes-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// activeRemote is the remote selected by `remote use`, read once per process.
var activeRemote = sync.OnceValues(func() (Remote, bool) {
	cfg, err := loadRemotesConfig()
	if err != nil || cfg.Active == "" {
		return Remote{}, false
	}
	r, ok := cfg.Remotes[cfg.Active]
	return r, ok
})

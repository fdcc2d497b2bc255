// Package config handles global launcher settings (Java path, memory,
// update channel, accent color) backed by the per-platform data directory
// resolved by internal/paths.
package config

import (
	"encoding/json"
	"os"

	"github.com/palethea/palethea-launcher/internal/paths"
)

// Config holds settings.json.
type Config struct {
	// Paths — derived from the Store, kept on the struct for the callers
	// that were written against flat directory fields.
	DataDir      string `json:"dataDir"`
	InstancesDir string `json:"instancesDir"`
	AssetsDir    string `json:"assetsDir"`
	LibrariesDir string `json:"librariesDir"`

	// Java
	JavaPath   string   `json:"javaPath"`
	JVMArgs    []string `json:"jvmArgs"`
	MemoryMinM int      `json:"memoryMinMiB"`
	MemoryMaxM int      `json:"memoryMaxMiB"`

	// UI preferences
	Theme         string `json:"theme"`
	AccentColor   string `json:"accentColor"`
	ShowSnapshots bool   `json:"showSnapshots"`
	UpdateChannel string `json:"updateChannel"` // stable, beta

	// Auth
	MSAClientID string `json:"msaClientID"`

	store *paths.Store
}

const (
	// DefaultMSAClientID is the public Azure AD application id used for the
	// device-code flow against login.live.com. It identifies the
	// application to Microsoft, not the user, so it is safe to embed.
	DefaultMSAClientID  = "000000004C12AE6F"
	DefaultMemoryMinMiB = 512
	DefaultMemoryMaxMiB = 2048
)

// DefaultConfig returns a config with sensible defaults rooted at the
// platform data directory.
func DefaultConfig() *Config {
	store := paths.New()
	return newConfigAt(store)
}

func newConfigAt(store *paths.Store) *Config {
	return &Config{
		DataDir:       store.Root(),
		InstancesDir:  store.InstancesDir(),
		AssetsDir:     store.AssetsDir(),
		LibrariesDir:  store.LibrariesDir(),
		JVMArgs:       nil,
		MemoryMinM:    DefaultMemoryMinMiB,
		MemoryMaxM:    DefaultMemoryMaxMiB,
		Theme:         "dark",
		AccentColor:   "#7c3aed",
		ShowSnapshots: false,
		UpdateChannel: "stable",
		MSAClientID:   DefaultMSAClientID,
		store:         store,
	}
}

// Load reads settings.json from disk, falling back to defaults for any
// missing or malformed field (a ConfigError here is recoverable, per the
// global-settings error policy).
func Load() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(cfg.store.SettingsJSON())
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, nil
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		// Malformed settings.json: keep the defaults rather than fail.
		return DefaultConfig(), nil
	}

	if cfg.MSAClientID == "" {
		cfg.MSAClientID = DefaultMSAClientID
	}
	if cfg.MemoryMaxM == 0 {
		cfg.MemoryMaxM = DefaultMemoryMaxMiB
	}
	if cfg.MemoryMinM == 0 {
		cfg.MemoryMinM = DefaultMemoryMinMiB
	}

	return cfg, nil
}

// Save writes settings.json.
func (c *Config) Save() error {
	if c.store == nil {
		c.store = paths.NewAt(c.DataDir)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.store.SettingsJSON(), data, 0o644)
}

// EnsureDirs creates every fixed subdirectory. Store accessors already
// create directories lazily, so this just touches each of them once.
func (c *Config) EnsureDirs() error {
	if c.store == nil {
		c.store = paths.NewAt(c.DataDir)
	}
	c.store.VersionsDir()
	c.store.LibrariesDir()
	c.store.AssetsDir()
	c.store.InstancesDir()
	c.store.JavaDir()
	c.store.InstanceLogosDir()
	c.store.SkinCollectionDir()
	return nil
}

// Store returns the backing paths.Store, resolving one from DataDir if the
// config was constructed via json.Unmarshal (e.g. in tests) rather than
// DefaultConfig.
func (c *Config) Store() *paths.Store {
	if c.store == nil {
		c.store = paths.NewAt(c.DataDir)
	}
	return c.store
}

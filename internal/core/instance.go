// Package core contains business logic independent of the UI.
// This is the heart of the application - all game-related logic lives here.
package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Resolution is an optional custom game window size.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Instance represents a Minecraft instance
type Instance struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Version    string    `json:"version"`   // Minecraft version (e.g., "1.21.4")
	Loader     string    `json:"loader"`    // Loader type: vanilla, fabric, forge, quilt, neoforge
	LoaderVer  string    `json:"loaderVer"` // Loader version
	Path       string    `json:"path"`      // Path to instance directory
	JavaPath   string    `json:"javaPath"`  // Path to Java executable (optional)
	JVMArgs    []string  `json:"jvmArgs"`   // Additional JVM arguments
	LastPlayed time.Time `json:"lastPlayed"`
	PlayTime   int64     `json:"playTime"` // Total playtime in seconds

	// Memory bounds, in MiB. Zero means "use the global setting".
	MemoryMinMiB int `json:"memoryMinMiB"`
	MemoryMaxMiB int `json:"memoryMaxMiB"`

	// Optional custom window resolution.
	Resolution *Resolution `json:"resolution,omitempty"`

	// GameDirOverride, when set, replaces the default "<instance>/minecraft"
	// working directory the game is launched in.
	GameDirOverride string `json:"gameDirOverride,omitempty"`

	LogoFilename     string `json:"logoFilename,omitempty"`
	AccentColor      string `json:"accentColor,omitempty"`
	TotalLaunches    int    `json:"totalLaunches"`
	PreferredAccount string `json:"preferredAccount,omitempty"` // account ID

	// Caching fields for offline support
	IsFullyDownloaded bool      `json:"isFullyDownloaded"` // All files downloaded and ready
	CachedAt          time.Time `json:"cachedAt"`          // When instance was last fully cached
}

// GameDir returns the directory the game process is launched in.
func (i *Instance) GameDir() string {
	if i.GameDirOverride != "" {
		return i.GameDirOverride
	}
	return filepath.Join(i.Path, "minecraft")
}

// NativesDir returns the per-instance native library extraction directory.
func (i *Instance) NativesDir() string {
	return filepath.Join(i.Path, "natives")
}

// LoaderMetaPath returns the path to the persisted loader metadata document
// (fabric.json / forge.json / neoforge.json), or "" for vanilla.
func (i *Instance) LoaderMetaPath() string {
	switch i.Loader {
	case "fabric":
		return filepath.Join(i.Path, "fabric.json")
	case "forge":
		return filepath.Join(i.Path, "forge.json")
	case "neoforge":
		return filepath.Join(i.Path, "neoforge.json")
	default:
		return ""
	}
}

// InstanceManager handles instance CRUD operations
type InstanceManager struct {
	basePath  string
	instances map[string]*Instance
}

// NewInstanceManager creates a new instance manager
func NewInstanceManager(basePath string) *InstanceManager {
	return &InstanceManager{
		basePath:  basePath,
		instances: make(map[string]*Instance),
	}
}

// NewInstance builds an Instance with a fresh UUID id. Callers still pass
// an explicit ID through Create for tests and migrations; this constructor
// is for the normal "create from the wizard" path.
func NewInstance(name, version, loader string) *Instance {
	return &Instance{
		ID:      uuid.NewString(),
		Name:    name,
		Version: version,
		Loader:  loader,
	}
}

// Load reads all instances from disk
func (im *InstanceManager) Load() error {
	instancesPath := filepath.Join(im.basePath, "instances")

	entries, err := os.ReadDir(instancesPath)
	if os.IsNotExist(err) {
		// No instances directory yet, that's fine
		return nil
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		configPath := filepath.Join(instancesPath, entry.Name(), "instance.json")
		data, err := os.ReadFile(configPath)
		if err != nil {
			continue // Skip instances without config
		}

		var inst Instance
		if err := json.Unmarshal(data, &inst); err != nil {
			continue // Skip malformed configs
		}

		im.instances[inst.ID] = &inst
	}

	return nil
}

// List returns all instances
func (im *InstanceManager) List() []*Instance {
	result := make([]*Instance, 0, len(im.instances))
	for _, inst := range im.instances {
		result = append(result, inst)
	}
	return result
}

// Get returns an instance by ID
func (im *InstanceManager) Get(id string) (*Instance, bool) {
	inst, ok := im.instances[id]
	return inst, ok
}

// Create creates a new instance. The id is immutable from this point on.
func (im *InstanceManager) Create(inst *Instance) error {
	if _, exists := im.instances[inst.ID]; exists {
		return fmt.Errorf("instance id already exists: %s", inst.ID)
	}

	instPath := filepath.Join(im.basePath, "instances", inst.ID)

	// Create instance directory
	if err := os.MkdirAll(instPath, 0755); err != nil {
		return err
	}

	inst.Path = instPath

	// Save instance config
	if err := im.save(inst); err != nil {
		return err
	}

	im.instances[inst.ID] = inst
	return nil
}

// Delete removes an instance's descriptor and its on-disk directory.
func (im *InstanceManager) Delete(id string) error {
	inst, ok := im.instances[id]
	if !ok {
		return nil
	}

	// Remove from disk
	if err := os.RemoveAll(inst.Path); err != nil {
		return err
	}

	delete(im.instances, id)
	return nil
}

// save writes instance config to disk
func (im *InstanceManager) save(inst *Instance) error {
	data, err := json.MarshalIndent(inst, "", "  ")
	if err != nil {
		return err
	}

	configPath := filepath.Join(inst.Path, "instance.json")
	return os.WriteFile(configPath, data, 0644)
}

// Update updates an existing instance
func (im *InstanceManager) Update(inst *Instance) error {
	im.instances[inst.ID] = inst
	return im.save(inst)
}

// UpdateLastPlayed updates the last played timestamp and increments the
// launch counter.
func (im *InstanceManager) UpdateLastPlayed(id string) error {
	inst, ok := im.instances[id]
	if !ok {
		return nil
	}
	inst.LastPlayed = time.Now()
	inst.TotalLaunches++
	return im.save(inst)
}

// AddPlaytime credits seconds of playtime to the instance. Playtime is
// monotone non-decreasing: negative deltas are ignored.
func (im *InstanceManager) AddPlaytime(id string, seconds int64) error {
	inst, ok := im.instances[id]
	if !ok {
		return fmt.Errorf("instance not found: %s", id)
	}
	if seconds > 0 {
		inst.PlayTime += seconds
	}
	return im.save(inst)
}

// Package launch drives the Minecraft launch pipeline: Java resolution,
// loader install, library/asset download, version merge, native
// extraction, argument building, and process supervision.
package launch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/palethea/palethea-launcher/internal/args"
	"github.com/palethea/palethea-launcher/internal/config"
	"github.com/palethea/palethea-launcher/internal/core"
	"github.com/palethea/palethea-launcher/internal/download"
	"github.com/palethea/palethea-launcher/internal/installer"
	"github.com/palethea/palethea-launcher/internal/java"
	"github.com/palethea/palethea-launcher/internal/merge"
	"github.com/palethea/palethea-launcher/internal/natives"
	"github.com/palethea/palethea-launcher/internal/paths"
	"github.com/palethea/palethea-launcher/internal/session"
)

// Status represents the current launch step
type Status struct {
	Step       string  // Current step name
	Progress   float64 // 0.0 - 1.0
	Message    string  // Human-readable message
	IsComplete bool
	Error      error
	LogLine    *LogLine // Streamed log output
}

// Options contains launch configuration
type Options struct {
	Instance      *core.Instance
	VersionInfo   *core.VersionDetails // vanilla descriptor
	LoaderInfo    *core.VersionDetails // fabric.json/forge.json/neoforge.json overlay, nil for vanilla
	JavaPath      string               // Override Java path
	Offline       bool                 // Skip online auth
	PlayerName    string               // For offline mode
	UUID          string               // Player UUID
	AccessToken   string               // Auth Token
	Config        *config.Config
	SessionStore  *session.Store

	// Callbacks
	UpdateLastPlayed func(id string) error
	UpdateInstance   func(inst *core.Instance) error
	RecordSession    func(instanceID, instanceName, accountName string, started, ended time.Time, crashed bool, exitCode int) error
}

// LogLine represents a line of log output
type LogLine struct {
	Text string
	Type string // "stdout" or "stderr"
}

// Launcher manages the game launch process
type Launcher struct {
	opts       *Options
	statusChan chan<- Status
	cfg        *config.Config
	store      *paths.Store
	merged     *merge.Merged
}

// NewLauncher creates a new launcher
func NewLauncher(opts *Options, statusChan chan<- Status) *Launcher {
	return &Launcher{
		opts:       opts,
		statusChan: statusChan,
		cfg:        opts.Config,
		store:      opts.Config.Store(),
	}
}

// Launch executes the full launch pipeline
func (l *Launcher) Launch(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"Checking Java", l.checkJava},
		{"Installing mod loader", l.installLoader},
		{"Downloading libraries", l.downloadLibraries},
		{"Downloading assets", l.downloadAssets},
		{"Extracting natives", l.extractNatives},
		{"Preparing game", l.prepareGame},
		{"Launching", l.launchGame},
	}

	for i, step := range steps {
		l.sendStatus(Status{
			Step:     step.name,
			Progress: float64(i) / float64(len(steps)),
			Message:  step.name + "...",
		})

		if err := step.fn(ctx); err != nil {
			l.sendStatus(Status{
				Step:    step.name,
				Message: err.Error(),
				Error:   err,
			})
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	if l.opts.Instance != nil && l.opts.UpdateInstance != nil {
		l.opts.Instance.IsFullyDownloaded = true
		l.opts.Instance.CachedAt = time.Now()
		_ = l.opts.UpdateInstance(l.opts.Instance)
	}

	l.sendStatus(Status{
		Step:       "Complete",
		Progress:   1.0,
		Message:    "Game closed.",
		IsComplete: true,
	})

	return nil
}

func (l *Launcher) sendStatus(s Status) {
	if l.statusChan != nil {
		select {
		case l.statusChan <- s:
		default:
		}
	}
}

func (l *Launcher) checkJava(ctx context.Context) error {
	if l.opts.JavaPath != "" {
		return nil
	}

	if l.opts.Instance != nil && l.opts.Instance.JavaPath != "" {
		if _, err := os.Stat(l.opts.Instance.JavaPath); err == nil {
			l.opts.JavaPath = l.opts.Instance.JavaPath
			l.sendStatus(Status{Step: "Checking Java", Message: "Using instance Java"})
			return nil
		}
	}

	requiredVersion := 8
	if l.opts.VersionInfo != nil && l.opts.VersionInfo.JavaVersion.MajorVersion > 0 {
		requiredVersion = l.opts.VersionInfo.JavaVersion.MajorVersion
	}
	// net.minecraft.launchwrapper.Launch (pre-1.13 Forge) only runs under
	// Java 8 regardless of what the version JSON claims.
	if l.opts.VersionInfo != nil && l.opts.VersionInfo.MainClass == "net.minecraft.launchwrapper.Launch" {
		requiredVersion = 8
	}

	managedJavaDir := filepath.Join(l.store.JavaDir(), fmt.Sprintf("%d", requiredVersion))
	if exe, err := java.NewDownloader().FindJavaExecutable(managedJavaDir); err == nil {
		l.commitJavaPath(exe)
		l.sendStatus(Status{Step: "Checking Java", Message: fmt.Sprintf("Using managed Java %d", requiredVersion)})
		return nil
	}

	if inst := java.NewDetector().FindBest(requiredVersion); inst != nil {
		l.commitJavaPath(inst.Path)
		l.sendStatus(Status{Step: "Checking Java", Message: fmt.Sprintf("Using %s", java.FormatInstallation(inst))})
		return nil
	}

	l.sendStatus(Status{Step: "Downloading Java", Message: fmt.Sprintf("Downloading Java %d...", requiredVersion)})

	exePath, err := java.NewDownloader().DownloadRuntime(ctx, requiredVersion, l.store.JavaDir(), func(msg string) {
		l.sendStatus(Status{Step: "Downloading Java", Message: msg})
	})
	if err != nil {
		return fmt.Errorf("failed to download java %d: %w", requiredVersion, err)
	}

	l.commitJavaPath(exePath)
	l.sendStatus(Status{Step: "Checking Java", Message: fmt.Sprintf("Downloaded Java %d", requiredVersion)})

	return nil
}

func (l *Launcher) commitJavaPath(path string) {
	l.opts.JavaPath = path
	if l.opts.Instance != nil && l.opts.UpdateInstance != nil {
		l.opts.Instance.JavaPath = path
		_ = l.opts.UpdateInstance(l.opts.Instance)
	}
}

// installLoader materializes the mod loader overlay. Only Fabric is
// installed here; for Forge/NeoForge an overlay already persisted at the
// instance's loader metadata path is loaded, and nothing installs one
// otherwise. If the instance has no loader, or the overlay is already
// persisted, this is a no-op.
func (l *Launcher) installLoader(ctx context.Context) error {
	inst := l.opts.Instance
	if inst == nil || inst.Loader == "" || inst.Loader == string(core.LoaderVanilla) {
		return nil
	}
	if l.opts.LoaderInfo != nil {
		return nil
	}

	metaPath := inst.LoaderMetaPath()
	if metaPath != "" {
		if data, err := os.ReadFile(metaPath); err == nil {
			var details core.VersionDetails
			if json.Unmarshal(data, &details) == nil {
				l.opts.LoaderInfo = &details
				return nil
			}
		}
	}

	if inst.Loader != string(core.LoaderFabric) {
		// Forge/NeoForge overlays are not installed at launch time; without
		// a persisted overlay the launch proceeds without one.
		return nil
	}

	in := installer.New(l.store)
	details, err := in.InstallFabric(ctx, inst.Version, inst.LoaderVer, l.store.LibrariesDir())
	if err != nil {
		return fmt.Errorf("installing fabric: %w", err)
	}

	data, err := json.MarshalIndent(details, "", "  ")
	if err == nil {
		_ = os.WriteFile(metaPath, data, 0o644)
	}
	l.opts.LoaderInfo = details
	return nil
}

func (l *Launcher) mergedVersion() *merge.Merged {
	if l.merged == nil {
		l.merged = merge.Merge(l.opts.VersionInfo, l.opts.LoaderInfo)
	}
	return l.merged
}

func (l *Launcher) downloadLibraries(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if l.opts.VersionInfo == nil {
		return nil
	}
	if l.opts.Instance != nil && l.opts.Instance.IsFullyDownloaded {
		return nil
	}

	m := l.mergedVersion()
	a := &args.Builder{LibraryDir: l.store.LibrariesDir()}

	var items []download.Item
	for _, lib := range m.Libraries {
		if !args.RuleApplies(lib.Rules, a.Features) {
			continue
		}
		if lib.Downloads == nil {
			continue
		}
		if artifact := lib.Downloads.Artifact; artifact != nil {
			items = append(items, download.Item{
				URL:  artifact.URL,
				Path: filepath.Join(l.store.LibrariesDir(), artifact.Path),
				SHA1: artifact.SHA1,
				Size: artifact.Size,
			})
		}
		if artifact, ok := natives.ClassifierArtifact(lib); ok {
			items = append(items, download.Item{
				URL:  artifact.URL,
				Path: filepath.Join(l.store.LibrariesDir(), artifact.Path),
				SHA1: artifact.SHA1,
				Size: artifact.Size,
			})
		}
	}

	if l.opts.VersionInfo.Downloads.Client != nil {
		client := l.opts.VersionInfo.Downloads.Client
		items = append(items, download.Item{
			URL:  client.URL,
			Path: l.store.VersionJAR(l.opts.VersionInfo.ID),
			SHA1: client.SHA1,
			Size: client.Size,
		})
	}

	if err := l.performDownload(ctx, download.StageLibraries, "Downloading libraries", items, 32); err != nil {
		return err
	}

	data, err := json.MarshalIndent(l.opts.VersionInfo, "", "  ")
	if err == nil {
		_ = os.WriteFile(l.store.VersionJSON(l.opts.VersionInfo.ID), data, 0o644)
	}
	return nil
}

func (l *Launcher) downloadAssets(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if l.opts.VersionInfo == nil {
		return nil
	}
	if l.opts.Instance != nil && l.opts.Instance.IsFullyDownloaded {
		return nil
	}

	assetIndex := l.opts.VersionInfo.AssetIndex
	indexPath := filepath.Join(l.store.AssetIndexesDir(), assetIndex.ID+".json")

	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		mgr := download.NewManager(1)
		_, err := mgr.Download(ctx, download.StageAssets, []download.Item{{
			URL:  assetIndex.URL,
			Path: indexPath,
			SHA1: assetIndex.SHA1,
			Size: assetIndex.Size,
		}}, nil)
		if err != nil {
			return fmt.Errorf("downloading asset index: %w", err)
		}
	}

	indexData, err := os.ReadFile(indexPath)
	if err != nil {
		return fmt.Errorf("reading asset index: %w", err)
	}

	var index struct {
		Objects map[string]struct {
			Hash string `json:"hash"`
			Size int64  `json:"size"`
		} `json:"objects"`
	}
	if err := json.Unmarshal(indexData, &index); err != nil {
		return fmt.Errorf("parsing asset index: %w", err)
	}

	var items []download.Item
	for _, obj := range index.Objects {
		prefix := obj.Hash[:2]
		destPath := filepath.Join(l.store.AssetObjectsDir(), prefix, obj.Hash)

		items = append(items, download.Item{
			URL:  fmt.Sprintf("https://resources.download.minecraft.net/%s/%s", prefix, obj.Hash),
			Path: destPath,
			SHA1: obj.Hash,
			Size: obj.Size,
		})
	}

	return l.performDownload(ctx, download.StageAssets, "Downloading assets", items, 32)
}

func (l *Launcher) extractNatives(ctx context.Context) error {
	m := l.mergedVersion()
	return natives.Extract(m.Libraries, l.store.LibrariesDir(), l.opts.Instance.NativesDir())
}

func (l *Launcher) prepareGame(ctx context.Context) error {
	inst := l.opts.Instance

	dirs := []string{
		inst.Path,
		inst.GameDir(),
		filepath.Join(inst.GameDir(), "mods"),
		filepath.Join(inst.GameDir(), "resourcepacks"),
		filepath.Join(inst.GameDir(), "saves"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	return nil
}

func (l *Launcher) launchGame(ctx context.Context) error {
	argv := l.buildArguments()
	inst := l.opts.Instance

	cmd := exec.CommandContext(ctx, l.opts.JavaPath, argv...)
	cmd.Dir = inst.GameDir()

	stdout, _ := cmd.StdoutPipe()
	stderr, _ := cmd.StderrPipe()

	if err := cmd.Start(); err != nil {
		return err
	}

	startedAt := time.Now()
	if l.opts.SessionStore != nil {
		_ = l.opts.SessionStore.Start(inst.ID, cmd.Process.Pid)
	}

	l.sendStatus(Status{
		Step:    "Playing",
		Message: "Game running...",
	})

	if l.opts.UpdateLastPlayed != nil {
		l.opts.UpdateLastPlayed(inst.ID)
	}

	go l.streamLog(stdout, "stdout")
	go l.streamLog(stderr, "stderr")

	err := cmd.Wait()
	endedAt := time.Now()

	if l.opts.SessionStore != nil {
		_ = l.opts.SessionStore.Stop(inst.ID)
	}
	if l.opts.RecordSession != nil {
		exitCode := 0
		crashed := err != nil
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		_ = l.opts.RecordSession(inst.ID, inst.Name, l.getPlayerName(), startedAt, endedAt, crashed, exitCode)
	}

	if err != nil {
		return fmt.Errorf("game exited with error: %w", err)
	}

	return nil
}

func (l *Launcher) streamLog(r io.Reader, streamType string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text := scanner.Text()

		isImportant := streamType == "stderr" ||
			strings.Contains(text, "[FATAL]") ||
			strings.Contains(text, "[ERROR]") ||
			strings.Contains(text, "[WARN]") ||
			strings.Contains(text, "Exception") ||
			strings.Contains(text, "Error")

		if isImportant {
			l.sendStatus(Status{
				Step: "Launching",
				LogLine: &LogLine{
					Text: text,
					Type: streamType,
				},
			})
		}
	}
}

func (l *Launcher) buildArguments() []string {
	m := l.mergedVersion()
	inst := l.opts.Instance
	a := &args.Builder{LibraryDir: l.store.LibrariesDir(), Features: args.Features{
		HasCustomRes: inst.Resolution != nil,
	}}

	clientJarPath := l.store.VersionJAR(l.opts.VersionInfo.ID)
	classpath := a.Classpath(m, clientJarPath)

	p := args.Placeholders{
		PlayerName:    l.getPlayerName(),
		VersionName:   m.ID,
		GameDirectory: inst.GameDir(),
		AssetsRoot:    l.store.AssetsDir(),
		AssetIndex:    m.AssetIndex.ID,
		UUID:          l.getUUID(),
		AccessToken:   l.getAccessToken(),
		UserType:      l.getUserType(),
		VersionType:   string(m.Type),
		Classpath:     classpath,
		NativesDir:    inst.NativesDir(),
		LibraryDir:    l.store.LibrariesDir(),
		LauncherName:  "palethea-launcher",
		LauncherVer:   "1.0.0",
	}
	if inst.Resolution != nil {
		p.ResWidth = fmt.Sprintf("%d", inst.Resolution.Width)
		p.ResHeight = fmt.Sprintf("%d", inst.Resolution.Height)
	}

	var extraJVM []string
	if len(inst.JVMArgs) > 0 {
		extraJVM = inst.JVMArgs
	} else if len(l.cfg.JVMArgs) > 0 {
		extraJVM = l.cfg.JVMArgs
	}

	memMin, memMax := inst.MemoryMinMiB, inst.MemoryMaxMiB
	if memMin == 0 {
		memMin = l.cfg.MemoryMinM
	}
	if memMax == 0 {
		memMax = l.cfg.MemoryMaxM
	}

	var argv []string
	argv = append(argv, a.BuildJVMArgs(m, p, extraJVM, memMin, memMax)...)
	argv = append(argv, m.MainClass)
	argv = append(argv, a.BuildGameArgs(m, p)...)
	return argv
}

func (l *Launcher) getPlayerName() string {
	if l.opts.PlayerName != "" {
		return l.opts.PlayerName
	}
	return "Player"
}

func (l *Launcher) getUUID() string {
	if l.opts.UUID != "" {
		return l.opts.UUID
	}
	return "00000000-0000-0000-0000-000000000000"
}

func (l *Launcher) getAccessToken() string {
	if l.opts.AccessToken != "" {
		return l.opts.AccessToken
	}
	return core.OfflineAccessToken
}

func (l *Launcher) getUserType() string {
	if l.opts.Offline {
		return "legacy"
	}
	return "msa"
}

func (l *Launcher) performDownload(ctx context.Context, stage download.Stage, stepName string, items []download.Item, workerCount int) error {
	if len(items) == 0 {
		return nil
	}

	mgr := download.NewManager(workerCount)
	progressChan := make(chan download.Progress, 10)

	go func() {
		for p := range progressChan {
			l.sendStatus(Status{
				Step:     stepName,
				Progress: p.Percentage() / 100,
				Message:  fmt.Sprintf("Downloading %s (%s)", p.CurrentItem, download.FormatSpeed(p.Speed)),
			})
		}
	}()

	result, err := mgr.Download(ctx, stage, items, progressChan)
	close(progressChan)

	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d items failed to download", result.Failed)
	}

	return nil
}

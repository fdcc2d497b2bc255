// Package installer materializes mod loader version descriptors (Fabric,
// Forge, NeoForge) on top of an already-downloaded vanilla version.
package installer

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/palethea/palethea-launcher/internal/core"
	"github.com/palethea/palethea-launcher/internal/paths"
)

// ErrUnsupportedProfileShape is returned when a legacy Forge installer's
// install_profile.json doesn't carry the embedded versionInfo this launcher
// knows how to read. Surfacing a typed error lets the caller detect it with
// errors.Is instead of matching a bare string.
var ErrUnsupportedProfileShape = errors.New("installer: unsupported install_profile.json shape")

const forgeInstallTimeout = 600 * time.Second

const forgeMavenBase = "https://maven.minecraftforge.net/net/minecraftforge/forge"

// Installer resolves and materializes mod loader metadata.
type Installer struct {
	store       *paths.Store
	httpClient  *http.Client
	downloadCli *retryablehttp.Client
}

func New(store *paths.Store) *Installer {
	dl := retryablehttp.NewClient()
	dl.Logger = nil
	return &Installer{
		store:       store,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		downloadCli: dl,
	}
}

// ForgeInstallerURLs returns, in try order, the maven URLs a Forge installer
// jar for mcVersion/forgeVersion might live at. Older builds (pre-1.13ish,
// e.g. 1.8.9) publish under "{mc}-{forge}-{mc}"; modern ones drop the
// trailing mc segment. Both are tried since there's no way to tell which
// shape a given version uses without asking the maven server.
func ForgeInstallerURLs(mcVersion, forgeVersion string) []string {
	return []string{
		fmt.Sprintf("%s/%s-%s-%s/forge-%s-%s-%s-installer.jar",
			forgeMavenBase, mcVersion, forgeVersion, mcVersion, mcVersion, forgeVersion, mcVersion),
		fmt.Sprintf("%s/%s-%s/forge-%s-%s-installer.jar",
			forgeMavenBase, mcVersion, forgeVersion, mcVersion, forgeVersion),
	}
}

// DownloadForgeInstaller tries each ForgeInstallerURLs candidate in turn and
// writes the first one that resolves to destPath.
func (in *Installer) DownloadForgeInstaller(ctx context.Context, mcVersion, forgeVersion, destPath string) error {
	var lastErr error
	for _, url := range ForgeInstallerURLs(mcVersion, forgeVersion) {
		if err := in.downloadTo(ctx, url, destPath); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("downloading forge installer: %w", lastErr)
}

func (in *Installer) downloadTo(ctx context.Context, url, destPath string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := in.downloadCli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: HTTP %d", url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return err
	}
	return nil
}

// fabricLoaderMeta mirrors the subset of meta.fabricmc.net's profile JSON
// this launcher consumes.
type fabricLoaderMeta struct {
	MainClass string `json:"mainClass"`
	Libraries []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"libraries"`
	InheritsFrom string `json:"inheritsFrom"`
	ID           string `json:"id"`
}

// InstallFabric fetches the Fabric loader profile for mcVersion +
// loaderVersion, resolves its loader/intermediary libraries to maven paths
// under libraryDir without downloading them (the caller's downloader fetches
// them), and returns a core.VersionDetails describing the loader overlay. The
// caller persists it as <instance>/fabric.json.
func (in *Installer) InstallFabric(ctx context.Context, mcVersion, loaderVersion, libraryDir string) (*core.VersionDetails, error) {
	url := fmt.Sprintf("https://meta.fabricmc.net/v2/versions/loader/%s/%s/profile/json", mcVersion, loaderVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := in.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching fabric profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fabric meta returned %d", resp.StatusCode)
	}

	var meta fabricLoaderMeta
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decoding fabric profile: %w", err)
	}

	libs := make([]core.Library, 0, len(meta.Libraries))
	for _, lib := range meta.Libraries {
		mavenPath, err := MavenPath(lib.Name)
		if err != nil {
			continue
		}
		dest := filepath.Join(libraryDir, mavenPath)
		downloadURL := lib.URL
		if downloadURL == "" {
			downloadURL = "https://maven.fabricmc.net/"
		}
		libs = append(libs, core.Library{
			Name: lib.Name,
			Downloads: &core.LibraryDownloads{
				Artifact: &core.Artifact{
					Path: mavenPath,
					URL:  downloadURL + mavenPath,
				},
			},
		})
		_ = dest // actual byte transfer happens through the shared downloader, driven by the caller
	}

	return &core.VersionDetails{
		ID:        meta.ID,
		MainClass: meta.MainClass,
		Libraries: libs,
		Type:      core.VersionTypeRelease,
	}, nil
}

// InstallForge downloads the Forge installer jar for mcVersion/forgeVersion
// from the Forge maven (trying both known URL shapes; NeoForge's maven is
// not consulted, so NeoForge installers are not fetched) and runs it
// against the store root, enforcing the spec's 600s timeout. javaPath is the
// host JVM used to run the installer (loaders ship their own bootstrap, it
// doesn't need to match the target run's Java version). Installers that
// don't support --installClient (legacy builds like 1.8.9) fall back to
// ManualExtractForge.
func (in *Installer) InstallForge(ctx context.Context, javaPath, mcVersion, forgeVersion string) error {
	if err := in.ensureLauncherProfiles(); err != nil {
		return fmt.Errorf("writing launcher_profiles.json: %w", err)
	}

	installerPath := filepath.Join(os.TempDir(), fmt.Sprintf("forge-%s-%s-installer.jar", mcVersion, forgeVersion))
	if err := in.DownloadForgeInstaller(ctx, mcVersion, forgeVersion, installerPath); err != nil {
		return err
	}
	defer os.Remove(installerPath)

	runCtx, cancel := context.WithTimeout(ctx, forgeInstallTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, javaPath, "-jar", installerPath, "--installClient", in.store.Root())
	cmd.Stdout = nil
	cmd.Stderr = nil
	hideConsole(cmd)
	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("forge installer timed out after %s", forgeInstallTimeout)
		}
		return ManualExtractForge(installerPath, in.store)
	}
	return nil
}

// ensureLauncherProfiles writes an empty launcher_profiles.json at the
// store root if one doesn't exist — Forge/NeoForge installers refuse to
// run without it.
func (in *Installer) ensureLauncherProfiles() error {
	path := filepath.Join(in.store.Root(), "launcher_profiles.json")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(`{"profiles":{},"selectedProfile":"","clientToken":""}`), 0o644)
}

// legacyInstallProfile mirrors the install_profile.json shape used by
// Forge builds old enough that the modern installer protocol doesn't
// cover them: the full version descriptor embedded directly, plus the
// path of the loader's own jar inside the installer zip.
type legacyInstallProfile struct {
	VersionInfo json.RawMessage `json:"versionInfo"`
	Install     struct {
		Path     string `json:"path"`
		FilePath string `json:"filePath"`
	} `json:"install"`
}

// ManualExtractForge is the legacy fallback: open the installer as a zip,
// parse its install_profile.json, write the embedded version descriptor to
// versions/<id>/<id>.json, and copy the universal jar to its maven path.
func ManualExtractForge(installerPath string, store *paths.Store) error {
	r, err := zip.OpenReader(installerPath)
	if err != nil {
		return fmt.Errorf("opening forge installer: %w", err)
	}
	defer r.Close()

	var profileEntry, universalEntry *zip.File
	for _, f := range r.File {
		switch f.Name {
		case "install_profile.json":
			profileEntry = f
		}
	}
	if profileEntry == nil {
		return ErrUnsupportedProfileShape
	}

	rc, err := profileEntry.Open()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedProfileShape, err)
	}
	defer rc.Close()

	var profile legacyInstallProfile
	if err := json.NewDecoder(rc).Decode(&profile); err != nil || len(profile.VersionInfo) == 0 {
		return ErrUnsupportedProfileShape
	}

	var details core.VersionDetails
	if err := json.Unmarshal(profile.VersionInfo, &details); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedProfileShape, err)
	}

	versionDir := store.VersionDir(details.ID)
	data, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(versionDir, details.ID+".json"), data, 0o644); err != nil {
		return err
	}

	if profile.Install.FilePath != "" && profile.Install.Path != "" {
		for _, f := range r.File {
			if f.Name == profile.Install.FilePath {
				universalEntry = f
				break
			}
		}
	}
	if universalEntry == nil {
		return nil // version descriptor is enough; universal jar is optional on some builds
	}

	mavenPath, err := MavenPath(profile.Install.Path)
	if err != nil {
		return nil
	}
	destPath := filepath.Join(store.LibrariesDir(), mavenPath)
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}

	src, err := universalEntry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	buf := make([]byte, 64*1024)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr != nil {
			break
		}
	}
	return nil
}

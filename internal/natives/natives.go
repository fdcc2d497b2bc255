// Package natives extracts the native (DLL/SO/DYLIB) libraries a launch
// needs into the instance's per-launch natives directory.
package natives

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/palethea/palethea-launcher/internal/core"
)

// osClassifier returns the Mojang-style classifier suffix for the current
// platform, e.g. "natives-linux".
func osClassifier() string {
	switch runtime.GOOS {
	case "windows":
		return "natives-windows"
	case "darwin":
		return "natives-macos"
	default:
		return "natives-linux"
	}
}

// legacyOSName maps runtime.GOOS to the name used in Library.Natives
// (pre-1.19 version JSON format), e.g. {"linux": "natives-linux"}.
func legacyOSName() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "osx"
	default:
		return "linux"
	}
}

// ArchPlaceholder returns the value legacy natives classifiers substitute
// for "${arch}" — the pointer width of the running process, as a decimal
// string ("32" or "64").
func ArchPlaceholder() string {
	if strconv.IntSize == 64 {
		return "64"
	}
	return "32"
}

// expandArch substitutes "${arch}" in a natives classifier key, e.g.
// "natives-windows-${arch}" -> "natives-windows-64".
func expandArch(key string) string {
	return strings.ReplaceAll(key, "${arch}", ArchPlaceholder())
}

var nativeExt = map[string]bool{
	".dll":    true,
	".so":     true,
	".dylib":  true,
	".jnilib": true,
}

// ClassifierArtifact returns the native-classifier artifact of lib that
// matches the running OS, if any — via the modern explicit classifiers map
// or the legacy Natives[os] (with "${arch}" expanded) indirection. Shared
// by the download step (which must fetch this artifact) and the native
// extractor (which must unpack it).
func ClassifierArtifact(lib core.Library) (*core.Artifact, bool) {
	if lib.Downloads == nil || lib.Downloads.Classifiers == nil {
		return nil, false
	}

	if key, ok := lib.Natives[legacyOSName()]; ok {
		if artifact, ok := lib.Downloads.Classifiers[expandArch(key)]; ok {
			return artifact, true
		}
	}

	classifier := osClassifier()
	legacy := legacyOSName()
	for name, artifact := range lib.Downloads.Classifiers {
		if strings.Contains(name, classifier) || strings.Contains(name, legacy) {
			return artifact, true
		}
	}
	return nil, false
}

// Extract walks libraries, locates the ones carrying natives for the
// current platform (either via the legacy Natives map + classifiers, or
// via a libraries/*natives*.jar path), and unpacks their DLL/SO/DYLIB
// payload directly into destDir (a flat directory, matching how the JVM's
// java.library.path expects to find them). Already-extracted directories
// are left alone.
func Extract(libs []core.Library, libraryDir, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	if alreadyExtracted(destDir) {
		return nil
	}

	for _, lib := range libs {
		if lib.Downloads == nil {
			continue
		}
		var exclude []string
		if lib.Extract != nil {
			exclude = lib.Extract.Exclude
		}

		if artifact, ok := ClassifierArtifact(lib); ok {
			jarPath := filepath.Join(libraryDir, artifact.Path)
			_ = extractJar(jarPath, destDir, exclude)
		}

		// Fallback: a main artifact whose path itself names "natives".
		if lib.Downloads.Artifact != nil && strings.Contains(strings.ToLower(lib.Downloads.Artifact.Path), "natives") {
			jarPath := filepath.Join(libraryDir, lib.Downloads.Artifact.Path)
			_ = extractJar(jarPath, destDir, exclude)
		}
	}

	return nil
}

func alreadyExtracted(destDir string) bool {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if nativeExt[strings.ToLower(filepath.Ext(entry.Name()))] {
			return true
		}
	}
	return false
}

// extractJar extracts native files from a JAR into a flat destDir,
// skipping directories, META-INF, and any entry matching an exclude prefix.
func extractJar(jarPath, destDir string, exclude []string) error {
	r, err := zip.OpenReader(jarPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "META-INF/") {
			continue
		}
		if matchesExclude(f.Name, exclude) {
			continue
		}
		if !nativeExt[strings.ToLower(filepath.Ext(f.Name))] {
			continue
		}

		destPath := filepath.Join(destDir, filepath.Base(f.Name))
		if _, err := os.Stat(destPath); err == nil {
			continue
		}

		if err := copyZipEntry(f, destPath); err != nil {
			continue
		}
	}
	return nil
}

func matchesExclude(name string, exclude []string) bool {
	for _, prefix := range exclude {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func copyZipEntry(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

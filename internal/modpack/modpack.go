// Package modpack imports and exports Modrinth .mrpack modpack archives:
// a zip containing a modrinth.index.json manifest (mod download URLs +
// hashes) plus an "overrides" directory of files to copy verbatim into the
// instance.
package modpack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
)

// Index is modrinth.index.json.
type Index struct {
	FormatVersion int    `json:"formatVersion"`
	Game          string `json:"game"`
	VersionID     string `json:"versionId"`
	Name          string `json:"name"`
	Files         []File `json:"files"`
	Dependencies  map[string]string `json:"dependencies"` // e.g. "minecraft": "1.20.4", "fabric-loader": "0.15.7"
}

// File is one mod entry: where it lands relative to the instance root, and
// the hashes/URLs to fetch it from.
type File struct {
	Path      string            `json:"path"`
	Hashes    map[string]string `json:"hashes"` // "sha1", "sha512"
	Downloads []string          `json:"downloads"`
	FileSize  int64             `json:"fileSize"`
}

// Import extracts mrpackPath into instanceDir: overrides/ files land
// directly under instanceDir, and the parsed Index.Files list is returned
// so the caller can drive them through the shared downloader (they are
// not fetched here — this package only unpacks the archive itself).
func Import(ctx context.Context, mrpackPath, instanceDir string) (*Index, error) {
	f, err := os.Open(mrpackPath)
	if err != nil {
		return nil, fmt.Errorf("opening mrpack: %w", err)
	}
	defer f.Close()

	format, stream, err := archives.Identify(ctx, mrpackPath, f)
	if err != nil {
		return nil, fmt.Errorf("identifying mrpack format: %w", err)
	}
	extractor, ok := format.(archives.Extractor)
	if !ok {
		return nil, fmt.Errorf("mrpack archive format does not support extraction")
	}

	var index *Index
	err = extractor.Extract(ctx, stream, func(ctx context.Context, fi archives.FileInfo) error {
		switch {
		case fi.NameInArchive == "modrinth.index.json":
			rc, err := fi.Open()
			if err != nil {
				return err
			}
			defer rc.Close()
			var idx Index
			if err := json.NewDecoder(rc).Decode(&idx); err != nil {
				return fmt.Errorf("decoding modrinth.index.json: %w", err)
			}
			index = &idx
			return nil

		case strings.HasPrefix(fi.NameInArchive, "overrides/"):
			return extractOverride(fi, instanceDir, "overrides/")

		case strings.HasPrefix(fi.NameInArchive, "client-overrides/"):
			return extractOverride(fi, instanceDir, "client-overrides/")

		default:
			return nil
		}
	})
	if err != nil {
		return nil, fmt.Errorf("extracting mrpack: %w", err)
	}
	if index == nil {
		return nil, fmt.Errorf("mrpack missing modrinth.index.json")
	}
	return index, nil
}

func extractOverride(fi archives.FileInfo, instanceDir, prefix string) error {
	rel := strings.TrimPrefix(fi.NameInArchive, prefix)
	if rel == "" {
		return nil
	}
	target := filepath.Join(instanceDir, rel)

	// No sneaky traversals out of the instance directory.
	if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(instanceDir)) {
		return fmt.Errorf("illegal path in mrpack: %s", fi.NameInArchive)
	}

	if fi.IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := fi.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// Export writes instanceDir's config/resourcepacks/shaderpacks (as overrides) and
// a generated Index into a new .mrpack zip at destPath. Mod jars already
// known to have come from Modrinth (identified by the caller, e.g. via a
// manifest it tracks) are listed in index.Files instead of being embedded,
// matching the .mrpack convention of referencing them by URL.
func Export(ctx context.Context, instanceDir, destPath string, index *Index) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}

	overridesDir := []string{"config", "resourcepacks", "shaderpacks"}
	fileMap := map[string]string{}
	for _, dir := range overridesDir {
		src := filepath.Join(instanceDir, dir)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		fileMap[src] = filepath.Join("overrides", dir)
	}

	files, err := archives.FilesFromDisk(ctx, nil, fileMap)
	if err != nil {
		return fmt.Errorf("collecting overrides: %w", err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	format := archives.Zip{}
	if err := format.Archive(ctx, out, files); err != nil {
		return fmt.Errorf("writing mrpack: %w", err)
	}

	return writeIndexIntoZip(destPath, data)
}

// writeIndexIntoZip appends modrinth.index.json to an already-written zip.
// archives.Zip.Archive only accepts disk-backed FileInfo, so the
// generated manifest (which has no disk path) is added in a second pass
// via the standard library's zip writer in append mode.
func writeIndexIntoZip(zipPath string, indexJSON []byte) error {
	return appendZipEntry(zipPath, "modrinth.index.json", indexJSON)
}

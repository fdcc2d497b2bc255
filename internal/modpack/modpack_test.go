package modpack

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTestMrpack(t *testing.T, path string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating test mrpack: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	indexJSON := `{
		"formatVersion": 1,
		"game": "minecraft",
		"versionId": "1.0.0",
		"name": "Test Pack",
		"files": [
			{"path": "mods/example.jar", "hashes": {"sha1": "abc123"}, "downloads": ["https://example.com/example.jar"], "fileSize": 1024}
		],
		"dependencies": {"minecraft": "1.20.4", "fabric-loader": "0.15.7"}
	}`
	w, err := zw.Create("modrinth.index.json")
	if err != nil {
		t.Fatalf("creating index entry: %v", err)
	}
	if _, err := w.Write([]byte(indexJSON)); err != nil {
		t.Fatalf("writing index entry: %v", err)
	}

	w, err = zw.Create("overrides/config/example.toml")
	if err != nil {
		t.Fatalf("creating override entry: %v", err)
	}
	if _, err := w.Write([]byte("setting = true\n")); err != nil {
		t.Fatalf("writing override entry: %v", err)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip writer: %v", err)
	}
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	mrpackPath := filepath.Join(dir, "pack.mrpack")
	writeTestMrpack(t, mrpackPath)

	instanceDir := filepath.Join(dir, "instance")
	if err := os.MkdirAll(instanceDir, 0o755); err != nil {
		t.Fatal(err)
	}

	index, err := Import(context.Background(), mrpackPath, instanceDir)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if index.Name != "Test Pack" {
		t.Errorf("Name = %q, want %q", index.Name, "Test Pack")
	}
	if len(index.Files) != 1 {
		t.Fatalf("expected 1 file entry, got %d", len(index.Files))
	}
	if index.Files[0].Path != "mods/example.jar" {
		t.Errorf("file path = %q, want %q", index.Files[0].Path, "mods/example.jar")
	}
	if index.Dependencies["minecraft"] != "1.20.4" {
		t.Errorf("dependency minecraft = %q, want %q", index.Dependencies["minecraft"], "1.20.4")
	}

	overridePath := filepath.Join(instanceDir, "config", "example.toml")
	data, err := os.ReadFile(overridePath)
	if err != nil {
		t.Fatalf("override file was not extracted: %v", err)
	}
	if string(data) != "setting = true\n" {
		t.Errorf("override content = %q, want %q", data, "setting = true\n")
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	instanceDir := filepath.Join(dir, "instance")
	configDir := filepath.Join(instanceDir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "example.toml"), []byte("setting = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	index := &Index{
		FormatVersion: 1,
		Game:          "minecraft",
		VersionID:     "1.0.0",
		Name:          "Exported Pack",
		Dependencies:  map[string]string{"minecraft": "1.20.4"},
	}

	destPath := filepath.Join(dir, "out.mrpack")
	if err := Export(context.Background(), instanceDir, destPath, index); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	r, err := zip.OpenReader(destPath)
	if err != nil {
		t.Fatalf("opening exported mrpack: %v", err)
	}
	defer r.Close()

	var sawIndex, sawOverride bool
	for _, f := range r.File {
		switch f.Name {
		case "modrinth.index.json":
			sawIndex = true
		case "overrides/config/example.toml":
			sawOverride = true
		}
	}
	if !sawIndex {
		t.Error("exported archive missing modrinth.index.json")
	}
	if !sawOverride {
		t.Error("exported archive missing overrides/config/example.toml")
	}
}

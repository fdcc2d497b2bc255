package merge

import (
	"testing"

	"github.com/palethea/palethea-launcher/internal/core"
)

func TestLibraryID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"group:artifact:version", "net.fabricmc:fabric-loader:0.15.7", "net.fabricmc:fabric-loader"},
		{"with classifier", "org.lwjgl:lwjgl:3.3.1:natives-linux", "org.lwjgl:lwjgl:natives-linux"},
		{"malformed", "not-a-coordinate", "not-a-coordinate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LibraryID(tt.in); got != tt.want {
				t.Errorf("LibraryID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMerge_VanillaOnly(t *testing.T) {
	vanilla := &core.VersionDetails{
		ID:        "1.20.4",
		MainClass: "net.minecraft.client.main.Main",
		Libraries: []core.Library{{Name: "com.mojang:brigadier:1.0.18"}},
		Type:      core.VersionTypeRelease,
	}

	m := Merge(vanilla, nil)

	if m.ID != "1.20.4" {
		t.Errorf("ID = %q, want vanilla id", m.ID)
	}
	if m.MainClass != "net.minecraft.client.main.Main" {
		t.Errorf("MainClass = %q, want vanilla main class", m.MainClass)
	}
	if len(m.Libraries) != 1 {
		t.Errorf("Libraries = %d, want 1", len(m.Libraries))
	}
}

func TestMerge_LoaderOverridesMainClassAndDedupes(t *testing.T) {
	vanilla := &core.VersionDetails{
		ID:        "1.20.4",
		MainClass: "net.minecraft.client.main.Main",
		Libraries: []core.Library{
			{Name: "com.mojang:brigadier:1.0.18"},
			{Name: "org.ow2.asm:asm:9.3"},
		},
	}
	loader := &core.VersionDetails{
		ID:        "fabric-loader-0.15.7-1.20.4",
		MainClass: "net.fabricmc.loader.impl.launch.knot.KnotClient",
		Libraries: []core.Library{
			{Name: "org.ow2.asm:asm:9.6"}, // newer version of a vanilla lib
			{Name: "net.fabricmc:fabric-loader:0.15.7"},
		},
	}

	m := Merge(vanilla, loader)

	if m.ID != loader.ID {
		t.Errorf("ID = %q, want loader id", m.ID)
	}
	if m.MainClass != loader.MainClass {
		t.Errorf("MainClass = %q, want loader main class", m.MainClass)
	}

	ids := SortedLibraryIDs(m.Libraries)
	if len(ids) != 3 {
		t.Fatalf("expected 3 deduped libraries, got %d: %v", len(ids), ids)
	}

	// The loader's asm:9.6 must win over vanilla's asm:9.3 — first occurrence
	// (loader-first ordering) is kept.
	var sawASM bool
	for _, lib := range m.Libraries {
		if lib.Name == "org.ow2.asm:asm:9.6" {
			sawASM = true
		}
		if lib.Name == "org.ow2.asm:asm:9.3" {
			t.Error("vanilla's older asm version should have been deduped out")
		}
	}
	if !sawASM {
		t.Error("loader's asm:9.6 should be present")
	}
}

func TestMerge_ArgumentsConcatenateLoaderFirst(t *testing.T) {
	vanilla := &core.VersionDetails{
		ID:        "1.20.4",
		MainClass: "net.minecraft.client.main.Main",
		Arguments: &core.Arguments{JVM: []interface{}{"-Dvanilla=1"}},
	}
	loader := &core.VersionDetails{
		ID:        "fabric",
		Arguments: &core.Arguments{JVM: []interface{}{"-Dfabric=1"}},
	}

	m := Merge(vanilla, loader)

	if len(m.Arguments.JVM) != 2 {
		t.Fatalf("expected 2 merged JVM args, got %d", len(m.Arguments.JVM))
	}
	if m.Arguments.JVM[0] != "-Dfabric=1" {
		t.Errorf("loader args should come first, got %v", m.Arguments.JVM)
	}
}

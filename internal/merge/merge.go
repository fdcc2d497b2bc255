// Package merge overlays a mod loader's version descriptor on top of the
// vanilla one it inherits from, producing the single descriptor the launch
// pipeline builds arguments and a classpath from.
package merge

import (
	"sort"
	"strings"

	"github.com/palethea/palethea-launcher/internal/core"
)

// LibraryID returns the dedup identity of a library: group:artifact, plus
// classifier if present, with the version stripped. Two libraries with the
// same identity but different versions are the same slot in the classpath;
// the first one seen wins.
func LibraryID(name string) string {
	parts := strings.Split(name, ":")
	if len(parts) < 2 {
		return name
	}
	group, artifact := parts[0], parts[1]
	id := group + ":" + artifact
	if len(parts) >= 4 {
		id += ":" + parts[3]
	}
	return id
}

// Merged is the result of overlaying a loader descriptor on a vanilla one.
type Merged struct {
	ID                 string
	MainClass          string
	Libraries          []core.Library
	Arguments          *core.Arguments
	MinecraftArguments string
	AssetIndex         core.AssetIndexRef
	Assets             string
	Downloads          core.Downloads
	JavaVersion        core.JavaVersionReq
	Type               core.VersionType
}

// Merge overlays loader on top of vanilla. loader may be nil for a vanilla
// launch. The loader's ID, main class and libraries take precedence, as do
// its asset index and Java requirement when it sets them; vanilla supplies
// the rest (downloads, and asset index/Java requirement the loader omits).
// Libraries are deduplicated by LibraryID, keeping the first occurrence —
// loader libraries are listed first so the loader's choice of version wins.
func Merge(vanilla *core.VersionDetails, loader *core.VersionDetails) *Merged {
	m := &Merged{
		ID:                 vanilla.ID,
		MainClass:          vanilla.MainClass,
		Arguments:          vanilla.Arguments,
		MinecraftArguments: vanilla.MinecraftArguments,
		AssetIndex:         vanilla.AssetIndex,
		Assets:             vanilla.Assets,
		Downloads:          vanilla.Downloads,
		JavaVersion:        vanilla.JavaVersion,
		Type:               vanilla.Type,
	}

	var all []core.Library
	if loader != nil {
		m.ID = loader.ID
		if loader.MainClass != "" {
			m.MainClass = loader.MainClass
		}
		if loader.AssetIndex.ID != "" {
			m.AssetIndex = loader.AssetIndex
			m.Assets = loader.AssetIndex.ID
		}
		if loader.JavaVersion.MajorVersion != 0 {
			m.JavaVersion = loader.JavaVersion
		}

		switch {
		case loader.Arguments != nil:
			// Loader ships the modern arguments shape: merge it with
			// vanilla's and drop any legacy string so game-arg building
			// doesn't apply both forms.
			m.Arguments = mergeArguments(vanilla.Arguments, loader.Arguments)
			m.MinecraftArguments = ""
		case loader.MinecraftArguments != "":
			// Loader only ships the legacy minecraftArguments string
			// (pre-1.13 Forge). It replaces vanilla's argument set
			// entirely rather than merging, since the legacy format has
			// no concept of loader-added tokens.
			m.MinecraftArguments = loader.MinecraftArguments
			m.Arguments = nil
		}

		all = append(all, loader.Libraries...)
	}
	all = append(all, vanilla.Libraries...)
	m.Libraries = dedupLibraries(all)

	return m
}

// mergeArguments concatenates loader arguments before vanilla's, since
// loaders (Fabric's knot client, Forge's cpw launcher) typically add JVM
// flags the vanilla list doesn't know about, rather than replacing it.
func mergeArguments(vanilla, loader *core.Arguments) *core.Arguments {
	if vanilla == nil {
		return loader
	}
	merged := &core.Arguments{}
	merged.JVM = append(merged.JVM, loader.JVM...)
	merged.JVM = append(merged.JVM, vanilla.JVM...)
	merged.Game = append(merged.Game, loader.Game...)
	merged.Game = append(merged.Game, vanilla.Game...)
	return merged
}

func dedupLibraries(libs []core.Library) []core.Library {
	seen := make(map[string]bool, len(libs))
	out := make([]core.Library, 0, len(libs))
	for _, lib := range libs {
		id := LibraryID(lib.Name)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, lib)
	}
	return out
}

// SortedLibraryIDs is a test/debug helper returning the dedup identities
// sorted alphabetically (not in classpath order).
func SortedLibraryIDs(libs []core.Library) []string {
	ids := make([]string, 0, len(libs))
	for _, lib := range libs {
		ids = append(ids, LibraryID(lib.Name))
	}
	sort.Strings(ids)
	return ids
}

// Package args evaluates Mojang's OS/arch/feature launch rules and builds
// the final JVM + game argument list and classpath for a launch.
package args

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/palethea/palethea-launcher/internal/core"
	"github.com/palethea/palethea-launcher/internal/merge"
	"github.com/palethea/palethea-launcher/internal/natives"
)

// Features describes which optional game features are active for this
// launch (demo mode, custom resolution, quick-play variants). Unknown
// feature keys a rule references are treated as unset — deny by default —
// matching the documented fallback.
type Features struct {
	IsDemoUser        bool
	HasCustomRes      bool
	QuickPlaySingle   bool
	QuickPlayMulti    bool
	QuickPlayRealms   bool
	HasQuickPlaySupp  bool
}

func mojangOSName() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "osx"
	default:
		return "linux"
	}
}

// RuleApplies evaluates a list of allow/deny rules, last-applicable-wins.
// No rules at all means the item is always included.
func RuleApplies(rules []core.Rule, f Features) bool {
	if len(rules) == 0 {
		return true
	}

	osName := mojangOSName()
	arch := runtime.GOARCH

	allowed := false
	for _, rule := range rules {
		if !ruleMatches(rule, osName, arch, f) {
			continue
		}
		allowed = rule.Action == "allow"
	}
	return allowed
}

func ruleMatches(rule core.Rule, osName, arch string, f Features) bool {
	if rule.OS != nil {
		if rule.OS.Name != "" && rule.OS.Name != osName {
			return false
		}
		if rule.OS.Arch != "" && rule.OS.Arch != arch {
			return false
		}
	}
	if rule.Features != nil {
		ff := rule.Features
		if ff.IsDemoUser && !f.IsDemoUser {
			return false
		}
		if ff.HasCustomRes && !f.HasCustomRes {
			return false
		}
		if ff.IsQuickPlaySingle && !f.QuickPlaySingle {
			return false
		}
		if ff.IsQuickPlayMulti && !f.QuickPlayMulti {
			return false
		}
		if ff.IsQuickPlayRealms && !f.QuickPlayRealms {
			return false
		}
		if ff.HasQuickPlaysup && !f.HasQuickPlaySupp {
			return false
		}
	}
	return true
}

// Placeholders is the full substitution table for ${...} tokens in both
// JVM and game argument lists.
type Placeholders struct {
	PlayerName    string
	VersionName   string
	GameDirectory string
	AssetsRoot    string
	AssetIndex    string
	UUID          string
	AccessToken   string
	UserType      string
	VersionType   string
	ResWidth      string
	ResHeight     string
	Classpath     string
	NativesDir    string
	LibraryDir    string
	LauncherName  string
	LauncherVer   string
}

func (p Placeholders) table() map[string]string {
	return map[string]string{
		"${auth_player_name}":  p.PlayerName,
		"${version_name}":      p.VersionName,
		"${game_directory}":    p.GameDirectory,
		"${assets_root}":       p.AssetsRoot,
		"${game_assets}":       p.AssetsRoot,
		"${assets_index_name}": p.AssetIndex,
		"${auth_uuid}":         p.UUID,
		"${auth_access_token}": p.AccessToken,
		"${user_type}":         p.UserType,
		"${version_type}":      p.VersionType,
		"${resolution_width}":  p.ResWidth,
		"${resolution_height}": p.ResHeight,
		"${classpath}":         p.Classpath,
		"${natives_directory}": p.NativesDir,
		"${library_directory}": p.LibraryDir,
		"${launcher_name}":     p.LauncherName,
		"${launcher_version}":  p.LauncherVer,
		"${clientid}":          "",
		"${auth_xuid}":         "",
		"${user_properties}":   "{}",
	}
}

func substitute(s string, table map[string]string) string {
	for k, v := range table {
		s = strings.ReplaceAll(s, k, v)
	}
	return s
}

// Builder assembles the classpath and argument lists for one launch.
type Builder struct {
	LibraryDir string
	Features   Features
}

// Classpath orders loader libraries (if any) first, then vanilla
// libraries, then those same libraries' native-classifier jars, then the
// client jar, deduplicating by merge.LibraryID so the loader's chosen
// version wins. Joined with the platform-appropriate separator.
func (b *Builder) Classpath(m *merge.Merged, clientJarPath string) string {
	seen := map[string]bool{}
	var entries []string
	var nativeEntries []string

	for _, lib := range m.Libraries {
		if !RuleApplies(lib.Rules, b.Features) {
			continue
		}
		if lib.Downloads == nil {
			continue
		}
		id := merge.LibraryID(lib.Name)
		if seen[id] {
			continue
		}
		seen[id] = true
		if lib.Downloads.Artifact != nil {
			entries = append(entries, filepath.Join(b.LibraryDir, lib.Downloads.Artifact.Path))
		}
		if artifact, ok := natives.ClassifierArtifact(lib); ok {
			nativeEntries = append(nativeEntries, filepath.Join(b.LibraryDir, artifact.Path))
		}
	}

	entries = append(entries, nativeEntries...)
	entries = append(entries, clientJarPath)

	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	return strings.Join(entries, sep)
}

// BuildGameArgs renders the game argument list, handling both the modern
// split arguments.game form and the legacy minecraftArguments string.
func (b *Builder) BuildGameArgs(m *merge.Merged, p Placeholders) []string {
	table := p.table()
	var out []string

	if m.Arguments != nil && len(m.Arguments.Game) > 0 {
		for _, raw := range m.Arguments.Game {
			switch v := raw.(type) {
			case string:
				out = append(out, substitute(v, table))
			case map[string]interface{}:
				out = append(out, b.renderConditionalArg(v, table)...)
			}
		}
		return out
	}

	if m.MinecraftArguments != "" {
		for _, tok := range strings.Fields(m.MinecraftArguments) {
			out = append(out, substitute(tok, table))
		}
	}
	return out
}

func (b *Builder) renderConditionalArg(v map[string]interface{}, table map[string]string) []string {
	rulesRaw, _ := v["rules"].([]interface{})
	if !b.conditionalRulesAllow(rulesRaw) {
		return nil
	}

	var out []string
	switch val := v["value"].(type) {
	case string:
		out = append(out, substitute(val, table))
	case []interface{}:
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, substitute(s, table))
			}
		}
	}
	return out
}

func (b *Builder) conditionalRulesAllow(rawRules []interface{}) bool {
	if len(rawRules) == 0 {
		return true
	}
	osName := mojangOSName()
	allowed := false
	for _, raw := range rawRules {
		rule, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		action, _ := rule["action"].(string)
		matches := true
		if osRule, ok := rule["os"].(map[string]interface{}); ok {
			if name, ok := osRule["name"].(string); ok && name != "" && name != osName {
				matches = false
			}
		}
		if featRule, ok := rule["features"].(map[string]interface{}); ok {
			for key, want := range featRule {
				wantBool, _ := want.(bool)
				if wantBool && !b.featureSatisfied(key) {
					matches = false
				}
			}
		}
		if matches {
			allowed = action == "allow"
		}
	}
	return allowed
}

func (b *Builder) featureSatisfied(key string) bool {
	switch key {
	case "is_demo_user":
		return b.Features.IsDemoUser
	case "has_custom_resolution":
		return b.Features.HasCustomRes
	case "is_quick_play_singleplayer":
		return b.Features.QuickPlaySingle
	case "is_quick_play_multiplayer":
		return b.Features.QuickPlayMulti
	case "is_quick_play_realms":
		return b.Features.QuickPlayRealms
	case "has_quick_plays_support":
		return b.Features.HasQuickPlaySupp
	default:
		slog.Warn("unknown launch rule feature, denying", "feature", key)
		return false // unknown feature key: deny by default
	}
}

// BuildJVMArgs renders the JVM argument list from the modern split form,
// falling back to a minimal default set for legacy versions that only
// specify game arguments.
func (b *Builder) BuildJVMArgs(m *merge.Merged, p Placeholders, extra []string, memMinMiB, memMaxMiB int) []string {
	table := p.table()
	var out []string

	if memMinMiB > 0 {
		out = append(out, fmt.Sprintf("-Xms%dM", memMinMiB))
	}
	if memMaxMiB > 0 {
		out = append(out, fmt.Sprintf("-Xmx%dM", memMaxMiB))
	}
	out = append(out, extra...)

	if runtime.GOOS == "darwin" {
		out = append(out, "-XstartOnFirstThread")
	}
	out = append(out, fmt.Sprintf("-Djava.library.path=%s", p.NativesDir))
	out = append(out, fmt.Sprintf("-Djna.tmpdir=%s", p.NativesDir))

	if m.Arguments != nil {
		for _, raw := range m.Arguments.JVM {
			switch v := raw.(type) {
			case string:
				out = append(out, substitute(v, table))
			case map[string]interface{}:
				out = append(out, b.renderConditionalArg(v, table)...)
			}
		}
	}

	out = append(out, "-cp", table["${classpath}"])
	return out
}

// WindowsArgFile writes args (already rendered) to a temporary @argfile for
// platforms/JVMs whose command line length would otherwise be exceeded,
// returning the path to pass as the process's sole argument ("@"+path).
// Each argument containing whitespace is double-quoted.
func WindowsArgFile(dir string, argv []string) (string, error) {
	f, err := os.CreateTemp(dir, "palethea-args-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	for _, a := range argv {
		line := a
		if strings.ContainsAny(a, " \t") {
			line = `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
		}
		if _, err := f.WriteString(line + "\n"); err != nil {
			return "", err
		}
	}
	return f.Name(), nil
}

package args

import (
	"runtime"
	"strings"
	"testing"

	"github.com/palethea/palethea-launcher/internal/core"
	"github.com/palethea/palethea-launcher/internal/merge"
)

func TestRuleApplies_NoRules(t *testing.T) {
	if !RuleApplies(nil, Features{}) {
		t.Error("no rules should always apply")
	}
}

func TestRuleApplies_OSGate(t *testing.T) {
	rules := []core.Rule{
		{Action: "allow"},
		{Action: "disallow", OS: &core.OSRule{Name: "does-not-exist"}},
	}
	if !RuleApplies(rules, Features{}) {
		t.Error("disallow rule for a non-matching OS should not suppress the earlier allow")
	}
}

func TestRuleApplies_FeatureGate(t *testing.T) {
	rules := []core.Rule{
		{Action: "allow", Features: &core.Features{HasCustomRes: true}},
	}
	if RuleApplies(rules, Features{HasCustomRes: false}) {
		t.Error("rule gated on has_custom_resolution should not apply when the feature is unset")
	}
	if !RuleApplies(rules, Features{HasCustomRes: true}) {
		t.Error("rule gated on has_custom_resolution should apply when the feature is set")
	}
}

func TestBuilder_Classpath(t *testing.T) {
	m := &merge.Merged{
		Libraries: []core.Library{
			{
				Name: "com.mojang:brigadier:1.0.18",
				Downloads: &core.LibraryDownloads{
					Artifact: &core.Artifact{Path: "com/mojang/brigadier/1.0.18/brigadier-1.0.18.jar"},
				},
			},
		},
	}
	b := &Builder{LibraryDir: "/libs"}
	cp := b.Classpath(m, "/versions/1.20.4/1.20.4.jar")

	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	parts := strings.Split(cp, sep)
	if len(parts) != 2 {
		t.Fatalf("expected 2 classpath entries, got %d: %v", len(parts), parts)
	}
	if parts[len(parts)-1] != "/versions/1.20.4/1.20.4.jar" {
		t.Errorf("client jar should be last, got %v", parts)
	}
}

func TestBuilder_BuildGameArgs_LegacyString(t *testing.T) {
	m := &merge.Merged{MinecraftArguments: "--username ${auth_player_name} --uuid ${auth_uuid}"}
	b := &Builder{}
	p := Placeholders{PlayerName: "Steve", UUID: "abc-123"}

	got := b.BuildGameArgs(m, p)
	want := []string{"--username", "Steve", "--uuid", "abc-123"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuilder_BuildGameArgs_ModernConditional(t *testing.T) {
	m := &merge.Merged{
		Arguments: &core.Arguments{
			Game: []interface{}{
				"--username", "${auth_player_name}",
				map[string]interface{}{
					"rules": []interface{}{
						map[string]interface{}{
							"action":   "allow",
							"features": map[string]interface{}{"has_custom_resolution": true},
						},
					},
					"value": []interface{}{"--width", "${resolution_width}"},
				},
			},
		},
	}
	b := &Builder{Features: Features{HasCustomRes: true}}
	p := Placeholders{PlayerName: "Alex", ResWidth: "1280"}

	got := b.BuildGameArgs(m, p)
	want := []string{"--username", "Alex", "--width", "1280"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuilder_BuildGameArgs_ConditionalSkippedWhenFeatureUnset(t *testing.T) {
	m := &merge.Merged{
		Arguments: &core.Arguments{
			Game: []interface{}{
				map[string]interface{}{
					"rules": []interface{}{
						map[string]interface{}{
							"action":   "allow",
							"features": map[string]interface{}{"has_custom_resolution": true},
						},
					},
					"value": []interface{}{"--width", "${resolution_width}"},
				},
			},
		},
	}
	b := &Builder{Features: Features{HasCustomRes: false}}

	got := b.BuildGameArgs(m, Placeholders{})
	if len(got) != 0 {
		t.Errorf("expected no args when gating feature is unset, got %v", got)
	}
}

func TestBuilder_BuildJVMArgs_IncludesMemoryAndClasspath(t *testing.T) {
	m := &merge.Merged{}
	b := &Builder{}
	p := Placeholders{Classpath: "/a.jar:/b.jar", NativesDir: "/natives"}

	got := b.BuildJVMArgs(m, p, nil, 512, 2048)

	joined := strings.Join(got, " ")
	if !strings.Contains(joined, "-Xms512M") || !strings.Contains(joined, "-Xmx2048M") {
		t.Errorf("expected memory flags in %v", got)
	}
	if got[len(got)-1] != "/a.jar:/b.jar" || got[len(got)-2] != "-cp" {
		t.Errorf("expected trailing -cp <classpath>, got %v", got)
	}
}

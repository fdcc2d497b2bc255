package installer

import "testing"

func TestMavenPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"group artifact version",
			"net.fabricmc:fabric-loader:0.15.7",
			"net/fabricmc/fabric-loader/0.15.7/fabric-loader-0.15.7.jar",
		},
		{
			"with classifier",
			"org.lwjgl:lwjgl:3.3.1:natives-linux",
			"org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1-natives-linux.jar",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MavenPath(tt.in)
			if err != nil {
				t.Fatalf("MavenPath(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("MavenPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMavenPath_Invalid(t *testing.T) {
	if _, err := MavenPath("not-enough-parts"); err == nil {
		t.Error("expected an error for a coordinate missing group:artifact:version")
	}
}

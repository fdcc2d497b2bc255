package hashutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSHA1File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	sum, err := SHA1File(path)
	if err != nil {
		t.Fatalf("SHA1File failed: %v", err)
	}
	want := "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"
	if sum != want {
		t.Errorf("SHA1File = %q, want %q", sum, want)
	}
}

func TestVerifyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		expected string
		want     bool
	}{
		{"matching hash", "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed", true},
		{"mismatched hash", "0000000000000000000000000000000000000000", false},
		{"empty expected trusts presence", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyFile(path, tt.expected); got != tt.want {
				t.Errorf("VerifyFile = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyFile_Missing(t *testing.T) {
	dir := t.TempDir()
	if VerifyFile(filepath.Join(dir, "nope.txt"), "") {
		t.Error("VerifyFile should be false for a missing file even with empty expected hash")
	}
}

// Package hashutil verifies downloaded artifacts against their expected
// SHA-1 digest.
package hashutil

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
)

// SHA1File computes the lowercase hex SHA-1 digest of the file at path.
func SHA1File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyFile reports whether the file at path exists and its SHA-1 digest
// matches expected. With an empty expected digest (some Mojang artifacts
// omit it) the file verifies whenever it exists.
func VerifyFile(path, expected string) bool {
	if expected == "" {
		_, err := os.Stat(path)
		return err == nil
	}
	sum, err := SHA1File(path)
	if err != nil {
		return false
	}
	return sum == expected
}

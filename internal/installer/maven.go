package installer

import (
	"fmt"
	"strings"
)

// MavenPath converts a Maven coordinate ("group:artifact:version" or
// "group:artifact:version:classifier") into its repository-relative path,
// e.g. "net.fabricmc:fabric-loader:0.15.7" ->
// "net/fabricmc/fabric-loader/0.15.7/fabric-loader-0.15.7.jar".
func MavenPath(coord string) (string, error) {
	parts := strings.Split(coord, ":")
	if len(parts) < 3 {
		return "", fmt.Errorf("invalid maven coordinate: %s", coord)
	}
	group := strings.ReplaceAll(parts[0], ".", "/")
	artifact, version := parts[1], parts[2]

	file := fmt.Sprintf("%s-%s", artifact, version)
	if len(parts) >= 4 && parts[3] != "" {
		file += "-" + parts[3]
	}
	file += ".jar"

	return fmt.Sprintf("%s/%s/%s/%s", group, artifact, version, file), nil
}

package helpers

import (
	"os"
	"strings"

	"github.com/google/uuid"
)

// GenerateBuildID generates a unique identifier for a build history entry
func GenerateBuildID() string {
	return uuid.NewString()
}

// ExpandHome replaces a leading "~/" with the user's home directory
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}


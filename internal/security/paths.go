package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateExtractPath prevents directory traversal attacks (Zip Slip vulnerability)
// Ensures that the extracted path does not escape the target directory
func ValidateExtractPath(targetDir, extractedPath string) error {
	if strings.Contains(extractedPath, "\x00") {
		return fmt.Errorf("path contains null bytes: %s", extractedPath)
	}

	// Clean the path to resolve . and ..
	cleanPath := filepath.Clean(extractedPath)

	// Ensure the path doesn't start with /
	if filepath.IsAbs(cleanPath) {
		return fmt.Errorf("absolute path not allowed: %s", extractedPath)
	}

	// Check for path traversal attempts
	if hasParentSegment(cleanPath) {
		return fmt.Errorf("path contains ..: %s", extractedPath)
	}

	// Build target path and verify it's under targetDir
	destPath := filepath.Join(targetDir, cleanPath)

	within, err := isWithin(destPath, targetDir)
	if err != nil {
		return err
	}
	if !within {
		return fmt.Errorf("path escapes destination directory: %s", extractedPath)
	}

	return nil
}

// ValidateSymlink ensures symlinks don't escape the target directory
func ValidateSymlink(targetDir, linkPath, linkTarget string) error {
	if filepath.IsAbs(linkTarget) {
		return fmt.Errorf("symlink target escapes destination: %s -> %s", linkPath, linkTarget)
	}

	// Resolve the symlink target relative to its location
	resolvedTarget := filepath.Join(filepath.Dir(linkPath), linkTarget)

	within, err := isWithin(resolvedTarget, targetDir)
	if err != nil {
		return err
	}
	if !within {
		return fmt.Errorf("symlink target escapes destination: %s -> %s", linkPath, linkTarget)
	}

	return nil
}

// ValidateRelativeFile checks a file named in stdeb.cfg (desktop files, mime
// files, udev rules). It must be relative and stay inside the source tree.
func ValidateRelativeFile(name string) error {
	if name == "" {
		return fmt.Errorf("file name cannot be empty")
	}
	if strings.ContainsAny(name, "\x00\n\r") {
		return fmt.Errorf("file name contains control characters: %q", name)
	}
	if filepath.IsAbs(name) {
		return fmt.Errorf("file name must be relative to the source tree: %s", name)
	}
	if hasParentSegment(filepath.Clean(name)) {
		return fmt.Errorf("file name escapes the source tree: %s", name)
	}
	return nil
}

func isWithin(path, dir string) (bool, error) {
	cleanDir, err := filepath.Abs(dir)
	if err != nil {
		return false, fmt.Errorf("failed to resolve target directory: %w", err)
	}

	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve destination path: %w", err)
	}

	return cleanPath == cleanDir ||
		strings.HasPrefix(cleanPath, cleanDir+string(filepath.Separator)), nil
}

func hasParentSegment(p string) bool {
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

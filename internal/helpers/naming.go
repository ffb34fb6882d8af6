package helpers

import (
	"strings"
)

// DebianizeBinaryName makes name acceptable as a Debian binary package name.
// Examples:
//   - "My_Pkg" -> "my-pkg"
//   - "zope.interface" -> "zope.interface"
func DebianizeBinaryName(name string) string {
	name = strings.ReplaceAll(name, "_", "-")
	return strings.ToLower(name)
}

// DebianizeSourceName makes name acceptable as a Debian source package name,
// which additionally disallows dots.
func DebianizeSourceName(name string) string {
	name = strings.ReplaceAll(name, "_", "-")
	name = strings.ReplaceAll(name, ".", "-")
	return strings.ToLower(name)
}

// DebianizeVersion makes an upstream Python version usable as a Debian
// upstream version. ".dev" becomes "~dev" so development releases sort
// below the final release.
func DebianizeVersion(version string) string {
	// Lowercase first so ".DEV" is caught on the first pass
	version = strings.ToLower(version)
	version = strings.ReplaceAll(version, "_", "-")
	return strings.ReplaceAll(version, ".dev", "~dev")
}

// PythonPackageName returns the conventional Debian binary package name for a
// Python distribution.
func PythonPackageName(project string) string {
	return "python-" + DebianizeBinaryName(project)
}

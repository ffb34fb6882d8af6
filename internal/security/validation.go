package security

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// ValidPackageNameRegex follows Debian policy for source and binary package names
	ValidPackageNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9+.-]+$`)

	// ValidEnvNameRegex allows shell variable names
	ValidEnvNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	// ValidBuildIDRegex matches build history identifiers
	ValidBuildIDRegex = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
)

// ValidatePackageName validates a Debian source or binary package name
func ValidatePackageName(name string) error {
	if name == "" {
		return fmt.Errorf("package name cannot be empty")
	}

	if len(name) > 255 {
		return fmt.Errorf("package name too long (max 255 characters)")
	}

	if !ValidPackageNameRegex.MatchString(name) {
		return fmt.Errorf("invalid package name %q: must be at least two characters of lowercase letters, digits, '+', '-' or '.', starting with a letter or digit", name)
	}

	return nil
}

// ValidateFieldValue rejects values that would break a single-line control field
func ValidateFieldValue(field, value string) error {
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains null byte", field)
	}
	if strings.ContainsAny(value, "\n\r") {
		return fmt.Errorf("%s must be a single line: %q", field, value)
	}
	return nil
}

// ValidateMaintainer checks a Maintainer or Uploaders entry
func ValidateMaintainer(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("maintainer cannot be empty")
	}
	return ValidateFieldValue("Maintainer", value)
}

// ValidateEnvAssignment validates a NAME=value pair exported into debian/rules
func ValidateEnvAssignment(assignment string) error {
	name, value, ok := strings.Cut(assignment, "=")
	if !ok {
		return fmt.Errorf("environment assignment must have the form NAME=value: %q", assignment)
	}

	if !ValidEnvNameRegex.MatchString(name) {
		return fmt.Errorf("invalid environment variable name: %s", name)
	}

	// Values should not contain null bytes or line breaks
	if strings.ContainsAny(value, "\x00\n\r") {
		return fmt.Errorf("environment variable %s has a value with control characters", name)
	}

	return nil
}

// ValidateBuildID validates a build history ID
func ValidateBuildID(id string) error {
	if id == "" {
		return fmt.Errorf("build ID cannot be empty")
	}

	if !ValidBuildIDRegex.MatchString(id) {
		return fmt.Errorf("invalid build ID format")
	}

	if len(id) > 100 {
		return fmt.Errorf("build ID too long")
	}

	return nil
}

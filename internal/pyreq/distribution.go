package pyreq

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Distribution identifies an installed Python distribution from its
// metadata directory name, e.g. "Foo_Bar-1.0-py2.7.egg-info".
type Distribution struct {
	Project   string
	Version   string
	PyVersion string
	Platform  string
}

// Key is the lowercase project name used for matching
func (d Distribution) Key() string {
	return strings.ToLower(d.Project)
}

func (d Distribution) String() string {
	if d.Version == "" {
		return d.Project
	}
	return d.Project + " " + d.Version
}

var eggNameRegex = regexp.MustCompile(`^(?P<name>[^-]+)(?:-(?P<ver>[^-]+)(?:-py(?P<pyver>[^-]+)(?:-(?P<plat>.+))?)?)?$`)

// MetadataExtensions are the directory suffixes of installed distribution metadata
var MetadataExtensions = []string{".egg-info", ".dist-info"}

// DistributionFromFilename parses an installed metadata path. Only the base
// name is considered. Version is empty when the name carries none.
func DistributionFromFilename(p string) (Distribution, error) {
	base := path.Base(strings.TrimRight(p, "/"))

	stem := ""
	for _, ext := range MetadataExtensions {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			stem = base[:len(base)-len(ext)]
			break
		}
	}
	if stem == "" {
		return Distribution{}, fmt.Errorf("not a distribution metadata name: %q", base)
	}

	m := eggNameRegex.FindStringSubmatch(stem)
	if m == nil {
		return Distribution{}, fmt.Errorf("cannot parse distribution name %q", base)
	}

	d := Distribution{
		Project:   SafeName(m[eggNameRegex.SubexpIndex("name")]),
		Version:   m[eggNameRegex.SubexpIndex("ver")],
		PyVersion: m[eggNameRegex.SubexpIndex("pyver")],
		Platform:  m[eggNameRegex.SubexpIndex("plat")],
	}
	if d.Version != "" {
		// Filenames encode "-" in versions as "_"
		d.Version = SafeVersion(strings.ReplaceAll(d.Version, "_", "-"))
	}

	return d, nil
}

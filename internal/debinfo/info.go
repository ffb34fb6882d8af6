// Package debinfo resolves everything needed to describe one Debian source
// package built from a Python distribution.
//
// Construction runs as an ordered pipeline of stages, each returning an
// immutable value that later stages read. Build either returns a complete
// Info or an error; no partial record is ever exposed.
package debinfo

import (
	"time"

	"github.com/quantmind-br/pydeb/internal/core"
)

const (
	// DebhelperMinVersion is the oldest debhelper generated rules work with
	DebhelperMinVersion = "7"
	// DebhelperIdealVersion fixes Debian bug #548392
	DebhelperIdealVersion = "7.4.3"
	// PythonSupportMinVersion is the oldest python-support supported
	PythonSupportMinVersion = "0.8.4"
	// SetuptoolsBuildDepend is always the first build dependency
	SetuptoolsBuildDepend = "python-setuptools (>= 0.6b3)"
	// DistutilsBuildSystem is always exported into debian/rules
	DistutilsBuildSystem = "DH_OPTIONS=--buildsystem=python_distutils"
)

// Info is the fully resolved description of a source package.
// It must be treated as read-only once returned by Build.
type Info struct {
	ModuleName    string
	EggModuleName string

	Source  string
	Package string

	UpstreamVersion  string
	Epoch            string
	PackagingVersion string
	FullVersion      string
	DscVersion       string

	Distribution string
	Maintainer   string
	Uploaders    []string
	Date         time.Time
	ToolVersion  string

	Architecture   core.Architecture
	BuildDepends   []string
	BuildConflicts []string
	Depends        []string
	Recommends     []string
	Suggests       []string
	Conflicts      []string
	Provides       []string
	Replaces       []string

	Description     string
	LongDescription string

	CopyrightFile    string
	MIMEFile         string
	SharedMIMEFile   string
	UdevRules        string
	MIMEDesktopFiles []string
	InstallLines     []string

	PatchFile  string
	PatchLevel int

	XSPythonVersion []string
	ShlibdepsParams string
	SetupEnvVars    []string

	PycentralRemovalPreinst bool
	NeedsCustomBinaryTarget bool
}

// OrigTarballName returns "<source>_<upstream>.orig.tar.gz"
func (i *Info) OrigTarballName() string {
	return i.Source + "_" + i.UpstreamVersion + ".orig.tar.gz"
}

// DscName returns "<source>_<upstream>-<revision>.dsc"
func (i *Info) DscName() string {
	return i.Source + "_" + i.DscVersion + ".dsc"
}

// SourceDirname is the directory the debianized tree lives in, "<source>-<upstream>"
func (i *Info) SourceDirname() string {
	return i.Source + "-" + i.UpstreamVersion
}

// DhArchFlag selects the debhelper package set matching the architecture
func (i *Info) DhArchFlag() string {
	if i.Architecture == core.ArchAll {
		return "-i"
	}
	return "-a"
}

// VersionsConsistent reports whether the composed versions match their parts
func (i *Info) VersionsConsistent() bool {
	return i.FullVersion == i.Epoch+i.UpstreamVersion+"-"+i.PackagingVersion &&
		i.DscVersion == i.UpstreamVersion+"-"+i.PackagingVersion
}

// Metadata summarizes the record for the build history
func (i *Info) Metadata() core.Metadata {
	return core.Metadata{
		ModuleName:   i.ModuleName,
		Architecture: i.Architecture,
		Distribution: i.Distribution,
		Depends:      append([]string(nil), i.Depends...),
		BuildDepends: append([]string(nil), i.BuildDepends...),
		PatchFile:    i.PatchFile,
	}
}

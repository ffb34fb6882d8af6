package core

import "time"

// Architecture is the Debian Architecture field of the binary package
type Architecture string

const (
	ArchAll Architecture = "all"
	ArchAny Architecture = "any"
)

// BuildOptions contains options for a single source package build
type BuildOptions struct {
	DistDir                 string // Directory receiving the final artifacts
	WorkDir                 string // Directory relative file references are resolved against
	OrigSdist               string // Verbatim original archive to link as the orig tarball
	PatchPosix              bool   // Pass --posix to patch
	PatchAlreadyApplied     bool   // Skip patch application
	RemoveExpandedSourceDir bool   // Skip the final dpkg-source -x
}

// BuildRecord describes a source package produced by a build
type BuildRecord struct {
	BuildID     string    `json:"build_id"`
	Source      string    `json:"source"`
	Package     string    `json:"package"`
	Version     string    `json:"version"`
	BuildDate   time.Time `json:"build_date"`
	OrigTarball string    `json:"orig_tarball"`
	DscFile     string    `json:"dsc_file"`
	DistDir     string    `json:"dist_dir"`
	ExpandedDir string    `json:"expanded_dir,omitempty"`
	Metadata    Metadata  `json:"metadata"`
}

// Metadata contains additional build metadata stored with a record
type Metadata struct {
	ModuleName   string       `json:"module_name"`
	Architecture Architecture `json:"architecture"`
	Distribution string       `json:"distribution"`
	Depends      []string     `json:"depends,omitempty"`
	BuildDepends []string     `json:"build_depends,omitempty"`
	PatchFile    string       `json:"patch_file,omitempty"`
}

// Exit codes
const (
	ExitSuccess         = 0
	ExitGeneral         = 1
	ExitInvalidArgs     = 2
	ExitBuildFailed     = 3
	ExitDatabase        = 5
	ExitPermission      = 6
	ExitCommandNotFound = 8
	ExitInterrupted     = 130
)

package debinfo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantmind-br/pydeb/internal/helpers"
)

// Input is the upstream metadata and the explicit caller overrides for one build
type Input struct {
	ModuleName          string
	EggModuleName       string
	DefaultDistribution string
	DefaultMaintainer   string
	UpstreamVersion     string
	HasExtModules       bool
	Description         string
	LongDescription     string

	// InstallRequires and SetupRequires are requires.txt formatted text
	InstallRequires string
	SetupRequires   string

	HaveScriptEntryPoints           bool
	Workaround548392                bool
	PycentralBackwardsCompatibility bool

	// Command line overrides. Empty or nil means not given.
	DebianVersion        string
	PatchFile            string
	PatchLevel           *int
	ForceXSPythonVersion []string

	ToolVersion string
}

// DependencyMapper converts requires.txt text to Debian relations
type DependencyMapper interface {
	MapText(ctx context.Context, text string) ([]string, error)
}

// PythonVersions reports the system default Python version, e.g. "2.7"
type PythonVersions interface {
	DefaultVersion(ctx context.Context) (string, error)
}

// Deps are the collaborators used while building an Info
type Deps struct {
	Mapper     DependencyMapper
	PyVersions PythonVersions
	Now        func() time.Time
	Log        *zerolog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		nop := zerolog.Nop()
		d.Log = &nop
	}
	return d
}

// SystemPythonVersions asks pyversions for the default interpreter and falls
// back to a configured version when the tool is unavailable
type SystemPythonVersions struct {
	runner   helpers.CommandRunner
	tool     string
	fallback string
}

// NewSystemPythonVersions creates a pyversions backed provider
func NewSystemPythonVersions(runner helpers.CommandRunner, tool, fallback string) *SystemPythonVersions {
	if tool == "" {
		tool = "pyversions"
	}
	return &SystemPythonVersions{runner: runner, tool: tool, fallback: fallback}
}

// DefaultVersion runs "pyversions -d" and strips the "python" prefix
func (s *SystemPythonVersions) DefaultVersion(ctx context.Context) (string, error) {
	if !s.runner.CommandExists(s.tool) {
		if s.fallback != "" {
			return s.fallback, nil
		}
		return "", fmt.Errorf("cannot determine default Python version: %s not found and no default configured", s.tool)
	}

	out, err := s.runner.RunCommand(ctx, s.tool, "-d")
	if err != nil {
		return "", err
	}

	return strings.TrimPrefix(strings.TrimSpace(out), "python"), nil
}

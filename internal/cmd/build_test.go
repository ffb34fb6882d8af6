package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/pydeb/internal/config"
	"github.com/quantmind-br/pydeb/internal/core"
	"github.com/quantmind-br/pydeb/internal/db"
	"github.com/quantmind-br/pydeb/internal/fsops"
	"github.com/quantmind-br/pydeb/internal/helpers"
	"github.com/quantmind-br/pydeb/internal/ui"
)

const testPkgInfo = `Metadata-Version: 1.1
Name: %s
Version: 1.0
Summary: does things
Home-page: https://example.com
Author: Jane Doe
Author-email: jane@example.com
License: MIT
Description: UNKNOWN
Platform: UNKNOWN
`

// writeSdist creates /src/<dirname>.tar.gz containing files below <dirname>/
func writeSdist(t *testing.T, fs afero.Fs, name, dirname string, files map[string]string) string {
	t.Helper()
	all := map[string]string{
		"PKG-INFO": strings.Replace(testPkgInfo, "%s", name, 1),
		"setup.py": "from setuptools import setup\nsetup()\n",
	}
	for k, v := range files {
		all[k] = v
	}
	for rel, content := range all {
		p := filepath.Join("/src", dirname, rel)
		require.NoError(t, fs.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, afero.WriteFile(fs, p, []byte(content), 0644))
	}

	tarball := filepath.Join("/src", dirname+".tar.gz")
	require.NoError(t, helpers.CreateTarGz(fs, tarball, "/src", dirname))
	return tarball
}

type call struct {
	dir  string
	name string
	args []string
}

// fakeRunner records calls to external tools
type fakeRunner struct {
	helpers.MockCommandRunner
	mu       sync.Mutex
	calls    []call
	aptFile  []string
	failTool string
}

func newFakeRunner() *fakeRunner {
	r := &fakeRunner{}
	r.RunCommandFunc = func(_ context.Context, name string, args ...string) (string, error) {
		r.record("", name, args)
		if name == "apt-file" {
			return strings.Join(r.aptFile, "\n"), nil
		}
		return "", nil
	}
	r.RunCommandInDirFunc = func(_ context.Context, dir, name string, args ...string) (string, error) {
		r.record(dir, name, args)
		if name == r.failTool {
			return "", &core.ExternalToolError{Args: append([]string{name}, args...), Dir: dir, ExitCode: 2, Err: errors.New("exit status 2")}
		}
		return "", nil
	}
	return r
}

func (r *fakeRunner) record(dir, name string, args []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{dir: dir, name: name, args: args})
}

func (r *fakeRunner) toolCalls(name string) []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []call
	for _, c := range r.calls {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Paths: config.PathsConfig{
			DistDir: "/dist",
			DBFile:  filepath.Join(t.TempDir(), "builds.db"),
		},
		Build: config.BuildConfig{
			DefaultDistribution:             "unstable",
			DefaultPythonVersion:            "2.7",
			Workaround548392:                true,
			PycentralBackwardsCompatibility: true,
		},
		Tools: config.ToolsConfig{
			AptFile:    "apt-file",
			DpkgSource: "dpkg-source",
			DpkgQuery:  "dpkg-query",
			Patch:      "patch",
			Pyversions: "pyversions",
		},
	}
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// quietUI sends ui output to a buffer for the duration of the test
func quietUI(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	oldOut, oldErr := ui.Out, ui.Err
	ui.Out, ui.Err = &buf, &buf
	ui.DisableColors()
	t.Cleanup(func() { ui.Out, ui.Err = oldOut, oldErr })
	return &buf
}

func runBuild(t *testing.T, cfg *config.Config, env Env, args ...string) error {
	t.Helper()
	log := zerolog.New(io.Discard).Level(zerolog.WarnLevel)
	cmd := NewBuildCmd(cfg, &log, "0.1.0", env)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestBuildCmd(t *testing.T) {
	quietUI(t)
	fs := afero.NewMemMapFs()
	runner := newFakeRunner()
	cfg := testConfig(t)
	sdistPath := writeSdist(t, fs, "My_Pkg", "My_Pkg-1.0", nil)

	err := runBuild(t, cfg, Env{Fs: fs, Runner: runner, Now: func() time.Time { return fixedNow }}, sdistPath)
	require.NoError(t, err)

	calls := runner.toolCalls("dpkg-source")
	require.Len(t, calls, 2)
	assert.Equal(t, call{dir: "/dist", name: "dpkg-source", args: []string{"-b", "my-pkg-1.0", "my-pkg_1.0.orig.tar.gz"}}, calls[0])
	assert.Equal(t, call{dir: "/dist", name: "dpkg-source", args: []string{"-x", "my-pkg_1.0-1.dsc"}}, calls[1])
	assert.Empty(t, runner.toolCalls("apt-file"), "no requirements, no lookup")

	entries, err := fsops.ListDir(fs, "/dist")
	require.NoError(t, err)
	assert.Equal(t, []string{"my-pkg_1.0.orig.tar.gz"}, entries, "temporary directories are removed")

	// the orig tarball was repacked with the Debian directory name
	require.NoError(t, helpers.ExtractArchive(fs, "/dist/my-pkg_1.0.orig.tar.gz", "/check"))
	top, err := fsops.ListDir(fs, "/check")
	require.NoError(t, err)
	assert.Equal(t, []string{"my-pkg-1.0"}, top)

	database, err := db.New(context.Background(), cfg.Paths.DBFile)
	require.NoError(t, err)
	defer database.Close()
	builds, err := database.List(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, "my-pkg", builds[0].Source)
	assert.Equal(t, "python-my-pkg", builds[0].Package)
	assert.Equal(t, "1.0-1", builds[0].Version)
	assert.Equal(t, "/dist/my-pkg_1.0-1.dsc", builds[0].DscFile)
	assert.Equal(t, "/dist/my-pkg-1.0", builds[0].ExpandedDir)
	assert.Equal(t, core.ArchAll, builds[0].Metadata.Architecture)
}

func TestBuildCmd_ReusesMatchingSdist(t *testing.T) {
	quietUI(t)
	fs := afero.NewMemMapFs()
	runner := newFakeRunner()
	cfg := testConfig(t)
	sdistPath := writeSdist(t, fs, "my-pkg", "my-pkg-1.0", nil)

	require.NoError(t, runBuild(t, cfg, Env{Fs: fs, Runner: runner}, sdistPath, "--remove-expanded-source-dir"))

	want, err := afero.ReadFile(fs, sdistPath)
	require.NoError(t, err)
	got, err := afero.ReadFile(fs, "/dist/my-pkg_1.0.orig.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, want, got, "sdist is used verbatim as the orig tarball")

	assert.Len(t, runner.toolCalls("dpkg-source"), 1)
}

func TestBuildCmd_SynthesizeOrig(t *testing.T) {
	quietUI(t)
	fs := afero.NewMemMapFs()
	runner := newFakeRunner()
	cfg := testConfig(t)
	sdistPath := writeSdist(t, fs, "my-pkg", "my-pkg-1.0", nil)

	require.NoError(t, runBuild(t, cfg, Env{Fs: fs, Runner: runner}, sdistPath, "--synthesize-orig", "--dist-dir", "/out"))

	require.NoError(t, helpers.ExtractArchive(fs, "/out/my-pkg_1.0.orig.tar.gz", "/check"))
	assert.True(t, fsops.Exists(fs, "/check/my-pkg-1.0/setup.py"))
	assert.False(t, fsops.Exists(fs, "/check/my-pkg-1.0/debian"), "the orig tarball holds pristine sources")
}

func TestBuildCmd_Requirements(t *testing.T) {
	quietUI(t)
	fs := afero.NewMemMapFs()
	runner := newFakeRunner()
	runner.aptFile = []string{"python-lxml: /usr/lib/python2.7/dist-packages/lxml-2.3.egg-info"}
	cfg := testConfig(t)
	sdistPath := writeSdist(t, fs, "my-pkg", "my-pkg-1.0", map[string]string{
		"my_pkg.egg-info/PKG-INFO":     strings.Replace(testPkgInfo, "%s", "my-pkg", 1),
		"my_pkg.egg-info/requires.txt": "lxml>=2.0\n",
	})

	require.NoError(t, runBuild(t, cfg, Env{Fs: fs, Runner: runner}, sdistPath))
	assert.Len(t, runner.toolCalls("apt-file"), 1)

	database, err := db.New(context.Background(), cfg.Paths.DBFile)
	require.NoError(t, err)
	defer database.Close()
	builds, err := database.List(context.Background(), "my-pkg", 0)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Contains(t, builds[0].Metadata.Depends, "python-lxml (>= 2.0)")

	t.Run("ignored", func(t *testing.T) {
		runner := newFakeRunner()
		require.NoError(t, runBuild(t, testConfig(t), Env{Fs: fs, Runner: runner}, sdistPath, "--ignore-install-requires"))
		assert.Empty(t, runner.toolCalls("apt-file"))
	})
}

func TestBuildCmd_DpkgSourceFailure(t *testing.T) {
	quietUI(t)
	fs := afero.NewMemMapFs()
	runner := newFakeRunner()
	runner.failTool = "dpkg-source"
	cfg := testConfig(t)
	sdistPath := writeSdist(t, fs, "My_Pkg", "My_Pkg-1.0", nil)

	err := runBuild(t, cfg, Env{Fs: fs, Runner: runner}, sdistPath)
	require.Error(t, err)
	assert.Equal(t, core.ExitBuildFailed, core.ExitCodeFor(err))

	assert.False(t, fsops.Exists(fs, "/dist/my-pkg_1.0.orig.tar.gz"))
	entries, err := fsops.ListDir(fs, "/dist")
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e, "pydeb-"), "temporary directory %s left behind", e)
	}
}

func TestBuildCmd_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     func(sdist string) []string
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing sdist",
			args:     func(string) []string { return []string{"/src/nope-1.0.tar.gz"} },
			wantCode: core.ExitInvalidArgs,
			wantErr:  "nope-1.0.tar.gz",
		},
		{
			name:     "unknown override",
			args:     func(s string) []string { return []string{s, "--set", "No-Such-Key=1"} },
			wantCode: core.ExitInvalidArgs,
			wantErr:  "No-Such-Key",
		},
		{
			name:     "malformed override",
			args:     func(s string) []string { return []string{s, "--set", "Depends"} },
			wantCode: core.ExitInvalidArgs,
			wantErr:  "KEY=VALUE",
		},
		{
			name:     "missing extra config file",
			args:     func(s string) []string { return []string{s, "--extra-cfg-file", "/etc/missing.cfg"} },
			wantCode: core.ExitInvalidArgs,
			wantErr:  "/etc/missing.cfg",
		},
		{
			name:     "invalid ext-modules",
			args:     func(s string) []string { return []string{s, "--ext-modules", "maybe"} },
			wantCode: core.ExitInvalidArgs,
			wantErr:  "maybe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quietUI(t)
			fs := afero.NewMemMapFs()
			runner := newFakeRunner()
			sdistPath := writeSdist(t, fs, "my-pkg", "my-pkg-1.0", nil)

			err := runBuild(t, testConfig(t), Env{Fs: fs, Runner: runner}, tt.args(sdistPath)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.wantCode, core.ExitCodeFor(err))
			assert.Empty(t, runner.toolCalls("dpkg-source"))
		})
	}
}

func TestSourceOptions_Overrides(t *testing.T) {
	opts := sourceOptions{sets: []string{"depends = python-foo, python-bar", "XS-Python-Version=2.6"}}

	values, err := opts.overrides()
	require.NoError(t, err)

	v, ok := values.Get("Depends")
	assert.True(t, ok)
	assert.Equal(t, "python-foo, python-bar", v)
	v, _ = values.Get("xs-python-version")
	assert.Equal(t, "2.6", v)
}

func TestSourceOptions_HasExtModules(t *testing.T) {
	tests := []struct {
		flag     string
		detected bool
		want     bool
	}{
		{"auto", true, true},
		{"auto", false, false},
		{"yes", false, true},
		{"no", true, false},
		{"", true, true},
	}
	for _, tt := range tests {
		opts := sourceOptions{extModules: tt.flag}
		got, err := opts.hasExtModules(tt.detected)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "flag %q detected %v", tt.flag, tt.detected)
	}
}

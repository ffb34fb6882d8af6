package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/pydeb/internal/config"
	"github.com/quantmind-br/pydeb/internal/helpers"
)

func TestCheckDependency(t *testing.T) {
	runner := &helpers.MockCommandRunner{
		CommandExistsFunc: func(name string) bool { return name == "dpkg-source" || name == "my-patch" },
	}

	tests := []struct {
		name string
		dep  dependency
		want bool
	}{
		{"found", dependency{name: "dpkg-source", command: "dpkg-source"}, true},
		{"missing", dependency{name: "apt-file", command: "apt-file"}, false},
		{"configured executable", dependency{name: "patch", command: "my-patch"}, true},
		{"falls back to name", dependency{name: "dpkg-source"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkDependency(runner, tt.dep))
		})
	}
}

func TestCheckDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("directory exists and is writable", func(t *testing.T) {
		testDir := filepath.Join(tmpDir, "exists")
		require.NoError(t, os.MkdirAll(testDir, 0755))
		assert.True(t, checkDirectory(testDir, false))
	})

	t.Run("directory doesn't exist without fix", func(t *testing.T) {
		assert.False(t, checkDirectory(filepath.Join(tmpDir, "nonexistent"), false))
	})

	t.Run("directory doesn't exist with fix", func(t *testing.T) {
		testDir := filepath.Join(tmpDir, "create_me")
		assert.True(t, checkDirectory(testDir, true))
		_, err := os.Stat(testDir)
		assert.NoError(t, err)
	})

	t.Run("path is a file", func(t *testing.T) {
		testFile := filepath.Join(tmpDir, "file.txt")
		require.NoError(t, os.WriteFile(testFile, []byte("test"), 0644))
		assert.False(t, checkDirectory(testFile, false))
	})
}

func runDoctor(t *testing.T, cfg *config.Config, runner helpers.CommandRunner, args ...string) error {
	t.Helper()
	log := zerolog.New(io.Discard)
	cmd := NewDoctorCmd(cfg, &log, Env{Runner: runner})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func doctorConfig(t *testing.T) *config.Config {
	cfg := testConfig(t)
	root := t.TempDir()
	cfg.Paths.DistDir = filepath.Join(root, "deb_dist")
	cfg.Paths.DBFile = filepath.Join(root, "data", "builds.db")
	cfg.Paths.LogFile = filepath.Join(root, "data", "pydeb.log")
	return cfg
}

func TestDoctorCmd(t *testing.T) {
	t.Run("all tools present", func(t *testing.T) {
		summary := quietUI(t)
		runner := &helpers.MockCommandRunner{CommandExistsFunc: func(string) bool { return true }}

		err := runDoctor(t, doctorConfig(t), runner, "--fix")
		require.NoError(t, err)
		assert.Contains(t, summary.String(), "All critical checks passed!")
		assert.Contains(t, summary.String(), "Recorded builds: 0")
	})

	t.Run("missing required tool", func(t *testing.T) {
		summary := quietUI(t)
		runner := &helpers.MockCommandRunner{CommandExistsFunc: func(name string) bool { return name != "apt-file" }}

		err := runDoctor(t, doctorConfig(t), runner, "--fix")
		assert.ErrorContains(t, err, "1 issue(s)")
		assert.Contains(t, summary.String(), "apt-file: NOT FOUND")
	})

	t.Run("missing dist directory", func(t *testing.T) {
		summary := quietUI(t)
		runner := &helpers.MockCommandRunner{CommandExistsFunc: func(string) bool { return true }}

		err := runDoctor(t, doctorConfig(t), runner)
		assert.Error(t, err)
		assert.Contains(t, summary.String(), "Dist directory: MISSING")
	})

	t.Run("optional tool missing is a warning", func(t *testing.T) {
		summary := quietUI(t)
		runner := &helpers.MockCommandRunner{CommandExistsFunc: func(name string) bool { return name != "pyversions" }}

		err := runDoctor(t, doctorConfig(t), runner, "--fix")
		require.NoError(t, err)
		assert.Contains(t, summary.String(), "pyversions: not found")
	})
}

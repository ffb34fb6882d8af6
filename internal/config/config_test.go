package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "deb_dist", cfg.Paths.DistDir)
	assert.NotEmpty(t, cfg.Paths.DBFile)
	assert.Equal(t, "unstable", cfg.Build.DefaultDistribution)
	assert.True(t, cfg.Build.Workaround548392)
	assert.True(t, cfg.Build.PycentralBackwardsCompatibility)
	assert.False(t, cfg.Build.PatchPosix)
	assert.Equal(t, "apt-file", cfg.Tools.AptFile)
	assert.Equal(t, "dpkg-source", cfg.Tools.DpkgSource)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pydeb.toml")
	content := `
[paths]
dist_dir = "~/out"

[build]
default_distribution = "bookworm"
default_maintainer = "Jane Doe <jane@example.com>"
workaround_548392 = false

[tools]
apt_file = "/usr/bin/apt-file"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "out"), cfg.Paths.DistDir)
	assert.Equal(t, "bookworm", cfg.Build.DefaultDistribution)
	assert.Equal(t, "Jane Doe <jane@example.com>", cfg.Build.DefaultMaintainer)
	assert.False(t, cfg.Build.Workaround548392)
	assert.Equal(t, "/usr/bin/apt-file", cfg.Tools.AptFile)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PYDEB_BUILD_DEFAULT_DISTRIBUTION", "trixie")
	t.Setenv("PYDEB_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "trixie", cfg.Build.DefaultDistribution)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestExpandPath(t *testing.T) {
	homeDir, _ := os.UserHomeDir()
	t.Setenv("PYDEB_TEST_DIR", "/srv/pkgs")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty path", input: "", want: ""},
		{name: "absolute path", input: "/usr/local/bin", want: "/usr/local/bin"},
		{name: "home expansion", input: "~/test", want: filepath.Join(homeDir, "test")},
		{name: "env expansion", input: "$PYDEB_TEST_DIR/dist", want: "/srv/pkgs/dist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandPath(tt.input))
		})
	}
}

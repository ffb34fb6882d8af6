package debinfo

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/pydeb/internal/helpers"
)

type failingPyVersions struct{}

func (failingPyVersions) DefaultVersion(context.Context) (string, error) {
	return "", errors.New("pyversions broken")
}

func TestResolvePythonVersions(t *testing.T) {
	tests := []struct {
		name       string
		scripts    bool
		workaround bool
		forced     []string
		requested  []string
		pyDefault  PythonVersions
		want       []string
		warned     bool
	}{
		{
			name:      "no scripts keeps request",
			requested: []string{"2.5", "2.6"},
			want:      []string{"2.5", "2.6"},
		},
		{
			name:      "workaround disabled keeps request",
			scripts:   true,
			requested: []string{"2.5", "2.6"},
			want:      []string{"2.5", "2.6"},
		},
		{
			name:       "nothing requested becomes current",
			scripts:    true,
			workaround: true,
			want:       []string{"current"},
			warned:     true,
		},
		{
			name:       "default among requested becomes current",
			scripts:    true,
			workaround: true,
			requested:  []string{"2.5", "2.6"},
			pyDefault:  staticPyVersions("2.6"),
			want:       []string{"current"},
			warned:     true,
		},
		{
			name:       "default not requested picks highest",
			scripts:    true,
			workaround: true,
			requested:  []string{"2.6", "2.4", "2.5"},
			pyDefault:  staticPyVersions("2.7"),
			want:       []string{"2.6"},
			warned:     true,
		},
		{
			name:       "single version untouched",
			scripts:    true,
			workaround: true,
			requested:  []string{"2.6"},
			pyDefault:  staticPyVersions("2.6"),
			want:       []string{"2.6"},
		},
		{
			name:       "all becomes current",
			scripts:    true,
			workaround: true,
			requested:  []string{"all"},
			want:       []string{"current"},
			warned:     true,
		},
		{
			name:       "range expression untouched",
			scripts:    true,
			workaround: true,
			requested:  []string{">= 2.5"},
			want:       []string{">= 2.5"},
		},
		{
			name:       "forced from command line untouched",
			scripts:    true,
			workaround: true,
			forced:     []string{"2.5", "2.6"},
			requested:  []string{"2.5", "2.6"},
			pyDefault:  staticPyVersions("2.6"),
			want:       []string{"2.5", "2.6"},
		},
		{
			name:       "unknown default picks highest",
			scripts:    true,
			workaround: true,
			requested:  []string{"2.5", "2.6"},
			pyDefault:  failingPyVersions{},
			want:       []string{"2.6"},
			warned:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			in := Input{
				HaveScriptEntryPoints: tt.scripts,
				Workaround548392:      tt.workaround,
				ForceXSPythonVersion:  tt.forced,
			}
			deps := Deps{PyVersions: tt.pyDefault, Log: &logger}

			got := resolvePythonVersions(context.Background(), in, tt.requested, deps)
			assert.Equal(t, tt.want, got)

			if tt.warned {
				assert.Contains(t, buf.String(), "#548392")
			} else {
				assert.NotContains(t, buf.String(), "#548392")
			}
		})
	}
}

func TestBuild_WorkaroundAppliedToInfo(t *testing.T) {
	in := baseInput()
	in.HaveScriptEntryPoints = true
	in.Workaround548392 = true

	info, err := build(t, in, "[My_Pkg]\nXS-Python-Version: 2.5, 2.6\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"current"}, info.XSPythonVersion)
	assert.Contains(t, info.BuildDepends, "debhelper (>= 7)")
}

func TestSystemPythonVersions(t *testing.T) {
	runner := &helpers.MockCommandRunner{
		CommandExistsFunc: func(string) bool { return true },
		RunCommandFunc: func(_ context.Context, name string, args ...string) (string, error) {
			assert.Equal(t, "pyversions", name)
			assert.Equal(t, []string{"-d"}, args)
			return "python2.7\n", nil
		},
	}

	v, err := NewSystemPythonVersions(runner, "", "").DefaultVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.7", v)
}

func TestSystemPythonVersions_Fallback(t *testing.T) {
	runner := &helpers.MockCommandRunner{}

	v, err := NewSystemPythonVersions(runner, "", "3.11").DefaultVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.11", v)

	_, err = NewSystemPythonVersions(runner, "", "").DefaultVersion(context.Background())
	assert.Error(t, err)
}

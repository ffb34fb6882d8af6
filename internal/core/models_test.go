package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArchitecture(t *testing.T) {
	assert.Equal(t, "all", string(ArchAll))
	assert.Equal(t, "any", string(ArchAny))
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected int
	}{
		{"ExitSuccess", ExitSuccess, 0},
		{"ExitGeneral", ExitGeneral, 1},
		{"ExitInvalidArgs", ExitInvalidArgs, 2},
		{"ExitBuildFailed", ExitBuildFailed, 3},
		{"ExitDatabase", ExitDatabase, 5},
		{"ExitPermission", ExitPermission, 6},
		{"ExitCommandNotFound", ExitCommandNotFound, 8},
		{"ExitInterrupted", ExitInterrupted, 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.code)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	t.Run("ConfigError with section and key", func(t *testing.T) {
		err := &ConfigError{Section: "foo", Key: "package", Msg: "expected a single value"}
		assert.Equal(t, "configuration error [foo] package: expected a single value", err.Error())
	})

	t.Run("ConfigError without key", func(t *testing.T) {
		err := &ConfigError{Msg: "patch file given twice"}
		assert.Equal(t, "configuration error: patch file given twice", err.Error())
	})

	t.Run("MissingToolError with hint", func(t *testing.T) {
		err := &MissingToolError{Tool: "apt-file", Hint: "sudo apt-get install apt-file"}
		assert.Contains(t, err.Error(), `"apt-file"`)
		assert.Contains(t, err.Error(), "sudo apt-get install apt-file")
	})

	t.Run("ExternalToolError includes command and dir", func(t *testing.T) {
		cause := errors.New("exit status 2")
		err := &ExternalToolError{
			Args:     []string{"dpkg-source", "-b", "foo-1.0"},
			Dir:      "/tmp/deb_dist",
			ExitCode: 2,
			Stderr:   "dpkg-source: error: bad\n",
			Err:      cause,
		}
		msg := err.Error()
		assert.Contains(t, msg, "dpkg-source -b foo-1.0")
		assert.Contains(t, msg, "/tmp/deb_dist")
		assert.Contains(t, msg, "exit code 2")
		assert.Contains(t, msg, "dpkg-source: error: bad")
		assert.ErrorIs(t, err, cause)
	})

	t.Run("ValidationError", func(t *testing.T) {
		err := &ValidationError{What: "a MIME file", Path: "/nope.mime"}
		assert.Equal(t, "a MIME file was specified, but does not exist: /nope.mime", err.Error())
	})
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"config", fmt.Errorf("wrap: %w", &ConfigError{Msg: "x"}), ExitInvalidArgs},
		{"validation", &ValidationError{What: "udev rules file", Path: "x"}, ExitInvalidArgs},
		{"missing tool", fmt.Errorf("lookup: %w", &MissingToolError{Tool: "apt-file"}), ExitCommandNotFound},
		{"external tool", &ExternalToolError{Args: []string{"patch"}}, ExitBuildFailed},
		{"other", errors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeFor(tt.err))
		})
	}
}

package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSection is returned when a configuration section does not exist
var ErrNoSection = errors.New("no section")

// ConfigError reports contradictory or malformed configuration input.
// It is always raised before any filesystem mutation.
type ConfigError struct {
	Section string
	Key     string
	Msg     string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Section != "" && e.Key != "":
		return fmt.Sprintf("configuration error [%s] %s: %s", e.Section, e.Key, e.Msg)
	case e.Key != "":
		return fmt.Sprintf("configuration error %s: %s", e.Key, e.Msg)
	default:
		return "configuration error: " + e.Msg
	}
}

// MissingToolError reports a required external executable that is absent
type MissingToolError struct {
	Tool string
	Hint string
}

func (e *MissingToolError) Error() string {
	msg := fmt.Sprintf("required command %q not found in PATH", e.Tool)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// ExternalToolError reports a subprocess that exited unsuccessfully
type ExternalToolError struct {
	Args     []string
	Dir      string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalToolError) Error() string {
	dir := e.Dir
	if dir == "" {
		dir = "."
	}
	msg := fmt.Sprintf("command %q failed in dir %q", strings.Join(e.Args, " "), dir)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" with exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\nstderr: " + s
	}
	return msg
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

// ValidationError reports a referenced file that does not exist
type ValidationError struct {
	What string
	Path string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s was specified, but does not exist: %s", e.What, e.Path)
}

// ExitCodeFor maps an error to a process exit code
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		cfgErr  *ConfigError
		valErr  *ValidationError
		toolErr *MissingToolError
		extErr  *ExternalToolError
	)

	switch {
	case errors.As(err, &cfgErr), errors.As(err, &valErr):
		return ExitInvalidArgs
	case errors.As(err, &toolErr):
		return ExitCommandNotFound
	case errors.As(err, &extErr):
		return ExitBuildFailed
	default:
		return ExitGeneral
	}
}

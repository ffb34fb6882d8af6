package depmap

import (
	"context"
	"errors"
	"strings"

	"github.com/quantmind-br/pydeb/internal/core"
	"github.com/quantmind-br/pydeb/internal/helpers"
)

// Index searches the system package-file index for paths matching a regular
// expression. Each returned line has the form "<package>: <path>".
type Index interface {
	Search(ctx context.Context, pattern string) ([]string, error)
}

// AptFileIndex is an Index backed by apt-file
type AptFileIndex struct {
	runner helpers.CommandRunner
	tool   string
}

// NewAptFileIndex creates an apt-file backed index. tool is the executable
// name, "apt-file" when empty.
func NewAptFileIndex(runner helpers.CommandRunner, tool string) *AptFileIndex {
	if tool == "" {
		tool = "apt-file"
	}
	return &AptFileIndex{runner: runner, tool: tool}
}

// Search runs "apt-file search --ignore-case --regexp pattern"
func (a *AptFileIndex) Search(ctx context.Context, pattern string) ([]string, error) {
	if err := a.runner.RequireCommand(a.tool); err != nil {
		var missing *core.MissingToolError
		if errors.As(err, &missing) {
			missing.Hint = "install it with: sudo apt-get install apt-file"
			return nil, missing
		}
		return nil, err
	}

	out, err := a.runner.RunCommand(ctx, a.tool, "search", "--ignore-case", "--regexp", pattern)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

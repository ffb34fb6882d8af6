package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Color scheme for pydeb
var (
	Success = color.New(color.FgGreen)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow)
	Info    = color.New(color.FgCyan)

	Highlight = color.New(color.FgHiCyan, color.Bold)
	Muted     = color.New(color.Faint)
	Bold      = color.New(color.Bold)

	CheckMark = color.GreenString("✓")
	CrossMark = color.RedString("✗")
	Arrow     = color.CyanString("→")
	Bullet    = color.HiBlackString("•")

	ArchAll = color.New(color.FgCyan)
	ArchAny = color.New(color.FgMagenta)
)

// Out and Err receive all user-facing output; tests swap them for buffers
var (
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

// InitColors configures color output. mode is "auto", "always" or "never";
// in auto mode NO_COLOR and TERM=dumb disable colors.
func InitColors(mode string) {
	switch mode {
	case "always":
		color.NoColor = false
		return
	case "never":
		color.NoColor = true
		return
	}

	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
	if os.Getenv("TERM") == "dumb" {
		color.NoColor = true
	}
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Fprintf(Out, "%s %s\n", CheckMark, fmt.Sprintf(format, args...))
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(Err, "%s Error: %s\n", CrossMark, fmt.Sprintf(format, args...))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	Warning.Fprintf(Err, "Warning: %s\n", fmt.Sprintf(format, args...))
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	Info.Fprintf(Out, "%s %s\n", Arrow, fmt.Sprintf(format, args...))
}

// PrintStep prints a step indicator
func PrintStep(step, total int, format string, args ...interface{}) {
	Highlight.Fprintf(Out, "[%d/%d] ", step, total)
	fmt.Fprintf(Out, format+"\n", args...)
}

// PrintKeyValue prints a key-value pair
func PrintKeyValue(key, value string) {
	Bold.Fprintf(Out, "%s: ", key)
	fmt.Fprintln(Out, value)
}

// PrintHeader prints a section header
func PrintHeader(text string) {
	fmt.Fprintln(Out)
	Bold.Fprintln(Out, text)
	Muted.Fprintln(Out, "────────────────────────────────────────")
}

// PrintSubheader prints a subsection header
func PrintSubheader(text string) {
	fmt.Fprintln(Out)
	Highlight.Fprintln(Out, text)
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Fprintf(Out, "  %s %s\n", Bullet, item)
	}
}

// ColorizeArch returns a colored Debian architecture
func ColorizeArch(arch string) string {
	switch arch {
	case "all":
		return ArchAll.Sprint(arch)
	case "any":
		return ArchAny.Sprint(arch)
	default:
		return arch
	}
}

// DisableColors disables all color output
func DisableColors() {
	color.NoColor = true
}

// EnableColors enables color output
func EnableColors() {
	color.NoColor = false
}

// AreColorsEnabled returns whether colors are currently enabled
func AreColorsEnabled() bool {
	return !color.NoColor
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/quantmind-br/pydeb/internal/config"
	"github.com/quantmind-br/pydeb/internal/helpers"
	"github.com/quantmind-br/pydeb/internal/ui"
)

type dependency struct {
	name    string
	command string
	purpose string
}

// NewDoctorCmd creates the doctor command
func NewDoctorCmd(cfg *config.Config, log *zerolog.Logger, env Env) *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system dependencies and configuration",
		Long:  `Check the external tools pydeb runs, the configured directories and the build history database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := env.withDefaults()
			var issues []string
			var warnings []string

			ui.PrintHeader("System Diagnostics")

			// 1. Required tools
			ui.PrintSubheader("Required Tools")
			required := []dependency{
				{"apt-file", cfg.Tools.AptFile, "map Python requirements to Debian packages"},
				{"dpkg-source", cfg.Tools.DpkgSource, "build the source package"},
				{"dpkg-query", cfg.Tools.DpkgQuery, "check debhelper and python-support versions"},
				{"patch", cfg.Tools.Patch, "apply Stdeb-Patch-File"},
			}
			for _, dep := range required {
				if checkDependency(env.Runner, dep) {
					ui.PrintSuccess("%s: found", dep.name)
				} else {
					ui.PrintError("%s: NOT FOUND", dep.name)
					issues = append(issues, fmt.Sprintf("Missing required tool: %s (%s)", dep.name, dep.purpose))
				}
			}

			// 2. Optional tools
			ui.PrintSubheader("Optional Tools")
			optional := []dependency{
				{"pyversions", cfg.Tools.Pyversions, "detect the default Python version"},
			}
			for _, dep := range optional {
				if checkDependency(env.Runner, dep) {
					ui.PrintSuccess("%s: found", dep.name)
				} else {
					ui.PrintWarning("%s: not found (optional - %s)", dep.name, dep.purpose)
					warnings = append(warnings, fmt.Sprintf("Optional tool missing: %s", dep.name))
				}
			}
			if cfg.Build.DefaultPythonVersion == "" && !checkDependency(env.Runner, optional[0]) {
				warnings = append(warnings, "build.default_python_version is not set and pyversions is missing")
			}

			// 3. Directories
			ui.PrintSubheader("Directories")
			dirs := []struct {
				path string
				name string
			}{
				{cfg.Paths.DistDir, "Dist directory"},
				{cfg.Paths.DBFile, "Database directory"},
				{cfg.Paths.LogFile, "Log directory"},
			}
			for _, dir := range dirs {
				if dir.path == "" {
					continue
				}
				path := absPath(dir.path)
				if dir.name != "Dist directory" {
					path = filepath.Dir(path)
				}
				ok := checkDirectory(path, fix)
				_, statErr := os.Stat(path)
				switch {
				case ok:
					ui.PrintSuccess("%s: %s", dir.name, path)
				case os.IsNotExist(statErr):
					ui.PrintError("%s: MISSING (%s)", dir.name, path)
					issues = append(issues, fmt.Sprintf("Directory missing: %s (run with --fix to create it)", path))
				default:
					ui.PrintError("%s: NOT WRITABLE (%s)", dir.name, path)
					issues = append(issues, fmt.Sprintf("Directory not writable: %s", path))
				}
			}

			// 4. Build history
			ui.PrintSubheader("Build History")
			if cfg.Paths.DBFile == "" {
				ui.PrintInfo("Database: disabled")
			} else if database, err := openDB(cmd.Context(), cfg); err != nil {
				ui.PrintError("Database: NOT ACCESSIBLE")
				issues = append(issues, fmt.Sprintf("Cannot open database: %v", err))
			} else {
				defer database.Close()
				ui.PrintSuccess("Database: accessible (%s)", database.Path())

				builds, err := database.List(cmd.Context(), "", 0)
				if err != nil {
					ui.PrintWarning("Cannot list builds: %v", err)
					warnings = append(warnings, "Cannot list builds")
				} else {
					ui.PrintInfo("Recorded builds: %d", len(builds))
				}
			}

			// Summary
			ui.PrintHeader("Summary")

			if len(issues) == 0 {
				ui.PrintSuccess("All critical checks passed!")
			} else {
				ui.PrintError("Found %d issue(s):", len(issues))
				ui.PrintList(issues)
			}

			if len(warnings) > 0 {
				ui.PrintWarning("Found %d warning(s):", len(warnings))
				ui.PrintList(warnings)
			}

			log.Debug().
				Int("issues", len(issues)).
				Int("warnings", len(warnings)).
				Msg("doctor finished")

			if len(issues) > 0 {
				return fmt.Errorf("system check failed with %d issue(s)", len(issues))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "create missing directories")

	return cmd
}

// checkDependency checks if a tool is available
func checkDependency(runner helpers.CommandRunner, dep dependency) bool {
	command := dep.command
	if strings.TrimSpace(command) == "" {
		command = dep.name
	}
	return runner.CommandExists(command)
}

// checkDirectory checks if a directory exists and is writable, creating it when fix is set
func checkDirectory(path string, fix bool) bool {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) && fix {
			return os.MkdirAll(path, 0755) == nil
		}
		return false
	}

	if !info.IsDir() {
		return false
	}

	return unix.Access(path, unix.W_OK) == nil
}

package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quantmind-br/pydeb/internal/config"
)

// NewRootCmd creates the root command
func NewRootCmd(cfg *config.Config, log *zerolog.Logger, version string, env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pydeb",
		Short: "Python sdist to Debian source package converter",
		Long: `pydeb converts a Python source distribution into a Debian source package
(.dsc, .orig.tar.gz and .diff.gz) ready for dpkg-buildpackage or a build daemon.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add subcommands
	cmd.AddCommand(NewBuildCmd(cfg, log, version, env))
	cmd.AddCommand(NewShowCmd(cfg, log, version, env))
	cmd.AddCommand(NewHistoryCmd(cfg, log))
	cmd.AddCommand(NewDoctorCmd(cfg, log, env))
	cmd.AddCommand(NewCompletionCmd(cfg, log))
	cmd.AddCommand(NewVersionCmd(version))

	registerCompletions(cmd, cfg)

	return cmd
}

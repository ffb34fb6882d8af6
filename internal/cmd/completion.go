package cmd

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quantmind-br/pydeb/internal/config"
	"github.com/quantmind-br/pydeb/internal/ui"
)

// sdistExtensions are the archive suffixes offered when completing an sdist argument
var sdistExtensions = []string{"tar.gz", "tgz", "tar.bz2", "tar.xz", "zip"}

var completionGenerators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":  func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish": func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(w)
	},
}

// NewCompletionCmd creates the completion command
func NewCompletionCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for pydeb.

Besides subcommands and flags, the scripts complete sdist archives for build
and show, the debian/ file names accepted by "show --file", the values of
--ext-modules and the build ids recorded in the history.

  $ source <(pydeb completion bash)
  $ pydeb completion zsh > "${fpath[1]}/_pydeb"
  $ pydeb completion fish > ~/.config/fish/completions/pydeb.fish
  PS> pydeb completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := args[0]
			if err := completionGenerators[shell](cmd.Root(), cmd.OutOrStdout()); err != nil {
				ui.PrintError("Failed to generate %s completion: %v", shell, err)
				return err
			}

			log.Debug().Str("shell", shell).Msg("generated shell completion")
			return nil
		},
	}

	return cmd
}

// registerCompletions attaches argument and flag completion to the pydeb subcommands
func registerCompletions(root *cobra.Command, cfg *config.Config) {
	for _, c := range root.Commands() {
		switch c.Name() {
		case "build", "show":
			c.ValidArgsFunction = completeSdist
			_ = c.RegisterFlagCompletionFunc("ext-modules", cobra.FixedCompletions([]string{"auto", "yes", "no"}, cobra.ShellCompDirectiveNoFileComp))
			_ = c.RegisterFlagCompletionFunc("extra-cfg-file", fileExtCompletion("cfg"))
			_ = c.RegisterFlagCompletionFunc("patch-file", fileExtCompletion("patch", "diff"))
			if c.Name() == "show" {
				_ = c.RegisterFlagCompletionFunc("file", cobra.FixedCompletions(debianFiles, cobra.ShellCompDirectiveNoFileComp))
			}
		case "history":
			c.ValidArgsFunction = completeBuildIDs(cfg)
		}
	}
}

func completeSdist(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return sdistExtensions, cobra.ShellCompDirectiveFilterFileExt
}

func fileExtCompletion(exts ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return exts, cobra.ShellCompDirectiveFilterFileExt
	}
}

// completeBuildIDs offers the recorded build ids, newest first
func completeBuildIDs(cfg *config.Config) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 || cfg.Paths.DBFile == "" {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		database, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		defer database.Close()

		builds, err := database.List(cmd.Context(), "", 0)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		ids := make([]string, 0, len(builds))
		for _, b := range builds {
			ids = append(ids, b.BuildID+"\t"+b.Source+" "+b.Version)
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

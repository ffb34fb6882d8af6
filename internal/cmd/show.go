package cmd

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quantmind-br/pydeb/internal/config"
	"github.com/quantmind-br/pydeb/internal/debinfo"
	"github.com/quantmind-br/pydeb/internal/render"
	"github.com/quantmind-br/pydeb/internal/ui"
)

// debianFiles are the debian/ files show can print
var debianFiles = []string{"changelog", "control", "rules", "install", "preinst"}

// NewShowCmd creates the show command
func NewShowCmd(cfg *config.Config, log *zerolog.Logger, version string, env Env) *cobra.Command {
	var (
		opts  sourceOptions
		files []string
	)

	cmd := &cobra.Command{
		Use:   "show [sdist]",
		Short: "Show the resolved packaging metadata of an sdist",
		Long: `Resolve the packaging metadata of an sdist without building anything and
print the debian/ files that would be generated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := env.withDefaults()
			opts.bind(cmd)

			src, err := prepareSource(cmd.Context(), env, cfg, log, absPath(args[0]), "", &opts, version)
			if err != nil {
				return err
			}
			defer func() { _ = env.Fs.RemoveAll(src.workDir) }()

			info := src.info
			ui.PrintHeader(fmt.Sprintf("%s %s", info.Source, info.FullVersion))
			ui.PrintKeyValue("Module", info.ModuleName)
			ui.PrintKeyValue("Package", info.Package)
			ui.PrintKeyValue("Architecture", ui.ColorizeArch(string(info.Architecture)))
			ui.PrintKeyValue("Distribution", info.Distribution)
			ui.PrintKeyValue("Maintainer", info.Maintainer)
			ui.PrintKeyValue("dsc", info.DscName())
			ui.PrintKeyValue("orig", info.OrigTarballName())
			if info.PatchFile != "" {
				ui.PrintKeyValue("Patch", fmt.Sprintf("%s (-p%d)", info.PatchFile, info.PatchLevel))
			}

			out := cmd.OutOrStdout()
			for _, name := range files {
				text, err := renderFile(info, name)
				if err != nil {
					return err
				}
				ui.PrintSubheader("debian/" + name)
				fmt.Fprint(out, text)
			}
			return nil
		},
	}

	opts.addFlags(cmd, cfg)
	cmd.Flags().StringSliceVarP(&files, "file", "f", []string{"control"}, "debian/ files to print: "+strings.Join(debianFiles, ", "))

	return cmd
}

func renderFile(info *debinfo.Info, name string) (string, error) {
	switch strings.ToLower(name) {
	case "changelog":
		return render.Changelog(info)
	case "control":
		return render.Control(info)
	case "rules":
		return render.Rules(info)
	case "install":
		return render.Install(info), nil
	case "preinst":
		if !info.PycentralRemovalPreinst {
			return "", nil
		}
		return render.Preinst(info)
	default:
		return "", fmt.Errorf("unknown debian file %q", name)
	}
}

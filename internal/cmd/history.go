package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/quantmind-br/pydeb/internal/config"
	"github.com/quantmind-br/pydeb/internal/core"
	"github.com/quantmind-br/pydeb/internal/db"
	"github.com/quantmind-br/pydeb/internal/fsops"
	"github.com/quantmind-br/pydeb/internal/security"
	"github.com/quantmind-br/pydeb/internal/ui"
)

// NewHistoryCmd creates the history command
func NewHistoryCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		jsonOutput bool
		source     string
		limit      int
		remove     bool
	)

	cmd := &cobra.Command{
		Use:   "history [build-id]",
		Short: "List previous builds",
		Long: `List the source packages built so far, newest first.
With a build id, show that build in detail; --delete removes it from the history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			database, err := openDB(ctx, cfg)
			if err != nil {
				ui.PrintError("failed to open database: %v", err)
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			if len(args) == 1 {
				buildID := args[0]
				if err := security.ValidateBuildID(buildID); err != nil {
					return &core.ValidationError{What: "a build id", Path: buildID}
				}
				if remove {
					if err := database.Delete(ctx, buildID); err != nil {
						return err
					}
					log.Info().Str("build_id", buildID).Msg("removed build from history")
					ui.PrintSuccess("Removed %s", buildID)
					return nil
				}

				record, err := database.Get(ctx, buildID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, record)
				}
				printBuild(record)
				return nil
			}
			if remove {
				return fmt.Errorf("--delete requires a build id")
			}

			builds, err := database.List(ctx, source, limit)
			if err != nil {
				ui.PrintError("failed to list builds: %v", err)
				return fmt.Errorf("list builds: %w", err)
			}

			if jsonOutput {
				return writeJSON(cmd, builds)
			}

			if len(builds) == 0 {
				if source != "" {
					ui.PrintInfo("No builds of %s", source)
				} else {
					ui.PrintInfo("No builds recorded")
				}
				return nil
			}

			printHistoryTable(cmd, builds)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().StringVarP(&source, "source", "s", "", "only show builds of this source package")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many builds")
	cmd.Flags().BoolVar(&remove, "delete", false, "delete the given build from the history")

	return cmd
}

// openDB opens the build history, creating its directory when needed
func openDB(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	if err := fsops.EnsureDir(afero.NewOsFs(), filepath.Dir(cfg.Paths.DBFile), 0755); err != nil {
		return nil, err
	}
	return db.New(ctx, cfg.Paths.DBFile)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printHistoryTable(cmd *cobra.Command, builds []core.BuildRecord) {
	table := tablewriter.NewTable(cmd.OutOrStdout(),
		tablewriter.WithHeader([]string{"Build ID", "Source", "Version", "Arch", "Date", "dsc"}),
		tablewriter.WithAlignment(tw.MakeAlign(6, tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
	)

	for _, b := range builds {
		id := b.BuildID
		if len(id) > 8 {
			id = id[:8]
		}
		table.Append(
			id,
			b.Source,
			b.Version,
			ui.ColorizeArch(string(b.Metadata.Architecture)),
			b.BuildDate.Local().Format("2006-01-02 15:04"),
			b.DscFile,
		)
	}

	table.Render()
}

func printBuild(b *core.BuildRecord) {
	ui.PrintHeader(b.Source + " " + b.Version)
	ui.PrintKeyValue("Build ID", b.BuildID)
	ui.PrintKeyValue("Package", b.Package)
	ui.PrintKeyValue("Module", b.Metadata.ModuleName)
	ui.PrintKeyValue("Architecture", ui.ColorizeArch(string(b.Metadata.Architecture)))
	ui.PrintKeyValue("Distribution", b.Metadata.Distribution)
	ui.PrintKeyValue("Date", b.BuildDate.Local().Format("2006-01-02 15:04:05"))
	ui.PrintKeyValue("dsc", b.DscFile)
	ui.PrintKeyValue("orig", b.OrigTarball)
	if b.ExpandedDir != "" {
		ui.PrintKeyValue("Expanded", b.ExpandedDir)
	}
	if b.Metadata.PatchFile != "" {
		ui.PrintKeyValue("Patch", b.Metadata.PatchFile)
	}
	if len(b.Metadata.Depends) > 0 {
		ui.PrintSubheader("Depends")
		ui.PrintList(b.Metadata.Depends)
	}
	if len(b.Metadata.BuildDepends) > 0 {
		ui.PrintSubheader("Build-Depends")
		ui.PrintList(b.Metadata.BuildDepends)
	}
}

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quantmind-br/pydeb/internal/config"
	"github.com/quantmind-br/pydeb/internal/core"
	"github.com/quantmind-br/pydeb/internal/fsops"
	"github.com/quantmind-br/pydeb/internal/helpers"
	"github.com/quantmind-br/pydeb/internal/logging"
	"github.com/quantmind-br/pydeb/internal/render"
	"github.com/quantmind-br/pydeb/internal/sdist"
	"github.com/quantmind-br/pydeb/internal/ui"
)

var buildPhases = []ui.BuildPhase{
	{Name: "Expanding sdist", Weight: 10},
	{Name: "Resolving packaging metadata", Weight: 20},
	{Name: "Preparing source tree", Weight: 10},
	{Name: "Running dpkg-source", Weight: 55},
	{Name: "Recording build", Weight: 5},
}

// NewBuildCmd creates the build command
func NewBuildCmd(cfg *config.Config, log *zerolog.Logger, version string, env Env) *cobra.Command {
	var (
		opts                    sourceOptions
		synthesizeOrig          bool
		patchPosix              bool
		removeExpandedSourceDir bool
		timeoutSecs             int
	)

	cmd := &cobra.Command{
		Use:   "build [sdist]",
		Short: "Build a Debian source package from an sdist",
		Long: `Convert a Python source distribution (.tar.gz, .tgz, .tar.bz2, .tar.xz or .zip)
into a Debian source package: <source>_<version>.dsc, the .orig.tar.gz and the .diff.gz.

Packaging options are read from stdeb.cfg inside the sdist's .egg-info directory,
from --extra-cfg-file and from --set, in increasing order of precedence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := env.withDefaults()
			opts.bind(cmd)
			sdistPath := absPath(args[0])

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeoutSecs)*time.Second)
			defer cancel()

			log.Info().
				Str("sdist", sdistPath).
				Str("dist_dir", opts.distDir).
				Msg("starting build")

			if err := fsops.EnsureDir(env.Fs, opts.distDir, 0755); err != nil {
				return err
			}
			if err := fsops.CheckWritable(env.Fs, opts.distDir); err != nil {
				return err
			}

			progressEnabled := log.GetLevel() != zerolog.Disabled && log.GetLevel() <= zerolog.InfoLevel
			progress := ui.NewProgressTracker(buildPhases, "Building", progressEnabled)
			defer progress.Finish()

			progress.StartPhase(0)
			src, err := prepareSource(ctx, env, cfg, log, sdistPath, opts.distDir, &opts, version)
			if err != nil {
				return err
			}
			defer func() {
				if rmErr := env.Fs.RemoveAll(src.workDir); rmErr != nil {
					log.Warn().Err(rmErr).Str("dir", src.workDir).Msg("failed to remove temporary directory")
				}
			}()
			info := src.info
			progress.AdvancePhase()
			progress.AdvancePhase()

			progress.StartPhase(2)
			treeDir := filepath.Join(opts.distDir, info.SourceDirname())
			if fsops.Exists(env.Fs, treeDir) {
				log.Warn().Str("dir", treeDir).Msg("removing existing source tree")
				if err := env.Fs.RemoveAll(treeDir); err != nil {
					return fmt.Errorf("failed to remove %s: %w", treeDir, err)
				}
			}
			if err := fsops.CopyTree(env.Fs, src.treeDir, treeDir); err != nil {
				return fmt.Errorf("failed to copy source tree: %w", err)
			}

			origSdist := ""
			if !synthesizeOrig {
				if origSdist, err = origTarball(env, src, sdistPath); err != nil {
					return err
				}
			}
			progress.AdvancePhase()

			progress.StartPhase(3)
			builder := render.NewBuilder(env.Fs, env.Runner, render.Tools{
				DpkgSource: cfg.Tools.DpkgSource,
				DpkgQuery:  cfg.Tools.DpkgQuery,
				Patch:      cfg.Tools.Patch,
			}, logging.Component(log, "render"))
			record, err := builder.BuildDSC(ctx, info, core.BuildOptions{
				DistDir:                 opts.distDir,
				WorkDir:                 src.treeDir,
				OrigSdist:               origSdist,
				PatchPosix:              patchPosix,
				RemoveExpandedSourceDir: removeExpandedSourceDir,
			})
			if err != nil {
				return err
			}
			progress.AdvancePhase()

			progress.StartPhase(4)
			saveRecord(ctx, cfg, log, record)
			progress.AdvancePhase()
			progress.Finish()

			ui.PrintSuccess("Source package built")
			ui.PrintKeyValue("  Source", record.Source)
			ui.PrintKeyValue("  Version", record.Version)
			ui.PrintKeyValue("  Architecture", ui.ColorizeArch(string(record.Metadata.Architecture)))
			ui.PrintKeyValue("  dsc", record.DscFile)
			ui.PrintKeyValue("  orig", record.OrigTarball)
			if record.ExpandedDir != "" {
				ui.PrintKeyValue("  Expanded", record.ExpandedDir)
			}

			log.Info().
				Str("build_id", record.BuildID).
				Str("dsc", record.DscFile).
				Msg("build completed successfully")
			return nil
		},
	}

	opts.addFlags(cmd, cfg)
	cmd.Flags().StringVarP(&opts.distDir, "dist-dir", "d", cfg.Paths.DistDir, "directory receiving the source package")
	cmd.Flags().BoolVar(&synthesizeOrig, "synthesize-orig", false, "create the .orig.tar.gz from the expanded tree instead of reusing the sdist")
	cmd.Flags().BoolVar(&patchPosix, "patch-posix", cfg.Build.PatchPosix, "run patch in POSIX mode")
	cmd.Flags().BoolVar(&removeExpandedSourceDir, "remove-expanded-source-dir", cfg.Build.RemoveExpandedSourceDir, "do not re-expand the source package after building it")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 1800, "build timeout in seconds")

	return cmd
}

// origTarball returns the archive to use verbatim as the .orig.tar.gz. A
// gzipped tarball whose top-level directory already has the Debian name is
// reused as is; anything else is repacked inside the work directory.
func origTarball(env Env, src *preparedSource, sdistPath string) (string, error) {
	dirname := src.info.SourceDirname()
	original := filepath.Base(src.treeDir)

	if helpers.GetArchiveType(sdistPath) == helpers.FormatTarGz && original == dirname {
		return sdistPath, nil
	}

	repacked := filepath.Join(src.workDir, src.info.OrigTarballName())
	if err := sdist.Repack(env.Fs, sdistPath, repacked, original, dirname, src.workDir); err != nil {
		return "", fmt.Errorf("failed to repack sdist: %w", err)
	}
	return repacked, nil
}

// saveRecord stores the build in the history. The artifacts already exist,
// so a failure here is reported but does not fail the build.
func saveRecord(ctx context.Context, cfg *config.Config, log *zerolog.Logger, record *core.BuildRecord) {
	if cfg.Paths.DBFile == "" {
		return
	}
	database, err := openDB(ctx, cfg)
	if err != nil {
		ui.PrintWarning("could not open build history: %v", err)
		log.Warn().Err(err).Str("db", cfg.Paths.DBFile).Msg("failed to open database")
		return
	}
	defer database.Close()

	if err := database.Create(ctx, record); err != nil {
		ui.PrintWarning("could not record build: %v", err)
		log.Warn().Err(err).Str("build_id", record.BuildID).Msg("failed to save build record")
	}
}

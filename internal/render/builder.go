package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	debversion "pault.ag/go/debian/version"

	"github.com/quantmind-br/pydeb/internal/core"
	"github.com/quantmind-br/pydeb/internal/debinfo"
	"github.com/quantmind-br/pydeb/internal/fsops"
	"github.com/quantmind-br/pydeb/internal/helpers"
	"github.com/quantmind-br/pydeb/internal/transaction"
)

// Tools names the executables the builder runs
type Tools struct {
	DpkgSource string
	DpkgQuery  string
	Patch      string
}

func (t Tools) withDefaults() Tools {
	if t.DpkgSource == "" {
		t.DpkgSource = "dpkg-source"
	}
	if t.DpkgQuery == "" {
		t.DpkgQuery = "dpkg-query"
	}
	if t.Patch == "" {
		t.Patch = "patch"
	}
	return t
}

// Builder assembles a Debian source package from a debianizable tree
type Builder struct {
	fs     afero.Fs
	runner helpers.CommandRunner
	tools  Tools
	writer *DebianWriter
	log    *zerolog.Logger
	now    func() time.Time
}

// NewBuilder creates a builder. The tree to package must already exist at
// <DistDir>/<source>-<upstream>.
func NewBuilder(fs afero.Fs, runner helpers.CommandRunner, tools Tools, log *zerolog.Logger) *Builder {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Builder{
		fs:     fs,
		runner: runner,
		tools:  tools.withDefaults(),
		writer: NewDebianWriter(fs, log),
		log:    log,
		now:    time.Now,
	}
}

// BuildDSC produces <source>_<version>.dsc and its companions in opts.DistDir.
// Every failure aborts the build; the temporary expansion directory is always
// removed and the tree is restored if it had been moved aside.
func (b *Builder) BuildDSC(ctx context.Context, info *debinfo.Info, opts core.BuildOptions) (record *core.BuildRecord, err error) {
	distDir := opts.DistDir
	dirname := info.SourceDirname()
	treeDir := filepath.Join(distDir, dirname)

	if !fsops.IsDir(b.fs, treeDir) {
		return nil, fmt.Errorf("source tree does not exist: %s", treeDir)
	}
	if err := b.writer.CheckReferencedFiles(info, opts.WorkDir); err != nil {
		return nil, err
	}
	if opts.OrigSdist != "" && !fsops.Exists(b.fs, opts.OrigSdist) {
		return nil, &core.ValidationError{What: "an original sdist", Path: opts.OrigSdist}
	}
	if err := b.runner.RequireCommand(b.tools.DpkgSource); err != nil {
		return nil, err
	}

	tx := transaction.NewManager(b.log)
	defer tx.Finish(&err)

	// 1. orig tarball
	origTarball := info.OrigTarballName()
	origPath := filepath.Join(distDir, origTarball)
	if opts.OrigSdist != "" {
		if err := fsops.LinkOrCopy(b.fs, opts.OrigSdist, origPath); err != nil {
			return nil, fmt.Errorf("failed to link original sdist: %w", err)
		}
	} else if err := helpers.CreateTarGz(b.fs, origPath, distDir, dirname); err != nil {
		return nil, fmt.Errorf("failed to create orig tarball: %w", err)
	}
	tx.Add("remove orig tarball", func() error {
		return removeIfExists(b.fs, origPath)
	})
	b.log.Info().Str("tarball", origPath).Msg("prepared orig tarball")

	// 2. patch
	if info.PatchFile != "" && !opts.PatchAlreadyApplied {
		if err := b.applyPatch(ctx, info, opts, treeDir); err != nil {
			return nil, err
		}
	}

	b.warnMakefile(treeDir)

	// 3. debian/
	if err := b.writer.Write(info, opts.WorkDir, treeDir); err != nil {
		return nil, err
	}

	// 4. move the debianized tree aside and expand the pristine sources
	debianized := treeDir + ".debianized"
	if fsops.Exists(b.fs, debianized) {
		return nil, fmt.Errorf("debianized directory already exists: %s", debianized)
	}
	if err := b.fs.Rename(treeDir, debianized); err != nil {
		return nil, fmt.Errorf("failed to move debianized tree aside: %w", err)
	}
	restored := false
	tx.Add("restore debianized tree", func() error {
		if restored {
			return nil
		}
		return b.fs.Rename(debianized, treeDir)
	})

	if opts.OrigSdist != "" {
		origDir := treeDir + ".orig"
		if err := b.expandOrig(opts.OrigSdist, distDir, origDir); err != nil {
			return nil, err
		}
		tx.Cleanup("remove expanded original", func() error {
			return b.fs.RemoveAll(origDir)
		})
	}

	b.checkToolVersions(ctx)

	if err := b.fs.Rename(debianized, treeDir); err != nil {
		return nil, fmt.Errorf("failed to restore debianized tree: %w", err)
	}
	restored = true

	// 5. dpkg-source
	b.log.Info().
		Str("dir", distDir).
		Strs("args", []string{"-b", dirname, origTarball}).
		Msg("calling dpkg-source")
	if _, err := b.runner.RunCommandInDir(ctx, distDir, b.tools.DpkgSource, "-b", dirname, origTarball); err != nil {
		return nil, err
	}

	if err := b.fs.RemoveAll(treeDir); err != nil {
		return nil, fmt.Errorf("failed to remove debianized tree: %w", err)
	}

	record = &core.BuildRecord{
		BuildID:     helpers.GenerateBuildID(),
		Source:      info.Source,
		Package:     info.Package,
		Version:     info.FullVersion,
		BuildDate:   b.now(),
		OrigTarball: origPath,
		DscFile:     filepath.Join(distDir, info.DscName()),
		DistDir:     distDir,
		Metadata:    info.Metadata(),
	}

	if !opts.RemoveExpandedSourceDir {
		if _, err := b.runner.RunCommandInDir(ctx, distDir, b.tools.DpkgSource, "-x", info.DscName()); err != nil {
			return nil, err
		}
		record.ExpandedDir = treeDir
	}

	return record, nil
}

func (b *Builder) applyPatch(ctx context.Context, info *debinfo.Info, opts core.BuildOptions, treeDir string) error {
	if err := b.runner.RequireCommand(b.tools.Patch); err != nil {
		return err
	}

	patchPath := resolvePath(opts.WorkDir, info.PatchFile)
	f, err := b.fs.Open(patchPath)
	if err != nil {
		return fmt.Errorf("failed to open patch: %w", err)
	}
	defer f.Close()

	args := []string{"-p" + strconv.Itoa(info.PatchLevel)}
	if opts.PatchPosix {
		args = append([]string{"--posix"}, args...)
	}

	b.log.Info().Str("patch", patchPath).Str("dir", treeDir).Msg("applying patch")

	var stderr strings.Builder
	if err := b.runner.RunCommandInDirWithStdin(ctx, treeDir, f, nil, &stderr, b.tools.Patch, args...); err != nil {
		var toolErr *core.ExternalToolError
		if errors.As(err, &toolErr) && toolErr.Stderr == "" {
			toolErr.Stderr = stderr.String()
		}
		return fmt.Errorf("failed to apply patch %s: %w", patchPath, err)
	}
	return nil
}

func (b *Builder) warnMakefile(treeDir string) {
	for _, name := range []string{"Makefile", "makefile"} {
		if fsops.Exists(b.fs, filepath.Join(treeDir, name)) {
			b.log.Warn().
				Str("file", name).
				Msg("a Makefile exists in this package; debhelper will use it rather than setup.py to build and install")
			return
		}
	}
}

// expandOrig expands the original sdist into a temporary directory and moves
// its single top-level directory to origDir
func (b *Builder) expandOrig(origSdist, distDir, origDir string) (err error) {
	tmpDir := filepath.Join(distDir, "tmp-expand")
	// left over from an interrupted run
	if err := b.fs.RemoveAll(tmpDir); err != nil {
		return fmt.Errorf("failed to remove stale %s: %w", tmpDir, err)
	}
	if err := b.fs.Mkdir(tmpDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", tmpDir, err)
	}
	defer func() {
		if rmErr := b.fs.RemoveAll(tmpDir); rmErr != nil && err == nil {
			err = fmt.Errorf("failed to remove %s: %w", tmpDir, rmErr)
		}
	}()

	if err := helpers.ExtractArchive(b.fs, origSdist, tmpDir); err != nil {
		return fmt.Errorf("failed to expand original sdist: %w", err)
	}

	entries, err := fsops.ListDir(b.fs, tmpDir)
	if err != nil {
		return err
	}
	if len(entries) != 1 {
		return fmt.Errorf("original sdist must contain exactly one top-level directory, found %d", len(entries))
	}

	if err := b.fs.RemoveAll(origDir); err != nil {
		return fmt.Errorf("failed to remove stale %s: %w", origDir, err)
	}
	if err := b.fs.Rename(filepath.Join(tmpDir, entries[0]), origDir); err != nil {
		return fmt.Errorf("failed to move original tree: %w", err)
	}
	return nil
}

// checkToolVersions warns when debhelper or python-support are missing or too old
func (b *Builder) checkToolVersions(ctx context.Context) {
	required := []struct {
		pkg string
		min string
	}{
		{"debhelper", debinfo.DebhelperMinVersion},
		{"python-support", debinfo.PythonSupportMinVersion},
	}

	for _, r := range required {
		installed := b.installedVersion(ctx, r.pkg)
		if installed == "" {
			b.log.Warn().
				Str("package", r.pkg).
				Str("required", r.min).
				Msg("package is not installed, could not check compatibility")
			continue
		}

		ok, err := versionAtLeast(installed, r.min)
		if err != nil {
			b.log.Warn().Err(err).Str("package", r.pkg).Str("installed", installed).Msg("cannot compare versions")
			continue
		}
		if !ok {
			b.log.Warn().
				Str("package", r.pkg).
				Str("installed", installed).
				Str("required", r.min).
				Msg("installed package is older than required")
		}
	}
}

// installedVersion returns the installed version of pkg, "" when not installed
func (b *Builder) installedVersion(ctx context.Context, pkg string) string {
	if !b.runner.CommandExists(b.tools.DpkgQuery) {
		return ""
	}
	out, err := b.runner.RunCommand(ctx, b.tools.DpkgQuery, "-W", "-f=${Version}", pkg)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func versionAtLeast(installed, min string) (bool, error) {
	have, err := debversion.Parse(installed)
	if err != nil {
		return false, err
	}
	want, err := debversion.Parse(min)
	if err != nil {
		return false, err
	}
	return debversion.Compare(have, want) >= 0, nil
}

func removeIfExists(fs afero.Fs, path string) error {
	if err := fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

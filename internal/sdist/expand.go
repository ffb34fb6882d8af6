// Package sdist expands Python source distributions and reads the metadata
// setuptools leaves in them.
package sdist

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/quantmind-br/pydeb/internal/fsops"
	"github.com/quantmind-br/pydeb/internal/helpers"
)

// ErrUnknownFormat is returned for archives that are not a supported sdist format
var ErrUnknownFormat = errors.New("could not guess format of original sdist file")

// Expand extracts the sdist archive into dir. A zip without a single
// top-level directory is extracted into dir/<archive name without .zip>.
func Expand(fs afero.Fs, archive, dir string) error {
	format := helpers.GetArchiveType(archive)
	switch format {
	case helpers.FormatUnknown:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, archive)
	case helpers.FormatZip:
		return expandZip(fs, archive, dir)
	}

	if err := fsops.EnsureDir(fs, dir, 0755); err != nil {
		return err
	}
	if err := helpers.ExtractArchive(fs, archive, dir); err != nil {
		return fmt.Errorf("failed to expand %s: %w", archive, err)
	}
	return nil
}

func expandZip(fs afero.Fs, archive, dir string) error {
	entries, err := helpers.ZipEntries(fs, archive)
	if err != nil {
		return err
	}

	dest := dir
	if !hasSingleTopDir(entries) {
		dest = filepath.Join(dir, helpers.TrimArchiveExt(filepath.Base(archive)))
	}
	if err := fsops.EnsureDir(fs, dest, 0755); err != nil {
		return err
	}
	if err := helpers.ExtractZip(fs, archive, dest); err != nil {
		return fmt.Errorf("failed to expand %s: %w", archive, err)
	}
	return nil
}

// hasSingleTopDir reports whether every entry lives below one common directory
func hasSingleTopDir(entries []string) bool {
	top := ""
	for _, e := range entries {
		e = strings.TrimPrefix(e, "./")
		first, _, nested := strings.Cut(e, "/")
		if !nested {
			return false
		}
		if top == "" {
			top = first
		} else if first != top {
			return false
		}
	}
	return top != ""
}

// TopLevelDir returns the only entry of dir, which must be a directory
func TopLevelDir(fs afero.Fs, dir string) (string, error) {
	entries, err := fsops.ListDir(fs, dir)
	if err != nil {
		return "", err
	}
	if len(entries) != 1 {
		return "", fmt.Errorf("expected a single top-level directory in %s, found %d entries", dir, len(entries))
	}

	top := filepath.Join(dir, entries[0])
	if !fsops.IsDir(fs, top) {
		return "", fmt.Errorf("top-level entry of %s is not a directory: %s", dir, entries[0])
	}
	return top, nil
}

// Repack re-archives origSdist as repacked, renaming its top-level directory
// from originalDirname to debianizedDirname. tmpParent receives the
// temporary expansion, which is always removed.
func Repack(fs afero.Fs, origSdist, repacked, originalDirname, debianizedDirname, tmpParent string) (err error) {
	workDir, err := fsops.CreateTempDir(fs, tmpParent, "pydeb-repack-")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := fs.RemoveAll(workDir); rmErr != nil && err == nil {
			err = fmt.Errorf("failed to remove %s: %w", workDir, rmErr)
		}
	}()

	if err := Expand(fs, origSdist, workDir); err != nil {
		return err
	}

	top, err := TopLevelDir(fs, workDir)
	if err != nil {
		return err
	}
	if filepath.Base(top) != originalDirname {
		return fmt.Errorf("sdist %s does not contain %s/ (found %s/)", origSdist, originalDirname, filepath.Base(top))
	}

	if originalDirname != debianizedDirname {
		if err := fs.Rename(top, filepath.Join(workDir, debianizedDirname)); err != nil {
			return fmt.Errorf("failed to rename %s: %w", originalDirname, err)
		}
	}

	return helpers.CreateTarGz(fs, repacked, workDir, debianizedDirname)
}

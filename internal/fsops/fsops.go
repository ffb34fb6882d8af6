package fsops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// CreateTempDir creates a temporary directory under parent (os.TempDir when empty)
func CreateTempDir(fs afero.Fs, parent, prefix string) (string, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	if err := fs.MkdirAll(parent, 0755); err != nil {
		return "", fmt.Errorf("create temp dir parent: %w", err)
	}
	dir, err := afero.TempDir(fs, parent, prefix)
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	return dir, nil
}

// CheckWritable checks if a path is writable
func CheckWritable(fs afero.Fs, path string) error {
	testFile := filepath.Join(path, ".write_test")
	f, err := fs.Create(testFile)
	if err != nil {
		return fmt.Errorf("path not writable: %w", err)
	}
	f.Close()
	_ = fs.Remove(testFile)
	return nil
}

// EnsureDir ensures a directory exists with the given permissions
func EnsureDir(fs afero.Fs, path string, perm os.FileMode) error {
	if err := fs.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("ensure directory: %w", err)
	}
	return nil
}

// Exists checks if a path exists
func Exists(fs afero.Fs, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}

// IsDir checks if a path is a directory
func IsDir(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// ListDir returns the sorted entry names of a directory
func ListDir(fs afero.Fs, path string) ([]string, error) {
	entries, err := afero.ReadDir(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// CopyFile copies a file from src to dst, keeping the source permissions
func CopyFile(fs afero.Fs, src, dst string) (err error) {
	srcFile, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	if err := fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	dstFile, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer func() {
		if cerr := dstFile.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close destination: %w", cerr)
		}
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("write destination: %w", err)
	}

	return nil
}

// LinkOrCopy hard-links src to dst when fs is the OS filesystem and falls back
// to copying. An existing dst is replaced.
func LinkOrCopy(fs afero.Fs, src, dst string) error {
	if Exists(fs, dst) {
		if err := fs.Remove(dst); err != nil {
			return fmt.Errorf("remove existing %s: %w", dst, err)
		}
	}

	if _, ok := fs.(*afero.OsFs); ok {
		if err := os.Link(src, dst); err == nil {
			return nil
		}
	}

	return CopyFile(fs, src, dst)
}

// CopyTree recursively copies the directory src to dst
func CopyTree(fs afero.Fs, src, dst string) error {
	return afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			return fs.MkdirAll(target, info.Mode().Perm()|0700)
		case info.Mode()&os.ModeSymlink != 0:
			return copySymlink(fs, path, target)
		case info.Mode().IsRegular():
			return CopyFile(fs, path, target)
		default:
			return nil
		}
	})
}

func copySymlink(fs afero.Fs, src, dst string) error {
	reader, okR := fs.(afero.LinkReader)
	linker, okL := fs.(afero.Linker)
	if !okR || !okL {
		return CopyFile(fs, src, dst)
	}
	link, err := reader.ReadlinkIfPossible(src)
	if err != nil {
		return fmt.Errorf("read symlink: %w", err)
	}
	return linker.SymlinkIfPossible(link, dst)
}

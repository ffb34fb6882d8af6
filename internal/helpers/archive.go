package helpers

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/quantmind-br/pydeb/internal/security"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
)

// ExtractArchive extracts a source archive into destDir, choosing the decoder from its format
func ExtractArchive(fs afero.Fs, archivePath, destDir string) error {
	format, err := DetectArchiveFormat(fs, archivePath)
	if err != nil {
		return err
	}

	switch format {
	case FormatTarGz:
		return ExtractTarGz(fs, archivePath, destDir)
	case FormatTarBz2:
		return ExtractTarBz2(fs, archivePath, destDir)
	case FormatTarXz:
		return ExtractTarXz(fs, archivePath, destDir)
	case FormatTar:
		return ExtractTar(fs, archivePath, destDir)
	case FormatZip:
		return ExtractZip(fs, archivePath, destDir)
	default:
		return fmt.Errorf("could not guess format of archive: %s", archivePath)
	}
}

// ExtractTarGz extracts a .tar.gz archive with security checks
func ExtractTarGz(fs afero.Fs, archivePath, destDir string) error {
	file, err := fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzr.Close()

	return extractTar(fs, gzr, destDir)
}

// ExtractTarBz2 extracts a .tar.bz2 archive with security checks
func ExtractTarBz2(fs afero.Fs, archivePath, destDir string) error {
	file, err := fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	return extractTar(fs, bzip2.NewReader(file), destDir)
}

// ExtractTarXz extracts a .tar.xz archive with security checks
func ExtractTarXz(fs afero.Fs, archivePath, destDir string) error {
	file, err := fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	xzr, err := xz.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create xz reader: %w", err)
	}

	return extractTar(fs, xzr, destDir)
}

// ExtractTar extracts a .tar archive with security checks
func ExtractTar(fs afero.Fs, archivePath, destDir string) error {
	file, err := fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	return extractTar(fs, file, destDir)
}

func extractTar(fs afero.Fs, r io.Reader, destDir string) error {
	tr := tar.NewReader(r)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("tar read error: %w", err)
		}

		// Security: Validate path to prevent directory traversal
		if err := security.ValidateExtractPath(destDir, header.Name); err != nil {
			return fmt.Errorf("invalid path in archive: %w", err)
		}

		target := filepath.Join(destDir, header.Name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := fs.MkdirAll(target, dirMode(header.Mode)); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}

		case tar.TypeReg:
			if err := extractFile(fs, tr, target, os.FileMode(header.Mode)); err != nil {
				return fmt.Errorf("failed to extract file %s: %w", header.Name, err)
			}

		case tar.TypeSymlink:
			// Security: Validate symlink target
			if err := security.ValidateSymlink(destDir, target, header.Linkname); err != nil {
				return fmt.Errorf("invalid symlink: %w", err)
			}

			linker, ok := fs.(afero.Linker)
			if !ok {
				return fmt.Errorf("filesystem %s does not support symlinks: %s", fs.Name(), header.Name)
			}
			if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create parent directory: %w", err)
			}
			if err := linker.SymlinkIfPossible(header.Linkname, target); err != nil {
				return fmt.Errorf("failed to create symlink: %w", err)
			}

		case tar.TypeLink:
			// Hard links are materialized as copies of the already extracted target
			if err := security.ValidateExtractPath(destDir, header.Linkname); err != nil {
				return fmt.Errorf("invalid hard link target: %w", err)
			}

			linkTarget := filepath.Join(destDir, header.Linkname)
			src, err := fs.Open(linkTarget)
			if err != nil {
				return fmt.Errorf("failed to open hard link target: %w", err)
			}
			err = extractFile(fs, src, target, os.FileMode(header.Mode))
			src.Close()
			if err != nil {
				return fmt.Errorf("failed to create hard link: %w", err)
			}

		default:
			// Skip unsupported types (TypeBlock, TypeChar, TypeFifo, etc.)
			continue
		}
	}

	return nil
}

func extractFile(fs afero.Fs, r io.Reader, target string, mode os.FileMode) error {
	// Ensure parent directory exists
	if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	if mode.Perm() == 0 {
		mode = 0644
	}

	f, err := fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func dirMode(mode int64) os.FileMode {
	if perm := os.FileMode(mode).Perm(); perm != 0 {
		return perm
	}
	return 0755
}

// ExtractZip extracts a .zip archive with security checks
func ExtractZip(fs afero.Fs, archivePath, destDir string) error {
	r, closeFn, err := openZip(fs, archivePath)
	if err != nil {
		return err
	}
	defer closeFn()

	for _, f := range r.File {
		// Security: Validate path
		if err := security.ValidateExtractPath(destDir, f.Name); err != nil {
			return fmt.Errorf("invalid path in zip: %w", err)
		}

		target := filepath.Join(destDir, f.Name)

		if f.FileInfo().IsDir() {
			if err := fs.MkdirAll(target, dirMode(int64(f.Mode()))); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open zip file entry: %w", err)
		}
		err = extractFile(fs, rc, target, f.Mode())
		rc.Close()
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
	}

	return nil
}

// ZipEntries lists the entry names of a .zip archive
func ZipEntries(fs afero.Fs, archivePath string) ([]string, error) {
	r, closeFn, err := openZip(fs, archivePath)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}

func openZip(fs afero.Fs, archivePath string) (*zip.Reader, func(), error) {
	file, err := fs.Open(archivePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open zip: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to stat zip: %w", err)
	}

	r, err := zip.NewReader(file, info.Size())
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to open zip: %w", err)
	}

	return r, func() { file.Close() }, nil
}

// CreateTarGz archives baseDir/dirname into tarballPath. Entry names are
// relative to baseDir so the archive has dirname as its single top directory.
func CreateTarGz(fs afero.Fs, tarballPath, baseDir, dirname string) (err error) {
	root := filepath.Join(baseDir, dirname)
	if _, err := fs.Stat(root); err != nil {
		return fmt.Errorf("failed to stat %s: %w", root, err)
	}

	out, err := fs.OpenFile(tarballPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create tarball: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close tarball: %w", cerr)
		}
	}()

	gzw := gzip.NewWriter(out)
	tw := tar.NewWriter(gzw)

	walkErr := afero.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		return addTarEntry(fs, tw, baseDir, p, info)
	})
	if walkErr != nil {
		return fmt.Errorf("failed to archive %s: %w", root, walkErr)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}

	return nil
}

func addTarEntry(fs afero.Fs, tw *tar.Writer, baseDir, p string, info os.FileInfo) error {
	rel, err := filepath.Rel(baseDir, p)
	if err != nil {
		return err
	}
	name := filepath.ToSlash(rel)

	var link string
	if info.Mode()&os.ModeSymlink != 0 {
		reader, ok := fs.(afero.LinkReader)
		if !ok {
			return fmt.Errorf("cannot read symlink %s", p)
		}
		if link, err = reader.ReadlinkIfPossible(p); err != nil {
			return err
		}
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	hdr.Name = name
	if info.IsDir() && !strings.HasSuffix(hdr.Name, "/") {
		hdr.Name += "/"
	}
	hdr.Uname, hdr.Gname = "", ""

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := fs.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path.Base(name), err)
	}
	return nil
}

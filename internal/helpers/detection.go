package helpers

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// ArchiveFormat represents the detected format of a source archive
type ArchiveFormat string

const (
	FormatTarGz   ArchiveFormat = "tar.gz"
	FormatTarBz2  ArchiveFormat = "tar.bz2"
	FormatTarXz   ArchiveFormat = "tar.xz"
	FormatTar     ArchiveFormat = "tar"
	FormatZip     ArchiveFormat = "zip"
	FormatUnknown ArchiveFormat = "unknown"
)

// GetArchiveType returns the archive format based on file extension
func GetArchiveType(filePath string) ArchiveFormat {
	lower := strings.ToLower(filePath)

	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(lower, ".tar.bz2"), strings.HasSuffix(lower, ".tbz2"):
		return FormatTarBz2
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return FormatTarXz
	case strings.HasSuffix(lower, ".tar"):
		return FormatTar
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip
	}

	return FormatUnknown
}

// DetectArchiveFormat identifies an archive by extension, falling back to magic numbers
func DetectArchiveFormat(fs afero.Fs, filePath string) (ArchiveFormat, error) {
	if format := GetArchiveType(filePath); format != FormatUnknown {
		return format, nil
	}

	f, err := fs.Open(filePath)
	if err != nil {
		return FormatUnknown, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return FormatUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	header = header[:n]

	switch {
	// Gzip magic: 0x1F 0x8B
	case len(header) >= 2 && bytes.Equal(header[:2], []byte{0x1F, 0x8B}):
		return FormatTarGz, nil
	// XZ magic: 0xFD '7' 'z' 'X' 'Z' 0x00
	case len(header) >= 6 && bytes.Equal(header[:6], []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}):
		return FormatTarXz, nil
	// BZ2 magic: 'B' 'Z' 'h'
	case len(header) >= 3 && bytes.Equal(header[:3], []byte{'B', 'Z', 'h'}):
		return FormatTarBz2, nil
	// ZIP magic: "PK"
	case len(header) >= 2 && bytes.Equal(header[:2], []byte{'P', 'K'}):
		return FormatZip, nil
	// Tar magic: "ustar" at offset 257
	case len(header) >= 262 && bytes.Equal(header[257:262], []byte("ustar")):
		return FormatTar, nil
	}

	return FormatUnknown, nil
}

// TrimArchiveExt strips a known archive extension from a file name
func TrimArchiveExt(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range []string{".tar.gz", ".tar.bz2", ".tar.xz", ".tgz", ".tbz2", ".txz", ".tar", ".zip"} {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

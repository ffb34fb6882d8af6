// Package desktop reads the freedesktop.org .desktop files shipped through
// MIME-Desktop-Files so they can be checked before they are installed.
package desktop

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// Entry is the [Desktop Entry] group of a .desktop file
type Entry struct {
	Type       string
	Name       string
	Exec       string
	Icon       string
	Comment    string
	Categories []string
	MimeTypes  []string
	Terminal   bool
	NoDisplay  bool
}

// Parse parses a .desktop file from a reader
func Parse(r io.Reader) (*Entry, error) {
	de := &Entry{}
	scanner := bufio.NewScanner(r)
	inDesktopEntry := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			inDesktopEntry = line == "[Desktop Entry]"
			continue
		}

		if !inDesktopEntry {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "Type":
			de.Type = value
		case "Name":
			de.Name = value
		case "Exec":
			de.Exec = value
		case "Icon":
			de.Icon = value
		case "Comment":
			de.Comment = value
		case "Categories":
			de.Categories = parseSemicolonList(value)
		case "MimeType":
			de.MimeTypes = parseSemicolonList(value)
		case "Terminal":
			de.Terminal = value == "true"
		case "NoDisplay":
			de.NoDisplay = value == "true"
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan desktop file: %w", err)
	}

	return de, nil
}

// ParseFile parses the .desktop file at path
func ParseFile(fs afero.Fs, path string) (*Entry, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Validate checks if the desktop entry has required fields
func Validate(de *Entry) error {
	if de.Type == "" {
		return fmt.Errorf("Type field is required")
	}
	if de.Name == "" {
		return fmt.Errorf("Name field is required")
	}
	if de.Type == "Application" && de.Exec == "" {
		return fmt.Errorf("Exec field is required")
	}
	return nil
}

// parseSemicolonList parses semicolon-separated list
func parseSemicolonList(value string) []string {
	value = strings.TrimSuffix(value, ";")
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ";")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

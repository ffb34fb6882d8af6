package sdist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/ini.v1"

	"github.com/quantmind-br/pydeb/internal/fsops"
)

// ConfigFileName is the per-package configuration file shipped in the egg-info
const ConfigFileName = "stdeb.cfg"

var extensionSuffixes = []string{".c", ".cpp", ".cxx", ".pyx"}

// Package is what pydeb learns from an expanded sdist
type Package struct {
	Dir           string // expanded top-level directory
	Info          *PkgInfo
	EggInfoDir    string // "" when the sdist ships no egg-info
	EggModuleName string

	// requires.txt formatted text
	InstallRequires string
	SetupRequires   string

	HaveScriptEntryPoints bool
	HasExtModules         bool

	// ConfigFile is the stdeb.cfg found in the egg-info, "" when absent
	ConfigFile string
}

// Inspect reads the metadata of the sdist expanded at dir
func Inspect(fs afero.Fs, dir string) (*Package, error) {
	f, err := fs.Open(filepath.Join(dir, "PKG-INFO"))
	if err != nil {
		return nil, fmt.Errorf("not an sdist, cannot open PKG-INFO: %w", err)
	}
	info, err := ReadPkgInfo(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	pkg := &Package{
		Dir:           dir,
		Info:          info,
		EggModuleName: eggName(info.Name),
	}

	pkg.EggInfoDir, err = findEggInfo(fs, dir, info.Name)
	if err != nil {
		return nil, err
	}
	if pkg.EggInfoDir != "" {
		if err := pkg.readEggInfo(fs); err != nil {
			return nil, err
		}
	}

	pkg.HasExtModules, err = hasExtensionSources(fs, dir)
	if err != nil {
		return nil, err
	}

	return pkg, nil
}

func (p *Package) readEggInfo(fs afero.Fs) error {
	p.EggModuleName = strings.TrimSuffix(filepath.Base(p.EggInfoDir), ".egg-info")

	var err error
	if p.InstallRequires, err = readOptional(fs, filepath.Join(p.EggInfoDir, "requires.txt")); err != nil {
		return err
	}
	if p.SetupRequires, err = readOptional(fs, filepath.Join(p.EggInfoDir, "setup_requires.txt")); err != nil {
		return err
	}

	entryPoints, err := readOptional(fs, filepath.Join(p.EggInfoDir, "entry_points.txt"))
	if err != nil {
		return err
	}
	if p.HaveScriptEntryPoints, err = hasScriptEntryPoints(entryPoints); err != nil {
		return err
	}

	if cfg := filepath.Join(p.EggInfoDir, ConfigFileName); fsops.Exists(fs, cfg) {
		p.ConfigFile = cfg
	}
	return nil
}

// eggName is the project name the way setuptools spells egg-info directories
func eggName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// findEggInfo locates <name>.egg-info at the top of dir or under src/.
// Other egg-info directories are only used when no name matches.
func findEggInfo(fs afero.Fs, dir, name string) (string, error) {
	var found []string
	for _, pattern := range []string{
		filepath.Join(dir, "*.egg-info"),
		filepath.Join(dir, "src", "*.egg-info"),
	} {
		matches, err := afero.Glob(fs, pattern)
		if err != nil {
			return "", fmt.Errorf("failed to search egg-info: %w", err)
		}
		for _, m := range matches {
			if fsops.IsDir(fs, m) {
				found = append(found, m)
			}
		}
	}
	if len(found) == 0 {
		return "", nil
	}
	sort.Strings(found)

	want := strings.ToLower(eggName(name))
	for _, m := range found {
		if strings.ToLower(eggName(strings.TrimSuffix(filepath.Base(m), ".egg-info"))) == want {
			return m, nil
		}
	}
	return found[0], nil
}

func readOptional(fs afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) || !fsops.Exists(fs, path) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// hasScriptEntryPoints reports whether entry_points.txt declares console or
// GUI scripts
func hasScriptEntryPoints(text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	f, err := ini.LoadSources(ini.LoadOptions{
		SkipUnrecognizableLines: true,
		KeyValueDelimiters:      "=",
	}, []byte(text))
	if err != nil {
		return false, fmt.Errorf("failed to parse entry_points.txt: %w", err)
	}

	for _, name := range []string{"console_scripts", "gui_scripts"} {
		sec, err := f.GetSection(name)
		if err != nil {
			continue
		}
		if len(sec.Keys()) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// errFound stops the tree walk once an extension source is seen
var errFound = errors.New("found")

// hasExtensionSources reports whether the tree contains C, C++ or Pyrex
// sources, the sign of native extension modules
func hasExtensionSources(fs afero.Fs, dir string) (bool, error) {
	err := afero.Walk(fs, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && p != dir {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		for _, s := range extensionSuffixes {
			if ext == s {
				return errFound
			}
		}
		return nil
	})
	switch {
	case errors.Is(err, errFound):
		return true, nil
	case err != nil:
		return false, fmt.Errorf("failed to scan %s: %w", dir, err)
	default:
		return false, nil
	}
}

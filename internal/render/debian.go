package render

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/quantmind-br/pydeb/internal/core"
	"github.com/quantmind-br/pydeb/internal/debinfo"
	"github.com/quantmind-br/pydeb/internal/desktop"
	"github.com/quantmind-br/pydeb/internal/fsops"
	"github.com/quantmind-br/pydeb/internal/security"
)

type debianFile struct {
	name    string
	content string
	mode    os.FileMode
}

// DebianWriter writes the debian/ directory of an expanded source tree
type DebianWriter struct {
	fs  afero.Fs
	log *zerolog.Logger
}

// NewDebianWriter creates a writer on fs
func NewDebianWriter(fs afero.Fs, log *zerolog.Logger) *DebianWriter {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &DebianWriter{fs: fs, log: log}
}

// resolvePath makes a configured file reference absolute against workDir
func resolvePath(workDir, p string) string {
	if p == "" || filepath.IsAbs(p) || workDir == "" {
		return p
	}
	return filepath.Join(workDir, p)
}

// CheckReferencedFiles verifies that every file named by info outside the
// source tree exists. Relative references are resolved against workDir.
func (w *DebianWriter) CheckReferencedFiles(info *debinfo.Info, workDir string) error {
	refs := []struct {
		what string
		path string
	}{
		{"a patch file", info.PatchFile},
		{"a MIME file", info.MIMEFile},
		{"a shared MIME file", info.SharedMIMEFile},
		{"a copyright file", info.CopyrightFile},
		{"a udev rules file", info.UdevRules},
	}
	for _, ref := range refs {
		if ref.path == "" {
			continue
		}
		p := resolvePath(workDir, ref.path)
		if !fsops.Exists(w.fs, p) {
			return &core.ValidationError{What: ref.what, Path: p}
		}
	}
	return nil
}

// checkDesktopFiles requires every MIME desktop file to exist inside treeDir.
// Malformed entries are only warned about.
func (w *DebianWriter) checkDesktopFiles(info *debinfo.Info, treeDir string) error {
	for _, name := range info.MIMEDesktopFiles {
		if err := security.ValidateRelativeFile(name); err != nil {
			return &core.ConfigError{Section: info.ModuleName, Key: "MIME-Desktop-Files", Msg: err.Error()}
		}

		p := filepath.Join(treeDir, name)
		if !fsops.Exists(w.fs, p) {
			return &core.ValidationError{What: "a MIME desktop file", Path: p}
		}

		entry, err := desktop.ParseFile(w.fs, p)
		if err != nil {
			w.log.Warn().Err(err).Str("file", name).Msg("cannot read desktop file")
			continue
		}
		if err := desktop.Validate(entry); err != nil {
			w.log.Warn().Err(err).Str("file", name).Msg("invalid desktop file")
		}
		if len(entry.MimeTypes) == 0 {
			w.log.Warn().Str("file", name).Msg("desktop file declares no MimeType")
		}
	}
	return nil
}

// Write renders all debian/ files into treeDir/debian. Referenced files are
// checked before anything is written.
func (w *DebianWriter) Write(info *debinfo.Info, workDir, treeDir string) error {
	if err := w.CheckReferencedFiles(info, workDir); err != nil {
		return err
	}
	if err := w.checkDesktopFiles(info, treeDir); err != nil {
		return err
	}

	changelog, err := Changelog(info)
	if err != nil {
		return fmt.Errorf("failed to render changelog: %w", err)
	}
	control, err := Control(info)
	if err != nil {
		return fmt.Errorf("failed to render control: %w", err)
	}
	rules, err := Rules(info)
	if err != nil {
		return fmt.Errorf("failed to render rules: %w", err)
	}

	debianDir := filepath.Join(treeDir, "debian")
	if err := fsops.EnsureDir(w.fs, debianDir, 0755); err != nil {
		return err
	}

	files := []debianFile{
		{"changelog", changelog, 0644},
		{"control", control, 0644},
		{"rules", rules, 0755},
		{"compat", CompatLevel, 0644},
	}

	if info.PycentralRemovalPreinst {
		preinst, err := Preinst(info)
		if err != nil {
			return fmt.Errorf("failed to render preinst: %w", err)
		}
		files = append(files, debianFile{info.Package + ".preinst", preinst, 0644})
	}
	if install := Install(info); install != "" {
		files = append(files, debianFile{info.Package + ".install", install, 0644})
	}

	for _, f := range files {
		p := filepath.Join(debianDir, f.name)
		if err := afero.WriteFile(w.fs, p, []byte(f.content), f.mode); err != nil {
			return fmt.Errorf("failed to write %s: %w", p, err)
		}
		// WriteFile keeps the mode of an existing file
		if err := w.fs.Chmod(p, f.mode); err != nil {
			return fmt.Errorf("failed to chmod %s: %w", p, err)
		}
		w.log.Debug().Str("file", p).Msg("wrote debian file")
	}

	links := []struct {
		src  string
		name string
	}{
		{info.MIMEFile, info.Package + ".mime"},
		{info.SharedMIMEFile, info.Package + ".sharedmimeinfo"},
		{info.CopyrightFile, "copyright"},
		{info.UdevRules, info.Package + ".udev"},
	}
	for _, l := range links {
		if l.src == "" {
			continue
		}
		dst := filepath.Join(debianDir, l.name)
		if err := fsops.LinkOrCopy(w.fs, resolvePath(workDir, l.src), dst); err != nil {
			return fmt.Errorf("failed to install %s: %w", l.name, err)
		}
		w.log.Debug().Str("file", dst).Str("source", l.src).Msg("linked debian file")
	}

	return nil
}

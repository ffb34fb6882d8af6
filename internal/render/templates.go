// Package render writes the debian/ directory for a resolved package and
// drives dpkg-source to assemble the final source package.
package render

import (
	"strings"
	"text/template"
	"time"

	"github.com/quantmind-br/pydeb/internal/debinfo"
)

// CompatLevel is the content of debian/compat
const CompatLevel = "7\n"

// Date822 formats t the way debian/changelog trailers expect
func Date822(t time.Time) string {
	return t.Format(time.RFC1123Z)
}

var (
	changelogTemplate = template.Must(template.New("changelog").Parse(
		`{{.Source}} ({{.FullVersion}}) {{.Distribution}}; urgency=low

  * source package automatically created by pydeb {{.ToolVersion}}

 -- {{.Maintainer}}  {{.Date}}
`))

	controlTemplate = template.Must(template.New("control").Parse(
		`Source: {{.Source}}
Maintainer: {{.Maintainer}}
{{with .Uploaders}}Uploaders: {{.}}
{{end}}Section: python
Priority: optional
Build-Depends: {{.BuildDepends}}
Standards-Version: 3.7.2
{{with .BuildConflicts}}Build-Conflicts: {{.}}
{{end}}{{with .XSPythonVersion}}XS-Python-Version: {{.}}
{{end}}
Package: {{.Package}}
Architecture: {{.Architecture}}
Depends: {{.Depends}}
{{with .Recommends}}Recommends: {{.}}
{{end}}{{with .Suggests}}Suggests: {{.}}
{{end}}XB-Python-Version: ${python:Versions}
{{with .Conflicts}}Conflicts: {{.}}
{{end}}Provides: {{.Provides}}
{{with .Replaces}}Replaces: {{.}}
{{end}}Description: {{.Description}}
{{with .LongDescription}}{{.}}
{{end}}`))

	rulesTemplate = template.Must(template.New("rules").Parse(
		`#!/usr/bin/make -f

# This file was automatically generated by pydeb {{.ToolVersion}} at
# {{.Date}}

# Unset the environment variables set by dpkg-buildpackage. (This is
# necessary because distutils is brittle with compiler/linker flags
# set. Specifically, packages using f2py will break without this.)
unexport CPPFLAGS
unexport CFLAGS
unexport CXXFLAGS
unexport FFLAGS
unexport LDFLAGS
{{with .Exports}}
#exports specified using pydeb Setup-Env-Vars:
{{range .}}export {{.}}
{{end}}{{end}}
%:
	dh $@
{{if .CustomBinary}}
binary: build
{{with .ShlibdepsParams}}	dh binary --before dh_shlibdeps
	dh_shlibdeps -a --dpkg-shlibdeps-params={{.}}
	dh binary --after dh_shlibdeps
{{else}}	dh binary
{{end}}{{with .InstallMimeFlag}}	dh_installmime {{.}}
{{end}}{{with .DesktopFlag}}	dh_desktop {{.}}
{{end}}{{end}}`))

	preinstTemplate = template.Must(template.New("preinst").Parse(
		`#! /bin/sh

set -e

# pycentral does not normally remove its symlinks on an upgrade (Debian
# #479852). Since the package now uses python-support those symlinks would
# be left broken, so ask python-central to clean them up.
if [ -e /var/lib/dpkg/info/{{.Package}}.list ] && which pycentral >/dev/null 2>&1
then
    pycentral pkgremove {{.Package}}
fi

#DEBHELPER#
`))
)

type changelogView struct {
	Source       string
	FullVersion  string
	Distribution string
	ToolVersion  string
	Maintainer   string
	Date         string
}

type controlView struct {
	Source          string
	Maintainer      string
	Uploaders       string
	BuildDepends    string
	BuildConflicts  string
	XSPythonVersion string
	Package         string
	Architecture    string
	Depends         string
	Recommends      string
	Suggests        string
	Conflicts       string
	Provides        string
	Replaces        string
	Description     string
	LongDescription string
}

type rulesView struct {
	ToolVersion     string
	Date            string
	Exports         []string
	CustomBinary    bool
	ShlibdepsParams string
	InstallMimeFlag string
	DesktopFlag     string
}

type preinstView struct {
	Package string
}

func execute(t *template.Template, view any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, view); err != nil {
		return "", err
	}
	return b.String(), nil
}

func joinRelations(rel []string) string {
	return strings.Join(rel, ", ")
}

// Changelog renders debian/changelog
func Changelog(info *debinfo.Info) (string, error) {
	return execute(changelogTemplate, changelogView{
		Source:       info.Source,
		FullVersion:  info.FullVersion,
		Distribution: info.Distribution,
		ToolVersion:  info.ToolVersion,
		Maintainer:   info.Maintainer,
		Date:         Date822(info.Date),
	})
}

// Control renders debian/control
func Control(info *debinfo.Info) (string, error) {
	return execute(controlTemplate, controlView{
		Source:          info.Source,
		Maintainer:      info.Maintainer,
		Uploaders:       joinRelations(info.Uploaders),
		BuildDepends:    joinRelations(info.BuildDepends),
		BuildConflicts:  joinRelations(info.BuildConflicts),
		XSPythonVersion: joinRelations(info.XSPythonVersion),
		Package:         info.Package,
		Architecture:    string(info.Architecture),
		Depends:         joinRelations(info.Depends),
		Recommends:      joinRelations(info.Recommends),
		Suggests:        joinRelations(info.Suggests),
		Conflicts:       joinRelations(info.Conflicts),
		Provides:        joinRelations(info.Provides),
		Replaces:        joinRelations(info.Replaces),
		Description:     info.Description,
		LongDescription: info.LongDescription,
	})
}

// Rules renders debian/rules. The binary target is only overridden when
// the package needs MIME, desktop or shlibdeps handling.
func Rules(info *debinfo.Info) (string, error) {
	view := rulesView{
		ToolVersion:     info.ToolVersion,
		Date:            Date822(info.Date),
		Exports:         info.SetupEnvVars,
		CustomBinary:    info.NeedsCustomBinaryTarget,
		ShlibdepsParams: info.ShlibdepsParams,
	}
	if info.MIMEFile != "" || info.SharedMIMEFile != "" {
		view.InstallMimeFlag = info.DhArchFlag()
	}
	if len(info.MIMEDesktopFiles) > 0 {
		view.DesktopFlag = info.DhArchFlag()
	}
	return execute(rulesTemplate, view)
}

// Preinst renders debian/<package>.preinst
func Preinst(info *debinfo.Info) (string, error) {
	return execute(preinstTemplate, preinstView{Package: info.Package})
}

// Install renders debian/<package>.install, empty when nothing is installed
func Install(info *debinfo.Info) string {
	if len(info.InstallLines) == 0 {
		return ""
	}
	return strings.Join(info.InstallLines, "\n") + "\n"
}

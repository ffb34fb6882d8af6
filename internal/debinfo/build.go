package debinfo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/quantmind-br/pydeb/internal/core"
	"github.com/quantmind-br/pydeb/internal/debcfg"
	"github.com/quantmind-br/pydeb/internal/helpers"
)

// Build runs the resolution pipeline over cfg and in
func Build(ctx context.Context, cfg *debcfg.Resolved, in Input, deps Deps) (*Info, error) {
	deps = deps.withDefaults()

	if err := checkInput(cfg, in, deps); err != nil {
		return nil, err
	}
	for _, key := range cfg.Unknown() {
		deps.Log.Warn().Str("section", cfg.Module()).Str("key", key).Msg("ignoring unknown configuration key")
	}

	id, err := resolveIdentity(cfg)
	if err != nil {
		return nil, err
	}

	ver, err := resolveVersion(cfg, in)
	if err != nil {
		return nil, err
	}

	people, err := resolvePeople(cfg)
	if err != nil {
		return nil, err
	}

	arch := resolveArchitecture(cfg, in)

	files, err := resolveFiles(cfg, arch)
	if err != nil {
		return nil, err
	}

	rel, err := resolveRelations(ctx, cfg, in, arch, deps)
	if err != nil {
		return nil, err
	}

	patch, err := resolvePatch(cfg, in)
	if err != nil {
		return nil, err
	}

	xs := resolvePythonVersions(ctx, in, arch.xsPythonVersion, deps)

	rules, err := resolveRules(cfg)
	if err != nil {
		return nil, err
	}

	info := &Info{
		ModuleName:    in.ModuleName,
		EggModuleName: in.EggModuleName,

		Source:  id.source,
		Package: id.pkg,

		UpstreamVersion:  ver.upstream,
		Epoch:            ver.epoch,
		PackagingVersion: ver.packaging,
		FullVersion:      ver.full,
		DscVersion:       ver.dsc,

		Distribution: people.distribution,
		Maintainer:   people.maintainer,
		Uploaders:    people.uploaders,
		Date:         deps.Now(),
		ToolVersion:  in.ToolVersion,

		Architecture:   arch.architecture,
		BuildDepends:   rel.buildDepends,
		BuildConflicts: rel.buildConflicts,
		Depends:        rel.depends,
		Recommends:     rel.recommends,
		Suggests:       rel.suggests,
		Conflicts:      rel.conflicts,
		Provides:       rel.provides,
		Replaces:       rel.replaces,

		Description:     strings.TrimSpace(in.Description),
		LongDescription: formatLongDescription(in.LongDescription),

		CopyrightFile:    files.copyright,
		MIMEFile:         files.mime,
		SharedMIMEFile:   files.sharedMIME,
		UdevRules:        files.udev,
		MIMEDesktopFiles: files.desktop,
		InstallLines:     files.installLines,

		PatchFile:  patch.file,
		PatchLevel: patch.level,

		XSPythonVersion: xs,
		ShlibdepsParams: rules.shlibdepsParams,
		SetupEnvVars:    rules.envVars,

		PycentralRemovalPreinst: in.PycentralBackwardsCompatibility,
		NeedsCustomBinaryTarget: files.customBinary || rules.shlibdepsParams != "",
	}

	if err := validate(info); err != nil {
		return nil, err
	}

	return info, nil
}

func checkInput(cfg *debcfg.Resolved, in Input, deps Deps) error {
	switch {
	case cfg == nil:
		return &core.ConfigError{Msg: "resolved configuration must be supplied"}
	case in.ModuleName == "":
		return &core.ConfigError{Msg: "module name must be supplied"}
	case in.UpstreamVersion == "":
		return &core.ConfigError{Section: in.ModuleName, Msg: "upstream version must be supplied"}
	case deps.Mapper == nil:
		return fmt.Errorf("dependency mapper must be supplied")
	}
	return nil
}

type identity struct {
	source string
	pkg    string
}

func resolveIdentity(cfg *debcfg.Resolved) (identity, error) {
	source, err := cfg.Scalar(debcfg.KeySource)
	if err != nil {
		return identity{}, err
	}
	pkg, err := cfg.Scalar(debcfg.KeyPackage)
	if err != nil {
		return identity{}, err
	}
	return identity{source: source, pkg: pkg}, nil
}

type versioning struct {
	upstream  string
	epoch     string
	packaging string
	full      string
	dsc       string
}

func resolveVersion(cfg *debcfg.Resolved, in Input) (versioning, error) {
	var v versioning

	forced, err := cfg.Scalar(debcfg.KeyForcedUpstreamVersion)
	if err != nil {
		return v, err
	}

	if forced == "" {
		prefix, err := cfg.Scalar(debcfg.KeyUpstreamVersionPrefix)
		if err != nil {
			return v, err
		}
		suffix, err := cfg.Scalar(debcfg.KeyUpstreamVersionSuffix)
		if err != nil {
			return v, err
		}
		v.upstream = prefix + helpers.DebianizeVersion(in.UpstreamVersion) + suffix
	} else {
		if legal := helpers.DebianizeVersion(forced); legal != forced {
			return v, &core.ConfigError{
				Section: cfg.Module(),
				Key:     debcfg.KeyForcedUpstreamVersion,
				Msg:     fmt.Sprintf("%q is not a Debian-compatible version (e.g. %q)", forced, legal),
			}
		}
		v.upstream = forced
	}

	if v.epoch, err = cfg.Scalar(debcfg.KeyEpoch); err != nil {
		return v, err
	}
	if v.epoch != "" && !strings.HasSuffix(v.epoch, ":") {
		v.epoch += ":"
	}

	if v.packaging, err = cfg.Scalar(debcfg.KeyDebianVersion); err != nil {
		return v, err
	}
	if in.DebianVersion != "" {
		v.packaging = in.DebianVersion
	}

	v.dsc = v.upstream + "-" + v.packaging
	v.full = v.epoch + v.dsc

	return v, nil
}

type people struct {
	distribution string
	maintainer   string
	uploaders    []string
}

func resolvePeople(cfg *debcfg.Resolved) (people, error) {
	dist, err := cfg.Scalar(debcfg.KeyDistribution)
	if err != nil {
		return people{}, err
	}
	return people{
		distribution: dist,
		maintainer:   strings.Join(cfg.List(debcfg.KeyMaintainer), ", "),
		uploaders:    cfg.List(debcfg.KeyUploaders),
	}, nil
}

type architecture struct {
	architecture    core.Architecture
	xsPythonVersion []string
	devPackages     []string
}

func resolveArchitecture(cfg *debcfg.Resolved, in Input) architecture {
	a := architecture{architecture: core.ArchAll}

	if len(in.ForceXSPythonVersion) > 0 {
		a.xsPythonVersion = append([]string(nil), in.ForceXSPythonVersion...)
	} else {
		a.xsPythonVersion = cfg.List(debcfg.KeyXSPythonVersion)
	}

	if !in.HasExtModules {
		return a
	}

	a.architecture = core.ArchAny
	if len(a.xsPythonVersion) == 0 {
		a.devPackages = []string{"python-all-dev"}
		return a
	}
	for _, v := range a.xsPythonVersion {
		a.devPackages = append(a.devPackages, "python"+v+"-dev")
	}
	return a
}

type files struct {
	copyright    string
	mime         string
	sharedMIME   string
	udev         string
	desktop      []string
	installLines []string
	customBinary bool
}

func resolveFiles(cfg *debcfg.Resolved, arch architecture) (files, error) {
	var (
		f   files
		err error
	)

	if f.copyright, err = cfg.Scalar(debcfg.KeyCopyrightFile); err != nil {
		return f, err
	}
	if f.mime, err = cfg.Scalar(debcfg.KeyMIMEFile); err != nil {
		return f, err
	}
	if f.sharedMIME, err = cfg.Scalar(debcfg.KeySharedMIMEFile); err != nil {
		return f, err
	}
	if f.udev, err = cfg.Scalar(debcfg.KeyUdevRules); err != nil {
		return f, err
	}

	f.desktop = cfg.List(debcfg.KeyMIMEDesktopFiles)
	for _, d := range f.desktop {
		f.installLines = append(f.installLines, d+" usr/share/applications")
	}

	f.customBinary = f.mime != "" || f.sharedMIME != "" || len(f.desktop) > 0

	return f, nil
}

type relations struct {
	buildDepends   []string
	buildConflicts []string
	depends        []string
	recommends     []string
	suggests       []string
	conflicts      []string
	provides       []string
	replaces       []string
}

func resolveRelations(ctx context.Context, cfg *debcfg.Resolved, in Input, arch architecture, deps Deps) (relations, error) {
	var r relations

	setupDeps, err := deps.Mapper.MapText(ctx, in.SetupRequires)
	if err != nil {
		return r, fmt.Errorf("failed to map setup requirements: %w", err)
	}
	installDeps, err := deps.Mapper.MapText(ctx, in.InstallRequires)
	if err != nil {
		return r, fmt.Errorf("failed to map install requirements: %w", err)
	}

	r.buildDepends = append(r.buildDepends, SetuptoolsBuildDepend)
	r.buildDepends = append(r.buildDepends, setupDeps...)
	r.buildDepends = append(r.buildDepends, arch.devPackages...)
	dh := DebhelperMinVersion
	if in.HaveScriptEntryPoints && !in.Workaround548392 {
		dh = DebhelperIdealVersion
	}
	r.buildDepends = append(r.buildDepends,
		"debhelper (>= "+dh+")",
		"python-support (>= "+PythonSupportMinVersion+")",
	)
	r.buildDepends = append(r.buildDepends, cfg.List(debcfg.KeyBuildDepends)...)
	r.buildConflicts = cfg.List(debcfg.KeyBuildConflicts)

	r.depends = []string{"${python:Depends}", "python-pkg-resources"}
	if arch.architecture == core.ArchAny {
		r.depends = append(r.depends, "${shlibs:Depends}")
	}
	r.depends = append(r.depends, cfg.List(debcfg.KeyDepends)...)
	r.depends = append(r.depends, installDeps...)

	r.recommends = cfg.List(debcfg.KeyRecommends)
	r.suggests = cfg.List(debcfg.KeySuggests)
	r.conflicts = cfg.List(debcfg.KeyConflicts)
	r.replaces = cfg.List(debcfg.KeyReplaces)

	r.provides = append([]string{"${python:Provides}"}, cfg.List(debcfg.KeyProvides)...)
	if strings.Contains(in.ModuleName, ".") {
		r.provides = append(r.provides, helpers.PythonPackageName(in.ModuleName))
	}

	return r, nil
}

type patch struct {
	file  string
	level int
}

func resolvePatch(cfg *debcfg.Resolved, in Input) (patch, error) {
	var p patch

	file, err := cfg.Scalar(debcfg.KeyPatchFile)
	if err != nil {
		return p, err
	}
	if in.PatchFile != "" {
		if file != "" {
			return p, &core.ConfigError{
				Section: cfg.Module(),
				Key:     debcfg.KeyPatchFile,
				Msg:     "a patch file was specified on the command line and in the configuration file",
			}
		}
		file = in.PatchFile
	}
	p.file = file

	level, err := cfg.Scalar(debcfg.KeyPatchLevel)
	if err != nil {
		return p, err
	}
	switch {
	case level != "" && in.PatchLevel != nil:
		return p, &core.ConfigError{
			Section: cfg.Module(),
			Key:     debcfg.KeyPatchLevel,
			Msg:     "a patch level was specified on the command line and in the configuration file",
		}
	case level != "":
		n, err := strconv.Atoi(level)
		if err != nil || n < 0 {
			return p, &core.ConfigError{
				Section: cfg.Module(),
				Key:     debcfg.KeyPatchLevel,
				Msg:     fmt.Sprintf("patch level must be a non-negative integer, got %q", level),
			}
		}
		p.level = n
	case in.PatchLevel != nil:
		if *in.PatchLevel < 0 {
			return p, &core.ConfigError{
				Key: "patch-level",
				Msg: fmt.Sprintf("patch level must be a non-negative integer, got %d", *in.PatchLevel),
			}
		}
		p.level = *in.PatchLevel
	}

	return p, nil
}

type rules struct {
	shlibdepsParams string
	envVars         []string
}

func resolveRules(cfg *debcfg.Resolved) (rules, error) {
	params, err := cfg.Scalar(debcfg.KeyShlibdepsParams)
	if err != nil {
		return rules{}, err
	}

	env := append(cfg.List(debcfg.KeySetupEnvVars), DistutilsBuildSystem)

	return rules{shlibdepsParams: params, envVars: env}, nil
}

// formatLongDescription indents each line for a control file extended
// description, turning blank lines into " .". "UNKNOWN" and empty input
// yield no extended description.
func formatLongDescription(text string) string {
	text = strings.TrimRight(text, "\n")
	if text == "" || text == "UNKNOWN" {
		return ""
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = " ."
		} else {
			lines[i] = " " + strings.TrimRight(line, "\r")
		}
	}
	return strings.Join(lines, "\n")
}

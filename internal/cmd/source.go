package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/quantmind-br/pydeb/internal/config"
	"github.com/quantmind-br/pydeb/internal/core"
	"github.com/quantmind-br/pydeb/internal/debcfg"
	"github.com/quantmind-br/pydeb/internal/debinfo"
	"github.com/quantmind-br/pydeb/internal/depmap"
	"github.com/quantmind-br/pydeb/internal/fsops"
	"github.com/quantmind-br/pydeb/internal/helpers"
	"github.com/quantmind-br/pydeb/internal/logging"
	"github.com/quantmind-br/pydeb/internal/sdist"
)

// Env holds the collaborators commands operate on
type Env struct {
	Fs     afero.Fs
	Runner helpers.CommandRunner
	Now    func() time.Time
}

// DefaultEnv uses the real filesystem and executes real commands
func DefaultEnv() Env {
	return Env{
		Fs:     afero.NewOsFs(),
		Runner: helpers.NewOSCommandRunner(),
		Now:    time.Now,
	}
}

func (e Env) withDefaults() Env {
	def := DefaultEnv()
	if e.Fs == nil {
		e.Fs = def.Fs
	}
	if e.Runner == nil {
		e.Runner = def.Runner
	}
	if e.Now == nil {
		e.Now = def.Now
	}
	return e
}

// sourceOptions are the flags shared by build and show
type sourceOptions struct {
	distDir               string
	extraCfgFiles         []string
	sets                  []string
	distribution          string
	maintainer            string
	debianVersion         string
	patchFile             string
	patchLevel            int
	patchLevelGiven       bool
	forceXS               []string
	extModules            string
	ignoreInstallRequires bool
	noWorkaround548392    bool
}

func (o *sourceOptions) addFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	f.StringArrayVarP(&o.extraCfgFiles, "extra-cfg-file", "x", nil, "additional stdeb.cfg style file (repeatable)")
	f.StringArrayVar(&o.sets, "set", nil, "override a configuration key, e.g. --set Depends=python-foo (repeatable)")
	f.StringVar(&o.distribution, "suite", cfg.Build.DefaultDistribution, "default distribution for the changelog")
	f.StringVar(&o.maintainer, "maintainer", cfg.Build.DefaultMaintainer, "default maintainer (defaults to the sdist author)")
	f.StringVar(&o.debianVersion, "debian-version", "", "Debian revision, overriding Debian-Version")
	f.StringVarP(&o.patchFile, "patch-file", "p", "", "patch to apply to the upstream sources")
	f.IntVarP(&o.patchLevel, "patch-level", "l", 0, "strip level passed to patch -p")
	f.StringSliceVar(&o.forceXS, "force-xs-python-version", nil, "force XS-Python-Version, skipping the #548392 workaround")
	f.StringVar(&o.extModules, "ext-modules", "auto", "whether the package builds native extensions: auto, yes or no")
	f.BoolVar(&o.ignoreInstallRequires, "ignore-install-requires", cfg.Build.IgnoreInstallRequires, "do not map install_requires to Depends")
	f.BoolVar(&o.noWorkaround548392, "no-workaround-548392", !cfg.Build.Workaround548392, "do not limit XS-Python-Version to the default Python")
}

// bind finishes option parsing once cobra has processed the command line
func (o *sourceOptions) bind(cmd *cobra.Command) {
	o.patchLevelGiven = cmd.Flags().Changed("patch-level")
	o.distDir = absPath(o.distDir)
	o.patchFile = absPath(o.patchFile)
	for i, p := range o.extraCfgFiles {
		o.extraCfgFiles[i] = absPath(p)
	}
}

// overrides parses the --set flags
func (o *sourceOptions) overrides() (debcfg.Values, error) {
	values := make(debcfg.Values)
	for _, kv := range o.sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, &core.ConfigError{Key: kv, Msg: "expected KEY=VALUE"}
		}
		name, known := debcfg.CanonicalKey(key)
		if !known {
			return nil, &core.ConfigError{Key: strings.TrimSpace(key), Msg: "unknown option"}
		}
		values.Set(name, strings.TrimSpace(value))
	}
	return values, nil
}

func (o *sourceOptions) hasExtModules(detected bool) (bool, error) {
	switch strings.ToLower(o.extModules) {
	case "", "auto":
		return detected, nil
	case "yes", "true":
		return true, nil
	case "no", "false":
		return false, nil
	default:
		return false, &core.ConfigError{Key: "ext-modules", Msg: fmt.Sprintf("invalid value %q (want auto, yes or no)", o.extModules)}
	}
}

// preparedSource is an expanded and fully resolved sdist
type preparedSource struct {
	workDir string
	treeDir string
	pkg     *sdist.Package
	info    *debinfo.Info
}

// prepareSource expands sdistPath into a new directory below tmpParent and
// resolves its packaging metadata. The caller must remove workDir.
func prepareSource(ctx context.Context, env Env, cfg *config.Config, log *zerolog.Logger, sdistPath, tmpParent string, opts *sourceOptions, toolVersion string) (src *preparedSource, err error) {
	if !fsops.Exists(env.Fs, sdistPath) {
		return nil, &core.ValidationError{What: "an sdist", Path: sdistPath}
	}

	workDir, err := fsops.CreateTempDir(env.Fs, tmpParent, "pydeb-")
	if err != nil {
		return nil, err
	}
	src = &preparedSource{workDir: workDir}
	defer func() {
		if err != nil {
			_ = env.Fs.RemoveAll(workDir)
		}
	}()

	if err := sdist.Expand(env.Fs, sdistPath, workDir); err != nil {
		return nil, err
	}
	if src.treeDir, err = sdist.TopLevelDir(env.Fs, workDir); err != nil {
		return nil, err
	}
	if src.pkg, err = sdist.Inspect(env.Fs, src.treeDir); err != nil {
		return nil, err
	}
	log.Debug().
		Str("name", src.pkg.Info.Name).
		Str("version", src.pkg.Info.Version).
		Str("egg_info", src.pkg.EggInfoDir).
		Bool("ext_modules", src.pkg.HasExtModules).
		Msg("inspected sdist")

	cfgFiles := make([]string, 0, len(opts.extraCfgFiles)+1)
	if src.pkg.ConfigFile != "" {
		cfgFiles = append(cfgFiles, src.pkg.ConfigFile)
	}
	cfgFiles = append(cfgFiles, opts.extraCfgFiles...)
	sources, err := debcfg.Load(env.Fs, cfgFiles...)
	if err != nil {
		return nil, err
	}

	overrides, err := opts.overrides()
	if err != nil {
		return nil, err
	}

	maintainer := opts.maintainer
	if maintainer == "" {
		maintainer = src.pkg.Info.Contact()
	}

	module := src.pkg.Info.Name
	resolved, err := debcfg.Resolve(sources, module, debcfg.Defaults(module, opts.distribution, maintainer), overrides)
	if err != nil {
		return nil, err
	}

	in, err := newInput(src.pkg, cfg, opts, maintainer, toolVersion)
	if err != nil {
		return nil, err
	}

	deps := debinfo.Deps{
		Mapper:     depmap.NewMapper(depmap.NewAptFileIndex(env.Runner, cfg.Tools.AptFile), logging.Component(log, "depmap")),
		PyVersions: debinfo.NewSystemPythonVersions(env.Runner, cfg.Tools.Pyversions, cfg.Build.DefaultPythonVersion),
		Now:        env.Now,
		Log:        log,
	}
	if src.info, err = debinfo.Build(ctx, resolved, in, deps); err != nil {
		return nil, err
	}

	return src, nil
}

func newInput(pkg *sdist.Package, cfg *config.Config, opts *sourceOptions, maintainer, toolVersion string) (debinfo.Input, error) {
	ext, err := opts.hasExtModules(pkg.HasExtModules)
	if err != nil {
		return debinfo.Input{}, err
	}

	in := debinfo.Input{
		ModuleName:                      pkg.Info.Name,
		EggModuleName:                   pkg.EggModuleName,
		DefaultDistribution:             opts.distribution,
		DefaultMaintainer:               maintainer,
		UpstreamVersion:                 pkg.Info.Version,
		HasExtModules:                   ext,
		Description:                     pkg.Info.Summary,
		LongDescription:                 pkg.Info.Description,
		InstallRequires:                 pkg.InstallRequires,
		SetupRequires:                   pkg.SetupRequires,
		HaveScriptEntryPoints:           pkg.HaveScriptEntryPoints,
		Workaround548392:                !opts.noWorkaround548392,
		PycentralBackwardsCompatibility: cfg.Build.PycentralBackwardsCompatibility,
		DebianVersion:                   opts.debianVersion,
		PatchFile:                       opts.patchFile,
		ForceXSPythonVersion:            opts.forceXS,
		ToolVersion:                     toolVersion,
	}
	if opts.ignoreInstallRequires {
		in.InstallRequires = ""
	}
	if opts.patchLevelGiven {
		level := opts.patchLevel
		in.PatchLevel = &level
	}
	return in, nil
}

// absPath makes relative command line paths absolute so that later
// directory changes do not affect them
func absPath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

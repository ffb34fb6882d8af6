package debinfo

import (
	"context"
	"regexp"
	"slices"
	"sort"
)

// CurrentPythonVersion is the XS-Python-Version value selecting the default interpreter
const CurrentPythonVersion = "current"

var literalPyVersion = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)

// resolvePythonVersions applies the workaround for Debian bug #548392:
// debhelper < 7.4.3 breaks script entry points when a package is built for
// several interpreters, so the request is narrowed to a single version.
func resolvePythonVersions(ctx context.Context, in Input, requested []string, deps Deps) []string {
	if !in.HaveScriptEntryPoints || !in.Workaround548392 {
		return requested
	}

	if len(requested) == 0 {
		warnNarrowed(deps, requested, CurrentPythonVersion)
		return []string{CurrentPythonVersion}
	}

	if len(in.ForceXSPythonVersion) > 0 {
		return requested
	}

	if slices.Contains(requested, "all") {
		warnNarrowed(deps, requested, CurrentPythonVersion)
		return []string{CurrentPythonVersion}
	}

	var versions []string
	for _, v := range requested {
		if literalPyVersion.MatchString(v) && !slices.Contains(versions, v) {
			versions = append(versions, v)
		}
	}
	if len(versions) < 2 {
		return requested
	}

	def := ""
	if deps.PyVersions != nil {
		var err error
		if def, err = deps.PyVersions.DefaultVersion(ctx); err != nil {
			deps.Log.Warn().Err(err).Msg("cannot determine the default Python version")
		}
	}

	if def != "" && slices.Contains(versions, def) {
		warnNarrowed(deps, requested, CurrentPythonVersion)
		return []string{CurrentPythonVersion}
	}

	sort.Strings(versions)
	highest := versions[len(versions)-1]
	warnNarrowed(deps, requested, highest)
	return []string{highest}
}

func warnNarrowed(deps Deps, requested []string, to string) {
	deps.Log.Warn().
		Strs("requested", requested).
		Str("xs_python_version", to).
		Msgf("working around Debian #548392, changing XS-Python-Version to '%s'", to)
}

package debcfg

import "strings"

// Keys understood in stdeb.cfg sections
const (
	KeySource                = "Source"
	KeyPackage               = "Package"
	KeyDistribution          = "Distribution"
	KeyEpoch                 = "Epoch"
	KeyDebianVersion         = "Debian-Version"
	KeyForcedUpstreamVersion = "Forced-Upstream-Version"
	KeyUpstreamVersionPrefix = "Upstream-Version-Prefix"
	KeyUpstreamVersionSuffix = "Upstream-Version-Suffix"
	KeyMaintainer            = "Maintainer"
	KeyUploaders             = "Uploaders"
	KeyCopyrightFile         = "Copyright-File"
	KeyBuildDepends          = "Build-Depends"
	KeyBuildConflicts        = "Build-Conflicts"
	KeyPatchFile             = "Stdeb-Patch-File"
	KeyPatchLevel            = "Stdeb-Patch-Level"
	KeyDepends               = "Depends"
	KeySuggests              = "Suggests"
	KeyRecommends            = "Recommends"
	KeyXSPythonVersion       = "XS-Python-Version"
	KeyShlibdepsParams       = "dpkg-shlibdeps-params"
	KeyConflicts             = "Conflicts"
	KeyProvides              = "Provides"
	KeyReplaces              = "Replaces"
	KeyMIMEDesktopFiles      = "MIME-Desktop-Files"
	KeyMIMEFile              = "MIME-File"
	KeySharedMIMEFile        = "Shared-MIME-File"
	KeySetupEnvVars          = "Setup-Env-Vars"
	KeyUdevRules             = "Udev-Rules"
)

// AllKeys lists every known key in stdeb.cfg order
var AllKeys = []string{
	KeySource, KeyPackage, KeyDistribution, KeyEpoch, KeyDebianVersion,
	KeyForcedUpstreamVersion, KeyUpstreamVersionPrefix, KeyUpstreamVersionSuffix,
	KeyMaintainer, KeyUploaders, KeyCopyrightFile, KeyBuildDepends,
	KeyBuildConflicts, KeyPatchFile, KeyPatchLevel, KeyDepends, KeySuggests,
	KeyRecommends, KeyXSPythonVersion, KeyShlibdepsParams, KeyConflicts,
	KeyProvides, KeyReplaces, KeyMIMEDesktopFiles, KeyMIMEFile,
	KeySharedMIMEFile, KeySetupEnvVars, KeyUdevRules,
}

var knownKeys = func() map[string]string {
	m := make(map[string]string, len(AllKeys))
	for _, k := range AllKeys {
		m[normalizeKey(k)] = k
	}
	return m
}()

// CanonicalKey returns the documented spelling of key and whether it is known
func CanonicalKey(key string) (string, bool) {
	k, ok := knownKeys[normalizeKey(key)]
	return k, ok
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

package debinfo

import (
	"strings"

	"pault.ag/go/debian/dependency"
	debversion "pault.ag/go/debian/version"

	"github.com/quantmind-br/pydeb/internal/core"
	"github.com/quantmind-br/pydeb/internal/security"
)

// validate checks every value that ends up in a generated control file
func validate(info *Info) error {
	fail := func(key string, err error) error {
		return &core.ConfigError{Section: info.ModuleName, Key: key, Msg: err.Error()}
	}

	if err := security.ValidatePackageName(info.Source); err != nil {
		return fail("Source", err)
	}
	if err := security.ValidatePackageName(info.Package); err != nil {
		return fail("Package", err)
	}
	if err := security.ValidateMaintainer(info.Maintainer); err != nil {
		return fail("Maintainer", err)
	}
	for _, u := range info.Uploaders {
		if err := security.ValidateMaintainer(u); err != nil {
			return fail("Uploaders", err)
		}
	}

	single := map[string]string{
		"Distribution":          info.Distribution,
		"Description":           info.Description,
		"Epoch":                 info.Epoch,
		"Debian-Version":        info.PackagingVersion,
		"Copyright-File":        info.CopyrightFile,
		"MIME-File":             info.MIMEFile,
		"Shared-MIME-File":      info.SharedMIMEFile,
		"Udev-Rules":            info.UdevRules,
		"Stdeb-Patch-File":      info.PatchFile,
		"dpkg-shlibdeps-params": info.ShlibdepsParams,
		"XS-Python-Version":     strings.Join(info.XSPythonVersion, ", "),
	}
	for key, value := range single {
		if err := security.ValidateFieldValue(key, value); err != nil {
			return fail(key, err)
		}
	}
	for _, line := range info.InstallLines {
		if err := security.ValidateFieldValue("MIME-Desktop-Files", line); err != nil {
			return fail("MIME-Desktop-Files", err)
		}
	}
	if strings.TrimSpace(info.Distribution) == "" {
		return &core.ConfigError{Section: info.ModuleName, Key: "Distribution", Msg: "distribution cannot be empty"}
	}

	if _, err := debversion.Parse(info.FullVersion); err != nil {
		return fail("Version", err)
	}

	relations := []struct {
		field  string
		values []string
	}{
		{"Build-Depends", info.BuildDepends},
		{"Build-Conflicts", info.BuildConflicts},
		{"Depends", info.Depends},
		{"Recommends", info.Recommends},
		{"Suggests", info.Suggests},
		{"Conflicts", info.Conflicts},
		{"Provides", info.Provides},
		{"Replaces", info.Replaces},
	}
	for _, rel := range relations {
		if err := validateRelations(rel.field, rel.values); err != nil {
			return fail(rel.field, err)
		}
	}

	for _, env := range info.SetupEnvVars {
		if err := security.ValidateEnvAssignment(env); err != nil {
			return fail("Setup-Env-Vars", err)
		}
	}

	return nil
}

// validateRelations parses a relation field, skipping ${...} substitution variables
func validateRelations(field string, values []string) error {
	var plain []string
	for _, v := range values {
		if err := security.ValidateFieldValue(field, v); err != nil {
			return err
		}
		if strings.HasPrefix(v, "${") {
			continue
		}
		plain = append(plain, v)
	}
	if len(plain) == 0 {
		return nil
	}

	_, err := dependency.Parse(strings.Join(plain, ", "))
	return err
}

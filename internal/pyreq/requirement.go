// Package pyreq parses setuptools requirement lists and Python distribution
// metadata file names.
package pyreq

import (
	"fmt"
	"regexp"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
)

// Spec is a single version constraint such as ">=1.2"
type Spec struct {
	Op      string
	Version string
}

func (s Spec) String() string {
	return s.Op + s.Version
}

// Requirement is one parsed requirement line
type Requirement struct {
	// Project is the requirement name made safe the way setuptools does
	Project string
	Extras  []string
	Specs   []Spec
	Marker  string
}

// Key is the lowercase project name used for matching
func (r Requirement) Key() string {
	return strings.ToLower(r.Project)
}

func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Project)
	if len(r.Extras) > 0 {
		b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	specs := make([]string, 0, len(r.Specs))
	for _, s := range r.Specs {
		specs = append(specs, s.String())
	}
	b.WriteString(strings.Join(specs, ","))
	if r.Marker != "" {
		b.WriteString("; " + r.Marker)
	}
	return b.String()
}

// Contains reports whether version satisfies every constraint of r.
// Pre-releases are allowed, as setuptools does when checking a distribution.
func (r Requirement) Contains(version string) (bool, error) {
	if len(r.Specs) == 0 {
		return true, nil
	}

	v, err := pep440.Parse(version)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", version, err)
	}

	parts := make([]string, 0, len(r.Specs))
	for _, s := range r.Specs {
		parts = append(parts, s.String())
	}
	specs, err := pep440.NewSpecifiers(strings.Join(parts, ","), pep440.WithPreRelease(true))
	if err != nil {
		return false, fmt.Errorf("invalid specifier %q: %w", strings.Join(parts, ","), err)
	}

	return specs.Check(v), nil
}

var (
	reqLineRegex = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[([^\]]*)\])?\s*(.*)$`)
	specRegex    = regexp.MustCompile(`^(~=|===|==|!=|<=|>=|<|>)\s*([A-Za-z0-9_.*+!-]+)$`)
	unsafeChars  = regexp.MustCompile(`[^A-Za-z0-9.]+`)
)

// SafeName converts an arbitrary project name to its setuptools-safe form
func SafeName(name string) string {
	return unsafeChars.ReplaceAllString(name, "-")
}

// SafeVersion converts a version with spaces or odd characters to a dotted form
func SafeVersion(version string) string {
	if _, err := pep440.Parse(version); err == nil {
		return version
	}
	version = strings.ReplaceAll(version, " ", ".")
	return unsafeChars.ReplaceAllString(version, "-")
}

// ParseRequirement parses a single requirement such as
// "Foo_Bar[extra] >=1.0,<2 ; python_version<'3'" or "foo (>=1.0)".
func ParseRequirement(line string) (Requirement, error) {
	line = strings.TrimSpace(line)
	m := reqLineRegex.FindStringSubmatch(line)
	if m == nil {
		return Requirement{}, fmt.Errorf("invalid requirement: %q", line)
	}

	req := Requirement{Project: SafeName(m[1])}

	if m[2] != "" {
		for _, e := range strings.Split(m[2], ",") {
			if e = strings.TrimSpace(e); e != "" {
				req.Extras = append(req.Extras, e)
			}
		}
	}

	rest := m[3]
	if i := strings.Index(rest, ";"); i >= 0 {
		req.Marker = strings.TrimSpace(rest[i+1:])
		rest = rest[:i]
	}
	rest = strings.TrimSpace(rest)

	// Direct references ("name @ url") carry no version constraint
	if strings.HasPrefix(rest, "@") {
		return req, nil
	}

	if strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")") {
		rest = strings.TrimSpace(rest[1 : len(rest)-1])
	}

	if rest == "" {
		return req, nil
	}

	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sm := specRegex.FindStringSubmatch(part)
		if sm == nil {
			return Requirement{}, fmt.Errorf("invalid version constraint %q in requirement %q", part, line)
		}
		req.Specs = append(req.Specs, Spec{Op: sm[1], Version: sm[2]})
	}

	return req, nil
}

// Section is a named block of a requires.txt style file
type Section struct {
	Name  string
	Lines []string
}

// SplitSections splits requirement text into "[name]" sections. Lines
// before the first header belong to the unnamed section. Comments and
// blank lines are dropped and backslash continuations are joined.
func SplitSections(text string) []Section {
	var (
		sections []Section
		current  = Section{}
		pending  string
	)

	for _, raw := range strings.Split(text, "\n") {
		line := raw
		if i := strings.Index(line, " #"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasSuffix(line, "\\") {
			pending += strings.TrimSpace(strings.TrimSuffix(line, "\\")) + " "
			continue
		}
		if pending != "" {
			line = strings.TrimSpace(pending + line)
			pending = ""
		}

		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if current.Name != "" || len(current.Lines) > 0 {
				sections = append(sections, current)
			}
			current = Section{Name: strings.TrimSpace(line[1 : len(line)-1])}
			continue
		}

		current.Lines = append(current.Lines, line)
	}

	if pending != "" {
		current.Lines = append(current.Lines, strings.TrimSpace(pending))
	}
	if current.Name != "" || len(current.Lines) > 0 {
		sections = append(sections, current)
	}

	return sections
}

// ParseRequirements parses the unconditional requirements of text. Requirements
// listed under a named extra (or a conditional "[:marker]" section) are skipped.
func ParseRequirements(text string) ([]Requirement, error) {
	var reqs []Requirement
	for _, sec := range SplitSections(text) {
		if sec.Name != "" {
			continue
		}
		for _, line := range sec.Lines {
			req, err := ParseRequirement(line)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, req)
		}
	}
	return reqs, nil
}

// ParseRequirementList parses a list of requirement strings (as given on the
// command line or in setup metadata), joined as one requires.txt text.
func ParseRequirementList(lines []string) ([]Requirement, error) {
	return ParseRequirements(strings.Join(lines, "\n"))
}

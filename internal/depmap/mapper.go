// Package depmap maps Python requirements onto the Debian packages that ship
// a matching distribution, using the system package-file index.
package depmap

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quantmind-br/pydeb/internal/helpers"
	"github.com/quantmind-br/pydeb/internal/pyreq"
)

// debianOps translates PEP 440 comparison operators to Debian relations.
// "!=" has no Debian equivalent and is dropped.
var debianOps = map[string]string{
	"<":   "<<",
	">":   ">>",
	"==":  "=",
	"<=":  "<=",
	">=":  ">=",
	"~=":  ">=",
	"===": "=",
}

var ownerRegex = regexp.MustCompile(`^([^:]*):`)

// Mapper converts requirement lists to Debian dependency alternatives
type Mapper struct {
	index Index
	log   *zerolog.Logger
}

// NewMapper creates a Mapper backed by index
func NewMapper(index Index, log *zerolog.Logger) *Mapper {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Mapper{index: index, log: log}
}

// MapText parses requires.txt style text and maps the unconditional requirements
func (m *Mapper) MapText(ctx context.Context, text string) ([]string, error) {
	reqs, err := pyreq.ParseRequirements(text)
	if err != nil {
		return nil, err
	}
	return m.Map(ctx, reqs)
}

// Map returns one Debian dependency string per requirement, in order.
// An empty requirement list never touches the index.
func (m *Mapper) Map(ctx context.Context, reqs []pyreq.Requirement) ([]string, error) {
	if len(reqs) == 0 {
		return []string{}, nil
	}

	pattern := metadataPattern(reqs)
	lines, err := m.index.Search(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search package index: %w", err)
	}

	grouped, err := m.group(lines, pattern)
	if err != nil {
		return nil, err
	}

	depends := make([]string, 0, len(reqs))
	for _, req := range reqs {
		debs := m.candidates(req, grouped[req.Key()])
		depends = append(depends, alternatives(req, debs))
	}

	return depends, nil
}

// metadataPattern builds one case-insensitive regex matching the metadata
// directory of every requested project
func metadataPattern(reqs []pyreq.Requirement) string {
	seen := make(map[string]bool, len(reqs))
	names := make([]string, 0, len(reqs))
	for _, req := range reqs {
		name := regexp.QuoteMeta(req.Project)
		name = strings.NewReplacer("-", "[-_]", "_", "[-_]").Replace(name)
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	return fmt.Sprintf(`(/(%s)(?:-[^/]+)?(?:-py[0-9]\.[0-9.]+)?\.(?:egg|dist)-info)`, strings.Join(names, "|"))
}

// group parses index output into project key -> distribution -> set of debs
func (m *Mapper) group(lines []string, pattern string) (map[string]map[pyreq.Distribution]map[string]bool, error) {
	pathRegex, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata pattern: %w", err)
	}

	grouped := make(map[string]map[pyreq.Distribution]map[string]bool)
	for _, line := range lines {
		pm := pathRegex.FindStringSubmatch(line)
		om := ownerRegex.FindStringSubmatch(line)
		if pm == nil || om == nil {
			return nil, fmt.Errorf("unexpected package index output line: %q", line)
		}
		metaPath, deb := pm[1], strings.TrimSpace(om[1])

		dist, err := pyreq.DistributionFromFilename(metaPath)
		if err != nil {
			m.log.Warn().
				Err(err).
				Str("path", metaPath).
				Str("package", deb).
				Msg("cannot parse distribution metadata name, skipping")
			continue
		}

		byDist, ok := grouped[dist.Key()]
		if !ok {
			byDist = make(map[pyreq.Distribution]map[string]bool)
			grouped[dist.Key()] = byDist
		}
		if byDist[dist] == nil {
			byDist[dist] = make(map[string]bool)
		}
		byDist[dist][deb] = true
	}

	return grouped, nil
}

// candidates returns the sorted Debian packages whose distribution satisfies req,
// or the python-<name> guess when none does
func (m *Mapper) candidates(req pyreq.Requirement, dists map[pyreq.Distribution]map[string]bool) []string {
	good := make(map[string]bool)
	for dist, debs := range dists {
		if dist.Version == "" && len(req.Specs) > 0 {
			m.log.Info().
				Strs("packages", setKeys(debs)).
				Str("requirement", req.String()).
				Msg("package metadata has no version to check, ignoring")
			continue
		}
		ok, err := req.Contains(dist.Version)
		if err != nil {
			m.log.Warn().
				Err(err).
				Str("requirement", req.String()).
				Str("distribution", dist.String()).
				Msg("cannot compare distribution version, ignoring")
			continue
		}
		if !ok {
			m.log.Info().
				Strs("packages", setKeys(debs)).
				Str("requirement", req.String()).
				Str("version", dist.Version).
				Msg("package does not satisfy version requirement, ignoring")
			continue
		}
		for deb := range debs {
			good[deb] = true
		}
	}

	debs := setKeys(good)
	switch len(debs) {
	case 0:
		guess := helpers.PythonPackageName(req.Project)
		m.log.Warn().
			Str("requirement", req.String()).
			Str("guess", guess).
			Msg("no Debian package provides the required Python distribution, using a guessed name")
		debs = []string{guess}
	case 1:
		m.log.Info().
			Str("requirement", req.String()).
			Str("package", debs[0]).
			Msg("found Debian package for requirement")
	default:
		m.log.Warn().
			Str("requirement", req.String()).
			Strs("packages", debs).
			Msg("multiple Debian packages provide the required Python distribution, listing all as alternatives")
	}

	return debs
}

// alternatives formats the "|" joined relation for one requirement
func alternatives(req pyreq.Requirement, debs []string) string {
	var alts []string
	for _, deb := range debs {
		added := false
		for _, spec := range req.Specs {
			op, version, ok := debianRelation(spec)
			if !ok {
				continue
			}
			alts = append(alts, fmt.Sprintf("%s (%s %s)", deb, op, version))
			added = true
		}
		if !added {
			alts = append(alts, deb)
		}
	}
	return strings.Join(alts, " | ")
}

func debianRelation(spec pyreq.Spec) (string, string, bool) {
	op, ok := debianOps[spec.Op]
	if !ok {
		return "", "", false
	}

	version := spec.Version
	if strings.HasSuffix(version, ".*") {
		// ==1.2.* means "1.2 series", the closest Debian relation is a lower bound
		if spec.Op != "==" {
			return "", "", false
		}
		op, version = ">=", strings.TrimSuffix(version, ".*")
	}

	return op, helpers.DebianizeVersion(version), true
}

func setKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package debcfg resolves the per-package Debian overrides read from
// stdeb.cfg style INI files.
//
// Values are layered as built-in defaults < [DEFAULT] section < section named
// after the module < explicit caller overrides.
package debcfg

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/quantmind-br/pydeb/internal/core"
	"github.com/quantmind-br/pydeb/internal/helpers"
	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

// DefaultSection is the section consulted when the module has none of its own
const DefaultSection = "DEFAULT"

// Values maps normalized (lowercase) keys to raw values
type Values map[string]string

// Set stores value under the normalized form of key
func (v Values) Set(key, value string) {
	v[normalizeKey(key)] = value
}

// Get returns the raw value of key
func (v Values) Get(key string) (string, bool) {
	val, ok := v[normalizeKey(key)]
	return val, ok
}

var loadOptions = ini.LoadOptions{
	InsensitiveKeys:            true,
	AllowPythonMultilineValues: true,
	IgnoreInlineComment:        true,
	PreserveSurroundedQuote:    true,
	SkipUnrecognizableLines:    false,
}

// Defaults returns the built-in values every key starts from
func Defaults(module, distribution, maintainer string) Values {
	v := make(Values, len(AllKeys))
	for _, k := range AllKeys {
		v.Set(k, "")
	}
	v.Set(KeySource, helpers.DebianizeSourceName(module))
	v.Set(KeyPackage, helpers.PythonPackageName(module))
	v.Set(KeyDistribution, distribution)
	v.Set(KeyDebianVersion, "1")
	v.Set(KeyMaintainer, maintainer)
	return v
}

// Sources holds the parsed configuration files, later files overriding earlier ones
type Sources struct {
	file  *ini.File
	paths []string
}

// Load reads and parses the given configuration files
func Load(fs afero.Fs, paths ...string) (*Sources, error) {
	data := make([]interface{}, 0, len(paths))
	for _, p := range paths {
		b, err := afero.ReadFile(fs, p)
		if err != nil {
			if errors.Is(err, afero.ErrFileNotFound) || isNotExist(fs, p) {
				return nil, &core.ValidationError{What: "a configuration file", Path: p}
			}
			return nil, fmt.Errorf("read config file %s: %w", p, err)
		}
		data = append(data, b)
	}

	src, err := parse(data)
	if err != nil {
		return nil, err
	}
	src.paths = append([]string(nil), paths...)
	return src, nil
}

// Parse parses configuration file contents given in override order
func Parse(contents ...[]byte) (*Sources, error) {
	data := make([]interface{}, 0, len(contents))
	for _, c := range contents {
		data = append(data, c)
	}
	return parse(data)
}

func parse(data []interface{}) (*Sources, error) {
	if len(data) == 0 {
		return &Sources{file: ini.Empty(loadOptions)}, nil
	}

	f, err := ini.LoadSources(loadOptions, data[0], data[1:]...)
	if err != nil {
		return nil, &core.ConfigError{Msg: fmt.Sprintf("cannot parse configuration: %v", err)}
	}
	return &Sources{file: f}, nil
}

// Paths returns the files the sources were loaded from
func (s *Sources) Paths() []string {
	return s.paths
}

// Section returns the keys declared directly in the named section.
// core.ErrNoSection is returned when the section does not exist.
func (s *Sources) Section(name string) (Values, error) {
	if s == nil || s.file == nil {
		return nil, fmt.Errorf("section %q: %w", name, core.ErrNoSection)
	}

	sec, err := s.file.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("section %q: %w", name, core.ErrNoSection)
	}

	// KeysHash only holds the section's own keys; GetKey would also consult
	// dotted parent sections, which is wrong for module names like "zope.interface".
	values := make(Values)
	for k, v := range sec.KeysHash() {
		values.Set(k, v)
	}
	return values, nil
}

// Merge layers values from lowest to highest precedence into a new map.
// Empty layers are skipped; the inputs are never modified.
func Merge(layers ...Values) Values {
	merged := make(Values)
	for _, layer := range layers {
		for k, v := range layer {
			merged[normalizeKey(k)] = v
		}
	}
	return merged
}

// Resolved is the final key/value set for one module
type Resolved struct {
	module string
	values Values
}

// Resolve merges defaults, the DEFAULT section, the module section and overrides.
// A module without its own section falls back to DEFAULT alone.
func Resolve(src *Sources, module string, defaults, overrides Values) (*Resolved, error) {
	layers := []Values{defaults}

	if src != nil {
		if def, err := src.Section(DefaultSection); err == nil {
			layers = append(layers, def)
		}

		if module != DefaultSection {
			sec, err := src.Section(module)
			switch {
			case err == nil:
				layers = append(layers, sec)
			case errors.Is(err, core.ErrNoSection):
				// fall back to DEFAULT
			default:
				return nil, err
			}
		}
	}

	layers = append(layers, overrides)

	return &Resolved{module: module, values: Merge(layers...)}, nil
}

// NewResolved wraps an already merged value set
func NewResolved(module string, values Values) *Resolved {
	return &Resolved{module: module, values: Merge(values)}
}

// Module returns the section name the values were resolved for
func (r *Resolved) Module() string {
	return r.module
}

// Raw returns the unparsed value of key
func (r *Resolved) Raw(key string) string {
	v, _ := r.values.Get(key)
	return v
}

// List returns key as a comma separated list
func (r *Resolved) List(key string) []string {
	return SplitValues(r.Raw(key))
}

// Scalar returns the single value of key, "" when unset. More than one
// value is a configuration error.
func (r *Resolved) Scalar(key string) (string, error) {
	vals := r.List(key)
	switch len(vals) {
	case 0:
		return "", nil
	case 1:
		return vals[0], nil
	default:
		name, _ := CanonicalKey(key)
		if name == "" {
			name = key
		}
		return "", &core.ConfigError{
			Section: r.module,
			Key:     name,
			Msg:     fmt.Sprintf("expected a single value, got %d: %s", len(vals), strings.Join(vals, ", ")),
		}
	}
}

// Unknown returns the sorted keys that are not part of the stdeb.cfg vocabulary
func (r *Resolved) Unknown() []string {
	var unknown []string
	for k := range r.values {
		if _, ok := CanonicalKey(k); !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// SplitValues splits a raw value on commas. Each element loses a trailing
// "#" comment and surrounding whitespace; empty elements are dropped.
func SplitValues(raw string) []string {
	var vals []string
	for _, part := range strings.Split(raw, ",") {
		if i := strings.Index(part, "#"); i >= 0 {
			part = part[:i]
		}
		part = strings.TrimSpace(part)
		if part != "" {
			vals = append(vals, part)
		}
	}
	return vals
}

func isNotExist(fs afero.Fs, path string) bool {
	exists, err := afero.Exists(fs, path)
	return err == nil && !exists
}

package pyreq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Requirement
		wantErr bool
	}{
		{
			name:  "bare name",
			input: "simplejson",
			want:  Requirement{Project: "simplejson"},
		},
		{
			name:  "single constraint",
			input: "foo>=1.2",
			want:  Requirement{Project: "foo", Specs: []Spec{{">=", "1.2"}}},
		},
		{
			name:  "spaces and multiple constraints",
			input: "  Foo_Bar >= 1.0 , < 2.0 ",
			want:  Requirement{Project: "Foo-Bar", Specs: []Spec{{">=", "1.0"}, {"<", "2.0"}}},
		},
		{
			name:  "parenthesized constraint",
			input: "foo (==0.5)",
			want:  Requirement{Project: "foo", Specs: []Spec{{"==", "0.5"}}},
		},
		{
			name:  "extras and marker",
			input: "requests[security,socks]>=2.0; python_version < '3'",
			want: Requirement{
				Project: "requests",
				Extras:  []string{"security", "socks"},
				Specs:   []Spec{{">=", "2.0"}},
				Marker:  "python_version < '3'",
			},
		},
		{
			name:  "direct reference",
			input: "foo @ https://example.com/foo.tar.gz",
			want:  Requirement{Project: "foo"},
		},
		{
			name:    "garbage constraint",
			input:   "foo >> 1",
			wantErr: true,
		},
		{
			name:    "no name",
			input:   ">=1.0",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequirement(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequirementKeyAndString(t *testing.T) {
	req, err := ParseRequirement("Foo_Bar[x]>=1.0,<2; os_name=='posix'")
	require.NoError(t, err)
	assert.Equal(t, "foo-bar", req.Key())
	assert.Equal(t, "Foo-Bar[x]>=1.0,<2; os_name=='posix'", req.String())
}

func TestSplitSections(t *testing.T) {
	text := `
# leading comment
foo>=1.0
bar  # trailing comment

[test]
pytest

[:python_version < "3"]
futures
`
	sections := SplitSections(text)
	require.Len(t, sections, 3)
	assert.Equal(t, Section{Lines: []string{"foo>=1.0", "bar"}}, sections[0])
	assert.Equal(t, Section{Name: "test", Lines: []string{"pytest"}}, sections[1])
	assert.Equal(t, `:python_version < "3"`, sections[2].Name)
}

func TestSplitSections_Continuation(t *testing.T) {
	sections := SplitSections("foo >= 1.0, \\\n  < 2.0\n")
	require.Len(t, sections, 1)
	assert.Equal(t, []string{"foo >= 1.0, < 2.0"}, sections[0].Lines)
}

func TestParseRequirements_SkipsExtras(t *testing.T) {
	reqs, err := ParseRequirements("foo>=1.0\n[docs]\nsphinx\n")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "foo", reqs[0].Project)

	reqs, err = ParseRequirements("[docs]\nsphinx\n")
	require.NoError(t, err)
	assert.Empty(t, reqs)

	reqs, err = ParseRequirementList(nil)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestRequirementContains(t *testing.T) {
	tests := []struct {
		req     string
		version string
		want    bool
	}{
		{"foo", "0.1", true},
		{"foo>=1.2", "1.2", true},
		{"foo>=1.2", "1.1", false},
		{"foo>=1.0,<2", "1.5", true},
		{"foo>=1.0,<2", "2.0", false},
		{"foo==1.0", "1.0", true},
		{"foo!=1.0", "1.0", false},
		{"foo~=1.4", "1.9", true},
		{"foo~=1.4", "2.0", false},
		{"foo>=1.0", "1.1.dev3", true},
		{"foo<2", "2.0a1", true},
	}

	for _, tt := range tests {
		t.Run(tt.req+" "+tt.version, func(t *testing.T) {
			req, err := ParseRequirement(tt.req)
			require.NoError(t, err)

			got, err := req.Contains(tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequirementContains_InvalidVersion(t *testing.T) {
	req, err := ParseRequirement("foo>=1.0")
	require.NoError(t, err)

	_, err = req.Contains("not a version")
	assert.Error(t, err)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Foo-Bar", SafeName("Foo_Bar"))
	assert.Equal(t, "zope.interface", SafeName("zope.interface"))
	assert.Equal(t, "a-b", SafeName("a _ b"))
}

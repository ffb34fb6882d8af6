package desktop

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const viewerDesktop = `# generated
[Desktop Entry]
Type=Application
Name=Foo Viewer
Exec=foo-viewer %f
Icon=foo
Categories=Graphics;Viewer;
MimeType=application/x-foo;image/x-foo;
Terminal=false

[Desktop Action New]
Name=Should be ignored
`

func TestParse(t *testing.T) {
	de, err := Parse(strings.NewReader(viewerDesktop))
	require.NoError(t, err)

	assert.Equal(t, "Application", de.Type)
	assert.Equal(t, "Foo Viewer", de.Name)
	assert.Equal(t, "foo-viewer %f", de.Exec)
	assert.Equal(t, "foo", de.Icon)
	assert.Equal(t, []string{"Graphics", "Viewer"}, de.Categories)
	assert.Equal(t, []string{"application/x-foo", "image/x-foo"}, de.MimeTypes)
	assert.False(t, de.Terminal)
}

func TestParseFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/foo.desktop", []byte(viewerDesktop), 0644))

	de, err := ParseFile(fs, "/src/foo.desktop")
	require.NoError(t, err)
	assert.Equal(t, "Foo Viewer", de.Name)

	_, err = ParseFile(fs, "/src/missing.desktop")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr bool
	}{
		{"complete", Entry{Type: "Application", Name: "x", Exec: "x"}, false},
		{"link without exec", Entry{Type: "Link", Name: "x"}, false},
		{"no type", Entry{Name: "x", Exec: "x"}, true},
		{"no name", Entry{Type: "Application", Exec: "x"}, true},
		{"application without exec", Entry{Type: "Application", Name: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.entry)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

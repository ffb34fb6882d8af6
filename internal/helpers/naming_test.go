package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var namingSamples = []string{
	"",
	"My_Pkg",
	"zope.interface",
	"Foo.Bar_Baz",
	"1.0.dev3",
	"1.0.DEV3",
	"2.0_rc1",
	"1.0~dev3",
	"0.9.devdev",
	"UPPER",
	"a..dev",
	"already-debian",
}

func TestDebianizeBinaryName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"My_Pkg", "my-pkg"},
		{"zope.interface", "zope.interface"},
		{"Foo.Bar_Baz", "foo.bar-baz"},
		{"simple", "simple"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, DebianizeBinaryName(tt.input))
		})
	}
}

func TestDebianizeSourceName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"My_Pkg", "my-pkg"},
		{"zope.interface", "zope-interface"},
		{"Foo.Bar_Baz", "foo-bar-baz"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, DebianizeSourceName(tt.input))
		})
	}
}

func TestDebianizeVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1.0", "1.0"},
		{"1.0.dev3", "1.0~dev3"},
		{"1.0.DEV3", "1.0~dev3"},
		{"2.0_rc1", "2.0-rc1"},
		{"1.0~dev3", "1.0~dev3"},
		{"0.9b1", "0.9b1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, DebianizeVersion(tt.input))
		})
	}
}

func TestNaming_Idempotent(t *testing.T) {
	funcs := map[string]func(string) string{
		"binary":  DebianizeBinaryName,
		"source":  DebianizeSourceName,
		"version": DebianizeVersion,
	}

	for name, fn := range funcs {
		for _, in := range namingSamples {
			once := fn(in)
			assert.Equal(t, once, fn(once), "%s(%q) is not idempotent", name, in)
			assert.Equal(t, strings.ToLower(once), once, "%s(%q) is not lowercase", name, in)
		}
	}
}

func TestPythonPackageName(t *testing.T) {
	assert.Equal(t, "python-my-pkg", PythonPackageName("My_Pkg"))
	assert.Equal(t, "python-zope.interface", PythonPackageName("zope.interface"))
}

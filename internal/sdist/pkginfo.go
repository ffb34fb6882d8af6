package sdist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/textproto"
)

// PkgInfo holds the fields of a PKG-INFO file pydeb uses
type PkgInfo struct {
	MetadataVersion string
	Name            string
	Version         string
	Summary         string
	Description     string
	Author          string
	AuthorEmail     string
	Maintainer      string
	MaintainerEmail string
	HomePage        string
}

// ReadPkgInfo parses PKG-INFO. The long description comes from the
// Description header or, for newer metadata versions, the message body.
func ReadPkgInfo(r io.Reader) (*PkgInfo, error) {
	br := bufio.NewReader(r)
	h, err := textproto.ReadHeader(br)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse PKG-INFO: %w", err)
	}

	info := &PkgInfo{
		MetadataVersion: field(h, "Metadata-Version"),
		Name:            field(h, "Name"),
		Version:         field(h, "Version"),
		Summary:         field(h, "Summary"),
		Description:     description(h),
		Author:          field(h, "Author"),
		AuthorEmail:     field(h, "Author-Email"),
		Maintainer:      field(h, "Maintainer"),
		MaintainerEmail: field(h, "Maintainer-Email"),
		HomePage:        field(h, "Home-Page"),
	}

	if info.Description == "UNKNOWN" {
		info.Description = ""
	}
	if info.Description == "" {
		body, err := io.ReadAll(br)
		if err != nil {
			return nil, fmt.Errorf("failed to read PKG-INFO body: %w", err)
		}
		if b := strings.TrimSpace(string(body)); b != "" {
			info.Description = b
		}
	}

	if info.Name == "" {
		return nil, fmt.Errorf("PKG-INFO has no Name field")
	}
	if info.Version == "" {
		return nil, fmt.Errorf("PKG-INFO has no Version field")
	}
	return info, nil
}

func field(h textproto.Header, key string) string {
	v := strings.TrimSpace(h.Get(key))
	if v == "UNKNOWN" {
		return ""
	}
	return v
}

// description reads the Description header from its raw form, since the
// parsed value has its continuation lines joined with spaces
func description(h textproto.Header) string {
	raw, err := h.Raw("Description")
	if err != nil || raw == nil {
		return ""
	}
	_, v, _ := strings.Cut(string(raw), ":")
	return unfoldDescription(strings.TrimRight(strings.TrimLeft(v, " \t"), "\r\n"))
}

// unfoldDescription restores the line breaks of a folded Description
// header. setuptools continues the value with "        |" prefixed lines.
func unfoldDescription(v string) string {
	v = strings.ReplaceAll(v, "\r\n", "\n")
	if !strings.Contains(v, "\n") {
		return strings.TrimSpace(v)
	}

	lines := strings.Split(v, "\n")
	for i := 1; i < len(lines); i++ {
		l := lines[i]
		switch {
		case strings.HasPrefix(l, "        |"):
			l = l[len("        |"):]
		case strings.HasPrefix(l, "        "):
			l = l[len("        "):]
		default:
			l = strings.TrimLeft(l, " \t|")
		}
		lines[i] = l
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Contact returns the person that should become the Debian maintainer,
// "Name <email>", preferring the Maintainer fields over the Author fields
func (p *PkgInfo) Contact() string {
	name, email := p.Maintainer, p.MaintainerEmail
	if name == "" && email == "" {
		name, email = p.Author, p.AuthorEmail
	}
	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s <%s>", name, email)
	case email != "":
		return email
	default:
		return name
	}
}

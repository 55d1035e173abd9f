// Package tag extracts attributes from raw <img> tag strings.
//
// Nothing here parses HTML. Each function runs one regular expression over
// a single tag, first match wins, and malformed markup is tolerated exactly
// as far as the expressions tolerate it. Attribute values must be
// double-quoted and non-empty to be seen.
package tag

import (
	"errors"
	"regexp"
	"strings"
)

// ErrMissingSrc is returned when a tag has no non-empty src attribute.
var ErrMissingSrc = errors.New("img tag has no src attribute")

var (
	// imgPattern finds candidate tags in a document. It requires a
	// double-quoted src somewhere after "<img" on the same line.
	imgPattern = regexp.MustCompile(`<img.*?src="(.*?)"[^>]*>`)

	srcPattern   = regexp.MustCompile(`src\s*=\s*"(.+?)"`)
	classPattern = regexp.MustCompile(`class\s*=\s*"(.+?)"`)
	altPattern   = regexp.MustCompile(`alt\s*=\s*"(.+?)"`)
	titlePattern = regexp.MustCompile(`title\s*=\s*"(.+?)"`)

	// fileNamePattern strips image extensions, slashes and hyphens from a
	// file name. The dot before each extension matches any character.
	fileNamePattern = regexp.MustCompile(`.jpg|.png|.gif|.bmp|.svg|/|-`)
)

// Metadata is the derived view of one tag.
type Metadata struct {
	Src     string   `json:"src"`
	Classes []string `json:"classes"`
	// Text is nil when the tag yields no accessibility text.
	Text *string `json:"text,omitempty"`
}

// FindAll returns every <img> tag in html in document order.
func FindAll(html string) []string {
	return imgPattern.FindAllString(html, -1)
}

// Inspect extracts all metadata from tag.
func Inspect(tag string, autoAlt bool) (Metadata, error) {
	src, err := ExtractSrc(tag)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		Src:     src,
		Classes: ExtractClassList(tag),
		Text:    ExtractAccessibilityText(tag, autoAlt),
	}, nil
}

// ExtractSrc returns the value of the first src="..." in tag. Note that
// data-src="..." also counts.
func ExtractSrc(tag string) (string, error) {
	m := srcPattern.FindStringSubmatch(tag)
	if m == nil {
		return "", ErrMissingSrc
	}
	return m[1], nil
}

// ExtractClassList returns the whitespace-separated entries of the first
// class="..." in tag, or an empty slice.
func ExtractClassList(tag string) []string {
	m := classPattern.FindStringSubmatch(tag)
	if m == nil {
		return []string{}
	}
	return strings.Fields(m[1])
}

// ExtractAccessibilityText builds the text used by text exclusion rules.
//
// The alt value is the base text only when it contains the literal
// `title="`. Failing that, and with autoAlt set, the base text is the src
// file name stripped of extension, slashes and hyphens. A title value is
// appended after a single space. The result is nil when both parts are
// empty.
func ExtractAccessibilityText(tag string, autoAlt bool) *string {
	var b strings.Builder

	if alt := altPattern.FindStringSubmatch(tag); alt != nil && strings.Contains(alt[1], `title="`) {
		b.WriteString(alt[1])
	} else if autoAlt {
		b.WriteString(nameFromSrc(tag))
	}

	if title := titlePattern.FindStringSubmatch(tag); title != nil {
		b.WriteString(" ")
		b.WriteString(title[1])
	}

	if b.Len() == 0 {
		return nil
	}
	text := b.String()
	return &text
}

// nameFromSrc derives readable text from the last path segment of src.
func nameFromSrc(tag string) string {
	m := srcPattern.FindStringSubmatch(tag)
	if m == nil {
		return ""
	}
	name := m[1]
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i:]
	}
	return fileNamePattern.ReplaceAllString(name, "")
}

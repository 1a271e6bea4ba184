package render

import (
	_ "embed"
	"fmt"
	"html"
	"os"
	"strings"
)

// MessagePlaceholder marks where the phrase goes in a template.
const MessagePlaceholder = "##MESSAGE##"

//go:embed templates/default.html
var DefaultTemplate string

// Template substitutes the escaped message for every placeholder in tpl.
func Template(tpl, message string) string {
	return strings.ReplaceAll(tpl, MessagePlaceholder, html.EscapeString(message))
}

// LoadTemplate reads a template file, falling back to DefaultTemplate when
// path is empty.
func LoadTemplate(path string) (string, error) {
	if path == "" {
		return DefaultTemplate, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	if !strings.Contains(string(data), MessagePlaceholder) {
		return "", fmt.Errorf("template %s has no %s placeholder", path, MessagePlaceholder)
	}
	return string(data), nil
}

// withBase makes relative URLs in doc resolve against baseURL.
func withBase(doc, baseURL string) string {
	if baseURL == "" {
		return doc
	}
	tag := `<base href="` + html.EscapeString(baseURL) + `">`

	lower := strings.ToLower(doc)
	if i := strings.Index(lower, "<head"); i >= 0 {
		if end := strings.IndexByte(doc[i:], '>'); end >= 0 {
			at := i + end + 1
			return doc[:at] + tag + doc[at:]
		}
	}
	return tag + doc
}

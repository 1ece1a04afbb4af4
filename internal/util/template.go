// Package util holds small shared helpers kept internal to avoid committing
// to public API stability prematurely.
package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// RenderTemplate interpolates request context into a system prompt using Go's
// text/template syntax ({{.key}}). Prompts without template markers are
// returned unchanged on a fast path. Missing keys render as the empty string
// rather than failing the prompt.
func RenderTemplate(text string, context map[string]string) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("prompt").Option("missingkey=zero").Funcs(template.FuncMap{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"default": func(def, val string) string {
			if val == "" {
				return def
			}
			return val
		},
	}).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}

	data := make(map[string]string, len(context))
	for k, v := range context {
		data[k] = v
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return buf.String(), nil
}

// Package templates embeds the dashboard pages
package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var files embed.FS

// Load parses every page and the shared partials
func Load() (*template.Template, error) {
	return template.ParseFS(files, "*.html")
}

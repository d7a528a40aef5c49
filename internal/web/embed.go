package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed *.html
var files embed.FS

// FS provides access to embedded web files
var FS fs.FS = files

// PageTemplate parses the marketplace page template.
func PageTemplate() (*template.Template, error) {
	return template.ParseFS(FS, "page.html")
}

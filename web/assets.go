// Package web provides the embedded templates and static files of the
// datatracker web interface.
//
// During development, if web/ exists on the filesystem with a templates
// directory, it is used instead, so template edits show up without a
// rebuild.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed templates/*.html static/*
var assets embed.FS

// GetAssets returns the web filesystem rooted at the directory holding
// templates/ and static/.
//
// The devPath parameter specifies the directory to check for development
// mode. If empty, it defaults to "./web".
func GetAssets(devPath string) fs.FS {
	if devPath == "" {
		devPath = "./web"
	}

	if stat, err := os.Stat(filepath.Join(devPath, "templates")); err == nil && stat.IsDir() {
		return os.DirFS(devPath)
	}
	return assets
}

// GetAssetsWithBase checks for development mode relative to baseDir.
func GetAssetsWithBase(baseDir string) fs.FS {
	return GetAssets(filepath.Join(baseDir, "web"))
}

// Static returns the static/ subtree of fsys.
func Static(fsys fs.FS) (fs.FS, error) {
	return fs.Sub(fsys, "static")
}

// LayoutTemplate is the shared page layout. Every page template defines
// "title" and "content" blocks and is rendered through "base".
const LayoutTemplate = "base.html"

// Templates parses each page in templates/ together with the layout and
// returns them keyed by page name ("login" for templates/login.html).
func Templates(fsys fs.FS, funcs template.FuncMap) (map[string]*template.Template, error) {
	pages, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	layout := path.Join("templates", LayoutTemplate)
	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		if page == layout {
			continue
		}
		tmpl, err := template.New(LayoutTemplate).Funcs(funcs).ParseFS(fsys, layout, page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		out[strings.TrimSuffix(path.Base(page), ".html")] = tmpl
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}
	return out, nil
}

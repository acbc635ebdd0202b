package main

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"os"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const templateLayoutPath = "layout.tmpl"

type templateRenderer struct {
	source fs.FS
}

// newTemplateRenderer reads page templates from dir when it is set, so edits
// show up without a rebuild. Otherwise the templates embedded in the binary
// are used.
func newTemplateRenderer(dir string) *templateRenderer {
	if dir != "" {
		return &templateRenderer{source: os.DirFS(dir)}
	}
	embedded, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return &templateRenderer{source: embedded}
}

// templatesForRender parses the layout together with one page template.
func (r *templateRenderer) templatesForRender(contentTemplatePath string) (*template.Template, error) {
	templates, err := template.New("layout.tmpl").Funcs(template.FuncMap{
		"uploadURL": func(filename *string) string {
			if filename == nil {
				return ""
			}
			return "/uploads/" + url.PathEscape(*filename)
		},
		"deref": func(value *int) int {
			if value == nil {
				return 0
			}
			return *value
		},
	}).ParseFS(r.source, templateLayoutPath, contentTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return templates, nil
}

func (a *App) renderTemplate(c *gin.Context, status int, contentTemplatePath string, data any) {
	templates, err := a.templates.templatesForRender(contentTemplatePath)
	if err != nil {
		c.String(http.StatusInternalServerError, "template error: %v", err)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if executeErr := templates.ExecuteTemplate(c.Writer, "layout", data); executeErr != nil {
		a.log.Error("render template failed", "template", contentTemplatePath, "error", executeErr)
		if !c.Writer.Written() {
			c.String(http.StatusInternalServerError, "render failure")
		}
	}
}

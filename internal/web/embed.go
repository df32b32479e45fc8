package web

import (
	"embed"
	"html/template"
	"io/fs"
	"log/slog"

	"github.com/ivyforms/ivyforms/internal/model"
)

//go:embed static
var staticFiles embed.FS

//go:embed templates
var templateFiles embed.FS

// StaticFS is the embedded static file system with the "static/" prefix stripped.
var StaticFS fs.FS

// Templates is the compiled template set for the public pages.
var Templates *template.Template

var funcs = template.FuncMap{
	"inputType": inputType,
}

// inputType maps a field type to the HTML input type that renders it.
func inputType(t model.FieldType) string {
	switch t {
	case model.FieldEmail, model.FieldNumber, model.FieldDate, model.FieldURL:
		return string(t)
	case model.FieldPhone:
		return "tel"
	}
	return "text"
}

func init() {
	var err error

	StaticFS, err = fs.Sub(staticFiles, "static")
	if err != nil {
		slog.Error("web: failed to create static FS", "err", err)
		panic(err)
	}

	Templates, err = template.New("").Funcs(funcs).ParseFS(templateFiles,
		"templates/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		slog.Error("web: failed to parse templates", "err", err)
		panic(err)
	}
}

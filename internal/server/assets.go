package server

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

//go:embed static/dashboard.js templates/index.html
var files embed.FS

// assets are the page resources prepared once at startup.
type assets struct {
	script []byte
	index  *template.Template
}

func loadAssets() (*assets, error) {
	src, err := files.ReadFile("static/dashboard.js")
	if err != nil {
		return nil, fmt.Errorf("failed to read dashboard script: %w", err)
	}
	script, err := minify(string(src))
	if err != nil {
		return nil, err
	}
	index, err := template.ParseFS(files, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}
	return &assets{script: script, index: index}, nil
}

// minify strips whitespace, comments and long identifiers from a script.
func minify(src string) ([]byte, error) {
	result := api.Transform(src, api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            api.ES2020,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			msgs = append(msgs, m.Text)
		}
		return nil, fmt.Errorf("failed to minify dashboard script: %w", errors.New(strings.Join(msgs, "; ")))
	}
	return result.Code, nil
}

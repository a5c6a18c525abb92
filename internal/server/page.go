package server

import (
	"bytes"
	"html/template"
	"regexp"

	"github.com/woozymasta/civmap/assets"
	"github.com/woozymasta/civmap/internal/render"
	"github.com/woozymasta/civmap/internal/status"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

var pageTemplate = template.Must(template.New("index").Parse(assets.IndexTemplate))

// PageData feeds the index template.
type PageData struct {
	Status   status.Snapshot
	Document render.Document
	CSS      template.CSS
	JS       template.JS
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}

// RenderPage builds the self-contained, minified map page.
func RenderPage(snap status.Snapshot, doc render.Document) ([]byte, error) {
	m := newMinifier()

	cssMin, err := m.String("text/css", assets.Style)
	if err != nil {
		return nil, err
	}
	jsMin, err := m.String("text/javascript", assets.Script)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, PageData{
		Status:   snap,
		Document: doc,
		CSS:      template.CSS(cssMin),
		JS:       template.JS(jsMin),
	})
	if err != nil {
		return nil, err
	}

	return m.Bytes("text/html", buf.Bytes())
}

// MinifyFavicon shrinks the embedded SVG icon, falling back to the source.
func MinifyFavicon() []byte {
	out, err := newMinifier().Bytes("image/svg+xml", assets.Favicon)
	if err != nil {
		return assets.Favicon
	}
	return out
}

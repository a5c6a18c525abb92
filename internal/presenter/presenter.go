// Package presenter turns adapted records into popup content and circle radii.
package presenter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/woozymasta/civmap/internal/config"
	"github.com/woozymasta/civmap/internal/dataset"
)

// Presenter supplies the per-record presentation of a dataset.
type Presenter interface {
	// PopupText returns the HTML popup body, or "" for no popup.
	PopupText(rec dataset.AdaptedRecord) string
	// CircleRadius returns the circle radius in meters.
	CircleRadius(rec dataset.AdaptedRecord) float64
}

// Kind names of the built-in presenters.
const (
	KindHospitals      = "hospitals"
	KindEmergencyRooms = "emergency_rooms"
	KindTemplate       = "template"
)

type factory func(cfg config.PresenterConfig) (Presenter, error)

var builtins = map[string]factory{
	KindHospitals:      newHospitals,
	KindEmergencyRooms: newEmergencyRooms,
	KindTemplate:       newTemplate,
}

// Kinds lists the registered presenter kinds.
func Kinds() []string {
	kinds := make([]string, 0, len(builtins))
	for k := range builtins {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New builds the presenter for a dataset. An empty kind falls back to the
// dataset name when a presenter is registered under it, and to the
// template presenter otherwise.
func New(dataset string, cfg config.PresenterConfig) (Presenter, error) {
	kind := cfg.Kind
	if kind == "" {
		kind = KindTemplate
		if _, ok := builtins[dataset]; ok {
			kind = dataset
		}
	}

	build, ok := builtins[kind]
	if !ok {
		return nil, fmt.Errorf("unknown presenter kind %q (available: %s)", kind, strings.Join(Kinds(), ", "))
	}

	return build(cfg)
}

// Radius applies a radius policy to a record:
// min((field or Default) * Scale, Max). A missing, zero or non-numeric
// field takes the default.
func Radius(p config.RadiusPolicy, rec dataset.AdaptedRecord) float64 {
	v, ok := Number(rec.Fields[p.Field])
	if !ok || v == 0 {
		v = p.Default
	}

	scale := p.Scale
	if scale == 0 {
		scale = 1
	}
	r := v * scale

	if p.Max > 0 && r > p.Max {
		r = p.Max
	}
	if r < 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		r = 0
	}

	return r
}

// Number converts a loosely typed field value into a finite float.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, finite(n)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil && finite(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && finite(f)
	}

	return 0, false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Text renders a field value for display; missing values render empty.
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}

	return fmt.Sprint(v)
}

// executeTemplate renders tpl with the record fields as dot.
func executeTemplate(tpl *template.Template, rec dataset.AdaptedRecord) string {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, map[string]any(rec.Fields)); err != nil {
		return ""
	}

	return strings.TrimSpace(buf.String())
}

var funcs = template.FuncMap{
	"text": Text,
	"field": func(fields map[string]any, name string) string {
		return Text(fields[name])
	},
}

func parseTemplate(name, text string) (*template.Template, error) {
	return template.New(name).Funcs(funcs).Option("missingkey=zero").Parse(text)
}

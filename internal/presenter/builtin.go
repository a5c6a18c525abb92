package presenter

import (
	"html/template"

	"github.com/woozymasta/civmap/internal/config"
	"github.com/woozymasta/civmap/internal/dataset"
)

// Default radius policy of emergency response rooms.
var emergencyRoomsRadius = config.RadiusPolicy{
	Field:   "ServedPopulation",
	Default: 500,
	Scale:   2,
	Max:     3000,
}

var (
	hospitalsPopup = template.Must(parseTemplate(KindHospitals,
		`<strong>{{field . "name"}}</strong><br/>Status: {{field . "Status"}}<br/>District: {{field . "District"}}`))

	emergencyRoomsPopup = template.Must(parseTemplate(KindEmergencyRooms,
		`<strong>{{field . "baseerr"}}</strong><br/>Population: {{field . "ServedPopulation"}}`))
)

// templated is a presenter made of a popup template and a radius policy.
type templated struct {
	popup  *template.Template
	radius config.RadiusPolicy
}

func (p templated) PopupText(rec dataset.AdaptedRecord) string {
	if p.popup == nil {
		return ""
	}
	return executeTemplate(p.popup, rec)
}

func (p templated) CircleRadius(rec dataset.AdaptedRecord) float64 {
	return Radius(p.radius, rec)
}

// build overrides the built-in defaults with whatever the config sets.
func build(name string, popup *template.Template, radius config.RadiusPolicy, cfg config.PresenterConfig) (Presenter, error) {
	p := templated{popup: popup, radius: radius}

	if cfg.Popup != "" {
		tpl, err := parseTemplate(name, cfg.Popup)
		if err != nil {
			return nil, err
		}
		p.popup = tpl
	}
	if cfg.Radius != nil {
		p.radius = *cfg.Radius
	}

	return p, nil
}

func newHospitals(cfg config.PresenterConfig) (Presenter, error) {
	return build(KindHospitals, hospitalsPopup, config.RadiusPolicy{}, cfg)
}

func newEmergencyRooms(cfg config.PresenterConfig) (Presenter, error) {
	return build(KindEmergencyRooms, emergencyRoomsPopup, emergencyRoomsRadius, cfg)
}

func newTemplate(cfg config.PresenterConfig) (Presenter, error) {
	return build(KindTemplate, nil, config.RadiusPolicy{}, cfg)
}

// Package geo handles geographic data structures and coordinate conversions.
package geo

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// LatLng is a coordinate pair in latitude, longitude order.
type LatLng [2]float64

// Lat returns the latitude component.
func (ll LatLng) Lat() float64 { return ll[0] }

// Lng returns the longitude component.
func (ll LatLng) Lng() float64 { return ll[1] }

// Valid reports whether both components are finite numbers.
func (ll LatLng) Valid() bool {
	return isFinite(ll[0]) && isFinite(ll[1])
}

// CoordinateSource is the raw shape a coordinate field can take before
// parsing. It is either a RawString ("lat,lng") or a RawPair.
type CoordinateSource interface {
	// LatLng resolves the source into a validated pair.
	LatLng() (LatLng, bool)

	isCoordinateSource()
}

// RawString is a single "lat,lng" string of two comma separated decimals.
type RawString string

// RawPair is a coordinate field that already holds two numbers.
type RawPair [2]float64

func (RawString) isCoordinateSource() {}
func (RawPair) isCoordinateSource()   {}

// LatLng splits on the comma and parses the first two pieces.
// Extra pieces are ignored; a missing or empty piece is not a number.
func (s RawString) LatLng() (LatLng, bool) {
	parts := strings.Split(string(s), ",")
	if len(parts) < 2 {
		return LatLng{}, false
	}

	lat, ok := parseComponent(parts[0])
	if !ok {
		return LatLng{}, false
	}
	lng, ok := parseComponent(parts[1])
	if !ok {
		return LatLng{}, false
	}

	return LatLng{lat, lng}, true
}

// LatLng validates the pair.
func (p RawPair) LatLng() (LatLng, bool) {
	ll := LatLng(p)
	return ll, ll.Valid()
}

// SourceOf classifies a loosely typed field value into a CoordinateSource.
// It returns false for shapes that can never hold coordinates.
func SourceOf(v any) (CoordinateSource, bool) {
	switch val := v.(type) {
	case string:
		return RawString(val), true
	case RawString:
		return val, true
	case RawPair:
		return val, true
	case LatLng:
		return RawPair(val), true
	case [2]float64:
		return RawPair(val), true
	case []float64:
		if len(val) != 2 {
			return nil, false
		}
		return RawPair{val[0], val[1]}, true
	case []any:
		if len(val) != 2 {
			return nil, false
		}
		lat, ok1 := toFloat(val[0])
		lng, ok2 := toFloat(val[1])
		if !ok1 || !ok2 {
			return nil, false
		}
		return RawPair{lat, lng}, true
	}

	return nil, false
}

func parseComponent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	// a missing piece is not zero
	if s == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(f) {
		return 0, false
	}

	return f, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		return parseComponent(n)
	}

	return 0, false
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

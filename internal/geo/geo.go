// Package geo estimates distances between named locations.
//
// Location data is intentionally approximate: donors enter areas as free
// text ("dhaka - gulshan"), which is normalized and resolved against a small
// embedded coordinate table. When coordinates are unavailable the estimator
// degrades to a city-level distance matrix and finally to a default
// constant. A lookup miss is never an error, so matching keeps working with
// incomplete location data.
package geo

import (
	_ "embed"
	"fmt"
	"math"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

const (
	earthRadiusKm = 6371

	// SameCityDistanceKm is returned for two different sub-areas of one city
	// when no coordinates are available for either.
	SameCityDistanceKm = 15

	// DefaultDistanceKm is the estimate for city pairs absent from both the
	// coordinate table and the fallback matrix.
	DefaultDistanceKm = 100

	citySeparator = " - "
)

//go:embed geodata.yaml
var geodataYAML []byte

type coordinate struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

type cityDistance struct {
	A  string  `yaml:"a"`
	B  string  `yaml:"b"`
	Km float64 `yaml:"km"`
}

type geodata struct {
	Locations     map[string]coordinate `yaml:"locations"`
	CityDistances []cityDistance        `yaml:"city_distances"`
}

// Estimator resolves named locations and computes distances. It is immutable
// after construction and safe for concurrent use.
type Estimator struct {
	coords map[string]coordinate
	matrix map[string]float64
}

// New builds an Estimator from the embedded location tables.
func New() (*Estimator, error) {
	return newFromYAML(geodataYAML)
}

// MustNew is New for wiring paths where the embedded data being unparsable is
// a programming error.
func MustNew() *Estimator {
	e, err := New()
	if err != nil {
		panic(err)
	}
	return e
}

func newFromYAML(raw []byte) (*Estimator, error) {
	var data geodata
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse geo data: %w", err)
	}

	e := &Estimator{
		coords: make(map[string]coordinate, len(data.Locations)),
		matrix: make(map[string]float64, len(data.CityDistances)),
	}
	for name, c := range data.Locations {
		e.coords[Normalize(name)] = c
	}
	for _, d := range data.CityDistances {
		e.matrix[matrixKey(Normalize(d.A), Normalize(d.B))] = d.Km
	}
	return e, nil
}

// Normalize canonicalizes a free-text location: trims, collapses internal
// whitespace, and title-cases each word so "dhaka -  GULSHAN" and
// "Dhaka - Gulshan" resolve identically.
func Normalize(location string) string {
	words := strings.Fields(location)
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	runes := []rune(strings.ToLower(w))
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}

// mainCity returns the city portion of a normalized "City - Area" name, or
// the name itself when there is no separator.
func mainCity(normalized string) string {
	if city, _, found := strings.Cut(normalized, citySeparator); found {
		return strings.TrimSpace(city)
	}
	return normalized
}

// resolve finds coordinates for a normalized name, retrying with the main
// city when the full name has no entry.
func (e *Estimator) resolve(normalized string) (coordinate, bool) {
	if c, ok := e.coords[normalized]; ok {
		return c, true
	}
	c, ok := e.coords[mainCity(normalized)]
	return c, ok
}

// DistanceKm estimates the distance between two named locations. The result
// is symmetric and non-negative; identical names give 0.
func (e *Estimator) DistanceKm(locationA, locationB string) float64 {
	a := Normalize(locationA)
	b := Normalize(locationB)
	if a == b {
		return 0
	}

	ca, okA := e.resolve(a)
	cb, okB := e.resolve(b)
	if okA && okB {
		return haversineKm(ca, cb)
	}

	// Coordinate lookup failed for at least one side: degrade to the
	// city-level matrix.
	cityA, cityB := mainCity(a), mainCity(b)
	if cityA == cityB {
		return SameCityDistanceKm
	}
	if km, ok := e.matrix[matrixKey(cityA, cityB)]; ok {
		return km
	}
	return DefaultDistanceKm
}

// matrixKey orders the pair so lookups are symmetric.
func matrixKey(cityA, cityB string) string {
	if cityA > cityB {
		cityA, cityB = cityB, cityA
	}
	return cityA + "|" + cityB
}

// haversineKm computes the great-circle distance between two coordinates.
func haversineKm(a, b coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

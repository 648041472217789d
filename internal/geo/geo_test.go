package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEstimator(t *testing.T) *Estimator {
	t.Helper()
	e, err := New()
	require.NoError(t, err)
	return e
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"dhaka", "Dhaka"},
		{"  DHAKA  ", "Dhaka"},
		{"dhaka - gulshan", "Dhaka - Gulshan"},
		{"dhaka   -   GULSHAN", "Dhaka - Gulshan"},
		{"chattogram - agrabad", "Chattogram - Agrabad"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Normalize(tc.in))
	}
}

func TestDistanceIdentity(t *testing.T) {
	e := newEstimator(t)
	for _, loc := range []string{"Dhaka", "dhaka - gulshan", "Narsingdi", "Nowhere - Atall"} {
		assert.Zero(t, e.DistanceKm(loc, loc), "distance %q to itself", loc)
	}
	// Casing differences normalize to the same place.
	assert.Zero(t, e.DistanceKm("DHAKA - MIRPUR", "dhaka - mirpur"))
}

func TestDistanceSymmetry(t *testing.T) {
	e := newEstimator(t)
	pairs := [][2]string{
		{"Dhaka", "Chattogram"},           // both coordinate-backed
		{"Rajshahi", "Barisal"},           // matrix fallback
		{"Dhaka - Gulshan", "Sylhet"},     // sub-area vs city
		{"Narsingdi", "Feni"},             // both unknown
		{"Rajshahi", "Dhaka - Dhanmondi"}, // one unknown, one sub-area
	}
	for _, p := range pairs {
		assert.Equal(t, e.DistanceKm(p[0], p[1]), e.DistanceKm(p[1], p[0]),
			"distance %q <-> %q", p[0], p[1])
	}
}

func TestDistanceWithinDhaka(t *testing.T) {
	e := newEstimator(t)

	// City center to Gulshan resolves via coordinates, not the same-city
	// constant.
	d := e.DistanceKm("Dhaka", "Dhaka - Gulshan")
	assert.Greater(t, d, 5.0)
	assert.Less(t, d, 10.0)

	d = e.DistanceKm("Dhaka - Gulshan", "Dhaka - Dhanmondi")
	assert.Greater(t, d, 1.0)
	assert.Less(t, d, 15.0)
}

func TestDistanceCityMatrixFallback(t *testing.T) {
	e := newEstimator(t)

	// Neither Rajshahi nor Barisal has a coordinate entry.
	assert.Equal(t, 430.0, e.DistanceKm("Rajshahi", "Barisal"))
	assert.Equal(t, 430.0, e.DistanceKm("barisal", "RAJSHAHI"))

	// Sub-areas of matrix-only cities collapse to the main city pair.
	assert.Equal(t, 430.0, e.DistanceKm("Rajshahi - Boalia", "Barisal - Sadar"))
}

func TestDistanceSameCityDifferentArea(t *testing.T) {
	e := newEstimator(t)

	// Rangpur has no coordinates, so two of its sub-areas hit the same-city
	// constant.
	assert.Equal(t, float64(SameCityDistanceKm), e.DistanceKm("Rangpur - Sadar", "Rangpur - Mahiganj"))
}

func TestDistanceUnknownPairDefault(t *testing.T) {
	e := newEstimator(t)
	assert.Equal(t, float64(DefaultDistanceKm), e.DistanceKm("Narsingdi", "Feni"))
	assert.Equal(t, float64(DefaultDistanceKm), e.DistanceKm("Rajshahi", "Narsingdi"))
}

func TestDistanceHaversineBetweenCities(t *testing.T) {
	e := newEstimator(t)

	// Straight-line Dhaka-Chattogram is roughly 210 km; make sure we used
	// coordinates rather than the 245 km road matrix entry.
	d := e.DistanceKm("Dhaka", "Chattogram")
	assert.Greater(t, d, 180.0)
	assert.Less(t, d, 230.0)

	// A coordinate-backed sub-area against another city still uses haversine.
	d2 := e.DistanceKm("Dhaka - Uttara", "Chattogram")
	assert.NotEqual(t, d, d2)
	assert.Greater(t, d2, 180.0)
}

func TestSubAreaFallsBackToMainCityCoordinates(t *testing.T) {
	e := newEstimator(t)

	// "Dhaka - Badda" has no entry; it resolves to Dhaka's coordinates, so
	// the distance to Gulshan equals the Dhaka-Gulshan distance.
	assert.Equal(t,
		e.DistanceKm("Dhaka", "Dhaka - Gulshan"),
		e.DistanceKm("Dhaka - Badda", "Dhaka - Gulshan"))
}

package reproject

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "epsg:27700", Normalize("EPSG:27700"))
	assert.Equal(t, "epsg:27700", Normalize("27700"))
	assert.Equal(t, "epsg:27700", Normalize("urn:ogc:def:crs:EPSG::27700"))
	assert.Equal(t, WGS84, Normalize("urn:ogc:def:crs:OGC:1.3:CRS84"))
	assert.Equal(t, WGS84, Normalize(""))
}

func TestSameCRSIsIdentity(t *testing.T) {
	tr, err := New("EPSG:27700", BNG)
	require.NoError(t, err)
	assert.Equal(t, Identity, tr)

	x, y, err := tr.Transform(325170, 673490)
	require.NoError(t, err)
	assert.Equal(t, 325170.0, x)
	assert.Equal(t, 673490.0, y)
}

func TestWGS84ToBNG(t *testing.T) {
	tr, err := ToBNG(WGS84)
	require.NoError(t, err)

	// Edinburgh Castle, NT 251 734
	x, y, err := tr.Transform(-3.2008, 55.9486)
	require.NoError(t, err)
	assert.InDelta(t, 325100, x, 500)
	assert.InDelta(t, 673400, y, 500)
}

func TestBNGToWGS84RoundTrip(t *testing.T) {
	fwd, err := New(WGS84, BNG)
	require.NoError(t, err)
	back, err := New(BNG, WGS84)
	require.NoError(t, err)

	x, y, err := fwd.Transform(-0.1276, 51.5072)
	require.NoError(t, err)
	lng, lat, err := back.Transform(x, y)
	require.NoError(t, err)
	assert.InDelta(t, -0.1276, lng, 1e-6)
	assert.InDelta(t, 51.5072, lat, 1e-6)
}

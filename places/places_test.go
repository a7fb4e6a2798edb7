package places

import (
	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"resilience-distances/reproject"
	"resilience-distances/shapefile"
	"strings"
	"testing"
)

func TestDecodeCentroidsCSV(t *testing.T) {
	in := "\ufeffX,Y,objectid,lsoa11cd,lsoa11nm\n" +
		"532151.3,181525.8,1,E01000001,City of London 001A\n" +
		"532634.5,181265.5,2,E01000002,City of London 001B\n"

	got, err := DecodeCentroidsCSV(strings.NewReader(in), LSOAColumns)
	require.NoError(t, err)
	assert.Equal(t, []AreaCentroid{
		{Code: "E01000001", X: 532151.3, Y: 181525.8},
		{Code: "E01000002", X: 532634.5, Y: 181265.5},
	}, got)
}

func TestDecodeCentroidsCSVRenamesColumns(t *testing.T) {
	in := "DataZone,Name,X,Easting,Northing\n" +
		"S01006506,Culter - 01,1,383264,801180\n"

	got, err := DecodeCentroidsCSV(strings.NewReader(in), DataZoneColumns)
	require.NoError(t, err)
	assert.Equal(t, []AreaCentroid{{Code: "S01006506", X: 383264, Y: 801180}}, got)
}

func TestDecodeCentroidsCSVMissingColumn(t *testing.T) {
	_, err := DecodeCentroidsCSV(strings.NewReader("DataZone,Easting\nS01006506,383264\n"), DataZoneColumns)
	assert.Error(t, err)
}

func TestCentroidsShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SG_DataZone_Cent_2011.shp")
	want := []AreaCentroid{
		{Code: "S01006506", X: 383264, Y: 801180},
		{Code: "S01006507", X: 383531.5, Y: 802027.25},
	}
	require.NoError(t, WriteCentroidsShapefile(path, "DataZone", want))

	got, err := ReadCentroids(path, Columns{Code: "DataZone", X: "X", Y: "Y"})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ReadCentroids(path, DataZoneColumns)
	assert.Error(t, err)

	_, err = ReadCentroids("centroids.gpkg", DataZoneColumns)
	assert.Error(t, err)
}

func writeWards(t *testing.T, path string, rows [][3]string) {
	w, err := shapefile.Create(path, shp.POINT)
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("WD19CD", 9),
		shp.FloatField("LONG", 12, 6),
		shp.FloatField("LAT", 12, 6),
	}))
	for _, r := range rows {
		row := int(w.Write(&shp.Point{}))
		require.NoError(t, w.WriteAttribute(row, 0, r[0]))
		require.NoError(t, w.WriteAttribute(row, 1, r[1]))
		require.NoError(t, w.WriteAttribute(row, 2, r[2]))
	}
}

func TestWardCentroids(t *testing.T) {
	dir := t.TempDir()
	boundaries := filepath.Join(dir, "Wards_December_2019_Boundaries_UK_BGC.shp")
	islands := filepath.Join(dir, "Wards_December_2019_Boundaries_Scily_Wight_BGC.shp")

	writeWards(t, boundaries, [][3]string{
		{"E05000026", "0.0754", "51.5394"},
		{"W05000981", "-3.1791", "51.4816"},
		{"S13002516", "-3.1883", "55.9533"},
		{"E05008480", "-6.3022", "49.9145"},
	})
	writeWards(t, islands, [][3]string{
		{"E05008480", "-6.3022", "49.9145"},
	})

	got, err := WardCentroids(boundaries, islands, Ward19Columns, reproject.Identity)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "E05000026", got[0].Code)
	assert.InDelta(t, 0.0754, got[0].X, 1e-9)
	assert.InDelta(t, 51.5394, got[0].Y, 1e-9)
	assert.Equal(t, "W05000981", got[1].Code)

	out := filepath.Join(dir, "ward_centroids.shp")
	require.NoError(t, WriteCentroidsShapefile(out, "WD19CD", got))
	back, err := ReadCentroids(out, WardCentroidColumns)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "W05000981", back[1].Code)

	r, err := shapefile.Open(out)
	require.NoError(t, err)
	defer r.Close()
	code, err := r.Field("WD19CD")
	require.NoError(t, err)
	require.True(t, r.Next())
	row, _ := r.Shape()
	assert.Equal(t, "E05000026", r.String(row, code))
}

func TestFeaturePOIs(t *testing.T) {
	fc := geojson.NewFeatureCollection()

	a := geojson.NewFeature(orb.Point{1, 2})
	a.Properties["name"] = "Foodbank A"
	fc.Append(a)

	b := geojson.NewFeature(orb.MultiPoint{{3, 4}, {5, 6}})
	b.ID = "site-b"
	fc.Append(b)

	c := geojson.NewFeature(orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}})
	fc.Append(c)

	fc.Append(&geojson.Feature{Type: "Feature", Properties: geojson.Properties{}})

	got, err := FeaturePOIs(fc, "name", reproject.Identity)
	require.NoError(t, err)
	assert.Equal(t, []POI{
		{ID: "Foodbank A", X: 1, Y: 2},
		{ID: "site-b/0", X: 3, Y: 4},
		{ID: "site-b/1", X: 5, Y: 6},
		{ID: "2", X: 5, Y: 5},
	}, got)

	ids, xs, ys := Split(got)
	assert.Equal(t, []string{"Foodbank A", "site-b/0", "site-b/1", "2"}, ids)
	assert.Equal(t, []float64{1, 3, 5, 5}, xs)
	assert.Equal(t, []float64{2, 4, 6, 5}, ys)
}

func TestReadPOIsGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`{
	  "type": "FeatureCollection",
	  "features": [
	    {"type": "Feature", "id": 7, "properties": {"Name": "Leith Links"}, "geometry": {"type": "Point", "coordinates": [-3.16, 55.97]}},
	    {"type": "Feature", "properties": {}, "geometry": null}
	  ]
	}`), 0644))

	got, err := ReadPOIsGeoJSON(path, "", reproject.Identity)
	require.NoError(t, err)
	assert.Equal(t, []POI{{ID: "7", X: -3.16, Y: 55.97}}, got)

	got, err = ReadPOIsGeoJSON(path, "Name", reproject.Identity)
	require.NoError(t, err)
	assert.Equal(t, "Leith Links", got[0].ID)
}

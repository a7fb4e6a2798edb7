package distances

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/fs"
	"os"
	"path/filepath"
	"resilience-distances/network"
	"resilience-distances/places"
	"resilience-distances/report"
	"resilience-distances/reproject"
	"resilience-distances/roads"
	"testing"
)

func testNetwork(t *testing.T) *network.Network {
	net, _, err := network.FromTables(
		[]roads.Node{
			{Identifier: "A", X: 0, Y: 0},
			{Identifier: "B", X: 100, Y: 0},
			{Identifier: "C", X: 300, Y: 0},
		},
		[]roads.Link{
			{StartNode: "A", EndNode: "B", Length: 100},
			{StartNode: "B", EndNode: "C", Length: 200},
		},
	)
	require.NoError(t, err)
	return net
}

func writeFixtures(t *testing.T, dir string) {
	require.NoError(t, os.WriteFile(filepath.Join(dir, "points.geojson"), []byte(`{
	  "type": "FeatureCollection",
	  "features": [
	    {"type": "Feature", "properties": {"name": "north"}, "geometry": {"type": "Point", "coordinates": [1, 2]}},
	    {"type": "Feature", "properties": {"name": "south"}, "geometry": {"type": "Point", "coordinates": [299, -3]}}
	  ]
	}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "centroids.csv"), []byte(
		"DataZone,Easting,Northing\nS01,90,10\nS02,5000,5000\n"), 0644))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	job, err := NewJob(Job{
		Name:            "healthy-places",
		POIs:            filepath.Join(dir, "points.geojson"),
		POIsCRS:         reproject.BNG,
		POIIDProperty:   "name",
		Areas:           filepath.Join(dir, "centroids.csv"),
		AreaColumns:     places.DataZoneColumns,
		MappingDistance: 1000,
		Output:          filepath.Join(dir, "out", "points-lsoa.csv"),
		NumPOIs:         2,
	})
	require.NoError(t, err)

	res, err := Run(context.Background(), testNetwork(t), job)
	require.NoError(t, err)
	assert.Equal(t, 2, res.POICount)
	assert.Equal(t, 1, res.Unmapped)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []float64{100, 200}, res.Rows[0].Distances)
	assert.Equal(t, []string{"north", "south"}, res.Rows[0].POIs)

	out, err := os.ReadFile(job.Output)
	require.NoError(t, err)
	assert.Equal(t, "identifier,1,2,poi1,poi2,lsoa11cd,X,Y,lsoa_nodes,mean_distance_nearest_three_points\n"+
		"B,100,200,north,south,S01,90,10,B,150\n"+
		",,,,,S02,5000,5000,,\n", string(out))
}

func TestComputeReportsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	good, err := NewJob(Job{
		Name:        "good",
		POIs:        filepath.Join(dir, "points.geojson"),
		POIsCRS:     reproject.BNG,
		Areas:       filepath.Join(dir, "centroids.csv"),
		AreaColumns: places.DataZoneColumns,
		Output:      filepath.Join(dir, "good.csv"),
	})
	require.NoError(t, err)

	results, err := Compute(context.Background(), testNetwork(t), []Job{good})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "good", results[0].Job.Name)
	assert.Equal(t, []float64{100, 200, DefaultSearchDistance}, results[0].Rows[0].Distances)

	bad := good
	bad.Name = "bad"
	bad.POIs = filepath.Join(dir, "missing.geojson")
	_, err = Compute(context.Background(), testNetwork(t), []Job{good, bad})
	assert.ErrorContains(t, err, "1/2 jobs failed")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestComputeCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	job, err := NewJob(Job{
		Name:        "cancelled",
		POIs:        filepath.Join(dir, "points.geojson"),
		POIsCRS:     reproject.BNG,
		Areas:       filepath.Join(dir, "centroids.csv"),
		AreaColumns: places.DataZoneColumns,
		Output:      filepath.Join(dir, "cancelled.csv"),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Compute(ctx, testNetwork(t), []Job{job})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, job.Output)
}

func TestLoadJobs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
	  {
	    "name": "healthy-places",
	    "pois": "vulnerability/healthy-places/points.geojson",
	    "areas": "boundaries/SG_DataZone_Cent_2011.shp",
	    "area_columns": {"code": "DataZone", "x": "Easting", "y": "Northing"},
	    "output": "vulnerability/healthy-places/points-lsoa.csv"
	  },
	  {
	    "name": "foodbanks",
	    "pois": "/abs/foodbanks.geojson",
	    "areas": "boundaries/ward_centroids.shp",
	    "area_columns": {"code": "WD19CD", "x": "X", "y": "Y"},
	    "output": "foodbanks/nearest-foodbanks-wards.csv",
	    "num_pois": 5,
	    "search_distance": 50000,
	    "mean_column": "mean_distance_nearest_three_foodbanks"
	  }
	]`), 0644))

	jobs, err := LoadJobs(path, "/data")
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	hp := jobs[0]
	assert.Equal(t, "/data/vulnerability/healthy-places/points.geojson", hp.POIs)
	assert.Equal(t, reproject.WGS84, hp.POIsCRS)
	assert.Equal(t, places.DataZoneColumns, hp.AreaColumns)
	assert.Equal(t, DefaultNumPOIs, hp.NumPOIs)
	assert.Equal(t, float64(DefaultSearchDistance), hp.SearchDistance)
	assert.Equal(t, report.DefaultMeanColumn, hp.MeanColumn)

	fb := jobs[1]
	assert.Equal(t, "/abs/foodbanks.geojson", fb.POIs)
	assert.Equal(t, 5, fb.NumPOIs)
	assert.Equal(t, 50000.0, fb.SearchDistance)
	assert.Equal(t, places.WardCentroidColumns, fb.AreaColumns)
}

func TestLoadJobsRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
	  {"name": "a", "pois": "p", "areas": "a", "output": "o"},
	  {"name": "a", "pois": "p", "areas": "a", "output": "o2"}
	]`), 0644))
	_, err := LoadJobs(path, "")
	assert.ErrorContains(t, err, "duplicate")

	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "a", "areas": "a", "output": "o"}]`), 0644))
	_, err = LoadJobs(path, "")
	assert.ErrorContains(t, err, "pois not set")
}

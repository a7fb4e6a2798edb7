package places

import (
	"fmt"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"log/slog"
	"os"
	"resilience-distances/reproject"
	"strconv"
)

type POI struct {
	ID string
	X  float64
	Y  float64
}

// ReadPOIsGeoJSON reads points of interest from a GeoJSON feature collection,
// reprojecting through tr. Each member of a MultiPoint becomes its own POI;
// any other geometry is reduced to the centre of its bounds.
//
// The POI id is the idProperty property when set and present, else the
// feature id, else the feature's position in the collection.
func ReadPOIsGeoJSON(path, idProperty string, tr reproject.Transformer) ([]POI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return FeaturePOIs(fc, idProperty, tr)
}

func FeaturePOIs(fc *geojson.FeatureCollection, idProperty string, tr reproject.Transformer) ([]POI, error) {
	var out []POI
	for i, f := range fc.Features {
		id := featureID(f, i, idProperty)

		var points []orb.Point
		switch g := f.Geometry.(type) {
		case nil:
			slog.Warn("skipping poi without geometry", "id", id)
			continue
		case orb.Point:
			points = []orb.Point{g}
		case orb.MultiPoint:
			points = g
		default:
			points = []orb.Point{g.Bound().Center()}
		}

		for j, p := range points {
			x, y, err := tr.Transform(p[0], p[1])
			if err != nil {
				return nil, fmt.Errorf("poi %s: %w", id, err)
			}
			poi := POI{ID: id, X: x, Y: y}
			if len(points) > 1 {
				poi.ID = id + "/" + strconv.Itoa(j)
			}
			out = append(out, poi)
		}
	}
	return out, nil
}

func featureID(f *geojson.Feature, i int, idProperty string) string {
	if idProperty != "" {
		if v, ok := f.Properties[idProperty]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	if f.ID != nil {
		return fmt.Sprint(f.ID)
	}
	return strconv.Itoa(i)
}

// Split splits POIs into the parallel slices network.SetPOIs takes.
func Split(pois []POI) (ids []string, xs, ys []float64) {
	ids = make([]string, len(pois))
	xs = make([]float64, len(pois))
	ys = make([]float64, len(pois))
	for i, p := range pois {
		ids[i] = p.ID
		xs[i] = p.X
		ys[i] = p.Y
	}
	return ids, xs, ys
}

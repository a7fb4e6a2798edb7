package places

import (
	"fmt"
	"log/slog"
	"resilience-distances/reproject"
	"resilience-distances/shapefile"
)

type WardColumns struct {
	Code string
	Lng  string
	Lat  string
}

// Ward19Columns match the ONS Wards December 2019 boundaries.
var Ward19Columns = WardColumns{Code: "WD19CD", Lng: "LONG", Lat: "LAT"}

// WardCentroids derives ward centroids from a ward boundaries shapefile.
// Only English and Welsh wards are kept, and wards listed in the islands
// shapefile (Isles of Scilly, Isle of Wight) are dropped since the road
// network has no ferry links to reach them. The centroid is the boundary
// file's own LONG/LAT, reprojected through tr.
func WardCentroids(boundaries, islands string, cols WardColumns, tr reproject.Transformer) ([]AreaCentroid, error) {
	exclude := make(map[string]struct{})
	if islands != "" {
		codes, err := readCodes(islands, cols.Code)
		if err != nil {
			return nil, fmt.Errorf("read island wards: %w", err)
		}
		for _, c := range codes {
			exclude[c] = struct{}{}
		}
	}

	r, err := shapefile.Open(boundaries)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	codeField, err := r.Field(cols.Code)
	if err != nil {
		return nil, err
	}
	lngField, err := r.Field(cols.Lng)
	if err != nil {
		return nil, err
	}
	latField, err := r.Field(cols.Lat)
	if err != nil {
		return nil, err
	}

	var out []AreaCentroid
	var skippedCountry, skippedIsland int
	for r.Next() {
		row, _ := r.Shape()
		code := r.String(row, codeField)
		if !englandOrWales(code) {
			skippedCountry++
			continue
		}
		if _, ok := exclude[code]; ok {
			skippedIsland++
			continue
		}

		lng, err := r.Float(row, lngField)
		if err != nil {
			return nil, err
		}
		lat, err := r.Float(row, latField)
		if err != nil {
			return nil, err
		}
		x, y, err := tr.Transform(lng, lat)
		if err != nil {
			return nil, fmt.Errorf("ward %s: %w", code, err)
		}
		out = append(out, AreaCentroid{Code: code, X: x, Y: y})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", boundaries, err)
	}

	slog.Info("ward centroids", "kept", len(out), "other_countries", skippedCountry, "islands", skippedIsland)
	return out, nil
}

func englandOrWales(code string) bool {
	return code != "" && (code[0] == 'E' || code[0] == 'W')
}

func readCodes(path, field string) ([]string, error) {
	r, err := shapefile.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	idx, err := r.Field(field)
	if err != nil {
		return nil, err
	}

	var codes []string
	for r.Next() {
		row, _ := r.Shape()
		codes = append(codes, r.String(row, idx))
	}
	return codes, r.Err()
}

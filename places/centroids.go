// Package places loads the locations distances are measured between: small
// area centroids and points of interest.
package places

import (
	"encoding/csv"
	"errors"
	"fmt"
	"github.com/jonas-p/go-shp"
	"github.com/jszwec/csvutil"
	"io"
	"os"
	"path/filepath"
	"resilience-distances/shapefile"
	"strings"
)

// AreaCentroid is a population weighted centroid in British National Grid.
// Whatever the source columns were called they are renamed to lsoa11cd, X, Y.
type AreaCentroid struct {
	Code string  `csv:"lsoa11cd" json:"code"`
	X    float64 `csv:"X" json:"x"`
	Y    float64 `csv:"Y" json:"y"`
}

// Columns names the code, easting and northing columns of a centroid source.
type Columns struct {
	Code string `json:"code"`
	X    string `json:"x"`
	Y    string `json:"y"`
}

var (
	// LSOAColumns match the ONS LSOA 2011 population weighted centroids CSV.
	LSOAColumns = Columns{Code: "lsoa11cd", X: "X", Y: "Y"}
	// DataZoneColumns match the Scottish Government SG_DataZone_Cent_2011 shapefile.
	DataZoneColumns = Columns{Code: "DataZone", X: "Easting", Y: "Northing"}
	// WardCentroidColumns match the file written by WriteCentroidsShapefile.
	WardCentroidColumns = Columns{Code: "WD19CD", X: "X", Y: "Y"}
)

// ReadCentroids reads a shapefile or CSV depending on the extension of path.
func ReadCentroids(path string, cols Columns) ([]AreaCentroid, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return ReadCentroidsShapefile(path, cols)
	case ".csv":
		return ReadCentroidsCSV(path, cols)
	default:
		return nil, fmt.Errorf("unsupported centroid file %s", path)
	}
}

func ReadCentroidsShapefile(path string, cols Columns) ([]AreaCentroid, error) {
	r, err := shapefile.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	codeField, err := r.Field(cols.Code)
	if err != nil {
		return nil, err
	}
	xField, err := r.Field(cols.X)
	if err != nil {
		return nil, err
	}
	yField, err := r.Field(cols.Y)
	if err != nil {
		return nil, err
	}

	var out []AreaCentroid
	for r.Next() {
		row, _ := r.Shape()
		c := AreaCentroid{Code: r.String(row, codeField)}
		if c.X, err = r.Float(row, xField); err != nil {
			return nil, err
		}
		if c.Y, err = r.Float(row, yField); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

func ReadCentroidsCSV(path string, cols Columns) ([]AreaCentroid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out, err := DecodeCentroidsCSV(f, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// DecodeCentroidsCSV reads centroids from CSV, renaming cols to the
// canonical lsoa11cd, X, Y header before decoding.
func DecodeCentroidsCSV(r io.Reader, cols Columns) ([]AreaCentroid, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rename := map[string]string{
		cols.Code: LSOAColumns.Code,
		cols.X:    LSOAColumns.X,
		cols.Y:    LSOAColumns.Y,
	}
	found := 0
	renamed := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if to, ok := rename[h]; ok {
			renamed[i] = to
			found++
		} else {
			// keep unrelated columns from shadowing the canonical names
			renamed[i] = "_" + h
		}
	}
	if found < 3 {
		return nil, fmt.Errorf("header %v is missing one of %s, %s, %s", header, cols.Code, cols.X, cols.Y)
	}

	dec, err := csvutil.NewDecoder(cr, renamed...)
	if err != nil {
		return nil, err
	}

	var out []AreaCentroid
	for {
		var c AreaCentroid
		if err := dec.Decode(&c); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("line %d: %w", len(out)+2, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// WriteCentroidsShapefile writes centroids as points with the code stored in
// codeField and coordinates in X and Y.
func WriteCentroidsShapefile(path, codeField string, centroids []AreaCentroid) error {
	w, err := shapefile.Create(path, shp.POINT)
	if err != nil {
		return err
	}
	defer w.Close()

	err = w.SetFields([]shp.Field{
		shp.StringField(codeField, 16),
		shp.FloatField("X", 16, 3),
		shp.FloatField("Y", 16, 3),
	})
	if err != nil {
		return err
	}

	for _, c := range centroids {
		row := int(w.Write(&shp.Point{X: c.X, Y: c.Y}))
		for field, v := range []any{c.Code, c.X, c.Y} {
			if err := w.WriteAttribute(row, field, v); err != nil {
				return fmt.Errorf("write %s: %w", c.Code, err)
			}
		}
	}
	return w.Close()
}

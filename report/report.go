// Package report joins areas to their nearest points of interest and writes
// the CSV consumed by the reporting pipeline.
package report

import (
	"encoding/csv"
	"fmt"
	"gonum.org/v1/gonum/floats"
	"io"
	"resilience-distances/network"
	"resilience-distances/places"
	"strconv"
)

const DefaultMeanColumn = "mean_distance_nearest_three_points"

type Row struct {
	Area places.AreaCentroid
	Node string // "" when the area could not be mapped to the network

	Distances []float64
	POIs      []string
	Mean      float64
}

func (r Row) Mapped() bool {
	return r.Node != ""
}

// Join produces one row per area. nodes[i] is the network node area i was
// mapped to.
func Join(areas []places.AreaCentroid, nodes []string, nearest *network.NearestResult) ([]Row, error) {
	if len(areas) != len(nodes) {
		return nil, fmt.Errorf("got %d areas and %d nodes", len(areas), len(nodes))
	}

	rows := make([]Row, len(areas))
	for i, area := range areas {
		rows[i] = Row{Area: area}
		if nodes[i] == "" {
			continue
		}

		near, ok := nearest.Node(nodes[i])
		if !ok {
			return nil, fmt.Errorf("area %s: node %s is not in the network", area.Code, nodes[i])
		}
		rows[i].Node = nodes[i]
		rows[i].Distances = near.Distances
		rows[i].POIs = near.POIs
		rows[i].Mean = floats.Sum(near.Distances) / float64(len(near.Distances))
	}
	return rows, nil
}

// Header is identifier, 1..k, poi1..poik, lsoa11cd, X, Y, lsoa_nodes, meanColumn.
func Header(k int, meanColumn string) []string {
	h := []string{"identifier"}
	for i := 1; i <= k; i++ {
		h = append(h, strconv.Itoa(i))
	}
	for i := 1; i <= k; i++ {
		h = append(h, "poi"+strconv.Itoa(i))
	}
	return append(h, "lsoa11cd", "X", "Y", "lsoa_nodes", meanColumn)
}

func WriteCSV(w io.Writer, k int, meanColumn string, rows []Row) error {
	if meanColumn == "" {
		meanColumn = DefaultMeanColumn
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header(k, meanColumn)); err != nil {
		return err
	}

	rec := make([]string, 0, 2*k+6)
	for _, r := range rows {
		if r.Mapped() && len(r.Distances) != k {
			return fmt.Errorf("area %s has %d distances, want %d", r.Area.Code, len(r.Distances), k)
		}

		rec = append(rec[:0], r.Node)
		for i := 0; i < k; i++ {
			if r.Mapped() {
				rec = append(rec, formatFloat(r.Distances[i]))
			} else {
				rec = append(rec, "")
			}
		}
		for i := 0; i < k; i++ {
			if r.Mapped() {
				rec = append(rec, r.POIs[i])
			} else {
				rec = append(rec, "")
			}
		}
		rec = append(rec, r.Area.Code, formatFloat(r.Area.X), formatFloat(r.Area.Y), r.Node)
		if r.Mapped() {
			rec = append(rec, formatFloat(r.Mean))
		} else {
			rec = append(rec, "")
		}

		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package roads

import (
	"fmt"
	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"log/slog"
	"path/filepath"
	"resilience-distances/reproject"
	"resilience-distances/shapefile"
)

const progressEvery = 100_000

// ReadNodes reads one RoadNode tile, reprojecting through tr.
func ReadNodes(path string, tr reproject.Transformer) ([]Node, error) {
	r, err := shapefile.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	idField, err := r.Field("identifier")
	if err != nil {
		return nil, err
	}

	file := filepath.Base(path)
	var nodes []Node
	for r.Next() {
		row, shape := r.Shape()

		x, y, ok := shapefile.XY(shape)
		if !ok {
			if _, null := shape.(*shp.Null); null {
				slog.Warn("skipping node without geometry", "file", file, "row", row)
				continue
			}
			return nil, fmt.Errorf("%s row %d: unexpected shape %T", path, row, shape)
		}

		x, y, err = tr.Transform(x, y)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, row, err)
		}

		nodes = append(nodes, Node{
			Identifier: r.String(row, idField),
			X:          x,
			Y:          y,
			File:       file,
		})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return nodes, nil
}

// ReadLinks reads one RoadLink tile, reprojecting through tr. Links without a
// length attribute are given their planar geometry length.
func ReadLinks(path string, tr reproject.Transformer) ([]Link, error) {
	r, err := shapefile.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	startField, err := r.Field("startNode")
	if err != nil {
		return nil, err
	}
	endField, err := r.Field("endNode")
	if err != nil {
		return nil, err
	}
	lengthField, _ := r.Field("length")

	var links []Link
	for r.Next() {
		row, shape := r.Shape()

		var points []shp.Point
		switch s := shape.(type) {
		case *shp.PolyLine:
			points = s.Points
		case *shp.PolyLineZ:
			points = s.Points
		case *shp.PolyLineM:
			points = s.Points
		case *shp.Null:
		default:
			return nil, fmt.Errorf("%s row %d: unexpected shape %T", path, row, shape)
		}

		line := make(orb.LineString, 0, len(points))
		for _, p := range points {
			x, y, err := tr.Transform(p.X, p.Y)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", path, row, err)
			}
			line = append(line, orb.Point{x, y})
		}

		link := Link{
			StartNode: r.String(row, startField),
			EndNode:   r.String(row, endField),
			Geometry:  line,
		}
		if lengthField >= 0 {
			if r.String(row, lengthField) != "" {
				link.Length, err = r.Float(row, lengthField)
				if err != nil {
					return nil, err
				}
			}
		}
		if link.Length == 0 && len(line) > 1 {
			link.Length = planar.Length(line)
		}

		links = append(links, link)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return links, nil
}

// MergeNodes concatenates every tile in files.
func MergeNodes(files []string, tr reproject.Transformer) ([]Node, error) {
	var all []Node
	for _, f := range files {
		nodes, err := ReadNodes(f, tr)
		if err != nil {
			return nil, err
		}
		all = append(all, nodes...)
		slog.Info("read road nodes", "file", filepath.Base(f), "count", len(nodes), "total", len(all))
	}
	return all, nil
}

// MergeLinks concatenates every tile in files.
func MergeLinks(files []string, tr reproject.Transformer) ([]Link, error) {
	var all []Link
	for _, f := range files {
		links, err := ReadLinks(f, tr)
		if err != nil {
			return nil, err
		}
		all = append(all, links...)
		slog.Info("read road links", "file", filepath.Base(f), "count", len(links), "total", len(all))
	}
	return all, nil
}

func WriteNodesShapefile(path string, nodes []Node) error {
	w, err := shapefile.Create(path, shp.POINT)
	if err != nil {
		return err
	}
	defer w.Close()

	err = w.SetFields([]shp.Field{
		shp.StringField("identifier", 40),
		shp.StringField("file", 64),
	})
	if err != nil {
		return err
	}

	for i, n := range nodes {
		row := int(w.Write(&shp.Point{X: n.X, Y: n.Y}))
		if err := w.WriteAttribute(row, 0, n.Identifier); err != nil {
			return fmt.Errorf("write node %s: %w", n.Identifier, err)
		}
		if err := w.WriteAttribute(row, 1, n.File); err != nil {
			return fmt.Errorf("write node %s: %w", n.Identifier, err)
		}
		if (i+1)%progressEvery == 0 {
			slog.Debug("wrote nodes", "count", i+1)
		}
	}
	return w.Close()
}

func WriteLinksShapefile(path string, links []Link) error {
	w, err := shapefile.Create(path, shp.POLYLINE)
	if err != nil {
		return err
	}
	defer w.Close()

	err = w.SetFields([]shp.Field{
		shp.StringField("startNode", 40),
		shp.StringField("endNode", 40),
		shp.FloatField("length", 18, 3),
	})
	if err != nil {
		return err
	}

	for i, l := range links {
		points := make([]shp.Point, len(l.Geometry))
		for j, p := range l.Geometry {
			points[j] = shp.Point{X: p[0], Y: p[1]}
		}
		row := int(w.Write(shp.NewPolyLine([][]shp.Point{points})))

		for field, v := range []any{l.StartNode, l.EndNode, l.Length} {
			if err := w.WriteAttribute(row, field, v); err != nil {
				return fmt.Errorf("write link %s-%s: %w", l.StartNode, l.EndNode, err)
			}
		}
		if (i+1)%progressEvery == 0 {
			slog.Debug("wrote links", "count", i+1)
		}
	}
	return w.Close()
}

// Package roads prepares the OS Open Roads network: merging the per-tile
// RoadNode and RoadLink shapefiles, bringing them into British National Grid
// and writing the node and link tables the distance tools load.
package roads

import (
	"fmt"
	"github.com/paulmach/orb"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	NodeSuffix = "RoadNode.shp"
	LinkSuffix = "RoadLink.shp"

	NodesShapefile = "OS Open Road Nodes.shp"
	LinksShapefile = "OS Open Road Links.shp"
	NodesCSV       = "OS Open Road Nodes.csv"
	LinksCSV       = "OS Open Road Links.csv"
)

type Node struct {
	Identifier string  `csv:"identifier"`
	X          float64 `csv:"x"`
	Y          float64 `csv:"y"`

	File string `csv:"-"` // tile the node was read from
}

type Link struct {
	StartNode string  `csv:"startNode"`
	EndNode   string  `csv:"endNode"`
	Length    float64 `csv:"length"` // metres

	Geometry orb.LineString `csv:"-"`
}

// FindFiles lists the files in dir whose name contains suffix, e.g. every
// "HP_RoadNode.shp", "NT_RoadNode.shp", ... tile.
func FindFiles(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.Contains(e.Name(), suffix) {
			continue
		}
		// skip sidecars like .shp.xml
		if !strings.HasSuffix(e.Name(), ".shp") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)

	if len(out) == 0 {
		return nil, fmt.Errorf("no %s files in %s", suffix, dir)
	}
	return out, nil
}

// KnownLinks drops links that reference a node missing from nodes, returning
// the kept links and the number dropped.
func KnownLinks(nodes []Node, links []Link) ([]Link, int) {
	known := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		known[n.Identifier] = struct{}{}
	}

	kept := links[:0:0]
	dropped := 0
	for _, l := range links {
		_, okStart := known[l.StartNode]
		_, okEnd := known[l.EndNode]
		if okStart && okEnd {
			kept = append(kept, l)
		} else {
			dropped++
		}
	}
	return kept, dropped
}

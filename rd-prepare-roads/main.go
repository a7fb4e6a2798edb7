package main

import (
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"log"
	"os"
	"path/filepath"
	"resilience-distances/reproject"
	"resilience-distances/roads"
)

var tilesFlag = flag.StringP("tiles", "t", "", "Directory of RoadNode/RoadLink tiles (default $DATA_DIR/boundaries/oproad)")
var crsFlag = flag.StringP("crs", "c", reproject.BNG, "CRS of the tiles")
var outFlag = flag.StringP("out", "o", "", "Output directory (default $DATA_DIR/boundaries)")
var skipShapefiles = flag.Bool("skip-shapefiles", false, "Only write the CSV tables")

func init() {
	err := godotenv.Load(".env", ".env.local")
	if err != nil {
		log.Println(err)
	}

	flag.Parse()
}

func main() {
	boundaries := filepath.Join(dataDir(), "boundaries")
	tiles := *tilesFlag
	if tiles == "" {
		tiles = filepath.Join(boundaries, "oproad")
	}
	out := *outFlag
	if out == "" {
		out = boundaries
	}

	tr, err := reproject.ToBNG(*crsFlag)
	if err != nil {
		log.Fatal(err)
	}

	nodeFiles, err := roads.FindFiles(tiles, roads.NodeSuffix)
	if err != nil {
		log.Fatal(err)
	}
	linkFiles, err := roads.FindFiles(tiles, roads.LinkSuffix)
	if err != nil {
		log.Fatal(err)
	}

	nodes, err := roads.MergeNodes(nodeFiles, tr)
	if err != nil {
		log.Fatal(err)
	}
	links, err := roads.MergeLinks(linkFiles, tr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("merged %d nodes from %d tiles, %d links from %d tiles", len(nodes), len(nodeFiles), len(links), len(linkFiles))

	if err := os.MkdirAll(out, 0755); err != nil {
		log.Fatal(err)
	}

	if !*skipShapefiles {
		if err := roads.WriteNodesShapefile(filepath.Join(out, roads.NodesShapefile), nodes); err != nil {
			log.Fatal(err)
		}
		if err := roads.WriteLinksShapefile(filepath.Join(out, roads.LinksShapefile), links); err != nil {
			log.Fatal(err)
		}
	}

	err = roads.SaveTables(filepath.Join(out, roads.NodesCSV), filepath.Join(out, roads.LinksCSV), nodes, links)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote tables to %s", out)
}

func dataDir() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}
	return filepath.Join("..", "data")
}

package main

import (
	"context"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"log"
	"os"
	"path/filepath"
	"resilience-distances/distances"
	"resilience-distances/network"
	"resilience-distances/places"
	"resilience-distances/report"
	"resilience-distances/reproject"
	"resilience-distances/roads"
)

var (
	nameFlag       = flag.StringP("name", "n", "adhoc", "Name of the run")
	poisFlag       = flag.StringP("pois", "p", "", "GeoJSON points of interest (required)")
	poisCRSFlag    = flag.String("pois-crs", reproject.WGS84, "CRS of the points of interest")
	idPropertyFlag = flag.String("id-property", "", "Feature property holding the POI id (default feature id)")
	areasFlag      = flag.StringP("areas", "a", "", "Area centroids, shapefile or CSV (required)")
	areaCodeFlag   = flag.String("area-code", places.LSOAColumns.Code, "Area code column")
	areaXFlag      = flag.String("area-x", places.LSOAColumns.X, "Area easting column")
	areaYFlag      = flag.String("area-y", places.LSOAColumns.Y, "Area northing column")
	outputFlag     = flag.StringP("output", "o", "", "Output CSV (required)")
	kFlag          = flag.IntP("num-pois", "k", distances.DefaultNumPOIs, "Number of nearest POIs per area")
	searchFlag     = flag.Float64("search-distance", distances.DefaultSearchDistance, "Maximum network distance in metres")
	mappingFlag    = flag.Float64("mapping-distance", 0, "Leave areas further than this from the network unmapped (0 disables)")
	meanColumnFlag = flag.String("mean-column", report.DefaultMeanColumn, "Name of the mean distance column")
	boundariesFlag = flag.StringP("boundaries", "b", "", "Directory holding the road tables (default $DATA_DIR/boundaries)")
)

func init() {
	err := godotenv.Load(".env", ".env.local")
	if err != nil {
		log.Println(err)
	}

	flag.Parse()
}

func main() {
	ctx := context.Background()

	job, err := distances.NewJob(distances.Job{
		Name:            *nameFlag,
		POIs:            *poisFlag,
		POIsCRS:         *poisCRSFlag,
		POIIDProperty:   *idPropertyFlag,
		Areas:           *areasFlag,
		AreaColumns:     places.Columns{Code: *areaCodeFlag, X: *areaXFlag, Y: *areaYFlag},
		MappingDistance: *mappingFlag,
		Output:          *outputFlag,
		NumPOIs:         *kFlag,
		SearchDistance:  *searchFlag,
		MeanColumn:      *meanColumnFlag,
	})
	if err != nil {
		flag.Usage()
		log.Fatal(err)
	}

	boundaries := *boundariesFlag
	if boundaries == "" {
		boundaries = filepath.Join(dataDir(), "boundaries")
	}
	nodes, links, err := roads.LoadTables(filepath.Join(boundaries, roads.NodesCSV), filepath.Join(boundaries, roads.LinksCSV))
	if err != nil {
		log.Fatal(err)
	}

	net, stats, err := network.FromTables(nodes, links)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("network: %d nodes, %d edges (%d links skipped)", stats.Nodes, stats.Edges, stats.SkippedLinks)

	res, err := distances.Run(ctx, net, job)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %d areas (%d unmapped) to %s", len(res.Rows), res.Unmapped, job.Output)
}

func dataDir() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}
	return filepath.Join("..", "data")
}

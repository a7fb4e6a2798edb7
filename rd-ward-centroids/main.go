package main

import (
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"log"
	"os"
	"path/filepath"
	"resilience-distances/places"
	"resilience-distances/reproject"
)

var boundariesFlag = flag.StringP("boundaries", "b", "", "Ward boundaries shapefile (default $DATA_DIR/boundaries/Wards_December_2019_Boundaries_UK_BGC.shp)")
var islandsFlag = flag.StringP("islands", "i", "", "Shapefile of island wards to exclude (default $DATA_DIR/boundaries/Wards_December_2019_Boundaries_Scily_Wight_BGC.shp)")
var outFlag = flag.StringP("out", "o", "", "Output shapefile (default $DATA_DIR/boundaries/ward_centroids.shp)")

func init() {
	err := godotenv.Load(".env", ".env.local")
	if err != nil {
		log.Println(err)
	}

	flag.Parse()
}

func main() {
	boundaries := filepath.Join(dataDir(), "boundaries")
	wardsPath := orDefault(*boundariesFlag, filepath.Join(boundaries, "Wards_December_2019_Boundaries_UK_BGC.shp"))
	islandsPath := orDefault(*islandsFlag, filepath.Join(boundaries, "Wards_December_2019_Boundaries_Scily_Wight_BGC.shp"))
	out := orDefault(*outFlag, filepath.Join(boundaries, "ward_centroids.shp"))

	tr, err := reproject.ToBNG(reproject.WGS84)
	if err != nil {
		log.Fatal(err)
	}

	centroids, err := places.WardCentroids(wardsPath, islandsPath, places.Ward19Columns, tr)
	if err != nil {
		log.Fatal(err)
	}

	err = places.WriteCentroidsShapefile(out, places.Ward19Columns.Code, centroids)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %d ward centroids to %s", len(centroids), out)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func dataDir() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}
	return filepath.Join("..", "data")
}

package main

import (
	"context"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"resilience-distances/roads"
	"time"
)

var urlFlag = flag.StringP("url", "u", roads.DefaultDownloadURL, "OS Open Roads archive URL")
var outFlag = flag.StringP("out", "o", "", "Directory to extract tiles into (default $DATA_DIR/boundaries/oproad)")

func init() {
	err := godotenv.Load(".env", ".env.local")
	if err != nil {
		log.Println(err)
	}

	flag.Parse()
}

func main() {
	ctx := context.Background()

	out := *outFlag
	if out == "" {
		out = filepath.Join(dataDir(), "boundaries", "oproad")
	}

	httpC := &http.Client{Timeout: 30 * time.Minute}
	files, err := roads.Download(ctx, httpC, *urlFlag, out)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("extracted %d files into %s", len(files), out)
}

func dataDir() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}
	return filepath.Join("..", "data")
}

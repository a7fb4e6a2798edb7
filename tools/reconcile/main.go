package main

import (
	"context"
	"fmt"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"log"
	"log/slog"
	"os"
	"resilience-distances/repos"
	"resilience-distances/store"
)

var dryRun = flag.Bool("dry-run", false, "Don't make any changes, just print what would be done")

func main() {
	ctx := context.Background()

	err := godotenv.Load(".env", ".env.local")
	if err != nil {
		slog.Info("no dotenv", "err", err)
	}

	flag.Usage = func() {
		w := os.Stderr
		_, _ = fmt.Fprintln(w, "reconcile: Removes uploaded outputs of runs no longer in the database")
		flag.PrintDefaults()
	}
	flag.Parse()

	repo, err := repos.Connect(ctx, mustGetEnv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	mc, err := store.Connect(
		mustGetEnv("MINIO_ENDPOINT"),
		mustGetEnv("MINIO_ACCESS_KEY"),
		mustGetEnv("MINIO_SECRET_KEY"),
		os.Getenv("MINIO_INSECURE") == "",
	)
	if err != nil {
		log.Fatal(err)
	}
	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = store.DefaultBucket
	}

	if *dryRun {
		slog.Warn("Dry run mode")
	} else {
		slog.Info("Updating object store")
	}

	removed, err := store.Reconcile(ctx, mc, bucket, repo.RunExists, *dryRun)
	if err != nil {
		log.Fatal(err)
	}
	slog.Info("reconcile complete", "removed", len(removed))
}

func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s not set", key)
	}
	return value
}

package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	flag "github.com/spf13/pflag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"resilience-distances/distances"
	"resilience-distances/network"
	"resilience-distances/repos"
	"resilience-distances/roads"
	"resilience-distances/store"
	"time"
)

var jobsFlag = flag.StringP("jobs", "j", "jobs.json", "File listing the distance jobs")
var onlyFlag = flag.StringSliceP("only", "o", nil, "Only run the named jobs")

var repo *repos.Repo
var mc *minio.Client
var bucket string

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if os.Getenv("APP_ENV") == "development" {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	err := godotenv.Load(".env", ".env.local")
	if err != nil {
		slog.Info("no dotenv", "err", err)
	}

	flag.Parse()

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		repo, err = repos.Connect(ctx, databaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer repo.Close()

		if err := repo.Migrate(ctx); err != nil {
			log.Fatal(err)
		}
	} else {
		slog.Info("DATABASE_URL not set, runs will not be saved")
	}

	if minioEndpoint := os.Getenv("MINIO_ENDPOINT"); minioEndpoint != "" {
		mc, err = store.Connect(
			minioEndpoint,
			mustGetEnv("MINIO_ACCESS_KEY"),
			mustGetEnv("MINIO_SECRET_KEY"),
			os.Getenv("MINIO_INSECURE") == "",
		)
		if err != nil {
			log.Fatal(err)
		}
		bucket = os.Getenv("MINIO_BUCKET")
		if bucket == "" {
			bucket = store.DefaultBucket
		}
	} else {
		slog.Info("MINIO_ENDPOINT not set, outputs will not be uploaded")
	}

	err = doMain(ctx)
	if err != nil {
		log.Fatal(err)
	}
}

func doMain(ctx context.Context) error {
	start := time.Now()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = filepath.Join("..", "data")
	}
	boundaries := filepath.Join(dataDir, "boundaries")

	jobs, err := distances.LoadJobs(*jobsFlag, dataDir)
	if err != nil {
		return err
	}
	jobs, err = selectJobs(jobs, *onlyFlag)
	if err != nil {
		return err
	}

	nodes, links, err := roads.LoadTables(
		filepath.Join(boundaries, roads.NodesCSV),
		filepath.Join(boundaries, roads.LinksCSV),
	)
	if err != nil {
		return err
	}

	net, stats, err := network.FromTables(nodes, links)
	if err != nil {
		return err
	}
	slog.Info("network ready",
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"skipped_links", stats.SkippedLinks,
		"elapsed", time.Since(start),
	)

	results, err := distances.Compute(ctx, net, jobs)
	if err != nil {
		return err
	}

	for _, res := range results {
		if err := publish(ctx, res); err != nil {
			return fmt.Errorf("publish %s: %w", res.Job.Name, err)
		}
	}

	slog.Info("all jobs complete", "jobs", len(results), "elapsed", time.Since(start))
	return nil
}

func selectJobs(jobs []distances.Job, only []string) ([]distances.Job, error) {
	if len(only) == 0 {
		return jobs, nil
	}
	byName := make(map[string]distances.Job, len(jobs))
	for _, job := range jobs {
		byName[job.Name] = job
	}
	var out []distances.Job
	for _, name := range only {
		job, ok := byName[name]
		if !ok {
			return nil, errors.New("unknown job: " + name)
		}
		out = append(out, job)
	}
	return out, nil
}

func publish(ctx context.Context, res distances.Result) error {
	if repo == nil && mc == nil {
		return nil
	}

	runId, err := repos.NewRunId()
	if err != nil {
		return err
	}

	if repo != nil {
		err := repo.SaveRun(ctx, repos.Run{
			Id:             runId,
			Job:            res.Job.Name,
			POIs:           res.Job.POIs,
			Areas:          res.Job.Areas,
			Output:         res.Job.Output,
			NumPOIs:        res.Job.NumPOIs,
			SearchDistance: res.Job.SearchDistance,
			POICount:       res.POICount,
			AreaCount:      len(res.Rows),
			Unmapped:       res.Unmapped,
		}, res.Rows)
		if err != nil {
			return err
		}
	}

	if mc != nil {
		key, err := store.Upload(ctx, mc, bucket, runId, res.Job.Output)
		if err != nil {
			return err
		}
		slog.Info("uploaded", "job", res.Job.Name, "run", runId, "key", key)
	}
	return nil
}

func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s not set", key)
	}
	return value
}

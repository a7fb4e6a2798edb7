package main

import (
	"context"
	"fmt"
	"github.com/gofrs/uuid"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"log"
	"log/slog"
	"os"
	"resilience-distances/repos"
	"strings"
)

var areasFlag = flag.StringP("areas", "a", "", "Print the areas of this run instead of listing runs")

func main() {
	ctx := context.Background()

	err := godotenv.Load(".env", ".env.local")
	if err != nil {
		slog.Info("no dotenv", "err", err)
	}

	flag.Usage = func() {
		w := os.Stderr
		_, _ = fmt.Fprintln(w, "runs: Lists saved distance runs")
		flag.PrintDefaults()
	}
	flag.Parse()

	repo, err := repos.Connect(ctx, mustGetEnv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	if *areasFlag != "" {
		id, err := uuid.FromString(*areasFlag)
		if err != nil {
			log.Fatal(err)
		}
		err = printAreas(ctx, repo, id)
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	runs, err := repo.ListRuns(ctx)
	if err != nil {
		log.Fatal(err)
	}
	for _, run := range runs {
		fmt.Printf("%s  %s  %-30s pois=%d areas=%d unmapped=%d k=%d\n",
			run.Id, run.CreatedAt.Format("2006-01-02 15:04"), run.Job,
			run.POICount, run.AreaCount, run.Unmapped, run.NumPOIs)
	}
}

func printAreas(ctx context.Context, repo *repos.Repo, id uuid.UUID) error {
	run, err := repo.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("get run %s: %w", id, err)
	}
	areas, err := repo.ListRunAreas(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s): %d areas\n", run.Job, run.Output, len(areas))
	for _, a := range areas {
		if a.Node == nil {
			fmt.Printf("%s  %.0f,%.0f  unmapped\n", a.Code, a.Geo.X(), a.Geo.Y())
			continue
		}
		dists := make([]string, len(a.Distances))
		for i, d := range a.Distances {
			dists[i] = fmt.Sprintf("%s=%.0f", a.POIs[i], d)
		}
		fmt.Printf("%s  %.0f,%.0f  node=%s mean=%.0f  %s\n",
			a.Code, a.Geo.X(), a.Geo.Y(), *a.Node, *a.Mean, strings.Join(dists, " "))
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

// Package distances runs distance jobs against a prepared road network.
package distances

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"resilience-distances/network"
	"resilience-distances/places"
	"resilience-distances/report"
	"resilience-distances/reproject"
	"time"
)

const maxConcurrency = 2

type Result struct {
	Job      Job
	POICount int
	Rows     []report.Row
	Unmapped int
}

type result struct {
	job Job
	res Result
	err error
}

// Compute runs every job, at most maxConcurrency at once. It fails if any job
// fails; the error joins all failures. If ctx is cancelled, jobs already
// started are waited for before returning.
func Compute(ctx context.Context, net *network.Network, jobs []Job) ([]Result, error) {
	results := make(chan result, len(jobs))
	sem := make(chan struct{}, maxConcurrency)
	started := 0
dispatch:
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		select {
		case sem <- struct{}{}:
			started++
			go func() {
				defer func() { <-sem }()
				res, err := Run(ctx, net, job)
				results <- result{job, res, err}
			}()
		case <-ctx.Done():
			break dispatch
		}
	}

	byName := make(map[string]Result, len(jobs))
	var errs []error
	for i := 0; i < started; i++ {
		r := <-results
		if r.err != nil {
			slog.Warn("job failed", "job", r.job.Name, "err", r.err)
			errs = append(errs, fmt.Errorf("%s: %w", r.job.Name, r.err))
		} else {
			byName[r.job.Name] = r.res
		}
	}
	if started < len(jobs) {
		return nil, fmt.Errorf("%d/%d jobs not started: %w", len(jobs)-started, len(jobs), errors.Join(append([]error{ctx.Err()}, errs...)...))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%d/%d jobs failed: %w", len(errs), len(jobs), errors.Join(errs...))
	}

	out := make([]Result, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, byName[job.Name])
	}
	return out, nil
}

// Run computes one job and writes its CSV.
func Run(ctx context.Context, net *network.Network, job Job) (Result, error) {
	start := time.Now()

	tr, err := reproject.ToBNG(job.POIsCRS)
	if err != nil {
		return Result{}, err
	}
	pois, err := places.ReadPOIsGeoJSON(job.POIs, job.POIIDProperty, tr)
	if err != nil {
		return Result{}, fmt.Errorf("load pois: %w", err)
	}

	areas, err := places.ReadCentroids(job.Areas, job.AreaColumns)
	if err != nil {
		return Result{}, fmt.Errorf("load areas: %w", err)
	}

	rows, err := Measure(ctx, net, job, pois, areas)
	if err != nil {
		return Result{}, err
	}

	if err := writeReport(job, rows); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", job.Output, err)
	}

	res := Result{Job: job, POICount: len(pois), Rows: rows}
	for _, r := range rows {
		if !r.Mapped() {
			res.Unmapped++
		}
	}
	slog.Info("job complete",
		"job", job.Name,
		"pois", len(pois),
		"areas", len(areas),
		"unmapped", res.Unmapped,
		"output", job.Output,
		"elapsed", time.Since(start),
	)
	return res, nil
}

// Measure registers the POIs on the network under the job's name and joins
// every area to its nearest POIs.
func Measure(ctx context.Context, net *network.Network, job Job, pois []places.POI, areas []places.AreaCentroid) ([]report.Row, error) {
	ids, xs, ys := places.Split(pois)
	if err := net.SetPOIs(job.Name, job.SearchDistance, job.NumPOIs, ids, xs, ys); err != nil {
		return nil, err
	}

	nearest, err := net.NearestPOIs(ctx, job.SearchDistance, job.Name, job.NumPOIs)
	if err != nil {
		return nil, err
	}

	axs := make([]float64, len(areas))
	ays := make([]float64, len(areas))
	for i, a := range areas {
		axs[i] = a.X
		ays[i] = a.Y
	}
	nodes, err := net.NodeIDs(axs, ays, job.MappingDistance)
	if err != nil {
		return nil, err
	}

	return report.Join(areas, nodes, nearest)
}

func writeReport(job Job, rows []report.Row) error {
	if err := os.MkdirAll(filepath.Dir(job.Output), 0755); err != nil {
		return err
	}
	f, err := os.Create(job.Output)
	if err != nil {
		return err
	}
	if err := report.WriteCSV(f, job.NumPOIs, job.MeanColumn, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

package distances

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"resilience-distances/places"
	"resilience-distances/report"
	"resilience-distances/reproject"
)

const (
	DefaultNumPOIs        = 3
	DefaultSearchDistance = 200_000 // metres
)

// Job is one points-of-interest layer measured against one set of areas.
type Job struct {
	Name string `json:"name"`

	POIs          string `json:"pois"`
	POIsCRS       string `json:"pois_crs"`
	POIIDProperty string `json:"poi_id_property"`

	Areas       string         `json:"areas"`
	AreaColumns places.Columns `json:"area_columns"`
	// MappingDistance, when positive, leaves areas further than this from
	// any road node unmapped.
	MappingDistance float64 `json:"mapping_distance"`

	Output         string  `json:"output"`
	NumPOIs        int     `json:"num_pois"`
	SearchDistance float64 `json:"search_distance"`
	MeanColumn     string  `json:"mean_column"`
}

func (j *Job) applyDefaults(baseDir string) {
	if j.POIsCRS == "" {
		j.POIsCRS = reproject.WGS84
	}
	if j.AreaColumns == (places.Columns{}) {
		j.AreaColumns = places.LSOAColumns
	}
	if j.NumPOIs == 0 {
		j.NumPOIs = DefaultNumPOIs
	}
	if j.SearchDistance == 0 {
		j.SearchDistance = DefaultSearchDistance
	}
	if j.MeanColumn == "" {
		j.MeanColumn = report.DefaultMeanColumn
	}
	j.POIs = resolve(baseDir, j.POIs)
	j.Areas = resolve(baseDir, j.Areas)
	j.Output = resolve(baseDir, j.Output)
}

func (j *Job) validate() error {
	switch {
	case j.Name == "":
		return fmt.Errorf("job has no name")
	case j.POIs == "":
		return fmt.Errorf("job %s: pois not set", j.Name)
	case j.Areas == "":
		return fmt.Errorf("job %s: areas not set", j.Name)
	case j.Output == "":
		return fmt.Errorf("job %s: output not set", j.Name)
	case j.NumPOIs < 1:
		return fmt.Errorf("job %s: num_pois must be positive", j.Name)
	case j.SearchDistance <= 0:
		return fmt.Errorf("job %s: search_distance must be positive", j.Name)
	}
	return nil
}

func resolve(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// LoadJobs reads a JSON array of jobs. Relative paths are resolved against
// baseDir.
func LoadJobs(path, baseDir string) ([]Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var jobs []Job
	if err := json.NewDecoder(f).Decode(&jobs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	seen := make(map[string]bool)
	for i := range jobs {
		jobs[i].applyDefaults(baseDir)
		if err := jobs[i].validate(); err != nil {
			return nil, err
		}
		if seen[jobs[i].Name] {
			return nil, fmt.Errorf("duplicate job %s", jobs[i].Name)
		}
		seen[jobs[i].Name] = true
	}
	return jobs, nil
}

// NewJob returns a job with defaults applied, for ad hoc runs.
func NewJob(j Job) (Job, error) {
	j.applyDefaults("")
	return j, j.validate()
}

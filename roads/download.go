package roads

import (
	"archive/zip"
	"context"
	"fmt"
	"github.com/cenkalti/backoff/v4"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDownloadURL is the OS Data Hub download for the ESRI shapefile
// release of OS Open Roads.
const DefaultDownloadURL = "https://api.os.uk/downloads/v1/products/OpenRoads/downloads?area=GB&format=ESRI%C2%AE+Shapefile&redirect"

var maxDownloadElapsed = 5 * time.Minute

type DownloadError struct {
	StatusCode int
	Status     string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download error: %d %s", e.StatusCode, e.Status)
}

var shapefileParts = map[string]bool{".shp": true, ".shx": true, ".dbf": true, ".prj": true}

// Download fetches the OS Open Roads archive at url and extracts the RoadNode
// and RoadLink shapefiles into dir, returning the extracted paths.
func Download(ctx context.Context, httpC *http.Client, url, dir string) ([]string, error) {
	tmp, err := os.CreateTemp("", "os-open-roads-*.zip")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	policy := backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(maxDownloadElapsed))
	err = backoff.Retry(func() error {
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return backoff.Permanent(err)
		}
		if err := tmp.Truncate(0); err != nil {
			return backoff.Permanent(err)
		}
		return fetch(ctx, httpC, url, tmp)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return nil, err
	}

	if err := tmp.Sync(); err != nil {
		return nil, err
	}
	return extract(tmp.Name(), dir)
}

func fetch(ctx context.Context, httpC *http.Client, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", "resilience-distances")

	resp, err := httpC.Do(req)
	if err != nil {
		slog.Warn("download failed", "url", url, "err", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := &DownloadError{StatusCode: resp.StatusCode, Status: resp.Status}
		if resp.StatusCode >= 500 {
			slog.Warn("download failed", "url", url, "err", err)
			return err
		}
		return backoff.Permanent(err)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	slog.Info("downloaded", "url", url, "bytes", n)
	return nil
}

func extract(archive, dir string) ([]string, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var out []string
	for _, zf := range zr.File {
		name := filepath.Base(zf.Name)
		if !wanted(name) {
			continue
		}

		dst := filepath.Join(dir, name)
		if err := extractOne(zf, dst); err != nil {
			return nil, fmt.Errorf("extract %s: %w", zf.Name, err)
		}
		out = append(out, dst)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("archive has no %s or %s members", NodeSuffix, LinkSuffix)
	}
	return out, nil
}

func wanted(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if !shapefileParts[ext] {
		return false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.HasSuffix(stem, "RoadNode") || strings.HasSuffix(stem, "RoadLink")
}

func extractOne(zf *zip.File, dst string) error {
	in, err := zf.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

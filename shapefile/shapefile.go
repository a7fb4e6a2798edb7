// Package shapefile holds the attribute helpers shared by every ESRI
// shapefile reader in the module.
package shapefile

import (
	"errors"
	"fmt"
	"github.com/jonas-p/go-shp"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Reader struct {
	*shp.Reader
	Path string
}

func Open(path string) (*Reader, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Reader{Reader: r, Path: path}, nil
}

// Field finds a dBase field by name, ignoring case.
func (r *Reader) Field(name string) (int, error) {
	for i, f := range r.Fields() {
		if strings.EqualFold(FieldName(f), name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%s: missing field %q", r.Path, name)
}

func (r *Reader) String(row, field int) string {
	return strings.TrimSpace(strings.TrimRight(r.ReadAttribute(row, field), "\x00"))
}

func (r *Reader) Float(row, field int) (float64, error) {
	v := r.String(row, field)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: parse %q: %w", r.Path, row, v, err)
	}
	return f, nil
}

// FieldName strips the padding dBase leaves on field names.
func FieldName(f shp.Field) string {
	return strings.TrimRight(f.String(), "\x00 ")
}

// XY returns the planar coordinates of a point shape.
func XY(shape shp.Shape) (float64, float64, bool) {
	switch s := shape.(type) {
	case *shp.Point:
		return s.X, s.Y, true
	case *shp.PointZ:
		return s.X, s.Y, true
	case *shp.PointM:
		return s.X, s.Y, true
	}
	return 0, 0, false
}

// Writer wraps shp.Writer so that the attribute table lands in <base>.dbf,
// next to the .shp and .shx that Open expects.
type Writer struct {
	*shp.Writer
	Path   string
	closed bool
}

func Create(path string, t shp.ShapeType) (*Writer, error) {
	w, err := shp.Create(path, t)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &Writer{Writer: w, Path: path}, nil
}

// Close flushes the shapefile and moves a dBase file written as <base>dbf
// to <base>.dbf. Calling it more than once is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.Writer.Close()

	base := strings.TrimSuffix(w.Path, filepath.Ext(w.Path))
	misplaced := base + "dbf"
	if _, err := os.Stat(misplaced); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.Rename(misplaced, base+".dbf"); err != nil {
		return fmt.Errorf("close %s: %w", w.Path, err)
	}
	return nil
}

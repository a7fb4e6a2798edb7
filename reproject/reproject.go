package reproject

import (
	"fmt"
	"github.com/twpayne/go-proj/v10"
	"strings"
)

// BNG is the British National Grid, the projected CRS every layer is brought into.
const BNG = "epsg:27700"

const WGS84 = "epsg:4326"

type Transformer interface {
	// Transform takes x as easting or longitude and y as northing or latitude.
	Transform(x, y float64) (float64, float64, error)
}

type identity struct{}

func (identity) Transform(x, y float64) (float64, float64, error) { return x, y, nil }

var Identity Transformer = identity{}

// PROJ uses authority axis order, so these take latitude first.
var latFirst = map[string]bool{
	"epsg:4326": true,
	"epsg:4258": true,
	"epsg:4277": true,
}

type PROJ struct {
	src, dst string
	pj       *proj.PJ
	swapIn   bool
	swapOut  bool
}

func New(src, dst string) (Transformer, error) {
	src = Normalize(src)
	dst = Normalize(dst)
	if src == dst {
		return Identity, nil
	}

	pj, err := proj.NewCRSToCRS(src, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("create transform %s -> %s: %w", src, dst, err)
	}
	return &PROJ{
		src:     src,
		dst:     dst,
		pj:      pj,
		swapIn:  latFirst[src],
		swapOut: latFirst[dst],
	}, nil
}

// ToBNG is shorthand for New(src, BNG).
func ToBNG(src string) (Transformer, error) {
	return New(src, BNG)
}

func (t *PROJ) Transform(x, y float64) (float64, float64, error) {
	if t.swapIn {
		x, y = y, x
	}
	out, err := t.pj.Forward(proj.NewCoord(x, y, 0, 0))
	if err != nil {
		return 0, 0, fmt.Errorf("transform (%f, %f) %s -> %s: %w", x, y, t.src, t.dst, err)
	}
	if t.swapOut {
		return out.Y(), out.X(), nil
	}
	return out.X(), out.Y(), nil
}

func (t *PROJ) String() string {
	return t.src + " -> " + t.dst
}

// Normalize lowercases a CRS identifier and accepts the urn and bare-code forms
// found in GeoJSON and .prj sidecars.
func Normalize(crs string) string {
	crs = strings.ToLower(strings.TrimSpace(crs))
	switch crs {
	case "", "urn:ogc:def:crs:ogc:1.3:crs84", "crs84":
		return WGS84
	}
	if code, ok := strings.CutPrefix(crs, "urn:ogc:def:crs:epsg::"); ok {
		return "epsg:" + code
	}
	if !strings.Contains(crs, ":") {
		return "epsg:" + crs
	}
	return crs
}

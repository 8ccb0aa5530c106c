package trainkf

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/interp"
)

// ElevationProfile interpolates track elevation (m) over cumulative distance
// (m) along the route. Queries outside the surveyed range clamp to the
// nearest endpoint.
type ElevationProfile struct {
	pl         interp.PiecewiseLinear
	minX, maxX float64
}

// NewElevationProfile fits a piecewise-linear profile to the elevation
// samples. Distances must be strictly increasing and at least two samples
// are required.
func NewElevationProfile(distances, elevations []float64) (*ElevationProfile, error) {
	if len(distances) != len(elevations) {
		return nil, fmt.Errorf("elevation profile: %d distances vs %d elevations", len(distances), len(elevations))
	}
	if len(distances) < 2 {
		return nil, errors.New("elevation profile: at least two samples required")
	}
	for i := range distances {
		if math.IsNaN(distances[i]) || math.IsInf(distances[i], 0) ||
			math.IsNaN(elevations[i]) || math.IsInf(elevations[i], 0) {
			return nil, errors.New("elevation profile: non-finite sample")
		}
	}
	var p ElevationProfile
	if err := p.pl.Fit(distances, elevations); err != nil {
		return nil, fmt.Errorf("elevation profile: %w", err)
	}
	p.minX = distances[0]
	p.maxX = distances[len(distances)-1]
	return &p, nil
}

// LoadElevationProfile parses a two-column distance,elevation CSV (header
// optional) and fits a profile to it.
func LoadElevationProfile(path string) (*ElevationProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.Comment = '#'
	var xs, ys []float64
	for row := 0; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, row, err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("%s: row %d: expected 2 columns", path, row)
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if errX != nil || errY != nil {
			if row == 0 {
				// Header row.
				continue
			}
			return nil, fmt.Errorf("%s: row %d: non-numeric sample", path, row)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return NewElevationProfile(xs, ys)
}

// Elevation returns the interpolated elevation at distance x.
func (p *ElevationProfile) Elevation(x float64) float64 {
	if x < p.minX {
		x = p.minX
	} else if x > p.maxX {
		x = p.maxX
	}
	return p.pl.Predict(x)
}

// GradientForce returns the net slope-induced force (N) on a train whose
// front is at the given cumulative distance. The force is the weight
// component of the elevation difference between rear and front spread over
// the train length: positive downhill, negative climbing.
func (p *ElevationProfile) GradientForce(frontM float64, params TrainParams) float64 {
	rise := p.Elevation(frontM-params.LengthM) - p.Elevation(frontM)
	return params.MassKg * gravity * rise / params.LengthM
}

package trainkf

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// JourneyLog is a parsed per-journey measurement log. Observations carry the
// derived channels the filter consumes; the logged instrumented energy, when
// present, is retained for comparison and plotting only and is never fed to
// the update step.
type JourneyLog struct {
	ID           string
	Time         []float64 // s, as logged
	Distance     []float64 // m, cumulative along the track
	Observations []Observation
	Energy       []float64 // J; nil when the log has no energy column
}

// journey log column names. Speed is logged in km/h, notch as an integer
// throttle position 0–8, brake as a fraction of full service braking.
const (
	colTime     = "time"
	colSpeed    = "speed"
	colNotch    = "notch"
	colBrake    = "brake"
	colDistance = "distance"
	colEnergy   = "energy"
)

const kmhToMs = 1.0 / 3.6

// LoadJourneyLog parses a per-journey CSV or TSV log (delimiter chosen by the
// file extension) and derives the filter's observation channels: speed
// converted from km/h to m/s and control effort derived from the notch and
// brake columns through the train's power curve. Gradient force starts at
// zero; attach an elevation profile to fill it in. A non-finite or
// unparseable field is a load error naming the offending row.
func LoadJourneyLog(path string, params TrainParams) (*JourneyLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		r.Comma = '\t'
	}
	r.TrimLeadingSpace = true
	r.Comment = '#'

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", path, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colTime, colSpeed, colNotch, colBrake, colDistance} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, required)
		}
	}
	_, hasEnergy := cols[colEnergy]

	log := &JourneyLog{ID: journeyID(path)}
	for row := 1; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, row, err)
		}
		field := func(name string) (float64, error) {
			i := cols[name]
			if i >= len(record) {
				return 0, fmt.Errorf("%s: row %d: missing field %q", path, row, name)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil {
				return 0, fmt.Errorf("%s: row %d: field %q: %w", path, row, name, err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, fmt.Errorf("%s: row %d: field %q: %w", path, row, name, ErrMalformedObservation)
			}
			return v, nil
		}

		t, err := field(colTime)
		if err != nil {
			return nil, err
		}
		speedKmh, err := field(colSpeed)
		if err != nil {
			return nil, err
		}
		notch, err := field(colNotch)
		if err != nil {
			return nil, err
		}
		brake, err := field(colBrake)
		if err != nil {
			return nil, err
		}
		dist, err := field(colDistance)
		if err != nil {
			return nil, err
		}

		log.Time = append(log.Time, t)
		log.Distance = append(log.Distance, dist)
		log.Observations = append(log.Observations, Observation{
			Speed:   speedKmh * kmhToMs,
			Control: params.ControlFromNotch(int(notch), brake),
		})
		if hasEnergy {
			e, err := field(colEnergy)
			if err != nil {
				return nil, err
			}
			log.Energy = append(log.Energy, e)
		}
	}
	if len(log.Observations) == 0 {
		return nil, fmt.Errorf("%s: no records", path)
	}
	return log, nil
}

// AttachGradient fills each observation's gradient force from the elevation
// profile at the logged distance.
func (l *JourneyLog) AttachGradient(profile *ElevationProfile, params TrainParams) {
	for i := range l.Observations {
		l.Observations[i].GradientForce = profile.GradientForce(l.Distance[i], params)
	}
}

// InitialEnergy returns the zero-referenced initial energy for the filter
// seed: the first logged energy sample when the log has one, otherwise zero.
func (l *JourneyLog) InitialEnergy() float64 {
	if len(l.Energy) > 0 {
		return l.Energy[0]
	}
	return 0
}

// journeyID derives the journey identifier from the log file name.
func journeyID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

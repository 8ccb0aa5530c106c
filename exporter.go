package trainkf

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"
)

// Exporter defines an export interface.
type Exporter interface {
	Write(Estimate) error
	Close() error
}

// CSVExporter writes each estimate's state components with their ±2σ bounds.
type CSVExporter struct {
	delimiter string
	hdlr      *os.File
}

// Close writes the closing comment and closes the file. The handle is closed
// even when the final write fails.
func (e CSVExporter) Close() error {
	err := e.WriteRawLn(fmt.Sprintf("# Closing date (UTC): %s", time.Now().UTC()))
	return errors.Join(err, e.hdlr.Close())
}

// Write writes the estimate to the CSV file.
func (e CSVExporter) Write(est Estimate) error {
	r := est.State().Len()
	vals := make([]string, r*3)
	for i := 0; i < r*3; i += 3 {
		vals[i] = fmt.Sprintf("%f", est.State().AtVec(i/3))
		covar := 2 * math.Sqrt(est.Covariance().At(i/3, i/3))
		vals[i+1] = fmt.Sprintf("%f", covar)
		vals[i+2] = fmt.Sprintf("%f", -1*covar)
	}
	_, err := e.hdlr.WriteString(strings.Join(vals, e.delimiter) + "\n")
	return err
}

// WriteRawLn writes a raw line to the CSV file.
func (e CSVExporter) WriteRawLn(s string) error {
	_, err := e.hdlr.WriteString(s + "\n")
	return err
}

// NewCSVExporter initializes a new CSV export.
func NewCSVExporter(headers []string, filepath, filename string) (e *CSVExporter, err error) {
	f, err := os.Create(fmt.Sprintf("%s/%s", filepath, filename))
	if err != nil {
		return
	}
	delimiter := ","
	// Header
	hdr := make([]string, len(headers)*3)
	for i := 0; i < len(headers)*3; i += 3 {
		hdr[i] = headers[i/3]
		hdr[i+1] = hdr[i] + "+2s"
		hdr[i+2] = hdr[i] + "-2s"
	}
	f.WriteString(fmt.Sprintf("# Creation date (UTC): %s\n%s\n", time.Now().UTC(), strings.Join(hdr, delimiter)))
	e = &CSVExporter{delimiter, f}
	return
}

// StateHeaders are the export column names for the train state vector.
var StateHeaders = []string{"speed", "control", "gradient_force", "energy"}

// ExportJourney writes a journey's full estimate trajectory to
// <dir>/<journeyID>.csv with ±2σ bounds per component.
func ExportJourney(res *Result, dir string) error {
	e, err := NewCSVExporter(StateHeaders, dir, res.JourneyID+".csv")
	if err != nil {
		return err
	}
	for _, est := range res.Estimates {
		if err := e.Write(est); err != nil {
			e.Close()
			return err
		}
	}
	if err := e.WriteRawLn(fmt.Sprintf("# Final cumulative energy (J): %f", res.FinalEnergy)); err != nil {
		e.Close()
		return err
	}
	return e.Close()
}

package trainkf

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RenderJourneyPNG writes two static plots for a filtered journey into dir:
// <journeyID>_speed.png overlaying observed and filtered speed, and
// <journeyID>_energy.png with the filtered cumulative energy (overlaid with
// the logged instrumented energy when the log carries one). The journey log
// may be nil when plotting a simulated run; only the result is required.
func RenderJourneyPNG(log *JourneyLog, res *Result, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	pSpeed := plot.New()
	pSpeed.Title.Text = fmt.Sprintf("Journey %s: speed", res.JourneyID)
	pSpeed.X.Label.Text = "step"
	pSpeed.Y.Label.Text = "speed (m/s)"

	if log != nil {
		obsPts := make(plotter.XYs, len(log.Observations))
		for i, o := range log.Observations {
			obsPts[i].X = float64(i)
			obsPts[i].Y = o.Speed
		}
		obsLine, err := plotter.NewLine(obsPts)
		if err != nil {
			return err
		}
		obsLine.Color = color.RGBA{R: 196, G: 196, B: 196, A: 255}
		obsLine.Width = vg.Points(1)
		pSpeed.Add(obsLine)
		pSpeed.Legend.Add("observed", obsLine)
	}

	estPts := make(plotter.XYs, len(res.States))
	for i, s := range res.States {
		estPts[i].X = float64(i)
		estPts[i].Y = s.Speed
	}
	estLine, err := plotter.NewLine(estPts)
	if err != nil {
		return err
	}
	estLine.Color = color.RGBA{R: 217, G: 72, B: 47, A: 255}
	estLine.Width = vg.Points(1)
	pSpeed.Add(estLine)
	pSpeed.Legend.Add("filtered", estLine)

	speedFile := filepath.Join(dir, fmt.Sprintf("%s_speed.png", res.JourneyID))
	if err := pSpeed.Save(14*vg.Inch, 6*vg.Inch, speedFile); err != nil {
		return fmt.Errorf("saving %s: %w", speedFile, err)
	}

	pEnergy := plot.New()
	pEnergy.Title.Text = fmt.Sprintf("Journey %s: cumulative energy", res.JourneyID)
	pEnergy.X.Label.Text = "step"
	pEnergy.Y.Label.Text = "energy (J)"

	if log != nil && len(log.Energy) > 0 {
		loggedPts := make(plotter.XYs, len(log.Energy))
		for i, e := range log.Energy {
			loggedPts[i].X = float64(i)
			loggedPts[i].Y = e
		}
		loggedLine, err := plotter.NewLine(loggedPts)
		if err != nil {
			return err
		}
		loggedLine.Color = color.RGBA{R: 196, G: 196, B: 196, A: 255}
		loggedLine.Width = vg.Points(1)
		pEnergy.Add(loggedLine)
		pEnergy.Legend.Add("instrumented", loggedLine)
	}

	energyPts := make(plotter.XYs, len(res.States))
	for i, s := range res.States {
		energyPts[i].X = float64(i)
		energyPts[i].Y = s.Energy
	}
	energyLine, err := plotter.NewLine(energyPts)
	if err != nil {
		return err
	}
	energyLine.Color = color.RGBA{R: 62, G: 96, B: 178, A: 255}
	energyLine.Width = vg.Points(1)
	pEnergy.Add(energyLine)
	pEnergy.Legend.Add("filtered", energyLine)

	energyFile := filepath.Join(dir, fmt.Sprintf("%s_energy.png", res.JourneyID))
	if err := pEnergy.Save(14*vg.Inch, 6*vg.Inch, energyFile); err != nil {
		return fmt.Errorf("saving %s: %w", energyFile, err)
	}
	return nil
}

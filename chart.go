package trainkf

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteJourneyChart renders an interactive HTML line chart of the journey's
// observed vs filtered speed, with the filtered energy as a second series.
// The journey log may be nil for simulated runs.
func WriteJourneyChart(log *JourneyLog, res *Result, w io.Writer) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: fmt.Sprintf("Journey %s", res.JourneyID), Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Journey %s", res.JourneyID), Subtitle: fmt.Sprintf("final energy %.3e J over %d steps", res.FinalEnergy, len(res.States))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "step"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "speed (m/s)"}),
	)

	steps := make([]string, len(res.States))
	filtered := make([]opts.LineData, len(res.States))
	energy := make([]opts.LineData, len(res.States))
	for i, s := range res.States {
		steps[i] = fmt.Sprintf("%d", i)
		filtered[i] = opts.LineData{Value: s.Speed}
		energy[i] = opts.LineData{Value: s.Energy}
	}
	line.SetXAxis(steps)

	if log != nil {
		observed := make([]opts.LineData, len(log.Observations))
		for i, o := range log.Observations {
			observed[i] = opts.LineData{Value: o.Speed}
		}
		line.AddSeries("observed speed", observed)
	}
	line.AddSeries("filtered speed", filtered)
	line.AddSeries("filtered energy", energy)
	return line.Render(w)
}

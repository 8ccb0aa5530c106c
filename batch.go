package trainkf

import (
	"runtime"
	"sync"
)

// Journey bundles everything needed to filter one logged run.
type Journey struct {
	ID            string
	Observations  []Observation
	InitialEnergy float64 // J, zero-referenced
	Params        TrainParams
}

// BatchResult is the outcome of one journey in a roster run.
type BatchResult struct {
	JourneyID string
	Result    *Result // nil when Err is set
	Err       error
}

// RunBatch filters a roster of journeys on a bounded worker pool. Journeys
// are mutually independent, so a journey that fails (malformed observations,
// bad parameters, numerical divergence) reports its error in its own
// BatchResult and never aborts its siblings. Results are returned in roster
// order. workers ≤ 0 uses one worker per CPU.
func RunBatch(journeys []Journey, cfg Config, workers int) []BatchResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(journeys) {
		workers = len(journeys)
	}
	results := make([]BatchResult, len(journeys))
	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				j := journeys[i]
				res, err := RunJourney(j.ID, j.Observations, j.InitialEnergy, j.Params, cfg)
				results[i] = BatchResult{JourneyID: j.ID, Result: res, Err: err}
			}
		}()
	}
	for i := range journeys {
		idx <- i
	}
	close(idx)
	wg.Wait()
	return results
}

package trainkf

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Dt != 1.0 {
		t.Fatalf("dt %g", cfg.Dt)
	}
	if r, _ := cfg.Q.Dims(); r != StateSize {
		t.Fatalf("Q is %dx%d", r, r)
	}
	if r, _ := cfg.R.Dims(); r != MeasSize {
		t.Fatalf("R is %dx%d", r, r)
	}
	if cfg.Q.At(3, 3) != 10 || cfg.R.At(0, 0) != 0.1 {
		t.Fatal("default noise diagonals")
	}
	filled := Config{}.withDefaults()
	if filled.Dt != cfg.Dt || filled.Sigma != cfg.Sigma || filled.Q == nil || filled.R == nil || filled.P0 == nil {
		t.Fatal("zero config not filled with defaults")
	}
}

func TestRunJourneyValidation(t *testing.T) {
	p := testParams(t)
	cfg := DefaultConfig()
	if _, err := RunJourney("j", nil, 0, p, cfg); err == nil {
		t.Fatal("empty journey accepted")
	}
	bad := p
	bad.MassKg = 0
	obs := []Observation{{Speed: 12}}
	if _, err := RunJourney("j", obs, 0, bad, cfg); err == nil {
		t.Fatal("invalid parameters accepted")
	}
	badCfg := cfg
	badCfg.Q = Identity(3)
	if _, err := RunJourney("j", obs, 0, p, badCfg); err == nil {
		t.Fatal("mis-shaped Q accepted")
	}
}

func TestRunJourneyMalformedObservationNamesStep(t *testing.T) {
	p := testParams(t)
	obs := []Observation{
		{Speed: 12, Control: 0.5},
		{Speed: 12.1, Control: 0.5},
		{Speed: math.NaN(), Control: 0.5},
	}
	_, err := RunJourney("j42", obs, 0, p, DefaultConfig())
	if err == nil {
		t.Fatal("NaN observation accepted")
	}
	if !strings.Contains(err.Error(), "j42") || !strings.Contains(err.Error(), "step 2") {
		t.Fatalf("error does not name journey and step: %v", err)
	}
}

func TestRunJourneyShapes(t *testing.T) {
	p := testParams(t)
	obs := make([]Observation, 30)
	for k := range obs {
		obs[k] = Observation{Speed: 12, Control: 0.5}
	}
	res, err := RunJourney("shape", obs, 2500, p, DefaultConfig())
	if err != nil {
		t.Fatalf("%v", err)
	}
	if res.JourneyID != "shape" {
		t.Fatalf("journey id %q", res.JourneyID)
	}
	if len(res.States) != len(obs) || len(res.Estimates) != len(obs) {
		t.Fatalf("got %d states and %d estimates for %d observations", len(res.States), len(res.Estimates), len(obs))
	}
	if res.FinalEnergy != res.States[len(res.States)-1].Energy {
		t.Fatal("final energy is not the last state's energy")
	}
	if res.FinalEnergy <= 2500 {
		t.Fatalf("powering journey ended with energy %g", res.FinalEnergy)
	}
}

// Observations replayed from an exact model propagation keep the innovations
// near zero, so the energy trace reduces to the model's own accrual: strictly
// increasing while powering above the low-speed regime.
func TestRunJourneyEnergyMonotone(t *testing.T) {
	p := testParams(t)
	x := mat.NewVecDense(StateSize, []float64{12, 0.5, 0, 0})
	obs := make([]Observation, 25)
	for k := range obs {
		obs[k] = Observation{
			Speed:         x.AtVec(StateSpeed),
			Control:       x.AtVec(StateControl),
			GradientForce: x.AtVec(StateGradientForce),
		}
		x = p.Transition(x, 1)
	}
	res, err := RunJourney("mono", obs, 0, p, DefaultConfig())
	if err != nil {
		t.Fatalf("%v", err)
	}
	for k := 1; k < len(res.States); k++ {
		if res.States[k].Energy <= res.States[k-1].Energy {
			t.Fatalf("energy fell at step %d: %g -> %g", k, res.States[k-1].Energy, res.States[k].Energy)
		}
	}
}

// Under full braking nothing powers, so the filtered energy component must
// never rise: the transition carries energy forward unchanged and energy is
// not observed, so no Kalman correction may push it up either.
func TestRunJourneyBrakingHoldsEnergy(t *testing.T) {
	p := testParams(t)
	obs := make([]Observation, 25)
	v := 20.0
	for k := range obs {
		obs[k] = Observation{Speed: v, Control: -1}
		v *= 0.95
	}
	const initialEnergy = 7.5e6
	res, err := RunJourney("brake", obs, initialEnergy, p, DefaultConfig())
	if err != nil {
		t.Fatalf("%v", err)
	}
	// Slack covers recombination round-off at this energy magnitude, orders
	// below any real accrual.
	const slack = 1e-2
	for k := 1; k < len(res.States); k++ {
		if res.States[k].Energy > res.States[k-1].Energy+slack {
			t.Fatalf("energy rose under braking at step %d: %g -> %g", k, res.States[k-1].Energy, res.States[k].Energy)
		}
	}
	if math.Abs(res.FinalEnergy-initialEnergy) > 1 {
		t.Fatalf("braking run drifted the energy estimate: %g", res.FinalEnergy)
	}
}

// A constant speed reading pulls the estimate onto the measured value within a
// few dozen steps despite the resistive model pulling it down.
func TestRunJourneyConvergesToConstantSpeed(t *testing.T) {
	p := testParams(t)
	obs := make([]Observation, 20)
	for k := range obs {
		obs[k] = Observation{Speed: 5}
	}
	// Seed the filter well off the measured speed.
	obs[0].Speed = 0
	res, err := RunJourney("conv", obs, 0, p, DefaultConfig())
	if err != nil {
		t.Fatalf("%v", err)
	}
	final := res.States[len(res.States)-1].Speed
	if math.Abs(final-5) > 0.05 {
		t.Fatalf("speed estimate %g did not settle near 5", final)
	}
}

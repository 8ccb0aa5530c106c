package trainkf

import (
	"gonum.org/v1/gonum/mat"
)

// Schedule returns a scalar input for step k, driving simulated control or
// gradient profiles.
type Schedule func(k int) float64

// Constant returns a schedule that always yields v.
func Constant(v float64) Schedule {
	return func(int) float64 { return v }
}

// SimulatedJourney is a synthetic ground-truth run with noisy observations,
// for exercising the filter when no logged journey is at hand.
type SimulatedJourney struct {
	Truth         []State
	Observations  []Observation
	InitialEnergy float64
}

// SimulateJourney integrates the dynamics model for the given number of
// steps from initialSpeed, with control and gradient force following the
// provided schedules, and corrupts the observed channels with white Gaussian
// noise drawn from cfg.R. The seed makes runs reproducible.
func SimulateJourney(params TrainParams, cfg Config, steps int, initialSpeed float64, control, gradient Schedule, seed uint64) *SimulatedJourney {
	cfg = cfg.withDefaults()
	noise := NewAWGN(cfg.Q, cfg.R, seed)

	sim := &SimulatedJourney{
		Truth:        make([]State, 0, steps),
		Observations: make([]Observation, 0, steps),
	}
	x := mat.NewVecDense(StateSize, []float64{initialSpeed, control(0), gradient(0), 0})
	for k := 0; k < steps; k++ {
		x.SetVec(StateControl, control(k))
		x.SetVec(StateGradientForce, gradient(k))
		sim.Truth = append(sim.Truth, State{
			Speed:         x.AtVec(StateSpeed),
			Control:       x.AtVec(StateControl),
			GradientForce: x.AtVec(StateGradientForce),
			Energy:        x.AtVec(StateEnergy),
		})
		z := Observe(x)
		z.AddVec(z, noise.Measurement(k))
		sim.Observations = append(sim.Observations, Observation{
			Speed:         z.AtVec(0),
			Control:       z.AtVec(1),
			GradientForce: z.AtVec(2),
		})
		x = params.Transition(x, cfg.Dt)
	}
	return sim
}

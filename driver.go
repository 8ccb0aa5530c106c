package trainkf

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Observation is one logged record fed to the filter.
type Observation struct {
	Speed         float64 // m/s
	Control       float64 // dimensionless, negative = braking
	GradientForce float64 // N
}

// isFinite reports whether every channel of the observation is a finite real.
func (o Observation) isFinite() bool {
	for _, v := range [...]float64{o.Speed, o.Control, o.GradientForce} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// vector returns the observation as a measurement vector.
func (o Observation) vector() *mat.VecDense {
	return mat.NewVecDense(MeasSize, []float64{o.Speed, o.Control, o.GradientForce})
}

// State is one filtered state estimate.
type State struct {
	Speed         float64 // m/s
	Control       float64
	GradientForce float64 // N
	Energy        float64 // J, cumulative
}

// stateOf extracts the state components from an estimate.
func stateOf(est Estimate) State {
	x := est.State()
	return State{
		Speed:         x.AtVec(StateSpeed),
		Control:       x.AtVec(StateControl),
		GradientForce: x.AtVec(StateGradientForce),
		Energy:        x.AtVec(StateEnergy),
	}
}

// Config carries the filter tuning for a journey run. The zero value of any
// field falls back to its default.
type Config struct {
	Dt    float64       // time step, seconds (default 1.0)
	Sigma SigmaConfig   // sigma point spread parameters
	Q     mat.Symmetric // 4×4 process noise (default diag(0.01, 0.01, 1, 10))
	R     mat.Symmetric // 3×3 measurement noise (default diag(0.1, 1, 1))
	P0    mat.Symmetric // 4×4 initial covariance (default identity)
}

// DefaultConfig returns the journey filter defaults.
func DefaultConfig() Config {
	return Config{
		Dt:    1.0,
		Sigma: DefaultSigmaConfig(),
		Q:     Diagonal(0.01, 0.01, 1, 10),
		R:     Diagonal(0.1, 1, 1),
		P0:    Identity(StateSize),
	}
}

// withDefaults fills any zero-valued field from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Dt <= 0 {
		c.Dt = def.Dt
	}
	if c.Sigma == (SigmaConfig{}) {
		c.Sigma = def.Sigma
	}
	if c.Q == nil {
		c.Q = def.Q
	}
	if c.R == nil {
		c.R = def.R
	}
	if c.P0 == nil {
		c.P0 = def.P0
	}
	return c
}

// Result is a journey's filtered trajectory: one state per input record, in
// input order, plus the final cumulative energy as a scalar summary.
type Result struct {
	JourneyID   string
	States      []State
	Estimates   []Estimate
	FinalEnergy float64 // J
}

// RunJourney filters one journey's ordered observation sequence. The initial
// state is seeded from the first record (speed, control, gradient force) and
// the externally supplied zero-referenced initial energy. Steps are strictly
// sequential; a numerically fatal step stops the journey and the returned
// error names the journey and step, wrapping a DivergenceError.
func RunJourney(journeyID string, obs []Observation, initialEnergy float64, params TrainParams, cfg Config) (*Result, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("journey %q: no observations", journeyID)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("journey %q: %w", journeyID, err)
	}
	cfg = cfg.withDefaults()
	if err := checkCovarShapes(cfg); err != nil {
		return nil, fmt.Errorf("journey %q: %w", journeyID, err)
	}
	if !obs[0].isFinite() {
		return nil, fmt.Errorf("journey %q: step 0: %w", journeyID, ErrMalformedObservation)
	}

	x0 := mat.NewVecDense(StateSize, []float64{
		obs[0].Speed, obs[0].Control, obs[0].GradientForce, initialEnergy,
	})
	kf, err := NewUnscented(x0, cfg.P0, params.TransitionFunc(cfg.Dt), Observe, MeasSize, NewNoiseless(cfg.Q, cfg.R), cfg.Sigma)
	if err != nil {
		return nil, fmt.Errorf("journey %q: %w", journeyID, err)
	}

	res := &Result{
		JourneyID: journeyID,
		States:    make([]State, 0, len(obs)),
		Estimates: make([]Estimate, 0, len(obs)),
	}
	for k, o := range obs {
		if !o.isFinite() {
			return nil, fmt.Errorf("journey %q: step %d: %w", journeyID, k, ErrMalformedObservation)
		}
		if err := kf.Predict(); err != nil {
			return nil, fmt.Errorf("journey %q: %w", journeyID, err)
		}
		est, err := kf.Update(o.vector())
		if err != nil {
			return nil, fmt.Errorf("journey %q: %w", journeyID, err)
		}
		res.States = append(res.States, stateOf(est))
		res.Estimates = append(res.Estimates, est)
	}
	res.FinalEnergy = res.States[len(res.States)-1].Energy
	return res, nil
}

// checkCovarShapes rejects malformed covariance configuration at
// construction, before any filter step runs.
func checkCovarShapes(cfg Config) error {
	if r, _ := cfg.Q.Dims(); r != StateSize {
		return fmt.Errorf("%sQ(%dx%d) state(%dx1)", dimErrMsg, r, r, StateSize)
	}
	if r, _ := cfg.R.Dims(); r != MeasSize {
		return fmt.Errorf("%sR(%dx%d) measurement(%dx1)", dimErrMsg, r, r, MeasSize)
	}
	if r, _ := cfg.P0.Dims(); r != StateSize {
		return fmt.Errorf("%sP0(%dx%d) state(%dx1)", dimErrMsg, r, r, StateSize)
	}
	return nil
}

// IsDivergence reports whether err stems from a numerically fatal filter step.
func IsDivergence(err error) bool {
	var d DivergenceError
	return errors.As(err, &d)
}

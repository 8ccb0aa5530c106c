package trainkf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// State vector layout. The dimension is fixed at 4 for the lifetime of a
// filter instance.
const (
	StateSpeed         = 0 // m/s
	StateControl       = 1 // dimensionless effort in [-1, 1], negative = braking
	StateGradientForce = 2 // N, signed
	StateEnergy        = 3 // J, cumulative
)

// StateSize is the train state vector dimension.
const StateSize = 4

// MeasSize is the observation vector dimension: speed, control and gradient
// force. Instrumented energy exists in the logged series but is deliberately
// never fed to the update step; it is inferred through the process model only.
const MeasSize = 3

const (
	gravity = 9.80665 // m/s²

	// lowSpeedRegime is the speed (m/s) at or below which the low-speed
	// dynamics apply. The boundary is inclusive: exactly 10 m/s takes the
	// low-speed branch.
	lowSpeedRegime = 10.0

	// controlDeadband suppresses coasting noise from accruing energy.
	controlDeadband = 1e-4

	// ratedPowerThresholdKW decides the locomotive count: consists rated
	// above this run with two locomotives.
	ratedPowerThresholdKW = 2500.0

	// defaultBrakeCoeff is the linear braking power magnitude. A rough
	// estimate with no principled derivation, hence tunable per train.
	defaultBrakeCoeff = 2000.0
)

// DefaultPowerCurve maps a throttle notch (0–8) to control effort.
var DefaultPowerCurve = [9]float64{0, 0.125, 0.25, 0.375, 0.5, 0.625, 0.75, 0.875, 1}

// TrainParams are the immutable per-journey train parameters. Construct with
// NewTrainParams; all fields are value types so a copy is safe to share.
type TrainParams struct {
	MassKg     float64    // consist mass, kg
	LengthM    float64    // consist length, m
	R0, R1, R2 float64    // quadratic resistance law coefficients
	LocoCount  int        // 1 or 2
	BrakeCoeff float64    // linear braking power magnitude
	PowerCurve [9]float64 // notch → control effort
}

// NewTrainParams derives per-journey parameters from the roster record:
// mass in tonnes, consist length in metres, resistance coefficients and the
// locomotive rated power in kW (above 2500 kW the consist runs two units).
func NewTrainParams(massTonnes, lengthM, r0, r1, r2, ratedPowerKW float64) (TrainParams, error) {
	p := TrainParams{
		MassKg:     massTonnes * 1000,
		LengthM:    lengthM,
		R0:         r0,
		R1:         r1,
		R2:         r2,
		LocoCount:  1,
		BrakeCoeff: defaultBrakeCoeff,
		PowerCurve: DefaultPowerCurve,
	}
	if ratedPowerKW > ratedPowerThresholdKW {
		p.LocoCount = 2
	}
	if err := p.Validate(); err != nil {
		return TrainParams{}, err
	}
	return p, nil
}

// Validate rejects parameters the dynamics model cannot run with.
func (p TrainParams) Validate() error {
	if p.MassKg <= 0 {
		return fmt.Errorf("train mass %g kg must be positive", p.MassKg)
	}
	if p.LengthM <= 0 {
		return fmt.Errorf("train length %g m must be positive", p.LengthM)
	}
	if p.LocoCount != 1 && p.LocoCount != 2 {
		return fmt.Errorf("locomotive count %d must be 1 or 2", p.LocoCount)
	}
	return nil
}

// Resistance returns the running resistance r0 + r1·v + r2·v² in newtons.
func Resistance(v, r0, r1, r2 float64) float64 {
	return r0 + r1*v + r2*v*v
}

// TractivePower returns the power (W) produced by the locomotives for the
// given control effort. Powering follows a quadratic-plus-linear fit to the
// traction curve; braking is a linear approximation. The discontinuity at
// zero is a regime switch, not a smoothness defect.
func (p TrainParams) TractivePower(control float64) float64 {
	lc := float64(p.LocoCount)
	if control > 0 {
		return lc * 1000 * (1971*control*control + 341.3*control)
	}
	return lc * p.BrakeCoeff * control
}

// Transition advances the state one explicit Euler step of dt seconds.
// Below 10 m/s (inclusive) the tractive force divides by 10 instead of the
// speed, which keeps the step finite near standstill, and energy accrual is
// scaled down proportional to speed. Energy accrues only while powering
// beyond the control dead-band. Control and gradient force carry forward
// unchanged: their time variation is modeled entirely through process noise.
func (p TrainParams) Transition(x *mat.VecDense, dt float64) *mat.VecDense {
	v := x.AtVec(StateSpeed)
	c := x.AtVec(StateControl)
	g := x.AtVec(StateGradientForce)
	e := x.AtVec(StateEnergy)

	power := p.TractivePower(c)
	res := Resistance(v, p.R0, p.R1, p.R2)

	var force float64
	if v > lowSpeedRegime {
		force = power/v - res + g
	} else {
		force = power/lowSpeedRegime - res + g
	}
	vNext := v + force*dt/p.MassKg

	eNext := e
	if c > controlDeadband {
		if v > lowSpeedRegime {
			eNext = e + power*dt
		} else {
			eNext = e + power*(v/lowSpeedRegime)*dt
		}
	}
	return mat.NewVecDense(StateSize, []float64{vNext, c, g, eNext})
}

// TransitionFunc binds the parameters and time step into the signature the
// filter propagates.
func (p TrainParams) TransitionFunc(dt float64) TransitionFunc {
	return func(x *mat.VecDense) *mat.VecDense {
		return p.Transition(x, dt)
	}
}

// Observe projects a state vector onto its observed channels: speed, control
// and gradient force.
func Observe(x *mat.VecDense) *mat.VecDense {
	return mat.NewVecDense(MeasSize, []float64{
		x.AtVec(StateSpeed),
		x.AtVec(StateControl),
		x.AtVec(StateGradientForce),
	})
}

// ControlFromNotch derives the control effort from the logged throttle notch
// and brake fraction. A positive notch takes precedence; otherwise the brake
// fraction maps to negative effort.
func (p TrainParams) ControlFromNotch(notch int, brake float64) float64 {
	if notch > 0 {
		if notch > 8 {
			notch = 8
		}
		return p.PowerCurve[notch]
	}
	if brake > 0 {
		return -brake
	}
	return 0
}

package trainkf

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SigmaConfig holds the sigma point spread parameters.
type SigmaConfig struct {
	Alpha float64 // spread of the points around the mean, in (0, 1)
	Beta  float64 // prior distribution skew correction, 2 for Gaussian priors
	Kappa float64 // secondary scaling, usually 0
}

// DefaultSigmaConfig returns the spread parameters used for train journeys.
func DefaultSigmaConfig() SigmaConfig {
	return SigmaConfig{Alpha: 1e-3, Beta: 2, Kappa: 0}
}

// NewUnscented returns a new unscented Kalman filter seeded with the initial
// mean x0 and covariance P0. The transition and observation functions are
// fixed for the lifetime of the filter, as is the state dimension.
// Parameters:
// - x0: initial state estimate
// - P0: initial covariance symmetric matrix
// - f: state transition function
// - h: observation function (state space → measurement space)
// - measSize: number of rows of the measurement vector
// - noise: Noise (only the Q and R matrices are consumed)
func NewUnscented(x0 *mat.VecDense, P0 mat.Symmetric, f TransitionFunc, h ObservationFunc, measSize int, noise Noise, cfg SigmaConfig) (*Unscented, error) {
	if f == nil || h == nil {
		return nil, errors.New("transition and observation functions must be specified")
	}
	if measSize <= 0 {
		return nil, fmt.Errorf("measurement size %d must be positive", measSize)
	}
	if err := checkMatDims(x0, P0, "x0", "P0", rows2cols); err != nil {
		return nil, err
	}
	if err := checkMatDims(noise.ProcessMatrix(), P0, "Q", "P0", rowsAndcols); err != nil {
		return nil, err
	}
	if rR, _ := noise.MeasurementMatrix().Dims(); rR != measSize {
		return nil, fmt.Errorf("%sR(%dx...) measurement(%dx1)", dimErrMsg, rR, measSize)
	}
	if cfg.Alpha <= 0 || cfg.Alpha >= 1 {
		return nil, fmt.Errorf("sigma point spread α=%g not in (0,1)", cfg.Alpha)
	}
	n := x0.Len()
	P := mat.NewSymDense(n, nil)
	P.CopySym(P0)
	return &Unscented{
		f:         f,
		h:         h,
		Noise:     noise,
		cfg:       cfg,
		stateSize: n,
		measSize:  measSize,
		x:         mat.VecDenseCopyOf(x0),
		P:         P,
	}, nil
}

// Unscented is a derivative-free sigma-point Kalman filter over an arbitrary
// nonlinear transition and observation pair. Use NewUnscented to initialize.
// One instance is exclusively owned by the caller driving it and must not be
// shared across concurrent callers without external synchronization.
type Unscented struct {
	f         TransitionFunc
	h         ObservationFunc
	Noise     Noise
	cfg       SigmaConfig
	stateSize int
	measSize  int

	x *mat.VecDense // current mean
	P *mat.SymDense // current covariance

	// predicted guards the strict Predict/Update alternation, the same way
	// the Prepare/Update pair is guarded in a hybrid CKF.
	predicted bool
	xPred     *mat.VecDense
	PPred     *mat.SymDense
	step      int
}

func (kf *Unscented) String() string {
	return fmt.Sprintf("Unscented [k=%d, n=%d, m=%d]\nα=%g β=%g κ=%g\n%s",
		kf.step, kf.stateSize, kf.measSize, kf.cfg.Alpha, kf.cfg.Beta, kf.cfg.Kappa, kf.Noise)
}

// SetNoise updates the Noise.
func (kf *Unscented) SetNoise(n Noise) {
	kf.Noise = n
}

// GetNoise returns the Noise.
func (kf *Unscented) GetNoise() Noise {
	return kf.Noise
}

// State returns a copy of the current state estimate.
func (kf *Unscented) State() *mat.VecDense {
	return mat.VecDenseCopyOf(kf.x)
}

// Covariance returns the current covariance.
func (kf *Unscented) Covariance() mat.Symmetric {
	return kf.P
}

// Predict advances the working mean and covariance one time step through the
// transition function: sigma points are generated from the current (x, P),
// propagated, and recombined with the process noise Q folded in. Calling
// Predict twice without an interleaved Update is an error.
func (kf *Unscented) Predict() error {
	if kf.predicted {
		return errors.New("predict called twice without an update")
	}
	sp, err := NewSigmaPoints(kf.x, kf.P, kf.cfg.Alpha, kf.cfg.Beta, kf.cfg.Kappa)
	if err != nil {
		return DivergenceError{kf.step, err}
	}
	xPred, PPred, _, err := UnscentedTransform(sp, kf.f, kf.Noise.ProcessMatrix())
	if err != nil {
		return DivergenceError{kf.step, err}
	}
	if !vecIsFinite(xPred) || !matIsFinite(PPred) {
		return DivergenceError{kf.step, errors.New("non-finite propagated state")}
	}
	kf.xPred = xPred
	kf.PPred = PPred
	kf.predicted = true
	return nil
}

// Update assimilates one measurement into the predicted mean and covariance
// and returns the posterior estimate. It must be preceded by Predict.
// The posterior covariance is symmetrized after every update and repaired by
// eigenvalue clipping if the update eroded its positive semi-definiteness.
func (kf *Unscented) Update(measurement *mat.VecDense) (Estimate, error) {
	if !kf.predicted {
		return nil, errors.New("update called without a preceding predict")
	}
	if measurement.Len() != kf.measSize {
		return nil, fmt.Errorf("%smeasurement(%dx1) expected(%dx1)", dimErrMsg, measurement.Len(), kf.measSize)
	}
	if !vecIsFinite(measurement) {
		return nil, fmt.Errorf("step %d: %w", kf.step, ErrMalformedObservation)
	}

	// Regenerate sigma points from the predicted mean and covariance and
	// project them into measurement space.
	sp, err := NewSigmaPoints(kf.xPred, kf.PPred, kf.cfg.Alpha, kf.cfg.Beta, kf.cfg.Kappa)
	if err != nil {
		return nil, DivergenceError{kf.step, err}
	}
	zMean, Pz, zPts, err := UnscentedTransform(sp, kf.h, kf.Noise.MeasurementMatrix())
	if err != nil {
		return nil, DivergenceError{kf.step, err}
	}

	// Gain K = Pxz · Pz⁻¹.
	Pxz := CrossCovariance(sp.Points, kf.xPred, zPts, zMean, sp.Wc)
	var PzInv, K mat.Dense
	if ierr := PzInv.Inverse(Pz); ierr != nil {
		return nil, DivergenceError{kf.step, fmt.Errorf("could not invert innovation covariance: %w", ierr)}
	}
	K.Mul(Pxz, &PzInv)
	if !matIsFinite(&K) {
		return nil, DivergenceError{kf.step, errors.New("non-finite gain")}
	}

	// Measurement update.
	innov := mat.NewVecDense(kf.measSize, nil)
	innov.SubVec(measurement, zMean)
	var corr mat.VecDense
	corr.MulVec(&K, innov)
	xNew := mat.NewVecDense(kf.stateSize, nil)
	xNew.AddVec(kf.xPred, &corr)

	// P = P⁻ − K·Pz·Kᵀ, then symmetrize and repair.
	var KPz, KPzKt, Pd mat.Dense
	KPz.Mul(&K, Pz)
	KPzKt.Mul(&KPz, K.T())
	Pd.Sub(kf.PPred, &KPzKt)
	PNew, _, err := RepairPSD(Symmetrize(&Pd))
	if err != nil {
		return nil, DivergenceError{kf.step, err}
	}
	if !vecIsFinite(xNew) {
		return nil, DivergenceError{kf.step, errors.New("non-finite posterior state")}
	}

	est := UnscentedEstimate{xNew, zMean, innov, PNew, kf.PPred, Pz, &K}
	kf.x = xNew
	kf.P = PNew
	kf.predicted = false
	kf.step++
	return est, nil
}

// UnscentedEstimate is the output of each update step of the unscented KF.
// It implements the Estimate interface.
type UnscentedEstimate struct {
	state, meas, innovation *mat.VecDense
	covar, predCovar        mat.Symmetric
	measCovar               mat.Symmetric
	gain                    mat.Matrix
}

// IsWithinNσ returns whether the estimation is within the N*σ bounds.
func (e UnscentedEstimate) IsWithinNσ(N float64) bool {
	for i := 0; i < e.state.Len(); i++ {
		nσ := N * math.Sqrt(e.covar.At(i, i))
		if e.state.AtVec(i) > nσ || e.state.AtVec(i) < -nσ {
			return false
		}
	}
	return true
}

// IsWithin2σ returns whether the estimation is within the 2σ bounds.
func (e UnscentedEstimate) IsWithin2σ() bool {
	return e.IsWithinNσ(2)
}

// State implements the Estimate interface.
func (e UnscentedEstimate) State() *mat.VecDense {
	return e.state
}

// Measurement implements the Estimate interface. It returns the predicted
// measurement \hat{z}_{k+1}^{-}.
func (e UnscentedEstimate) Measurement() *mat.VecDense {
	return e.meas
}

// Innovation implements the Estimate interface.
func (e UnscentedEstimate) Innovation() *mat.VecDense {
	return e.innovation
}

// Covariance implements the Estimate interface.
func (e UnscentedEstimate) Covariance() mat.Symmetric {
	return e.covar
}

// PredCovariance implements the Estimate interface.
func (e UnscentedEstimate) PredCovariance() mat.Symmetric {
	return e.predCovar
}

// MeasurementCovariance returns the innovation covariance Pz (with R folded in).
func (e UnscentedEstimate) MeasurementCovariance() mat.Symmetric {
	return e.measCovar
}

// Gain returns the Kalman gain of this update.
func (e UnscentedEstimate) Gain() mat.Matrix {
	return e.gain
}

func (e UnscentedEstimate) String() string {
	state := mat.Formatted(e.State(), mat.Prefix("  "))
	meas := mat.Formatted(e.Measurement(), mat.Prefix("  "))
	covar := mat.Formatted(e.Covariance(), mat.Prefix("  "))
	gain := mat.Formatted(e.Gain(), mat.Prefix("  "))
	innov := mat.Formatted(e.Innovation(), mat.Prefix("  "))
	predp := mat.Formatted(e.PredCovariance(), mat.Prefix("  "))
	return fmt.Sprintf("{\ns=%v\nz=%v\nP=%v\nK=%v\nP-=%v\ni=%v\n}", state, meas, covar, gain, predp, innov)
}

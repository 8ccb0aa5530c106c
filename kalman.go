package trainkf

import "gonum.org/v1/gonum/mat"

// TransitionFunc propagates a state vector one time step forward through the
// process model. It must not mutate its argument.
type TransitionFunc func(x *mat.VecDense) *mat.VecDense

// ObservationFunc projects a state vector into measurement space.
// It must not mutate its argument.
type ObservationFunc func(x *mat.VecDense) *mat.VecDense

// SigmaPointFilter defines a sigma-point Kalman filter.
// Predict and Update must be called strictly alternately, Predict first.
type SigmaPointFilter interface {
	Predict() error
	Update(measurement *mat.VecDense) (Estimate, error)
	GetNoise() Noise
	SetNoise(Noise)
	String() string
}

// Estimate is returned from Update() in any KF.
type Estimate interface {
	IsWithinNσ(N float64) bool     // IsWithinNσ returns whether the estimation is within the N*σ bounds.
	State() *mat.VecDense          // Returns \hat{x}_{k+1}^{+}
	Measurement() *mat.VecDense    // Returns \hat{y}_{k+1}^{-}
	Innovation() *mat.VecDense     // Returns y_{k+1} - \hat{y}_{k+1}^{-}
	Covariance() mat.Symmetric     // Returns P_{k+1}^{+}
	PredCovariance() mat.Symmetric // Returns P_{k+1}^{-}
	String() string                // Must implement the stringer interface.
}

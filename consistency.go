package trainkf

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// innovator is satisfied by estimates that expose their innovation and its
// covariance, which is all the NIS test needs.
type innovator interface {
	Innovation() *mat.VecDense
	MeasurementCovariance() mat.Symmetric
}

// NIS returns the normalized innovation squared νᵀ·Pz⁻¹·ν of one estimate.
// For a consistent filter the NIS is χ²-distributed with as many degrees of
// freedom as there are measurement channels, so a run mean far from that
// count signals mistuned Q or R.
func NIS(est Estimate) (float64, error) {
	in, ok := est.(innovator)
	if !ok {
		return 0, errors.New("estimate does not expose an innovation covariance")
	}
	var PzInv mat.Dense
	if err := PzInv.Inverse(in.MeasurementCovariance()); err != nil {
		return 0, fmt.Errorf("innovation covariance was not invertible: %w", err)
	}
	ν := in.Innovation()
	var tmp mat.VecDense
	tmp.MulVec(&PzInv, ν)
	return mat.Dot(ν, &tmp), nil
}

// MeanNIS returns the mean NIS over a journey's estimate trajectory.
func MeanNIS(ests []Estimate) (float64, error) {
	if len(ests) == 0 {
		return 0, errors.New("no estimates")
	}
	samples := make([]float64, len(ests))
	for k, est := range ests {
		nis, err := NIS(est)
		if err != nil {
			return 0, fmt.Errorf("step %d: %w", k, err)
		}
		samples[k] = nis
	}
	return stat.Mean(samples, nil), nil
}

package trainkf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SigmaPoints is a deterministic set of 2n+1 representative points and their
// recombination weights for a given mean and covariance. A set is regenerated
// at every predict and update step and never persisted across steps.
type SigmaPoints struct {
	// Points holds 2n+1 state-vector-shaped points, Points[0] being the mean.
	Points []*mat.VecDense
	// Wm are the mean recombination weights. They sum to 1 by construction.
	Wm []float64
	// Wc are the covariance recombination weights. Their sum is offset by the
	// β correction term and is deliberately not 1.
	Wc []float64
}

// NewSigmaPoints generates a sigma point set for mean x and covariance P with
// the usual spread parameters α ∈ (0, 1), β (2 is optimal for Gaussian
// priors) and κ (usually 0). The matrix square root S, with S·Sᵀ = (n+λ)·P,
// is the Cholesky factor of the scaled covariance; if P has decayed below
// positive semi-definiteness it is repaired by eigenvalue clipping first, and
// if factorization still fails the generator returns ErrNotPSD rather than
// garbage points.
func NewSigmaPoints(x *mat.VecDense, P mat.Symmetric, α, β, κ float64) (*SigmaPoints, error) {
	n := x.Len()
	if err := checkMatDims(x, P, "x", "P", rows2cols); err != nil {
		return nil, err
	}
	if α <= 0 || α >= 1 {
		return nil, fmt.Errorf("sigma point spread α=%g not in (0,1)", α)
	}
	nf := float64(n)
	λ := α*α*(nf+κ) - nf

	S, err := scaledSqrt(P, nf+λ)
	if err != nil {
		return nil, err
	}

	pts := make([]*mat.VecDense, 2*n+1)
	pts[0] = mat.VecDenseCopyOf(x)
	for i := 0; i < n; i++ {
		plus := mat.NewVecDense(n, nil)
		minus := mat.NewVecDense(n, nil)
		for r := 0; r < n; r++ {
			plus.SetVec(r, x.AtVec(r)+S.At(r, i))
			minus.SetVec(r, x.AtVec(r)-S.At(r, i))
		}
		pts[1+i] = plus
		pts[1+n+i] = minus
	}

	Wm := make([]float64, 2*n+1)
	Wc := make([]float64, 2*n+1)
	Wm[0] = λ / (nf + λ)
	Wc[0] = Wm[0] + (1 - α*α + β)
	for i := 1; i <= 2*n; i++ {
		Wm[i] = 1 / (2 * (nf + λ))
		Wc[i] = Wm[i]
	}
	return &SigmaPoints{pts, Wm, Wc}, nil
}

// scaledSqrt returns the lower Cholesky factor of scale·P, repairing P once
// if the factorization fails.
func scaledSqrt(P mat.Symmetric, scale float64) (*mat.TriDense, error) {
	n, _ := P.Dims()
	scaled := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			scaled.SetSym(i, j, scale*P.At(i, j))
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(scaled); !ok {
		repaired, _, err := RepairPSD(scaled)
		if err != nil {
			return nil, err
		}
		if ok := chol.Factorize(repaired); !ok {
			return nil, ErrNotPSD
		}
	}
	var L mat.TriDense
	chol.LTo(&L)
	return &L, nil
}

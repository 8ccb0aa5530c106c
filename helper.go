package trainkf

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Identity returns an identity matrix of the provided size.
func Identity(n int) mat.Symmetric {
	vals := make([]float64, n*n)
	for j := 0; j < n*n; j++ {
		if j%(n+1) == 0 {
			vals[j] = 1
		}
	}
	return mat.NewSymDense(n, vals)
}

// Diagonal returns a diagonal matrix with the provided values.
func Diagonal(vals ...float64) *mat.SymDense {
	n := len(vals)
	d := mat.NewSymDense(n, nil)
	for i, v := range vals {
		d.SetSym(i, i, v)
	}
	return d
}

// IsNil returns whether the provided matrix only has zero values.
func IsNil(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}

// AsSymDense attempts to return a SymDense from the provided Dense.
func AsSymDense(m *mat.Dense) (*mat.SymDense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, errors.New("matrix must be square")
	}
	mT := m.T()
	vals := make([]float64, r*c)
	idx := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if mT.At(i, j) != m.At(i, j) {
				return nil, errors.New("matrix is not symmetric")
			}
			vals[idx] = m.At(i, j)
			idx++
		}
	}
	return mat.NewSymDense(r, vals), nil
}

// Symmetrize returns (m + mᵀ)/2 as a SymDense.
func Symmetrize(m mat.Matrix) *mat.SymDense {
	r, _ := m.Dims()
	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			s.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
	return s
}

// psdTol is the eigenvalue tolerance below which a covariance matrix is
// considered to have lost positive semi-definiteness.
const psdTol = 1e-9

// psdFloor is the value negative eigenvalues are clipped to during repair.
const psdFloor = 1e-12

// RepairPSD restores strict factorizability of p by clipping eigenvalues
// below psdFloor (negative ones included) up to psdFloor. The boolean reports
// whether a repair was needed. A matrix that cannot be eigendecomposed at all
// (e.g. it carries non-finite values) returns ErrNotPSD.
func RepairPSD(p *mat.SymDense) (*mat.SymDense, bool, error) {
	var es mat.EigenSym
	if ok := es.Factorize(p, true); !ok {
		return nil, false, ErrNotPSD
	}
	vals := es.Values(nil)
	repair := false
	for _, λ := range vals {
		if math.IsNaN(λ) || math.IsInf(λ, 0) {
			return nil, false, ErrNotPSD
		}
		if λ < psdFloor {
			repair = true
		}
	}
	if !repair {
		return p, false, nil
	}
	n := len(vals)
	Λ := mat.NewDense(n, n, nil)
	for i, λ := range vals {
		if λ < psdFloor {
			λ = psdFloor
		}
		Λ.Set(i, i, λ)
	}
	var V, VΛ, out mat.Dense
	es.VectorsTo(&V)
	VΛ.Mul(&V, Λ)
	out.Mul(&VΛ, V.T())
	return Symmetrize(&out), true, nil
}

// vecIsFinite reports whether every component of v is a finite real.
func vecIsFinite(v *mat.VecDense) bool {
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// matIsFinite reports whether every element of m is a finite real.
func matIsFinite(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			x := m.At(i, j)
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
	}
	return true
}

package trainkf

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func identityVec(x *mat.VecDense) *mat.VecDense {
	return mat.VecDenseCopyOf(x)
}

func TestUnscentedTransformIdentity(t *testing.T) {
	x := mat.NewVecDense(3, []float64{12, -0.4, 2500})
	P := Diagonal(0.5, 0.1, 100)
	sp, err := NewSigmaPoints(x, P, 0.5, 2, 0)
	if err != nil {
		t.Fatalf("%v", err)
	}
	mean, cov, transformed, err := UnscentedTransform(sp, identityVec, nil)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if len(transformed) != len(sp.Points) {
		t.Fatalf("expected %d transformed points, got %d", len(sp.Points), len(transformed))
	}
	if !mat.EqualApprox(mean, x, 1e-9) {
		t.Fatalf("identity transform moved the mean: %v", mat.Formatted(mean.T()))
	}
	if !mat.EqualApprox(cov, P, 1e-9) {
		t.Fatalf("identity transform did not recover the covariance:\n%v", mat.Formatted(cov))
	}
}

func TestUnscentedTransformAdditiveNoise(t *testing.T) {
	x := mat.NewVecDense(2, []float64{1, 2})
	P := Diagonal(1, 4)
	Q := Diagonal(0.25, 0.75)
	sp, err := NewSigmaPoints(x, P, 0.5, 2, 0)
	if err != nil {
		t.Fatalf("%v", err)
	}
	_, cov, _, err := UnscentedTransform(sp, identityVec, Q)
	if err != nil {
		t.Fatalf("%v", err)
	}
	want := Diagonal(1.25, 4.75)
	if !mat.EqualApprox(cov, want, 1e-9) {
		t.Fatalf("additive noise not folded in:\n%v", mat.Formatted(cov))
	}
}

func TestUnscentedTransformLinear(t *testing.T) {
	// Through a linear map the transform is exact: mean A·x, covariance A·P·Aᵀ.
	A := mat.NewDense(2, 2, []float64{2, 1, 0, 3})
	f := func(x *mat.VecDense) *mat.VecDense {
		out := mat.NewVecDense(2, nil)
		out.MulVec(A, x)
		return out
	}
	x := mat.NewVecDense(2, []float64{3, -1})
	P := mat.NewSymDense(2, []float64{2, 0.5, 0.5, 1})
	sp, err := NewSigmaPoints(x, P, 0.5, 2, 0)
	if err != nil {
		t.Fatalf("%v", err)
	}
	mean, cov, _, err := UnscentedTransform(sp, f, nil)
	if err != nil {
		t.Fatalf("%v", err)
	}
	wantMean := mat.NewVecDense(2, nil)
	wantMean.MulVec(A, x)
	if !mat.EqualApprox(mean, wantMean, 1e-9) {
		t.Fatalf("linear mean %v != %v", mat.Formatted(mean.T()), mat.Formatted(wantMean.T()))
	}
	var AP, APAt mat.Dense
	AP.Mul(A, P)
	APAt.Mul(&AP, A.T())
	if !mat.EqualApprox(cov, &APAt, 1e-9) {
		t.Fatalf("linear covariance:\n%v\nwant:\n%v", mat.Formatted(cov), mat.Formatted(&APAt))
	}
}

func TestUnscentedTransformShapeMismatch(t *testing.T) {
	x := mat.NewVecDense(2, nil)
	sp, err := NewSigmaPoints(x, Identity(2), 0.5, 2, 0)
	if err != nil {
		t.Fatalf("%v", err)
	}
	_, _, _, err = UnscentedTransform(sp, identityVec, Identity(3))
	if err == nil {
		t.Fatal("mismatched additive noise accepted")
	}
}

func TestCrossCovarianceLinear(t *testing.T) {
	// b = H·a for a linear H makes the cross-covariance P·Hᵀ.
	H := mat.NewDense(1, 2, []float64{1, 0})
	x := mat.NewVecDense(2, []float64{5, 7})
	P := mat.NewSymDense(2, []float64{2, 0.5, 0.5, 1})
	sp, err := NewSigmaPoints(x, P, 0.5, 2, 0)
	if err != nil {
		t.Fatalf("%v", err)
	}
	f := func(v *mat.VecDense) *mat.VecDense {
		out := mat.NewVecDense(1, nil)
		out.MulVec(H, v)
		return out
	}
	bMean, _, b, err := UnscentedTransform(sp, f, nil)
	if err != nil {
		t.Fatalf("%v", err)
	}
	cross := CrossCovariance(sp.Points, x, b, bMean, sp.Wc)
	var PHt mat.Dense
	PHt.Mul(P, H.T())
	if !mat.EqualApprox(cross, &PHt, 1e-9) {
		t.Fatalf("cross-covariance:\n%v\nwant:\n%v", mat.Formatted(cross), mat.Formatted(&PHt))
	}
}

package trainkf

import "gonum.org/v1/gonum/mat"

// UnscentedTransform pushes each sigma point through f and recombines the
// transformed points into a weighted mean and covariance. The additive
// covariance add (typically Q at predict time or R at update time) is folded
// into the recombined covariance; it may be nil.
func UnscentedTransform(s *SigmaPoints, f func(*mat.VecDense) *mat.VecDense, add mat.Symmetric) (mean *mat.VecDense, cov *mat.SymDense, transformed []*mat.VecDense, err error) {
	transformed = make([]*mat.VecDense, len(s.Points))
	for i, pt := range s.Points {
		transformed[i] = f(pt)
	}
	m := transformed[0].Len()

	mean = mat.NewVecDense(m, nil)
	for i, pt := range transformed {
		if err = checkMatDims(pt, mean, "f(sigma)", "mean", rows2rows); err != nil {
			return nil, nil, nil, err
		}
		mean.AddScaledVec(mean, s.Wm[i], pt)
	}

	cov = mat.NewSymDense(m, nil)
	if add != nil {
		if err = checkMatDims(add, cov, "additive noise", "covariance", rowsAndcols); err != nil {
			return nil, nil, nil, err
		}
		cov.CopySym(add)
	}
	diff := mat.NewVecDense(m, nil)
	for i, pt := range transformed {
		diff.SubVec(pt, mean)
		cov.SymRankOne(cov, s.Wc[i], diff)
	}
	return mean, cov, transformed, nil
}

// CrossCovariance recombines two transformed sigma point sets sharing the
// same weights into the weighted cross-covariance Σ Wc[i]·(aᵢ−ā)(bᵢ−b̄)ᵀ.
func CrossCovariance(a []*mat.VecDense, aMean *mat.VecDense, b []*mat.VecDense, bMean *mat.VecDense, Wc []float64) *mat.Dense {
	n := aMean.Len()
	m := bMean.Len()
	cross := mat.NewDense(n, m, nil)
	da := mat.NewVecDense(n, nil)
	db := mat.NewVecDense(m, nil)
	var outer mat.Dense
	for i := range a {
		da.SubVec(a[i], aMean)
		db.SubVec(b[i], bMean)
		outer.Outer(Wc[i], da, db)
		cross.Add(cross, &outer)
	}
	return cross
}

package trainkf

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrNotPSD is returned when a covariance matrix cannot be factorized even
// after eigenvalue repair.
var ErrNotPSD = errors.New("covariance matrix is not positive semi-definite")

// ErrMalformedObservation is returned when a measurement vector carries a
// non-finite value. The caller must drop or impute the record; the filter
// never coerces it.
var ErrMalformedObservation = errors.New("non-finite value in observation")

// DivergenceError reports a numerically fatal filter step. The recursion is
// deterministic, so a failed step fails identically on retry: the only
// recovery is upstream correction of inputs or noise tuning.
type DivergenceError struct {
	Step  int
	Cause error
}

func (e DivergenceError) Error() string {
	return fmt.Sprintf("filter diverged at step %d: %s", e.Step, e.Cause)
}

func (e DivergenceError) Unwrap() error {
	return e.Cause
}

// DimensionAgreement defines how two matrices' dimensions should agree.
type DimensionAgreement uint8

const (
	dimErrMsg                    = "dimensions must agree: "
	rows2cols DimensionAgreement = iota + 1
	cols2rows
	cols2cols
	rows2rows
	rowsAndcols
)

// checkMatDims checks the matrix dimensions match provided a DimensionAgreement. Returns an error if not.
func checkMatDims(m1, m2 mat.Matrix, name1, name2 string, method DimensionAgreement) error {
	r1, c1 := m1.Dims()
	r2, c2 := m2.Dims()
	switch method {
	case rows2cols:
		if r1 != c2 {
			return fmt.Errorf("%s%s(%dx...) %s(...x%d)", dimErrMsg, name1, r1, name2, c2)
		}
	case cols2rows:
		if c1 != r2 {
			return fmt.Errorf("%s%s(...x%d) %s(%dx...)", dimErrMsg, name1, c1, name2, r2)
		}
	case cols2cols:
		if c1 != c2 {
			return fmt.Errorf("%s%s(...x%d) %s(...x%d)", dimErrMsg, name1, c1, name2, c2)
		}
	case rows2rows:
		if r1 != r2 {
			return fmt.Errorf("%s%s(%dx...) %s(%dx...)", dimErrMsg, name1, r1, name2, r2)
		}
	case rowsAndcols:
		if c1 != c2 || r1 != r2 {
			return fmt.Errorf("%s%s(%dx%d) %s(%dx%d)", dimErrMsg, name1, r1, c1, name2, r2, c2)
		}
	}
	return nil
}

package quad

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNotConverged = errors.New("quad: tolerance not reached within subdivision limit")
	ErrNonFinite    = errors.New("quad: integrand is not finite")
	ErrInterval     = errors.New("quad: invalid interval")
)

// NonFiniteError records where the integrand stopped being finite.
type NonFiniteError struct {
	At    float64
	Value float64
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("%v: f(%g) = %g", ErrNonFinite, e.At, e.Value)
}

func (e *NonFiniteError) Unwrap() error {
	return ErrNonFinite
}

type Result struct {
	Value     float64
	AbsErr    float64
	Evals     int
	Intervals int
}

type Func func(float64) float64

type Integrator interface {
	Integrate(f Func, a, b float64) (Result, error)
}

// LogSpace rewrites ∫ f(t) dt over [a, b] as ∫ f(e^u) e^u du over
// [ln a, ln b]. Integrals spanning decades in t are smooth in u.
func LogSpace(f Func) Func {
	return func(u float64) float64 {
		t := math.Exp(u)
		return f(t) * t
	}
}

// IntegrateLog integrates f over [a, b] in log space. Both limits must be
// positive.
func IntegrateLog(in Integrator, f Func, a, b float64) (Result, error) {
	if !(a > 0) || !(b > 0) {
		return Result{}, fmt.Errorf("%w: log-space limits [%g, %g] must be positive", ErrInterval, a, b)
	}
	res, err := in.Integrate(LogSpace(f), math.Log(a), math.Log(b))
	var nf *NonFiniteError
	if errors.As(err, &nf) {
		err = &NonFiniteError{At: math.Exp(nf.At), Value: nf.Value}
	}
	return res, err
}

func checkInterval(a, b float64) error {
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return fmt.Errorf("%w: [%g, %g]", ErrInterval, a, b)
	}
	return nil
}

func tolerance(absTol, relTol, value float64) float64 {
	return math.Max(absTol, relTol*math.Abs(value))
}

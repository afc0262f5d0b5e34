package quad

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// Legendre applies an N-point Gauss-Legendre rule over the whole interval
// and estimates the error against the 2N-point rule.
type Legendre struct {
	N      int
	AbsTol float64
	RelTol float64
}

func NewLegendre(n int, absTol, relTol float64) *Legendre {
	return &Legendre{N: n, AbsTol: absTol, RelTol: relTol}
}

func (l *Legendre) Integrate(f Func, a, b float64) (Result, error) {
	if err := checkInterval(a, b); err != nil {
		return Result{}, err
	}
	if a == b {
		return Result{}, nil
	}

	n := l.N
	if n < 2 {
		n = 2
	}

	var bad *NonFiniteError
	g := func(x float64) float64 {
		v := f(x)
		if bad == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
			bad = &NonFiniteError{At: x, Value: v}
		}
		return v
	}

	lo, hi, sign := a, b, 1.0
	if b < a {
		lo, hi, sign = b, a, -1.0
	}

	coarse := quad.Fixed(g, lo, hi, n, quad.Legendre{}, 0)
	fine := quad.Fixed(g, lo, hi, 2*n, quad.Legendre{}, 0)

	res := Result{
		Value:     sign * fine,
		AbsErr:    math.Abs(fine - coarse),
		Evals:     3 * n,
		Intervals: 1,
	}
	if bad != nil {
		return res, bad
	}
	if res.AbsErr > tolerance(l.AbsTol, l.RelTol, res.Value) {
		return res, ErrNotConverged
	}
	return res, nil
}

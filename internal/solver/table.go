package solver

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/san-kum/expcgm/internal/profile"
)

// maxBisect bounds root refinement when RootTol is below float resolution.
const maxBisect = 200

// Table holds the cumulative integrals on a log-spaced radius grid.
type Table struct {
	X      []float64
	F      []float64
	I      []float64
	JPhi   []float64
	JTh    []float64
	JNt    []float64
	Norm   []float64
	PhiInf float64

	violation int
	lookup    *interp.PiecewiseLinear
}

// Diagnostics summarizes a table for the check command and stored runs.
type Diagnostics struct {
	Points     int     `json:"points"`
	Monotonic  bool    `json:"monotonic"`
	Violation  int     `json:"violation"`
	ViolationX float64 `json:"violation_x"`
	FMin       float64 `json:"f_min"`
	FMax       float64 `json:"f_max"`
	// PhiInf is the energy ceiling of a bound potential; Bound is false
	// and PhiInf zero when the potential grows without limit.
	Bound      bool    `json:"bound"`
	PhiInf     float64 `json:"phi_inf,omitempty"`
}

func (s *Solver) buildTable() (*Table, error) {
	start := time.Now()

	xs := floats.LogSpan(make([]float64, s.opts.GridPoints), s.opts.XMin, s.opts.XMax)
	xs[0], xs[len(xs)-1] = s.opts.XMin, s.opts.XMax

	rows := make([]profile.Integrals, 0, len(xs))
	acc := profile.Integrals{X: s.opts.Epsilon}
	for _, x := range xs {
		seg, err := s.segment(acc.X, x)
		if err != nil {
			s.logger.Debug("table construction failed", zap.Float64("x", x), zap.Error(err))
			return nil, fmt.Errorf("build table: %w", err)
		}
		acc = accumulate(acc, seg)
		rows = append(rows, acc)
	}

	t := newTable(rows, s.pot.PhiInf(), s.opts.MonotonicTol)
	if t.violation >= 0 {
		s.logger.Warn("mean specific energy is not monotonic",
			zap.Int("index", t.violation),
			zap.Float64("x", t.X[t.violation]))
	}
	s.logger.Debug("table built",
		zap.Int("points", t.Len()),
		zap.Float64("f_min", t.F[0]),
		zap.Float64("f_max", t.F[t.Len()-1]),
		zap.Duration("elapsed", time.Since(start)))
	return t, nil
}

func newTable(rows []profile.Integrals, phiInf, tol float64) *Table {
	n := len(rows)
	t := &Table{
		X:         make([]float64, n),
		F:         make([]float64, n),
		I:         make([]float64, n),
		JPhi:      make([]float64, n),
		JTh:       make([]float64, n),
		JNt:       make([]float64, n),
		Norm:      make([]float64, n),
		PhiInf:    phiInf,
		violation: -1,
	}
	for i, r := range rows {
		t.X[i] = r.X
		t.F[i] = r.F()
		t.I[i] = r.I
		t.JPhi[i] = r.JPhi
		t.JTh[i] = r.JTh
		t.JNt[i] = r.JNt
		t.Norm[i] = r.Norm()
	}

	for i := 1; i < n; i++ {
		if t.F[i] < t.F[i-1]-tol*math.Abs(t.F[i-1]) {
			t.violation = i
			break
		}
	}

	lnX := make([]float64, n)
	for i, x := range t.X {
		lnX[i] = math.Log(x)
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(t.F, lnX); err == nil {
		t.lookup = &pl
	}
	return t
}

func (t *Table) Len() int { return len(t.X) }

func (t *Table) At(i int) profile.Integrals {
	return profile.Integrals{X: t.X[i], I: t.I[i], JPhi: t.JPhi[i], JTh: t.JTh[i], JNt: t.JNt[i]}
}

// below returns the largest index with X[i] <= x, or -1.
func (t *Table) below(x float64) int {
	return sort.Search(len(t.X), func(i int) bool { return t.X[i] > x }) - 1
}

// Monotonic reports whether F never decreases by more than the tolerance,
// and otherwise the first index where it does.
func (t *Table) Monotonic() (bool, int) {
	return t.violation < 0, t.violation
}

// Lookup inverts F by linear interpolation in ln x. It is cheaper and less
// accurate than Solver.SolveRadius and needs a strictly increasing table.
func (t *Table) Lookup(target float64) (float64, error) {
	if t.lookup == nil || t.violation >= 0 {
		return math.NaN(), fmt.Errorf("lookup: %w", profile.ErrNonMonotonic)
	}
	n := t.Len() - 1
	if target < t.F[0] {
		return math.NaN(), &profile.EnergyError{Target: target, Limit: t.F[0], X: t.X[0], Kind: profile.ErrOutOfDomain}
	}
	if target > t.F[n] {
		if target >= t.PhiInf {
			return math.NaN(), &profile.EnergyError{Target: target, Limit: t.PhiInf, Kind: profile.ErrUnachievableEnergy}
		}
		return math.NaN(), &profile.EnergyError{Target: target, Limit: t.F[n], X: t.X[n], Kind: profile.ErrOutOfDomain}
	}
	return math.Exp(t.lookup.Predict(target)), nil
}

func (t *Table) Diagnostics() Diagnostics {
	d := Diagnostics{
		Points:    t.Len(),
		Monotonic: t.violation < 0,
		Violation: t.violation,
		FMin:      floats.Min(t.F),
		FMax:      floats.Max(t.F),
	}
	if !math.IsInf(t.PhiInf, 1) {
		d.Bound = true
		d.PhiInf = t.PhiInf
	}
	if t.violation >= 0 {
		d.ViolationX = t.X[t.violation]
	}
	return d
}

// findRoots brackets every crossing of target on the grid and refines each
// one with f.
func findRoots(t *Table, target float64, f func(float64) (float64, error), tol float64) ([]float64, error) {
	var roots []float64
	n := t.Len()
	for i := 0; i < n; i++ {
		d0 := t.F[i] - target
		if d0 == 0 {
			roots = append(roots, t.X[i])
			continue
		}
		if i+1 == n {
			break
		}
		d1 := t.F[i+1] - target
		if d0*d1 >= 0 {
			continue
		}
		r, err := bisect(f, target, t.X[i], t.X[i+1], d0, tol)
		if err != nil {
			return nil, err
		}
		roots = append(roots, r)
	}
	return roots, nil
}

// bisect halves [lo, hi] in ln x until it is narrower than tol.
func bisect(f func(float64) (float64, error), target, lo, hi, dLo, tol float64) (float64, error) {
	a, b := math.Log(lo), math.Log(hi)
	for i := 0; i < maxBisect && b-a > tol; i++ {
		m := 0.5 * (a + b)
		v, err := f(math.Exp(m))
		if err != nil {
			return math.NaN(), err
		}
		d := v - target
		if d == 0 {
			return math.Exp(m), nil
		}
		if (d < 0) == (dLo < 0) {
			a = m
		} else {
			b = m
		}
	}
	return math.Exp(0.5 * (a + b)), nil
}

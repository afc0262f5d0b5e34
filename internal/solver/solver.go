package solver

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/san-kum/expcgm/internal/profile"
	"github.com/san-kum/expcgm/internal/quad"
)

// Solver inverts ε_CGM = v_φ² F(x_CGM) for one shape, potential and
// support. It is immutable once built and safe for concurrent use.
type Solver struct {
	shape   profile.Shape
	pot     profile.Potential
	support profile.Support
	opts    profile.Options
	integ   quad.Integrator
	logger  *zap.Logger

	once     sync.Once
	ready    atomic.Bool
	table    *Table
	tableErr error
}

type Option func(*Solver)

func WithSupport(sp profile.Support) Option {
	return func(s *Solver) { s.support = sp }
}

func WithOptions(o profile.Options) Option {
	return func(s *Solver) { s.opts = o }
}

// WithIntegrator replaces the default adaptive Gauss-Kronrod rule built
// from the solver options.
func WithIntegrator(in quad.Integrator) Option {
	return func(s *Solver) { s.integ = in }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Solver) { s.logger = l }
}

type validator interface {
	Validate() error
}

func New(shape profile.Shape, pot profile.Potential, opts ...Option) (*Solver, error) {
	if shape == nil || pot == nil {
		return nil, fmt.Errorf("%w: shape and potential are required", profile.ErrParameterBounds)
	}

	s := &Solver{
		shape:   shape,
		pot:     pot,
		support: profile.DefaultSupport(),
		opts:    profile.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.opts.Validate(); err != nil {
		return nil, err
	}
	if err := s.support.Validate(); err != nil {
		return nil, err
	}
	for _, v := range []any{shape, pot} {
		if vv, ok := v.(validator); ok {
			if err := vv.Validate(); err != nil {
				return nil, err
			}
		}
	}

	if s.integ == nil {
		s.integ = quad.NewKronrod(s.opts.Limit, s.opts.AbsTol, s.opts.RelTol)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s, nil
}

func (s *Solver) Shape() profile.Shape         { return s.shape }
func (s *Solver) Potential() profile.Potential { return s.pot }
func (s *Solver) Support() profile.Support     { return s.support }
func (s *Solver) Options() profile.Options     { return s.opts }

// PressureProfile returns f_P(x), normalized to 1 at Options.XRef. It
// returns NaN and ErrInvalidRadius for x ≤ 0.
func (s *Solver) PressureProfile(x float64) (float64, error) {
	lnf, err := s.logPressure(x)
	if err != nil {
		return math.NaN(), err
	}
	return math.Exp(lnf), nil
}

func (s *Solver) logPressure(x float64) (float64, error) {
	if err := profile.CheckRadius(x); err != nil {
		return math.NaN(), err
	}
	if lp, ok := s.shape.(profile.LogPressurer); ok {
		return lp.LogPressure(x, s.opts.XRef), nil
	}
	if x == s.opts.XRef {
		return 0, nil
	}

	slope := func(t float64) float64 { return s.shape.Alpha(t) / t }
	res, err := quad.IntegrateLog(s.integ, slope, s.opts.XRef, x)
	if err != nil {
		return math.NaN(), integralError(profile.IntegralPressure, x, s.opts.XRef, x, res, err)
	}
	return -res.Value, nil
}

// Integrals returns I, J_φ, J_th and J_nt integrated from Options.Epsilon
// to x. Once the table exists the integration starts from the nearest
// tabulated radius below x.
func (s *Solver) Integrals(x float64) (profile.Integrals, error) {
	if err := profile.CheckRadius(x); err != nil {
		return profile.Integrals{}, err
	}
	if x <= s.opts.Epsilon {
		return profile.Integrals{}, fmt.Errorf("%w: x=%g at or below the cutoff epsilon=%g", profile.ErrInvalidRadius, x, s.opts.Epsilon)
	}

	base := profile.Integrals{X: s.opts.Epsilon}
	if s.ready.Load() && s.tableErr == nil {
		if i := s.table.below(x); i >= 0 {
			base = s.table.At(i)
		}
	}
	if base.X == x {
		return base, nil
	}

	seg, err := s.segment(base.X, x)
	if err != nil {
		return profile.Integrals{}, err
	}
	return accumulate(base, seg), nil
}

// MeanSpecificEnergy returns F(x) = (J_φ + J_th + J_nt) / I.
func (s *Solver) MeanSpecificEnergy(x float64) (float64, error) {
	in, err := s.Integrals(x)
	if err != nil {
		return math.NaN(), err
	}
	return in.F(), nil
}

// PressureNormalization returns 1/I(x), the central pressure in units of
// M_CGM v_φ² / 4π r_s³.
func (s *Solver) PressureNormalization(x float64) (float64, error) {
	in, err := s.Integrals(x)
	if err != nil {
		return math.NaN(), err
	}
	return in.Norm(), nil
}

// Table returns the integrals over the log-spaced grid, computing them on
// first use.
func (s *Solver) Table() (*Table, error) {
	s.once.Do(func() {
		s.table, s.tableErr = s.buildTable()
		s.ready.Store(true)
	})
	return s.table, s.tableErr
}

// SolveRadius returns x_CGM with F(x_CGM) = target.
func (s *Solver) SolveRadius(target float64) (float64, error) {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return math.NaN(), fmt.Errorf("%w: target specific energy %g", profile.ErrParameterBounds, target)
	}
	if limit := s.pot.PhiInf(); target >= limit {
		return math.NaN(), &profile.EnergyError{Target: target, Limit: limit, Kind: profile.ErrUnachievableEnergy}
	}

	tab, err := s.Table()
	if err != nil {
		return math.NaN(), err
	}

	roots, err := findRoots(tab, target, s.MeanSpecificEnergy, s.opts.RootTol)
	if err != nil {
		return math.NaN(), err
	}

	switch len(roots) {
	case 0:
		n := tab.Len() - 1
		if target < tab.F[0] {
			return math.NaN(), &profile.EnergyError{Target: target, Limit: tab.F[0], X: tab.X[0], Kind: profile.ErrOutOfDomain}
		}
		return math.NaN(), &profile.EnergyError{Target: target, Limit: tab.F[n], X: tab.X[n], Kind: profile.ErrOutOfDomain}
	case 1:
		s.logger.Debug("solved radius",
			zap.Float64("target", target),
			zap.Float64("x_cgm", roots[0]))
		return roots[0], nil
	default:
		s.logger.Warn("ambiguous inversion",
			zap.Float64("target", target),
			zap.Float64s("roots", roots))
		return math.NaN(), &profile.NonMonotonicError{Target: target, Roots: roots}
	}
}

// Solve returns the equilibrium radius and pressure normalization for a
// mean specific energy given in units of v_φ².
func (s *Solver) Solve(target float64) (profile.Equilibrium, error) {
	x, err := s.SolveRadius(target)
	if err != nil {
		return profile.Equilibrium{Target: target, X: math.NaN(), PressureNorm: math.NaN()}, err
	}
	in, err := s.Integrals(x)
	if err != nil {
		return profile.Equilibrium{Target: target, X: x, PressureNorm: math.NaN()}, err
	}
	return profile.Equilibrium{
		Target:       target,
		X:            x,
		PressureNorm: in.Norm(),
		I:            in.I,
		F:            in.F(),
	}, nil
}

// SolveEquilibrium builds a solver with the given options and solves for
// one target.
func SolveEquilibrium(shape profile.Shape, pot profile.Potential, target float64, opts profile.Options) (xCGM, pressureNorm float64, err error) {
	s, err := New(shape, pot, WithOptions(opts))
	if err != nil {
		return math.NaN(), math.NaN(), err
	}
	eq, err := s.Solve(target)
	return eq.X, eq.PressureNorm, err
}

// segment integrates all four integrands over [lo, hi].
func (s *Solver) segment(lo, hi float64) (profile.Integrals, error) {
	var inner error
	fp := func(t float64) float64 {
		lnf, err := s.logPressure(t)
		if err != nil {
			if inner == nil {
				inner = err
			}
			return math.NaN()
		}
		return math.Exp(lnf)
	}
	mass := func(t float64) float64 {
		return s.shape.Alpha(t) * fp(t) / s.pot.Vc2(t) * t * t
	}
	potential := func(t float64) float64 {
		return s.pot.Phi(t) * mass(t)
	}
	volume := func(t float64) float64 {
		return fp(t) * t * t
	}

	out := profile.Integrals{X: hi}

	res, err := quad.IntegrateLog(s.integ, mass, lo, hi)
	if err != nil {
		return out, integralError(profile.IntegralI, hi, lo, hi, res, firstErr(inner, err))
	}
	out.I = res.Value

	res, err = quad.IntegrateLog(s.integ, potential, lo, hi)
	if err != nil {
		return out, integralError(profile.IntegralJPhi, hi, lo, hi, res, firstErr(inner, err))
	}
	out.JPhi = res.Value

	res, err = quad.IntegrateLog(s.integ, volume, lo, hi)
	if err != nil {
		name := profile.IntegralJTh
		if s.support.ThermalWeight() == 0 {
			name = profile.IntegralJNt
		}
		return out, integralError(name, hi, lo, hi, res, firstErr(inner, err))
	}
	out.JTh = s.support.ThermalWeight() * res.Value
	out.JNt = s.support.NonThermalWeight() * res.Value

	return out, nil
}

func firstErr(inner, outer error) error {
	if inner != nil {
		return inner
	}
	return outer
}

func accumulate(base, seg profile.Integrals) profile.Integrals {
	return profile.Integrals{
		X:    seg.X,
		I:    base.I + seg.I,
		JPhi: base.JPhi + seg.JPhi,
		JTh:  base.JTh + seg.JTh,
		JNt:  base.JNt + seg.JNt,
	}
}

func integralError(name string, x, lo, hi float64, res quad.Result, err error) error {
	kind := profile.ErrIntegrationFailure
	if errors.Is(err, quad.ErrNonFinite) || errors.Is(err, profile.ErrSingularIntegrand) {
		kind = profile.ErrSingularIntegrand
	}
	return &profile.IntegralError{
		Integral: name,
		X:        x,
		Lower:    lo,
		Upper:    hi,
		Estimate: res.Value,
		AbsErr:   res.AbsErr,
		Kind:     kind,
		Cause:    err,
	}
}

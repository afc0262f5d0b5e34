package profile

import (
	"fmt"
	"math"
)

// Shape is the negative logarithmic slope of the pressure profile,
// α(x) = -d ln P / d ln x.
type Shape interface {
	Alpha(x float64) float64
}

// LogPressurer is implemented by shapes that know ln f_P(x) in closed form,
// with f_P(xRef) = 1.
type LogPressurer interface {
	LogPressure(x, xRef float64) float64
}

// Potential is a spherically symmetric gravitational potential,
// zero-referenced at x = 0.
type Potential interface {
	Phi(x float64) float64
	Vc2(x float64) float64
	// PhiInf is the limit of Phi as x grows without bound, +Inf for
	// potentials that never converge.
	PhiInf() float64
}

// Named is implemented by shapes and potentials that can describe themselves.
type Named interface {
	Name() string
}

// Parameterized exposes the parameters of a shape or potential, keyed by
// their configuration names.
type Parameterized interface {
	Params() map[string]float64
}

// Energy per unit pressure for common non-thermal support.
const (
	TurbulentRatio  = 1.5
	CosmicRayRatio  = 3.0
	MagneticRatio   = 1.0
	ThermalPerPress = 1.5
)

// Support splits the pressure into thermal and non-thermal parts.
// ThermalFraction is the share of the pressure carried by thermal gas;
// NonThermalRatio is the energy density per unit non-thermal pressure.
type Support struct {
	ThermalFraction float64
	NonThermalRatio float64
}

func DefaultSupport() Support {
	return Support{ThermalFraction: 1.0, NonThermalRatio: TurbulentRatio}
}

func (s Support) Validate() error {
	if !(s.ThermalFraction > 0 && s.ThermalFraction <= 1) {
		return fmt.Errorf("%w: thermal fraction %g not in (0, 1]", ErrParameterBounds, s.ThermalFraction)
	}
	if s.NonThermalRatio < 0 || math.IsNaN(s.NonThermalRatio) {
		return fmt.Errorf("%w: non-thermal ratio %g", ErrParameterBounds, s.NonThermalRatio)
	}
	return nil
}

// ThermalWeight is the coefficient of ∫ f_P t² dt in J_th.
func (s Support) ThermalWeight() float64 {
	return ThermalPerPress * s.ThermalFraction
}

// NonThermalWeight is the coefficient of ∫ f_P t² dt in J_nt.
func (s Support) NonThermalWeight() float64 {
	return s.NonThermalRatio * (1 - s.ThermalFraction)
}

// Options holds every numerical knob of a solve. Nothing here is global:
// callers pass a value into each solver they build.
type Options struct {
	// Epsilon is the lower cutoff of the cumulative integrals. Too small
	// and integrands that blend a vanishing v_c² with a finite numerator
	// lose precision; too large and the integrals are biased.
	Epsilon float64
	// XRef is the radius where f_P = 1.
	XRef float64
	// XMin and XMax bound the log-spaced grid used for inversion.
	XMin       float64
	XMax       float64
	GridPoints int
	// Limit caps the number of subintervals of one adaptive quadrature.
	Limit  int
	AbsTol float64
	RelTol float64
	// RootTol is the relative tolerance in x of the refined root.
	RootTol float64
	// MonotonicTol is the relative decrease in F tolerated between
	// neighbouring grid points before the table counts as non-monotonic.
	MonotonicTol float64
}

const (
	DefaultEpsilon      = 1e-4
	DefaultXRef         = 1.0
	DefaultXMax         = 1e4
	DefaultGridPoints   = 121
	DefaultLimit        = 50
	DefaultTol          = 1.49e-8
	DefaultRootTol      = 1e-10
	DefaultMonotonicTol = 1e-9
)

// DefaultXMin is 10^-1.5.
var DefaultXMin = math.Pow(10, -1.5)

func DefaultOptions() Options {
	return Options{
		Epsilon:      DefaultEpsilon,
		XRef:         DefaultXRef,
		XMin:         DefaultXMin,
		XMax:         DefaultXMax,
		GridPoints:   DefaultGridPoints,
		Limit:        DefaultLimit,
		AbsTol:       DefaultTol,
		RelTol:       DefaultTol,
		RootTol:      DefaultRootTol,
		MonotonicTol: DefaultMonotonicTol,
	}
}

func (o Options) Validate() error {
	switch {
	case !(o.Epsilon > 0):
		return fmt.Errorf("%w: epsilon must be positive, got %g", ErrParameterBounds, o.Epsilon)
	case !(o.XRef > 0):
		return fmt.Errorf("%w: x_ref must be positive, got %g", ErrParameterBounds, o.XRef)
	case o.Epsilon >= o.XMin:
		return fmt.Errorf("%w: epsilon %g must lie below x_min %g", ErrParameterBounds, o.Epsilon, o.XMin)
	case !(o.XMin < o.XMax) || math.IsInf(o.XMax, 0):
		return fmt.Errorf("%w: grid [%g, %g] is empty", ErrParameterBounds, o.XMin, o.XMax)
	case o.GridPoints < 2:
		return fmt.Errorf("%w: need at least 2 grid points, got %d", ErrParameterBounds, o.GridPoints)
	case o.Limit < 1:
		return fmt.Errorf("%w: subdivision limit must be at least 1, got %d", ErrParameterBounds, o.Limit)
	case o.AbsTol < 0 || o.RelTol < 0 || (o.AbsTol == 0 && o.RelTol == 0):
		return fmt.Errorf("%w: tolerances abs=%g rel=%g", ErrParameterBounds, o.AbsTol, o.RelTol)
	case !(o.RootTol > 0):
		return fmt.Errorf("%w: root tolerance must be positive, got %g", ErrParameterBounds, o.RootTol)
	case o.MonotonicTol < 0:
		return fmt.Errorf("%w: monotonic tolerance %g", ErrParameterBounds, o.MonotonicTol)
	}
	return nil
}

// Integrals are the cumulative integrals from Epsilon to X.
type Integrals struct {
	X    float64
	I    float64
	JPhi float64
	JTh  float64
	JNt  float64
}

// F is the mean specific energy of the gas inside X.
func (in Integrals) F() float64 {
	return (in.JPhi + in.JTh + in.JNt) / in.I
}

// Norm is the pressure normalization 1/I, in units of M_CGM v_φ² / 4π r_s³.
func (in Integrals) Norm() float64 {
	return 1 / in.I
}

// Equilibrium is the solution of ε_CGM = v_φ² F(x_CGM).
type Equilibrium struct {
	Target       float64 `json:"target"`
	X            float64 `json:"x_cgm"`
	PressureNorm float64 `json:"pressure_norm"`
	I            float64 `json:"i"`
	F            float64 `json:"f"`
}

func (e Equilibrium) String() string {
	return fmt.Sprintf("x_cgm=%.6g pressure_norm=%.6g (target=%.6g)", e.X, e.PressureNorm, e.Target)
}

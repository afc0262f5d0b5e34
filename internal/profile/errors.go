package profile

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Domain errors for equilibrium solves.
var (
	// ErrIntegrationFailure indicates a quadrature did not converge within
	// its subdivision limit.
	ErrIntegrationFailure = errors.New("profile: integration did not converge")

	// ErrSingularIntegrand indicates an integrand evaluated to NaN or Inf,
	// usually because the lower cutoff is too close to a singularity.
	ErrSingularIntegrand = errors.New("profile: singular integrand")

	// ErrUnachievableEnergy indicates no gravitationally confined
	// equilibrium exists at the requested specific energy.
	ErrUnachievableEnergy = errors.New("profile: specific energy exceeds the potential's asymptotic limit")

	// ErrNonMonotonic indicates F(x) crosses the target more than once.
	ErrNonMonotonic = errors.New("profile: mean specific energy is not monotonic, inversion is ambiguous")

	// ErrOutOfDomain indicates the target is achievable but not inside
	// the solver's radius grid.
	ErrOutOfDomain = errors.New("profile: target outside the tabulated radius range")

	// ErrInvalidRadius indicates a non-positive or NaN radius.
	ErrInvalidRadius = errors.New("profile: radius must be positive")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("profile: parameter out of valid bounds")
)

// Names of the cumulative integrals, used in IntegralError.
const (
	IntegralI        = "I"
	IntegralJPhi     = "J_phi"
	IntegralJTh      = "J_th"
	IntegralJNt      = "J_nt"
	IntegralPressure = "ln f_P"
)

// IntegralError wraps a quadrature failure with the integral and radius it
// occurred at.
type IntegralError struct {
	Integral string
	X        float64
	Lower    float64
	Upper    float64
	Estimate float64
	AbsErr   float64
	// Kind is ErrIntegrationFailure or ErrSingularIntegrand.
	Kind  error
	Cause error
}

func (e *IntegralError) Error() string {
	msg := fmt.Sprintf("%s at x=%g (interval [%g, %g], estimate %g ± %g)",
		e.Integral, e.X, e.Lower, e.Upper, e.Estimate, e.AbsErr)
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("%v: %s", e.Kind, msg)
}

func (e *IntegralError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// EnergyError reports a target specific energy with no solution in range.
type EnergyError struct {
	Target float64
	// Limit is φ_∞ for ErrUnachievableEnergy, or the nearest tabulated F
	// for ErrOutOfDomain.
	Limit float64
	// X is the grid edge closest to the missing solution.
	X    float64
	Kind error
}

func (e *EnergyError) Error() string {
	if errors.Is(e.Kind, ErrUnachievableEnergy) {
		return fmt.Sprintf("%v: target %g >= phi_inf %g", e.Kind, e.Target, e.Limit)
	}
	return fmt.Sprintf("%v: target %g beyond F=%g at x=%g", e.Kind, e.Target, e.Limit, e.X)
}

func (e *EnergyError) Unwrap() error {
	return e.Kind
}

// NonMonotonicError lists every root bracketed on the grid.
type NonMonotonicError struct {
	Target float64
	Roots  []float64
}

func (e *NonMonotonicError) Error() string {
	parts := make([]string, len(e.Roots))
	for i, r := range e.Roots {
		parts[i] = fmt.Sprintf("%.6g", r)
	}
	return fmt.Sprintf("%v: target %g reached at x = [%s]", ErrNonMonotonic, e.Target, strings.Join(parts, ", "))
}

func (e *NonMonotonicError) Unwrap() error {
	return ErrNonMonotonic
}

// CheckRadius returns ErrInvalidRadius unless x is positive and finite.
func CheckRadius(x float64) error {
	if !(x > 0) || math.IsInf(x, 0) {
		return fmt.Errorf("%w: x=%g", ErrInvalidRadius, x)
	}
	return nil
}

package profile

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestIntegralErrorUnwrap(t *testing.T) {
	cause := errors.New("quad: not converged")
	err := error(&IntegralError{Integral: IntegralJPhi, X: 10, Kind: ErrIntegrationFailure, Cause: cause})

	if !errors.Is(err, ErrIntegrationFailure) {
		t.Error("expected ErrIntegrationFailure")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	if errors.Is(err, ErrSingularIntegrand) {
		t.Error("did not expect ErrSingularIntegrand")
	}

	var ie *IntegralError
	if !errors.As(err, &ie) || ie.Integral != IntegralJPhi {
		t.Errorf("expected IntegralError naming %s", IntegralJPhi)
	}
	if !strings.Contains(err.Error(), "J_phi at x=10") {
		t.Errorf("unexpected message: %s", err)
	}
}

func TestEnergyErrorKinds(t *testing.T) {
	unachievable := error(&EnergyError{Target: 5, Limit: 4.625, Kind: ErrUnachievableEnergy})
	outside := error(&EnergyError{Target: 4.62, Limit: 4.61, X: 1e4, Kind: ErrOutOfDomain})

	if !errors.Is(unachievable, ErrUnachievableEnergy) || errors.Is(unachievable, ErrOutOfDomain) {
		t.Error("unachievable energy must be distinct from out of domain")
	}
	if !errors.Is(outside, ErrOutOfDomain) || errors.Is(outside, ErrUnachievableEnergy) {
		t.Error("out of domain must be distinct from unachievable energy")
	}
}

func TestNonMonotonicError(t *testing.T) {
	err := error(&NonMonotonicError{Target: 1, Roots: []float64{0.5, 2, 8}})
	if !errors.Is(err, ErrNonMonotonic) {
		t.Error("expected ErrNonMonotonic")
	}
	if !strings.Contains(err.Error(), "0.5, 2, 8") {
		t.Errorf("roots missing from message: %s", err)
	}
}

func TestCheckRadius(t *testing.T) {
	tests := []struct {
		x  float64
		ok bool
	}{
		{1, true},
		{1e-12, true},
		{0, false},
		{-1, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}

	for _, tt := range tests {
		err := CheckRadius(tt.x)
		if tt.ok && err != nil {
			t.Errorf("x=%g: unexpected error %v", tt.x, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidRadius) {
			t.Errorf("x=%g: expected ErrInvalidRadius, got %v", tt.x, err)
		}
	}
}

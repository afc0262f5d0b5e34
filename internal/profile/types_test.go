package profile

import (
	"errors"
	"math"
	"testing"
)

func TestDefaultOptionsValid(t *testing.T) {
	opts := DefaultOptions()
	if err := opts.Validate(); err != nil {
		t.Fatalf("default options invalid: %v", err)
	}
	if math.Abs(opts.XMin-0.0316227766) > 1e-9 {
		t.Errorf("expected x_min 10^-1.5, got %g", opts.XMin)
	}
	if opts.Limit != 50 {
		t.Errorf("expected limit 50, got %d", opts.Limit)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"zero epsilon", func(o *Options) { o.Epsilon = 0 }},
		{"epsilon above x_min", func(o *Options) { o.Epsilon = 0.1 }},
		{"empty grid", func(o *Options) { o.XMax = o.XMin }},
		{"infinite grid", func(o *Options) { o.XMax = math.Inf(1) }},
		{"one grid point", func(o *Options) { o.GridPoints = 1 }},
		{"zero limit", func(o *Options) { o.Limit = 0 }},
		{"no tolerance", func(o *Options) { o.AbsTol, o.RelTol = 0, 0 }},
		{"zero root tolerance", func(o *Options) { o.RootTol = 0 }},
		{"negative x_ref", func(o *Options) { o.XRef = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			if err := opts.Validate(); !errors.Is(err, ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestSupportWeights(t *testing.T) {
	s := DefaultSupport()
	if s.ThermalWeight() != 1.5 {
		t.Errorf("expected thermal weight 1.5, got %g", s.ThermalWeight())
	}
	if s.NonThermalWeight() != 0 {
		t.Errorf("expected no non-thermal energy, got %g", s.NonThermalWeight())
	}

	s = Support{ThermalFraction: 0.6, NonThermalRatio: CosmicRayRatio}
	if math.Abs(s.ThermalWeight()-0.9) > 1e-12 {
		t.Errorf("expected thermal weight 0.9, got %g", s.ThermalWeight())
	}
	if math.Abs(s.NonThermalWeight()-1.2) > 1e-12 {
		t.Errorf("expected non-thermal weight 1.2, got %g", s.NonThermalWeight())
	}

	for _, bad := range []Support{{ThermalFraction: 0}, {ThermalFraction: 1.2}, {ThermalFraction: 0.5, NonThermalRatio: -1}} {
		if err := bad.Validate(); !errors.Is(err, ErrParameterBounds) {
			t.Errorf("%+v: expected ErrParameterBounds, got %v", bad, err)
		}
	}
}

func TestIntegralsDerived(t *testing.T) {
	in := Integrals{X: 2, I: 4, JPhi: 6, JTh: 1, JNt: 1}
	if in.F() != 2 {
		t.Errorf("expected F 2, got %g", in.F())
	}
	if in.Norm() != 0.25 {
		t.Errorf("expected norm 0.25, got %g", in.Norm())
	}
}

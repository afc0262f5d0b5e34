package shapes

import (
	"fmt"
	"math"

	"github.com/san-kum/expcgm/internal/profile"
)

// Generalized joins an inner slope to an outer slope:
//
//	α(x) = Inner + (Outer - Inner)·y/(1+y),  y = (x/Transition)^Sharpness
type Generalized struct {
	Inner      float64
	Outer      float64
	Sharpness  float64
	Transition float64
}

func NewGeneralized(inner, outer, sharpness, transition float64) *Generalized {
	return &Generalized{
		Inner:      inner,
		Outer:      outer,
		Sharpness:  sharpness,
		Transition: transition,
	}
}

// DefaultGeneralized steepens from the NFW-like inner slope 1 to 3 at the
// scale radius.
func DefaultGeneralized() *Generalized {
	return NewGeneralized(1.0, 3.0, 1.0, 1.0)
}

func (g *Generalized) Name() string { return "generalized" }

func (g *Generalized) lnY(x float64) float64 {
	return g.Sharpness * math.Log(x/g.Transition)
}

func (g *Generalized) Alpha(x float64) float64 {
	// y/(1+y) written as a logistic in ln y so large y cannot overflow.
	w := 1 / (1 + math.Exp(-g.lnY(x)))
	return g.Inner + (g.Outer-g.Inner)*w
}

func (g *Generalized) LogPressure(x, xRef float64) float64 {
	inner := g.Inner * math.Log(x/xRef)
	outer := (g.Outer - g.Inner) / g.Sharpness * (softplus(g.lnY(x)) - softplus(g.lnY(xRef)))
	return -(inner + outer)
}

func (g *Generalized) Params() map[string]float64 {
	return map[string]float64{
		"inner":      g.Inner,
		"outer":      g.Outer,
		"sharpness":  g.Sharpness,
		"transition": g.Transition,
	}
}

func (g *Generalized) Validate() error {
	for name, v := range g.Params() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s=%g", profile.ErrParameterBounds, name, v)
		}
	}
	if !(g.Sharpness > 0) {
		return fmt.Errorf("%w: sharpness must be positive, got %g", profile.ErrParameterBounds, g.Sharpness)
	}
	if !(g.Transition > 0) {
		return fmt.Errorf("%w: transition radius must be positive, got %g", profile.ErrParameterBounds, g.Transition)
	}
	return nil
}

// softplus is ln(1 + e^z).
func softplus(z float64) float64 {
	if z > 30 {
		return z + math.Exp(-z)
	}
	return math.Log1p(math.Exp(z))
}

package potentials

import (
	"fmt"
	"math"

	"github.com/san-kum/expcgm/internal/profile"
)

// Isothermal is a cored isothermal sphere with ρ ∝ 1/(1+x²). Its circular
// velocity flattens to √V at large radius and φ grows like V ln x, so every
// specific energy has a confined equilibrium.
type Isothermal struct {
	V float64
}

func NewIsothermal(v float64) *Isothermal {
	return &Isothermal{V: v}
}

func (i *Isothermal) Name() string { return "isothermal" }

func (i *Isothermal) Phi(x float64) float64 {
	if x < seriesCut {
		x2 := x * x
		return i.V * x2 * (1.0/6 - x2*(1.0/20-x2/42))
	}
	return i.V * (math.Atan(x)/x + 0.5*math.Log1p(x*x) - 1)
}

func (i *Isothermal) Vc2(x float64) float64 {
	if x < seriesCut {
		x2 := x * x
		return i.V * x2 * (1.0/3 - x2*(1.0/5-x2/7))
	}
	return i.V * (1 - math.Atan(x)/x)
}

func (i *Isothermal) PhiInf() float64 { return math.Inf(1) }

func (i *Isothermal) Params() map[string]float64 {
	return map[string]float64{"isothermal_v": i.V}
}

func (i *Isothermal) Validate() error {
	if !(i.V > 0) || math.IsInf(i.V, 0) {
		return fmt.Errorf("%w: isothermal amplitude must be positive, got %g", profile.ErrParameterBounds, i.V)
	}
	return nil
}

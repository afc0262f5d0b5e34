package potentials

import (
	"fmt"
	"math"

	"github.com/san-kum/expcgm/internal/profile"
)

// DefaultANFW makes v_φ the peak circular velocity of the halo, reached at
// x ≈ 2.163.
const DefaultANFW = 4.625

// seriesCut is where the NFW closed forms hand over to their Taylor series;
// below it ln(1+x)/x - 1/(1+x) loses digits to cancellation.
const seriesCut = 1e-3

type NFW struct {
	A float64
}

func NewNFW(a float64) *NFW {
	return &NFW{A: a}
}

func (n *NFW) Name() string { return "nfw" }

func (n *NFW) Phi(x float64) float64 {
	if x < seriesCut {
		return n.A * x * (0.5 - x*(1.0/3-x*(0.25-x/5)))
	}
	return n.A * (1 - math.Log1p(x)/x)
}

func (n *NFW) Vc2(x float64) float64 {
	if x < seriesCut {
		return n.A * x * (0.5 - x*(2.0/3-x*(0.75-x*4/5)))
	}
	return n.A * (math.Log1p(x)/x - 1/(1+x))
}

func (n *NFW) PhiInf() float64 { return n.A }

func (n *NFW) Params() map[string]float64 {
	return map[string]float64{"a_nfw": n.A}
}

func (n *NFW) Validate() error {
	if !(n.A > 0) || math.IsInf(n.A, 0) {
		return fmt.Errorf("%w: a_nfw must be positive, got %g", profile.ErrParameterBounds, n.A)
	}
	return nil
}

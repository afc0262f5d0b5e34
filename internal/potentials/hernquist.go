package potentials

import (
	"fmt"
	"math"

	"github.com/san-kum/expcgm/internal/profile"
)

// Hernquist is a central galaxy of mass M and scale length a, with
// A = GM/(a v_φ²) and Scale = a/r_s. Unlike NFW its force stays finite and
// non-zero at the centre.
type Hernquist struct {
	A     float64
	Scale float64
}

func NewHernquist(a, scale float64) *Hernquist {
	return &Hernquist{A: a, Scale: scale}
}

func (h *Hernquist) Name() string { return "hernquist" }

func (h *Hernquist) Phi(x float64) float64 {
	return h.A * x / (x + h.Scale)
}

func (h *Hernquist) Vc2(x float64) float64 {
	d := x + h.Scale
	return h.A * h.Scale * x / (d * d)
}

func (h *Hernquist) PhiInf() float64 { return h.A }

func (h *Hernquist) Params() map[string]float64 {
	return map[string]float64{"hernquist_a": h.A, "hernquist_scale": h.Scale}
}

func (h *Hernquist) Validate() error {
	if !(h.A > 0) || math.IsInf(h.A, 0) {
		return fmt.Errorf("%w: hernquist amplitude must be positive, got %g", profile.ErrParameterBounds, h.A)
	}
	if !(h.Scale > 0) || math.IsInf(h.Scale, 0) {
		return fmt.Errorf("%w: hernquist scale must be positive, got %g", profile.ErrParameterBounds, h.Scale)
	}
	return nil
}

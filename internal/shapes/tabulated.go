package shapes

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"

	"github.com/san-kum/expcgm/internal/profile"
)

// Tabulated interpolates α linearly in ln x between sample points and holds
// the end values outside them.
type Tabulated struct {
	xs     []float64
	alphas []float64
	pl     interp.PiecewiseLinear
	lnMin  float64
	lnMax  float64
}

// NewTabulated builds a shape from samples of α. Radii need not be sorted
// but must be positive and distinct.
func NewTabulated(xs, alphas []float64) (*Tabulated, error) {
	if len(xs) != len(alphas) {
		return nil, fmt.Errorf("%w: %d radii but %d slopes", profile.ErrParameterBounds, len(xs), len(alphas))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", profile.ErrParameterBounds, len(xs))
	}

	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	t := &Tabulated{
		xs:     make([]float64, len(xs)),
		alphas: make([]float64, len(xs)),
	}
	lnX := make([]float64, len(xs))
	for i, j := range idx {
		if err := profile.CheckRadius(xs[j]); err != nil {
			return nil, err
		}
		if math.IsNaN(alphas[j]) || math.IsInf(alphas[j], 0) {
			return nil, fmt.Errorf("%w: alpha(%g)=%g", profile.ErrParameterBounds, xs[j], alphas[j])
		}
		t.xs[i] = xs[j]
		t.alphas[i] = alphas[j]
		lnX[i] = math.Log(xs[j])
	}

	if err := t.pl.Fit(lnX, t.alphas); err != nil {
		return nil, fmt.Errorf("%w: %v", profile.ErrParameterBounds, err)
	}
	t.lnMin, t.lnMax = lnX[0], lnX[len(lnX)-1]
	return t, nil
}

func (t *Tabulated) Name() string { return "tabulated" }

func (t *Tabulated) Alpha(x float64) float64 {
	u := math.Log(x)
	switch {
	case u <= t.lnMin:
		return t.alphas[0]
	case u >= t.lnMax:
		return t.alphas[len(t.alphas)-1]
	}
	return t.pl.Predict(u)
}

func (t *Tabulated) Points() (xs, alphas []float64) {
	return append([]float64(nil), t.xs...), append([]float64(nil), t.alphas...)
}

func (t *Tabulated) Params() map[string]float64 {
	return map[string]float64{
		"samples": float64(len(t.xs)),
		"x_first": t.xs[0],
		"x_last":  t.xs[len(t.xs)-1],
	}
}

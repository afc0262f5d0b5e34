package shapes

import (
	"fmt"
	"math"

	"github.com/san-kum/expcgm/internal/profile"
)

type Constant struct {
	Value float64
}

func NewConstant(alpha float64) *Constant {
	return &Constant{Value: alpha}
}

func (c *Constant) Name() string { return "constant" }

func (c *Constant) Alpha(x float64) float64 {
	return c.Value
}

func (c *Constant) LogPressure(x, xRef float64) float64 {
	return -c.Value * math.Log(x/xRef)
}

func (c *Constant) Params() map[string]float64 {
	return map[string]float64{"alpha": c.Value}
}

func (c *Constant) Validate() error {
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
		return fmt.Errorf("%w: alpha=%g", profile.ErrParameterBounds, c.Value)
	}
	return nil
}

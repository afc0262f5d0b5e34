package potentials

import (
	"fmt"
	"strings"

	"github.com/san-kum/expcgm/internal/profile"
)

type Composite struct {
	parts []profile.Potential
}

func NewComposite(parts ...profile.Potential) *Composite {
	return &Composite{parts: parts}
}

// NewHaloWithGalaxy adds a Hernquist central galaxy to an NFW halo.
func NewHaloWithGalaxy(aNFW, aGal, scale float64) *Composite {
	return NewComposite(NewNFW(aNFW), NewHernquist(aGal, scale))
}

func (c *Composite) Name() string {
	names := make([]string, len(c.parts))
	for i, p := range c.parts {
		if n, ok := p.(profile.Named); ok {
			names[i] = n.Name()
		} else {
			names[i] = fmt.Sprintf("%T", p)
		}
	}
	return strings.Join(names, "+")
}

func (c *Composite) Parts() []profile.Potential {
	return append([]profile.Potential(nil), c.parts...)
}

func (c *Composite) Phi(x float64) float64 {
	sum := 0.0
	for _, p := range c.parts {
		sum += p.Phi(x)
	}
	return sum
}

func (c *Composite) Vc2(x float64) float64 {
	sum := 0.0
	for _, p := range c.parts {
		sum += p.Vc2(x)
	}
	return sum
}

func (c *Composite) PhiInf() float64 {
	sum := 0.0
	for _, p := range c.parts {
		sum += p.PhiInf()
	}
	return sum
}

func (c *Composite) Params() map[string]float64 {
	params := make(map[string]float64)
	for _, p := range c.parts {
		if pp, ok := p.(profile.Parameterized); ok {
			for k, v := range pp.Params() {
				params[k] = v
			}
		}
	}
	return params
}

func (c *Composite) Validate() error {
	if len(c.parts) == 0 {
		return fmt.Errorf("%w: composite potential has no components", profile.ErrParameterBounds)
	}
	for _, p := range c.parts {
		if v, ok := p.(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

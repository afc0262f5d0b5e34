// Package registry maps configuration names to shapes, potentials and
// integrators, and assembles solvers from a run configuration.
package registry

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/san-kum/expcgm/internal/config"
	"github.com/san-kum/expcgm/internal/potentials"
	"github.com/san-kum/expcgm/internal/profile"
	"github.com/san-kum/expcgm/internal/quad"
	"github.com/san-kum/expcgm/internal/shapes"
	"github.com/san-kum/expcgm/internal/solver"
	"github.com/san-kum/expcgm/internal/sweep"
)

type Registry struct {
	shapes      map[string]func(config.ShapeConfig) (profile.Shape, error)
	potentials  map[string]func(config.PotentialConfig) profile.Potential
	integrators map[string]func(config.SolverConfig) quad.Integrator
}

func New() *Registry {
	r := &Registry{
		shapes:      make(map[string]func(config.ShapeConfig) (profile.Shape, error)),
		potentials:  make(map[string]func(config.PotentialConfig) profile.Potential),
		integrators: make(map[string]func(config.SolverConfig) quad.Integrator),
	}

	r.shapes[config.ShapeConstant] = func(c config.ShapeConfig) (profile.Shape, error) {
		return shapes.NewConstant(c.Alpha), nil
	}
	r.shapes[config.ShapeGeneralized] = func(c config.ShapeConfig) (profile.Shape, error) {
		return shapes.NewGeneralized(c.Inner, c.Outer, c.Sharpness, c.Transition), nil
	}
	r.shapes[config.ShapeTabulated] = func(c config.ShapeConfig) (profile.Shape, error) {
		xs := make([]float64, len(c.Table))
		alphas := make([]float64, len(c.Table))
		for i, p := range c.Table {
			xs[i], alphas[i] = p.X, p.Alpha
		}
		return shapes.NewTabulated(xs, alphas)
	}

	r.potentials[config.PotentialNFW] = func(c config.PotentialConfig) profile.Potential {
		return potentials.NewNFW(c.ANFW)
	}
	r.potentials[config.PotentialHernquist] = func(c config.PotentialConfig) profile.Potential {
		return potentials.NewHernquist(c.HernquistA, c.HernquistScale)
	}
	r.potentials[config.PotentialIsothermal] = func(c config.PotentialConfig) profile.Potential {
		return potentials.NewIsothermal(c.IsothermalV)
	}
	r.potentials[config.PotentialComposite] = func(c config.PotentialConfig) profile.Potential {
		return potentials.NewHaloWithGalaxy(c.ANFW, c.HernquistA, c.HernquistScale)
	}

	r.integrators[config.IntegratorKronrod] = func(c config.SolverConfig) quad.Integrator {
		return quad.NewKronrod(c.Limit, c.AbsTol, c.RelTol)
	}
	r.integrators[config.IntegratorLegendre] = func(c config.SolverConfig) quad.Integrator {
		return quad.NewLegendre(c.LegendreOrder, c.AbsTol, c.RelTol)
	}

	return r
}

func (r *Registry) GetShape(c config.ShapeConfig) (profile.Shape, error) {
	fn, ok := r.shapes[c.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown shape: %s", c.Kind)
	}
	return fn(c)
}

func (r *Registry) GetPotential(c config.PotentialConfig) (profile.Potential, error) {
	fn, ok := r.potentials[c.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown potential: %s", c.Kind)
	}
	return fn(c), nil
}

func (r *Registry) GetIntegrator(c config.SolverConfig) (quad.Integrator, error) {
	fn, ok := r.integrators[c.Integrator]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", c.Integrator)
	}
	return fn(c), nil
}

func (r *Registry) ListShapes() []string      { return keys(r.shapes) }
func (r *Registry) ListPotentials() []string  { return keys(r.potentials) }
func (r *Registry) ListIntegrators() []string { return keys(r.integrators) }

// Solver validates cfg and builds a solver for it.
func (r *Registry) Solver(cfg *config.Config, logger *zap.Logger) (*solver.Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	shape, err := r.GetShape(cfg.Shape)
	if err != nil {
		return nil, err
	}
	pot, err := r.GetPotential(cfg.Potential)
	if err != nil {
		return nil, err
	}
	integ, err := r.GetIntegrator(cfg.Solver)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return solver.New(shape, pot,
		solver.WithSupport(cfg.SupportValue()),
		solver.WithOptions(cfg.Options()),
		solver.WithIntegrator(integ),
		solver.WithLogger(logger.With(zap.String("run", cfg.Name))),
	)
}

// Cases expands a parameter grid over base into sweep cases. Each case
// gets its own copy of base with the grid values applied.
func (r *Registry) Cases(base *config.Config, grid *sweep.Grid, logger *zap.Logger) []sweep.Case {
	return grid.Cases(func(params map[string]float64) sweep.Builder {
		return func() (*solver.Solver, error) {
			cfg := base.Clone()
			for k, v := range params {
				if err := cfg.Set(k, v); err != nil {
					return nil, err
				}
			}
			return r.Solver(cfg, logger)
		}
	})
}

func keys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/expcgm/internal/profile"
	"github.com/san-kum/expcgm/internal/solver"
)

// Point is one solve of a sweep. Err holds a modelling outcome such as an
// unachievable energy; computational failures abort the sweep instead.
type Point struct {
	Index       int                 `json:"index"`
	Label       string              `json:"label,omitempty"`
	Params      map[string]float64  `json:"params,omitempty"`
	Equilibrium profile.Equilibrium `json:"equilibrium"`
	Err         error               `json:"-"`
}

func (p Point) OK() bool { return p.Err == nil }

// Builder constructs a solver for one case of a parameter sweep.
type Builder func() (*solver.Solver, error)

type Case struct {
	Label  string
	Params map[string]float64
	Build  Builder
}

type Sweep struct {
	workers int
	logger  *zap.Logger
}

// New returns a sweep running at most workers solves at once; workers <= 0
// uses GOMAXPROCS.
func New(workers int, logger *zap.Logger) *Sweep {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweep{workers: workers, logger: logger}
}

// Modelling reports whether err is a property of the model rather than a
// numerical breakdown.
func Modelling(err error) bool {
	return errors.Is(err, profile.ErrUnachievableEnergy) ||
		errors.Is(err, profile.ErrOutOfDomain) ||
		errors.Is(err, profile.ErrNonMonotonic)
}

// Targets solves one model for every target. Results keep input order.
func (sw *Sweep) Targets(ctx context.Context, s *solver.Solver, targets []float64) ([]Point, error) {
	// Build the shared table before fanning out.
	if _, err := s.Table(); err != nil {
		return nil, err
	}

	points := make([]Point, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sw.workers)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			eq, err := s.Solve(target)
			points[i] = Point{Index: i, Equilibrium: eq}
			return sw.record(&points[i], err)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// Cases builds and solves one model per case at a common target.
func (sw *Sweep) Cases(ctx context.Context, cases []Case, target float64) ([]Point, error) {
	points := make([]Point, len(cases))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sw.workers)

	for i, c := range cases {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := c.Build()
			if err != nil {
				return fmt.Errorf("case %d (%s): %w", i, c.Label, err)
			}
			eq, err := s.Solve(target)
			points[i] = Point{Index: i, Label: c.Label, Params: c.Params, Equilibrium: eq}
			return sw.record(&points[i], err)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

func (sw *Sweep) record(p *Point, err error) error {
	if err == nil {
		return nil
	}
	if Modelling(err) {
		sw.logger.Debug("sweep point has no equilibrium",
			zap.Int("index", p.Index),
			zap.String("label", p.Label),
			zap.Error(err))
		p.Err = err
		return nil
	}
	return fmt.Errorf("point %d: %w", p.Index, err)
}

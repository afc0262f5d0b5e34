package solver_test

import (
	"errors"
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/expcgm/internal/potentials"
	"github.com/san-kum/expcgm/internal/profile"
	"github.com/san-kum/expcgm/internal/quad"
	"github.com/san-kum/expcgm/internal/shapes"
	"github.com/san-kum/expcgm/internal/solver"
)

// alphaOnly hides any closed-form pressure profile so the solver has to
// integrate α(t)/t itself.
type alphaOnly struct {
	profile.Shape
}

// flatPotential has no force anywhere, so no hydrostatic density exists.
type flatPotential struct{}

func (flatPotential) Phi(x float64) float64 { return 0 }
func (flatPotential) Vc2(x float64) float64 { return 0 }
func (flatPotential) PhiInf() float64       { return 0 }

// humpPotential rises to a peak at x = 3 and then falls back toward zero
// while keeping the NFW force, so F(x) climbs and turns over.
type humpPotential struct {
	nfw *potentials.NFW
}

func (h humpPotential) Phi(x float64) float64 { return 10 * x * math.Exp(-x/3) }
func (h humpPotential) Vc2(x float64) float64 { return h.nfw.Vc2(x) }
func (h humpPotential) PhiInf() float64       { return math.Inf(1) }

func nfwSolver(alpha float64, opts ...solver.Option) *solver.Solver {
	s, err := solver.New(shapes.NewConstant(alpha), potentials.NewNFW(potentials.DefaultANFW), opts...)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Solver", func() {
	var s *solver.Solver

	BeforeEach(func() {
		s = nfwSolver(1.5)
	})

	Describe("New", func() {
		It("rejects missing inputs", func() {
			_, err := solver.New(nil, potentials.NewNFW(1))
			Expect(err).To(MatchError(profile.ErrParameterBounds))
		})

		It("rejects inconsistent options", func() {
			opts := profile.DefaultOptions()
			opts.Epsilon = 1
			_, err := solver.New(shapes.NewConstant(1.5), potentials.NewNFW(1), solver.WithOptions(opts))
			Expect(err).To(MatchError(profile.ErrParameterBounds))
		})

		It("rejects an invalid support split", func() {
			_, err := solver.New(shapes.NewConstant(1.5), potentials.NewNFW(1),
				solver.WithSupport(profile.Support{ThermalFraction: 0}))
			Expect(err).To(MatchError(profile.ErrParameterBounds))
		})

		It("validates shapes and potentials", func() {
			_, err := solver.New(shapes.NewGeneralized(1, 3, 0, 1), potentials.NewNFW(1))
			Expect(err).To(MatchError(profile.ErrParameterBounds))

			_, err = solver.New(shapes.NewConstant(1.5), potentials.NewHernquist(1, -2))
			Expect(err).To(MatchError(profile.ErrParameterBounds))
		})
	})

	Describe("PressureProfile", func() {
		It("uses the closed form for constant alpha", func() {
			for _, x := range []float64{0.01, 0.3, 1, 7, 2e3} {
				fp, err := s.PressureProfile(x)
				Expect(err).NotTo(HaveOccurred())
				Expect(fp).To(BeNumerically("~", math.Pow(x, -1.5), 1e-12*math.Pow(x, -1.5)))
			}
		})

		It("is normalized to one at the reference radius", func() {
			fp, err := s.PressureProfile(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(fp).To(Equal(1.0))

			opts := profile.DefaultOptions()
			opts.XRef = 3
			shifted := nfwSolver(1.5, solver.WithOptions(opts))
			fp, err = shifted.PressureProfile(3)
			Expect(err).NotTo(HaveOccurred())
			Expect(fp).To(Equal(1.0))
		})

		It("integrates alpha when no closed form exists", func() {
			gen := shapes.NewGeneralized(1, 3, 1.5, 2)
			numeric, err := solver.New(alphaOnly{gen}, potentials.NewNFW(potentials.DefaultANFW))
			Expect(err).NotTo(HaveOccurred())

			for _, x := range []float64{0.05, 0.9, 4, 60} {
				got, err := numeric.PressureProfile(x)
				Expect(err).NotTo(HaveOccurred())
				want := math.Exp(gen.LogPressure(x, 1))
				Expect(got).To(BeNumerically("~", want, 1e-7*want))
			}
		})

		It("fails for non-positive radii", func() {
			for _, x := range []float64{0, -2} {
				fp, err := s.PressureProfile(x)
				Expect(math.IsNaN(fp)).To(BeTrue())
				Expect(err).To(MatchError(profile.ErrInvalidRadius))
			}
		})
	})

	Describe("Integrals", func() {
		It("matches the reference normalization at x = 1", func() {
			in, err := s.Integrals(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(in.I).To(BeNumerically("~", 1.928585, 1e-4))
			Expect(in.Norm()).To(BeNumerically("~", 1/in.I, 1e-15))

			norm, err := s.PressureNormalization(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(norm).To(BeNumerically("~", 1/1.928585, 1e-4))
		})

		It("carries no non-thermal energy by default", func() {
			in, err := s.Integrals(5)
			Expect(err).NotTo(HaveOccurred())
			Expect(in.JNt).To(BeZero())
			Expect(in.JTh).To(BeNumerically(">", 0))
		})

		It("splits support energy between thermal and non-thermal parts", func() {
			turbulent := nfwSolver(1.5, solver.WithSupport(profile.Support{ThermalFraction: 0.5, NonThermalRatio: profile.TurbulentRatio}))
			cosmic := nfwSolver(1.5, solver.WithSupport(profile.Support{ThermalFraction: 0.5, NonThermalRatio: profile.CosmicRayRatio}))

			base, err := s.Integrals(10)
			Expect(err).NotTo(HaveOccurred())
			turb, err := turbulent.Integrals(10)
			Expect(err).NotTo(HaveOccurred())
			cr, err := cosmic.Integrals(10)
			Expect(err).NotTo(HaveOccurred())

			Expect(turb.JTh).To(BeNumerically("~", turb.JNt, 1e-12*turb.JTh))
			Expect(turb.F()).To(BeNumerically("~", base.F(), 1e-10))
			Expect(cr.F()).To(BeNumerically(">", base.F()))
		})

		It("rejects radii at or below the cutoff", func() {
			_, err := s.Integrals(profile.DefaultEpsilon)
			Expect(err).To(MatchError(profile.ErrInvalidRadius))
		})

		It("agrees before and after the table is built", func() {
			cold, err := s.Integrals(37)
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Table()
			Expect(err).NotTo(HaveOccurred())

			warm, err := s.Integrals(37)
			Expect(err).NotTo(HaveOccurred())
			Expect(warm.I).To(BeNumerically("~", cold.I, 1e-7*cold.I))
			Expect(warm.F()).To(BeNumerically("~", cold.F(), 1e-7))
		})

		It("reports a singular integrand with the failing integral", func() {
			flat, err := solver.New(shapes.NewConstant(1.5), flatPotential{})
			Expect(err).NotTo(HaveOccurred())

			_, err = flat.Integrals(2)
			Expect(err).To(MatchError(profile.ErrSingularIntegrand))

			var ie *profile.IntegralError
			Expect(errors.As(err, &ie)).To(BeTrue())
			Expect(ie.Integral).To(Equal(profile.IntegralI))
			Expect(ie.X).To(Equal(2.0))
		})

		It("reports quadrature that runs out of subdivisions", func() {
			opts := profile.DefaultOptions()
			opts.Limit = 1
			opts.AbsTol = 0
			opts.RelTol = 1e-15
			strict := nfwSolver(1.5, solver.WithOptions(opts))

			_, err := strict.Integrals(10)
			Expect(err).To(MatchError(profile.ErrIntegrationFailure))
			Expect(errors.Is(err, quad.ErrNotConverged)).To(BeTrue())

			var ie *profile.IntegralError
			Expect(errors.As(err, &ie)).To(BeTrue())
			Expect(ie.Integral).To(Equal(profile.IntegralI))
		})

		It("shows the cutoff sensitivity of a cored potential", func() {
			iso := potentials.NewIsothermal(1)
			opts := profile.DefaultOptions()
			fine, err := solver.New(shapes.NewConstant(1.5), iso, solver.WithOptions(opts))
			Expect(err).NotTo(HaveOccurred())

			opts.Epsilon = 1e-2
			coarse, err := solver.New(shapes.NewConstant(1.5), iso, solver.WithOptions(opts))
			Expect(err).NotTo(HaveOccurred())

			a, err := fine.Integrals(1)
			Expect(err).NotTo(HaveOccurred())
			b, err := coarse.Integrals(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.I / b.I).To(BeNumerically(">", 5))
		})
	})

	Describe("MeanSpecificEnergy", func() {
		It("reproduces the worked interpretation example", func() {
			f, err := s.MeanSpecificEnergy(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(BeNumerically("~", 3.5, 0.35))
			Expect(f).To(BeNumerically("~", 3.766662, 1e-4))
		})

		It("increases strictly from 10^-1.5 to 10^2", func() {
			opts := profile.DefaultOptions()
			opts.XMax = 100
			short := nfwSolver(1.5, solver.WithOptions(opts))

			tab, err := short.Table()
			Expect(err).NotTo(HaveOccurred())
			ok, idx := tab.Monotonic()
			Expect(ok).To(BeTrue(), "violation at %d", idx)
			for i := 1; i < tab.Len(); i++ {
				Expect(tab.F[i]).To(BeNumerically(">", tab.F[i-1]))
			}
			Expect(tab.X[0]).To(Equal(opts.XMin))
			Expect(tab.X[tab.Len()-1]).To(Equal(100.0))
		})

		It("approaches phi_inf from below", func() {
			tab, err := s.Table()
			Expect(err).NotTo(HaveOccurred())
			last := tab.F[tab.Len()-1]
			Expect(last).To(BeNumerically("<", potentials.DefaultANFW))
			Expect(last).To(BeNumerically("~", 4.624196, 1e-4))
		})

		It("does not depend on the quadrature rule", func() {
			legendre := nfwSolver(1.5, solver.WithIntegrator(quad.NewLegendre(64, 1e-6, 1e-6)))
			a, err := s.MeanSpecificEnergy(10)
			Expect(err).NotTo(HaveOccurred())
			b, err := legendre.MeanSpecificEnergy(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(b).To(BeNumerically("~", a, 1e-5))
		})
	})

	Describe("SolveRadius", func() {
		It("round-trips through F", func() {
			for _, x := range []float64{0.1, 2, 10, 300} {
				target, err := s.MeanSpecificEnergy(x)
				Expect(err).NotTo(HaveOccurred())

				got, err := s.SolveRadius(target)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(BeNumerically("~", x, 1e-3*x))
			}
		})

		It("pushes the radius out and the pressure down near phi_inf", func() {
			prevX, prevNorm := 0.0, math.Inf(1)
			for _, target := range []float64{4.0, 4.4, 4.55, 4.6, 4.62} {
				eq, err := s.Solve(target)
				Expect(err).NotTo(HaveOccurred())
				Expect(eq.X).To(BeNumerically(">", prevX))
				Expect(eq.PressureNorm).To(BeNumerically("<", prevNorm))
				Expect(eq.F).To(BeNumerically("~", target, 1e-8))
				prevX, prevNorm = eq.X, eq.PressureNorm
			}
			Expect(prevX).To(BeNumerically(">", 1000))
		})

		It("refuses energies at or above phi_inf", func() {
			for _, target := range []float64{potentials.DefaultANFW, 4.7, 50} {
				x, err := s.SolveRadius(target)
				Expect(math.IsNaN(x)).To(BeTrue())
				Expect(err).To(MatchError(profile.ErrUnachievableEnergy))
				Expect(err).NotTo(MatchError(profile.ErrOutOfDomain))

				var ee *profile.EnergyError
				Expect(errors.As(err, &ee)).To(BeTrue())
				Expect(ee.Limit).To(Equal(potentials.DefaultANFW))
			}
		})

		It("separates out-of-range targets from unachievable ones", func() {
			_, err := s.SolveRadius(4.6245)
			Expect(err).To(MatchError(profile.ErrOutOfDomain))
			Expect(err).NotTo(MatchError(profile.ErrUnachievableEnergy))

			var ee *profile.EnergyError
			Expect(errors.As(err, &ee)).To(BeTrue())
			Expect(ee.X).To(Equal(profile.DefaultXMax))

			_, err = s.SolveRadius(0.01)
			Expect(err).To(MatchError(profile.ErrOutOfDomain))
			Expect(errors.As(err, &ee)).To(BeTrue())
			Expect(ee.X).To(Equal(profile.DefaultXMin))
		})

		It("rejects non-finite targets", func() {
			_, err := s.SolveRadius(math.NaN())
			Expect(err).To(MatchError(profile.ErrParameterBounds))
		})

		It("solves a halo with a central galaxy", func() {
			c, err := solver.New(shapes.NewConstant(1.5), potentials.NewHaloWithGalaxy(potentials.DefaultANFW, 0.8, 0.05))
			Expect(err).NotTo(HaveOccurred())

			f, err := c.MeanSpecificEnergy(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(BeNumerically("~", 4.607670, 1e-4))

			x, err := c.SolveRadius(f)
			Expect(err).NotTo(HaveOccurred())
			Expect(x).To(BeNumerically("~", 10, 1e-3*10))
		})

		It("solves the generalized shape", func() {
			g, err := solver.New(shapes.NewGeneralized(1, 3, 1, 1), potentials.NewNFW(potentials.DefaultANFW))
			Expect(err).NotTo(HaveOccurred())

			f, err := g.MeanSpecificEnergy(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(BeNumerically("~", 3.081371, 1e-4))

			x, err := g.SolveRadius(f)
			Expect(err).NotTo(HaveOccurred())
			Expect(x).To(BeNumerically("~", 10, 1e-2))
		})

		It("has no energy ceiling in an unbounded potential", func() {
			iso, err := solver.New(shapes.NewConstant(1.5), potentials.NewIsothermal(1))
			Expect(err).NotTo(HaveOccurred())

			x, err := iso.SolveRadius(6)
			Expect(err).NotTo(HaveOccurred())
			Expect(x).To(BeNumerically(">", 100))
			Expect(x).To(BeNumerically("<", profile.DefaultXMax))
		})

		It("returns every root when F turns over", func() {
			hump, err := solver.New(shapes.NewConstant(1.5), humpPotential{potentials.NewNFW(potentials.DefaultANFW)})
			Expect(err).NotTo(HaveOccurred())

			tab, err := hump.Table()
			Expect(err).NotTo(HaveOccurred())
			ok, idx := tab.Monotonic()
			Expect(ok).To(BeFalse())
			Expect(tab.X[idx]).To(BeNumerically(">", 4))
			Expect(tab.X[idx]).To(BeNumerically("<", 8))
			Expect(tab.F[idx]).To(BeNumerically("<", tab.F[idx-1]))

			x, err := hump.SolveRadius(5)
			Expect(math.IsNaN(x)).To(BeTrue())
			Expect(err).To(MatchError(profile.ErrNonMonotonic))

			var nm *profile.NonMonotonicError
			Expect(errors.As(err, &nm)).To(BeTrue())
			Expect(nm.Target).To(Equal(5.0))
			Expect(nm.Roots).To(HaveLen(2))
			Expect(nm.Roots[0]).To(BeNumerically("~", 1.2, 0.3))
			Expect(nm.Roots[1]).To(BeNumerically("~", 14.5, 3.5))
			for _, r := range nm.Roots {
				f, err := hump.MeanSpecificEnergy(r)
				Expect(err).NotTo(HaveOccurred())
				Expect(f).To(BeNumerically("~", 5, 1e-6))
			}

			_, err = tab.Lookup(5)
			Expect(err).To(MatchError(profile.ErrNonMonotonic))
		})

		It("is safe to call concurrently", func() {
			targets := []float64{1, 2, 3, 4}
			results := make([]float64, len(targets))
			var wg sync.WaitGroup
			for i, target := range targets {
				wg.Add(1)
				go func(i int, target float64) {
					defer GinkgoRecover()
					defer wg.Done()
					x, err := s.SolveRadius(target)
					Expect(err).NotTo(HaveOccurred())
					results[i] = x
				}(i, target)
			}
			wg.Wait()

			for i, target := range targets {
				f, err := s.MeanSpecificEnergy(results[i])
				Expect(err).NotTo(HaveOccurred())
				Expect(f).To(BeNumerically("~", target, 1e-8))
			}
		})
	})

	Describe("SolveEquilibrium", func() {
		It("matches the solver", func() {
			x, norm, err := solver.SolveEquilibrium(shapes.NewConstant(1.5), potentials.NewNFW(potentials.DefaultANFW), 3, profile.DefaultOptions())
			Expect(err).NotTo(HaveOccurred())

			eq, err := s.Solve(3)
			Expect(err).NotTo(HaveOccurred())
			Expect(x).To(BeNumerically("~", eq.X, 1e-9*eq.X))
			Expect(norm).To(BeNumerically("~", eq.PressureNorm, 1e-9*eq.PressureNorm))
		})

		It("surfaces unachievable energies", func() {
			x, norm, err := solver.SolveEquilibrium(shapes.NewConstant(1.5), potentials.NewNFW(potentials.DefaultANFW), 5, profile.DefaultOptions())
			Expect(err).To(MatchError(profile.ErrUnachievableEnergy))
			Expect(math.IsNaN(x)).To(BeTrue())
			Expect(math.IsNaN(norm)).To(BeTrue())
		})
	})

	Describe("Table", func() {
		It("interpolates close to the refined root", func() {
			tab, err := s.Table()
			Expect(err).NotTo(HaveOccurred())

			quick, err := tab.Lookup(3)
			Expect(err).NotTo(HaveOccurred())
			exact, err := s.SolveRadius(3)
			Expect(err).NotTo(HaveOccurred())
			Expect(quick).To(BeNumerically("~", exact, 1e-2*exact))

			_, err = tab.Lookup(4.7)
			Expect(err).To(MatchError(profile.ErrUnachievableEnergy))
			_, err = tab.Lookup(0.001)
			Expect(err).To(MatchError(profile.ErrOutOfDomain))
		})

		It("summarizes itself", func() {
			tab, err := s.Table()
			Expect(err).NotTo(HaveOccurred())
			d := tab.Diagnostics()
			Expect(d.Points).To(Equal(profile.DefaultGridPoints))
			Expect(d.Monotonic).To(BeTrue())
			Expect(d.Violation).To(Equal(-1))
			Expect(d.FMin).To(Equal(tab.F[0]))
			Expect(d.FMax).To(Equal(tab.F[tab.Len()-1]))
			Expect(d.Bound).To(BeTrue())
			Expect(d.PhiInf).To(Equal(potentials.DefaultANFW))
		})
	})
})

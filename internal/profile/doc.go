// Package profile provides the core vocabulary for hydrostatic atmosphere
// models in dimensionless units.
//
// Radii are measured in units of the scale radius r_s (x = r/r_s) and
// potentials, circular velocities and specific energies in units of v_φ².
// The package defines:
//
//   - [Shape]: the negative logarithmic pressure slope α(x)
//   - [Potential]: a gravitational potential φ(x) with its v_c²(x)
//   - [Support]: how pressure support splits into thermal and non-thermal energy
//   - [Options]: explicit numerical settings shared by every solve
//   - [Integrals] and [Equilibrium]: solver outputs
//
// # Example
//
//	s, _ := solver.New(shapes.NewConstant(1.5), potentials.NewNFW(potentials.DefaultANFW))
//	eq, err := s.Solve(3.5)
//	if errors.Is(err, profile.ErrUnachievableEnergy) {
//		// no gravitationally confined equilibrium at this energy
//	}
//
// # Thread Safety
//
// Every value in this package is immutable after construction and may be
// shared between goroutines.
package profile

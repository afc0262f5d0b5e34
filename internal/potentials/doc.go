// Package potentials provides dimensionless gravitational potentials.
//
// Every potential is zero-referenced at x = 0 and measured in units of
// v_φ², and its circular velocity satisfies v_c²(x) = x dφ/dx:
//
//   - [NFW]: dark-matter halo, bounded with φ_∞ = A
//   - [Hernquist]: central galaxy, bounded with φ_∞ = A
//   - [Isothermal]: cored isothermal sphere, unbounded
//   - [Composite]: sum of components, e.g. halo plus central galaxy
package potentials

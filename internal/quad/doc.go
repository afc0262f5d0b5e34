// Package quad integrates scalar functions over finite intervals.
//
// [Kronrod] is an adaptive 21-point Gauss-Kronrod rule that bisects the
// worst subinterval until the error estimate meets its tolerance or the
// subdivision limit is reached. [Legendre] is a fixed-order Gauss-Legendre
// rule. Both report non-finite integrand values as [NonFiniteError] and
// unmet tolerances as [ErrNotConverged], returning their best estimate
// alongside the error.
package quad

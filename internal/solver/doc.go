// Package solver computes equilibrium radii of hydrostatic atmospheres.
//
// For a shape α(x), a potential φ(x) and a pressure-support split, the
// solver integrates from a small cutoff ε to x
//
//	I(x)    = ∫ α f_P / v_c² t² dt
//	J_φ(x)  = ∫ φ α f_P / v_c² t² dt
//	J_th(x) = (3/2) f_th ∫ f_P t² dt
//	J_nt(x) = κ (1 - f_th) ∫ f_P t² dt
//
// and inverts the mean specific energy F = (J_φ + J_th + J_nt) / I for the
// radius x_CGM at which F matches a target ε_CGM / v_φ². The pressure
// normalization returned alongside is 1/I(x_CGM).
//
// Inversion scans a log-spaced table of F for crossings and refines each
// by bisection. A target at or above φ_∞ fails with
// [profile.ErrUnachievableEnergy]; one reachable only outside the table
// fails with [profile.ErrOutOfDomain]; several crossings fail with a
// [profile.NonMonotonicError] listing them.
package solver

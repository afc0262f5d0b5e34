// Package shapes provides pressure-profile shape functions α(x).
//
// Each shape implements [profile.Shape]; shapes with a closed-form
// pressure profile also implement [profile.LogPressurer] so the solver can
// skip the numerical integral of α(t)/t:
//
//   - [Constant]: a single power law, f_P = (x/x_ref)^-α
//   - [Generalized]: inner and outer slopes joined by a transition of
//     adjustable sharpness and radius
//   - [Tabulated]: α sampled at arbitrary radii, interpolated in ln x
package shapes

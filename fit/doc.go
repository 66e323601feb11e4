// Package fit assembles emission-line fitting problems and solves them
// by nonlinear least squares.
//
// A Problem couples observed binned fluxes with the Gaussian line model
// (package emline), per-camera resolution matrices and the composite
// sparse Jacobian (package sparse), and a parameter Mapping that expands
// the optimizer's free parameters into the full amplitude/vshift/sigma
// vector while enforcing tie and doublet constraints.
//
// Solve runs a Levenberg-Marquardt driver that consumes only the
// residual function and the Jacobian's forward/transpose multiplies,
// optionally under box constraints. A derivative-free Nelder-Mead method
// backed by gonum/optimize is available as a cross-check.
package fit

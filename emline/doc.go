// Package emline evaluates binned Gaussian emission-line models and
// their analytic Jacobians.
//
// A spectrum is modeled as a superposition of Doppler-shifted Gaussian
// line profiles in log-wavelength space. The expected average flux in an
// observation bin is the closed-form integral of each profile between the
// bin's edges, expressed through the standard normal CDF, divided by the
// bin width. No numerical quadrature is involved.
//
// Each line only contributes within its support window, the contiguous
// range of bin edges within MaxSDev standard deviations of the line
// center. The model builder and the Jacobian builder locate that window
// with the same search routine, so the two can never disagree about
// which bins a line touches.
//
// All routines are synchronous, CPU-bound, and allocate their scratch per
// call; independent fits may run concurrently on separate goroutines.
package emline

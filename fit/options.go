package fit

// Method selects the nonlinear least-squares driver.
type Method int

const (
	// MethodLM is the default Levenberg-Marquardt driver using the
	// analytic sparse Jacobian.
	MethodLM Method = iota

	// MethodNelderMead minimizes the scalar cost with gonum's
	// derivative-free simplex. It ignores the Jacobian and bounds and
	// exists as a cross-check for the analytic path.
	MethodNelderMead
)

// Config holds solver settings.
type Config struct {
	Method        Method
	MaxIterations int
	// XTol stops when the step norm falls below XTol*(1+|x|).
	XTol float64
	// GTol stops when the max-abs gradient entry falls below GTol.
	GTol float64
	// Lower and Upper are optional per-free-parameter box constraints.
	Lower []float64
	Upper []float64
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the solver defaults.
func DefaultConfig() Config {
	return Config{
		Method:        MethodLM,
		MaxIterations: 200,
		XTol:          1e-10,
		GTol:          1e-12,
	}
}

// WithMethod selects the driver.
func WithMethod(m Method) Option {
	return func(cfg *Config) { cfg.Method = m }
}

// WithMaxIterations caps the outer iteration count.
func WithMaxIterations(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxIterations = n
		}
	}
}

// WithXTol sets the relative step-size stopping tolerance.
func WithXTol(tol float64) Option {
	return func(cfg *Config) {
		if tol > 0 {
			cfg.XTol = tol
		}
	}
}

// WithGTol sets the gradient stopping tolerance.
func WithGTol(tol float64) Option {
	return func(cfg *Config) {
		if tol > 0 {
			cfg.GTol = tol
		}
	}
}

// WithBounds sets per-free-parameter box constraints. Both slices must
// have one entry per free parameter.
func WithBounds(lower, upper []float64) Option {
	return func(cfg *Config) {
		cfg.Lower = lower
		cfg.Upper = upper
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// DefaultBounds returns the customary box constraints for a direct
// (no ties, no doublets) n-line fit: amplitudes in [0, 1e3], velocity
// shifts in [-100, 100] km/s, sigmas in [0, 500] km/s.
func DefaultBounds(nlines int) (lower, upper []float64) {
	lower = make([]float64, 3*nlines)
	upper = make([]float64, 3*nlines)
	for j := 0; j < nlines; j++ {
		lower[j], upper[j] = 0, 1e3
		lower[nlines+j], upper[nlines+j] = -100, 100
		lower[2*nlines+j], upper[2*nlines+j] = 0, 500
	}
	return lower, upper
}

package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/cwbudde/algo-specfit/sparse"
)

// Result reports the outcome of a solve.
type Result struct {
	// Params holds the final free-parameter values.
	Params []float64
	// Cost is half the squared weighted residual norm at Params.
	Cost float64
	// Iterations counts outer iterations of the driver.
	Iterations int
	// Converged reports whether a stopping tolerance was met before the
	// iteration cap.
	Converged bool
}

// Solve minimizes the weighted residual norm of the problem starting
// from init. The default driver is Levenberg-Marquardt on the analytic
// sparse Jacobian; WithMethod(MethodNelderMead) switches to gonum's
// derivative-free simplex.
func Solve(p *Problem, init []float64, opts ...Option) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(init) != p.NumFree() {
		return nil, fmt.Errorf("fit: %d initial values for %d free parameters: %w",
			len(init), p.NumFree(), ErrLengthMismatch)
	}

	cfg := ApplyOptions(opts...)
	if err := checkBounds(cfg.Lower, cfg.Upper, p.NumFree()); err != nil {
		return nil, err
	}

	switch cfg.Method {
	case MethodLM:
		return solveLM(p, init, cfg)
	case MethodNelderMead:
		return solveNelderMead(p, init, cfg)
	default:
		return nil, fmt.Errorf("fit: method %d: %w", cfg.Method, ErrUnknownMethod)
	}
}

func checkBounds(lower, upper []float64, nfree int) error {
	if lower == nil && upper == nil {
		return nil
	}
	if len(lower) != nfree || len(upper) != nfree {
		return fmt.Errorf("fit: bounds for %d of %d free parameters: %w",
			len(lower), nfree, ErrLengthMismatch)
	}
	for i := range lower {
		if lower[i] > upper[i] {
			return fmt.Errorf("fit: parameter %d bounds [%g, %g]: %w",
				i, lower[i], upper[i], ErrBadBounds)
		}
	}
	return nil
}

func clampToBounds(x, lower, upper []float64) {
	if lower == nil {
		return
	}
	for i := range x {
		if x[i] < lower[i] {
			x[i] = lower[i]
		}
		if x[i] > upper[i] {
			x[i] = upper[i]
		}
	}
}

// normalEquations accumulates J^T*J and g = J^T*r column by column
// through the operator's multiplies. The free dimension is small, so a
// dense symmetric normal matrix is the cheapest faithful reduction of
// the sparse operator.
func normalEquations(jac *sparse.Jacobian, r []float64, jtj *mat.SymDense, g []float64) {
	_, nfree := jac.Dims()
	nbins := len(r)

	jac.MulTransVec(g, r)

	cols := make([][]float64, nfree)
	unit := make([]float64, nfree)
	for k := 0; k < nfree; k++ {
		unit[k] = 1
		col := make([]float64, nbins)
		jac.MulVec(col, unit)
		unit[k] = 0
		cols[k] = col
	}

	for i := 0; i < nfree; i++ {
		for j := i; j < nfree; j++ {
			acc := 0.0
			for b := 0; b < nbins; b++ {
				acc += cols[i][b] * cols[j][b]
			}
			jtj.SetSym(i, j, acc)
		}
	}
}

// solveLM runs a Marquardt-damped Gauss-Newton iteration. The residual
// is r = W*(obs-model), so its Jacobian is the negation of the model
// Jacobian and the descent direction solves (J^T*J + lambda*D)*step =
// J^T*r with the model-side operator.
func solveLM(p *Problem, init []float64, cfg Config) (*Result, error) {
	nfree := p.NumFree()
	nbins := p.NumBins()

	x := append([]float64(nil), init...)
	clampToBounds(x, cfg.Lower, cfg.Upper)

	r := make([]float64, nbins)
	p.Residuals(r, x)
	cost := 0.5 * dot(r, r)

	g := make([]float64, nfree)
	step := make([]float64, nfree)
	trial := make([]float64, nfree)
	jtj := mat.NewSymDense(nfree, nil)
	damped := mat.NewSymDense(nfree, nil)
	rhs := mat.NewVecDense(nfree, nil)
	sol := mat.NewVecDense(nfree, nil)

	lambda := 1e-3
	var chol mat.Cholesky

	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		jac, err := p.Jacobian(x)
		if err != nil {
			return nil, err
		}
		normalEquations(jac, r, jtj, g)

		if maxAbs(g) <= cfg.GTol {
			return &Result{Params: x, Cost: cost, Iterations: iter, Converged: true}, nil
		}

		accepted := false
		for try := 0; try < 30; try++ {
			damped.CopySym(jtj)
			for i := 0; i < nfree; i++ {
				d := jtj.At(i, i)
				if d <= 0 {
					d = 1
				}
				damped.SetSym(i, i, jtj.At(i, i)+lambda*d)
			}
			if !chol.Factorize(damped) {
				lambda *= 10
				continue
			}

			for i := 0; i < nfree; i++ {
				rhs.SetVec(i, g[i])
			}
			if err := chol.SolveVecTo(sol, rhs); err != nil {
				lambda *= 10
				continue
			}
			for i := 0; i < nfree; i++ {
				step[i] = sol.AtVec(i)
			}

			copy(trial, x)
			for i := range trial {
				trial[i] += step[i]
			}
			clampToBounds(trial, cfg.Lower, cfg.Upper)

			trialCost := p.Cost(trial)
			if trialCost < cost {
				copy(x, trial)
				cost = trialCost
				lambda /= 3
				if lambda < 1e-12 {
					lambda = 1e-12
				}
				accepted = true
				break
			}
			lambda *= 10
		}

		if !accepted {
			return &Result{Params: x, Cost: cost, Iterations: iter, Converged: true}, nil
		}

		p.Residuals(r, x)

		if norm(step) <= cfg.XTol*(1+norm(x)) {
			return &Result{Params: x, Cost: cost, Iterations: iter, Converged: true}, nil
		}
	}

	return &Result{Params: x, Cost: cost, Iterations: cfg.MaxIterations, Converged: false}, nil
}

func solveNelderMead(p *Problem, init []float64, cfg Config) (*Result, error) {
	problem := optimize.Problem{
		Func: func(x []float64) float64 { return p.Cost(x) },
	}
	settings := &optimize.Settings{
		MajorIterations: cfg.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-14,
			Iterations: 50,
		},
	}

	res, err := optimize.Minimize(problem, init, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("fit: nelder-mead: %w", err)
	}

	return &Result{
		Params:     append([]float64(nil), res.X...),
		Cost:       res.F,
		Iterations: res.MajorIterations,
		Converged:  res.Status == optimize.FunctionConvergence || res.Status == optimize.GradientThreshold,
	}, nil
}

func dot(a, b []float64) float64 {
	acc := 0.0
	for i := range a {
		acc += a[i] * b[i]
	}
	return acc
}

func norm(a []float64) float64 {
	return math.Sqrt(dot(a, a))
}

func maxAbs(a []float64) float64 {
	m := 0.0
	for _, x := range a {
		if v := math.Abs(x); v > m {
			m = v
		}
	}
	return m
}

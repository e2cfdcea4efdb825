// Package model fits proportional-odds (ordered logit) models of conflict
// intensity on the panel's trade and control variables.
//
// The model is P(Y <= j | x) = F(k_j - x'b) with F the logistic CDF and
// ordered cutpoints k_1 < ... < k_{K-1}. Estimation is Newton-Raphson with
// step halving on the log-likelihood. Cutpoints are optimized as k_1 and
// log-increments so that they stay ordered.
package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	apperrors "dyadpanel/internal/errors"
	"dyadpanel/pkg/contracts/domain"
)

const (
	maxHalvings = 30
	minProb     = 1e-300
)

// Options controls estimation
type Options struct {
	MaxIterations int
	Tolerance     float64
}

// Coefficient is one estimated parameter
type Coefficient struct {
	Name     string       `json:"name"`
	Estimate float64      `json:"estimate"`
	StdErr   domain.Float `json:"std_err"`
	Z        domain.Float `json:"z"`
	P        domain.Float `json:"p"`
}

// Result is a fitted ordered logit
type Result struct {
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	N              int           `json:"n"`
	Dropped        int           `json:"dropped_incomplete"`
	Categories     []int         `json:"categories"`
	CategoryCounts []int         `json:"category_counts"`
	Coefficients   []Coefficient `json:"coefficients"`
	Cutpoints      []Coefficient `json:"cutpoints"`
	LogLik         float64       `json:"log_likelihood"`
	NullLogLik     float64       `json:"null_log_likelihood"`
	PseudoR2       float64       `json:"pseudo_r2"`
	AIC            float64       `json:"aic"`
	Iterations     int           `json:"iterations"`
	Converged      bool          `json:"converged"`
}

// problem is a complete-case estimation sample
type problem struct {
	x [][]float64
	y []int // category index, 0..k-1
	p int   // predictors
	k int   // categories
}

func (pr *problem) params() int { return pr.p + pr.k - 1 }

// cutpoints maps the optimizer's parameters onto ordered cutpoints
func (pr *problem) cutpoints(theta []float64) []float64 {
	kappa := make([]float64, pr.k-1)
	kappa[0] = theta[pr.p]
	for j := 1; j < pr.k-1; j++ {
		kappa[j] = kappa[j-1] + math.Exp(theta[pr.p+j])
	}
	return kappa
}

func logistic(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func density(z float64) float64 {
	f := logistic(z)
	return f * (1 - f)
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// bounds returns the category's cumulative bounds F(upper-eta), F(lower-eta)
// and their densities. Open ends contribute 1 and 0.
func (pr *problem) bounds(kappa []float64, c int, eta float64) (fu, fl, du, dl float64) {
	fu, fl = 1, 0
	if c < pr.k-1 {
		fu = logistic(kappa[c] - eta)
		du = density(kappa[c] - eta)
	}
	if c > 0 {
		fl = logistic(kappa[c-1] - eta)
		dl = density(kappa[c-1] - eta)
	}
	return fu, fl, du, dl
}

func (pr *problem) logLik(theta []float64) float64 {
	beta := theta[:pr.p]
	kappa := pr.cutpoints(theta)
	ll := 0.0
	for i, xi := range pr.x {
		fu, fl, _, _ := pr.bounds(kappa, pr.y[i], dot(xi, beta))
		ll += math.Log(math.Max(fu-fl, minProb))
	}
	return ll
}

// gradient is the analytic score with respect to theta
func (pr *problem) gradient(theta []float64) []float64 {
	beta := theta[:pr.p]
	kappa := pr.cutpoints(theta)
	gBeta := make([]float64, pr.p)
	gKappa := make([]float64, pr.k-1)

	for i, xi := range pr.x {
		c := pr.y[i]
		fu, fl, du, dl := pr.bounds(kappa, c, dot(xi, beta))
		prob := math.Max(fu-fl, minProb)
		w := (du - dl) / prob
		for j := range gBeta {
			gBeta[j] -= w * xi[j]
		}
		if c < pr.k-1 {
			gKappa[c] += du / prob
		}
		if c > 0 {
			gKappa[c-1] -= dl / prob
		}
	}

	g := make([]float64, pr.params())
	copy(g, gBeta)
	// d kappa_j / d theta_{p+m} is 1 for m == 0 and exp(theta_{p+m}) for 0 < m <= j
	for m := 0; m < pr.k-1; m++ {
		scale := 1.0
		if m > 0 {
			scale = math.Exp(theta[pr.p+m])
		}
		for j := m; j < pr.k-1; j++ {
			g[pr.p+m] += gKappa[j] * scale
		}
	}
	return g
}

// hessian differentiates the analytic gradient numerically
func (pr *problem) hessian(theta []float64) *mat.SymDense {
	n := pr.params()
	h := mat.NewDense(n, n, nil)
	work := slices.Clone(theta)
	for j := 0; j < n; j++ {
		step := 1e-5 * math.Max(1, math.Abs(theta[j]))
		work[j] = theta[j] + step
		up := pr.gradient(work)
		work[j] = theta[j] - step
		down := pr.gradient(work)
		work[j] = theta[j]
		for i := 0; i < n; i++ {
			h.Set(i, j, (up[i]-down[i])/(2*step))
		}
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, (h.At(i, j)+h.At(j, i))/2)
		}
	}
	return sym
}

// information returns the observed information (negative Hessian)
func (pr *problem) information(theta []float64) *mat.SymDense {
	h := pr.hessian(theta)
	info := mat.NewSymDense(h.SymmetricDim(), nil)
	info.ScaleSym(-1, h)
	return info
}

// startValues sets slopes to zero and cutpoints to the logits of the
// cumulative marginal shares.
func (pr *problem) startValues(counts []int) []float64 {
	theta := make([]float64, pr.params())
	n := float64(len(pr.y))
	cum := 0.0
	prev := 0.0
	for j := 0; j < pr.k-1; j++ {
		cum += float64(counts[j])
		share := cum / n
		kappa := math.Log(share / (1 - share))
		if j == 0 {
			theta[pr.p] = kappa
		} else {
			theta[pr.p+j] = math.Log(math.Max(kappa-prev, 1e-6))
		}
		prev = kappa
	}
	return theta
}

// Fit estimates an ordered logit of y on the columns of x. names labels the
// columns. y holds the raw outcome values; categories are its distinct
// values in increasing order.
func Fit(ctx context.Context, x [][]float64, y []int, names []string, opts Options) (*Result, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("design has %d rows but outcome has %d", len(x), len(y))
	}
	p := len(names)
	for i, row := range x {
		if len(row) != p {
			return nil, fmt.Errorf("row %d has %d predictors, want %d", i, len(row), p)
		}
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 100
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-8
	}

	categories := slices.Clone(y)
	slices.Sort(categories)
	categories = slices.Compact(categories)
	if len(categories) < 2 {
		return nil, apperrors.NewAppValidationError("outcome needs at least two observed categories").
			WithContext("categories", len(categories))
	}

	pr := &problem{x: x, y: make([]int, len(y)), p: p, k: len(categories)}
	counts := make([]int, pr.k)
	for i, v := range y {
		c, _ := slices.BinarySearch(categories, v)
		pr.y[i] = c
		counts[c]++
	}
	if len(y) <= pr.params() {
		return nil, apperrors.NewAppValidationError("too few observations for the number of parameters").
			WithContext("n", len(y)).
			WithContext("parameters", pr.params())
	}

	theta := pr.startValues(counts)
	ll := pr.logLik(theta)
	res := &Result{N: len(y), Categories: categories, CategoryCounts: counts}

	for res.Iterations < opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Iterations++

		step, err := newtonStep(pr.information(theta), pr.gradient(theta))
		if err != nil {
			return nil, apperrors.NewAppValidationError("information matrix is singular").
				WithContext("iteration", res.Iterations)
		}

		improved := false
		candidate := make([]float64, len(theta))
		for t, h := 1.0, 0; h <= maxHalvings; t, h = t/2, h+1 {
			for i := range theta {
				candidate[i] = theta[i] + t*step[i]
			}
			if llc := pr.logLik(candidate); !math.IsNaN(llc) && llc >= ll {
				improved = true
				change := llc - ll
				copy(theta, candidate)
				ll = llc
				if change < opts.Tolerance*(math.Abs(ll)+opts.Tolerance) {
					res.Converged = true
				}
				break
			}
		}
		if !improved {
			// No ascent direction left: at the optimum up to numerical noise.
			res.Converged = true
		}
		if res.Converged {
			break
		}
	}

	res.LogLik = ll
	res.NullLogLik = nullLogLik(counts, len(y))
	if res.NullLogLik != 0 {
		res.PseudoR2 = 1 - ll/res.NullLogLik
	}
	res.AIC = -2*ll + 2*float64(pr.params())
	res.Coefficients, res.Cutpoints = pr.summarize(theta, names)
	return res, nil
}

// newtonStep solves info * step = grad
func newtonStep(info *mat.SymDense, grad []float64) ([]float64, error) {
	g := mat.NewVecDense(len(grad), grad)
	var step mat.VecDense

	var chol mat.Cholesky
	if chol.Factorize(info) {
		if err := chol.SolveVecTo(&step, g); err == nil {
			return step.RawVector().Data, nil
		}
	}
	// Not positive definite away from the optimum: fall back to LU
	if err := step.SolveVec(info, g); err != nil {
		return nil, err
	}
	return step.RawVector().Data, nil
}

// covariance inverts the observed information; ok is false when it is not
// positive definite.
func covariance(info *mat.SymDense) (*mat.SymDense, bool) {
	var chol mat.Cholesky
	if !chol.Factorize(info) {
		return nil, false
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, false
	}
	return &cov, true
}

func (pr *problem) summarize(theta []float64, names []string) ([]Coefficient, []Coefficient) {
	cov, ok := covariance(pr.information(theta))

	coefs := make([]Coefficient, pr.p)
	for j := range coefs {
		var variance float64
		if ok {
			variance = cov.At(j, j)
		}
		coefs[j] = coefficient(names[j], theta[j], variance, ok)
	}

	// Delta method: cutpoint j depends on theta_p and theta_{p+1..p+j}
	kappa := pr.cutpoints(theta)
	cuts := make([]Coefficient, pr.k-1)
	for j := range cuts {
		var variance float64
		if ok {
			grad := make([]float64, pr.params())
			grad[pr.p] = 1
			for m := 1; m <= j; m++ {
				grad[pr.p+m] = math.Exp(theta[pr.p+m])
			}
			g := mat.NewVecDense(len(grad), grad)
			variance = mat.Inner(g, cov, g)
		}
		cuts[j] = coefficient(fmt.Sprintf("cut%d", j+1), kappa[j], variance, ok)
	}
	return coefs, cuts
}

func coefficient(name string, estimate, variance float64, ok bool) Coefficient {
	c := Coefficient{Name: name, Estimate: estimate}
	if !ok || variance <= 0 {
		return c
	}
	se := math.Sqrt(variance)
	z := estimate / se
	c.StdErr = domain.Some(se)
	c.Z = domain.Some(z)
	c.P = domain.Some(2 * distuv.UnitNormal.Survival(math.Abs(z)))
	return c
}

// nullLogLik is the log-likelihood of the cutpoints-only model
func nullLogLik(counts []int, n int) float64 {
	ll := 0.0
	for _, c := range counts {
		if c > 0 {
			ll += float64(c) * math.Log(float64(c)/float64(n))
		}
	}
	return ll
}

// ErrNoData is returned when a specification selects no complete cases
var ErrNoData = errors.New("no complete cases")

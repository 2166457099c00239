package optimize

import (
	"errors"
	"math"
)

var (
	// ErrInvalidBounds is returned when the interval is empty or not finite.
	ErrInvalidBounds = errors.New("optimize: invalid bounds")

	// ErrMaxEvaluations is returned when the evaluation budget runs out
	// before the tolerance is met. The best point found so far is returned
	// alongside it.
	ErrMaxEvaluations = errors.New("optimize: maximum evaluations exceeded")
)

const (
	// goldenRatio is the golden-section fraction (3 - sqrt(5)) / 2.
	goldenRatio = 0.3819660112501051

	sqrtEpsilon = 1.4901161193847656e-08
)

// Options configures a minimisation.
// Zero values are replaced with defaults.
type Options struct {
	Tolerance      float64 // absolute tolerance on x, default 1e-5
	MaxEvaluations int     // default 500
}

// Result is the outcome of a minimisation.
type Result struct {
	X           float64 // argument of the minimum
	F           float64 // objective value at X
	Evaluations int     // number of objective evaluations
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = 1e-5
	}
	if o.MaxEvaluations <= 0 {
		o.MaxEvaluations = 500
	}
	return o
}

// Minimize returns the point in [lo, hi] at which f is smallest, assuming
// f is unimodal there. It is deterministic: the same f and interval always
// yield the same sequence of evaluations.
//
// Returns ErrInvalidBounds if lo >= hi or either bound is not finite, and
// ErrMaxEvaluations (with the best point so far) when the budget is spent.
func Minimize(f func(float64) float64, lo, hi float64, opts Options) (Result, error) {
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) || lo >= hi {
		return Result{}, ErrInvalidBounds
	}
	opts = opts.withDefaults()

	a, b := lo, hi

	// x is the best point so far, w the second best, v the previous w.
	v := a + goldenRatio*(b-a)
	w, x := v, v
	fx := f(x)
	fv, fw := fx, fx
	evals := 1

	var d, e float64
	mid := 0.5 * (a + b)
	tol1 := sqrtEpsilon*math.Abs(x) + opts.Tolerance/3
	tol2 := 2 * tol1

	for math.Abs(x-mid) > tol2-0.5*(b-a) {
		golden := true

		if math.Abs(e) > tol1 {
			// Parabola through x, v and w.
			r := (x - w) * (fx - fv)
			q := (x - v) * (fx - fw)
			p := (x-v)*q - (x-w)*r
			q = 2 * (q - r)
			if q > 0 {
				p = -p
			}
			q = math.Abs(q)
			r = e
			e = d

			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-x) && p < q*(b-x) {
				golden = false
				d = p / q
				u := x + d
				// Do not evaluate too close to the bounds.
				if u-a < tol2 || b-u < tol2 {
					d = tol1 * sign(mid-x)
				}
			}
		}

		if golden {
			if x >= mid {
				e = a - x
			} else {
				e = b - x
			}
			d = goldenRatio * e
		}

		u := x + sign(d)*math.Max(math.Abs(d), tol1)
		fu := f(u)
		evals++

		if fu <= fx {
			if u >= x {
				a = x
			} else {
				b = x
			}
			v, fv = w, fw
			w, fw = x, fx
			x, fx = u, fu
		} else {
			if u < x {
				a = u
			} else {
				b = u
			}
			switch {
			case fu <= fw || w == x:
				v, fv = w, fw
				w, fw = u, fu
			case fu <= fv || v == x || v == w:
				v, fv = u, fu
			}
		}

		mid = 0.5 * (a + b)
		tol1 = sqrtEpsilon*math.Abs(x) + opts.Tolerance/3
		tol2 = 2 * tol1

		if evals >= opts.MaxEvaluations {
			return Result{X: x, F: fx, Evaluations: evals}, ErrMaxEvaluations
		}
	}

	return Result{X: x, F: fx, Evaluations: evals}, nil
}

// sign returns -1 for negative v and 1 otherwise, so a zero step still
// moves forward.
func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

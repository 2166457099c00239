// Package optimize finds the minimum of a scalar function of one variable
// on a closed interval without using derivatives.
//
// [Minimize] implements Brent's bounded method: it fits parabolas through
// the three best points seen so far and falls back to golden-section steps
// whenever the parabolic step is rejected. The objective is assumed to be
// unimodal on the interval; if it is not, the result is some local minimum.
//
// # Usage
//
//	res, err := optimize.Minimize(f, 0, 86400, optimize.Options{Tolerance: 1})
//	fmt.Println(res.X, res.F, res.Evaluations)
package optimize

// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lm

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

// NumJacobian estimates the m×n Jacobian of f at x0 with central
// differences, using the step size h = ∛𝛆 × 𝚖𝚊𝚡(1,|x₀ᵢ|).
//
// The argument x passed to f is an n-vector, the result is stored in an
// m-vector r. Analytic Jacobians are verified against this estimate in
// the tests; it has no role in the iteration itself.
func NumJacobian(f func(x, r []float64), x0 []float64, m int) *mat.Dense {

	n := len(x0)
	jac := mat.NewDense(m, n, nil)

	x := make([]float64, n)
	hi := make([]float64, m)
	lo := make([]float64, m)
	copy(x, x0)

	for j := 0; j < n; j++ {
		h := cubeEps * math.Max(one, math.Abs(x0[j]))
		x[j] = x0[j] + h
		f(x, hi)
		x[j] = x0[j] - h
		f(x, lo)
		x[j] = x0[j]
		for i := 0; i < m; i++ {
			jac.Set(i, j, (hi[i]-lo[i])/(2*h))
		}
	}
	return jac
}

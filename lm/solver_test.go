// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// Two linear residuals with a unique root at (1, 2).
func TestConvergeLinear(t *testing.T) {

	p := Problem{
		M: 2, N: 2,
		Eval: func(x, r []float64, jac *Triples) {
			r[0] = x[0] - 1
			r[1] = x[1] - 2
			if jac != nil {
				jac.Append(0, 0, 1)
				jac.Append(1, 1, 1)
			}
		},
	}

	s, err := p.New()
	require.NoError(t, err)

	res := s.Fit([]float64{10, -7}, s.Init())
	require.True(t, res.Converged())
	require.InDelta(t, 1, res.X[0], 1e-6)
	require.InDelta(t, 2, res.X[1], 1e-6)
	require.Less(t, res.Norm, 1e-6)
}

// Intersection of two circles, a genuinely nonlinear system:
//
//	x² + y² = 4
//	(x-2)² + y² = 4
//
// has the solutions (1, ±√3).
func TestConvergeNonlinear(t *testing.T) {

	p := Problem{
		M: 2, N: 2,
		Eval: func(x, r []float64, jac *Triples) {
			r[0] = x[0]*x[0] + x[1]*x[1] - 4
			r[1] = (x[0]-2)*(x[0]-2) + x[1]*x[1] - 4
			if jac != nil {
				jac.Append(0, 0, 2*x[0])
				jac.Append(0, 1, 2*x[1])
				jac.Append(1, 0, 2*(x[0]-2))
				jac.Append(1, 1, 2*x[1])
			}
		},
	}

	s, err := p.New()
	require.NoError(t, err)

	res := s.Fit([]float64{0.5, 1}, s.Init())
	require.True(t, res.Converged())
	require.InDelta(t, 1, res.X[0], 1e-5)
	require.InDelta(t, math.Sqrt(3), res.X[1], 1e-5)
	require.LessOrEqual(t, res.NumIter, 20)
}

// An under-determined system must still converge to a least-squares
// solution: one residual over two variables.
func TestConvergeUnderDetermined(t *testing.T) {

	p := Problem{
		M: 1, N: 2,
		Eval: func(x, r []float64, jac *Triples) {
			r[0] = x[0] + x[1] - 3
			if jac != nil {
				jac.Append(0, 0, 1)
				jac.Append(0, 1, 1)
			}
		},
	}

	s, err := p.New()
	require.NoError(t, err)

	res := s.Fit([]float64{0, 0}, s.Init())
	require.True(t, res.Converged())
	// The minimum-norm correction splits the residual evenly.
	require.InDelta(t, 1.5, res.X[0], 1e-5)
	require.InDelta(t, 1.5, res.X[1], 1e-5)
}

// Contradictory residuals x=1 and x=2 stall at the least-squares optimum
// x=1.5 with ‖F‖ = √2/2.
func TestStalledConflict(t *testing.T) {

	p := Problem{
		M: 2, N: 1,
		Eval: func(x, r []float64, jac *Triples) {
			r[0] = x[0] - 1
			r[1] = x[0] - 2
			if jac != nil {
				jac.Append(0, 0, 1)
				jac.Append(1, 0, 1)
			}
		},
	}

	s, err := p.New()
	require.NoError(t, err)

	res := s.Fit([]float64{10}, s.Init())
	require.False(t, res.Converged())
	require.Contains(t, []Status{SmallStep, Stalled}, res.Status)
	require.InDelta(t, 1.5, res.X[0], 1e-5)
	require.InDelta(t, math.Sqrt2/2, res.Norm, 1e-5)
}

// r = 1 + e⁻ˣ decreases forever but can never reach zero. A heavy
// fixed damping keeps every step tiny, so each iteration is accepted
// with negligible improvement: the run must be classified as a plateau,
// not as slow progress.
func TestStalledPlateau(t *testing.T) {

	p := Problem{
		M: 1, N: 1,
		Eval: func(x, r []float64, jac *Triples) {
			r[0] = 1 + math.Exp(-x[0])
			if jac != nil {
				jac.Append(0, 0, -math.Exp(-x[0]))
			}
		},
		Stop: Termination{MaxIterations: 8},
		Damp: Damping{Initial: 1e8, Increase: 10, Decrease: 3, Max: 1e10},
	}

	s, err := p.New()
	require.NoError(t, err)

	res := s.Fit([]float64{0}, s.Init())
	require.Equal(t, Stalled, res.Status)
	require.Equal(t, 8, res.NumIter)
	require.InDelta(t, 2, res.Norm, 1e-6)
}

// r = e⁻ˣ also never reaches zero, but here each iteration shrinks the
// norm by a large factor: running out of budget mid-descent is
// ExceedMaxIter, not a stall.
func TestExceedMaxIter(t *testing.T) {

	p := Problem{
		M: 1, N: 1,
		Eval: func(x, r []float64, jac *Triples) {
			r[0] = math.Exp(-x[0])
			if jac != nil {
				jac.Append(0, 0, -math.Exp(-x[0]))
			}
		},
		Stop: Termination{MaxIterations: 10},
	}

	s, err := p.New()
	require.NoError(t, err)

	res := s.Fit([]float64{0}, s.Init())
	require.Equal(t, ExceedMaxIter, res.Status)
	require.Equal(t, 10, res.NumIter)
	require.Greater(t, res.Norm, 1e-6)
}

// Two variables observed only through their sum: 𝐉ᵀ𝐉 is exactly
// singular, and a damping cap this small cannot regularize it.
func TestSingularRankDeficient(t *testing.T) {

	p := Problem{
		M: 1, N: 2,
		Eval: func(x, r []float64, jac *Triples) {
			r[0] = x[0] + x[1] - 1
			if jac != nil {
				jac.Append(0, 0, 1)
				jac.Append(0, 1, 1)
			}
		},
		Damp: Damping{Initial: 1e-300, Increase: 10, Decrease: 3, Max: 1e-295},
	}

	s, err := p.New()
	require.NoError(t, err)

	res := s.Fit([]float64{0, 0}, s.Init())
	require.Equal(t, Singular, res.Status)
	require.Equal(t, 0, res.NumIter)
}

func TestOverflowAborts(t *testing.T) {

	p := Problem{
		M: 1, N: 1,
		Eval: func(x, r []float64, jac *Triples) {
			r[0] = math.Log(x[0]) // NaN for the negative initial point below
			if jac != nil {
				jac.Append(0, 0, 1/x[0])
			}
		},
	}

	s, err := p.New()
	require.NoError(t, err)

	res := s.Fit([]float64{-1}, s.Init())
	require.Equal(t, Overflow, res.Status)
	require.Equal(t, 0, res.NumIter)
}

// A NaN partial derivative must abort like any other non-finite value,
// before it can poison the factorization.
func TestOverflowJacobian(t *testing.T) {

	p := Problem{
		M: 1, N: 1,
		Eval: func(x, r []float64, jac *Triples) {
			r[0] = x[0] - 1
			if jac != nil {
				jac.Append(0, 0, math.NaN())
			}
		},
	}

	s, err := p.New()
	require.NoError(t, err)

	res := s.Fit([]float64{0}, s.Init())
	require.Equal(t, Overflow, res.Status)
}

func TestProblemValidation(t *testing.T) {

	eval := func(x, r []float64, jac *Triples) {}

	cases := []struct {
		name string
		p    Problem
	}{
		{"no residuals", Problem{M: 0, N: 1, Eval: eval}},
		{"no variables", Problem{M: 1, N: 0, Eval: eval}},
		{"no eval", Problem{M: 1, N: 1}},
		{"bad residual tol", Problem{M: 1, N: 1, Eval: eval, Stop: Termination{ResidualTol: -1}}},
		{"bad damping", Problem{M: 1, N: 1, Eval: eval, Damp: Damping{Initial: 1, Increase: 10, Decrease: 3, Max: 0.5}}},
		{"bad schedule", Problem{M: 1, N: 1, Eval: eval, Damp: Damping{Initial: 1e-6, Increase: 0.5, Decrease: 3, Max: 1e10}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.p.New()
			require.Error(t, err)
		})
	}
}

func TestNumJacobian(t *testing.T) {

	f := func(x, r []float64) {
		r[0] = x[0] * x[1]
		r[1] = math.Sin(x[0])
	}
	x0 := []float64{0.7, -1.3}
	jac := NumJacobian(f, x0, 2)

	require.InDelta(t, x0[1], jac.At(0, 0), 1e-7)
	require.InDelta(t, x0[0], jac.At(0, 1), 1e-7)
	require.InDelta(t, math.Cos(x0[0]), jac.At(1, 0), 1e-7)
	require.InDelta(t, 0, jac.At(1, 1), 1e-7)
}

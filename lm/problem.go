// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lm solves nonlinear least-squares systems with the
// Levenberg-Marquardt method.
//
// Given residual functions 𝐅(𝐱) : ℝⁿ → ℝᵐ with sparse Jacobian 𝐉(𝐱),
// the solver searches 𝐱 minimizing ‖𝐅(𝐱)‖₂ by iterating the damped
// normal-equations step
//
//	(𝐉ᵀ𝐉 + λ𝐈) 𝚫𝐱 = -𝐉ᵀ𝐅
//
// where the damping factor λ interpolates between the Gauss-Newton method
// and gradient descent. The step handles exactly-, over- and
// under-determined systems alike, returning a least-squares-optimal
// correction instead of failing when 𝐉 is not square or not of full rank.
package lm

import (
	"errors"
	"math"
	"slices"
)

// Evaluation computes the residual vector r = 𝐅(𝐱) for the current
// variable assignment x. When jac is non-nil it must also append one
// Jacobian triple per non-zero partial derivative ∂𝐅ᵢ/∂𝐱ⱼ, using the
// residual index as the row. When jac is nil only the residuals are
// required.
type Evaluation func(x []float64, r []float64, jac *Triples)

// Termination specifies the stopping criteria for the iteration.
// Tolerances are absolute, in the caller's units.
type Termination struct {
	// The iteration stops with Converged when ‖𝐅(𝐱)‖₂ < ResidualTol.
	ResidualTol float64
	// The iteration stops when ‖𝚫𝐱‖₂ < StepTol.
	StepTol float64
	// The iteration stops when the number of iterations exceeds limit.
	MaxIterations int
	// The number of damping retries allowed within a single iteration
	// before the iteration is declared stalled.
	MaxRetries int
	// Window of trailing iterations inspected when the iteration budget
	// runs out: if the residual norm improved only by a negligible
	// fraction over the window the status is Stalled instead of
	// ExceedMaxIter.
	DivergenceWindow int
}

// Damping specifies the λ control schedule.
type Damping struct {
	Initial  float64 // λ at the first iteration
	Increase float64 // multiplier applied on a rejected step
	Decrease float64 // divisor applied on an accepted step
	Max      float64 // factorization gives up once λ exceeds this cap
}

const (
	defResidualTol = 1e-6
	defStepTol     = 1e-10
	defMaxIter     = 50
	defMaxRetries  = 10
	defDivWindow   = 5

	defDampInit = 1e-6
	defDampInc  = 10.0
	defDampDec  = 3.0
	defDampMax  = 1e10
)

// Problem specifies a nonlinear least-squares system.
type Problem struct {
	M    int         // The number of residuals
	N    int         // The number of variables
	Eval Evaluation  // Residual and Jacobian evaluation
	Stop Termination // Stop condition
	Damp Damping     // λ control, zero value selects the defaults
}

// New validates the problem and creates a solver for it.
func (p *Problem) New() (solver *Solver, err error) {

	stop, damp := p.Stop, p.Damp

	if stop.ResidualTol == zero {
		stop.ResidualTol = defResidualTol
	}
	if stop.StepTol == zero {
		stop.StepTol = defStepTol
	}
	if stop.MaxIterations == 0 {
		stop.MaxIterations = defMaxIter
	}
	if stop.MaxRetries == 0 {
		stop.MaxRetries = defMaxRetries
	}
	if stop.DivergenceWindow == 0 {
		stop.DivergenceWindow = defDivWindow
	}
	if damp == (Damping{}) {
		damp = Damping{defDampInit, defDampInc, defDampDec, defDampMax}
	}

	switch {
	case p.M <= 0:
		err = errors.New("residual count must greater than 0")
	case p.N <= 0:
		err = errors.New("variable count must greater than 0")
	case p.Eval == nil:
		err = errors.New("evaluation target is required")
	case stop.ResidualTol <= zero || math.IsNaN(stop.ResidualTol):
		err = errors.New("residual tolerance must greater than 0")
	case stop.StepTol <= zero || math.IsNaN(stop.StepTol):
		err = errors.New("step tolerance must greater than 0")
	case stop.MaxIterations < 0:
		err = errors.New("max iteration must greater than 0")
	case stop.MaxRetries < 0:
		err = errors.New("max retries must greater than 0")
	case damp.Initial <= zero || damp.Max < damp.Initial:
		err = errors.New("damping range error")
	case damp.Increase <= one || damp.Decrease <= one:
		err = errors.New("damping schedule must move away from 1")
	}

	if err != nil {
		return
	}

	solver = &Solver{
		m: p.M, n: p.N,
		eval: p.Eval,
		stop: stop,
		damp: damp,
	}
	return
}

// Result contains the final state of the iteration.
// X holds the best accepted point even when the status is a failure,
// so callers may implement best-effort policies on top of it.
type Result struct {
	Status   Status    // Final task status after iterating.
	X        []float64 // Best accepted variable assignment.
	Residual []float64 // Residual vector at X.
	Norm     float64   // ‖𝐅(X)‖₂
	NumIter  int       // Number of accepted iterations performed.
}

// Converged reports whether the iteration found a solution within the
// residual tolerance.
func (r *Result) Converged() bool { return r.Status == Converged }

func hasNonFinite(v []float64) bool {
	return slices.ContainsFunc(v, func(f float64) bool {
		return math.IsNaN(f) || math.IsInf(f, 0)
	})
}

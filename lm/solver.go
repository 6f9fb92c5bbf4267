// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lm

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/sketchsolve/logger"
)

// Relative improvement over the divergence window below which the run
// counts as a plateau rather than slow progress.
const plateauRatio = 1e-3

// Solver iterates the damped normal-equations step for one Problem.
// A Solver holds no mutable state and may be shared; the per-call state
// lives in a Workspace.
type Solver struct {
	m, n int
	eval Evaluation
	stop Termination
	damp Damping
}

// Workspace contains the state and context of one iteration run.
// To avoid race conditions, separate workspaces need to be created for
// each goroutine, but multiple workspaces could share one solver.
type Workspace struct {
	m, n int

	r, rTry []float64 // residuals at x and at the trial point
	x, xTry []float64
	jac     Triples

	jtj, a *mat.SymDense // 𝐉ᵀ𝐉 and its damped copy
	rhs    *mat.VecDense // -𝐉ᵀ𝐅
	step   *mat.VecDense
	chol   mat.Cholesky

	history []float64 // trailing residual norms
}

// Init allocates a workspace sized for the solver's problem.
func (s *Solver) Init() *Workspace {
	return &Workspace{
		m: s.m, n: s.n,
		r:    make([]float64, s.m),
		rTry: make([]float64, s.m),
		x:    make([]float64, s.n),
		xTry: make([]float64, s.n),
		jtj:  mat.NewSymDense(s.n, nil),
		a:    mat.NewSymDense(s.n, nil),
		rhs:  mat.NewVecDense(s.n, nil),
		step: mat.NewVecDense(s.n, nil),
	}
}

// Fit runs the iteration from the initial guess x0 and returns the final
// state. The input slice is never mutated.
func (s *Solver) Fit(x0 []float64, w *Workspace) *Result {

	if len(x0) != s.n {
		panic("initial x dimension not match spec")
	}
	if w.m != s.m || w.n != s.n {
		panic("workspace dimension not match spec")
	}

	copy(w.x, x0)
	w.history = w.history[:0]

	status, iters := s.mainLoop(w)
	res := &Result{
		Status:   status,
		X:        slices.Clone(w.x),
		Residual: slices.Clone(w.r),
		Norm:     floats.Norm(w.r, 2),
		NumIter:  iters,
	}

	log := logger.Logger()
	log.Debug().
		Int("residuals", s.m).
		Int("variables", s.n).
		Int("iterations", iters).
		Float64("norm", res.Norm).
		Stringer("status", status).
		Msg("lm fit")

	return res
}

func (s *Solver) mainLoop(w *Workspace) (Status, int) {

	log := logger.Logger()

	if hasNonFinite(w.x) {
		return Overflow, 0
	}

	w.jac.reset()
	s.eval(w.x, w.r, &w.jac)
	if hasNonFinite(w.r) || hasNonFinite(w.jac.vals) {
		return Overflow, 0
	}

	lambda := s.damp.Initial
	norm := floats.Norm(w.r, 2)

	for iter := 0; iter < s.stop.MaxIterations; iter++ {

		if norm < s.stop.ResidualTol {
			return Converged, iter
		}

		w.jac.normalEqs(w.r, w.jtj, w.rhs)

		accepted := false
		factorized := false
		stepNorm := zero
		for retry := 0; retry <= s.stop.MaxRetries; retry++ {

			damped(w.a, w.jtj, lambda)
			if !w.chol.Factorize(w.a) {
				if lambda *= s.damp.Increase; lambda > s.damp.Max {
					return Singular, iter
				}
				continue
			}
			if err := w.chol.SolveVecTo(w.step, w.rhs); err != nil {
				if lambda *= s.damp.Increase; lambda > s.damp.Max {
					return Singular, iter
				}
				continue
			}
			factorized = true

			delta := w.step.RawVector().Data
			if hasNonFinite(delta) {
				return Overflow, iter
			}
			stepNorm = floats.Norm(delta, 2)

			floats.AddTo(w.xTry, w.x, delta)
			s.eval(w.xTry, w.rTry, nil)
			if hasNonFinite(w.xTry) || hasNonFinite(w.rTry) {
				return Overflow, iter
			}

			if tryNorm := floats.Norm(w.rTry, 2); tryNorm < norm {
				w.x, w.xTry = w.xTry, w.x
				norm = tryNorm
				if lambda /= s.damp.Decrease; lambda < s.damp.Initial {
					lambda = s.damp.Initial
				}
				accepted = true
				break
			}
			if lambda *= s.damp.Increase; lambda > s.damp.Max {
				return Stalled, iter
			}
		}

		if !accepted {
			if !factorized {
				return Singular, iter
			}
			return Stalled, iter
		}

		// Refresh residuals and Jacobian at the accepted point.
		w.jac.reset()
		s.eval(w.x, w.r, &w.jac)
		if hasNonFinite(w.r) || hasNonFinite(w.jac.vals) {
			return Overflow, iter + 1
		}

		log.Trace().
			Int("iter", iter+1).
			Float64("lambda", lambda).
			Float64("norm", norm).
			Float64("step", stepNorm).
			Msg("lm iteration")

		w.history = append(w.history, norm)

		if stepNorm < s.stop.StepTol {
			if norm < s.stop.ResidualTol {
				return Converged, iter + 1
			}
			return SmallStep, iter + 1
		}
	}

	if norm < s.stop.ResidualTol {
		return Converged, s.stop.MaxIterations
	}

	// Out of budget: distinguish a plateau from slow progress. Accepted
	// norms decrease monotonically, so the window endpoints bound the
	// recent improvement.
	if k := s.stop.DivergenceWindow; len(w.history) > k {
		recent := w.history[len(w.history)-1]
		if prior := w.history[len(w.history)-1-k]; recent >= prior*(one-plateauRatio) {
			return Stalled, s.stop.MaxIterations
		}
	}
	return ExceedMaxIter, s.stop.MaxIterations
}

// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sketch

import (
	"math"

	"github.com/curioloop/sketchsolve/lm"
	"github.com/curioloop/sketchsolve/logger"
)

// Options tunes one solve call. The zero value selects the defaults
// documented on lm.Termination and lm.Damping (residual tolerance 1e-6
// in sketch units, 50 iterations).
type Options struct {
	Stop lm.Termination
	Damp lm.Damping
	// DegradedThreshold opts in to the best-effort preview: when a solve
	// fails but ends with a residual norm below this value, the final
	// geometry is exposed through Result.Degraded. Zero disables it.
	DegradedThreshold float64
}

// Solve computes element parameters satisfying all constraints,
// starting from the snapshot geometry, with default options.
func Solve(elements []Element, constraints []Constraint) Result {
	return SolveWith(elements, constraints, Options{})
}

// SolveWith is Solve with explicit options.
//
// The call is total: every failure is reported on the Result, never
// panicked or returned as an error. The input snapshot is not mutated;
// the caller commits Result.Updated on success and discards the attempt
// otherwise. Calls are fully independent and safe to run concurrently
// for different sketches.
func SolveWith(elements []Element, constraints []Constraint, opts Options) Result {

	log := logger.Logger()

	reg, err := buildRegistry(elements)
	if err != nil {
		log.Debug().Err(err).Msg("sketch rejected")
		return Result{FailureReason: DuplicateElement, Detail: err.Error()}
	}

	eqs, err := buildEquations(constraints, reg)
	if err != nil {
		log.Debug().Err(err).Msg("sketch rejected")
		return Result{FailureReason: InvalidConstraintSpec, Detail: err.Error()}
	}

	if len(eqs) == 0 {
		// Nothing to solve: echo the snapshot unchanged.
		return Result{
			Success:   true,
			Updated:   reg.unbuild(reg.x0),
			Satisfied: map[string]bool{},
		}
	}

	stop := opts.Stop
	if stop.ResidualTol == 0 {
		stop.ResidualTol = 1e-6
	}

	p := lm.Problem{
		M: len(eqs), N: reg.size(),
		Eval: func(x, r []float64, jac *lm.Triples) {
			for i := range eqs {
				r[i] = eqs[i].residual(x)
				if jac != nil {
					eqs[i].jacobian(x, i, jac)
				}
			}
		},
		Stop: stop,
		Damp: opts.Damp,
	}

	solver, err := p.New()
	if err != nil {
		// Unreachable for well-formed options; surface as a rejection.
		return Result{FailureReason: InvalidConstraintSpec, Detail: err.Error()}
	}

	fit := solver.Fit(reg.x0, solver.Init())

	res := Result{
		Iterations:   fit.NumIter,
		ResidualNorm: fit.Norm,
	}

	switch fit.Status {
	case lm.Converged:
		res.Success = true
		res.Updated = reg.unbuild(fit.X)
	case lm.Singular:
		res.FailureReason = IllConditioned
	case lm.Overflow:
		// The residual vector is garbage once a NaN/Inf appeared:
		// report no per-constraint state and no norm.
		res.FailureReason = NumericOverflow
		res.ResidualNorm = math.NaN()
	default: // SmallStep, Stalled, ExceedMaxIter
		res.FailureReason = Diverged
	}

	if res.FailureReason != NumericOverflow {
		res.Satisfied = satisfied(constraints, eqs, fit.Residual, stop.ResidualTol)
	}

	if !res.Success && res.FailureReason != NumericOverflow &&
		opts.DegradedThreshold > 0 && fit.Norm < opts.DegradedThreshold {
		res.Degraded = reg.unbuild(fit.X)
	}

	log.Debug().
		Int("elements", len(elements)).
		Int("constraints", len(constraints)).
		Int("equations", len(eqs)).
		Int("iterations", res.Iterations).
		Float64("norm", res.ResidualNorm).
		Stringer("failure", res.FailureReason).
		Bool("success", res.Success).
		Msg("sketch solve")

	return res
}

// satisfied reports, per constraint, whether all of its equations are
// within tol of zero at the final point.
func satisfied(constraints []Constraint, eqs []equation, residual []float64, tol float64) map[string]bool {
	out := make(map[string]bool, len(constraints))
	for i := range constraints {
		out[constraints[i].ID] = true
	}
	for i := range eqs {
		if math.Abs(residual[i]) >= tol {
			out[eqs[i].owner] = false
		}
	}
	return out
}

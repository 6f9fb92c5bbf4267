// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lm

const (
	zero = 0.0
	one  = 1.0
)

// Status reports how the iteration terminated.
type Status int

const (
	// Converged the residual norm dropped below Termination.ResidualTol.
	Converged Status = iota
	// SmallStep the correction step shrank below Termination.StepTol
	// while the residual norm was still above Termination.ResidualTol.
	// Typical for inconsistent systems stuck at a least-squares optimum.
	SmallStep
	// Stalled no damping retry produced a residual decrease.
	Stalled
	// ExceedMaxIter the iteration budget ran out before convergence.
	ExceedMaxIter
	// Singular the normal equations could not be factorized even at
	// maximum damping.
	Singular
	// Overflow a NaN or Inf appeared in the variables, residuals or step.
	// The iteration aborts immediately and is not retried.
	Overflow
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case SmallStep:
		return "small-step"
	case Stalled:
		return "stalled"
	case ExceedMaxIter:
		return "exceed-max-iter"
	case Singular:
		return "singular"
	case Overflow:
		return "overflow"
	}
	return "unknown"
}

// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sketch

// FailureReason classifies why a solve produced no committed geometry.
type FailureReason uint8

const (
	// NoFailure the solve succeeded.
	NoFailure FailureReason = iota
	// InvalidConstraintSpec a constraint referenced an unknown element,
	// an out-of-range point index, or carried a non-positive dimension
	// target. Rejected before any iteration, zero iterations consumed.
	InvalidConstraintSpec
	// DuplicateElement the snapshot registered one element id twice.
	DuplicateElement
	// Diverged the residual failed to decrease toward the tolerance
	// within the iteration budget, typically a conflicting constraint
	// set. Recoverable: reject the edit and keep the prior geometry.
	Diverged
	// IllConditioned the system stayed numerically singular beyond the
	// damping's ability to compensate, typically a redundant or
	// contradictory constraint set.
	IllConditioned
	// NumericOverflow a NaN or Inf appeared during iteration. The solve
	// aborted immediately and should be treated as an input error
	// upstream.
	NumericOverflow
)

func (r FailureReason) String() string {
	switch r {
	case NoFailure:
		return "none"
	case InvalidConstraintSpec:
		return "invalid-constraint-spec"
	case DuplicateElement:
		return "duplicate-element"
	case Diverged:
		return "diverged"
	case IllConditioned:
		return "ill-conditioned"
	case NumericOverflow:
		return "numeric-overflow"
	}
	return "unknown"
}

// Result is the outcome of one solve call.
//
// Updated is populated only when Success is true; a failed solve commits
// nothing and the caller must keep the original geometry. Degraded is the
// explicitly opt-in best-effort preview: it is filled on a failed solve
// only when Options.DegradedThreshold is positive and the final residual
// norm fell below it, and never relaxes the Success semantics.
type Result struct {
	Success       bool
	Updated       map[string]map[string]float64
	Degraded      map[string]map[string]float64
	Iterations    int
	ResidualNorm  float64
	FailureReason FailureReason
	// Detail carries the human-readable rejection reason for
	// InvalidConstraintSpec and DuplicateElement outcomes.
	Detail string
	// Satisfied reports, per constraint id, whether all of its equations
	// were within tolerance at the final point. Populated for numeric
	// outcomes; nil when the input was rejected or a NaN/Inf aborted
	// the solve.
	Satisfied map[string]bool
}

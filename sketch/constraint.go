// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sketch

import "fmt"

// Type enumerates the constraint vocabulary. The set is closed and
// versioned: adding a type means adding an equation variant and a
// validation rule, not registering a plugin.
type Type uint8

const (
	// Length fixes the distance between a line's endpoints to Target.
	Length Type = iota
	// Horizontal forces a line's endpoints onto the same y.
	Horizontal
	// Vertical forces a line's endpoints onto the same x.
	Vertical
	// Coincident merges a point of one element with a point of another.
	Coincident
	// Perpendicular forces two lines to meet at a right angle.
	Perpendicular
	// Parallel forces two lines onto the same direction.
	Parallel
	// Radius fixes a circle's radius, or an arc's center-to-endpoint
	// distance, to Target.
	Radius
)

func (t Type) String() string {
	switch t {
	case Length:
		return "length"
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case Coincident:
		return "coincident"
	case Perpendicular:
		return "perpendicular"
	case Parallel:
		return "parallel"
	case Radius:
		return "radius"
	}
	return "unknown"
}

// Constraint is one user-declared relationship between sketch elements.
//
// Elements lists the referenced element ids in order. Points gives the
// point index within the corresponding element (0 = start/first,
// 1 = end/second) and is consulted only by point-level constraints like
// Coincident. Target carries the dimension for Length and Radius and is
// ignored by the topological types, whose implicit target is a zero
// difference.
type Constraint struct {
	ID       string
	Type     Type
	Elements []string
	Points   []int
	Target   float64
}

// SpecError reports a constraint rejected before any iteration ran:
// unknown element id, wrong element kind or arity, out-of-range point
// index, or a non-positive dimension target.
type SpecError struct {
	Constraint string
	Reason     string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("constraint %q: %s", e.Constraint, e.Reason)
}

func specErr(c *Constraint, format string, a ...any) error {
	return &SpecError{Constraint: c.ID, Reason: fmt.Sprintf(format, a...)}
}

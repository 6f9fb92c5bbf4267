// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sketch solves geometric constraints on 2D parametric sketches.
//
// A sketch is a set of elements (lines, circles, arcs) in a local 2D
// frame. The caller declares constraints between them (length,
// horizontal, vertical, coincident, perpendicular, parallel, radius) and
// Solve computes new element parameters satisfying all constraints
// simultaneously, or reports precisely why it cannot.
//
// Constraints expand into residual equations over a dense variable vector
// built from the element coordinates; the system is solved iteratively by
// the damped least-squares driver in package lm. One call is fully
// self-contained: nothing is shared between solves and the input snapshot
// is never mutated.
package sketch

import "fmt"

// Kind enumerates the element kinds the solver understands.
type Kind uint8

const (
	KindLine Kind = iota
	KindCircle
	KindArc
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindCircle:
		return "circle"
	case KindArc:
		return "arc"
	}
	return "unknown"
}

// Element is an immutable snapshot of one sketch element: its id, kind
// and named numeric attributes. The solver reads nothing else.
type Element struct {
	ID    string
	Kind  Kind
	Attrs map[string]float64
}

// Per-kind attribute names in registry order. The order is part of the
// determinism contract: identical input always yields identical variable
// indices.
var kindAttrs = [...][]string{
	KindLine:   {"x1", "y1", "x2", "y2"},
	KindCircle: {"cx", "cy", "r"},
	KindArc:    {"cx", "cy", "x1", "y1", "x2", "y2"},
}

func (k Kind) attrs() []string {
	if int(k) < len(kindAttrs) {
		return kindAttrs[k]
	}
	return nil
}

// pointAttrs resolves a point index to the attribute pair holding its
// coordinates. Lines and arcs expose start=0 and end=1; a circle exposes
// its center as point 0.
func (k Kind) pointAttrs(idx int) (xa, ya string, ok bool) {
	switch k {
	case KindLine, KindArc:
		switch idx {
		case 0:
			return "x1", "y1", true
		case 1:
			return "x2", "y2", true
		}
	case KindCircle:
		if idx == 0 {
			return "cx", "cy", true
		}
	}
	return "", "", false
}

// Line builds a line element snapshot from its endpoints.
func Line(id string, x1, y1, x2, y2 float64) Element {
	return Element{ID: id, Kind: KindLine, Attrs: map[string]float64{
		"x1": x1, "y1": y1, "x2": x2, "y2": y2,
	}}
}

// Circle builds a circle element snapshot from its center and radius.
func Circle(id string, cx, cy, r float64) Element {
	return Element{ID: id, Kind: KindCircle, Attrs: map[string]float64{
		"cx": cx, "cy": cy, "r": r,
	}}
}

// Arc builds an arc element snapshot from its center, start and end points.
func Arc(id string, cx, cy, x1, y1, x2, y2 float64) Element {
	return Element{ID: id, Kind: KindArc, Attrs: map[string]float64{
		"cx": cx, "cy": cy, "x1": x1, "y1": y1, "x2": x2, "y2": y2,
	}}
}

func (e Element) String() string {
	return fmt.Sprintf("%s(%s)", e.Kind, e.ID)
}

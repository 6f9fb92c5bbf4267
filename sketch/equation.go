// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sketch

import (
	"math"

	"github.com/curioloop/sketchsolve/lm"
)

// eqKind is the closed set of equation variants. One constraint expands
// to one or more equations; every equation references a small fixed
// subset of variables, which keeps the Jacobian sparse by construction.
type eqKind uint8

const (
	// eqLength : 𝚍𝚒𝚜𝚝(p₁,p₂) - target over vars (x1,y1,x2,y2)
	eqLength eqKind = iota
	// eqDelta : x[a] - x[b] over vars (a,b) with ±1 gradients.
	// Covers horizontal (y2,y1), vertical (x2,x1) and each coordinate
	// of a coincident pair.
	eqDelta
	// eqPerpendicular : d₁·d₂ over both lines' endpoint vars
	eqPerpendicular
	// eqParallel : d₁×d₂ over both lines' endpoint vars
	eqParallel
	// eqRadius : x[r] - target over the radius var
	eqRadius
	// eqArcRadius : 𝚍𝚒𝚜𝚝(center,p) - target over vars (cx,cy,px,py)
	eqArcRadius
)

// equation is one scalar residual/gradient pair derived from a
// constraint. Derived, never user-visible.
type equation struct {
	owner  string // id of the owning constraint
	kind   eqKind
	vars   []int
	target float64
}

// Zero-length guard for distance gradients: below this the direction is
// undefined and the gradient is reported as zero.
const degenerate = 1e-10

func dist(dx, dy float64) float64 {
	return math.Sqrt(dx*dx + dy*dy)
}

// residual evaluates the equation error at x. Zero means satisfied.
func (q *equation) residual(x []float64) float64 {
	switch q.kind {
	case eqLength:
		dx := x[q.vars[2]] - x[q.vars[0]]
		dy := x[q.vars[3]] - x[q.vars[1]]
		return dist(dx, dy) - q.target
	case eqDelta:
		return x[q.vars[0]] - x[q.vars[1]]
	case eqPerpendicular:
		dx1, dy1, dx2, dy2 := q.directions(x)
		return dx1*dx2 + dy1*dy2
	case eqParallel:
		dx1, dy1, dx2, dy2 := q.directions(x)
		return dx1*dy2 - dy1*dx2
	case eqRadius:
		return x[q.vars[0]] - q.target
	case eqArcRadius:
		dx := x[q.vars[2]] - x[q.vars[0]]
		dy := x[q.vars[3]] - x[q.vars[1]]
		return dist(dx, dy) - q.target
	}
	panic("unknown equation kind")
}

// jacobian appends the non-zero partial derivatives of the equation at x
// as triples of the given row.
func (q *equation) jacobian(x []float64, row int, jac *lm.Triples) {
	switch q.kind {
	case eqLength, eqArcRadius:
		dx := x[q.vars[2]] - x[q.vars[0]]
		dy := x[q.vars[3]] - x[q.vars[1]]
		l := dist(dx, dy)
		if l < degenerate {
			for _, v := range q.vars {
				jac.Append(row, v, 0)
			}
			return
		}
		jac.Append(row, q.vars[0], -dx/l)
		jac.Append(row, q.vars[1], -dy/l)
		jac.Append(row, q.vars[2], dx/l)
		jac.Append(row, q.vars[3], dy/l)
	case eqDelta:
		jac.Append(row, q.vars[0], 1)
		jac.Append(row, q.vars[1], -1)
	case eqPerpendicular:
		dx1, dy1, dx2, dy2 := q.directions(x)
		jac.Append(row, q.vars[0], -dx2)
		jac.Append(row, q.vars[1], -dy2)
		jac.Append(row, q.vars[2], dx2)
		jac.Append(row, q.vars[3], dy2)
		jac.Append(row, q.vars[4], -dx1)
		jac.Append(row, q.vars[5], -dy1)
		jac.Append(row, q.vars[6], dx1)
		jac.Append(row, q.vars[7], dy1)
	case eqParallel:
		dx1, dy1, dx2, dy2 := q.directions(x)
		jac.Append(row, q.vars[0], -dy2)
		jac.Append(row, q.vars[1], dx2)
		jac.Append(row, q.vars[2], dy2)
		jac.Append(row, q.vars[3], -dx2)
		jac.Append(row, q.vars[4], dy1)
		jac.Append(row, q.vars[5], -dx1)
		jac.Append(row, q.vars[6], -dy1)
		jac.Append(row, q.vars[7], dx1)
	case eqRadius:
		jac.Append(row, q.vars[0], 1)
	default:
		panic("unknown equation kind")
	}
}

// directions reads the two line direction vectors of a perpendicular or
// parallel equation.
func (q *equation) directions(x []float64) (dx1, dy1, dx2, dy2 float64) {
	dx1 = x[q.vars[2]] - x[q.vars[0]]
	dy1 = x[q.vars[3]] - x[q.vars[1]]
	dx2 = x[q.vars[6]] - x[q.vars[4]]
	dy2 = x[q.vars[7]] - x[q.vars[5]]
	return
}

// lineVars collects a line's endpoint indices in (x1,y1,x2,y2) order.
func lineVars(reg *registry, id string) []int {
	return []int{reg.at(id, "x1"), reg.at(id, "y1"), reg.at(id, "x2"), reg.at(id, "y2")}
}

// buildEquations translates constraints into equations against the given
// registry. Every rejection happens here, before any iteration runs.
func buildEquations(constraints []Constraint, reg *registry) ([]equation, error) {

	var eqs []equation

	requireLine := func(c *Constraint, id string) error {
		k, ok := reg.kind(id)
		if !ok {
			return specErr(c, "unknown element %q", id)
		}
		if k != KindLine {
			return specErr(c, "%s applies to lines, got %s", c.Type, k)
		}
		return nil
	}

	for i := range constraints {
		c := &constraints[i]
		switch c.Type {

		case Length:
			if len(c.Elements) != 1 {
				return nil, specErr(c, "length references exactly one element")
			}
			if err := requireLine(c, c.Elements[0]); err != nil {
				return nil, err
			}
			if !(c.Target > 0) {
				return nil, specErr(c, "length requires a positive target, got %v", c.Target)
			}
			eqs = append(eqs, equation{
				owner: c.ID, kind: eqLength,
				vars: lineVars(reg, c.Elements[0]), target: c.Target,
			})

		case Horizontal, Vertical:
			if len(c.Elements) != 1 {
				return nil, specErr(c, "%s references exactly one element", c.Type)
			}
			id := c.Elements[0]
			if err := requireLine(c, id); err != nil {
				return nil, err
			}
			a, b := "y2", "y1"
			if c.Type == Vertical {
				a, b = "x2", "x1"
			}
			eqs = append(eqs, equation{
				owner: c.ID, kind: eqDelta,
				vars: []int{reg.at(id, a), reg.at(id, b)},
			})

		case Coincident:
			if len(c.Elements) != 2 {
				return nil, specErr(c, "coincident references exactly two elements")
			}
			points := c.Points
			if points == nil {
				points = []int{0, 0}
			}
			if len(points) != 2 {
				return nil, specErr(c, "coincident requires one point index per element")
			}
			var xa, ya [2]string
			for j, id := range c.Elements {
				k, ok := reg.kind(id)
				if !ok {
					return nil, specErr(c, "unknown element %q", id)
				}
				if xa[j], ya[j], ok = k.pointAttrs(points[j]); !ok {
					return nil, specErr(c, "point index %d out of range for %s", points[j], k)
				}
			}
			a, b := c.Elements[0], c.Elements[1]
			eqs = append(eqs,
				equation{
					owner: c.ID, kind: eqDelta,
					vars: []int{reg.at(a, xa[0]), reg.at(b, xa[1])},
				},
				equation{
					owner: c.ID, kind: eqDelta,
					vars: []int{reg.at(a, ya[0]), reg.at(b, ya[1])},
				})

		case Perpendicular, Parallel:
			if len(c.Elements) != 2 {
				return nil, specErr(c, "%s references exactly two elements", c.Type)
			}
			for _, id := range c.Elements {
				if err := requireLine(c, id); err != nil {
					return nil, err
				}
			}
			kind := eqPerpendicular
			if c.Type == Parallel {
				kind = eqParallel
			}
			eqs = append(eqs, equation{
				owner: c.ID, kind: kind,
				vars: append(lineVars(reg, c.Elements[0]), lineVars(reg, c.Elements[1])...),
			})

		case Radius:
			if len(c.Elements) != 1 {
				return nil, specErr(c, "radius references exactly one element")
			}
			id := c.Elements[0]
			k, ok := reg.kind(id)
			if !ok {
				return nil, specErr(c, "unknown element %q", id)
			}
			if !(c.Target > 0) {
				return nil, specErr(c, "radius requires a positive target, got %v", c.Target)
			}
			switch k {
			case KindCircle:
				eqs = append(eqs, equation{
					owner: c.ID, kind: eqRadius,
					vars: []int{reg.at(id, "r")}, target: c.Target,
				})
			case KindArc:
				// Both rays of the arc must match the target.
				center := []int{reg.at(id, "cx"), reg.at(id, "cy")}
				for _, p := range [][2]string{{"x1", "y1"}, {"x2", "y2"}} {
					eqs = append(eqs, equation{
						owner: c.ID, kind: eqArcRadius,
						vars:   append(append([]int{}, center...), reg.at(id, p[0]), reg.at(id, p[1])),
						target: c.Target,
					})
				}
			default:
				return nil, specErr(c, "radius applies to circles and arcs, got %s", k)
			}

		default:
			return nil, specErr(c, "unknown constraint type %d", c.Type)
		}
	}

	return eqs, nil
}

// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sketch

import "fmt"

// DuplicateError reports an element id registered twice in one snapshot.
type DuplicateError struct {
	ID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate element %q", e.ID)
}

type varKey struct {
	elem, attr string
}

// registry is the bijection between (element id, attribute name) and a
// dense index into the variable vector. It is built fresh for one solve
// and never reused: every equation index is only meaningful against the
// registry from the same call.
type registry struct {
	index map[varKey]int
	order []varKey
	x0    []float64
	kinds map[string]Kind
}

// buildRegistry assigns indices in element declaration order, then
// per-kind attribute order, so two calls with identical input produce
// identical assignments. Indices are contiguous [0,N).
func buildRegistry(elements []Element) (*registry, error) {
	reg := &registry{
		index: make(map[varKey]int),
		kinds: make(map[string]Kind, len(elements)),
	}
	for _, e := range elements {
		if _, ok := reg.kinds[e.ID]; ok {
			return nil, &DuplicateError{ID: e.ID}
		}
		reg.kinds[e.ID] = e.Kind
		for _, attr := range e.Kind.attrs() {
			key := varKey{e.ID, attr}
			reg.index[key] = len(reg.order)
			reg.order = append(reg.order, key)
			reg.x0 = append(reg.x0, e.Attrs[attr])
		}
	}
	return reg, nil
}

func (r *registry) size() int { return len(r.order) }

// at returns the dense index of one element attribute.
func (r *registry) at(elem, attr string) int {
	return r.index[varKey{elem, attr}]
}

// kind returns the kind of a registered element.
func (r *registry) kind(elem string) (Kind, bool) {
	k, ok := r.kinds[elem]
	return k, ok
}

// unbuild reconstructs the per-element attribute maps from a solved
// vector. Every registered element appears in the output, constrained
// or not.
func (r *registry) unbuild(x []float64) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(r.kinds))
	for i, key := range r.order {
		attrs := out[key.elem]
		if attrs == nil {
			attrs = make(map[string]float64)
			out[key.elem] = attrs
		}
		attrs[key.attr] = x[i]
	}
	return out
}

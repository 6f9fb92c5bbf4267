// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lm

import (
	"gonum.org/v1/gonum/mat"
)

// Triples collects the non-zero Jacobian entries of one evaluation as
// (row, col, value) triples. Each residual touches only a small fixed
// subset of variables, so the assembly cost of the normal equations stays
// proportional to the number of triples rather than m×n.
type Triples struct {
	rows []int
	cols []int
	vals []float64
}

// Append records the partial derivative ∂𝐅row/∂𝐱col.
func (t *Triples) Append(row, col int, v float64) {
	t.rows = append(t.rows, row)
	t.cols = append(t.cols, col)
	t.vals = append(t.vals, v)
}

// Len returns the number of recorded triples.
func (t *Triples) Len() int { return len(t.vals) }

// Triple returns the k-th recorded triple.
func (t *Triples) Triple(k int) (row, col int, v float64) {
	return t.rows[k], t.cols[k], t.vals[k]
}

func (t *Triples) reset() {
	t.rows = t.rows[:0]
	t.cols = t.cols[:0]
	t.vals = t.vals[:0]
}

// normalEqs accumulates 𝐉ᵀ𝐉 into jtj and -𝐉ᵀ𝐅 into rhs from the triple
// list and the residual vector r. Triples of one row must be contiguous,
// which holds by construction since Evaluation appends row by row.
func (t *Triples) normalEqs(r []float64, jtj *mat.SymDense, rhs *mat.VecDense) {
	jtj.Zero()
	rhs.Zero()
	for lo := 0; lo < len(t.vals); {
		hi := lo
		row := t.rows[lo]
		for hi < len(t.vals) && t.rows[hi] == row {
			hi++
		}
		for a := lo; a < hi; a++ {
			i, vi := t.cols[a], t.vals[a]
			rhs.SetVec(i, rhs.AtVec(i)-vi*r[row])
			for b := a; b < hi; b++ {
				j, vj := t.cols[b], t.vals[b]
				if i <= j {
					jtj.SetSym(i, j, jtj.At(i, j)+vi*vj)
				} else {
					jtj.SetSym(j, i, jtj.At(j, i)+vi*vj)
				}
			}
		}
		lo = hi
	}
}

// damped copies jtj into dst and adds λ to the diagonal.
func damped(dst, jtj *mat.SymDense, lambda float64) {
	dst.CopySym(jtj)
	n, _ := dst.Dims()
	for i := 0; i < n; i++ {
		dst.SetSym(i, i, dst.At(i, i)+lambda)
	}
}

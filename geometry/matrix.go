package geometry

import (
	"errors"
	"math"
)

// Matrix is an affine transform [a b c d e f] mapping (x, y) to
// (a*x + c*y + e, b*x + d*y + f).
type Matrix [6]float64

func (m Matrix) Transform(p PointF) PointF {
	return PointF{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

var errSingular = errors.New("matrix singular")

func (m Matrix) Inverse() (Matrix, error) {
	// Singular relative to the magnitude of the terms, not an absolute cutoff.
	ad, bc := m[0]*m[3], m[1]*m[2]
	det := ad - bc
	if math.Abs(det) <= 1e-12*(math.Abs(ad)+math.Abs(bc)) || math.IsNaN(det) || math.IsInf(det, 0) {
		return Matrix{}, errSingular
	}
	return Matrix{
		m[3] / det,
		-m[1] / det,
		-m[2] / det,
		m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, nil
}

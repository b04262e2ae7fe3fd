/*
 * geom.go, part of combfold.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 */

// Package geom is the geometry kernel: 3-vectors, 3x3 rotations, rigid
// transforms with composition and inverse, point-set RMSD and
// least-squares superposition. It plays the role gochem's v3 package and
// geometric.go play for the wider library, rebuilt against the modern
// gonum.org/v1/gonum/mat API instead of the legacy gonum/matrix/mat64
// the teacher's v3 package still carries.
package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Vec3 is a point or free vector in R^3.
type Vec3 [3]float64

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}
func (v Vec3) Dot(o Vec3) float64 { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }
func (v Vec3) Norm() float64      { return math.Sqrt(v.Dot(v)) }
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// Mat3 is a row-major 3x3 matrix, used exclusively as a rotation.
type Mat3 [3][3]float64

// Identity3 returns the 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Apply applies m to the column vector v (p -> M p).
func (m Mat3) Apply(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// Mul returns m * o.
func (m Mat3) Mul(o Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += m[i][k] * o[k][j]
			}
			r[i][j] = s
		}
	}
	return r
}

// Transpose returns the transpose of m, which for a proper rotation is
// also its inverse.
func (m Mat3) Transpose() Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[j][i] = m[i][j]
		}
	}
	return r
}

// Det returns the determinant of m.
func (m Mat3) Det() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[2][1]*m[1][2]) -
		m[0][1]*(m[1][0]*m[2][2]-m[2][0]*m[1][2]) +
		m[0][2]*(m[1][0]*m[2][1]-m[2][0]*m[1][1])
}

// Transform is a rigid body motion, applied as p -> R*p + T. Composition
// and inverse follow the standard rigid-motion group law; kept as a
// rotation matrix plus a translation rather than a quaternion so the
// arithmetic matches what a from-scratch reimplementation of the
// reference algorithm would do (quaternions are never used on the
// wire or in composition, only Euler angles at the file boundary, per
// the design notes).
type Transform struct {
	R Mat3
	T Vec3
}

// Identity returns the identity rigid transform.
func Identity() Transform {
	return Transform{R: Identity3()}
}

// Apply sends p through the transform: R*p + T.
func (t Transform) Apply(p Vec3) Vec3 {
	return t.R.Apply(p).Add(t.T)
}

// ApplyAll applies t to every point in pts, returning a new slice.
func (t Transform) ApplyAll(pts []Vec3) []Vec3 {
	out := make([]Vec3, len(pts))
	for i, p := range pts {
		out[i] = t.Apply(p)
	}
	return out
}

// Compose returns t1 followed by t2 applied to t1's result, i.e. the
// single transform equivalent to applying t2 after t1:
// (R2,T2) o (R1,T1) = (R2 R1, R2 T1 + T2). Compose(t1, t2) means "t1 then
// t2", matching left-to-right reading of a composition chain.
func Compose(t1, t2 Transform) Transform {
	return Transform{
		R: t2.R.Mul(t1.R),
		T: t2.R.Apply(t1.T).Add(t2.T),
	}
}

// Inverse returns the rigid transform that undoes t: (R^T, -R^T T).
func (t Transform) Inverse() Transform {
	rt := t.R.Transpose()
	return Transform{R: rt, T: rt.Apply(t.T).Scale(-1)}
}

// ErrDegenerateInput is returned by Superpose when fewer than 3
// non-collinear points are given. Per the design notes this is a fatal
// input error at load time, never a recoverable condition at search
// time.
type ErrDegenerateInput struct {
	Reason string
}

func (e ErrDegenerateInput) Error() string {
	return fmt.Sprintf("geom: degenerate input for superposition: %s", e.Reason)
}

// RMSD applies t to every point of b and returns the RMS distance to a.
// len(a) must equal len(b).
func RMSD(a, b []Vec3, t Transform) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("geom: RMSD: point sets have different lengths (%d vs %d)", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("geom: RMSD: empty point sets")
	}
	var sum float64
	for i := range a {
		d := a[i].Sub(t.Apply(b[i]))
		sum += d.Dot(d)
	}
	return math.Sqrt(sum / float64(len(a))), nil
}

// centroid returns the arithmetic mean of pts.
func centroid(pts []Vec3) Vec3 {
	var c Vec3
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(pts)))
}

func nonCollinear(pts []Vec3) bool {
	if len(pts) < 3 {
		return false
	}
	c := centroid(pts)
	var ref Vec3
	found := false
	for _, p := range pts {
		d := p.Sub(c)
		if d.Norm() > 1e-9 {
			ref = d
			found = true
			break
		}
	}
	if !found {
		return false // all points coincide with the centroid
	}
	for _, p := range pts {
		d := p.Sub(c)
		if d.Norm() < 1e-9 {
			continue
		}
		cross := ref.Cross(d)
		if cross.Norm() > 1e-9*ref.Norm()*d.Norm()+1e-12 {
			return true
		}
	}
	return false
}

// Superpose finds the rigid transform T minimizing RMSD(a, b, T), the
// classic Kabsch/Umeyama least-squares superposition, via the SVD of the
// cross-covariance matrix. Mirrors the shape of gochem's
// RotatorTranslatorToSuper (geometric.go) but is expressed against
// gonum.org/v1/gonum/mat instead of the legacy gonum/matrix + go.matrix
// stack the teacher used when that function was written.
func Superpose(a, b []Vec3) (Transform, error) {
	if len(a) != len(b) {
		return Transform{}, fmt.Errorf("geom: Superpose: point sets have different lengths (%d vs %d)", len(a), len(b))
	}
	if !nonCollinear(a) || !nonCollinear(b) {
		return Transform{}, ErrDegenerateInput{Reason: fmt.Sprintf("need >=3 non-collinear points, got %d", len(a))}
	}
	ca := centroid(a)
	cb := centroid(b)

	// Cross-covariance H = sum (b_i - cb) (a_i - ca)^T
	h := mat.NewDense(3, 3, nil)
	for i := range a {
		da := a[i].Sub(ca)
		db := b[i].Sub(cb)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				h.Set(r, c, h.At(r, c)+db[r]*da[c])
			}
		}
	}

	var svd mat.SVD
	ok := svd.Factorize(h, mat.SVDFull)
	if !ok {
		return Transform{}, fmt.Errorf("geom: Superpose: SVD factorization failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// R = V * diag(1,1,d) * U^T, with d chosen to guarantee a proper
	// rotation (det==+1) rather than a reflection.
	d := 1.0
	if detOf(&v)*detOf(&u) < 0 {
		d = -1.0
	}
	var vd mat.Dense
	vd.Scale(1, &v)
	for r := 0; r < 3; r++ {
		vd.Set(r, 2, vd.At(r, 2)*d)
	}
	var rmat mat.Dense
	rmat.Mul(&vd, u.T())

	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = rmat.At(i, j)
		}
	}
	// translation: T = ca - R*cb, so that R*b + T lands on the a frame.
	t := ca.Sub(r.Apply(cb))
	return Transform{R: r, T: t}, nil
}

func detOf(m *mat.Dense) float64 {
	return m.At(0, 0)*(m.At(1, 1)*m.At(2, 2)-m.At(2, 1)*m.At(1, 2)) -
		m.At(0, 1)*(m.At(1, 0)*m.At(2, 2)-m.At(2, 0)*m.At(1, 2)) +
		m.At(0, 2)*(m.At(1, 0)*m.At(2, 1)-m.At(2, 0)*m.At(1, 1))
}

// Deg2Rad and Rad2Deg mirror gochem's handy.go conversion constants,
// used when parsing/emitting the Euler-angle wire format.
const (
	Deg2Rad = math.Pi / 180.0
	Rad2Deg = 180.0 / math.Pi
)

// EulerXYZToMat3 builds a rotation matrix from intrinsic X->Y->Z Euler
// angles (radians), the wire format spec.md mandates for PairTransform
// serialization.
func EulerXYZToMat3(rx, ry, rz float64) Mat3 {
	sx, cx := math.Sin(rx), math.Cos(rx)
	sy, cy := math.Sin(ry), math.Cos(ry)
	sz, cz := math.Sin(rz), math.Cos(rz)

	rxm := Mat3{{1, 0, 0}, {0, cx, -sx}, {0, sx, cx}}
	rym := Mat3{{cy, 0, sy}, {0, 1, 0}, {-sy, 0, cy}}
	rzm := Mat3{{cz, -sz, 0}, {sz, cz, 0}, {0, 0, 1}}
	// intrinsic X then Y then Z: R = Rz * Ry * Rx (applied to a body
	// frame that rotates along with each step).
	return rzm.Mul(rym).Mul(rxm)
}

// Mat3ToEulerXYZ extracts intrinsic X->Y->Z Euler angles (radians) from
// a proper rotation matrix, the inverse of EulerXYZToMat3, used when
// writing PairTransforms back out to the wire format.
func Mat3ToEulerXYZ(m Mat3) (rx, ry, rz float64) {
	// m = Rz*Ry*Rx; standard extraction with a gimbal-lock fallback.
	if math.Abs(m[2][0]) < 1-1e-9 {
		ry = math.Asin(-m[2][0])
		cy := math.Cos(ry)
		rx = math.Atan2(m[2][1]/cy, m[2][2]/cy)
		rz = math.Atan2(m[1][0]/cy, m[0][0]/cy)
	} else {
		// gimbal lock: pin rz to zero, fold remaining rotation into rx.
		rz = 0
		if m[2][0] <= -1+1e-9 {
			ry = math.Pi / 2
			rx = math.Atan2(m[0][1], m[0][2])
		} else {
			ry = -math.Pi / 2
			rx = math.Atan2(-m[0][1], -m[0][2])
		}
	}
	return
}

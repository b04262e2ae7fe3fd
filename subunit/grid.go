/*
 * grid.go, part of combfold.
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

package subunit

import (
	"math"

	"github.com/rmera/combfold/config"
	"github.com/rmera/combfold/geom"
)

// cellID is a bucket coordinate in the uniform hash grid.
type cellID [3]int32

// grid is a uniform 3D bucket hash over a SubunitType's own point set,
// read-only and safe for concurrent queries once built. It plays the
// role gochem's clash package fills with an all-pairs or neighbor-list
// scan (clash/clash.go); here the point sets involved in a fold search
// are looked up thousands of times against the same handful of
// SubunitTypes, so a persistent hash grid amortizes the cost instead of
// rescanning all points per query.
//
// GridMargins in config.Static conceptually pads the grid's bounding
// volume so boundary points still see their full neighborhood; a
// map-backed hash grid has no fixed bounding volume to pad, so the
// margin only matters for a fixed-array grid and is not consulted here.
type grid struct {
	resolution float64
	buckets    map[cellID][]int
}

func cellOf(p geom.Vec3, r float64) cellID {
	return cellID{
		int32(math.Floor(p[0] / r)),
		int32(math.Floor(p[1] / r)),
		int32(math.Floor(p[2] / r)),
	}
}

func buildGrid(points []geom.Vec3, resolution, margins float64) *grid {
	_ = margins // see doc comment: not needed by a map-backed grid
	g := &grid{resolution: resolution, buckets: make(map[cellID][]int, len(points))}
	for i, p := range points {
		c := cellOf(p, resolution)
		g.buckets[c] = append(g.buckets[c], i)
	}
	return g
}

// neighbors returns the indices of every own point in the 27 buckets
// surrounding q's cell (q's own cell plus its 26 neighbors), which is
// sufficient to find every own point within one cell width of q since
// the bucket size equals the collision radius.
func (g *grid) neighbors(q geom.Vec3, out []int) []int {
	c := cellOf(q, g.resolution)
	out = out[:0]
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				key := cellID{c[0] + dx, c[1] + dy, c[2] + dz}
				out = append(out, g.buckets[key]...)
			}
		}
	}
	return out
}

// CollisionCount counts how many points of other, placed into self's
// frame via otherToSelf, land within one grid cell width of a point of
// self, considering only point pairs whose confidence both meet
// confThreshold. This is the BB.collision_count query.
func CollisionCount(self, other *SubunitType, otherToSelf geom.Transform, confThreshold float64, cfg *config.Static) int {
	r := cfg.GridResolution
	count := 0
	var buf []int
	for i, p := range other.Points {
		if other.Conf[i] < confThreshold {
			continue
		}
		tp := otherToSelf.Apply(p)
		buf = self.grid.neighbors(tp, buf)
		for _, j := range buf {
			if self.Conf[j] < confThreshold {
				continue
			}
			if tp.Sub(self.Points[j]).Norm() < r {
				count++
			}
		}
	}
	return count
}

// CollidingIndices returns, for two SubunitTypes self and other with
// other's points mapped into self's frame via otherToSelf, the set of
// point indices in each type that land within one grid cell width of
// some point of the other type, considering only point pairs whose
// confidence both meet confThreshold. Unlike CollisionCount, which
// totals collision events, this reports distinct atoms involved, the
// per-chain numerator the maxBackboneCollisionPerChain gate needs.
func CollidingIndices(self, other *SubunitType, otherToSelf geom.Transform, confThreshold float64, cfg *config.Static) (selfIdx, otherIdx map[int]bool) {
	r := cfg.GridResolution
	selfIdx = make(map[int]bool)
	otherIdx = make(map[int]bool)
	var buf []int
	for i, p := range other.Points {
		if other.Conf[i] < confThreshold {
			continue
		}
		tp := otherToSelf.Apply(p)
		buf = self.grid.neighbors(tp, buf)
		for _, j := range buf {
			if self.Conf[j] < confThreshold {
				continue
			}
			if tp.Sub(self.Points[j]).Norm() < r {
				selfIdx[j] = true
				otherIdx[i] = true
			}
		}
	}
	return selfIdx, otherIdx
}

// AboveThreshold counts st's backbone points whose confidence meets
// confThreshold, the denominator of the per-chain collision ratio gate.
func (st *SubunitType) AboveThreshold(confThreshold float64) int {
	n := 0
	for _, c := range st.Conf {
		if c >= confThreshold {
			n++
		}
	}
	return n
}

// MaxPenetrationDepth returns the deepest van-der-Waals-style overlap
// between self and other placed into self's frame via otherToSelf,
// among point pairs whose confidence both meet confThreshold. Depth for
// a pair is (radius_i + radius_j) - distance; pairs that do not overlap
// contribute nothing. Returns 0 when no pair overlaps. A SubunitType
// without a per-point element table uses cfg.DefaultBackboneRadius for
// every point.
func MaxPenetrationDepth(self, other *SubunitType, otherToSelf geom.Transform, confThreshold float64, cfg *config.Static) float64 {
	radiusOf := func(st *SubunitType, i int) float64 {
		if st.Elements == nil {
			return cfg.DefaultBackboneRadius
		}
		return cfg.RadiusFor(st.Elements[i])
	}
	var maxDepth float64
	var buf []int
	for i, p := range other.Points {
		if other.Conf[i] < confThreshold {
			continue
		}
		tp := otherToSelf.Apply(p)
		ri := radiusOf(other, i)
		buf = self.grid.neighbors(tp, buf)
		for _, j := range buf {
			if self.Conf[j] < confThreshold {
				continue
			}
			rj := radiusOf(self, j)
			d := tp.Sub(self.Points[j]).Norm()
			depth := ri + rj - d
			if depth > maxDepth {
				maxDepth = depth
			}
		}
	}
	return maxDepth
}

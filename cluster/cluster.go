/*
 * cluster.go, part of combfold.
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

// Package cluster deduplicates a set of finished (full-size) SuperBBs
// by greedy RMSD clustering, the same "visit candidates best-score
// first, absorb into the first representative within radius" shape
// gochem's align package uses to reduce an ensemble of superposed
// frames (align/lovo.go's low-RMSD-value subset selection), applied
// here to whole-complex conformations rather than trajectory frames.
package cluster

import (
	"fmt"
	"sort"

	"github.com/rmera/combfold/geom"
	"github.com/rmera/combfold/subunit"
	"github.com/rmera/combfold/superbb"
)

// collectPoints returns every backbone point of bb, transformed into
// its world frame, in a deterministic order (ascending slot id, then
// point index) so two SuperBBs sharing the same identity can be
// compared point-for-point.
func collectPoints(bb *superbb.SuperBB, reg *subunit.Registry) []geom.Vec3 {
	members := bb.Members()
	sort.Ints(members)
	var out []geom.Vec3
	for _, slot := range members {
		st := reg.BySlot(slot).Type
		t := bb.Placements[slot]
		for _, p := range st.Points {
			out = append(out, t.Apply(p))
		}
	}
	return out
}

// RMSDBetween superposes b onto a over their shared backbone points and
// returns the resulting RMSD. a and b must carry the same chain-slot
// identity.
func RMSDBetween(a, b *superbb.SuperBB, reg *subunit.Registry) (float64, error) {
	if a.Identity != b.Identity {
		return 0, fmt.Errorf("cluster: cannot compare SuperBBs with different chain-slot identities")
	}
	pa := collectPoints(a, reg)
	pb := collectPoints(b, reg)
	t, err := geom.Superpose(pa, pb)
	if err != nil {
		return 0, err
	}
	return geom.RMSD(pa, pb, t)
}

// Cluster greedily deduplicates survivors: visited best-score first
// (superbb.Less order), each candidate is absorbed into the first
// existing representative within rmsdThreshold of it (comparing only
// same-identity candidates; SuperBBs with different chain-slot
// identities are never considered for absorption into each other).
// Representatives are returned in the same best-first order.
func Cluster(survivors []*superbb.SuperBB, reg *subunit.Registry, rmsdThreshold float64) []*superbb.SuperBB {
	ordered := make([]*superbb.SuperBB, len(survivors))
	copy(ordered, survivors)
	sort.SliceStable(ordered, func(i, j int) bool { return superbb.Less(ordered[i], ordered[j]) })

	var reps []*superbb.SuperBB
	for _, cand := range ordered {
		absorbed := false
		for _, rep := range reps {
			if rep.Identity != cand.Identity {
				continue
			}
			rmsd, err := RMSDBetween(rep, cand, reg)
			if err != nil {
				continue // degenerate point set: can't judge similarity, keep as distinct
			}
			if rmsd <= rmsdThreshold {
				absorbed = true
				break
			}
		}
		if !absorbed {
			reps = append(reps, cand)
		}
	}
	return reps
}

/*
 * superbb.go, part of combfold.
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

// Package superbb holds SuperBB, a partial (or complete) assembly:
// an immutable set of chain slots, their world-frame placements, and
// the running score the search accumulates while growing it. Compose
// is the single entry point that grows two disjoint SuperBBs into one,
// playing the role gochem's clash package plays for a single collision
// test, but folded into the larger "can these two partial structures
// coexist" decision the fold search needs at every step.
package superbb

import (
	"fmt"

	"github.com/rmera/combfold/bitset"
	"github.com/rmera/combfold/config"
	"github.com/rmera/combfold/geom"
	"github.com/rmera/combfold/ptransform"
	"github.com/rmera/combfold/restraint"
	"github.com/rmera/combfold/subunit"
)

// ConstraintBonusWeight scales the satisfied-restraint-weight ratio
// (0-1) before it is added into the final score, so the restraint bonus
// ranges from 0 to 20 on top of a weighted transform score that itself
// ranges from 0 to 100.
const ConstraintBonusWeight = 20.0

// Policy bundles the thresholds Compose enforces, read once at startup
// from CLI flags (see cmd/combfold) and config.Static.
type Policy struct {
	Config                       *config.Static
	ConfidenceThreshold          float64 // BB query confidence gate, 0-100 (minTemperatureToConsiderCollision)
	MaxBackboneCollisionPerChain float64 // max tolerated, per chain slot, collided-points/above-threshold-points ratio
	PenetrationDepthThreshold    float64 // Angstrom; < 0 disables the check
	ConstraintViolationLimit     float64 // max tolerated violation-weight ratio, 0-1
}

// RejectReason names why Compose refused to merge two SuperBBs.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectIncompatibleOverlap
	RejectDuplicatePlacement
	RejectCollisionLimitExceeded
	RejectConstraintViolation
)

func (r RejectReason) String() string {
	switch r {
	case RejectIncompatibleOverlap:
		return "incompatible overlap"
	case RejectDuplicatePlacement:
		return "duplicate placement"
	case RejectCollisionLimitExceeded:
		return "collision limit exceeded"
	case RejectConstraintViolation:
		return "constraint violation"
	default:
		return "none"
	}
}

// RejectError carries the RejectReason and a human-readable detail back
// to the caller, so a caller can tell rejection kinds apart without
// parsing strings. fold.Run drops rejected candidates without
// inspecting the reason.
type RejectError struct {
	Reason RejectReason
	Detail string
}

func (e *RejectError) Error() string { return fmt.Sprintf("superbb: %s: %s", e.Reason, e.Detail) }

// SuperBB is an immutable partial assembly once constructed; Compose
// never mutates its inputs, only builds a new value.
type SuperBB struct {
	Identity   bitset.Set
	Placements map[int]geom.Transform // chain slot id -> world frame

	Score          float64
	sumTransScore  float64
	TransUsedCount int
}

// Seed returns the trivial single-chain SuperBB: one chain slot placed
// at the identity transform, the starting point of every band-2 merge.
func Seed(slotID int) *SuperBB {
	return &SuperBB{
		Identity:   bitset.Single(slotID),
		Placements: map[int]geom.Transform{slotID: geom.Identity()},
	}
}

// WeightedTransScore is the running weighted average of every
// PairTransform score consumed so far to build this SuperBB.
func (s *SuperBB) WeightedTransScore() float64 {
	if s.TransUsedCount == 0 {
		return 0
	}
	return s.sumTransScore / float64(s.TransUsedCount)
}

// Members returns the chain slot ids in this SuperBB, ascending.
func (s *SuperBB) Members() []int { return s.Identity.Members() }

// Less orders two SuperBBs by the search's tie-break rule: score
// descending, then trans_used_count descending, then identity
// lexicographically ascending, so that ties are broken deterministically
// regardless of worker scheduling order.
func Less(a, b *SuperBB) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.TransUsedCount != b.TransUsedCount {
		return a.TransUsedCount > b.TransUsedCount
	}
	return a.Identity.Less(b.Identity)
}

// Compose attempts to merge a and b, connecting chain slot connA
// (already placed in a) to connB (already placed in b) via pt, a
// candidate transform mapping connB's local frame into connA's local
// frame. Follows the six-step compose contract: identity compatibility,
// world-frame placement, duplicate-placement check, collision check,
// constraint check, scoring.
func Compose(a, b *SuperBB, connA, connB int, pt ptransform.PairTransform, reg *subunit.Registry, restraints *restraint.Set, pol *Policy) (*SuperBB, error) {
	// Step 1: identity compatibility. a and b must share no chain slot.
	if !a.Identity.Disjoint(b.Identity) {
		return nil, &RejectError{Reason: RejectIncompatibleOverlap, Detail: "a and b share at least one chain slot"}
	}

	// Step 2: place b's whole assembly into a's world frame by aligning
	// connB's existing (b-local) placement onto where pt says it should
	// land relative to connA's existing (a-world) placement.
	worldConnB := geom.Compose(pt.T, a.Placements[connA])
	alignment := geom.Compose(b.Placements[connB].Inverse(), worldConnB)

	placements := make(map[int]geom.Transform, a.Identity.Popcount()+b.Identity.Popcount())
	for slot, t := range a.Placements {
		placements[slot] = t
	}
	bWorld := make(map[int]geom.Transform, b.Identity.Popcount())
	for slot, t := range b.Placements {
		nt := geom.Compose(t, alignment)
		placements[slot] = nt
		bWorld[slot] = nt
	}

	// Step 3: duplicate placement. Two different copies of the same
	// SubunitType landing at (near) the same spot indicates a redundant,
	// physically meaningless combination.
	if dup := findDuplicate(reg, a.Identity.Members(), bWorld, placements, pol.Config.DuplicatePlacementEpsilon); dup != "" {
		return nil, &RejectError{Reason: RejectDuplicatePlacement, Detail: dup}
	}

	// Step 4: collision check between every newly-placed (b) slot and
	// every already-placed (a) slot; within-a and within-b pairs were
	// already validated when those SuperBBs were themselves built.
	if err := checkCollisions(reg, a.Identity.Members(), b.Identity.Members(), placements, pol); err != nil {
		return nil, err
	}

	// Step 5: constraint check.
	violationRatio := 0.0
	if restraints != nil {
		violationRatio = restraints.ViolationRatio(reg, placements)
		if violationRatio > pol.ConstraintViolationLimit {
			return nil, &RejectError{Reason: RejectConstraintViolation, Detail: fmt.Sprintf("violation ratio %.3f exceeds limit %.3f", violationRatio, pol.ConstraintViolationLimit)}
		}
	}

	// Step 6: scoring.
	out := &SuperBB{
		Identity:       a.Identity.Union(b.Identity),
		Placements:     placements,
		sumTransScore:  a.sumTransScore + b.sumTransScore + pt.Score,
		TransUsedCount: a.TransUsedCount + b.TransUsedCount + 1,
	}
	bonus := (1 - violationRatio) * ConstraintBonusWeight
	out.Score = out.WeightedTransScore() + bonus
	return out, nil
}

func findDuplicate(reg *subunit.Registry, aMembers []int, bWorld map[int]geom.Transform, all map[int]geom.Transform, epsilon float64) string {
	for bSlot, bt := range bWorld {
		bType := reg.BySlot(bSlot).Type
		bc := centroidOf(bType, bt)
		for _, aSlot := range aMembers {
			aType := reg.BySlot(aSlot).Type
			if aType != bType {
				continue
			}
			ac := centroidOf(aType, all[aSlot])
			if ac.Sub(bc).Norm() < epsilon {
				return fmt.Sprintf("slot %d and slot %d are both %s placed within %.2f A of each other", aSlot, bSlot, aType.Name, epsilon)
			}
		}
	}
	return ""
}

func centroidOf(st *subunit.SubunitType, t geom.Transform) geom.Vec3 {
	var c geom.Vec3
	for _, p := range st.Points {
		c = c.Add(t.Apply(p))
	}
	return c.Scale(1 / float64(len(st.Points)))
}

// checkCollisions enforces spec's per-chain collision ratio gate: for
// every chain slot touched by this merge, the fraction of its
// above-threshold backbone points found colliding with some point of
// the other newly-joined group must not exceed
// pol.MaxBackboneCollisionPerChain. Collisions are accumulated per slot
// across every (sa, sb) member pair before the ratio is checked, since
// a slot in the larger of the two groups can collide with several
// members of the other group.
func checkCollisions(reg *subunit.Registry, aMembers, bMembers []int, placements map[int]geom.Transform, pol *Policy) error {
	collided := make(map[int]map[int]bool)
	addCollided := func(slot int, idx map[int]bool) {
		if len(idx) == 0 {
			return
		}
		set := collided[slot]
		if set == nil {
			set = make(map[int]bool, len(idx))
			collided[slot] = set
		}
		for i := range idx {
			set[i] = true
		}
	}

	maxDepth := 0.0
	for _, sa := range aMembers {
		selfType := reg.BySlot(sa).Type
		selfWorld := placements[sa]
		for _, sb := range bMembers {
			otherType := reg.BySlot(sb).Type
			otherWorld := placements[sb]
			otherToSelf := geom.Compose(otherWorld, selfWorld.Inverse())
			selfIdx, otherIdx := subunit.CollidingIndices(selfType, otherType, otherToSelf, pol.ConfidenceThreshold, pol.Config)
			addCollided(sa, selfIdx)
			addCollided(sb, otherIdx)
			if pol.PenetrationDepthThreshold >= 0 {
				if d := subunit.MaxPenetrationDepth(selfType, otherType, otherToSelf, pol.ConfidenceThreshold, pol.Config); d > maxDepth {
					maxDepth = d
				}
			}
		}
	}

	for _, slot := range append(append([]int{}, aMembers...), bMembers...) {
		idx := collided[slot]
		st := reg.BySlot(slot).Type
		above := st.AboveThreshold(pol.ConfidenceThreshold)
		if above == 0 {
			continue
		}
		ratio := float64(len(idx)) / float64(above)
		if ratio > pol.MaxBackboneCollisionPerChain {
			return &RejectError{Reason: RejectCollisionLimitExceeded, Detail: fmt.Sprintf("chain slot %d: collision ratio %.3f exceeds limit %.3f", slot, ratio, pol.MaxBackboneCollisionPerChain)}
		}
	}
	if pol.PenetrationDepthThreshold >= 0 && maxDepth > pol.PenetrationDepthThreshold {
		return &RejectError{Reason: RejectCollisionLimitExceeded, Detail: fmt.Sprintf("penetration depth %.2f A exceeds threshold %.2f A", maxDepth, pol.PenetrationDepthThreshold)}
	}
	return nil
}

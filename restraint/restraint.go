/*
 * restraint.go, part of combfold.
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

// Package restraint resolves distance and chain-connectivity restraints
// against the chain slot registry, and evaluates them against a partial
// or complete assembly's world-frame placements. The text restraint
// file format and the bufio.Scanner-based parser follow the same plain
// line-oriented convention as ptransform and gochem's trajectory
// readers.
package restraint

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rmera/combfold/geom"
	"github.com/rmera/combfold/subunit"
)

// Status is the outcome of evaluating a restraint against a partial
// assembly.
type Status int

const (
	// Deferred means one or both endpoints are not yet placed.
	Deferred Status = iota
	Satisfied
	Violated
)

func (s Status) String() string {
	switch s {
	case Satisfied:
		return "satisfied"
	case Violated:
		return "violated"
	default:
		return "deferred"
	}
}

// Site is a chain slot plus a residue point resolved within it.
type Site struct {
	Slot       int
	PointIndex int
}

// Resolve finds the chain slot carrying label and the index of residue
// within its SubunitType's residue list.
func Resolve(reg *subunit.Registry, label byte, residue int) (Site, error) {
	cs, ok := reg.ByLabel(label)
	if !ok {
		return Site{}, fmt.Errorf("restraint: no chain with label %q", string(label))
	}
	for i, r := range cs.Type.Residues {
		if r == residue {
			return Site{Slot: cs.ID, PointIndex: i}, nil
		}
	}
	return Site{}, fmt.Errorf("restraint: chain %q has no residue %d", string(label), residue)
}

// DistanceRestraint bounds the distance between two resolved sites
// (typically a crosslinking-MS-derived restraint) to the closed
// interval [MinDistance, MaxDistance], outside of which it is
// considered violated.
type DistanceRestraint struct {
	A, B        Site
	LabelA      byte
	ResidueA    int
	LabelB      byte
	ResidueB    int
	MinDistance float64
	MaxDistance float64
	Weight      float64
}

// Evaluate checks d against placements, the current world-frame
// transform for every placed chain slot (by id). Returns Deferred if
// either endpoint's slot is not in placements.
func (d *DistanceRestraint) Evaluate(reg *subunit.Registry, placements map[int]geom.Transform) (Status, float64) {
	ta, okA := placements[d.A.Slot]
	tb, okB := placements[d.B.Slot]
	if !okA || !okB {
		return Deferred, 0
	}
	slotA := reg.BySlot(d.A.Slot)
	slotB := reg.BySlot(d.B.Slot)
	pa := ta.Apply(slotA.Type.Points[d.A.PointIndex])
	pb := tb.Apply(slotB.Type.Points[d.B.PointIndex])
	dist := pa.Sub(pb).Norm()
	if dist >= d.MinDistance && dist <= d.MaxDistance {
		return Satisfied, dist
	}
	return Violated, dist
}

// ChainConnectivityRestraint requires two chain slots to end up with at
// least one pair of backbone points within contactDistance of each
// other once both are placed (a weaker, order-independent stand-in for
// "these two chains must touch", used both for user-supplied topology
// hints and for auto-generated restraints linking split subunit
// pieces; see AutoConnectivityFromSplits).
type ChainConnectivityRestraint struct {
	SlotA, SlotB    int
	LabelA, LabelB  byte
	ContactDistance float64
	Weight          float64
}

// Evaluate checks c against placements the same way DistanceRestraint
// does, but is satisfied if ANY pair of points (one from each chain) is
// within ContactDistance, reflecting that "connected" does not name a
// specific residue pair.
func (c *ChainConnectivityRestraint) Evaluate(reg *subunit.Registry, placements map[int]geom.Transform) (Status, float64) {
	ta, okA := placements[c.SlotA]
	tb, okB := placements[c.SlotB]
	if !okA || !okB {
		return Deferred, 0
	}
	slotA := reg.BySlot(c.SlotA)
	slotB := reg.BySlot(c.SlotB)
	ptsA := ta.ApplyAll(slotA.Type.Points)
	ptsB := tb.ApplyAll(slotB.Type.Points)
	best := -1.0
	for _, pa := range ptsA {
		for _, pb := range ptsB {
			d := pa.Sub(pb).Norm()
			if best < 0 || d < best {
				best = d
			}
		}
	}
	if best <= c.ContactDistance {
		return Satisfied, best
	}
	return Violated, best
}

// AutoConnectivityFromSplits generates a ChainConnectivityRestraint
// between each consecutive pair of SubunitTypes that share the same
// OriginChain (produced when a chain too long for the upstream
// structure predictor was split into pieces; see
// split_large_subunits.py in the reference pipeline), ordered by their
// first residue number. Each generated restraint carries weight 1 and
// contactDistance.
func AutoConnectivityFromSplits(types []*subunit.SubunitType, reg *subunit.Registry, contactDistance float64) []*ChainConnectivityRestraint {
	groups := make(map[string][]*subunit.SubunitType)
	for _, st := range types {
		if st.OriginChain == "" {
			continue
		}
		groups[st.OriginChain] = append(groups[st.OriginChain], st)
	}
	var out []*ChainConnectivityRestraint
	for _, g := range groups {
		if len(g) < 2 {
			continue
		}
		sort.Slice(g, func(i, j int) bool {
			return firstResidue(g[i]) < firstResidue(g[j])
		})
		for i := 0; i+1 < len(g); i++ {
			a, b := g[i], g[i+1]
			// a split piece keeps a single chain copy (multiplicity 1 by
			// construction of the split), so its sole label applies.
			if len(a.Chains) != 1 || len(b.Chains) != 1 {
				continue
			}
			slotA, _ := reg.ByLabel(a.Chains[0])
			slotB, _ := reg.ByLabel(b.Chains[0])
			if slotA == nil || slotB == nil {
				continue
			}
			out = append(out, &ChainConnectivityRestraint{
				SlotA: slotA.ID, SlotB: slotB.ID,
				LabelA: a.Chains[0], LabelB: b.Chains[0],
				ContactDistance: contactDistance,
				Weight:          1,
			})
		}
	}
	return out
}

func firstResidue(st *subunit.SubunitType) int {
	if len(st.Residues) == 0 {
		return 0
	}
	min := st.Residues[0]
	for _, r := range st.Residues[1:] {
		if r < min {
			min = r
		}
	}
	return min
}

// Set bundles every restraint active for a run and the shared weight
// bookkeeping needed to turn satisfied/violated counts into the
// acceptance ratio spec.md's constraint gate uses.
type Set struct {
	Distance   []*DistanceRestraint
	Connectivity []*ChainConnectivityRestraint
}

// ViolationRatio evaluates every restraint in s against placements and
// returns the fraction of total restraint weight that is Violated,
// ignoring Deferred restraints (they contribute to neither numerator
// nor denominator, since they are not yet decidable). A Set with no
// decidable restraints returns ratio 0.
func (s *Set) ViolationRatio(reg *subunit.Registry, placements map[int]geom.Transform) float64 {
	var violated, total float64
	for _, d := range s.Distance {
		st, _ := d.Evaluate(reg, placements)
		if st == Deferred {
			continue
		}
		total += d.Weight
		if st == Violated {
			violated += d.Weight
		}
	}
	for _, c := range s.Connectivity {
		st, _ := c.Evaluate(reg, placements)
		if st == Deferred {
			continue
		}
		total += c.Weight
		if st == Violated {
			violated += c.Weight
		}
	}
	if total == 0 {
		return 0
	}
	return violated / total
}

// SatisfiedWeightRatio is the complement of ViolationRatio among
// decidable restraints (1 when none is decidable). superbb.Compose
// computes its constraint bonus from ViolationRatio directly.
func (s *Set) SatisfiedWeightRatio(reg *subunit.Registry, placements map[int]geom.Transform) float64 {
	return 1 - s.ViolationRatio(reg, placements)
}

// parseDistanceLine parses
// "<res1> <chainLabel1> <res2> <chainLabel2> <dMin> <dMax> [weight]".
func parseDistanceLine(reg *subunit.Registry, fields []string) (*DistanceRestraint, error) {
	if len(fields) < 6 {
		return nil, fmt.Errorf("restraint: distance line needs at least 6 fields, got %d", len(fields))
	}
	ra, la, rb, lb, minD, maxD, weight, err := parseCommonFields(fields)
	if err != nil {
		return nil, err
	}
	siteA, err := Resolve(reg, la, ra)
	if err != nil {
		return nil, err
	}
	siteB, err := Resolve(reg, lb, rb)
	if err != nil {
		return nil, err
	}
	return &DistanceRestraint{
		A: siteA, B: siteB,
		LabelA: la, ResidueA: ra, LabelB: lb, ResidueB: rb,
		MinDistance: minD, MaxDistance: maxD, Weight: weight,
	}, nil
}

func parseCommonFields(fields []string) (ra int, la byte, rb int, lb byte, minD, maxD, weight float64, err error) {
	if len(fields[1]) != 1 || len(fields[3]) != 1 {
		err = fmt.Errorf("restraint: chain labels must be single characters, got %q and %q", fields[1], fields[3])
		return
	}
	la = fields[1][0]
	lb = fields[3][0]
	ra, err = strconv.Atoi(fields[0])
	if err != nil {
		err = fmt.Errorf("restraint: bad residue number %q: %w", fields[0], err)
		return
	}
	rb, err = strconv.Atoi(fields[2])
	if err != nil {
		err = fmt.Errorf("restraint: bad residue number %q: %w", fields[2], err)
		return
	}
	minD, err = strconv.ParseFloat(fields[4], 64)
	if err != nil {
		err = fmt.Errorf("restraint: bad min distance %q: %w", fields[4], err)
		return
	}
	maxD, err = strconv.ParseFloat(fields[5], 64)
	if err != nil {
		err = fmt.Errorf("restraint: bad max distance %q: %w", fields[5], err)
		return
	}
	weight = 1
	if len(fields) > 6 {
		weight, err = strconv.ParseFloat(fields[6], 64)
		if err != nil {
			err = fmt.Errorf("restraint: bad weight %q: %w", fields[6], err)
			return
		}
	}
	return
}

// LoadFile reads a restraint file: each non-blank, non-'#' line is
// "<res1> <chainLabel1> <res2> <chainLabel2> <dMin> <dMax> [weight]",
// a distance (crosslink) restraint.
func LoadFile(path string, reg *subunit.Registry) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("restraint: cannot open %s: %w", path, err)
	}
	defer f.Close()

	set := &Set{}
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		d, err := parseDistanceLine(reg, fields)
		if err != nil {
			return nil, fmt.Errorf("restraint: %s line %d: %w", path, lineNo, err)
		}
		set.Distance = append(set.Distance, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("restraint: reading %s: %w", path, err)
	}
	return set, nil
}

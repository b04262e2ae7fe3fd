/*
 * graph.go, part of combfold.
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

package fold

import "github.com/rmera/combfold/ptransform"

// connectivityGate partitions the subunit types into connected
// components of the "has at least one candidate transform" graph, and
// picks the component covering the most chain slots as the one the
// search can actually grow across. Types left out of that component
// can never be joined to it by any available transform and are
// reported as unreachable rather than silently dropped or treated as a
// fatal error.
type connectivityGate struct {
	activeTypes  map[string]bool
	unreachable  map[string]bool
}

func buildConnectivityGate(typeNames []string, multiplicity map[string]int, idx *ptransform.TransformIndex) *connectivityGate {
	parent := make(map[string]string, len(typeNames))
	for _, n := range typeNames {
		parent[n] = n
	}
	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, pair := range idx.Pairs() {
		if _, ok := multiplicity[pair[0]]; !ok {
			continue
		}
		if _, ok := multiplicity[pair[1]]; !ok {
			continue
		}
		union(pair[0], pair[1])
	}

	sizes := make(map[string]int)
	for _, n := range typeNames {
		root := find(n)
		sizes[root] += multiplicity[n]
	}
	var bestRoot string
	bestSize := -1
	for root, size := range sizes {
		if size > bestSize {
			bestSize = size
			bestRoot = root
		}
	}

	g := &connectivityGate{activeTypes: make(map[string]bool), unreachable: make(map[string]bool)}
	for _, n := range typeNames {
		if find(n) == bestRoot {
			g.activeTypes[n] = true
		} else {
			g.unreachable[n] = true
		}
	}
	return g
}

func (g *connectivityGate) isActive(typeName string) bool { return g.activeTypes[typeName] }

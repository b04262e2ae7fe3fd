/*
 * group.go, part of combfold.
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

import (
	"github.com/rmera/combfold/subunit"
	"github.com/rmera/combfold/superbb"
)

// uniformGroup reports the chain.list group tag shared by every member
// of bb, or ok=false when bb is empty or spans more than one group.
func uniformGroup(bb *superbb.SuperBB, reg *subunit.Registry) (group int, ok bool) {
	members := bb.Members()
	if len(members) == 0 {
		return 0, false
	}
	group = reg.BySlot(members[0]).Group
	for _, m := range members[1:] {
		if reg.BySlot(m).Group != group {
			return 0, false
		}
	}
	return group, true
}

// respectsGroupBoundary reports whether a and b sit entirely on
// opposite sides of a chain.list group boundary, used to give
// group-respecting splits search-order priority at every band.
func respectsGroupBoundary(a, b *superbb.SuperBB, reg *subunit.Registry) bool {
	ga, okA := uniformGroup(a, reg)
	gb, okB := uniformGroup(b, reg)
	return okA && okB && ga != gb
}

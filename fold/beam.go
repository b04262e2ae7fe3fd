/*
 * beam.go, part of combfold.
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
	"sort"
	"sync"

	"github.com/rmera/combfold/bitset"
	"github.com/rmera/combfold/superbb"
)

// numShards controls how many independent locks guard the beam's
// identity map; worker goroutines hash an identity to a shard so two
// unrelated identities almost never contend for the same lock. Mirrors
// the striping gochem's lovo.go concurrent trajectory reducer uses to
// let independent frames update shared accumulators without a single
// global mutex.
const numShards = 64

type beamShard struct {
	mu sync.Mutex
	m  map[bitset.Set][]*superbb.SuperBB
}

// Beam is the top-K-per-identity table for one band (one assembly
// size). Insert is safe for concurrent use by the worker pool; All and
// NumIdentities are meant to be called only after a band's workers have
// drained (i.e. after the caller's own barrier), and are not
// internally synchronized against concurrent Insert calls.
type Beam struct {
	shards []*beamShard
	k      int
}

// NewBeam returns an empty Beam retaining at most k SuperBBs per
// distinct identity.
func NewBeam(k int) *Beam {
	b := &Beam{shards: make([]*beamShard, numShards), k: k}
	for i := range b.shards {
		b.shards[i] = &beamShard{m: make(map[bitset.Set][]*superbb.SuperBB)}
	}
	return b
}

func (b *Beam) shardFor(id bitset.Set) *beamShard {
	h := id[0] ^ (id[1] * 0x9E3779B97F4A7C15)
	return b.shards[h%uint64(len(b.shards))]
}

// Insert adds bb to its identity's bucket, keeping the bucket sorted by
// superbb.Less and trimmed to the beam's width. Reports whether bb
// survived the trim (false means it was strictly worse than every slot
// already kept, a discarded duplicate-identity candidate, not a
// rejection in the Compose sense).
func (b *Beam) Insert(bb *superbb.SuperBB) bool {
	s := b.shardFor(bb.Identity)
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.m[bb.Identity]
	bucket = append(bucket, bb)
	// insertion sort is fine: k is small (beam width), and this runs
	// once per accepted candidate, not per comparison.
	for i := len(bucket) - 1; i > 0 && superbb.Less(bucket[i], bucket[i-1]); i-- {
		bucket[i], bucket[i-1] = bucket[i-1], bucket[i]
	}
	kept := true
	if b.k > 0 && len(bucket) > b.k {
		kept = false
		for _, x := range bucket[:b.k] {
			if x == bb {
				kept = true
				break
			}
		}
		bucket = bucket[:b.k]
	}
	s.m[bb.Identity] = bucket
	return kept
}

// All flattens every identity bucket into one slice.
func (b *Beam) All() []*superbb.SuperBB {
	var out []*superbb.SuperBB
	for _, s := range b.shards {
		for _, bucket := range s.m {
			out = append(out, bucket...)
		}
	}
	return out
}

// NumIdentities returns how many distinct identities this beam holds
// at least one SuperBB for.
func (b *Beam) NumIdentities() int {
	n := 0
	for _, s := range b.shards {
		n += len(s.m)
	}
	return n
}

// globalTopK sorts items by superbb.Less and returns the best k overall
// (not per identity), the band-end bySize[size] aggregation spec.md
// §4.7 requires on top of each identity's own maxResultPerResSet
// bucket. k <= 0 means unlimited.
func globalTopK(items []*superbb.SuperBB, k int) []*superbb.SuperBB {
	sort.Slice(items, func(i, j int) bool { return superbb.Less(items[i], items[j]) })
	if k > 0 && len(items) > k {
		items = items[:k]
	}
	return items
}

// rebuildBeam re-inserts items (already trimmed to the desired global
// count) into a fresh Beam with per-identity width k, so a trimmed band
// can still be consumed by All()/NumIdentities() like any other Beam.
func rebuildBeam(items []*superbb.SuperBB, k int) *Beam {
	b := NewBeam(k)
	for _, it := range items {
		b.Insert(it)
	}
	return b
}

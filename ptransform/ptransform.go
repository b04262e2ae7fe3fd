/*
 * ptransform.go, part of combfold.
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

// Package ptransform holds the PairTransform candidate pool: the
// per-subunit-type-pair rigid transforms predicted upstream (e.g. by a
// docking or fold-and-dock model) together with a 0-100 confidence
// score, and the TransformIndex that stores and looks them up
// symmetrically. The wire format mirrors gochem's plain-text trajectory
// readers (traj/stf, traj/amberold): one record per line, fields
// separated by a fixed delimiter, parsed with bufio.Scanner and
// strconv, no serialization library.
package ptransform

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rmera/combfold/geom"
)

// PairTransform is one candidate placement of a chain of TypeB relative
// to a chain of TypeA (or vice versa; see TransformIndex.Add and Lookup
// for the direction of T), scored 0-100 by the upstream predictor.
type PairTransform struct {
	Rank       int
	Score      float64
	Provenance string
	T          geom.Transform
}

// pairKey is the unordered, symmetric key a TransformIndex is built on.
type pairKey struct {
	A, B string
}

func makeKey(a, b string) pairKey {
	if a <= b {
		return pairKey{a, b}
	}
	return pairKey{b, a}
}

// TransformIndex stores PairTransforms keyed by the unordered pair of
// SubunitType names they connect, each bucket sorted by score
// descending and capped at a configured size.
type TransformIndex struct {
	cap     int
	buckets map[pairKey][]entry
}

type entry struct {
	forward bool // true if stored as TypeA->TypeB in the key's (A,B) order
	pt      PairTransform
}

// NewIndex returns an empty TransformIndex retaining at most capPerPair
// transforms per unordered type pair. capPerPair <= 0 means unlimited.
func NewIndex(capPerPair int) *TransformIndex {
	return &TransformIndex{cap: capPerPair, buckets: make(map[pairKey][]entry)}
}

// Add inserts a PairTransform predicted to place a chain of type b
// relative to a chain of type a (T maps b's frame into a's frame),
// keeping the per-pair bucket sorted by score descending and trimmed to
// the configured cap.
func (idx *TransformIndex) Add(a, b string, pt PairTransform) {
	k := makeKey(a, b)
	e := entry{forward: a <= b, pt: pt}
	idx.buckets[k] = append(idx.buckets[k], e)
	bucket := idx.buckets[k]
	sort.SliceStable(bucket, func(i, j int) bool { return bucket[i].pt.Score > bucket[j].pt.Score })
	if idx.cap > 0 && len(bucket) > idx.cap {
		bucket = bucket[:idx.cap]
	}
	idx.buckets[k] = bucket
}

// Lookup returns every PairTransform candidate for placing a chain of
// type b into the frame of a chain of type a, sorted by score
// descending. When a stored entry was recorded in the opposite
// direction (b,a) its transform is inverted on the fly so the caller
// always receives "b's frame -> a's frame" transforms regardless of
// insertion order.
func (idx *TransformIndex) Lookup(a, b string) []PairTransform {
	k := makeKey(a, b)
	bucket := idx.buckets[k]
	out := make([]PairTransform, len(bucket))
	for i, e := range bucket {
		pt := e.pt
		// stored forward means the key order (k.A,k.B) matches (a,b) when a<=b;
		// if the caller's (a,b) order doesn't match the stored direction, invert.
		storedAB := a == k.A && b == k.B
		if storedAB != e.forward {
			pt.T = pt.T.Inverse()
		}
		out[i] = pt
	}
	return out
}

// HasAny reports whether any candidate transform connects a and b,
// without materializing the list; used by fold's connector-pair scan.
func (idx *TransformIndex) HasAny(a, b string) bool {
	return len(idx.buckets[makeKey(a, b)]) > 0
}

// Pairs returns every unordered type pair carrying at least one
// candidate transform, used to build the subunit-type connectivity
// graph.
func (idx *TransformIndex) Pairs() [][2]string {
	out := make([][2]string, 0, len(idx.buckets))
	for k := range idx.buckets {
		out = append(out, [2]string{k.A, k.B})
	}
	return out
}

// parseLine parses one "<rank> | <score> | <provenance> | rx ry rz tx ty tz"
// record.
func parseLine(line string) (PairTransform, error) {
	fields := strings.Split(line, "|")
	if len(fields) != 4 {
		return PairTransform{}, fmt.Errorf("ptransform: expected 4 '|'-separated fields, got %d", len(fields))
	}
	rank, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return PairTransform{}, fmt.Errorf("ptransform: bad rank %q: %w", fields[0], err)
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return PairTransform{}, fmt.Errorf("ptransform: bad score %q: %w", fields[1], err)
	}
	provenance := strings.TrimSpace(fields[2])
	nums := strings.Fields(fields[3])
	if len(nums) != 6 {
		return PairTransform{}, fmt.Errorf("ptransform: expected 6 transform numbers, got %d", len(nums))
	}
	var v [6]float64
	for i, s := range nums {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return PairTransform{}, fmt.Errorf("ptransform: bad transform number %q: %w", s, err)
		}
		v[i] = f
	}
	t := geom.Transform{
		R: geom.EulerXYZToMat3(v[0], v[1], v[2]),
		T: geom.Vec3{v[3], v[4], v[5]},
	}
	return PairTransform{Rank: rank, Score: score, Provenance: provenance, T: t}, nil
}

// formatLine renders pt back to the wire format, the inverse of
// parseLine. rx ry rz are written in radians, per the wire format.
func formatLine(pt PairTransform) string {
	rx, ry, rz := geom.Mat3ToEulerXYZ(pt.T.R)
	return fmt.Sprintf("%d | %g | %s | %g %g %g %g %g %g",
		pt.Rank, pt.Score, pt.Provenance,
		rx, ry, rz,
		pt.T.T[0], pt.T.T[1], pt.T.T[2])
}

// splitPairFilename splits a "<TypeA>_plus_<TypeB>" basename (extension
// already stripped by the caller) back into its two type names.
func splitPairFilename(base string) (string, string, error) {
	parts := strings.SplitN(base, "_plus_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("ptransform: filename %q is not of the form <TypeA>_plus_<TypeB>", base)
	}
	return parts[0], parts[1], nil
}

// LoadFile parses one "<TypeA>_plus_<TypeB>" transform file into idx.
// The type names are taken from the filename, not file contents.
func (idx *TransformIndex) LoadFile(path string) error {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	a, b, err := splitPairFilename(base)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ptransform: cannot open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pt, err := parseLine(line)
		if err != nil {
			return fmt.Errorf("ptransform: %s line %d: %w", path, lineNo, err)
		}
		idx.Add(a, b, pt)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("ptransform: reading %s: %w", path, err)
	}
	return nil
}

// LoadDir loads every regular file in dir into a fresh TransformIndex.
// Each file must be named "<TypeA>_plus_<TypeB>" (an extension is
// allowed); any other file name makes LoadDir fail.
func LoadDir(dir string, capPerPair int) (*TransformIndex, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ptransform: cannot read directory %s: %w", dir, err)
	}
	idx := NewIndex(capPerPair)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := idx.LoadFile(filepath.Join(dir, e.Name())); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// WriteFile writes the raw candidate list for the unordered pair (a,b)
// as seen from a's perspective (b's frame -> a's frame) to path, mainly
// useful for diagnostics and round-trip testing.
func (idx *TransformIndex) WriteFile(path, a, b string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ptransform: cannot create %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, pt := range idx.Lookup(a, b) {
		if _, err := fmt.Fprintln(w, formatLine(pt)); err != nil {
			return err
		}
	}
	return w.Flush()
}

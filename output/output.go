/*
 * output.go, part of combfold.
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

// Package output writes the final .res / _clustered.res result files
// and the run log. Large result sets may be written zstd-compressed
// when the output path carries a .zst extension, the same
// extension-keyed compressor selection gochem's traj/stf package uses
// to decide whether to wrap its writer in a compress/gzip or
// klauspost/compress/zstd stream.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/rmera/combfold/geom"
	"github.com/rmera/combfold/subunit"
	"github.com/rmera/combfold/superbb"
)

// openWriter opens path for writing and, if its extension is ".zst",
// wraps it in a zstd encoder. The returned closer must be closed after
// the returned writer is flushed (Close order matters: the zstd
// encoder must be closed before the underlying file).
func openWriter(path string) (io.Writer, func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("output: cannot create %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, f.Close, nil
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("output: cannot start zstd encoder for %s: %w", path, err)
	}
	closeBoth := func() error {
		if err := enc.Close(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return enc, closeBoth, nil
}

// writeBlock writes one assembly's record: a header comment line with
// its rank, score and trans_used_count, then one placement line per
// chain slot in ascending id order.
func writeBlock(w *bufio.Writer, rank int, bb *superbb.SuperBB, reg *subunit.Registry) error {
	if _, err := fmt.Fprintf(w, "# assembly %d score=%.4f trans_used=%d\n", rank, bb.Score, bb.TransUsedCount); err != nil {
		return err
	}
	members := bb.Members()
	sort.Ints(members)
	for _, slot := range members {
		cs := reg.BySlot(slot)
		t := bb.Placements[slot]
		rx, ry, rz := geom.Mat3ToEulerXYZ(t.R)
		if _, err := fmt.Fprintf(w, "%c %g %g %g %g %g %g\n",
			cs.Label, rx*geom.Rad2Deg, ry*geom.Rad2Deg, rz*geom.Rad2Deg, t.T[0], t.T[1], t.T[2]); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}

// WriteResults writes every survivor to path in best-score-first order
// (per superbb.Less), the raw .res output.
func WriteResults(path string, survivors []*superbb.SuperBB, reg *subunit.Registry) error {
	ordered := make([]*superbb.SuperBB, len(survivors))
	copy(ordered, survivors)
	sort.SliceStable(ordered, func(i, j int) bool { return superbb.Less(ordered[i], ordered[j]) })

	w, closeFn, err := openWriter(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for i, bb := range ordered {
		if err := writeBlock(bw, i+1, bb, reg); err != nil {
			closeFn()
			return fmt.Errorf("output: writing %s: %w", path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

// WriteClustered writes the clustered representative set, the
// _clustered.res output. Representatives are expected already in
// best-first order (as cluster.Cluster returns them) but are re-sorted
// defensively.
func WriteClustered(path string, reps []*superbb.SuperBB, reg *subunit.Registry) error {
	return WriteResults(path, reps, reg)
}

// WriteLog writes a plain-text run log: one message per line, no
// timestamps or level prefixes beyond what the caller already put in
// each line, since cmd/combfold's own log.Logger has already stamped
// everything written to stdout/stderr during the run and this file is
// a flat transcript of that same stream.
func WriteLog(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: cannot create %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, l := range lines {
		if _, err := w.WriteString(l); err != nil {
			return err
		}
		if !strings.HasSuffix(l, "\n") {
			w.WriteString("\n")
		}
	}
	return w.Flush()
}

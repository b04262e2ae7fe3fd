/*
 * registry.go, part of combfold.
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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rmera/combfold/config"
)

// ChainSlot is one interchangeable chain copy of a SubunitType, given a
// dense global id used everywhere else in the search (BitSet identity,
// job queue tuples, restraint resolution).
type ChainSlot struct {
	ID        int
	Type      *SubunitType
	CopyIndex int // index into Type.Chains
	Label     byte
	Group     int // chain.list grouping hint, 0 when absent
}

// Registry is the full set of chain slots for one assembly problem,
// addressable by id or by chain label.
type Registry struct {
	Slots   []*ChainSlot
	byLabel map[byte]*ChainSlot
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byLabel: make(map[byte]*ChainSlot)}
}

// AddType registers every chain copy of st as a new ChainSlot, tagged
// with group, and returns the slots created.
func (r *Registry) AddType(st *SubunitType, group int) ([]*ChainSlot, error) {
	slots := make([]*ChainSlot, 0, len(st.Chains))
	for i, label := range st.Chains {
		if _, dup := r.byLabel[label]; dup {
			return nil, fmt.Errorf("subunit: duplicate chain label %q", string(label))
		}
		cs := &ChainSlot{
			ID:        len(r.Slots),
			Type:      st,
			CopyIndex: i,
			Label:     label,
			Group:     group,
		}
		r.Slots = append(r.Slots, cs)
		r.byLabel[label] = cs
		slots = append(slots, cs)
	}
	return slots, nil
}

// BySlot returns the slot with the given id, or nil if out of range.
func (r *Registry) BySlot(id int) *ChainSlot {
	if id < 0 || id >= len(r.Slots) {
		return nil
	}
	return r.Slots[id]
}

// ByLabel returns the slot carrying the given chain label.
func (r *Registry) ByLabel(label byte) (*ChainSlot, bool) {
	cs, ok := r.byLabel[label]
	return cs, ok
}

// NumSlots returns the number of chain slots in the registry, i.e. N,
// the target complex size.
func (r *Registry) NumSlots() int { return len(r.Slots) }

// LoadChainList reads a chain.list file, one SubunitType record per
// line: "<path-to-backbone-record> [group]". Each line is loaded once
// and expanded into one ChainSlot per chain label the record carries.
// Lines starting with '#' and blank lines are skipped. Paths are
// resolved relative to the chain.list file's own directory, matching
// the reference pipeline's convention of keeping subunit records
// alongside the job's manifest.
func LoadChainList(path string, cfg *config.Static) (*Registry, []*SubunitType, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("subunit: cannot open chain list %s: %w", path, err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	reg := NewRegistry()
	var types []*SubunitType

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		rel := fields[0]
		p := rel
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, rel)
		}
		group := 0
		if len(fields) > 1 {
			g, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, nil, fmt.Errorf("subunit: chain list %s line %d: bad group %q: %w", path, lineNo, fields[1], err)
			}
			group = g
		}
		st, err := LoadFile(p, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("subunit: chain list %s line %d: %w", path, lineNo, err)
		}
		if _, err := reg.AddType(st, group); err != nil {
			return nil, nil, fmt.Errorf("subunit: chain list %s line %d: %w", path, lineNo, err)
		}
		types = append(types, st)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("subunit: reading chain list %s: %w", path, err)
	}
	if len(reg.Slots) == 0 {
		return nil, nil, fmt.Errorf("subunit: chain list %s defines no chain slots", path)
	}
	return reg, types, nil
}

/*
 * subunit.go, part of combfold.
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

// Package subunit holds the SubunitType model (a backbone point cloud
// plus a per-atom confidence field) and its spatial grid, and the chain
// slot registry built from a chain.list file. Parsing the actual atom
// coordinates out of a structure file is the "subunit definition
// parsing... format glue" spec.md explicitly puts out of scope; this
// package instead reads an already-extracted, JSON-serialized backbone
// record (mirroring gochem's chemjson wire format for its own atom/
// coordinate types) as the stand-in for that external collaborator.
package subunit

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rmera/combfold/config"
	"github.com/rmera/combfold/geom"
)

// SubunitType is a single subunit type's immutable structural record:
// its backbone point cloud, one representative atom per residue
// (typically C-alpha), plus a confidence value per point (spec.md's
// B-factor-style 0-100 field) used to gate collidability.
type SubunitType struct {
	Name     string
	Chains   []byte // chain labels, in copy order; multiplicity == len(Chains)
	Residues []int
	Points   []geom.Vec3
	Conf     []float64 // confidence, one per point, in [0,100]
	Elements []string  // optional, one per point; defaults to "C" when absent
	Sequence []byte    // one-letter residue codes; ambient/diagnostic only

	// OriginChain names the biological chain this SubunitType was split
	// from, when it is one piece of a chain too long for the upstream
	// structure predictor (see split_large_subunits.py in the reference
	// pipeline). Empty when the type was not produced by a split.
	OriginChain string

	Radius float64 // bounding-sphere radius about the point-set centroid

	grid *grid
}

// Multiplicity returns the number of interchangeable copies of this
// subunit type in the complex.
func (s *SubunitType) Multiplicity() int { return len(s.Chains) }

// New validates and constructs a SubunitType, building its spatial grid
// eagerly since it is immutable and read-only for the rest of its life.
func New(name string, chains []byte, residues []int, points []geom.Vec3, conf []float64, elements []string, cfg *config.Static) (*SubunitType, error) {
	if len(residues) != len(points) {
		return nil, fmt.Errorf("subunit %q: residue order must match point-set order (%d residues, %d points)", name, len(residues), len(points))
	}
	if len(conf) != len(points) {
		return nil, fmt.Errorf("subunit %q: confidence field must have one value per point (%d points, %d confidences)", name, len(points), len(conf))
	}
	if elements != nil && len(elements) != len(points) {
		return nil, fmt.Errorf("subunit %q: elements must have one value per point if given (%d points, %d elements)", name, len(points), len(elements))
	}
	if len(chains) == 0 {
		return nil, fmt.Errorf("subunit %q: must have at least one chain", name)
	}
	st := &SubunitType{
		Name:     name,
		Chains:   chains,
		Residues: residues,
		Points:   points,
		Conf:     conf,
		Elements: elements,
	}
	st.Radius = boundingSphereRadius(points)
	st.grid = buildGrid(points, cfg.GridResolution, cfg.GridMargins)
	return st, nil
}

func boundingSphereRadius(points []geom.Vec3) float64 {
	if len(points) == 0 {
		return 0
	}
	var c geom.Vec3
	for _, p := range points {
		c = c.Add(p)
	}
	c = c.Scale(1 / float64(len(points)))
	var maxR float64
	for _, p := range points {
		if d := p.Sub(c).Norm(); d > maxR {
			maxR = d
		}
	}
	return maxR
}

// Element returns the chemical element symbol associated with point i,
// defaulting to carbon when no per-point element table was supplied
// (gochem's atomicdata.go keeps a similarly sparse "common bio-elements"
// table for the same reason: backbone atoms are overwhelmingly C/N/O).
func (s *SubunitType) Element(i int) string {
	if s.Elements != nil {
		return s.Elements[i]
	}
	return "C"
}

// wireRecord is the on-disk JSON shape for a subunit backbone record,
// the boundary format standing in for the out-of-scope structure-file
// parser.
type wireRecord struct {
	Name        string      `json:"name"`
	Chains      string      `json:"chains"`
	Residues    []int       `json:"residues"`
	Points      [][3]float64 `json:"points"`
	Confidence  []float64   `json:"confidence"`
	Elements    []string    `json:"elements,omitempty"`
	Sequence    string      `json:"sequence,omitempty"`
	OriginChain string      `json:"origin_chain,omitempty"`
}

// LoadFile reads a SubunitType from its JSON backbone record at path.
func LoadFile(path string, cfg *config.Static) (*SubunitType, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("subunit: cannot open %s: %w", path, err)
	}
	defer f.Close()
	var w wireRecord
	if err := json.NewDecoder(f).Decode(&w); err != nil {
		return nil, fmt.Errorf("subunit: parse error in %s: %w", path, err)
	}
	points := make([]geom.Vec3, len(w.Points))
	for i, p := range w.Points {
		points[i] = geom.Vec3(p)
	}
	st, err := New(w.Name, []byte(w.Chains), w.Residues, points, w.Confidence, w.Elements, cfg)
	if err != nil {
		return nil, fmt.Errorf("subunit: %s: %w", path, err)
	}
	st.Sequence = []byte(w.Sequence)
	st.OriginChain = w.OriginChain
	return st, nil
}

/*
 * diag.go, part of combfold.
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

// Package diag produces optional diagnostic plots summarizing a search
// run: a score histogram over the survivor (or clustered) set. Uses
// gonum.org/v1/gonum/stat for the summary statistics shown in the plot
// title and gonum.org/v1/plot/plotter for the histogram itself, the
// modern replacement for gochem's own plotting code (plot.go,
// chemplot/ramachandran.go), which is still wired to the long-dead
// code.google.com/p/plotinum import path and was not a usable base to
// build on.
package diag

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/rmera/combfold/superbb"
)

// PlotScoreDistribution renders a histogram of every SuperBB's Score to
// path as a PNG, with the mean and standard deviation noted in the
// title.
func PlotScoreDistribution(path string, bbs []*superbb.SuperBB) error {
	if len(bbs) == 0 {
		return fmt.Errorf("diag: no assemblies to plot")
	}
	scores := make(plotter.Values, len(bbs))
	raw := make([]float64, len(bbs))
	for i, bb := range bbs {
		scores[i] = bb.Score
		raw[i] = bb.Score
	}
	mean, std := stat.MeanStdDev(raw, nil)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("assembly score distribution (n=%d, mean=%.2f, sd=%.2f)", len(bbs), mean, std)
	p.X.Label.Text = "score"
	p.Y.Label.Text = "count"

	hist, err := plotter.NewHist(scores, histBins(len(scores)))
	if err != nil {
		return fmt.Errorf("diag: building histogram: %w", err)
	}
	p.Add(hist)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("diag: saving %s: %w", path, err)
	}
	return nil
}

// histBins picks a bin count that degrades gracefully for small
// survivor sets instead of the default fixed bin width producing an
// unreadable, nearly-empty histogram.
func histBins(n int) int {
	if n < 10 {
		return n
	}
	if n > 50 {
		return 50
	}
	return n
}

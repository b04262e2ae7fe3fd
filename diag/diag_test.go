package diag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rmera/combfold/bitset"
	"github.com/rmera/combfold/superbb"
)

func TestPlotScoreDistribution(t *testing.T) {
	var bbs []*superbb.SuperBB
	for i, score := range []float64{10, 20, 30, 40, 50} {
		bbs = append(bbs, &superbb.SuperBB{Score: score, Identity: bitset.Single(i)})
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "scores.png")
	if err := PlotScoreDistribution(path, bbs); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("expected non-empty PNG file")
	}
}

func TestPlotScoreDistributionEmpty(t *testing.T) {
	if err := PlotScoreDistribution(filepath.Join(t.TempDir(), "scores.png"), nil); err == nil {
		t.Fatal("expected error for empty survivor set")
	}
}

func TestHistBinsDegradesForSmallN(t *testing.T) {
	if got := histBins(3); got != 3 {
		t.Errorf("histBins(3) = %d, want 3", got)
	}
	if got := histBins(100); got != 50 {
		t.Errorf("histBins(100) = %d, want 50", got)
	}
}

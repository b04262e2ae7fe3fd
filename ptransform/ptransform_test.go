package ptransform

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmera/combfold/geom"
)

func TestParseFormatRoundTrip(t *testing.T) {
	line := "1 | 87.5 | af2-model-3 | 10 20 30 1.5 -2.5 3.5"
	pt, err := parseLine(line)
	if err != nil {
		t.Fatal(err)
	}
	if pt.Rank != 1 || pt.Score != 87.5 || pt.Provenance != "af2-model-3" {
		t.Errorf("parsed fields wrong: %+v", pt)
	}
	back, err := parseLine(formatLine(pt))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(back.T.T[0]-pt.T.T[0]) > 1e-6 {
		t.Errorf("round trip translation mismatch: %v vs %v", back.T.T, pt.T.T)
	}
}

func TestIndexAddCapAndSort(t *testing.T) {
	idx := NewIndex(2)
	idx.Add("A", "B", PairTransform{Rank: 1, Score: 10})
	idx.Add("A", "B", PairTransform{Rank: 2, Score: 90})
	idx.Add("A", "B", PairTransform{Rank: 3, Score: 50})

	got := idx.Lookup("A", "B")
	if len(got) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(got))
	}
	if got[0].Score != 90 || got[1].Score != 50 {
		t.Errorf("expected descending score order, got %v, %v", got[0].Score, got[1].Score)
	}
}

func TestIndexSymmetricLookupInverts(t *testing.T) {
	idx := NewIndex(0)
	tr := geom.Transform{R: geom.EulerXYZToMat3(0.1, 0.2, 0.3), T: geom.Vec3{1, 2, 3}}
	idx.Add("A", "B", PairTransform{Rank: 1, Score: 75, T: tr})

	fwd := idx.Lookup("A", "B")
	rev := idx.Lookup("B", "A")
	if len(fwd) != 1 || len(rev) != 1 {
		t.Fatalf("expected 1 entry both directions, got %d and %d", len(fwd), len(rev))
	}
	// rev should be the inverse of fwd
	composed := geom.Compose(rev[0].T, fwd[0].T)
	id := geom.Identity()
	if composed.T.Sub(id.T).Norm() > 1e-6 {
		t.Errorf("expected rev then fwd to compose to identity, got T=%v", composed.T)
	}
}

func TestHasAnyAndPairs(t *testing.T) {
	idx := NewIndex(0)
	if idx.HasAny("A", "B") {
		t.Error("expected no candidates before Add")
	}
	idx.Add("A", "B", PairTransform{Rank: 1, Score: 1})
	if !idx.HasAny("B", "A") {
		t.Error("expected HasAny to be symmetric")
	}
	pairs := idx.Pairs()
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
}

func TestLoadFileFromFilename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "TypeA_plus_TypeB")
	content := "1 | 80 | model1 | 0 0 0 1 2 3\n2 | 95 | model2 | 0 0 0 4 5 6\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	idx := NewIndex(0)
	if err := idx.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	got := idx.Lookup("TypeA", "TypeB")
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Score != 95 {
		t.Errorf("expected highest score first, got %v", got[0].Score)
	}
}

func TestSplitPairFilenameRejectsBadName(t *testing.T) {
	if _, _, err := splitPairFilename("nonsense"); err == nil {
		t.Fatal("expected error for filename without _plus_ separator")
	}
}

package subunit

import (
	"github.com/rmera/combfold/config"
	"github.com/rmera/combfold/geom"
	"testing"
)

func testConfig() *config.Static {
	c := config.Default()
	if err := c.Resolve(); err != nil {
		panic(err)
	}
	return c
}

func simpleType(t *testing.T, name string, chains []byte, offset geom.Vec3) *SubunitType {
	pts := []geom.Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1},
	}
	for i := range pts {
		pts[i] = pts[i].Add(offset)
	}
	conf := []float64{90, 90, 90, 90, 90}
	res := []int{1, 2, 3, 4, 5}
	st, err := New(name, chains, res, pts, conf, nil, testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return st
}

func TestNewValidatesLengths(t *testing.T) {
	cfg := testConfig()
	_, err := New("bad", []byte("A"), []int{1, 2}, []geom.Vec3{{0, 0, 0}}, []float64{90}, nil, cfg)
	if err == nil {
		t.Fatal("expected error for mismatched residues/points length")
	}
}

func TestMultiplicityAndRadius(t *testing.T) {
	st := simpleType(t, "X", []byte("AB"), geom.Vec3{})
	if st.Multiplicity() != 2 {
		t.Errorf("Multiplicity = %d, want 2", st.Multiplicity())
	}
	if st.Radius <= 0 {
		t.Errorf("Radius = %v, want > 0", st.Radius)
	}
}

func TestElementDefault(t *testing.T) {
	st := simpleType(t, "X", []byte("A"), geom.Vec3{})
	if st.Element(0) != "C" {
		t.Errorf("Element(0) = %q, want C (default)", st.Element(0))
	}
}

func TestCollisionCountOverlapping(t *testing.T) {
	a := simpleType(t, "A", []byte("A"), geom.Vec3{})
	b := simpleType(t, "B", []byte("B"), geom.Vec3{0.1, 0, 0})
	cfg := testConfig()
	n := CollisionCount(a, b, geom.Identity(), 50, cfg)
	if n == 0 {
		t.Error("expected nonzero collision count for near-coincident point sets")
	}
}

func TestCollisionCountFarApart(t *testing.T) {
	a := simpleType(t, "A", []byte("A"), geom.Vec3{})
	b := simpleType(t, "B", []byte("B"), geom.Vec3{1000, 1000, 1000})
	cfg := testConfig()
	n := CollisionCount(a, b, geom.Identity(), 50, cfg)
	if n != 0 {
		t.Errorf("expected 0 collisions for distant point sets, got %d", n)
	}
}

func TestCollisionCountConfidenceGate(t *testing.T) {
	cfg := testConfig()
	pts := []geom.Vec3{{0, 0, 0}}
	a, err := New("A", []byte("A"), []int{1}, pts, []float64{10}, nil, cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New("B", []byte("B"), []int{1}, pts, []float64{10}, nil, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if n := CollisionCount(a, b, geom.Identity(), 50, cfg); n != 0 {
		t.Errorf("expected low-confidence points to be excluded, got %d collisions", n)
	}
	if n := CollisionCount(a, b, geom.Identity(), 5, cfg); n != 1 {
		t.Errorf("expected coincident points to collide once threshold is low enough, got %d", n)
	}
}

func TestMaxPenetrationDepth(t *testing.T) {
	cfg := testConfig()
	pts := []geom.Vec3{{0, 0, 0}}
	a, _ := New("A", []byte("A"), []int{1}, pts, []float64{90}, nil, cfg)
	b, _ := New("B", []byte("B"), []int{1}, pts, []float64{90}, nil, cfg)
	depth := MaxPenetrationDepth(a, b, geom.Identity(), 50, cfg)
	want := 2 * cfg.DefaultBackboneRadius
	if depth != want {
		t.Errorf("MaxPenetrationDepth = %v, want %v", depth, want)
	}
}

func TestMaxPenetrationDepthNoOverlap(t *testing.T) {
	cfg := testConfig()
	a := simpleType(t, "A", []byte("A"), geom.Vec3{})
	b := simpleType(t, "B", []byte("B"), geom.Vec3{1000, 1000, 1000})
	if d := MaxPenetrationDepth(a, b, geom.Identity(), 50, cfg); d != 0 {
		t.Errorf("MaxPenetrationDepth = %v, want 0 for distant sets", d)
	}
}

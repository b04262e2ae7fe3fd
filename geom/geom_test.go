package geom

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func vecClose(a, b Vec3, tol float64) bool {
	return a.Sub(b).Norm() <= tol
}

// TestComposeInverse checks the geometry round-trip invariant from the
// design notes: compose(T, inverse(T)) is the identity within tolerance.
func TestComposeInverse(t *testing.T) {
	tr := Transform{
		R: EulerXYZToMat3(0.3, -0.7, 1.1),
		T: Vec3{4, -2, 9},
	}
	inv := tr.Inverse()
	got := Compose(tr, inv)

	id := Identity()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !almostEqual(got.R[i][j], id.R[i][j], 1e-9) {
				t.Errorf("compose(T,inv(T)).R[%d][%d] = %v, want %v", i, j, got.R[i][j], id.R[i][j])
			}
		}
	}
	if !vecClose(got.T, id.T, 1e-7) {
		t.Errorf("compose(T,inv(T)).T = %v, want ~0", got.T)
	}
}

func TestEulerRoundTrip(t *testing.T) {
	cases := [][3]float64{
		{0.1, 0.2, 0.3},
		{0, 0, 0},
		{1.5, -0.4, 2.9},
	}
	for _, c := range cases {
		m := EulerXYZToMat3(c[0], c[1], c[2])
		rx, ry, rz := Mat3ToEulerXYZ(m)
		m2 := EulerXYZToMat3(rx, ry, rz)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				if !almostEqual(m[i][j], m2[i][j], 1e-8) {
					t.Fatalf("euler round trip mismatch for %v: got %v want %v", c, m2, m)
				}
			}
		}
	}
}

func TestRMSDIdentity(t *testing.T) {
	pts := []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 1}}
	rmsd, err := RMSD(pts, pts, Identity())
	if err != nil {
		t.Fatal(err)
	}
	if rmsd > 1e-12 {
		t.Errorf("RMSD of identical sets = %v, want 0", rmsd)
	}
}

func TestSuperposeRecoversTransform(t *testing.T) {
	template := []Vec3{{0, 0, 0}, {2, 0, 0}, {0, 3, 0}, {1, 1, 4}}
	tr := Transform{R: EulerXYZToMat3(0.4, 0.1, -0.6), T: Vec3{5, -1, 2}}
	moved := tr.ApplyAll(template)

	got, err := Superpose(template, moved)
	if err != nil {
		t.Fatal(err)
	}
	rmsd, err := RMSD(template, moved, got)
	if err != nil {
		t.Fatal(err)
	}
	if rmsd > 1e-6 {
		t.Errorf("Superpose RMSD = %v, want ~0", rmsd)
	}
}

func TestSuperposeDegenerate(t *testing.T) {
	collinear := []Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}
	_, err := Superpose(collinear, collinear)
	if err == nil {
		t.Fatal("expected ErrDegenerateInput for collinear points, got nil")
	}
	if _, ok := err.(ErrDegenerateInput); !ok {
		t.Fatalf("expected ErrDegenerateInput, got %T: %v", err, err)
	}
}

func TestComposeAssociativity(t *testing.T) {
	t1 := Transform{R: EulerXYZToMat3(0.1, 0, 0), T: Vec3{1, 0, 0}}
	t2 := Transform{R: EulerXYZToMat3(0, 0.2, 0), T: Vec3{0, 1, 0}}
	p := Vec3{1, 2, 3}

	direct := t2.Apply(t1.Apply(p))
	composed := Compose(t1, t2).Apply(p)
	if !vecClose(direct, composed, 1e-9) {
		t.Errorf("Compose mismatch: direct=%v composed=%v", direct, composed)
	}
}

package cluster

import (
	"testing"

	"github.com/rmera/combfold/config"
	"github.com/rmera/combfold/geom"
	"github.com/rmera/combfold/ptransform"
	"github.com/rmera/combfold/subunit"
	"github.com/rmera/combfold/superbb"
)

func twoChainRegistry(t *testing.T) *subunit.Registry {
	cfg := mustConfig(t)
	reg := subunit.NewRegistry()
	pts := []geom.Vec3{{0, 0, 0}, {2, 0, 0}, {0, 3, 0}, {1, 1, 4}}
	conf := []float64{90, 90, 90, 90}
	for _, name := range []string{"A", "B"} {
		st, err := subunit.New(name, []byte(name), []int{1, 2, 3, 4}, pts, conf, nil, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := reg.AddType(st, 0); err != nil {
			t.Fatal(err)
		}
	}
	return reg
}

func mustConfig(t *testing.T) *config.Static {
	c := config.Default()
	if err := c.Resolve(); err != nil {
		t.Fatal(err)
	}
	return c
}

func fullBB(t *testing.T, reg *subunit.Registry, score float64, placeB geom.Transform) *superbb.SuperBB {
	slotA, _ := reg.ByLabel('A')
	slotB, _ := reg.ByLabel('B')
	a := superbb.Seed(slotA.ID)
	b := superbb.Seed(slotB.ID)
	b.Placements[slotB.ID] = placeB

	pt := ptransform.PairTransform{Rank: 1, Score: score, T: placeB}
	pol := &superbb.Policy{
		Config:                       mustConfig(t),
		ConfidenceThreshold:          50,
		MaxBackboneCollisionPerChain: 1,
		PenetrationDepthThreshold:    -1,
		ConstraintViolationLimit:     1,
	}
	out, err := superbb.Compose(a, b, slotA.ID, slotB.ID, pt, reg, nil, pol)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	return out
}

func TestClusterAbsorbsNearDuplicates(t *testing.T) {
	reg := twoChainRegistry(t)
	far := geom.Transform{R: geom.Identity3(), T: geom.Vec3{1000, 0, 0}}
	a := fullBB(t, reg, 90, far)
	// a near-identical placement, displaced by a tiny amount.
	nearFar := geom.Transform{R: geom.Identity3(), T: geom.Vec3{1000.05, 0, 0}}
	b := fullBB(t, reg, 85, nearFar)
	// a clearly distinct placement.
	farAway := geom.Transform{R: geom.Identity3(), T: geom.Vec3{-1000, 500, 0}}
	c := fullBB(t, reg, 80, farAway)

	reps := Cluster([]*superbb.SuperBB{a, b, c}, reg, 1.0)
	if len(reps) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(reps))
	}
	if reps[0].Score < reps[1].Score {
		t.Error("expected representatives ordered best-score-first")
	}
}

func TestRMSDBetweenRejectsMismatchedIdentity(t *testing.T) {
	reg := twoChainRegistry(t)
	slotA, _ := reg.ByLabel('A')
	slotB, _ := reg.ByLabel('B')
	a := superbb.Seed(slotA.ID)
	b := superbb.Seed(slotB.ID)
	if _, err := RMSDBetween(a, b, reg); err == nil {
		t.Fatal("expected error comparing SuperBBs with different identities")
	}
}

package config

import "strings"

import "testing"

func TestDefaultResolve(t *testing.T) {
	s := Default()
	if err := s.Resolve(); err != nil {
		t.Fatal(err)
	}
	if s.DuplicatePlacementEpsilon != s.GridResolution {
		t.Errorf("expected DuplicatePlacementEpsilon to default to GridResolution, got %v vs %v", s.DuplicatePlacementEpsilon, s.GridResolution)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	r := strings.NewReader(`{"grid_resolution": 3.5}`)
	s, err := Load(r)
	if err != nil {
		t.Fatal(err)
	}
	if s.GridResolution != 3.5 {
		t.Errorf("grid_resolution = %v, want 3.5", s.GridResolution)
	}
	if s.DefaultBackboneRadius != 1.9 {
		t.Errorf("default_backbone_radius should keep default, got %v", s.DefaultBackboneRadius)
	}
}

func TestLoadRejectsBadResolution(t *testing.T) {
	r := strings.NewReader(`{"grid_resolution": -1}`)
	if _, err := Load(r); err == nil {
		t.Fatal("expected error for negative grid_resolution")
	}
}

func TestRadiusForFallback(t *testing.T) {
	s := Default()
	if got := s.RadiusFor("Zn"); got != s.DefaultBackboneRadius {
		t.Errorf("RadiusFor(unknown) = %v, want default %v", got, s.DefaultBackboneRadius)
	}
	if got := s.RadiusFor("C"); got != 1.70 {
		t.Errorf("RadiusFor(C) = %v, want 1.70", got)
	}
}

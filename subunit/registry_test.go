package subunit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeBackbone(t *testing.T, dir, name string, chains string) string {
	rec := wireRecord{
		Name:       name,
		Chains:     chains,
		Residues:   []int{1, 2, 3},
		Points:     [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Confidence: []float64{90, 90, 90},
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, b, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadChainList(t *testing.T) {
	dir := t.TempDir()
	writeBackbone(t, dir, "typeA", "AB")
	writeBackbone(t, dir, "typeB", "C")

	listPath := filepath.Join(dir, "chain.list")
	content := "typeA.json 1\ntypeB.json\n# a comment\n\n"
	if err := os.WriteFile(listPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	reg, types, err := LoadChainList(listPath, cfg)
	if err != nil {
		t.Fatalf("LoadChainList: %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("got %d types, want 2", len(types))
	}
	if reg.NumSlots() != 3 {
		t.Fatalf("got %d slots, want 3", reg.NumSlots())
	}
	a, ok := reg.ByLabel('A')
	if !ok || a.Group != 1 {
		t.Errorf("slot A: ok=%v group=%v, want group 1", ok, a.Group)
	}
	c, ok := reg.ByLabel('C')
	if !ok || c.Group != 0 {
		t.Errorf("slot C: ok=%v group=%v, want group 0", ok, c.Group)
	}
	if reg.BySlot(0).Label != 'A' || reg.BySlot(1).Label != 'B' || reg.BySlot(2).Label != 'C' {
		t.Errorf("unexpected slot id assignment: %c %c %c", reg.BySlot(0).Label, reg.BySlot(1).Label, reg.BySlot(2).Label)
	}
}

func TestLoadChainListDuplicateLabel(t *testing.T) {
	dir := t.TempDir()
	writeBackbone(t, dir, "typeA", "A")
	writeBackbone(t, dir, "typeB", "A")
	listPath := filepath.Join(dir, "chain.list")
	os.WriteFile(listPath, []byte("typeA.json\ntypeB.json\n"), 0644)

	if _, _, err := LoadChainList(listPath, testConfig()); err == nil {
		t.Fatal("expected error for duplicate chain label across types")
	}
}

func TestLoadChainListEmpty(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "chain.list")
	os.WriteFile(listPath, []byte("# nothing here\n"), 0644)
	if _, _, err := LoadChainList(listPath, testConfig()); err == nil {
		t.Fatal("expected error for empty chain list")
	}
}

package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/combfold/config"
	"github.com/rmera/combfold/geom"
	"github.com/rmera/combfold/subunit"
	"github.com/rmera/combfold/superbb"
)

func oneSlotRegistry(t *testing.T) *subunit.Registry {
	cfg := config.Default()
	if err := cfg.Resolve(); err != nil {
		t.Fatal(err)
	}
	reg := subunit.NewRegistry()
	st, err := subunit.New("A", []byte("A"), []int{1, 2, 3}, []geom.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, []float64{90, 90, 90}, nil, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.AddType(st, 0); err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestWriteResultsPlain(t *testing.T) {
	reg := oneSlotRegistry(t)
	bb := superbb.Seed(0)
	bb.Score = 42
	dir := t.TempDir()
	path := filepath.Join(dir, "out.res")
	if err := WriteResults(path, []*superbb.SuperBB{bb}, reg); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "score=42.0000") {
		t.Errorf("expected score in output, got:\n%s", data)
	}
	if !strings.Contains(string(data), "A ") {
		t.Errorf("expected chain A placement line, got:\n%s", data)
	}
}

func TestWriteResultsCompressed(t *testing.T) {
	reg := oneSlotRegistry(t)
	bb := superbb.Seed(0)
	dir := t.TempDir()
	path := filepath.Join(dir, "out.res.zst")
	if err := WriteResults(path, []*superbb.SuperBB{bb}, reg); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("expected non-empty compressed output file")
	}
}

func TestWriteLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.log")
	if err := WriteLog(path, []string{"line one", "line two\n"}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(data), "\n") != 2 {
		t.Errorf("expected exactly 2 lines, got:\n%s", data)
	}
}

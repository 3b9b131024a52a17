package resumestore

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/ASBoldt/quantgen/internal/model"
)

func TestStore_AssocResultRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "resume.duckdb")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	r := model.NewResFtrSnp(0, "rs1", 1)
	r.N[0] = 12
	r.Betahat[0] = 0.75
	r.Sebetahat[0] = 0.2
	r.Sigmahat[0] = 1.1
	r.BetaPval[0] = 0.01
	r.PVE[0] = 0.3

	if err := store.SaveAssocResult("ftrA", r, 0); err != nil {
		t.Fatalf("SaveAssocResult: %v", err)
	}

	got, err := store.LoadAssocResults("ftrA", 0)
	if err != nil {
		t.Fatalf("LoadAssocResults: %v", err)
	}
	row, ok := got["rs1"]
	if !ok {
		t.Fatalf("LoadAssocResults missing rs1: %v", got)
	}
	if row.N != 12 || math.Abs(row.Betahat-0.75) > 1e-9 {
		t.Errorf("loaded row = %+v, want N=12 Betahat=0.75", row)
	}
}

func TestStore_AssocResultUpsertOverwrites(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := Open(filepath.Join(tmpDir, "resume.duckdb"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	r := model.NewResFtrSnp(0, "rs1", 1)
	r.N[0] = 5
	r.Betahat[0] = 1.0
	store.SaveAssocResult("ftrA", r, 0)

	r.N[0] = 9
	r.Betahat[0] = 2.0
	store.SaveAssocResult("ftrA", r, 0)

	got, err := store.LoadAssocResults("ftrA", 0)
	if err != nil {
		t.Fatalf("LoadAssocResults: %v", err)
	}
	if got["rs1"].N != 9 || got["rs1"].Betahat != 2.0 {
		t.Errorf("upsert did not overwrite: %+v", got["rs1"])
	}
}

func TestStore_PermCounterRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := Open(filepath.Join(tmpDir, "resume.duckdb"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if err := store.SavePermCounter("ftrA", 0, 150, 0.02); err != nil {
		t.Fatalf("SavePermCounter: %v", err)
	}

	nbPerms, pval, ok, err := store.LoadPermCounter("ftrA", 0)
	if err != nil {
		t.Fatalf("LoadPermCounter: %v", err)
	}
	if !ok {
		t.Fatal("LoadPermCounter ok=false, want true")
	}
	if nbPerms != 150 || math.Abs(pval-0.02) > 1e-9 {
		t.Errorf("LoadPermCounter = (%d,%v), want (150,0.02)", nbPerms, pval)
	}
}

func TestStore_LoadPermCounter_NotFound(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := Open(filepath.Join(tmpDir, "resume.duckdb"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	_, _, ok, err := store.LoadPermCounter("neverseen", 0)
	if err != nil {
		t.Fatalf("LoadPermCounter: %v", err)
	}
	if ok {
		t.Error("LoadPermCounter ok=true for unseen feature, want false")
	}
}

func TestStore_JointPermCounterRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := Open(filepath.Join(tmpDir, "resume.duckdb"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if err := store.SaveJointPermCounter("ftrA", 200, 0.05, 3.7); err != nil {
		t.Fatalf("SaveJointPermCounter: %v", err)
	}

	nbPerms, pval, maxAbf, ok, err := store.LoadJointPermCounter("ftrA")
	if err != nil {
		t.Fatalf("LoadJointPermCounter: %v", err)
	}
	if !ok {
		t.Fatal("LoadJointPermCounter ok=false, want true")
	}
	if nbPerms != 200 || math.Abs(pval-0.05) > 1e-9 || math.Abs(maxAbf-3.7) > 1e-9 {
		t.Errorf("LoadJointPermCounter = (%d,%v,%v), want (200,0.05,3.7)", nbPerms, pval, maxAbf)
	}
}

func TestStore_ReopenPersistsData(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "resume.duckdb")

	store1, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store1.SavePermCounter("ftrA", 0, 42, 0.1)
	store1.Close()

	store2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("reopen Open: %v", err)
	}
	defer store2.Close()

	nbPerms, _, ok, err := store2.LoadPermCounter("ftrA", 0)
	if err != nil {
		t.Fatalf("LoadPermCounter after reopen: %v", err)
	}
	if !ok || nbPerms != 42 {
		t.Errorf("data not persisted across reopen: ok=%v nbPerms=%d", ok, nbPerms)
	}
}

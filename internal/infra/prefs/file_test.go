package prefs

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vietddude/slotbot/internal/core/domain"
)

func samplePref() domain.Preference {
	return domain.Preference{
		Name:         "Asha",
		BirthYear:    1990,
		Mode:         domain.SearchByDistrict,
		StateID:      9,
		StateName:    "Delhi",
		DistrictID:   141,
		DistrictName: "Central Delhi",
		Vaccine:      domain.VaccineCovishield,
		Charge:       domain.ChargeFree,
	}
}

func TestFileStore_Roundtrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	if _, found, err := store.Load(ctx, "ben-1"); err != nil || found {
		t.Fatalf("Load before save: found=%v err=%v", found, err)
	}

	want := samplePref()
	if err := store.Save(ctx, "ben-1", want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, found, err := store.Load(ctx, "ben-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found {
		t.Fatal("saved preference not found")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestFileStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "preferences")
	store := NewFileStore(dir)

	if err := store.Save(context.Background(), "ben-1", samplePref()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ben-1.json")); err != nil {
		t.Errorf("preference file missing: %v", err)
	}
}

func TestFileStore_Delete(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	if err := store.Save(ctx, "ben-1", samplePref()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(ctx, "ben-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found, _ := store.Load(ctx, "ben-1"); found {
		t.Error("preference still present after delete")
	}

	// Deleting again is not an error.
	if err := store.Delete(ctx, "ben-1"); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	if err := os.WriteFile(filepath.Join(dir, "ben-1.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.Load(context.Background(), "ben-1"); err == nil {
		t.Error("want error for corrupt preference file")
	}
}

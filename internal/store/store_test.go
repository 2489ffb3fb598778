package store_test

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jamesr66a/translate/internal/morphology"
	"github.com/jamesr66a/translate/internal/store"
)

func trainedParams(t *testing.T) *morphology.Params {
	t.Helper()
	corpus := map[string]int{
		"walked":  2,
		"walking": 1,
		"talked":  3,
	}
	p := morphology.NewParams(corpus, morphology.DefaultConfig())
	if err := morphology.NewTrainer(p, 2).Train(t.Context(), 2); err != nil {
		t.Fatalf("training failed: %v", err)
	}
	return p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := trainedParams(t)
	path := filepath.Join(t.TempDir(), "model.db")

	if err := store.Save(path, p); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := store.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	// Bit-for-bit: SQLite REAL columns are 8-byte IEEE floats, so nothing
	// may change in transit.
	if !reflect.DeepEqual(loaded.Emissions, p.Emissions) {
		t.Error("emission tables changed across save/load")
	}
	if loaded.Transitions != p.Transitions {
		t.Error("transition table changed across save/load")
	}
	if !reflect.DeepEqual(loaded.Likeness, p.Likeness) {
		t.Error("likeness tables changed across save/load")
	}
	if !reflect.DeepEqual(loaded.WordCounts, p.WordCounts) {
		t.Error("word counts changed across save/load")
	}
	if loaded.SmoothingConst != p.SmoothingConst {
		t.Errorf("smoothing const changed: %v vs %v", loaded.SmoothingConst, p.SmoothingConst)
	}
	if loaded.MaxMorphLen != p.MaxMorphLen {
		t.Errorf("morpheme length bound changed: %v vs %v", loaded.MaxMorphLen, p.MaxMorphLen)
	}
}

func TestLoadMissingModel(t *testing.T) {
	_, err := store.Load(filepath.Join(t.TempDir(), "nope.db"))
	if !errors.Is(err, store.ErrNoModel) {
		t.Errorf("expected ErrNoModel, got %v", err)
	}
}

func TestSaveOverwritesCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.db")

	first := trainedParams(t)
	if err := store.Save(path, first); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	// Another iteration moves the probabilities; the checkpoint at the
	// same path must reflect only the latest state.
	second := first
	if err := morphology.NewTrainer(second, 2).Train(t.Context(), 1); err != nil {
		t.Fatalf("training failed: %v", err)
	}
	if err := store.Save(path, second); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	loaded, err := store.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !reflect.DeepEqual(loaded.Emissions, second.Emissions) {
		t.Error("checkpoint did not reflect the latest iteration")
	}
}

func TestRoundTripEmptyStore(t *testing.T) {
	p := morphology.NewParams(map[string]int{}, morphology.DefaultConfig())
	path := filepath.Join(t.TempDir(), "empty.db")

	if err := store.Save(path, p); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := store.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	for c := 0; c < morphology.NumClasses; c++ {
		if len(loaded.Emissions[c]) != 0 {
			t.Errorf("class %v emission row not empty after round trip", morphology.Class(c))
		}
	}
	if len(loaded.WordCounts) != 0 {
		t.Error("word counts not empty after round trip")
	}
}

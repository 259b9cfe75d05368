package object_test

import (
	"testing"

	"github.com/ytausky/gbas/object"
)

func TestDefineStartsUnknown(t *testing.T) {
	vt := object.NewVarTable()
	id := vt.Define()
	if !vt.Get(id).Unknown {
		t.Fatal("a freshly defined variable should be Unknown")
	}
}

func TestRefineNarrowsAndReportsChange(t *testing.T) {
	vt := object.NewVarTable()
	id := vt.Define()

	if changed := vt.Refine(id, object.Value{Min: 0, Max: 100}); !changed {
		t.Fatal("refining from Unknown should report a change")
	}
	if changed := vt.Refine(id, object.Value{Min: 0, Max: 100}); changed {
		t.Fatal("refining to the same interval should report no change")
	}
	if changed := vt.Refine(id, object.Value{Min: 10, Max: 20}); !changed {
		t.Fatal("narrowing further should report a change")
	}
	if got := vt.Get(id); got.Min != 10 || got.Max != 20 {
		t.Fatalf("got %+v, want [10,20]", got)
	}
}

func TestLenTracksDefineCount(t *testing.T) {
	vt := object.NewVarTable()
	if vt.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", vt.Len())
	}
	vt.Define()
	vt.Define()
	if vt.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", vt.Len())
	}
}

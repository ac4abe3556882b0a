package interp

import "testing"

// These exercise the generator and collector (§4.4): HEAP vs LOC
// ownership, preemptive reclaim at frame close, and full mark-sweep
// once the heap cap is crossed, the counterpart of own
// reflect-backed runtime value tests (interp/interp.go) generalised
// from Go value construction to Algol 68 name/generator semantics.

func TestHeapGeneratorOutlivesItsFrame(t *testing.T) {
	src := `
	PROC make = REF INT: HEAP INT;
	REF INT p = make;
	p := 7;
	p
	`
	i := New(Options{})
	v, err := i.Eval(src)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	ref, ok := v.(*Ref)
	if !ok {
		t.Fatalf("got %T, want *Ref", v)
	}
	if got, ok := ref.load().(int64); !ok || got != 7 {
		t.Errorf("loaded %v, want 7", got)
	}
}

func TestLocalGeneratorReclaimedAtFrameClose(t *testing.T) {
	src := `
	PROC touch = VOID: BEGIN INT p := 1 END;
	touch;
	touch;
	touch
	`
	i := New(Options{})
	if _, err := i.Eval(src); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if i.gc.Stats.Preempted == 0 {
		t.Errorf("expected at least one preemptive reclaim at frame close, got %+v", i.gc.Stats)
	}
}

func TestCollectReclaimsUnreachableHeapGenerators(t *testing.T) {
	src := `
	INT i := 0;
	FOR k FROM 1 TO 64 DO
		REF INT p = HEAP INT;
		p := k;
		i := i + 1
	OD;
	i
	`
	i := New(Options{HeapSize: 64})
	v, err := i.Eval(src)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got, ok := v.(int64); !ok || got != 64 {
		t.Errorf("got %v, want 64", got)
	}
	stats := i.gc.Collect()
	if stats.Collections == 0 || stats.Swept == 0 {
		t.Errorf("expected Collect to report a collection that swept handles, got %+v", stats)
	}
}

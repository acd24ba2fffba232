package app

import (
	"reflect"
	"testing"
)

func TestSelectionToggle(t *testing.T) {
	sel := NewSelection()
	if sel.Selecting {
		t.Fatal("fresh selection should be idle")
	}

	sel = sel.Toggle("b")
	if !sel.Selecting {
		t.Fatal("toggle should implicitly start selecting")
	}
	sel = sel.Toggle("a")
	if !reflect.DeepEqual(sel.IDs, []string{"a", "b"}) {
		t.Fatalf("ids = %v, want [a b]", sel.IDs)
	}

	sel = sel.Toggle("b")
	if !reflect.DeepEqual(sel.IDs, []string{"a"}) {
		t.Fatalf("ids after un-toggle = %v, want [a]", sel.IDs)
	}
	if !sel.Selecting {
		t.Fatal("removing an id should not leave selection mode")
	}

	if next := sel.Toggle(""); !reflect.DeepEqual(next, sel) {
		t.Fatalf("empty id toggle changed state: %+v", next)
	}
}

func TestSelectionSelectAll(t *testing.T) {
	sel := NewSelection().SelectAll([]string{"c", "a", "", "c", "b"})
	if !sel.Selecting {
		t.Fatal("SelectAll should enter selection mode")
	}
	if !reflect.DeepEqual(sel.IDs, []string{"a", "b", "c"}) {
		t.Fatalf("ids = %v, want sorted deduped [a b c]", sel.IDs)
	}

	// replaces, not merges
	sel = sel.SelectAll([]string{"z"})
	if !reflect.DeepEqual(sel.IDs, []string{"z"}) {
		t.Fatalf("ids = %v, want [z]", sel.IDs)
	}
}

func TestSelectionRemoveIDs(t *testing.T) {
	sel := NewSelection().SelectAll([]string{"a", "b", "c"}).RemoveIDs([]string{"b", "missing"})
	if !reflect.DeepEqual(sel.IDs, []string{"a", "c"}) {
		t.Fatalf("ids = %v, want [a c]", sel.IDs)
	}

	sel = sel.RemoveIDs([]string{"a", "c"})
	if !sel.Selecting {
		t.Fatal("emptying the set should keep selection mode active")
	}
	if len(sel.IDs) != 0 {
		t.Fatalf("ids = %v, want empty", sel.IDs)
	}

	idle := NewSelection().RemoveIDs([]string{"a"})
	if idle.Selecting {
		t.Fatal("RemoveIDs on the idle state should stay idle")
	}
}

func TestSelectionClearAndContains(t *testing.T) {
	sel := NewSelection().SelectAll([]string{"a", "b"})
	if !sel.Contains("a") || sel.Contains("x") {
		t.Fatalf("contains misreported: %+v", sel)
	}
	sel = sel.Clear()
	if sel.Selecting || len(sel.IDs) != 0 {
		t.Fatalf("clear did not reset: %+v", sel)
	}
}

func TestSelectionValueSemantics(t *testing.T) {
	base := NewSelection().SelectAll([]string{"a", "b"})
	_ = base.Toggle("c")
	_ = base.RemoveIDs([]string{"a"})
	if !reflect.DeepEqual(base.IDs, []string{"a", "b"}) {
		t.Fatalf("base mutated: %v", base.IDs)
	}
}

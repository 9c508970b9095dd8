package engine

import "testing"

func TestScopeGetWalksChainInnermostFirst(t *testing.T) {
	globals := NewScope(nil)
	locals := NewScope(globals)
	instance := NewScope(locals)

	globals.Define("g", 1)
	locals.Define("l", 2)
	instance.Define("i", 3)
	globals.Define("shadowed", "global")
	locals.Define("shadowed", "local")

	tests := []struct {
		name string
		want any
	}{
		{"g", 1},
		{"l", 2},
		{"i", 3},
		{"shadowed", "local"},
	}
	for _, tt := range tests {
		got, ok := instance.Get(tt.name)
		if !ok || got != tt.want {
			t.Errorf("Get(%q) = %v (ok=%v), want %v", tt.name, got, ok, tt.want)
		}
	}
	if _, ok := instance.Get("missing"); ok {
		t.Error("Get of an undefined name must report absence")
	}
}

func TestScopeSetWritesMostSpecificDefiningScope(t *testing.T) {
	globals := NewScope(nil)
	locals := NewScope(globals)
	instance := NewScope(locals)

	globals.Define("x", "old")
	locals.Define("y", "old")

	instance.Set("x", "new")
	if v, _ := globals.Get("x"); v != "new" {
		t.Errorf("x = %v in globals, want new", v)
	}
	instance.Set("y", "new")
	if v, _ := locals.vars["y"]; v != "new" {
		t.Errorf("y = %v in locals, want new", v)
	}
	if _, ok := globals.vars["y"]; ok {
		t.Error("Set must not copy a local binding up to the root")
	}

	// A name defined nowhere lands at the root.
	instance.Set("fresh", 42)
	if _, ok := instance.vars["fresh"]; ok {
		t.Error("undefined name must not be created in the writing scope")
	}
	if v, _ := globals.Get("fresh"); v != 42 {
		t.Errorf("fresh = %v in globals, want 42", v)
	}
}

func TestScopeSnapshotExcludesParents(t *testing.T) {
	parent := NewScope(nil)
	child := NewScope(parent)
	parent.Define("p", 1)
	child.Define("c", 2)

	snap := child.Snapshot()
	if len(snap) != 1 || snap["c"] != 2 {
		t.Errorf("Snapshot = %v, want only the child's own binding", snap)
	}

	// Mutating the snapshot never reaches the scope.
	snap["c"] = 99
	if v, _ := child.Get("c"); v != 2 {
		t.Errorf("c = %v after snapshot mutation, want 2", v)
	}
}

func TestScopeDefineShadowsWithoutTouchingParent(t *testing.T) {
	parent := NewScope(nil)
	child := NewScope(parent)
	parent.Define("v", "parent")

	child.Define("v", "child")
	if v, _ := child.Get("v"); v != "child" {
		t.Errorf("child v = %v, want child", v)
	}
	if v, _ := parent.Get("v"); v != "parent" {
		t.Errorf("parent v = %v, want parent", v)
	}

	// With the shadow in place, Set stays in the child.
	child.Set("v", "updated")
	if v, _ := parent.Get("v"); v != "parent" {
		t.Errorf("parent v = %v after shadowed Set, want parent", v)
	}
}

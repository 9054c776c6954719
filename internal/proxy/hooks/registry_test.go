package hooks

import (
	"net/http"
	"sync"
	"testing"
)

func noopRequest(*Exchange, *http.Request) error { return nil }

func TestRegisterAndFetch(t *testing.T) {
	registry = sync.Map{}
	h := Hooks{OnRequest: noopRequest}
	if err := Register("Test", h); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, ok := Fetch("test"); !ok {
		t.Fatalf("expected fetch ok")
	}
	if Status("test") != "registered" {
		t.Fatalf("expected registered status")
	}
	if Status("missing") != "missing" {
		t.Fatalf("expected missing status")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	registry = sync.Map{}
	if err := Register("dup", Hooks{OnRequest: noopRequest}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if err := Register("dup", Hooks{OnRequest: noopRequest}); err != ErrDuplicateHook {
		t.Fatalf("expected ErrDuplicateHook, got %v", err)
	}
}

func TestRegisterRejectsEmptyHooks(t *testing.T) {
	registry = sync.Map{}
	if err := Register("empty", Hooks{}); err == nil {
		t.Fatalf("expected error for hooks without capabilities")
	}
}

func TestSnapshotAndNames(t *testing.T) {
	registry = sync.Map{}
	_ = Register("b", Hooks{OnRequest: noopRequest})
	_ = Register("a", Hooks{OnRequest: noopRequest})
	snap := Snapshot([]string{"a", "c"})
	if snap["a"] != "registered" {
		t.Fatalf("expected a registered, got %s", snap["a"])
	}
	if snap["c"] != "missing" {
		t.Fatalf("expected c missing, got %s", snap["c"])
	}
	names := Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("expected sorted names, got %v", names)
	}
}

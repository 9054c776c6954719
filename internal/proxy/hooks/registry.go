package hooks

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var registry sync.Map

// ErrDuplicateHook indicates a handler name already has hooks registered.
var ErrDuplicateHook = errors.New("hook already registered")

// Register stores hooks under the given handler name.
func Register(name string, hooks Hooks) error {
	key := normalizeKey(name)
	if key == "" {
		return errors.New("handler name required")
	}
	if hooks.Empty() {
		return errors.New("handler must provide OnRequest or OnResponse")
	}
	if _, loaded := registry.LoadOrStore(key, hooks); loaded {
		return ErrDuplicateHook
	}
	return nil
}

// MustRegister panics on registration failure; suitable for init().
func MustRegister(name string, hooks Hooks) {
	if err := Register(name, hooks); err != nil {
		panic(err)
	}
}

// Fetch retrieves hooks registered under a handler name.
func Fetch(name string) (Hooks, bool) {
	key := normalizeKey(name)
	if key == "" {
		return Hooks{}, false
	}
	if value, ok := registry.Load(key); ok {
		if hooks, ok := value.(Hooks); ok {
			return hooks, true
		}
	}
	return Hooks{}, false
}

// Names returns the registered handler names in sorted order.
func Names() []string {
	var names []string
	registry.Range(func(key, _ any) bool {
		if name, ok := key.(string); ok {
			names = append(names, name)
		}
		return true
	})
	sort.Strings(names)
	return names
}

// Status returns hook registration status for a handler name.
func Status(name string) string {
	if _, ok := Fetch(name); ok {
		return "registered"
	}
	return "missing"
}

// Snapshot returns status for a list of handler names.
func Snapshot(names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		if normalized := normalizeKey(name); normalized != "" {
			out[normalized] = Status(normalized)
		}
	}
	return out
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

package decl

import (
	"fmt"
	"slices"
)

// References to values
type Ref[T any] struct {
	Value T
}

// Env[T] holds the bindings of a single scope along with a link to the
// enclosing scope.  Scopes form a tree rooted at a single global scope and the
// outer chain never cycles since a scope can only be created under an
// existing one.
type Env[T any] struct {
	store map[string]*Ref[T]
	outer *Env[T]

	// Block scopes (bodies of if, while and for) do not receive names
	// created by Set.  Those go to the nearest enclosing non-block scope.
	block bool

	// When strict is set, Set fails for names that no scope defines and
	// that would be created outside the current scope.
	strict bool
}

// NewEnv[T] creates a new environment nested within an outer one.
// If outer is nil then returns a fresh top-level environment.
// Nested environments inherit the strict setting of their outer.
func NewEnv[T any](outer *Env[T]) *Env[T] {
	s := make(map[string]*Ref[T])
	out := &Env[T]{store: s, outer: outer}
	if outer != nil {
		out.strict = outer.strict
	}
	return out
}

// Outer returns the enclosing scope (nil for the root).
func (e *Env[T]) Outer() *Env[T] {
	return e.outer
}

func (e *Env[T]) Strict() bool {
	return e.strict
}

func (e *Env[T]) SetStrict(strict bool) *Env[T] {
	e.strict = strict
	return e
}

// IsBlock reports whether this is a block scope.
func (e *Env[T]) IsBlock() bool {
	return e.block
}

// DeclScope returns the scope that Set creates new names in: this one,
// or the nearest enclosing one that is not a block scope.
func (e *Env[T]) DeclScope() *Env[T] {
	curr := e
	for curr.block && curr.outer != nil {
		curr = curr.outer
	}
	return curr
}

// GetRef retrieves the reference for a name. It checks the current
// environment first, then recursively checks outer environments.
func (e *Env[T]) GetRef(name string) *Ref[T] {
	if scope := e.ResolveScope(name); scope != nil {
		return scope.store[name]
	}
	return nil
}

func (e *Env[T]) Get(name string) (out T, found bool) {
	ref := e.GetRef(name)
	if ref != nil {
		out = ref.Value
		found = true
	}
	return
}

// Lookup is Get that reports a missing name as a NameError.
func (e *Env[T]) Lookup(name string) (out T, err error) {
	out, found := e.Get(name)
	if !found {
		err = NameErrorf(Location{}, "undefined variable '%s'", name)
	}
	return
}

// ResolveScope returns the nearest scope (starting with this one) that binds
// name, or nil if none does.
func (e *Env[T]) ResolveScope(name string) *Env[T] {
	for curr := e; curr != nil; curr = curr.outer {
		if _, ok := curr.store[name]; ok {
			return curr
		}
	}
	return nil
}

// SetHere binds name in this scope only, shadowing any outer binding.
func (e *Env[T]) SetHere(name string, value T) {
	e.store[name] = &Ref[T]{Value: value}
}

// Set overwrites name in the nearest scope that already binds it.  If no
// scope does, the name is created in DeclScope so a name first assigned
// inside a block stays visible once the block is done.  In strict mode
// that upward creation is a NameError instead.
func (e *Env[T]) Set(name string, value T) error {
	if scope := e.ResolveScope(name); scope != nil {
		scope.store[name].Value = value
		return nil
	}
	target := e.DeclScope()
	if e.strict && target != e {
		return NameErrorf(Location{}, "assignment to undeclared variable '%s'", name)
	}
	target.SetHere(name, value)
	return nil
}

// Remove deletes name from the nearest scope that binds it.  Removing an
// unbound name is a no-op.
func (e *Env[T]) Remove(name string) {
	if scope := e.ResolveScope(name); scope != nil {
		delete(scope.store, name)
	}
}

// RemoveHere deletes name from this scope only.
func (e *Env[T]) RemoveHere(name string) {
	delete(e.store, name)
}

// Set multiple key/values at once.
func (e *Env[T]) SetMany(kvpairs map[string]T) {
	for k, v := range kvpairs {
		e.SetHere(k, v)
	}
}

// Push creates a child scope
func (e *Env[T]) Push() *Env[T] {
	return NewEnv(e)
}

// PushBlock creates a child block scope.
func (e *Env[T]) PushBlock() *Env[T] {
	out := NewEnv(e)
	out.block = true
	return out
}

// Extends our environment by creating a new environment and setting values in it
func (e *Env[T]) Extend(kvpairs map[string]T) *Env[T] {
	out := e.Push()
	out.SetMany(kvpairs)
	return out
}

// Depth is the number of scopes between this one and the root.
func (e *Env[T]) Depth() (depth int) {
	for curr := e.outer; curr != nil; curr = curr.outer {
		depth++
	}
	return
}

// String representation for debugging
func (e *Env[T]) String() string {
	return fmt.Sprintf("Env{store: %v, depth: %d, block: %t}", e.Keys(), e.Depth(), e.block)
}

// Keys returns all keys in this environment (not including outer
// environments) in sorted order.
func (e *Env[T]) Keys() []string {
	keys := make([]string, 0, len(e.store))
	for k := range e.store {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// All returns all key-value pairs in this environment (not including outer environments)
func (e *Env[T]) All() map[string]T {
	result := make(map[string]T)
	for k, ref := range e.store {
		if ref != nil {
			result[k] = ref.Value
		}
	}
	return result
}

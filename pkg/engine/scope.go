package engine

// Scope is one tier of named-value storage with parent lookup. The chain is
// instance → object-type locals → globals. Scopes are mutated without
// locking: every access happens on the engine's tick goroutine.
type Scope struct {
	vars   map[string]any
	parent *Scope
}

// NewScope creates a scope with an optional parent.
func NewScope(parent *Scope) *Scope {
	return &Scope{
		vars:   make(map[string]any),
		parent: parent,
	}
}

// Get retrieves a value by walking the chain from the most specific scope
// outward. The first scope defining the name wins.
func (s *Scope) Get(name string) (any, bool) {
	if value, ok := s.vars[name]; ok {
		return value, true
	}
	if s.parent != nil {
		return s.parent.Get(name)
	}
	return nil, false
}

// Set writes to the most specific scope that already defines the name.
// A name defined nowhere is created at the root, which is the global scope.
func (s *Scope) Set(name string, value any) {
	if _, ok := s.vars[name]; ok {
		s.vars[name] = value
		return
	}
	if s.parent != nil {
		s.parent.Set(name, value)
		return
	}
	s.vars[name] = value
}

// Define creates or overwrites the name in this scope only, shadowing any
// parent definition.
func (s *Scope) Define(name string, value any) {
	s.vars[name] = value
}

// Has reports whether the name is defined in this scope or any parent.
func (s *Scope) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Snapshot copies this scope's own bindings, excluding parents. Used to
// seed instance scopes from type defaults and clones from their origin.
func (s *Scope) Snapshot() map[string]any {
	out := make(map[string]any, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// Parent returns the parent scope, or nil at the root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Len returns the number of bindings in this scope alone.
func (s *Scope) Len() int {
	return len(s.vars)
}

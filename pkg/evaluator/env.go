package evaluator

// binding is a name-to-value association with a mutability flag.
type binding struct {
	val Value
	mut bool
}

// Env is a scoped environment frame for variable bindings.
// It supports parent-chained lookup for lexical scoping; a frame stays
// alive as long as a closure or a nested child frame references it.
type Env struct {
	bindings map[string]binding
	parent   *Env
}

// AssignStatus reports the outcome of an Assign.
type AssignStatus int

const (
	AssignOK AssignStatus = iota
	AssignUndefined
	AssignImmutable
)

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		bindings: make(map[string]binding),
		parent:   parent,
	}
}

// Child creates a new child frame whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Declare binds a name in the current frame, shadowing any same-named
// binding in an enclosing frame. Redeclaring in the same frame replaces
// the binding.
func (e *Env) Declare(name string, val Value, mutable bool) {
	e.bindings[name] = binding{val: val, mut: mutable}
}

// Lookup resolves a name by walking from the current frame outward.
func (e *Env) Lookup(name string) (Value, bool) {
	if b, ok := e.bindings[name]; ok {
		return b.val, true
	}
	if e.parent != nil {
		return e.parent.Lookup(name)
	}
	return nil, false
}

// Assign mutates the first binding found via the lookup chain.
func (e *Env) Assign(name string, val Value) AssignStatus {
	if b, ok := e.bindings[name]; ok {
		if !b.mut {
			return AssignImmutable
		}
		e.bindings[name] = binding{val: val, mut: true}
		return AssignOK
	}
	if e.parent != nil {
		return e.parent.Assign(name, val)
	}
	return AssignUndefined
}

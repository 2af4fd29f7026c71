// Package stdlib provides the Mica builtin function registry.
package stdlib

import (
	"github.com/micalang/mica/pkg/evaluator"
)

// Registry holds registered builtin functions.
type Registry struct {
	fns map[string]*evaluator.BuiltinDef
}

// NewRegistry creates a new empty builtin registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*evaluator.BuiltinDef),
	}
}

// Register adds a builtin to the registry.
func (r *Registry) Register(def evaluator.BuiltinDef) {
	r.fns[def.Name] = &def
}

// All returns all registered builtins.
func (r *Registry) All() map[string]*evaluator.BuiltinDef {
	return r.fns
}

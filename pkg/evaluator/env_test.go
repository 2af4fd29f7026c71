package evaluator_test

import (
	"testing"

	"github.com/micalang/mica/pkg/evaluator"
)

func TestEnvDeclareAndLookup(t *testing.T) {
	env := evaluator.NewEnv(nil)
	env.Declare("x", evaluator.NewInt(1), false)

	val, ok := env.Lookup("x")
	if !ok {
		t.Fatal("expected x to be defined")
	}
	expectInt(t, val, 1)

	if _, ok := env.Lookup("y"); ok {
		t.Error("expected y to be undefined")
	}
}

func TestEnvParentChainLookup(t *testing.T) {
	root := evaluator.NewEnv(nil)
	root.Declare("x", evaluator.NewInt(1), false)
	child := root.Child()

	val, ok := child.Lookup("x")
	if !ok {
		t.Fatal("expected x visible from child")
	}
	expectInt(t, val, 1)
}

func TestEnvShadowing(t *testing.T) {
	root := evaluator.NewEnv(nil)
	root.Declare("x", evaluator.NewInt(1), false)
	child := root.Child()
	child.Declare("x", evaluator.NewInt(2), false)

	val, _ := child.Lookup("x")
	expectInt(t, val, 2)

	// the outer binding is untouched
	val, _ = root.Lookup("x")
	expectInt(t, val, 1)
}

func TestEnvAssign(t *testing.T) {
	env := evaluator.NewEnv(nil)
	env.Declare("m", evaluator.NewInt(1), true)
	env.Declare("c", evaluator.NewInt(1), false)

	if status := env.Assign("m", evaluator.NewInt(2)); status != evaluator.AssignOK {
		t.Errorf("expected AssignOK, got %v", status)
	}
	val, _ := env.Lookup("m")
	expectInt(t, val, 2)

	if status := env.Assign("c", evaluator.NewInt(2)); status != evaluator.AssignImmutable {
		t.Errorf("expected AssignImmutable, got %v", status)
	}
	if status := env.Assign("nope", evaluator.NewInt(2)); status != evaluator.AssignUndefined {
		t.Errorf("expected AssignUndefined, got %v", status)
	}
}

func TestEnvAssignWalksChain(t *testing.T) {
	root := evaluator.NewEnv(nil)
	root.Declare("x", evaluator.NewInt(1), true)
	child := root.Child()

	if status := child.Assign("x", evaluator.NewInt(9)); status != evaluator.AssignOK {
		t.Fatalf("expected AssignOK, got %v", status)
	}
	val, _ := root.Lookup("x")
	expectInt(t, val, 9)
}

func TestEnvAssignStopsAtNearestBinding(t *testing.T) {
	// an immutable shadow blocks assignment even when an outer mutable
	// binding shares the name
	root := evaluator.NewEnv(nil)
	root.Declare("x", evaluator.NewInt(1), true)
	child := root.Child()
	child.Declare("x", evaluator.NewInt(2), false)

	if status := child.Assign("x", evaluator.NewInt(3)); status != evaluator.AssignImmutable {
		t.Errorf("expected AssignImmutable, got %v", status)
	}
	val, _ := root.Lookup("x")
	expectInt(t, val, 1)
}

package evaluator

import (
	"context"
	"fmt"

	"github.com/micalang/mica/pkg/ast"
	"github.com/micalang/mica/pkg/diagnostics"
)

// RuntimeError represents a runtime error during Mica execution.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// ExecOptions configures program execution.
type ExecOptions struct {
	// Builtins are pre-declared as immutable bindings in the root frame.
	Builtins map[string]*BuiltinDef
	// MaxSteps caps executed statements and loop iterations; 0 = unlimited.
	MaxSteps int64
	// MaxCallDepth caps call nesting; 0 = DefaultMaxCallDepth, < 0 = unlimited.
	MaxCallDepth int64
}

// ExecResult holds the result of a program execution.
type ExecResult struct {
	Value Value
}

// signal marks how statement execution left a block.
type signal int

const (
	sigNormal signal = iota
	sigReturn
)

// blockResult threads the control signal and value out of block execution.
// For sigReturn, value is the returned value; for sigNormal it is the
// value of the block's last expression statement (unit if none).
type blockResult struct {
	signal signal
	value  Value
}

type evaluator struct {
	ctx     context.Context
	opts    ExecOptions
	budget  Budget
	tracker BudgetTracker
}

// Execute runs a Mica program against a fresh root environment and
// returns the final value.
func Execute(ctx context.Context, program *ast.Program, opts ExecOptions) (*ExecResult, error) {
	if program == nil {
		return nil, &RuntimeError{Code: diagnostics.EAst, Message: "nil program"}
	}

	ev := &evaluator{
		ctx:  ctx,
		opts: opts,
		budget: Budget{
			MaxSteps:     opts.MaxSteps,
			MaxCallDepth: opts.MaxCallDepth,
		},
	}
	if ev.budget.MaxCallDepth == 0 {
		ev.budget.MaxCallDepth = DefaultMaxCallDepth
	}

	root := NewEnv(nil)
	for name, def := range opts.Builtins {
		root.Declare(name, &BuiltinValue{Def: def}, false)
	}

	res, err := ev.execBlock(program.Statements, root)
	if err != nil {
		return nil, err
	}
	return &ExecResult{Value: res.value}, nil
}

func (ev *evaluator) checkStep(span *ast.Span) error {
	ev.tracker.Steps++
	if ev.budget.MaxSteps > 0 && ev.tracker.Steps > ev.budget.MaxSteps {
		return &RuntimeError{
			Code:    diagnostics.EBudget,
			Message: fmt.Sprintf("step budget exceeded (max %d)", ev.budget.MaxSteps),
			Span:    span,
		}
	}
	if err := ev.ctx.Err(); err != nil {
		return &RuntimeError{
			Code:    diagnostics.EBudget,
			Message: "execution canceled",
			Span:    span,
		}
	}
	return nil
}

// execBlock runs statements in order, stopping early when a return
// signal is produced anywhere inside.
func (ev *evaluator) execBlock(stmts []ast.Stmt, env *Env) (blockResult, error) {
	last := blockResult{signal: sigNormal, value: NewUnit()}

	for _, stmt := range stmts {
		span := stmt.NodeSpan()
		if err := ev.checkStep(&span); err != nil {
			return blockResult{}, err
		}

		res, err := ev.execStmt(stmt, env)
		if err != nil {
			return blockResult{}, err
		}
		if res.signal == sigReturn {
			return res, nil
		}
		last = res
	}

	return last, nil
}

func (ev *evaluator) execStmt(stmt ast.Stmt, env *Env) (blockResult, error) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		val, err := ev.evalExpr(s.Value, env)
		if err != nil {
			return blockResult{}, err
		}
		env.Declare(s.Name, val, s.Mutable)
		return blockResult{signal: sigNormal, value: NewUnit()}, nil

	case *ast.AssignStmt:
		val, err := ev.evalExpr(s.Value, env)
		if err != nil {
			return blockResult{}, err
		}
		span := s.Span
		switch env.Assign(s.Name, val) {
		case AssignUndefined:
			return blockResult{}, &RuntimeError{
				Code:    diagnostics.EUnbound,
				Message: fmt.Sprintf("undefined variable '%s'", s.Name),
				Span:    &span,
			}
		case AssignImmutable:
			return blockResult{}, &RuntimeError{
				Code:    diagnostics.EImmutable,
				Message: fmt.Sprintf("cannot assign to immutable binding '%s'", s.Name),
				Span:    &span,
			}
		}
		return blockResult{signal: sigNormal, value: NewUnit()}, nil

	case *ast.ExprStmt:
		val, err := ev.evalExpr(s.Expr, env)
		if err != nil {
			return blockResult{}, err
		}
		return blockResult{signal: sigNormal, value: val}, nil

	case *ast.FunDecl:
		env.Declare(s.Name, &FnValue{Decl: s, Closure: env}, false)
		return blockResult{signal: sigNormal, value: NewUnit()}, nil

	case *ast.ReturnStmt:
		val := NewUnit()
		if s.Value != nil {
			var err error
			val, err = ev.evalExpr(s.Value, env)
			if err != nil {
				return blockResult{}, err
			}
		}
		return blockResult{signal: sigReturn, value: val}, nil

	case *ast.IfStmt:
		return ev.execIf(s, env)

	case *ast.WhileStmt:
		return ev.execWhile(s, env)

	case *ast.ForStmt:
		return ev.execFor(s, env)

	default:
		span := stmt.NodeSpan()
		return blockResult{}, &RuntimeError{
			Code:    diagnostics.EAst,
			Message: fmt.Sprintf("unsupported statement type: %T", stmt),
			Span:    &span,
		}
	}
}

// evalCond evaluates a condition expression and requires a Bool.
func (ev *evaluator) evalCond(expr ast.Expr, env *Env, what string) (bool, error) {
	val, err := ev.evalExpr(expr, env)
	if err != nil {
		return false, err
	}
	b, ok := val.(BoolValue)
	if !ok {
		span := expr.NodeSpan()
		return false, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("%s condition must be a bool, got %s", what, TypeName(val)),
			Span:    &span,
		}
	}
	return b.Value, nil
}

func (ev *evaluator) execIf(s *ast.IfStmt, env *Env) (blockResult, error) {
	cond, err := ev.evalCond(s.Cond, env, "if")
	if err != nil {
		return blockResult{}, err
	}

	var body []ast.Stmt
	if cond {
		body = s.ThenBody
	} else {
		body = s.ElseBody
	}
	if body == nil {
		return blockResult{signal: sigNormal, value: NewUnit()}, nil
	}

	res, err := ev.execBlock(body, env.Child())
	if err != nil {
		return blockResult{}, err
	}
	if res.signal == sigReturn {
		return res, nil
	}
	return blockResult{signal: sigNormal, value: NewUnit()}, nil
}

func (ev *evaluator) execWhile(s *ast.WhileStmt, env *Env) (blockResult, error) {
	for {
		// The condition is evaluated in the loop's enclosing frame.
		cond, err := ev.evalCond(s.Cond, env, "while")
		if err != nil {
			return blockResult{}, err
		}
		if !cond {
			return blockResult{signal: sigNormal, value: NewUnit()}, nil
		}

		span := s.Span
		if err := ev.checkStep(&span); err != nil {
			return blockResult{}, err
		}

		// A fresh child frame per iteration: let bindings do not leak
		// or persist across iterations.
		res, err := ev.execBlock(s.Body, env.Child())
		if err != nil {
			return blockResult{}, err
		}
		if res.signal == sigReturn {
			return res, nil
		}
	}
}

func (ev *evaluator) execFor(s *ast.ForStmt, env *Env) (blockResult, error) {
	collVal, err := ev.evalExpr(s.Collection, env)
	if err != nil {
		return blockResult{}, err
	}
	arr, ok := collVal.(*ArrayValue)
	if !ok {
		span := s.Collection.NodeSpan()
		return blockResult{}, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("for loop requires an array, got %s", TypeName(collVal)),
			Span:    &span,
		}
	}

	// Iterate the element slice as of loop entry; appends made by the
	// body are not visited.
	elems := arr.Elems
	for _, elem := range elems {
		span := s.Span
		if err := ev.checkStep(&span); err != nil {
			return blockResult{}, err
		}

		frame := env.Child()
		frame.Declare(s.Binding, elem, false)
		res, err := ev.execBlock(s.Body, frame)
		if err != nil {
			return blockResult{}, err
		}
		if res.signal == sigReturn {
			return res, nil
		}
	}

	return blockResult{signal: sigNormal, value: NewUnit()}, nil
}

// --- Expressions ---

func (ev *evaluator) evalExpr(expr ast.Expr, env *Env) (Value, error) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		return NewInt(e.Value), nil

	case *ast.FloatLiteral:
		return NewFloat(e.Value), nil

	case *ast.BoolLiteral:
		return NewBool(e.Value), nil

	case *ast.StrLiteral:
		return NewStr(e.Value), nil

	case *ast.Ident:
		val, ok := env.Lookup(e.Name)
		if !ok {
			span := e.Span
			return nil, &RuntimeError{
				Code:    diagnostics.EUnbound,
				Message: fmt.Sprintf("undefined variable '%s'", e.Name),
				Span:    &span,
			}
		}
		return val, nil

	case *ast.ArrayLiteral:
		elems := make([]Value, 0, len(e.Elements))
		for _, elemExpr := range e.Elements {
			val, err := ev.evalExpr(elemExpr, env)
			if err != nil {
				return nil, err
			}
			elems = append(elems, val)
		}
		return NewArray(elems), nil

	case *ast.IndexExpr:
		return ev.evalIndex(e, env)

	case *ast.UnaryExpr:
		return ev.evalUnary(e, env)

	case *ast.BinaryExpr:
		return ev.evalBinary(e, env)

	case *ast.CallExpr:
		return ev.evalCall(e, env)

	default:
		span := expr.NodeSpan()
		return nil, &RuntimeError{
			Code:    diagnostics.EAst,
			Message: fmt.Sprintf("unsupported expression type: %T", expr),
			Span:    &span,
		}
	}
}

func (ev *evaluator) evalIndex(e *ast.IndexExpr, env *Env) (Value, error) {
	target, err := ev.evalExpr(e.Target, env)
	if err != nil {
		return nil, err
	}
	arr, ok := target.(*ArrayValue)
	if !ok {
		span := e.Target.NodeSpan()
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("cannot index %s", TypeName(target)),
			Span:    &span,
		}
	}

	idxVal, err := ev.evalExpr(e.Index, env)
	if err != nil {
		return nil, err
	}
	idx, ok := idxVal.(IntValue)
	if !ok {
		span := e.Index.NodeSpan()
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("array index must be an int, got %s", TypeName(idxVal)),
			Span:    &span,
		}
	}

	if idx.Value < 0 || idx.Value >= int64(len(arr.Elems)) {
		span := e.Span
		return nil, &RuntimeError{
			Code:    diagnostics.EIndex,
			Message: fmt.Sprintf("index %d out of bounds for array of length %d", idx.Value, len(arr.Elems)),
			Span:    &span,
		}
	}
	return arr.Elems[idx.Value], nil
}

func (ev *evaluator) evalUnary(e *ast.UnaryExpr, env *Env) (Value, error) {
	operand, err := ev.evalExpr(e.Operand, env)
	if err != nil {
		return nil, err
	}
	span := e.Span

	switch e.Op {
	case ast.OpNeg:
		switch v := operand.(type) {
		case IntValue:
			return NewInt(-v.Value), nil
		case FloatValue:
			return NewFloat(-v.Value), nil
		}
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("unary '-' requires a number, got %s", TypeName(operand)),
			Span:    &span,
		}

	case ast.OpNot:
		if b, ok := operand.(BoolValue); ok {
			return NewBool(!b.Value), nil
		}
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("unary '!' requires a bool, got %s", TypeName(operand)),
			Span:    &span,
		}
	}

	return nil, &RuntimeError{
		Code:    diagnostics.EAst,
		Message: fmt.Sprintf("unknown unary operator '%s'", string(e.Op)),
		Span:    &span,
	}
}

func (ev *evaluator) evalBinary(e *ast.BinaryExpr, env *Env) (Value, error) {
	// Logical operators short-circuit: the right operand is not
	// evaluated when the left already determines the result.
	if e.Op == ast.OpAnd || e.Op == ast.OpOr {
		return ev.evalLogical(e, env)
	}

	left, err := ev.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := ev.evalExpr(e.Right, env)
	if err != nil {
		return nil, err
	}

	span := e.Span

	switch e.Op {
	case ast.OpEqEq:
		return NewBool(DeepEqual(left, right)), nil
	case ast.OpNeq:
		return NewBool(!DeepEqual(left, right)), nil
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return ev.evalArithmetic(e.Op, left, right, &span)
	case ast.OpGt, ast.OpLt, ast.OpGtEq, ast.OpLtEq:
		return ev.evalComparison(e.Op, left, right, &span)
	}

	return nil, &RuntimeError{
		Code:    diagnostics.EAst,
		Message: fmt.Sprintf("unknown binary operator '%s'", string(e.Op)),
		Span:    &span,
	}
}

func (ev *evaluator) evalLogical(e *ast.BinaryExpr, env *Env) (Value, error) {
	requireBool := func(val Value, side ast.Expr) (bool, error) {
		b, ok := val.(BoolValue)
		if !ok {
			span := side.NodeSpan()
			return false, &RuntimeError{
				Code:    diagnostics.EType,
				Message: fmt.Sprintf("'%s' requires bool operands, got %s", string(e.Op), TypeName(val)),
				Span:    &span,
			}
		}
		return b.Value, nil
	}

	leftVal, err := ev.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	left, err := requireBool(leftVal, e.Left)
	if err != nil {
		return nil, err
	}

	if e.Op == ast.OpAnd && !left {
		return NewBool(false), nil
	}
	if e.Op == ast.OpOr && left {
		return NewBool(true), nil
	}

	rightVal, err := ev.evalExpr(e.Right, env)
	if err != nil {
		return nil, err
	}
	right, err := requireBool(rightVal, e.Right)
	if err != nil {
		return nil, err
	}
	return NewBool(right), nil
}

// evalArithmetic applies + - * / % with Int/Float promotion.
// Int op Int stays Int (/ truncates toward zero); any Float operand
// promotes both to Float. + on two strings concatenates.
func (ev *evaluator) evalArithmetic(op ast.BinaryOp, left, right Value, span *ast.Span) (Value, error) {
	if op == ast.OpAdd {
		if ls, ok := left.(StrValue); ok {
			if rs, ok := right.(StrValue); ok {
				return NewStr(ls.Value + rs.Value), nil
			}
		}
	}

	li, lInt := left.(IntValue)
	ri, rInt := right.(IntValue)
	lf, lFloat := left.(FloatValue)
	rf, rFloat := right.(FloatValue)

	if !(lInt || lFloat) || !(rInt || rFloat) {
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("'%s' requires two numbers, got %s and %s", string(op), TypeName(left), TypeName(right)),
			Span:    span,
		}
	}

	if op == ast.OpMod {
		if !lInt || !rInt {
			return nil, &RuntimeError{
				Code:    diagnostics.EType,
				Message: "'%' requires two ints",
				Span:    span,
			}
		}
		if ri.Value == 0 {
			return nil, &RuntimeError{
				Code:    diagnostics.EDivZero,
				Message: "modulo by zero",
				Span:    span,
			}
		}
		return NewInt(li.Value % ri.Value), nil
	}

	if lInt && rInt {
		switch op {
		case ast.OpAdd:
			return NewInt(li.Value + ri.Value), nil
		case ast.OpSub:
			return NewInt(li.Value - ri.Value), nil
		case ast.OpMul:
			return NewInt(li.Value * ri.Value), nil
		case ast.OpDiv:
			if ri.Value == 0 {
				return nil, &RuntimeError{
					Code:    diagnostics.EDivZero,
					Message: "division by zero",
					Span:    span,
				}
			}
			return NewInt(li.Value / ri.Value), nil
		}
	}

	// Mixed Int/Float arithmetic promotes to Float.
	lv := lf.Value
	if lInt {
		lv = float64(li.Value)
	}
	rv := rf.Value
	if rInt {
		rv = float64(ri.Value)
	}

	switch op {
	case ast.OpAdd:
		return NewFloat(lv + rv), nil
	case ast.OpSub:
		return NewFloat(lv - rv), nil
	case ast.OpMul:
		return NewFloat(lv * rv), nil
	case ast.OpDiv:
		if rv == 0 {
			return nil, &RuntimeError{
				Code:    diagnostics.EDivZero,
				Message: "division by zero",
				Span:    span,
			}
		}
		return NewFloat(lv / rv), nil
	}

	return nil, &RuntimeError{
		Code:    diagnostics.EAst,
		Message: fmt.Sprintf("unknown arithmetic operator '%s'", string(op)),
		Span:    span,
	}
}

func (ev *evaluator) evalComparison(op ast.BinaryOp, left, right Value, span *ast.Span) (Value, error) {
	if ls, ok := left.(StrValue); ok {
		if rs, ok := right.(StrValue); ok {
			return NewBool(compareOrdered(op, ls.Value, rs.Value)), nil
		}
	}

	lv, lOk := numericValue(left)
	rv, rOk := numericValue(right)
	if !lOk || !rOk {
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("'%s' requires two numbers or two strings, got %s and %s", string(op), TypeName(left), TypeName(right)),
			Span:    span,
		}
	}
	return NewBool(compareOrdered(op, lv, rv)), nil
}

func numericValue(v Value) (float64, bool) {
	switch n := v.(type) {
	case IntValue:
		return float64(n.Value), true
	case FloatValue:
		return n.Value, true
	}
	return 0, false
}

func compareOrdered[T interface{ ~string | ~float64 }](op ast.BinaryOp, a, b T) bool {
	switch op {
	case ast.OpGt:
		return a > b
	case ast.OpLt:
		return a < b
	case ast.OpGtEq:
		return a >= b
	case ast.OpLtEq:
		return a <= b
	}
	return false
}

func (ev *evaluator) evalCall(e *ast.CallExpr, env *Env) (Value, error) {
	callee, err := ev.evalExpr(e.Callee, env)
	if err != nil {
		return nil, err
	}

	span := e.Span

	// Reject a non-callable callee before touching the arguments so that
	// neither their side effects nor their errors mask the real problem.
	fn, isFn := callee.(*FnValue)
	builtin, isBuiltin := callee.(*BuiltinValue)
	if !isFn && !isBuiltin {
		return nil, &RuntimeError{
			Code:    diagnostics.ENotCallable,
			Message: fmt.Sprintf("%s is not callable", TypeName(callee)),
			Span:    &span,
		}
	}

	args := make([]Value, 0, len(e.Args))
	for _, argExpr := range e.Args {
		val, err := ev.evalExpr(argExpr, env)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}

	if isFn {
		return ev.applyFn(fn, args, &span)
	}
	return ev.applyBuiltin(builtin.Def, args, &span)
}

func (ev *evaluator) applyFn(fn *FnValue, args []Value, span *ast.Span) (Value, error) {
	if len(args) != len(fn.Decl.Params) {
		return nil, &RuntimeError{
			Code:    diagnostics.EArity,
			Message: fmt.Sprintf("'%s' expects %d argument(s), got %d", fn.Decl.Name, len(fn.Decl.Params), len(args)),
			Span:    span,
		}
	}

	if ev.budget.MaxCallDepth > 0 && ev.tracker.CallDepth >= ev.budget.MaxCallDepth {
		return nil, &RuntimeError{
			Code:    diagnostics.EBudget,
			Message: fmt.Sprintf("call depth exceeded (max %d)", ev.budget.MaxCallDepth),
			Span:    span,
		}
	}
	ev.tracker.CallDepth++
	defer func() { ev.tracker.CallDepth-- }()

	// The call frame's parent is the function's captured environment,
	// not the call site's: scoping is lexical, not dynamic.
	frame := fn.Closure.Child()
	for i, param := range fn.Decl.Params {
		frame.Declare(param, args[i], true)
	}

	res, err := ev.execBlock(fn.Decl.Body, frame)
	if err != nil {
		return nil, err
	}
	if res.signal == sigReturn {
		return res.value, nil
	}
	return NewUnit(), nil
}

func (ev *evaluator) applyBuiltin(def *BuiltinDef, args []Value, span *ast.Span) (Value, error) {
	if !def.Variadic && len(args) != def.Arity {
		return nil, &RuntimeError{
			Code:    diagnostics.EArity,
			Message: fmt.Sprintf("'%s' expects %d argument(s), got %d", def.Name, def.Arity, len(args)),
			Span:    span,
		}
	}

	result, err := def.Execute(args)
	if err != nil {
		if rtErr, ok := err.(*RuntimeError); ok {
			if rtErr.Span == nil {
				rtErr.Span = span
			}
			return nil, rtErr
		}
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("builtin '%s': %s", def.Name, err.Error()),
			Span:    span,
		}
	}
	if result == nil {
		result = NewUnit()
	}
	return result, nil
}

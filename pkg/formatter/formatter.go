// Package formatter implements the Mica source code formatter.
package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/micalang/mica/pkg/ast"
)

const indent = "  "

// Precedence table for binary operators (higher = tighter binding)
var precedence = map[ast.BinaryOp]int{
	ast.OpOr:  1,
	ast.OpAnd: 2,
	ast.OpEqEq: 3, ast.OpNeq: 3,
	ast.OpGt: 4, ast.OpLt: 4, ast.OpGtEq: 4, ast.OpLtEq: 4,
	ast.OpAdd: 5, ast.OpSub: 5,
	ast.OpMul: 6, ast.OpDiv: 6, ast.OpMod: 6,
}

func needsParens(child ast.Expr, parentOp ast.BinaryOp, isRight bool) bool {
	bin, ok := child.(*ast.BinaryExpr)
	if !ok {
		return false
	}
	childPrec := precedence[bin.Op]
	parentPrec := precedence[parentOp]
	if childPrec < parentPrec {
		return true
	}
	// Left-associativity: same precedence on the right needs parens
	if childPrec == parentPrec && isRight {
		return true
	}
	return false
}

// Format pretty-prints a Mica AST back to source code.
func Format(program *ast.Program) string {
	var lines []string
	for _, s := range program.Statements {
		lines = append(lines, formatStmt(s, 0))
	}
	return strings.Join(lines, "\n") + "\n"
}

// HasComments checks if a source string contains // comments outside
// string literals. The formatter does not preserve them.
func HasComments(source string) bool {
	for _, line := range strings.Split(source, "\n") {
		inString := false
		for i := 0; i < len(line); i++ {
			switch {
			case line[i] == '\\' && inString:
				i++ // skip escaped character
			case line[i] == '"':
				inString = !inString
			case !inString && line[i] == '/' && i+1 < len(line) && line[i+1] == '/':
				return true
			}
		}
	}
	return false
}

func formatStmt(stmt ast.Stmt, depth int) string {
	pad := strings.Repeat(indent, depth)

	switch s := stmt.(type) {
	case *ast.LetStmt:
		if s.Mutable {
			return fmt.Sprintf("%slet @mut %s = %s", pad, s.Name, formatExpr(s.Value))
		}
		return fmt.Sprintf("%slet %s = %s", pad, s.Name, formatExpr(s.Value))

	case *ast.AssignStmt:
		return fmt.Sprintf("%s%s = %s", pad, s.Name, formatExpr(s.Value))

	case *ast.ExprStmt:
		return pad + formatExpr(s.Expr)

	case *ast.ReturnStmt:
		if s.Value == nil {
			return pad + "return"
		}
		return fmt.Sprintf("%sreturn %s", pad, formatExpr(s.Value))

	case *ast.FunDecl:
		header := fmt.Sprintf("%sfun %s(%s) {", pad, s.Name, strings.Join(s.Params, ", "))
		return header + formatBody(s.Body, depth) + pad + "}"

	case *ast.IfStmt:
		out := fmt.Sprintf("%sif %s {", pad, formatExpr(s.Cond))
		out += formatBody(s.ThenBody, depth) + pad + "}"
		if s.ElseBody != nil {
			// An else arm holding a single if is an else-if chain.
			if nested, ok := soleIf(s.ElseBody); ok {
				out += " else " + strings.TrimPrefix(formatStmt(nested, depth), pad)
			} else {
				out += " else {" + formatBody(s.ElseBody, depth) + pad + "}"
			}
		}
		return out

	case *ast.WhileStmt:
		out := fmt.Sprintf("%swhile %s {", pad, formatExpr(s.Cond))
		return out + formatBody(s.Body, depth) + pad + "}"

	case *ast.ForStmt:
		out := fmt.Sprintf("%sfor %s in %s {", pad, s.Binding, formatExpr(s.Collection))
		return out + formatBody(s.Body, depth) + pad + "}"
	}

	return pad + "// <unknown statement>"
}

func soleIf(stmts []ast.Stmt) (*ast.IfStmt, bool) {
	if len(stmts) != 1 {
		return nil, false
	}
	nested, ok := stmts[0].(*ast.IfStmt)
	return nested, ok
}

func formatBody(body []ast.Stmt, depth int) string {
	if len(body) == 0 {
		return "\n"
	}
	var b strings.Builder
	b.WriteByte('\n')
	for _, stmt := range body {
		b.WriteString(formatStmt(stmt, depth+1))
		b.WriteByte('\n')
	}
	return b.String()
}

func formatExpr(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		return strconv.FormatInt(e.Value, 10)

	case *ast.FloatLiteral:
		s := strconv.FormatFloat(e.Value, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s

	case *ast.BoolLiteral:
		return strconv.FormatBool(e.Value)

	case *ast.StrLiteral:
		return strconv.Quote(e.Value)

	case *ast.Ident:
		return e.Name

	case *ast.ArrayLiteral:
		parts := make([]string, len(e.Elements))
		for i, elem := range e.Elements {
			parts[i] = formatExpr(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"

	case *ast.IndexExpr:
		return fmt.Sprintf("%s[%s]", formatPostfixTarget(e.Target), formatExpr(e.Index))

	case *ast.CallExpr:
		parts := make([]string, len(e.Args))
		for i, arg := range e.Args {
			parts[i] = formatExpr(arg)
		}
		return fmt.Sprintf("%s(%s)", formatPostfixTarget(e.Callee), strings.Join(parts, ", "))

	case *ast.UnaryExpr:
		operand := formatExpr(e.Operand)
		if _, ok := e.Operand.(*ast.BinaryExpr); ok {
			operand = "(" + operand + ")"
		}
		return string(e.Op) + operand

	case *ast.BinaryExpr:
		left := formatExpr(e.Left)
		if needsParens(e.Left, e.Op, false) {
			left = "(" + left + ")"
		}
		right := formatExpr(e.Right)
		if needsParens(e.Right, e.Op, true) {
			right = "(" + right + ")"
		}
		return fmt.Sprintf("%s %s %s", left, string(e.Op), right)
	}

	return "<unknown>"
}

// formatPostfixTarget parenthesizes callee/index targets that bind
// looser than postfix application.
func formatPostfixTarget(expr ast.Expr) string {
	switch expr.(type) {
	case *ast.BinaryExpr, *ast.UnaryExpr:
		return "(" + formatExpr(expr) + ")"
	default:
		return formatExpr(expr)
	}
}

package evaluator

// DefaultMaxCallDepth bounds recursion so runaway programs fail with a
// budget error instead of overflowing the Go stack. Applied when
// ExecOptions.MaxCallDepth is zero; a negative value disables the guard.
const DefaultMaxCallDepth = 10000

// Budget holds the resource guards for a program execution.
// MaxSteps counts executed statements and loop iterations; zero means
// unlimited.
type Budget struct {
	MaxSteps     int64
	MaxCallDepth int64
}

// BudgetTracker tracks resource consumption during execution.
type BudgetTracker struct {
	Steps     int64
	CallDepth int64
}

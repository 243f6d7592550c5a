// Package script executes collaborator-generated code against the active
// table. The code runs in a Starlark scope whose only bindings are the table
// (df), the tabular helper namespace (pd), and the chart namespace (px);
// nothing else from the process is reachable. This mirrors the product's
// original behavior: generated code is executed as-is, with no sandboxing
// beyond the interpreter's own isolation — treat anything run here as
// untrusted.
package script

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/KaramelBytes/autoanalyst/internal/chart"
	"github.com/KaramelBytes/autoanalyst/internal/table"
)

// ChartVar is the designated chart variable: if the scope holds a chart under
// this name after execution, the query produced a visual answer.
const ChartVar = "fig"

// Result carries whatever the executed code produced.
type Result struct {
	// Output is everything printed during execution, including output
	// written before a failure.
	Output string
	// Chart is non-nil when the scope bound a chart to the designated
	// variable.
	Chart *chart.Chart
}

// ExecutionError reports generated code that failed at runtime. Output
// captured before the failure is preserved.
type ExecutionError struct {
	Output string
	Err    error
}

func (e *ExecutionError) Error() string { return fmt.Sprintf("code execution: %v", e.Err) }
func (e *ExecutionError) Unwrap() error { return e.Err }

// fileOpts keeps the dialect close to the Python the collaborator writes:
// top-level control flow, while loops, and reassignment are all allowed.
var fileOpts = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Run executes code in a fresh scope pre-populated with the table bound to
// df plus the pd and px namespaces. Print output is captured into the result.
// Any runtime failure returns an *ExecutionError that still carries the
// output captured before the failure.
func Run(code string, t *table.Table) (*Result, error) {
	var buf strings.Builder
	thread := &starlark.Thread{
		Name: "chat-query",
		Print: func(_ *starlark.Thread, msg string) {
			buf.WriteString(msg)
			buf.WriteByte('\n')
		},
	}
	predeclared := starlark.StringDict{
		"df": newFrame(t),
		"pd": pdModule(),
		"px": pxModule(),
	}
	globals, err := starlark.ExecFileOptions(fileOpts, thread, "query", code, predeclared)
	if err != nil {
		return nil, &ExecutionError{Output: buf.String(), Err: err}
	}
	res := &Result{Output: buf.String()}
	if v, ok := globals[ChartVar]; ok {
		if cv, ok := v.(*chartValue); ok {
			res.Chart = cv.c
		}
	}
	return res, nil
}

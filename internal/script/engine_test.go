package script

import (
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/autoanalyst/internal/chart"
	"github.com/KaramelBytes/autoanalyst/internal/table"
)

func salesTable(t *testing.T) *table.Table {
	t.Helper()
	return table.New("sales.csv",
		[]string{"region", "sales"},
		[][]string{
			{"East", "10"},
			{"West", "20"},
			{"East", "30"},
		})
}

func TestRunCapturesScalarOutput(t *testing.T) {
	res, err := Run("print(df['sales'].sum())", salesTable(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.TrimSpace(res.Output); got != "60" {
		t.Fatalf("output = %q, want 60", got)
	}
	if res.Chart != nil {
		t.Fatalf("unexpected chart: %+v", res.Chart)
	}
}

func TestRunSeriesAggregates(t *testing.T) {
	code := `
print(df['sales'].mean())
print(df['sales'].max())
print(df['sales'].min())
print(df['sales'].count())
print(df['region'].nunique())
`
	res, err := Run(code, salesTable(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "20\n30\n10\n3\n2\n"
	if res.Output != want {
		t.Fatalf("output = %q, want %q", res.Output, want)
	}
}

func TestRunGroupbyChain(t *testing.T) {
	code := `print(df.groupby('region')['sales'].sum()['East'])`
	res, err := Run(code, salesTable(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.TrimSpace(res.Output); got != "40" {
		t.Fatalf("output = %q, want 40", got)
	}
}

func TestRunChartVariableDetected(t *testing.T) {
	code := `fig = px.bar(df, x='region', y='sales')`
	res, err := Run(code, salesTable(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Chart == nil {
		t.Fatalf("expected a chart in the result")
	}
	if res.Chart.Kind != chart.Bar {
		t.Fatalf("chart kind = %q, want bar", res.Chart.Kind)
	}
	s := res.Chart.Series[0]
	if len(s.Labels) != 2 || s.Labels[0] != "East" || s.Y[0] != 40 {
		t.Fatalf("unexpected series: %+v", s)
	}
}

func TestRunChartFromGroupby(t *testing.T) {
	code := `fig = px.pie(df.groupby('region')['sales'].sum(), title='Split')`
	res, err := Run(code, salesTable(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Chart == nil || res.Chart.Kind != chart.Pie {
		t.Fatalf("expected pie chart, got %+v", res.Chart)
	}
	if res.Chart.Title != "Split" {
		t.Fatalf("title = %q", res.Chart.Title)
	}
}

func TestRunOtherVariableIsNotAChart(t *testing.T) {
	code := `answer = px.bar(df, x='region', y='sales')`
	res, err := Run(code, salesTable(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Chart != nil {
		t.Fatalf("chart detected under the wrong variable name")
	}
}

func TestRunPartialOutputThenError(t *testing.T) {
	// Indexing a missing column fails at runtime, after the first print.
	code := "print(\"partial\")\nprint(df['profit'].sum())"
	res, err := Run(code, salesTable(t))
	if err == nil {
		t.Fatalf("expected execution error, got result %+v", res)
	}
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected *ExecutionError, got %T: %v", err, err)
	}
	if got := strings.TrimSpace(execErr.Output); got != "partial" {
		t.Fatalf("partial output = %q, want partial", got)
	}
}

func TestRunRawReplyFailsAsExecutionError(t *testing.T) {
	// A prose reply with no fences reaches the engine verbatim and fails
	// at runtime rather than producing a distinct "no code" error.
	_, err := Run("The total sales are 60.", salesTable(t))
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected *ExecutionError, got %T: %v", err, err)
	}
}

func TestRunScopeIsolation(t *testing.T) {
	for _, code := range []string{"import os", "open('/etc/passwd')", "print(os.environ)"} {
		if _, err := Run(code, salesTable(t)); err == nil {
			t.Errorf("code %q should not be able to run", code)
		}
	}
}

func TestRunUpdateLayout(t *testing.T) {
	code := `
fig = px.line(df, x='region', y='sales')
fig.update_layout(title='Sales over regions', yaxis_title='USD')
`
	res, err := Run(code, salesTable(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Chart == nil || res.Chart.Title != "Sales over regions" || res.Chart.YLabel != "USD" {
		t.Fatalf("layout not applied: %+v", res.Chart)
	}
}

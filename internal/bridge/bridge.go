// Package bridge turns a natural-language question about the active table
// into executed analysis: it prompts the completion collaborator for code,
// extracts the code from the reply, runs it against the table, and records
// the exchange in the session's conversation log.
package bridge

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/autoanalyst/internal/ai"
	"github.com/KaramelBytes/autoanalyst/internal/chart"
	"github.com/KaramelBytes/autoanalyst/internal/script"
	"github.com/KaramelBytes/autoanalyst/internal/session"
	"github.com/KaramelBytes/autoanalyst/internal/table"
	"github.com/KaramelBytes/autoanalyst/internal/utils"
)

// ChartPlaceholder is what the conversation log records in place of a chart.
const ChartPlaceholder = "(Chart Generated)"

// sampleRows is how many rows of the table the prompt shows the collaborator.
const sampleRows = 3

// sampleTokenBudget caps the rendered sample so wide tables cannot blow up
// the prompt.
const sampleTokenBudget = 512

// AnswerResult is everything one answered question produced.
type AnswerResult struct {
	// Output is the captured print output, possibly empty.
	Output string `json:"output"`
	// Chart is set when the generated code bound a chart to the
	// designated variable.
	Chart *chart.Chart `json:"chart,omitempty"`
	// Code is the code that actually ran, for display alongside the
	// answer.
	Code string `json:"code"`
}

// Completer is the slice of the AI client the bridge needs.
type Completer interface {
	Generate(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error)
}

// BuildPrompt renders the system prompt for one table: its columns, a small
// sample of rows, and the rules the generated code must follow.
func BuildPrompt(t *table.Table) string {
	var b strings.Builder
	b.WriteString("You are a data analyst. You are working with a table that is already loaded as the variable df.\n\n")
	fmt.Fprintf(&b, "Columns: %s\n\n", strings.Join(t.Columns, ", "))
	b.WriteString("First rows:\n")
	b.WriteString(utils.TruncateToTokenLimit(t.HeadString(sampleRows), sampleTokenBudget))
	b.WriteString("\n\nRules:\n")
	b.WriteString("1. Answer with code only, in a single ```python fenced block.\n")
	b.WriteString("2. Use print() for scalar or tabular answers.\n")
	fmt.Fprintf(&b, "3. For visual answers build a chart with px and assign it to a variable named %s.\n", script.ChartVar)
	b.WriteString("4. df, pd and px are already available; do not import anything.\n")
	return b.String()
}

// ExtractCode pulls the code out of a collaborator reply: the body of a
// ```python fence, else the body of a bare ``` fence, else the whole reply.
// The scan is purely syntactic; whatever comes back is executed as-is.
func ExtractCode(reply string) string {
	if _, after, ok := strings.Cut(reply, "```python"); ok {
		if body, _, ok := strings.Cut(after, "```"); ok {
			return strings.TrimSpace(body)
		}
		return strings.TrimSpace(after)
	}
	if _, after, ok := strings.Cut(reply, "```"); ok {
		if body, _, ok := strings.Cut(after, "```"); ok {
			return strings.TrimSpace(body)
		}
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(reply)
}

// Answer runs one question end to end. The user's question is always
// appended to the conversation log; a successful answer appends the captured
// text and, when a chart was produced, the chart placeholder. Failures leave
// only the question behind.
//
// One collaborator call, one execution attempt. Errors are returned for the
// caller to display; nothing is retried here.
func Answer(ctx context.Context, client Completer, sess *session.Session, question string) (*AnswerResult, error) {
	t := sess.Active()

	sess.Append("user", question)

	// One exchange per query: the fixed system prompt plus the current
	// question. The conversation log is display history, not model context.
	messages := []ai.Message{
		{Role: "system", Content: BuildPrompt(t)},
		{Role: "user", Content: question},
	}

	resp, err := client.Generate(ctx, ai.GenerateRequest{Messages: messages})
	if err != nil {
		return nil, err
	}

	code := ExtractCode(resp.Choices[0].Message.Content)

	run, err := script.Run(code, t)
	if err != nil {
		return nil, err
	}

	res := &AnswerResult{Output: run.Output, Chart: run.Chart, Code: code}
	reply := strings.TrimRight(run.Output, "\n")
	if res.Chart != nil {
		if reply != "" {
			reply += "\n"
		}
		reply += ChartPlaceholder
	}
	if reply != "" {
		sess.Append("assistant", reply)
	}
	return res, nil
}

// Package solver answers numeric word problems by translating them into an
// arithmetic expression with a completion model and evaluating it exactly.
package solver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/viant/casebot/llm"
)

// ErrUnparsable is returned when the model reply holds no expression.
var ErrUnparsable = errors.New("solver: unknown format from completion model")

// Solver turns a problem statement into an answer string.
type Solver interface {
	Solve(ctx context.Context, problem string) (string, error)
}

const mathPrompt = `Translate a math problem into a single arithmetic expression that can be evaluated exactly.
Use only numbers, the operators + - * / and parentheses. Write percentages as a number followed by %.
Do not include units or variable names.

Question: ${Question of the problem}
` + "```text" + `
${single line arithmetic expression}
` + "```" + `
...evaluate the expression...
Answer: ${Answer}

Begin.

Question: 37593 * 67
` + "```text" + `
37593 * 67
` + "```" + `
...evaluate the expression...
Answer: 2518731

Question: What is 15% of 200?
` + "```text" + `
15% * 200
` + "```" + `
...evaluate the expression...
Answer: 30

Question: %s
`

var textBlock = regexp.MustCompile("(?s)^```text(.*?)```")

// LLMMath asks a completion model for an expression and evaluates it.
type LLMMath struct {
	completer llm.Completer
}

// NewLLMMath creates a solver over completer; use a zero temperature client.
func NewLLMMath(completer llm.Completer) *LLMMath {
	return &LLMMath{completer: completer}
}

// Solve returns "Answer: <value>".
func (m *LLMMath) Solve(ctx context.Context, problem string) (string, error) {
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return "", fmt.Errorf("solver: empty problem")
	}
	prompt := strings.Replace(mathPrompt, "Question: %s", "Question: "+problem, 1)
	reply, err := m.completer.Complete(ctx, []llm.Message{llm.User(prompt)}, nil)
	if err != nil {
		return "", err
	}
	return answer(reply.Text)
}

func answer(text string) (string, error) {
	text = strings.TrimSpace(text)
	if match := textBlock.FindStringSubmatch(text); match != nil {
		value, err := Evaluate(match[1])
		if err != nil {
			return "", err
		}
		return "Answer: " + value, nil
	}
	if strings.HasPrefix(text, "Answer:") {
		return text, nil
	}
	if idx := strings.Index(text, "Answer:"); idx >= 0 {
		return "Answer: " + strings.TrimSpace(text[idx+len("Answer:"):]), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnparsable, text)
}

package tool

import (
	"context"

	"github.com/viant/casebot/solver"
)

// Compute answers numeric questions through a solver.
type Compute struct {
	solver solver.Solver
}

// NewCompute creates a compute tool.
func NewCompute(s solver.Solver) *Compute {
	return &Compute{solver: s}
}

// Call returns the solver answer. A solver failure is returned as the
// output text so the model can read and react to it.
func (c *Compute) Call(ctx context.Context, problem string) (string, error) {
	answer, err := c.solver.Solve(ctx, problem)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return err.Error(), nil
	}
	return answer, nil
}

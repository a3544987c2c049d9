package localtools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/usherbot/usher/pkg/agentic/tool"
)

// calculatorBudget bounds a single expression evaluation. The interpreter
// is interrupted once the budget elapses so a runaway expression cannot
// stall the invoker goroutine.
const calculatorBudget = 2 * time.Second

// Calculator evaluates arithmetic expressions in a fresh JavaScript VM per
// call. No host functions are exposed to the VM.
func Calculator() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"description": "Arithmetic expression to evaluate, e.g. \"(3 + 4) * 12\"",
			},
		},
		"required": []any{"expression"},
	}

	return tool.Define("calculator",
		"Evaluate an arithmetic expression and return the numeric result.",
		params,
		func(ctx context.Context, args string) (string, error) {
			var input struct {
				Expression string `json:"expression"`
			}
			if err := json.Unmarshal([]byte(args), &input); err != nil {
				return "", fmt.Errorf("decode arguments: %w", err)
			}
			if input.Expression == "" {
				return "", fmt.Errorf("expression is empty")
			}

			vm := goja.New()
			timer := time.AfterFunc(calculatorBudget, func() {
				vm.Interrupt("evaluation budget exceeded")
			})
			defer timer.Stop()

			value, err := vm.RunString(input.Expression)
			if err != nil {
				return "", fmt.Errorf("evaluate expression: %w", err)
			}

			return fmt.Sprintf("%v", value.Export()), nil
		})
}

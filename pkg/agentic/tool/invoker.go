package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/usherbot/usher/pkg/agentic/types"
)

// Invoker dispatches one tool call against the registry. It enforces the
// deadline carried by ctx, validates arguments against the tool's input
// schema and translates any failure into a failed ToolCallRecord. It never
// retries; replanning on failure is the backend's decision.
type Invoker struct {
	registry *Registry
	schemas  map[string]*jsonschema.Schema
	now      func() time.Time
}

// NewInvoker compiles the input schema of every registered tool. Tools that
// declare no parameters skip argument validation.
func NewInvoker(registry *Registry) (*Invoker, error) {
	schemas := make(map[string]*jsonschema.Schema)

	for _, name := range registry.Names() {
		t, _ := registry.Get(name)
		params := t.Parameters()
		if len(params) == 0 {
			continue
		}

		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal schema for tool %s: %w", name, err)
		}

		compiler := jsonschema.NewCompiler()
		url := fmt.Sprintf("tool://%s/schema.json", name)
		if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("add schema for tool %s: %w", name, err)
		}

		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile schema for tool %s: %w", name, err)
		}

		schemas[name] = schema
	}

	return &Invoker{
		registry: registry,
		schemas:  schemas,
		now:      time.Now,
	}, nil
}

// Invoke executes one tool call and returns its record. The returned error
// is non-nil only for unrecoverable requests (unknown tool, schema
// violation); execution failures and timeouts are captured in the record
// and left for the next planning round to observe.
func (inv *Invoker) Invoke(ctx context.Context, call types.ToolCall) (types.ToolCallRecord, error) {
	argsJSON, err := json.Marshal(call.Arguments)
	if err != nil {
		argsJSON = []byte("{}")
	}

	record := types.ToolCallRecord{
		ID:       xid.New().String(),
		Name:     call.Name,
		Input:    string(argsJSON),
		Status:   types.CallPending,
		IssuedAt: inv.now(),
	}

	t, ok := inv.registry.Get(call.Name)
	if !ok {
		err := fmt.Errorf("%w: %s", types.ErrUnknownTool, call.Name)
		record.Fail(err.Error(), inv.now())
		return record, err
	}

	if schema, ok := inv.schemas[call.Name]; ok {
		if err := validateArgs(schema, argsJSON); err != nil {
			err = fmt.Errorf("%w: tool %s: %v", types.ErrSchemaViolation, call.Name, err)
			record.Fail(err.Error(), inv.now())
			return record, err
		}
	}

	output, execErr := inv.execute(ctx, t, string(argsJSON))

	switch {
	case execErr == nil:
		record.Complete(output, inv.now())
	case errors.Is(execErr, context.DeadlineExceeded) || errors.Is(execErr, context.Canceled):
		record.Fail(fmt.Sprintf("%v: %s", types.ErrToolTimeout, call.Name), inv.now())
	default:
		record.Fail(fmt.Sprintf("%v: %v", types.ErrToolExecution, execErr), inv.now())
	}

	return record, nil
}

// execute runs the tool on its own goroutine so a stuck implementation
// cannot outlive the run's deadline. A panicking tool is captured as an
// execution failure.
func (inv *Invoker) execute(ctx context.Context, t Tool, args string) (string, error) {
	type result struct {
		output string
		err    error
	}

	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("tool", t.Name()).Interface("panic", r).Msg("Tool panicked")
				done <- result{err: fmt.Errorf("tool panic: %v", r)}
			}
		}()

		output, err := t.Execute(ctx, args)
		done <- result{output: output, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.output, res.err
	}
}

// validateArgs checks the serialized arguments against the compiled schema.
// The arguments are round-tripped through encoding/json so validation sees
// the same value shapes the schema library expects.
func validateArgs(schema *jsonschema.Schema, argsJSON []byte) error {
	var value any
	if err := json.Unmarshal(argsJSON, &value); err != nil {
		return err
	}
	return schema.Validate(value)
}

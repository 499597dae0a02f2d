// Package executor walks a workflow chain from the trigger's child to the
// terminal node, feeding each node's output into the next node as input.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/routinehq/routine/engine/core"
	"github.com/routinehq/routine/engine/ref"
	"github.com/routinehq/routine/engine/runtime"
	"github.com/routinehq/routine/engine/tool"
	"github.com/routinehq/routine/engine/workflow"
	"github.com/routinehq/routine/pkg/logger"
)

// Executor interprets workflows. One Executor serves concurrent Execute calls;
// each call owns its own working value, so no coordination is needed beyond
// the registry's read lock and the runtime's per-call processes.
type Executor struct {
	tools     *tool.Engine
	runtime   runtime.Runtime
	ctxSchema core.ContextSchema
}

func New(tools *tool.Engine, rt runtime.Runtime, ctxSchema core.ContextSchema) *Executor {
	return &Executor{tools: tools, runtime: rt, ctxSchema: ctxSchema}
}

// Execute validates the workflow defensively and then runs the chain in
// strict sequence. The first error aborts the walk and propagates unchanged;
// retries are the caller's concern. Cancellation of ctx aborts the in-flight
// node and surfaces a *core.CanceledError instead of a partial result.
func (e *Executor) Execute(
	ctx context.Context,
	wf *workflow.Workflow,
	userCtx core.Context,
) (*core.ExecutionResult, error) {
	if err := wf.Validate(e.tools.Catalog(), e.ctxSchema); err != nil {
		return nil, err
	}
	execID := uuid.NewString()
	log := logger.FromContext(ctx).With("workflow", wf.Title, "exec_id", execID)
	log.Info("executing workflow")
	var current any
	for node := wf.Trigger.Child; node != nil; node = node.Child {
		if ctx.Err() != nil {
			return nil, core.NewCanceledError(node.ID, ctx.Err())
		}
		output, err := e.executeNode(ctx, node, current, userCtx)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				err = core.NewCanceledError(node.ID, ctx.Err())
			}
			log.Error("node failed", "node", node.ID, "type", node.Type, "error", err)
			return nil, err
		}
		log.Debug("node completed", "node", node.ID, "type", node.Type)
		current = output
	}
	log.Info("workflow completed")
	return core.NewExecutionResult(current), nil
}

func (e *Executor) executeNode(
	ctx context.Context,
	node *workflow.Node,
	current any,
	userCtx core.Context,
) (any, error) {
	switch node.Type {
	case workflow.NodeTypeFixedInput:
		return core.DeepCopyValue(node.Output), nil
	case workflow.NodeTypeTool:
		return e.executeTool(ctx, node, current, userCtx)
	case workflow.NodeTypeConverter:
		return e.runtime.Execute(ctx, node.Code, current)
	case workflow.NodeTypeCronTrigger:
		return nil, fmt.Errorf("internal engine error: trigger node %q in mid-chain", node.ID)
	default:
		// Defensive: validation rejects unknown variants before the walk.
		return nil, fmt.Errorf("internal engine error: unknown node type %q at node %q", node.Type, node.ID)
	}
}

// executeTool builds the call payload, re-checks it against the tool's
// declared input schema, and dispatches. Reference resolution applies to the
// With configuration only, never to flowing data: a tool without With receives
// the upstream value untouched, even when it contains strings that look like
// references. Resolved With fields are overlaid on the upstream object payload.
func (e *Executor) executeTool(
	ctx context.Context,
	node *workflow.Node,
	current any,
	userCtx core.Context,
) (any, error) {
	payload := current
	if node.With != nil {
		scope := ref.NewScope(current, userCtx, e.ctxSchema)
		resolved, err := scope.ResolveValue(node.With)
		if err != nil {
			return nil, err
		}
		payload, err = core.OverlayPayload(current, resolved)
		if err != nil {
			return nil, err
		}
	}
	if err := e.checkToolInput(node, payload); err != nil {
		return nil, err
	}
	output, err := e.tools.Call(ctx, node.Tool, asInput(payload))
	if err != nil {
		return nil, err
	}
	return map[string]any(output), nil
}

func (e *Executor) checkToolInput(node *workflow.Node, payload any) error {
	t, ok := e.tools.Catalog().Get(node.Tool)
	if !ok {
		return core.NewToolMissingError([]string{node.Tool})
	}
	def := t.Definition()
	if def.InputSchema == nil {
		return nil
	}
	violations, err := def.InputSchema.Validate(payload)
	if err != nil {
		return fmt.Errorf("tool %q declares an invalid input schema: %w", node.Tool, err)
	}
	if len(violations) > 0 {
		suggestion := fmt.Sprintf(
			"shape the input of node %q to match tool %q input schema %s",
			node.ID, node.Tool, def.InputSchema.String(),
		)
		return core.NewInputOutputMismatchError(violations, []string{suggestion})
	}
	return nil
}

// asInput coerces the resolved payload into the map form tools accept.
// Non-object payloads are wrapped under "value" so a tool always receives an
// object.
func asInput(payload any) core.Input {
	switch v := payload.(type) {
	case nil:
		return core.Input{}
	case core.Input:
		return v
	case map[string]any:
		return core.Input(v)
	default:
		return core.Input{"value": v}
	}
}

package workflow

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/routinehq/routine/engine/core"
	"github.com/routinehq/routine/engine/ref"
	"github.com/routinehq/routine/engine/tool"
)

// Validate proves the workflow is executable against the given tool catalog
// and context schema without running any side effects. It is the same check
// the interpreter applies defensively at execution time, which is what lets
// the agent repair candidates against the errors a real run would raise.
//
// Checks run in order of severity: structure first, then tool availability,
// then references, then input/output shape compatibility. The first failing
// group is returned as its engine error kind.
func (w *Workflow) Validate(catalog tool.Catalog, ctxSchema core.ContextSchema) error {
	nodes, err := w.structure()
	if err != nil {
		return err
	}
	if err := w.checkTools(nodes, catalog); err != nil {
		return err
	}
	if err := w.checkContextReferences(nodes, ctxSchema); err != nil {
		return err
	}
	return w.checkShapes(nodes, catalog, ctxSchema)
}

// structure verifies the chain itself: a single cron trigger with a valid
// expression, unique non-empty identifiers, known node variants, and the
// per-variant required fields. Structural problems batch into one
// InputOutputMismatchError so the agent sees every defect at once.
func (w *Workflow) structure() ([]*Node, error) {
	nodes, err := w.Nodes()
	if err != nil {
		suggestion := "start the chain with a cron_trigger node"
		if strings.Contains(err.Error(), "cycle") {
			suggestion = "remove the child pointer that loops back into the chain"
		}
		return nil, core.NewInputOutputMismatchError([]string{err.Error()}, []string{suggestion})
	}
	var errs []string
	var suggestions []string
	trigger := nodes[0]
	if !trigger.IsTrigger() {
		errs = append(errs, fmt.Sprintf("workflow entry node %q is %q, not a trigger", trigger.ID, trigger.Type))
		suggestions = append(suggestions, "start the chain with a cron_trigger node")
	} else if _, err := cron.ParseStandard(trigger.Cron); err != nil {
		errs = append(errs, fmt.Sprintf("invalid cron expression %q: %v", trigger.Cron, err))
		suggestions = append(suggestions, "use a 5-field cron expression, e.g. \"*/10 * * * *\"")
	}
	seen := make(map[string]bool, len(nodes))
	for i, node := range nodes {
		if node.ID == "" {
			errs = append(errs, fmt.Sprintf("node at position %d has no identifier", i))
			suggestions = append(suggestions, "give every node a unique identifier")
		} else if seen[node.ID] {
			errs = append(errs, fmt.Sprintf("duplicate node identifier %q", node.ID))
			suggestions = append(suggestions, fmt.Sprintf("rename one of the nodes with identifier %q", node.ID))
		}
		seen[node.ID] = true
		if i > 0 && node.IsTrigger() {
			errs = append(errs, fmt.Sprintf("node %q is a trigger but not the entry point", node.ID))
			suggestions = append(suggestions, "a workflow has exactly one trigger, at the start of the chain")
		}
		errs, suggestions = checkVariant(node, errs, suggestions)
	}
	if len(errs) > 0 {
		return nil, core.NewInputOutputMismatchError(errs, suggestions)
	}
	return nodes, nil
}

func checkVariant(node *Node, errs []string, suggestions []string) ([]string, []string) {
	switch node.Type {
	case NodeTypeCronTrigger, NodeTypeFixedInput:
	case NodeTypeTool:
		if node.Tool == "" {
			errs = append(errs, fmt.Sprintf("tool node %q does not name a tool", node.ID))
			suggestions = append(suggestions, fmt.Sprintf("set the tool identifier on node %q", node.ID))
		}
	case NodeTypeConverter:
		if !HasHandleFunc(node.Code) {
			errs = append(errs, fmt.Sprintf("converter node %q does not declare \"async function handle(input)\"", node.ID))
			suggestions = append(suggestions, fmt.Sprintf("define a single top-level async function named handle in node %q", node.ID))
		}
	default:
		errs = append(errs, fmt.Sprintf("node %q has unknown type %q", node.ID, node.Type))
		suggestions = append(suggestions, "use one of: cron_trigger, fixed_input, tool, converter")
	}
	return errs, suggestions
}

// checkTools reports every tool identifier absent from the catalog.
func (w *Workflow) checkTools(nodes []*Node, catalog tool.Catalog) error {
	var missing []string
	seen := make(map[string]bool)
	for _, node := range nodes {
		if node.Type != NodeTypeTool || seen[node.Tool] {
			continue
		}
		seen[node.Tool] = true
		if _, ok := catalog.Get(node.Tool); !ok {
			missing = append(missing, node.Tool)
		}
	}
	if len(missing) > 0 {
		return core.NewToolMissingError(missing)
	}
	return nil
}

// checkContextReferences verifies that every context.* reference embedded in
// node configuration points at a declared top-level context key. The concrete
// context value only exists at execution time; the schema is what synthesis
// can check against.
func (w *Workflow) checkContextReferences(nodes []*Node, ctxSchema core.ContextSchema) error {
	for _, node := range nodes {
		for _, reference := range ref.CollectReferences(node.With) {
			path, ok := strings.CutPrefix(reference, "context.")
			if !ok {
				continue
			}
			key := path
			if idx := strings.IndexByte(key, '.'); idx >= 0 {
				key = key[:idx]
			}
			if _, declared := ctxSchema[key]; !declared {
				return core.NewReferenceError(core.FieldContext, path, ctxSchema)
			}
		}
	}
	return nil
}

// checkShapes walks adjacent node pairs, tracking the statically known value
// flowing down the chain, and validates each tool node's effective payload
// against the tool's declared input schema. Outputs of tools and converters
// are only known at run time, so validation past them degrades to reference
// checks only.
func (w *Workflow) checkShapes(nodes []*Node, catalog tool.Catalog, ctxSchema core.ContextSchema) error {
	var errs []string
	var suggestions []string
	var sample any
	sampleKnown := false
	for _, node := range nodes {
		switch node.Type {
		case NodeTypeCronTrigger:
			sample, sampleKnown = nil, false
		case NodeTypeFixedInput:
			sample, sampleKnown = node.Output, true
		case NodeTypeTool:
			payload, known, err := staticPayload(node, sample, sampleKnown, ctxSchema)
			if err != nil {
				return err
			}
			if known {
				errs, suggestions = validateToolPayload(node, payload, catalog, errs, suggestions)
			}
			sample, sampleKnown = nil, false
		case NodeTypeConverter:
			sample, sampleKnown = nil, false
		}
	}
	if len(errs) > 0 {
		return core.NewInputOutputMismatchError(errs, suggestions)
	}
	return nil
}

// staticPayload computes the value a tool node would receive, as far as it is
// known before execution: the upstream sample with the resolved With overlaid,
// mirroring what the interpreter dispatches. Context references make the
// payload dynamic, since the live context is supplied by the caller at execute
// time; an unknown upstream value makes it dynamic too, because the overlay
// cannot be computed from With alone.
func staticPayload(node *Node, sample any, sampleKnown bool, ctxSchema core.ContextSchema) (any, bool, error) {
	if node.With == nil {
		return sample, sampleKnown, nil
	}
	for _, reference := range ref.CollectReferences(node.With) {
		if strings.HasPrefix(reference, "context.") {
			return nil, false, nil
		}
	}
	if !sampleKnown {
		return nil, false, nil
	}
	scope := ref.NewScope(sample, nil, ctxSchema)
	resolved, err := scope.ResolveValue(node.With)
	if err != nil {
		return nil, false, err
	}
	payload, err := core.OverlayPayload(sample, resolved)
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func validateToolPayload(
	node *Node,
	payload any,
	catalog tool.Catalog,
	errs []string,
	suggestions []string,
) ([]string, []string) {
	t, ok := catalog.Get(node.Tool)
	if !ok {
		return errs, suggestions
	}
	def := t.Definition()
	if def.InputSchema == nil {
		return errs, suggestions
	}
	violations, err := def.InputSchema.Validate(payload)
	if err != nil {
		errs = append(errs, fmt.Sprintf("tool %q declares an invalid input schema: %v", node.Tool, err))
		return errs, suggestions
	}
	for _, violation := range violations {
		errs = append(errs, fmt.Sprintf("node %q input does not match tool %q: %s", node.ID, node.Tool, violation))
	}
	if len(violations) > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"shape the input of node %q to match tool %q input schema %s",
			node.ID, node.Tool, def.InputSchema.String(),
		))
	}
	return errs, suggestions
}

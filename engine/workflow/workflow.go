package workflow

import (
	"fmt"
)

// Workflow is the root of an executable chain: exactly one trigger whose Child
// pointer starts the sequence of data-carrying nodes. The engine never mutates
// a workflow in place.
type Workflow struct {
	Title   string `json:"title"   yaml:"title"`
	Trigger *Node  `json:"trigger" yaml:"trigger"`
}

func New(title string, trigger *Node) *Workflow {
	return &Workflow{Title: title, Trigger: trigger}
}

// Nodes returns the chain in execution order, trigger first. It fails when a
// Child pointer loops back into the chain, since execution over a cycle would
// never terminate.
func (w *Workflow) Nodes() ([]*Node, error) {
	if w.Trigger == nil {
		return nil, fmt.Errorf("workflow %q has no trigger", w.Title)
	}
	seen := make(map[*Node]bool)
	var nodes []*Node
	for node := w.Trigger; node != nil; node = node.Child {
		if seen[node] {
			return nil, fmt.Errorf("workflow %q contains a cycle at node %q", w.Title, node.ID)
		}
		seen[node] = true
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// ToolIDs returns the tool identifiers the chain dispatches to, deduplicated
// in chain order.
func (w *Workflow) ToolIDs() ([]string, error) {
	nodes, err := w.Nodes()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var ids []string
	for _, node := range nodes {
		if node.Type != NodeTypeTool || node.Tool == "" || seen[node.Tool] {
			continue
		}
		seen[node.Tool] = true
		ids = append(ids, node.Tool)
	}
	return ids, nil
}

package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/routinehq/routine/engine/core"
	"github.com/routinehq/routine/engine/tool"
)

const systemPromptTemplate = `You design automation workflows as JSON. A workflow is a linear chain of nodes:
the trigger's "child" points at the first step, each step's "child" at the next,
and the terminal node has no "child".

Node variants:
- {"type":"cron_trigger","id":...,"cron":"<5-field cron>","child":...} - entry point, decides WHEN the chain runs.
- {"type":"fixed_input","id":...,"output":<any JSON>,"child":...} - ignores upstream data and emits "output".
- {"type":"tool","id":...,"tool":"<tool id>","with":<optional object>,"child":...} - calls a tool. Without "with",
  the upstream value is passed through unchanged as the call payload. Fields in "with" are overlaid on the upstream
  object payload; their values may reference upstream data as "input.<dotted.path>" and user context as
  "context.<dotted.path>".
- {"type":"converter","id":...,"code":"async function handle(input) { ... }","child":...} - transforms the upstream
  value with JavaScript. The code must declare exactly one top-level async function named handle.

Rules:
- Respond with a single JSON object: {"title": string, "trigger": <cron_trigger node>}. No prose, no code fences.
- Every node identifier must be unique within the workflow.
- Only use tools from the catalog below, and shape their payloads to the declared input schemas.
- Context references may only use these declared keys: %s

Available tools:
%s`

// buildSystemPrompt renders the synthesis instructions with the live tool
// catalog and declared context keys.
func buildSystemPrompt(catalog tool.Catalog, ctxSchema core.ContextSchema) string {
	defs := catalog.Definitions()
	rendered, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		rendered = []byte("[]")
	}
	keys := make([]string, 0, len(ctxSchema))
	for key, field := range ctxSchema {
		keys = append(keys, fmt.Sprintf("%s (%s)", key, field.Description))
	}
	declared := "none"
	if len(keys) > 0 {
		declared = strings.Join(keys, ", ")
	}
	return fmt.Sprintf(systemPromptTemplate, declared, rendered)
}

// buildRepairPrompt feeds a rejected response and the reason back for another
// attempt. Rejections cover both validation failures and output that did not
// decode as a workflow document.
func buildRepairPrompt(candidate string, rejection error) string {
	feedback := rejection.Error()
	if refErr, ok := rejection.(*core.ReferenceError); ok {
		feedback = fmt.Sprintf("%s. %s", feedback, refErr.HumanReadableMessage())
	}
	return fmt.Sprintf(
		"The previous response was rejected.\n\nResponse:\n%s\n\nError: %s\n\nFix the workflow and respond with the corrected JSON object only.",
		candidate, feedback,
	)
}

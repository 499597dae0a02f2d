// Package agent synthesizes workflows from natural-language goals and repairs
// them against the same validation errors the interpreter raises at run time.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/routinehq/routine/engine/core"
	"github.com/routinehq/routine/engine/tool"
	"github.com/routinehq/routine/engine/workflow"
	"github.com/routinehq/routine/pkg/logger"
)

const defaultMaxAttempts = 3

// Agent turns a free-text goal into a validated workflow. It never executes
// tools or converter code during synthesis; validation is the only check a
// candidate passes through, and a returned workflow is guaranteed to satisfy
// reference and input/output compatibility at synthesis time.
type Agent struct {
	model       llms.Model
	catalog     tool.Catalog
	ctxSchema   core.ContextSchema
	maxAttempts int
}

// AgentOption configures the Agent.
type AgentOption func(*Agent)

// WithMaxAttempts bounds the generate-validate-repair loop.
func WithMaxAttempts(attempts int) AgentOption {
	return func(a *Agent) {
		if attempts > 0 {
			a.maxAttempts = attempts
		}
	}
}

func New(model llms.Model, catalog tool.Catalog, ctxSchema core.ContextSchema, opts ...AgentOption) *Agent {
	agent := &Agent{
		model:       model,
		catalog:     catalog,
		ctxSchema:   ctxSchema,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(agent)
	}
	return agent
}

// Synthesize generates a candidate workflow for the goal, validates it, and
// feeds any rejection back into another attempt. Undecodable output (prose,
// malformed JSON) consumes an attempt the same way a validation failure does;
// only model-call failures abort the loop. When the attempt budget is
// exhausted the last rejection is surfaced to the caller.
func (a *Agent) Synthesize(ctx context.Context, goal string) (*workflow.Workflow, error) {
	log := logger.FromContext(ctx).With("goal", goal)
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, buildSystemPrompt(a.catalog, a.ctxSchema)),
		llms.TextParts(llms.ChatMessageTypeHuman, goal),
	}
	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		raw, err := a.complete(ctx, messages)
		if err != nil {
			return nil, err
		}
		candidate, rejection := decodeWorkflow(raw)
		if rejection == nil {
			rejection = candidate.Validate(a.catalog, a.ctxSchema)
			if rejection == nil {
				log.Info("workflow synthesized", "attempt", attempt, "title", candidate.Title)
				return candidate, nil
			}
		}
		log.Warn("candidate rejected", "attempt", attempt, "error", rejection)
		lastErr = rejection
		messages = append(messages,
			llms.TextParts(llms.ChatMessageTypeAI, raw),
			llms.TextParts(llms.ChatMessageTypeHuman, buildRepairPrompt(raw, rejection)),
		)
	}
	return nil, fmt.Errorf("workflow synthesis failed after %d attempts: %w", a.maxAttempts, lastErr)
}

// complete performs one model call and returns the raw completion.
func (a *Agent) complete(ctx context.Context, messages []llms.MessageContent) (string, error) {
	response, err := a.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return response.Choices[0].Content, nil
}

// decodeWorkflow parses the model output, tolerating markdown code fences.
func decodeWorkflow(raw string) (*workflow.Workflow, error) {
	payload := stripCodeFences(raw)
	var wf workflow.Workflow
	if err := json.Unmarshal([]byte(payload), &wf); err != nil {
		return nil, fmt.Errorf("model output is not a workflow document: %w", err)
	}
	return &wf, nil
}

func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

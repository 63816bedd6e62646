package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yongseopkim/workrecap/internal/config"
	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

// escalationConfidenceThreshold is the confidence below which a
// self-reported low-confidence base response triggers escalation.
const escalationConfidenceThreshold = 0.7

// escalationWrapper wraps the caller's system prompt with the instruction to
// self-assess and emit a strict JSON decision object.
const escalationWrapper = `%s

Before answering, assess your own confidence in the response you are about to
give. Respond with a single strict JSON object of exactly this shape, and
nothing else:

{"needs_escalation": <bool>, "confidence": <float 0-1>, "reason": "<string>", "response": "<your answer>"}

Set needs_escalation to true only if you are genuinely unsure the response is
correct or complete.`

// chatWithEscalation implements the adaptive escalation protocol: wrap the
// system prompt, call the base model, parse its self-assessment. On parse
// failure, fall back to the raw base text. On
// needs_escalation && confidence < threshold, re-call with the escalation
// model and the unwrapped system prompt; usage is base + escalation.
func (r *LLMRouter) chatWithEscalation(ctx context.Context, provider driven.LLMProvider, task config.TaskEntry, baseModel string, system, user string, opts driven.ChatOptions) (string, model.TokenUsage, error) {
	wrapped := fmt.Sprintf(escalationWrapper, system)
	baseOpts := opts
	baseOpts.JSONMode = true

	baseText, baseUsage, err := provider.Chat(ctx, baseModel, wrapped, user, baseOpts)
	if err != nil {
		return "", model.TokenUsage{}, fmt.Errorf("escalation base call: %w", err)
	}
	r.usage.Record(provider.Name(), baseModel, baseUsage)

	var decision model.EscalationDecision
	if jsonErr := json.Unmarshal([]byte(baseText), &decision); jsonErr != nil {
		return baseText, baseUsage, nil
	}

	if !decision.NeedsEscalation || decision.Confidence >= escalationConfidenceThreshold {
		return decision.Response, baseUsage, nil
	}

	escalationText, escalationUsage, err := provider.Chat(ctx, task.EscalationModel, system, user, opts)
	if err != nil {
		return "", model.TokenUsage{}, fmt.Errorf("escalation call: %w", err)
	}
	r.usage.Record(provider.Name(), task.EscalationModel, escalationUsage)

	return escalationText, baseUsage.Add(escalationUsage), nil
}

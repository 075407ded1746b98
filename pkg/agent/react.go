package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"simworld/pkg/oracle"
)

// Reaction is the per-tick decision about the current plan in light of new
// events. Transient: it is never persisted.
type Reaction string

const (
	ReactionContinue Reaction = "continue"
	ReactionPostpone Reaction = "postpone"
	ReactionCancel   Reaction = "cancel"
)

// ReactionResult carries the verdict plus the replacement plan a postpone
// pushes to the front of the queue.
type ReactionResult struct {
	Reaction Reaction
	Thought  string
	NewPlan  string
}

var (
	reactionPattern = regexp.MustCompile(`(?i)Reaction:\s*(\w+)`)
	thoughtPattern  = regexp.MustCompile(`(?i)Thought:\s*([^\n]+)`)
	newPlanPattern  = regexp.MustCompile(`(?i)New Plan:\s*([^\n]+)`)
)

// react classifies the agent's response to newly observed events. The
// oracle's verdict is validated strictly: an unrecognized variant gets one
// corrective round-trip, then an error. It never silently defaults.
func (a *Agent) react(ctx context.Context, events []string) (ReactionResult, error) {
	var plan *SinglePlan
	if len(a.plans) > 0 {
		plan = a.plans[0]
	}

	if err := a.refreshActivitySummary(ctx); err != nil {
		a.logger.Warn("activity summary refresh failed: %v", err)
	}

	prompt := a.reactionPrompt(plan, events)
	resp, err := a.completer.Complete(ctx, oracle.NewRequest(oracle.SystemMessage(prompt)))
	if err != nil {
		return ReactionResult{}, fmt.Errorf("reaction completion failed: %w", err)
	}

	result, ok := parseReaction(resp.Content)
	if !ok {
		correction := fmt.Sprintf(
			"Could not parse this reaction:\n`%s`\n\nRespond again with exactly one of 'Reaction: continue', 'Reaction: postpone', or 'Reaction: cancel', optionally followed by 'Thought:' and 'New Plan:' lines.",
			resp.Content,
		)
		req := oracle.NewRequest(oracle.SystemMessage(correction))
		req.Temperature = 0
		retry, err := a.completer.Complete(ctx, req)
		if err != nil {
			return ReactionResult{}, fmt.Errorf("reaction reformat failed: %w", err)
		}
		if result, ok = parseReaction(retry.Content); !ok {
			return ReactionResult{}, fmt.Errorf("unrecognized reaction after reformat: %q", retry.Content)
		}
	}

	if result.Reaction == ReactionPostpone && strings.TrimSpace(result.NewPlan) == "" {
		return ReactionResult{}, fmt.Errorf("postpone reaction without a replacement plan")
	}
	return result, nil
}

func parseReaction(output string) (ReactionResult, bool) {
	m := reactionPattern.FindStringSubmatch(output)
	if m == nil {
		return ReactionResult{}, false
	}

	var result ReactionResult
	switch strings.ToLower(m[1]) {
	case "continue":
		result.Reaction = ReactionContinue
	case "postpone", "escalate":
		result.Reaction = ReactionPostpone
	case "cancel":
		result.Reaction = ReactionCancel
	default:
		return ReactionResult{}, false
	}

	if t := thoughtPattern.FindStringSubmatch(output); t != nil {
		result.Thought = strings.TrimSpace(t[1])
	}
	if p := newPlanPattern.FindStringSubmatch(output); p != nil {
		result.NewPlan = strings.TrimSpace(p[1])
	}
	return result, true
}

// applyReaction mutates the plan queue per the verdict.
func (a *Agent) applyReaction(result ReactionResult) {
	switch result.Reaction {
	case ReactionContinue:
		// Queue unchanged.
	case ReactionPostpone:
		replacement := NewPlan(a.id, result.NewPlan, a.locationID, a.cfg.PlanLength, "")
		a.plans = append([]*SinglePlan{replacement}, a.plans...)
		a.logger.Info("postponing current plan for: %s", result.NewPlan)
	case ReactionCancel:
		if len(a.plans) > 0 {
			a.logger.Info("cancelling plan: %s", a.plans[0].Description)
			a.plans = a.plans[1:]
		}
	}
}

// refreshActivitySummary keeps a cached first-person summary of recent
// memories, refreshed only when older than the configured TTL.
func (a *Agent) refreshActivitySummary(ctx context.Context) error {
	if time.Since(a.lastSummarized) <= a.cfg.ActivitySummaryTTL && a.recentActivity != "" {
		return nil
	}

	recent := a.memories.Recent(a.cfg.ReflectionMemories)
	if len(recent) == 0 {
		a.recentActivity = "Nothing notable yet."
		a.lastSummarized = time.Now()
		return nil
	}

	var descriptions []string
	for i := range recent {
		descriptions = append(descriptions, recent[i].Description)
	}
	resp, err := a.completer.Complete(ctx, oracle.NewRequest(
		oracle.SystemMessage(a.activitySummaryPrompt(descriptions)),
	))
	if err != nil {
		return err
	}

	a.recentActivity = strings.TrimSpace(resp.Content)
	a.lastSummarized = time.Now()
	return nil
}

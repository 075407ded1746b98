package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"simworld/pkg/oracle"
)

// llmPlan is the shape the planning prompt asks the oracle to emit.
type llmPlan struct {
	Description      string  `json:"description"`
	Location         string  `json:"location"`
	StopCondition    string  `json:"stop_condition"`
	MaxDurationHours float64 `json:"max_duration_hours"`
}

// plan replaces the entire plan queue with a fresh one from the oracle.
// Locations are validated against the agent's allowed set; invalid names get
// one corrective round-trip with the offenders enumerated, and a second
// failure is an error. On success the queue is never empty.
func (a *Agent) plan(ctx context.Context, thoughtProcess string) error {
	if err := a.refreshActivitySummary(ctx); err != nil {
		a.logger.Warn("activity summary refresh failed: %v", err)
	}

	prompt := a.planningPrompt(thoughtProcess)
	req := oracle.NewRequest(oracle.SystemMessage(prompt))
	req.Temperature = 0

	resp, err := a.completer.Complete(ctx, req)
	if err != nil {
		return fmt.Errorf("planning completion failed: %w", err)
	}

	parsed, err := parsePlans(resp.Content)
	if err != nil {
		return fmt.Errorf("unparseable planning output: %w", err)
	}

	invalid := a.invalidLocations(parsed)
	if len(invalid) > 0 {
		a.logger.Warn("plans named invalid locations: %s", strings.Join(invalid, ", "))

		retryReq := oracle.NewRequest(
			oracle.SystemMessage(prompt),
			oracle.AssistantMessage(resp.Content),
			oracle.UserMessage(fmt.Sprintf(
				"Your response included the following invalid locations: %s. The only valid places are: %s. Please try again.",
				strings.Join(invalid, ", "), strings.Join(a.allowedLocationNames(), ", "),
			)),
		)
		retryReq.Temperature = 0
		retry, err := a.completer.Complete(ctx, retryReq)
		if err != nil {
			return fmt.Errorf("planning correction failed: %w", err)
		}
		if parsed, err = parsePlans(retry.Content); err != nil {
			return fmt.Errorf("unparseable corrected planning output: %w", err)
		}
		if invalid = a.invalidLocations(parsed); len(invalid) > 0 {
			return fmt.Errorf("plans still reference invalid locations after correction: %s", strings.Join(invalid, ", "))
		}
	}

	if len(parsed) == 0 {
		return fmt.Errorf("planning produced an empty queue")
	}

	plans := make([]*SinglePlan, 0, len(parsed))
	for i := range parsed {
		lp := &parsed[i]
		locID, _ := a.locationAllowed(lp.Location)
		maxDuration := time.Duration(lp.MaxDurationHours * float64(time.Hour))
		if maxDuration <= 0 {
			maxDuration = a.cfg.PlanLength
		}
		plans = append(plans, NewPlan(a.id, lp.Description, locID, maxDuration, lp.StopCondition))
	}
	a.plans = plans
	a.logger.Info("made %d plans, starting with: %s", len(plans), plans[0].Description)
	return nil
}

// parsePlans reads the oracle's plan list, tolerating prose or code fences
// around the JSON array.
func parsePlans(output string) ([]llmPlan, error) {
	start := strings.Index(output, "[")
	end := strings.LastIndex(output, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in %q", output)
	}

	var plans []llmPlan
	if err := json.Unmarshal([]byte(output[start:end+1]), &plans); err != nil {
		return nil, fmt.Errorf("invalid plan JSON: %w", err)
	}

	valid := plans[:0]
	for i := range plans {
		if strings.TrimSpace(plans[i].Description) != "" {
			valid = append(valid, plans[i])
		}
	}
	return valid, nil
}

func (a *Agent) invalidLocations(plans []llmPlan) []string {
	var invalid []string
	seen := make(map[string]struct{})
	for i := range plans {
		name := plans[i].Location
		if _, ok := a.locationAllowed(name); !ok {
			key := strings.ToLower(name)
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				invalid = append(invalid, name)
			}
		}
	}
	return invalid
}

// removeSameDescription drops every queued plan sharing a description with
// a finished one. Removing all matches can discard an unrelated future plan
// that happens to share text; that is the known, accepted behavior.
func (a *Agent) removeSameDescription(description string) {
	kept := a.plans[:0]
	for _, p := range a.plans {
		if p.Description != description {
			kept = append(kept, p)
		}
	}
	a.plans = kept
}


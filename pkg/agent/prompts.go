package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"simworld/pkg/oracle"
)

// Prompt text lives here; everything that matters about control flow is
// format markers the parsers key on, not the prose around them.

//nolint:gochecknoglobals // shared token budget for prompt material
var promptBudget = oracle.NewPromptBudget(6000)

func (a *Agent) executorSystemPrompt() string {
	return fmt.Sprintf(
		`You are %s. %s

Your directives: %s

You act in a shared world by taking actions with tools. Stay in character at
all times; never mention that you are an AI.`,
		a.FullName, a.PrivateBio, strings.Join(a.Directives, "; "),
	)
}

func (a *Agent) renderExecutorPrompt(ctx context.Context, plan *SinglePlan, scratchpad Scratchpad) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Your current task: %s\n", plan.Description)
	if plan.StopCondition != "" {
		fmt.Fprintf(&b, "You can stop when: %s\n", plan.StopCondition)
	}
	if plan.MaxDuration > 0 {
		fmt.Fprintf(&b, "Time budget: about %s. If you are running past it, wrap up.\n", plan.MaxDuration)
	}
	fmt.Fprintf(&b, "\n%s\n", a.locationContext())

	if history := a.conversationHistory(); history != "" {
		fmt.Fprintf(&b, "\nRecent conversation:\n%s\n", promptBudget.TrimLines(history))
	}

	if memories, err := a.ranker.MostRelevant(ctx, plan.Description, 5); err == nil && len(memories) > 0 {
		b.WriteString("\nRelevant memories:\n")
		var lines []string
		for i := range memories {
			lines = append(lines, fmt.Sprintf("- %s [%s]", memories[i].Description, memories[i].CreatedAt.Format(time.RFC822)))
		}
		b.WriteString(promptBudget.TrimLines(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nAvailable tools:\n%s\n", a.provider.Catalog())
	b.WriteString("\n" + a.parser.FormatInstructions() + "\n")

	if len(scratchpad) > 0 {
		b.WriteString("\nYour progress so far:\n")
		var lines []string
		for i := range scratchpad {
			s := &scratchpad[i]
			lines = append(lines, fmt.Sprintf("Action: %s\nAction Input: %s\nObservation: %s", s.Tool, s.ToolInput, s.Observation))
		}
		b.WriteString(promptBudget.TrimLines(strings.Join(lines, "\n")))
		b.WriteString("\nThought: ")
	}

	return b.String()
}

func (a *Agent) locationContext() string {
	loc, ok := a.w.Directory.ByID(a.locationID)
	if !ok {
		return "You are nowhere in particular."
	}

	var others []string
	for _, id := range loc.Occupants() {
		if id == a.id || a.roster == nil {
			continue
		}
		for _, other := range a.roster.All() {
			if other.id == id {
				others = append(others, other.FullName)
			}
		}
	}
	if len(others) == 0 {
		return fmt.Sprintf("You are at %s (%s). You are alone here.", loc.Name, loc.Description)
	}
	return fmt.Sprintf("You are at %s (%s). Also here: %s.", loc.Name, loc.Description, strings.Join(others, ", "))
}

func (a *Agent) conversationHistory() string {
	msgs := a.w.Log.RecentMessages(a.locationID, 10)
	var lines []string
	for i := range msgs {
		lines = append(lines, msgs[i].Description)
	}
	return strings.Join(lines, "\n")
}

func (a *Agent) reactionPrompt(plan *SinglePlan, events []string) string {
	planDesc := "You have no current plan."
	if plan != nil {
		planDesc = "Your current plan: " + plan.Description
	}
	return fmt.Sprintf(
		`%s

Your recent activity: %s

New things just happened around you:
%s

Decide how to react. Respond with exactly one line in this format:
Reaction: <continue|postpone|cancel>
Thought: <why>
New Plan: <description of a replacement plan, only if postponing>

"continue" keeps your current plan unchanged. "postpone" sets your current
plan aside to deal with the new events first; you must supply a New Plan.
"cancel" drops your current plan entirely.`,
		planDesc, a.recentActivity, strings.Join(events, "\n"),
	)
}

func (a *Agent) planningPrompt(thoughtProcess string) string {
	var current []string
	for i, p := range a.plans {
		current = append(current, fmt.Sprintf("%d. %s (under %s) [stop when: %s]", i+1, p.Description, p.MaxDuration, p.StopCondition))
	}
	currentStr := "none"
	if len(current) > 0 {
		currentStr = strings.Join(current, "\n")
	}

	return fmt.Sprintf(
		`You are %s. %s
Your directives: %s
Your recent activity: %s
Your current plans: %s
%s

Places you may go: %s

Make a short list of plans for roughly the next %s. Respond ONLY with a JSON
array, each element an object with keys "description", "location" (one of
the allowed place names), "stop_condition" (how you will know you are done),
and "max_duration_hours" (a number).%s`,
		a.FullName, a.PrivateBio, strings.Join(a.Directives, "; "),
		a.recentActivity, currentStr, a.locationContext(),
		strings.Join(a.allowedLocationNames(), ", "),
		a.cfg.PlanLength,
		optionalThought(thoughtProcess),
	)
}

func optionalThought(thoughtProcess string) string {
	if thoughtProcess == "" {
		return ""
	}
	return "\n\nYour current thinking: " + thoughtProcess
}

func (a *Agent) importancePrompt(description string) string {
	return fmt.Sprintf(
		`You are %s. Rate how important this moment is to you on a scale of 1
(utterly mundane) to 5 (life-changing). Respond with a single digit.

Moment: %s`,
		a.FullName, description,
	)
}

func (a *Agent) activitySummaryPrompt(descriptions []string) string {
	return fmt.Sprintf(
		`You are %s. Summarize what you have been doing lately in one or two
sentences, first person.

Recent memories:
%s`,
		a.FullName, promptBudget.TrimLines(strings.Join(descriptions, "\n")),
	)
}

func (a *Agent) reflectionQuestionsPrompt(descriptions []string) string {
	return fmt.Sprintf(
		`You are %s reflecting on recent experience. Given the memories below,
write the 3 most salient high-level questions they raise. Respond ONLY with
a JSON array of strings.

Memories:
%s`,
		a.FullName, promptBudget.TrimLines(strings.Join(descriptions, "\n")),
	)
}

func (a *Agent) reflectionInsightsPrompt(question string, numbered []string) string {
	return fmt.Sprintf(
		`You are %s. Consider this question about your experience: %s

Relevant memories (numbered):
%s

What high-level insights can you draw? Respond ONLY with a JSON array, each
element an object with keys "insight" (a sentence) and "memory_numbers" (an
array of the numbers of the memories that justify it).`,
		a.FullName, question, strings.Join(numbered, "\n"),
	)
}

func (a *Agent) gossipPrompt(insights []string) string {
	return fmt.Sprintf(
		`You are %s. You just had these realizations:
%s

Phrase a single short remark sharing the most interesting of them with the
people around you, in your own voice.`,
		a.FullName, strings.Join(insights, "\n"),
	)
}

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"simworld/pkg/memory"
	"simworld/pkg/oracle"
	"simworld/pkg/world"
)

// shouldReflect reports whether the importance accumulated since the last
// reflection strictly exceeds the threshold. Importance exactly at the
// threshold does not trigger.
func (a *Agent) shouldReflect() bool {
	return a.memories.ImportanceSince(a.lastReflection) > a.cfg.ReflectionThreshold
}

type llmInsight struct {
	Insight       string `json:"insight"`
	MemoryNumbers []int  `json:"memory_numbers"`
}

// reflect consolidates recent experience into higher-level reflection
// memories and shares a short remark with co-located agents. A failure in
// any sub-call aborts the whole reflection: no insight is persisted without
// its back-references resolved.
func (a *Agent) reflect(ctx context.Context) error {
	a.logger.Info("reflecting")

	recent := a.memories.Recent(a.cfg.ReflectionMemories)
	if len(recent) == 0 {
		a.lastReflection = time.Now()
		return nil
	}

	var descriptions []string
	for i := range recent {
		descriptions = append(descriptions, recent[i].Description)
	}

	questions, err := a.reflectionQuestions(ctx, descriptions)
	if err != nil {
		return fmt.Errorf("reflection questions failed: %w", err)
	}

	// Gather every insight before touching the memory store.
	type pendingInsight struct {
		description string
		related     []uuid.UUID
	}
	var pending []pendingInsight

	for _, question := range questions {
		relevant, err := a.ranker.MostRelevant(ctx, question, a.cfg.ReflectionMemories)
		if err != nil {
			return fmt.Errorf("memory retrieval for question %q failed: %w", question, err)
		}
		if len(relevant) == 0 {
			continue
		}

		numbered := make([]string, len(relevant))
		for i := range relevant {
			numbered[i] = fmt.Sprintf("%d. %s", i+1, relevant[i].Description)
		}

		resp, err := a.completer.Complete(ctx, oracle.NewRequest(
			oracle.SystemMessage(a.reflectionInsightsPrompt(question, numbered)),
		))
		if err != nil {
			return fmt.Errorf("insight completion for question %q failed: %w", question, err)
		}

		insights, err := parseInsights(resp.Content)
		if err != nil {
			return fmt.Errorf("unparseable insights for question %q: %w", question, err)
		}

		for i := range insights {
			related := resolveMemoryNumbers(insights[i].MemoryNumbers, relevant)
			if len(related) == 0 {
				// An insight that cites nothing is not grounded in
				// experience; drop it rather than persist it dangling.
				continue
			}
			pending = append(pending, pendingInsight{description: insights[i].Insight, related: related})
		}
	}

	var insightTexts []string
	for _, p := range pending {
		a.addMemory(memory.NewReflection(a.id, p.description, 4, p.related))
		insightTexts = append(insightTexts, p.description)
	}
	a.lastReflection = time.Now()

	if len(insightTexts) == 0 {
		return nil
	}

	// Share the gossip with whoever is around. Best effort: the
	// reflection itself already succeeded.
	if err := a.broadcastGossip(ctx, insightTexts); err != nil {
		a.logger.Warn("gossip broadcast failed: %v", err)
	}
	return nil
}

func (a *Agent) reflectionQuestions(ctx context.Context, descriptions []string) ([]string, error) {
	resp, err := a.completer.Complete(ctx, oracle.NewRequest(
		oracle.SystemMessage(a.reflectionQuestionsPrompt(descriptions)),
	))
	if err != nil {
		return nil, err
	}

	var questions []string
	if err := json.Unmarshal([]byte(extractJSONArray(resp.Content)), &questions); err != nil {
		return nil, fmt.Errorf("invalid question JSON: %w", err)
	}
	return questions, nil
}

func parseInsights(output string) ([]llmInsight, error) {
	var insights []llmInsight
	if err := json.Unmarshal([]byte(extractJSONArray(output)), &insights); err != nil {
		return nil, fmt.Errorf("invalid insight JSON: %w", err)
	}
	return insights, nil
}

func extractJSONArray(output string) string {
	start := strings.Index(output, "[")
	end := strings.LastIndex(output, "]")
	if start < 0 || end <= start {
		return output
	}
	return output[start : end+1]
}

// resolveMemoryNumbers maps 1-based citation numbers back to memory ids,
// ignoring citations outside the presented list.
func resolveMemoryNumbers(numbers []int, relevant []memory.SingleMemory) []uuid.UUID {
	var ids []uuid.UUID
	for _, n := range numbers {
		if n >= 1 && n <= len(relevant) {
			ids = append(ids, relevant[n-1].ID)
		}
	}
	return ids
}

func (a *Agent) broadcastGossip(ctx context.Context, insights []string) error {
	resp, err := a.completer.Complete(ctx, oracle.NewRequest(
		oracle.SystemMessage(a.gossipPrompt(insights)),
	))
	if err != nil {
		return err
	}
	remark := strings.TrimSpace(resp.Content)
	if remark == "" {
		return nil
	}

	if !a.tracker.RecordMessage(a.id, nil) {
		// The room is waiting on someone; keep the gossip for later.
		return nil
	}
	a.w.Log.Append(world.NewMessageEvent(
		world.SubtypeBroadcast,
		fmt.Sprintf("%s said to everyone: %q", a.FullName, remark),
		a.locationID, a.id, nil,
	))
	return nil
}

// rateImportance asks the oracle to score a new memory 1-5, falling back to
// 1 when the answer is not a digit.
func (a *Agent) rateImportance(ctx context.Context, description string) int {
	resp, err := a.completer.Complete(ctx, oracle.NewRequest(
		oracle.SystemMessage(a.importancePrompt(description)),
	))
	if err != nil {
		a.logger.Warn("importance rating failed: %v", err)
		return 1
	}
	for _, field := range strings.Fields(resp.Content) {
		if n, err := strconv.Atoi(strings.Trim(field, ".,!")); err == nil {
			return n
		}
	}
	return 1
}

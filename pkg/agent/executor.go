package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"simworld/pkg/oracle"
	"simworld/pkg/tools"
)

// ExecutorResult is the outcome of one call to executePlan.
type ExecutorResult struct {
	Status     PlanStatus
	Output     string
	Scratchpad Scratchpad
}

// IterationLimitOutput is the output reported when a plan execution hits
// its iteration cap. The scratchpad is preserved so the next tick resumes.
const IterationLimitOutput = "iteration limit reached"

// executePlan runs the bounded ReAct loop for one plan: render prompt, call
// the oracle, parse its output into an action or a final response, dispatch
// the action, and accumulate the scratchpad. It never returns an error for
// anything the oracle got wrong; malformed output degrades into recoverable
// observations so the step loop keeps running.
func (a *Agent) executePlan(ctx context.Context, plan *SinglePlan) ExecutorResult {
	scratchpad := plan.Scratchpad
	tc := a.toolContext()

	for i := 0; i < a.cfg.MaxPlanIterations; i++ {
		prompt := a.renderExecutorPrompt(ctx, plan, scratchpad)

		resp, err := a.completer.Complete(ctx, oracle.NewRequest(
			oracle.SystemMessage(a.executorSystemPrompt()),
			oracle.UserMessage(prompt),
		))
		if err != nil {
			// A timed-out or failed completion is treated like
			// unparseable output: recoverable, tick over.
			a.recorder.RecordParseOutcome(a.FullName, string(ParseLayerFailed))
			scratchpad = append(scratchpad, ScratchpadStep{
				Tool:        "none",
				Observation: fmt.Sprintf("You lost your train of thought (%v). Pick up where you left off.", err),
			})
			return ExecutorResult{Status: PlanStatusInProgress, Output: err.Error(), Scratchpad: scratchpad}
		}

		action, layer := a.parseWithRecovery(ctx, resp.Content)
		a.recorder.RecordParseOutcome(a.FullName, string(layer))
		if action == nil {
			scratchpad = append(scratchpad, ScratchpadStep{
				Tool:        "none",
				Log:         resp.Content,
				Observation: "Your last response could not be understood. " + a.parser.FormatInstructions(),
			})
			return ExecutorResult{Status: PlanStatusInProgress, Output: "unparseable oracle output", Scratchpad: scratchpad}
		}

		if action.Terminal {
			status := PlanStatusDone
			if strings.Contains(action.Output, CannotCompleteMarker) {
				status = PlanStatusFailed
			}
			return ExecutorResult{Status: status, Output: action.Output, Scratchpad: scratchpad}
		}

		step, yield := a.dispatch(ctx, tc, action)

		// Consecutive waits collapse into one so a patient agent does
		// not flood its scratchpad with idling.
		if isWait(step.Tool) && len(scratchpad) > 0 && isWait(scratchpad[len(scratchpad)-1].Tool) {
			scratchpad[len(scratchpad)-1] = step
		} else {
			scratchpad = append(scratchpad, step)
		}

		if yield {
			return ExecutorResult{Status: PlanStatusInProgress, Output: step.Observation, Scratchpad: scratchpad}
		}
	}

	return ExecutorResult{Status: PlanStatusInProgress, Output: IterationLimitOutput, Scratchpad: scratchpad}
}

func isWait(tool string) bool { return strings.EqualFold(strings.TrimSpace(tool), "wait") }

// parseWithRecovery runs the layered parsing pipeline: exact grammar, one
// corrective round-trip showing the oracle its own output, then heuristic
// extraction. Returns (nil, ParseLayerFailed) only when every layer misses.
func (a *Agent) parseWithRecovery(ctx context.Context, output string) (*ParsedAction, ParseLayer) {
	if action, ok := a.parser.ParseExact(output); ok {
		return action, ParseLayerExact
	}

	correction := fmt.Sprintf(
		"Could not parse this output:\n`%s`\n\nReformat it to match the expected format.\n%s",
		output, a.parser.FormatInstructions(),
	)
	req := oracle.NewRequest(oracle.SystemMessage(correction))
	req.Temperature = 0
	if retry, err := a.completer.Complete(ctx, req); err == nil {
		if action, ok := a.parser.ParseExact(retry.Content); ok {
			return action, ParseLayerCorrective
		}
	} else {
		a.logger.Warn("corrective reformat failed: %v", err)
	}

	if action, ok := a.parser.ParseHeuristic(output); ok {
		return action, ParseLayerHeuristic
	}
	return nil, ParseLayerFailed
}

// dispatch resolves and runs one action, returning the scratchpad step and
// whether the executor should yield the rest of its tick.
func (a *Agent) dispatch(ctx context.Context, tc *tools.Context, action *ParsedAction) (ScratchpadStep, bool) {
	name, err := a.parser.NormalizeAction(action.Tool)
	if err != nil {
		// Unknown action: feed the error back as an observation so the
		// next iteration can self-correct.
		return ScratchpadStep{Tool: action.Tool, ToolInput: action.Input, Log: action.Log, Observation: err.Error()}, false
	}

	input := action.Input
	if name == tools.ToolSpeak {
		recipient, message, exErr := ExtractMessage(input)
		if exErr != nil {
			return ScratchpadStep{
				Tool: name, ToolInput: input, Log: action.Log,
				Observation: `Could not tell who you are speaking to. Provide speak input as JSON {"recipient": "...", "message": "..."}.`,
			}, false
		}
		canonical, _ := json.Marshal(tools.SpeakInput{Recipient: recipient, Message: message})
		input = string(canonical)
	}

	tool, err := a.provider.Get(name)
	if err != nil {
		return ScratchpadStep{Tool: name, ToolInput: input, Log: action.Log, Observation: err.Error()}, false
	}

	observation, err := tool.Run(ctx, input, tc)
	a.recorder.RecordToolExecution(a.FullName, name, err == nil)
	if err != nil {
		a.logger.Warn("tool %s failed: %v", name, err)
		observation = fmt.Sprintf("Using %s did not work: %v", name, err)
	}
	a.logger.Debug("%s -> %s", name, observation)

	// Waiting means yielding the rest of the tick.
	return ScratchpadStep{Tool: name, ToolInput: input, Log: action.Log, Observation: observation}, isWait(name)
}

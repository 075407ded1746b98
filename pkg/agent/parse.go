package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// The oracle's only channel is free text, so parsing is layered: an exact
// grammar match first, then a corrective round-trip (driven by the
// executor), then heuristic extraction, and finally a typed failure the
// executor turns into a recoverable observation.

// ParseLayer identifies which layer resolved an oracle reply.
type ParseLayer string

const (
	ParseLayerExact      ParseLayer = "exact"
	ParseLayerCorrective ParseLayer = "corrective"
	ParseLayerHeuristic  ParseLayer = "heuristic"
	ParseLayerFailed     ParseLayer = "failed"
)

// ParsedAction is the structured form of one oracle reply: either a terminal
// response or a (tool, input) pair.
type ParsedAction struct {
	Terminal bool
	Output   string // final response text when Terminal
	Tool     string
	Input    string
	Log      string // the raw oracle output
}

// FinalResponseMarker terminates a plan. CannotCompleteMarker inside the
// final response downgrades it to a failure.
const (
	FinalResponseMarker  = "Final Response:"
	CannotCompleteMarker = "Need Help"
)

var (
	actionPattern = regexp.MustCompile(`(?s)Action\s*\d*\s*:(.*?)\nAction\s*\d*\s*Input\s*\d*\s*:\s*(.*)`)

	// llmSynonyms are terms the oracle substitutes for a communication
	// action; all of them normalize to speak rather than erroring out.
	llmSynonyms = []string{
		"gpt", "llm", "openai", "language", "model", "ai", "assistant",
		"chatbot", "chat", "completion", "response", "answer", "say",
		"reply", "respond", "tell", "talk", "claude", "anthropic", "gemini",
	}
)

// Parser turns oracle output into actions against a fixed tool catalog.
type Parser struct {
	toolNames map[string]string // canonical -> display name
	// participants are names whose appearance in otherwise unparseable
	// text triggers the heuristic speak fallback.
	participants []string
}

// NewParser creates a parser over the given tool names and known
// participant names.
func NewParser(toolNames, participants []string) *Parser {
	p := &Parser{toolNames: make(map[string]string, len(toolNames)), participants: participants}
	for _, name := range toolNames {
		p.toolNames[canonicalToolName(name)] = name
	}
	return p
}

func canonicalToolName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// ParseExact is layer 1: match the expected grammar exactly. A miss returns
// (nil, false) with no side effects; the caller decides whether to spend a
// corrective round-trip.
func (p *Parser) ParseExact(output string) (*ParsedAction, bool) {
	if idx := strings.Index(output, FinalResponseMarker); idx >= 0 {
		return &ParsedAction{
			Terminal: true,
			Output:   strings.TrimSpace(output[idx+len(FinalResponseMarker):]),
			Log:      output,
		}, true
	}

	m := actionPattern.FindStringSubmatch(output)
	if m == nil {
		return nil, false
	}

	input := strings.TrimSpace(m[2])
	// The grammar continues with "Observation:"; anything the oracle
	// hallucinated past that point is its own fiction, not input.
	if idx := strings.Index(input, "\nObservation:"); idx >= 0 {
		input = strings.TrimSpace(input[:idx])
	}
	input = strings.Trim(input, `"`)

	return &ParsedAction{
		Tool:  strings.TrimSpace(m[1]),
		Input: input,
		Log:   output,
	}, true
}

// ParseHeuristic is layer 3: if a known participant name appears in the
// text, assume the oracle meant to speak to them.
func (p *Parser) ParseHeuristic(output string) (*ParsedAction, bool) {
	lower := strings.ToLower(output)
	for _, name := range p.participants {
		if strings.Contains(lower, strings.ToLower(name)) {
			return &ParsedAction{Tool: "speak", Input: output, Log: output}, true
		}
	}
	if strings.Contains(lower, "everyone") {
		return &ParsedAction{Tool: "speak", Input: output, Log: output}, true
	}
	return nil, false
}

// NormalizeAction maps an oracle-supplied action name onto the catalog.
// Unknown names that smell like a communication verb map to speak; anything
// else is an error listing the valid actions.
func (p *Parser) NormalizeAction(action string) (string, error) {
	canonical := canonicalToolName(action)
	if name, ok := p.toolNames[canonical]; ok {
		return name, nil
	}

	lower := strings.ToLower(action)
	for _, syn := range llmSynonyms {
		if strings.Contains(lower, syn) {
			return "speak", nil
		}
	}

	return "", fmt.Errorf("unknown action %q; valid actions are: %s", action, strings.Join(p.sortedToolNames(), ", "))
}

func (p *Parser) sortedToolNames() []string {
	names := make([]string, 0, len(p.toolNames))
	for _, name := range p.toolNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// messagePatterns extract (recipient, message) from loosely structured text.
var messagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)(?:to|recipient|target):\s*([^\n]+?)\s*(?:message|content):\s*(.*)`),
	regexp.MustCompile(`(?is)(?:tell|ask|inform|notify)\s+([^\n,]+?)\s+(?:that|about|regarding)\s+(.*)`),
	regexp.MustCompile(`(?is)(?:send|message|write to)\s+([^\n:]+):\s*(.*)`),
	regexp.MustCompile(`(?s)^([^:\n]+):\s*(.*)`),
}

// ExtractMessage resolves speak input into a (recipient, message) pair using
// its own layered fallbacks: JSON, newline split, pattern match, and finally
// first-word-as-recipient.
func ExtractMessage(text string) (recipient, message string, err error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", "", fmt.Errorf("empty speak input")
	}

	if strings.HasPrefix(trimmed, "{") {
		var data struct {
			Recipient string `json:"recipient"`
			Message   string `json:"message"`
		}
		if jsonErr := json.Unmarshal([]byte(trimmed), &data); jsonErr == nil && data.Recipient != "" && data.Message != "" {
			return strings.TrimSpace(data.Recipient), strings.TrimSpace(data.Message), nil
		}
	}

	if parts := strings.SplitN(trimmed, "\n", 2); len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
	}

	for _, pattern := range messagePatterns {
		if m := pattern.FindStringSubmatch(trimmed); m != nil {
			return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), nil
		}
	}

	words := strings.Fields(trimmed)
	if len(words) > 1 {
		return words[0], strings.Join(words[1:], " "), nil
	}
	return "", "", fmt.Errorf("could not extract recipient and message from %q", text)
}

// FormatInstructions renders the grammar the corrective round-trip asks the
// oracle to conform to.
func (p *Parser) FormatInstructions() string {
	return fmt.Sprintf(`Your response must use the following format:

Task: restate the task you are working on
Thought: your reasoning about what to do next
Action: the action to take, which must be one of these words: [%s]
Action Input: the input to the action
Observation: the result of the action
... (Thought/Action/Action Input/Observation can repeat N times)
Thought: your conclusion
Final Response: the final outcome of the task

If you are not ready with a final response, you must take an action. If you
cannot complete the task with the tools available, return
'Final Response: %s'.`, strings.Join(p.sortedToolNames(), ", "), CannotCompleteMarker)
}

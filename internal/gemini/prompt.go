package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"call-qa-go/internal/remote"
	"call-qa-go/internal/types"
)

// QAPromptTemplate is the default rubric prompt. The literal
// "{transcript}" placeholder is replaced at call time. Deployments with
// a different rubric supply their own template via configuration.
const QAPromptTemplate = `
You are an expert Quality Assurance Analyst for a law firm's customer service team.
Analyze the following call transcript and return your response strictly in this format:
{
  "call_summary": "A brief, 3-4 sentence summary of the call including the reason for calling, main issues discussed, and any resolutions or next steps. It should also include the agent's name and the caller's name.",
  "qa_evaluation":
  [
  { "criterion": "Was the call opened with a friendly and professional tone?", "score": "Yes/No/NA", "justification": "..." },
  { "criterion": "Did the agent ask appropriate questions to understand the issue?", "score": "Yes/No/NA", "justification": "..." },
  { "criterion": "Was empathy demonstrated throughout the interaction?", "score": "Yes/No/NA", "justification": "..." },
  { "criterion": "Did the agent maintain control and guide the call effectively?", "score": "Yes/No/NA", "justification": "..." },
  { "criterion": "Did the agent avoid interrupting the caller unnecessarily?", "score": "Yes/No/NA", "justification": "..." },
  { "criterion": "Did the agent personalize the interaction using the caller's name?", "score": "Yes/No/NA", "justification": "..." },
  { "criterion": "Was important contact information (e.g., phone number) collected?", "score": "Yes/No/NA", "justification": "..." },
  { "criterion": "Did the agent ask how the caller heard about the service (if it was a new inquiry)?", "score": "Yes/No/NA", "justification": "Explain why and mark N/A if it was a follow-up or existing case" },
  { "criterion": "Did the agent express confidence in the service or organization?", "score": "Yes/No/NA", "justification": "..." },
  { "criterion": "Was the call closed with a courteous and appreciative message?", "score": "Yes/No/NA", "justification": "..." }
    ]
}
---
Transcript:
{transcript}
`

// qaEnvelope tolerates the two summary key spellings the analysis models
// have produced. The evaluation list stays raw so the two observed list
// shapes can be handled explicitly.
type qaEnvelope struct {
	CallSummary string          `json:"call_summary"`
	Summary     string          `json:"summary"`
	Evaluation  json.RawMessage `json:"qa_evaluation"`
}

// ParseQAResponse parses the analysis model's JSON text into a QAResult.
// A response that does not carry a non-empty summary and a non-empty
// ordered evaluation list is a ParseError; nothing is coerced silently.
// One known model quirk is tolerated: an evaluation list wrapped in a
// single extra array level is flattened.
func ParseQAResponse(text string) (types.QAResult, error) {
	const op = "analyze"
	var env qaEnvelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return types.QAResult{}, &remote.ParseError{Op: op, Raw: clip(text), Err: err}
	}

	summary := strings.TrimSpace(env.CallSummary)
	if summary == "" {
		summary = strings.TrimSpace(env.Summary)
	}
	if summary == "" {
		return types.QAResult{}, &remote.ParseError{Op: op, Raw: clip(text), Err: errors.New("missing call_summary")}
	}
	if len(env.Evaluation) == 0 {
		return types.QAResult{}, &remote.ParseError{Op: op, Raw: clip(text), Err: errors.New("missing qa_evaluation")}
	}

	eval, err := parseEvaluation(env.Evaluation)
	if err != nil {
		return types.QAResult{}, &remote.ParseError{Op: op, Raw: clip(text), Err: err}
	}
	if len(eval) == 0 {
		return types.QAResult{}, &remote.ParseError{Op: op, Raw: clip(text), Err: errors.New("empty qa_evaluation")}
	}

	for i, c := range eval {
		if strings.TrimSpace(c.Criterion) == "" {
			return types.QAResult{}, &remote.ParseError{Op: op, Raw: clip(text), Err: fmt.Errorf("qa_evaluation[%d] missing criterion", i)}
		}
	}

	return types.QAResult{CallSummary: summary, Evaluation: eval}, nil
}

func parseEvaluation(raw json.RawMessage) ([]types.QACriterion, error) {
	var flat []types.QACriterion
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}

	// One variant nests the list one level deep.
	var nested [][]types.QACriterion
	if err := json.Unmarshal(raw, &nested); err == nil {
		var out []types.QACriterion
		for _, group := range nested {
			out = append(out, group...)
		}
		return out, nil
	}

	return nil, errors.New("qa_evaluation is not an ordered criterion list")
}

func clip(s string) string {
	if len(s) <= 300 {
		return s
	}
	return s[:300] + "..."
}

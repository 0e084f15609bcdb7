package types

// AudioItem identifies one discovered call recording. Immutable after
// discovery.
type AudioItem struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Folder   string `json:"folder"`
	MimeType string `json:"mime_type"`
}

// QACriterion is one scored rubric line in a QA evaluation.
type QACriterion struct {
	Criterion     string `json:"criterion"`
	Score         string `json:"score"`
	Justification string `json:"justification"`
}

// QAResult is the structured output of the analysis model: a short call
// summary plus the ordered rubric evaluation.
type QAResult struct {
	CallSummary string        `json:"call_summary"`
	Evaluation  []QACriterion `json:"qa_evaluation"`
}

// Timing carries elapsed wall-clock seconds for a failed item, matching
// the report schema consumed downstream.
type Timing struct {
	TotalTime float64 `json:"TotalTime"`
}

// ItemResult is the outcome of processing one AudioItem. Exactly one
// variant is populated: Success=true fills Transcription/CallSummary/
// Evaluation, Success=false fills Error and Timing.
type ItemResult struct {
	FileName      string        `json:"FileName"`
	FilePath      string        `json:"FilePath"`
	Success       bool          `json:"Success"`
	Transcription string        `json:"Transcription,omitempty"`
	CallSummary   string        `json:"CallSummary,omitempty"`
	Evaluation    []QACriterion `json:"QA_Evaluation,omitempty"`
	Error         string        `json:"Error,omitempty"`
	Timing        *Timing       `json:"Timing,omitempty"`
}

// FolderReport aggregates all ItemResults for one source folder.
// Invariant: SuccessfulFiles + FailedFiles == TotalFiles.
type FolderReport struct {
	Folder          string       `json:"Folder"`
	RunID           string       `json:"RunID,omitempty"`
	TotalFiles      int          `json:"TotalFiles"`
	SuccessfulFiles int          `json:"SuccessfulFiles"`
	FailedFiles     int          `json:"FailedFiles"`
	Results         []ItemResult `json:"Results"`
}

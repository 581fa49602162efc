package pipeline

import (
	"github.com/alisio/boleto-extract/constants"
)

// FailureKind buckets a per-file failure by the stage that produced it.
type FailureKind string

const (
	FailureExtraction     FailureKind = "extraction"
	FailureEmptyContent   FailureKind = "empty_content"
	FailureLLM            FailureKind = "llm"
	FailureInterpretation FailureKind = "interpretation"
	FailureRename         FailureKind = "rename"
)

// FileOutcome is the result of one file's trip through the pipeline. Failed
// files carry a kind and reason; successful ones the extracted fields and
// final name.
type FileOutcome struct {
	Filename   string
	Status     constants.OutcomeStatus
	Label      string
	Date       string
	Amount     string
	RenamedTo  string
	Collisions int
	FailKind   FailureKind
	Reason     string
}

// BatchReport accumulates one outcome per processed file. It lives for
// exactly one run.
type BatchReport struct {
	Outcomes  []FileOutcome
	Succeeded int
	Failed    int
}

// Failures returns the failed outcomes in processing order.
func (r *BatchReport) Failures() []FileOutcome {
	var out []FileOutcome
	for _, o := range r.Outcomes {
		if o.Status == constants.OutcomeFailed {
			out = append(out, o)
		}
	}
	return out
}

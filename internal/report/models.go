package report

import (
	"time"

	"trackcheck/pkg/models"
)

// RunRecord is one scenario run as stored in history and served by the
// inspector.
type RunRecord struct {
	ID          string           `json:"run_id" bson:"_id"`
	TCID        string           `json:"tc_id,omitempty" bson:"tc_id,omitempty"`
	Module      string           `json:"module" bson:"module"`
	Area        string           `json:"area" bson:"area"`
	Environment string           `json:"environment" bson:"environment"`
	StartedAt   time.Time        `json:"started_at" bson:"started_at"`
	FinishedAt  time.Time        `json:"finished_at" bson:"finished_at"`
	Passed      bool             `json:"passed" bson:"passed"`
	Verdicts    []models.Verdict `json:"verdicts" bson:"verdicts"`
}

// Summary reduces a run's verdicts to the scenario outcome.
type Summary struct {
	TCID     string           `json:"tc_id,omitempty"`
	Passed   bool             `json:"passed"`
	Total    int              `json:"total"`
	Failed   int              `json:"failed"`
	Skipped  int              `json:"skipped"`
	Verdicts []models.Verdict `json:"verdicts"`
}

// Summarize folds verdicts into a scenario pass/fail. Skipped verdicts
// (no template section for the event type) never fail the scenario.
func Summarize(tcID string, verdicts []models.Verdict) Summary {
	summary := Summary{TCID: tcID, Passed: true, Verdicts: verdicts}
	for _, verdict := range verdicts {
		summary.Total++
		if verdict.Skipped {
			summary.Skipped++
			continue
		}
		if !verdict.Passed {
			summary.Failed++
			summary.Passed = false
		}
	}
	return summary
}

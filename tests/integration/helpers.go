package integration

import (
	"time"

	"trackcheck/internal/logger"
	"trackcheck/internal/report"
	"trackcheck/pkg/models"
)

func createTestLogger() logger.Logger {
	return logger.NopLogger()
}

func createTestRunRecord(id, module string, startedAt time.Time, passed bool) report.RunRecord {
	verdict := models.Verdict{
		EventKind:  models.KindModuleExposure,
		Passed:     passed,
		Candidates: 1,
	}
	if passed {
		verdict.PassedFields = map[string]string{"spm": "a.b.home.list"}
	} else {
		verdict.Mismatches = []models.Mismatch{
			{Field: "spm", Expected: "a.b.home.list", Actual: "a.b.home.banner"},
		}
	}

	return report.RunRecord{
		ID:          id,
		TCID:        "TC-" + id,
		Module:      module,
		Area:        "home",
		Environment: "prod",
		StartedAt:   startedAt,
		FinishedAt:  startedAt.Add(30 * time.Second),
		Passed:      passed,
		Verdicts:    []models.Verdict{verdict},
	}
}

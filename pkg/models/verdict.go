package models

// Mismatch is one field-level comparison failure. Expected and Actual are
// stringified for the diff; Actual is "<absent>" when the field never
// appeared in the payload.
type Mismatch struct {
	Field    string `json:"field" bson:"field"`
	Expected string `json:"expected" bson:"expected"`
	Actual   string `json:"actual" bson:"actual"`
}

// Verdict is the outcome of validating one event type against its resolved
// template. Validation outcomes are always data, never errors: a missing
// event or a field diff is a legitimate test result.
type Verdict struct {
	TCID       string     `json:"tc_id,omitempty" bson:"tc_id,omitempty"`
	EventKind  EventKind  `json:"event_kind" bson:"event_kind"`
	Passed     bool       `json:"passed" bson:"passed"`
	Skipped    bool       `json:"skipped,omitempty" bson:"skipped,omitempty"`
	Candidates int        `json:"candidates" bson:"candidates"`
	Mismatches []Mismatch `json:"mismatches,omitempty" bson:"mismatches,omitempty"`

	// PassedFields records every checked field that matched, keyed by field
	// name with the expected value it was held to. Kept so a reader can see
	// what a passing verdict actually asserted.
	PassedFields map[string]string `json:"passed_fields,omitempty" bson:"passed_fields,omitempty"`
}

// MissingEventMismatch is the single mismatch carried by a verdict whose
// query produced no candidate events.
func MissingEventMismatch() Mismatch {
	return Mismatch{
		Field:    "<event>",
		Expected: "at least one event",
		Actual:   "none",
	}
}

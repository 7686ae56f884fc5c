package report

import (
	"github.com/solacehealth/practice/internal/domain/identity"
)

// Intake-form enum remaps. The enrollment paperwork stores coded answers;
// reports render them as text.

var durationBuckets = map[int]string{
	0: "Less than 1 month",
	1: "1 to 6 months",
	2: "6 to 12 months",
	3: "More than a year",
}

func durationBucket(code *int) string {
	if code == nil {
		return ""
	}
	return durationBuckets[*code]
}

var selfHarmStates = map[int]string{
	0: "No",
	1: "Yes",
	2: "Unsure",
}

func selfHarmTriState(code *int) string {
	if code == nil {
		return ""
	}
	return selfHarmStates[*code]
}

func harmingOthers(v *int) bool {
	return v != nil && *v == 1
}

// foldIntakeForm copies enrollment-paperwork answers into the base document
// before the merge, so saved therapist edits still take precedence.
func foldIntakeForm(doc *Document, form *identity.ClientIntakeForm) {
	if form == nil {
		return
	}
	if form.PresentingProblem != nil {
		doc.Report.PresentingProblem = *form.PresentingProblem
	}
	doc.Report.ProblemDuration = durationBucket(form.ProblemDurationCode)
	doc.Report.SafetyAssessment = &SafetyAssessment{
		SelfHarm:      selfHarmTriState(form.SelfHarmCode),
		HarmingOthers: harmingOthers(form.HarmingOthers),
	}
}

package report

import "strings"

// Merge layers saved, therapist-authored metadata over a freshly computed
// base document. Derived facts (scores, attendance counts, resolved names)
// always come from the base; authored content (narratives, notes, flag
// objects, sign-off) survives the recompute. This is the only place the two
// are reconciled.
func Merge(base, saved *Document) *Document {
	if saved == nil {
		out := *base
		out.SignOff = signOffOrDefault(base, nil)
		out.Report.RiskScreening = flagsOrDefault(base.Report.RiskScreening, nil)
		return &out
	}

	out := *base

	out.Report.PresentingProblem = pick(saved.Report.PresentingProblem, base.Report.PresentingProblem)
	out.Report.ProblemDuration = pick(saved.Report.ProblemDuration, base.Report.ProblemDuration)
	out.Report.Summary = pick(saved.Report.Summary, base.Report.Summary)
	out.Report.LongTerm = pick(saved.Report.LongTerm, base.Report.LongTerm)
	out.Report.ShortTerm = pick(saved.Report.ShortTerm, base.Report.ShortTerm)
	out.Report.DischargeSummary = pick(saved.Report.DischargeSummary, base.Report.DischargeSummary)
	if saved.Report.SafetyAssessment != nil {
		out.Report.SafetyAssessment = saved.Report.SafetyAssessment
	}

	out.Report.Assessments = mergeAssessments(base.Report.Assessments, saved.Report.Assessments)

	out.Report.RiskScreening = flagsOrDefault(base.Report.RiskScreening, saved.Report.RiskScreening)
	if saved.Report.DischargeReasonFlags != nil {
		out.Report.DischargeReasonFlags = saved.Report.DischargeReasonFlags
	}

	out.SignOff = signOffOrDefault(base, saved.SignOff)
	return &out
}

// mergeAssessments merges by normalized tool name. The computed list is
// authoritative for tool and score; therapist notes are carried over from
// the saved entry, and saved tools absent from the computed list are
// appended as-is.
func mergeAssessments(computed, saved []Assessment) []Assessment {
	out := make([]Assessment, len(computed))
	copy(out, computed)

	index := make(map[string]int, len(out))
	for i, a := range out {
		index[normalizeTool(a.Tool)] = i
	}

	for _, s := range saved {
		if i, ok := index[normalizeTool(s.Tool)]; ok {
			out[i].TherapistNotes = s.TherapistNotes
			continue
		}
		out = append(out, s)
	}
	return out
}

func normalizeTool(tool string) string {
	return strings.ToLower(strings.TrimSpace(tool))
}

func pick(saved, base string) string {
	if strings.TrimSpace(saved) != "" {
		return saved
	}
	return base
}

func flagsOrDefault(base, saved *RiskFlags) *RiskFlags {
	if saved != nil {
		return saved
	}
	if base != nil {
		return base
	}
	return &RiskFlags{}
}

func signOffOrDefault(base *Document, saved *SignOff) *SignOff {
	if saved != nil {
		return saved
	}
	return &SignOff{
		Method:     "Electronic",
		ApprovedBy: base.Therapist.FullName,
		ApprovedOn: base.Meta.ReportDate,
	}
}

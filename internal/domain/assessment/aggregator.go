package assessment

import (
	"context"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Aggregator classifies form instances as done/not-done across a session
// window and extracts per-tool scores. Aggregation failures degrade to an
// empty result so a report renders with partial data rather than not at all.
type Aggregator struct {
	repo Repository
	log  zerolog.Logger
}

func NewAggregator(repo Repository, log zerolog.Logger) *Aggregator {
	return &Aggregator{repo: repo, log: log}
}

// Aggregate collects form instances for the given sessions and classifies
// each form under the completion policy. Callers pass only active session
// IDs; INACTIVE sessions are excluded upstream by the session history
// resolver. The SESSION-SUMMARY attendance form is never aggregated.
func (a *Aggregator) Aggregate(ctx context.Context, sessionIDs []int64, policy Policy) []Summary {
	instances, err := a.repo.ListInstances(ctx, sessionIDs)
	if err != nil {
		a.log.Warn().Err(err).Msg("assessment aggregation: listing instances failed")
		return []Summary{}
	}

	feedback, err := a.repo.FindFeedback(ctx, FeedbackFilter{SessionIDs: sessionIDs})
	if err != nil {
		a.log.Warn().Err(err).Msg("assessment aggregation: feedback lookup failed")
		return []Summary{}
	}

	// Client-scoped instances (null session_id) match client-scoped feedback.
	seen := map[uuid.UUID]bool{}
	for _, in := range instances {
		if !in.IsSent || in.SessionID != nil || in.ClientID == nil || seen[*in.ClientID] {
			continue
		}
		seen[*in.ClientID] = true
		rows, err := a.repo.FindFeedback(ctx, FeedbackFilter{ClientID: in.ClientID})
		if err != nil {
			a.log.Warn().Err(err).Stringer("client_id", *in.ClientID).
				Msg("assessment aggregation: client feedback lookup failed")
			return []Summary{}
		}
		feedback = append(feedback, rows...)
	}

	type group struct {
		form      Form
		total     int
		completed int
		latest    *FeedbackRow
	}
	groups := map[int64]*group{}
	for i := range instances {
		in := instances[i]
		// Rows that were scheduled but never sent to the client cannot be
		// completed and must not count toward the policy totals.
		if !in.IsSent || in.FormCode == FormCodeSessionSummary {
			continue
		}
		g := groups[in.FormID]
		if g == nil {
			g = &group{form: Form{FormID: in.FormID, FormCode: in.FormCode, FormName: in.FormName}}
			groups[in.FormID] = g
		}
		g.total++
		if instanceComplete(in, feedback) {
			g.completed++
		}
	}
	for i := range feedback {
		fb := &feedback[i]
		g := groups[fb.FormID]
		if g == nil {
			continue
		}
		if g.latest == nil || fb.CreatedAt.After(g.latest.CreatedAt) {
			g.latest = fb
		}
	}

	out := make([]Summary, 0, len(groups))
	for _, g := range groups {
		done := false
		switch policy {
		case PolicyAll:
			done = g.total > 0 && g.completed == g.total
		default:
			done = g.completed > 0
		}
		s := Summary{Tool: g.form.FormName, Score: ScoreNA, Done: done,
			DoneNames: []string{}, NotDoneNames: []string{}}
		if g.latest != nil {
			s.Score = scoreOf(*g.latest)
		}
		if done {
			s.DoneNames = append(s.DoneNames, g.form.FormName)
		} else {
			s.NotDoneNames = append(s.NotDoneNames, g.form.FormName)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tool < out[j].Tool })
	return out
}

// Recent returns the most recently submitted assessments for display,
// capped to RecentLimit rows, newest first.
func (a *Aggregator) Recent(ctx context.Context, sessionIDs []int64) []Summary {
	feedback, err := a.repo.FindFeedback(ctx, FeedbackFilter{SessionIDs: sessionIDs})
	if err != nil {
		a.log.Warn().Err(err).Msg("assessment aggregation: recent feedback lookup failed")
		return []Summary{}
	}
	sort.Slice(feedback, func(i, j int) bool {
		return feedback[i].CreatedAt.After(feedback[j].CreatedAt)
	})

	out := []Summary{}
	for _, fb := range feedback {
		if fb.FormCode == FormCodeSessionSummary {
			continue
		}
		out = append(out, Summary{
			Tool:         fb.FormName,
			Score:        scoreOf(fb),
			Done:         true,
			DoneNames:    []string{fb.FormName},
			NotDoneNames: []string{},
		})
		if len(out) == RecentLimit {
			break
		}
	}
	return out
}

// LatestSmartGoal returns the newest SMART-goal text across the session
// window, or nil. Lookup failures degrade to nil.
func (a *Aggregator) LatestSmartGoal(ctx context.Context, sessionIDs []int64) *string {
	text, err := a.repo.LatestSmartGoal(ctx, sessionIDs)
	if err != nil {
		a.log.Warn().Err(err).Msg("assessment aggregation: smart goal lookup failed")
		return nil
	}
	return text
}

func instanceComplete(in Instance, feedback []FeedbackRow) bool {
	for i := range feedback {
		fb := &feedback[i]
		if fb.FormID != in.FormID {
			continue
		}
		if in.SessionID != nil {
			if fb.SessionID != nil && *fb.SessionID == *in.SessionID {
				return true
			}
			continue
		}
		if in.ClientID != nil && fb.SessionID == nil &&
			fb.ClientID != nil && *fb.ClientID == *in.ClientID {
			return true
		}
	}
	return false
}

// scoreOf checks the per-tool score columns in fixed priority order and
// returns the first populated score, stringified.
func scoreOf(fb FeedbackRow) string {
	switch {
	case fb.PHQ9Score != nil:
		return strconv.Itoa(*fb.PHQ9Score)
	case fb.GAD7Score != nil:
		return strconv.Itoa(*fb.GAD7Score)
	case fb.PCL5Score != nil:
		return strconv.Itoa(*fb.PCL5Score)
	case fb.WHODASOverall != nil:
		return strconv.FormatFloat(*fb.WHODASOverall, 'f', -1, 64)
	case fb.GASTotal != nil:
		return strconv.FormatFloat(*fb.GASTotal, 'f', -1, 64)
	default:
		return ScoreNA
	}
}

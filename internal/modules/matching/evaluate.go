// README: Pure scoring and eligibility evaluation; no I/O, safe to run concurrently.
package matching

import (
	"fmt"
	"sort"
	"strings"

	"shiftmatch/internal/modules/matchconfig"
	"shiftmatch/internal/modules/worker"
)

// distanceDecayMiles is where the inverse-distance contribution reaches zero.
const distanceDecayMiles = 25.0

// maxHistoryVisits caps the prior-relationship factor so long histories do not
// dominate the score.
const maxHistoryVisits = 10

// EvaluateMatch scores one worker context against a shift. Hard eligibility
// failures set IsEligible=false but never short-circuit scoring, so close but
// blocked candidates remain explainable and re-evaluable if blockers clear.
func EvaluateMatch(req ShiftRequest, wctx *WorkerMatchContext, cfg *matchconfig.Configuration) MatchCandidate {
	w := wctx.Worker
	c := MatchCandidate{
		WorkerID:         w.ID,
		WorkerName:       w.Name(),
		IsEligible:       true,
		Reliability:      wctx.ReliabilityScore,
		RecentRejections: wctx.RecentRejections,
		DistanceMiles:    wctx.DistanceMiles,
	}

	// --- Hard gates ---

	if req.IsBlocked(w.ID) {
		c.fail("worker is on the shift's blocked list")
	}

	held := 0
	for _, r := range req.Requirements {
		// A certification requirement is only met by a held certification; a
		// skill listed under the same name does not substitute for it.
		has := w.HasSkill(r.Name)
		if r.Kind == KindCertification {
			has = w.HasCertification(r.Name)
		}
		if has {
			held++
			continue
		}
		if r.Mandatory {
			c.fail(fmt.Sprintf("missing required %s: %s", r.Kind, r.Name))
		}
	}

	comp, hasComp := w.ComplianceFor(req.State)
	switch {
	case !hasComp:
		c.fail(fmt.Sprintf("no background/registry check on file for %s", req.State))
	case comp.Registry != worker.RegistryCleared:
		c.fail(fmt.Sprintf("background/registry check for %s is %s, not cleared", req.State, comp.Registry))
	}

	projected := wctx.CurrentWeekHours + req.DurationHours()
	if projected > cfg.MaxWeeklyHours {
		c.fail(fmt.Sprintf("would exceed maximum weekly hours (%.1f + %.1f > %.1f)",
			wctx.CurrentWeekHours, req.DurationHours(), cfg.MaxWeeklyHours))
	} else if projected > cfg.MaxWeeklyHours*0.9 {
		c.warn(fmt.Sprintf("approaching weekly hour limit (%.1f of %.1f)", projected, cfg.MaxWeeklyHours))
	}

	for _, ov := range wctx.Conflicts {
		c.fail(fmt.Sprintf("conflicts with visit %s for %s (%s–%s)",
			ov.VisitID, ov.ClientName,
			ov.StartTime.Format("15:04"), ov.EndTime.Format("15:04")))
	}

	if req.MaxDistanceMiles != nil && wctx.DistanceMiles != nil && *wctx.DistanceMiles > *req.MaxDistanceMiles {
		c.fail(fmt.Sprintf("%.1f miles away, beyond the %.1f mile limit",
			*wctx.DistanceMiles, *req.MaxDistanceMiles))
	}

	// --- Scoring (applies regardless of eligibility) ---

	score := 0.0

	if n := len(req.Requirements); n > 0 {
		contrib := cfg.Weights.SkillMatch * float64(held) / float64(n)
		score += contrib
		if held > 0 {
			c.reason(fmt.Sprintf("holds %d of %d requested skills and certifications", held, n))
		}
	} else {
		// Nothing requested: full credit so unskilled shifts rank on other signals.
		score += cfg.Weights.SkillMatch
	}

	if req.PreferredLanguage != "" {
		if w.SpeaksLanguage(req.PreferredLanguage) {
			score += cfg.Weights.LanguageMatch
			c.reason(fmt.Sprintf("speaks preferred language %s", req.PreferredLanguage))
		} else {
			c.warn(fmt.Sprintf("does not speak preferred language %s", req.PreferredLanguage))
		}
	}

	if req.PreferredGender != "" && !strings.EqualFold(w.Gender, req.PreferredGender) {
		c.warn("does not match the client's gender preference")
	}

	if hasComp {
		if comp.EVVEnrolled {
			score += cfg.Weights.Compliance * 0.5
			c.reason(fmt.Sprintf("enrolled in %s electronic visit verification", req.State))
		}
		if comp.ProviderID != "" {
			score += cfg.Weights.Compliance * 0.5
			c.reason(fmt.Sprintf("active %s provider id on file", req.State))
		}
	}

	if wctx.DistanceMiles != nil {
		factor := 1.0 - *wctx.DistanceMiles/distanceDecayMiles
		if factor < 0 {
			factor = 0
		}
		score += cfg.Weights.Distance * factor
		c.reason(fmt.Sprintf("%.1f miles from the client", *wctx.DistanceMiles))
	} else {
		c.warn("distance to client unknown")
	}

	score += cfg.Weights.Reliability * wctx.ReliabilityScore / 100.0
	c.reason(fmt.Sprintf("reliability score %.0f of 100", wctx.ReliabilityScore))

	if wctx.PriorVisits.VisitCount > 0 {
		factor := float64(min(wctx.PriorVisits.VisitCount, maxHistoryVisits)) / float64(maxHistoryVisits)
		if wctx.PriorVisits.HasRating {
			factor *= wctx.PriorVisits.AvgRating / 5.0
			c.reason(fmt.Sprintf("%d prior visits with this client, rated %.1f of 5",
				wctx.PriorVisits.VisitCount, wctx.PriorVisits.AvgRating))
		} else {
			c.reason(fmt.Sprintf("%d prior visits with this client", wctx.PriorVisits.VisitCount))
		}
		score += cfg.Weights.History * factor
	}

	if wctx.RecentRejections > 0 {
		score -= cfg.Weights.RejectionPenalty * float64(wctx.RecentRejections)
		c.warn(fmt.Sprintf("declined %d proposals in the last 30 days", wctx.RecentRejections))
	}

	if score < 0 {
		score = 0
	}
	c.OverallScore = score
	c.Quality = qualityFor(score, cfg.QualityCutoffs)
	return c
}

// RankCandidates orders candidates best first: score descending, ties broken by
// higher reliability, then fewer recent rejections, then closer distance.
// The sort is stable and fully deterministic; re-ranking an identical list
// yields an identical order.
func RankCandidates(candidates []MatchCandidate) []MatchCandidate {
	ranked := make([]MatchCandidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.OverallScore != b.OverallScore {
			return a.OverallScore > b.OverallScore
		}
		if a.Reliability != b.Reliability {
			return a.Reliability > b.Reliability
		}
		if a.RecentRejections != b.RecentRejections {
			return a.RecentRejections < b.RecentRejections
		}
		return lessDistance(a.DistanceMiles, b.DistanceMiles)
	})
	return ranked
}

// lessDistance treats unknown distance as farther than any known one.
func lessDistance(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}

func qualityFor(score float64, cut matchconfig.QualityCutoffs) Quality {
	switch {
	case score >= cut.Excellent:
		return QualityExcellent
	case score >= cut.Good:
		return QualityGood
	case score >= cut.Fair:
		return QualityFair
	default:
		return QualityPoor
	}
}

func (c *MatchCandidate) fail(issue string) {
	c.IsEligible = false
	c.EligibilityIssues = append(c.EligibilityIssues, issue)
}

func (c *MatchCandidate) reason(r string) {
	c.MatchReasons = append(c.MatchReasons, r)
}

func (c *MatchCandidate) warn(w string) {
	c.Warnings = append(c.Warnings, w)
}

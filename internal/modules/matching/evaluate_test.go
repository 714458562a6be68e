// README: Matching algorithm tests (eligibility gates, scoring, ranking determinism).
package matching

import (
	"math"
	"strings"
	"testing"
	"time"

	"shiftmatch/internal/modules/matchconfig"
	"shiftmatch/internal/modules/visit"
	"shiftmatch/internal/modules/worker"
	"shiftmatch/internal/types"
)

func testConfig() *matchconfig.Configuration {
	cfg := matchconfig.Default("org1")
	return &cfg
}

func testWorker(id string) *worker.Worker {
	return &worker.Worker{
		ID:             types.ID(id),
		OrgID:          "org1",
		Status:         worker.StatusActive,
		FirstName:      "Ada",
		LastName:       "Nguyen",
		Certifications: []string{"HHA", "CPR"},
		Skills:         []string{"dementia care"},
		Languages:      []string{"English", "Spanish"},
		Compliance: []worker.JurisdictionCompliance{
			{State: "OH", Registry: worker.RegistryCleared, EVVEnrolled: true, ProviderID: "OH-1234"},
		},
	}
}

func testContext(w *worker.Worker) *WorkerMatchContext {
	return &WorkerMatchContext{
		Worker:           w,
		CurrentWeekHours: 10,
		ReliabilityScore: 80,
	}
}

func testRequest() ShiftRequest {
	day := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	return ShiftRequest{
		ShiftID:      "shift1",
		ClientID:     "client1",
		State:        "OH",
		Date:         day,
		StartTime:    day.Add(9 * time.Hour),
		EndTime:      day.Add(13 * time.Hour),
		Requirements: []Requirement{Certification("HHA")},
	}
}

func hasIssueContaining(c MatchCandidate, substr string) bool {
	for _, issue := range c.EligibilityIssues {
		if strings.Contains(issue, substr) {
			return true
		}
	}
	return false
}

func TestEvaluateMatch_EligibleBaseline(t *testing.T) {
	c := EvaluateMatch(testRequest(), testContext(testWorker("w1")), testConfig())
	if !c.IsEligible {
		t.Fatalf("expected eligible, got issues: %v", c.EligibilityIssues)
	}
	if len(c.EligibilityIssues) != 0 {
		t.Fatalf("eligible candidate has issues: %v", c.EligibilityIssues)
	}
	if c.OverallScore <= 0 {
		t.Fatalf("expected positive score, got %f", c.OverallScore)
	}
	if len(c.MatchReasons) == 0 {
		t.Fatal("expected match reasons for an eligible candidate")
	}
}

func TestEvaluateMatch_BlockedWorker(t *testing.T) {
	req := testRequest()
	req.BlockedWorkerIDs = []types.ID{"w1"}
	c := EvaluateMatch(req, testContext(testWorker("w1")), testConfig())
	if c.IsEligible {
		t.Fatal("blocked worker must not be eligible")
	}
	if !hasIssueContaining(c, "blocked") {
		t.Fatalf("missing blocked-list issue: %v", c.EligibilityIssues)
	}
}

func TestEvaluateMatch_MissingMandatoryCertification(t *testing.T) {
	req := testRequest()
	req.Requirements = []Requirement{Certification("RN")}
	c := EvaluateMatch(req, testContext(testWorker("w1")), testConfig())
	if c.IsEligible {
		t.Fatal("missing mandatory certification must fail eligibility")
	}
	if !hasIssueContaining(c, "RN") {
		t.Fatalf("issue should name the missing certification: %v", c.EligibilityIssues)
	}
}

func TestEvaluateMatch_SkillDoesNotSatisfyCertification(t *testing.T) {
	w := testWorker("w1")
	w.Certifications = []string{"CPR"}
	w.Skills = append(w.Skills, "HHA")
	c := EvaluateMatch(testRequest(), testContext(w), testConfig())
	if c.IsEligible {
		t.Fatal("a skill entry must not stand in for a required certification")
	}
	if !hasIssueContaining(c, "HHA") {
		t.Fatalf("issue should name the missing certification: %v", c.EligibilityIssues)
	}
}

func TestEvaluateMatch_OptionalSkillScoredNotGated(t *testing.T) {
	req := testRequest()
	req.Requirements = []Requirement{Certification("HHA"), Skill("wound care")}
	c := EvaluateMatch(req, testContext(testWorker("w1")), testConfig())
	if !c.IsEligible {
		t.Fatalf("optional skill must not gate eligibility: %v", c.EligibilityIssues)
	}

	full := req
	full.Requirements = []Requirement{Certification("HHA"), Skill("dementia care")}
	better := EvaluateMatch(full, testContext(testWorker("w1")), testConfig())
	if better.OverallScore <= c.OverallScore {
		t.Fatalf("holding the optional skill should score higher: %f vs %f",
			better.OverallScore, c.OverallScore)
	}
}

func TestEvaluateMatch_RegistryGate(t *testing.T) {
	cases := []struct {
		name       string
		compliance []worker.JurisdictionCompliance
		wantIssue  string
	}{
		{"flagged", []worker.JurisdictionCompliance{{State: "OH", Registry: worker.RegistryFlagged}}, "flagged"},
		{"pending", []worker.JurisdictionCompliance{{State: "OH", Registry: worker.RegistryPending}}, "pending"},
		{"missing state", []worker.JurisdictionCompliance{{State: "PA", Registry: worker.RegistryCleared}}, "no background"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := testWorker("w1")
			w.Compliance = tc.compliance
			c := EvaluateMatch(testRequest(), testContext(w), testConfig())
			if c.IsEligible {
				t.Fatal("uncleared registry check must fail eligibility")
			}
			if !hasIssueContaining(c, tc.wantIssue) {
				t.Fatalf("want issue containing %q, got %v", tc.wantIssue, c.EligibilityIssues)
			}
		})
	}
}

func TestEvaluateMatch_WeeklyHoursGate(t *testing.T) {
	wctx := testContext(testWorker("w1"))
	wctx.CurrentWeekHours = 38 // +4h shift exceeds the 40h default
	c := EvaluateMatch(testRequest(), wctx, testConfig())
	if c.IsEligible {
		t.Fatal("exceeding weekly hours must fail eligibility")
	}
	if !hasIssueContaining(c, "weekly hours") {
		t.Fatalf("missing weekly-hours issue: %v", c.EligibilityIssues)
	}
}

func TestEvaluateMatch_NearWeeklyLimitWarns(t *testing.T) {
	wctx := testContext(testWorker("w1"))
	wctx.CurrentWeekHours = 33 // 37 of 40 projected: above the 90% warn line
	c := EvaluateMatch(testRequest(), wctx, testConfig())
	if !c.IsEligible {
		t.Fatalf("should stay eligible near the limit: %v", c.EligibilityIssues)
	}
	found := false
	for _, w := range c.Warnings {
		if strings.Contains(w, "weekly hour limit") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected near-limit warning, got %v", c.Warnings)
	}
}

func TestEvaluateMatch_ConflictGate(t *testing.T) {
	wctx := testContext(testWorker("w1"))
	req := testRequest()
	wctx.Conflicts = []visit.Overlap{{
		VisitID:    "v9",
		ClientName: "B. Okafor",
		StartTime:  req.StartTime.Add(time.Hour),
		EndTime:    req.StartTime.Add(2 * time.Hour),
	}}
	c := EvaluateMatch(req, wctx, testConfig())
	if c.IsEligible {
		t.Fatal("a time-overlapping visit is always a hard failure")
	}
	if !hasIssueContaining(c, "v9") {
		t.Fatalf("issue should name the conflicting visit: %v", c.EligibilityIssues)
	}
}

func TestEvaluateMatch_DistanceGate(t *testing.T) {
	maxMiles := 10.0
	req := testRequest()
	req.MaxDistanceMiles = &maxMiles

	far := 12.5
	wctx := testContext(testWorker("w1"))
	wctx.DistanceMiles = &far
	c := EvaluateMatch(req, wctx, testConfig())
	if c.IsEligible {
		t.Fatal("distance beyond the shift limit must fail eligibility")
	}

	// Unknown distance is not a gate, only a warning and zero distance bonus.
	unknown := testContext(testWorker("w1"))
	c2 := EvaluateMatch(req, unknown, testConfig())
	if !c2.IsEligible {
		t.Fatalf("unknown distance must not gate: %v", c2.EligibilityIssues)
	}
	warned := false
	for _, w := range c2.Warnings {
		if strings.Contains(w, "distance") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected unknown-distance warning, got %v", c2.Warnings)
	}
}

func TestEvaluateMatch_IneligibleStillScored(t *testing.T) {
	req := testRequest()
	req.Requirements = []Requirement{Certification("RN")}
	c := EvaluateMatch(req, testContext(testWorker("w1")), testConfig())
	if c.IsEligible {
		t.Fatal("precondition: candidate should be ineligible")
	}
	if c.OverallScore <= 0 {
		t.Fatalf("ineligible candidates are still scored, got %f", c.OverallScore)
	}
	if c.Quality == "" {
		t.Fatal("ineligible candidates still get a quality band")
	}
}

func TestEvaluateMatch_ScoreContributions(t *testing.T) {
	base := EvaluateMatch(testRequest(), testContext(testWorker("w1")), testConfig())

	// Preferred language the worker speaks adds the language weight.
	req := testRequest()
	req.PreferredLanguage = "Spanish"
	withLang := EvaluateMatch(req, testContext(testWorker("w1")), testConfig())
	if diff := withLang.OverallScore - base.OverallScore; math.Abs(diff-5) > 0.001 {
		t.Fatalf("language bonus = %f, want 5", diff)
	}

	// Prior relationship with a good rating adds history weight.
	wctx := testContext(testWorker("w1"))
	wctx.PriorVisits = visit.ClientStats{VisitCount: 10, AvgRating: 5, HasRating: true}
	withHistory := EvaluateMatch(testRequest(), wctx, testConfig())
	if withHistory.OverallScore <= base.OverallScore {
		t.Fatalf("prior relationship should raise the score: %f vs %f",
			withHistory.OverallScore, base.OverallScore)
	}

	// Recent rejections subtract a proportional penalty.
	wctx2 := testContext(testWorker("w1"))
	wctx2.RecentRejections = 3
	withRejections := EvaluateMatch(testRequest(), wctx2, testConfig())
	if diff := base.OverallScore - withRejections.OverallScore; math.Abs(diff-6) > 0.001 {
		t.Fatalf("rejection penalty = %f, want 6", diff)
	}

	// Closer distance beats farther distance.
	near, farAway := 2.0, 20.0
	wNear := testContext(testWorker("w1"))
	wNear.DistanceMiles = &near
	wFar := testContext(testWorker("w1"))
	wFar.DistanceMiles = &farAway
	if EvaluateMatch(testRequest(), wNear, testConfig()).OverallScore <=
		EvaluateMatch(testRequest(), wFar, testConfig()).OverallScore {
		t.Fatal("closer distance should score higher")
	}
}

func TestQualityBands(t *testing.T) {
	cut := matchconfig.QualityCutoffs{Excellent: 80, Good: 60, Fair: 40}
	cases := []struct {
		score float64
		want  Quality
	}{
		{95, QualityExcellent},
		{80, QualityExcellent},
		{79.9, QualityGood},
		{60, QualityGood},
		{41, QualityFair},
		{39.9, QualityPoor},
		{0, QualityPoor},
	}
	for _, tc := range cases {
		if got := qualityFor(tc.score, cut); got != tc.want {
			t.Errorf("qualityFor(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestRankCandidates_ScoreOrderAndDeterminism(t *testing.T) {
	d1, d2 := 3.0, 8.0
	candidates := []MatchCandidate{
		{WorkerID: "a", OverallScore: 60, Reliability: 70},
		{WorkerID: "b", OverallScore: 80, Reliability: 50},
		{WorkerID: "c", OverallScore: 60, Reliability: 90},
		{WorkerID: "d", OverallScore: 60, Reliability: 90, RecentRejections: 2},
		{WorkerID: "e", OverallScore: 60, Reliability: 70, DistanceMiles: &d1},
		{WorkerID: "f", OverallScore: 60, Reliability: 70, DistanceMiles: &d2},
	}

	first := RankCandidates(candidates)
	second := RankCandidates(candidates)
	for i := range first {
		if first[i].WorkerID != second[i].WorkerID {
			t.Fatalf("ranking is not deterministic at %d: %s vs %s",
				i, first[i].WorkerID, second[i].WorkerID)
		}
	}

	// Highest score first.
	if first[0].WorkerID != "b" {
		t.Fatalf("expected b first, got %s", first[0].WorkerID)
	}
	// A strictly higher score never ranks below a lower one.
	for i := 1; i < len(first); i++ {
		if first[i].OverallScore > first[i-1].OverallScore {
			t.Fatalf("score inversion at %d", i)
		}
	}

	pos := map[types.ID]int{}
	for i, c := range first {
		pos[c.WorkerID] = i
	}
	// Tie at 60: higher reliability first.
	if pos["c"] > pos["a"] {
		t.Fatal("higher reliability should break the tie")
	}
	// Same reliability: fewer recent rejections first.
	if pos["c"] > pos["d"] {
		t.Fatal("fewer rejections should break the tie")
	}
	// Same reliability and rejections: closer distance first, known before unknown.
	if pos["e"] > pos["f"] {
		t.Fatal("closer distance should break the tie")
	}
	if pos["e"] > pos["a"] {
		t.Fatal("known distance should rank before unknown at full tie")
	}
}

func TestRankCandidates_DoesNotMutateInput(t *testing.T) {
	candidates := []MatchCandidate{
		{WorkerID: "a", OverallScore: 10},
		{WorkerID: "b", OverallScore: 90},
	}
	RankCandidates(candidates)
	if candidates[0].WorkerID != "a" || candidates[1].WorkerID != "b" {
		t.Fatal("input slice was reordered")
	}
}

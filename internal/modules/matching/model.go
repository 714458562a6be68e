// README: Matching inputs and outputs: shift requirements, worker context, candidates.
package matching

import (
	"time"

	"shiftmatch/internal/modules/visit"
	"shiftmatch/internal/modules/worker"
	"shiftmatch/internal/types"
)

// RequirementKind distinguishes credentials from skills. Whether a given
// requirement gates eligibility is per-requirement policy, not a fixed split.
type RequirementKind string

const (
	KindCertification RequirementKind = "certification"
	KindSkill         RequirementKind = "skill"
)

type Requirement struct {
	Name string
	Kind RequirementKind
	// Mandatory requirements are eligibility gates; the rest only score.
	Mandatory bool
}

// Certification returns a mandatory certification requirement, the common case.
func Certification(name string) Requirement {
	return Requirement{Name: name, Kind: KindCertification, Mandatory: true}
}

// Skill returns a scored-only skill requirement.
func Skill(name string) Requirement {
	return Requirement{Name: name, Kind: KindSkill}
}

// ShiftRequest is the algorithm's view of an open shift. The orchestrator maps
// its persisted shift onto this before evaluation so the algorithm stays free
// of storage concerns.
type ShiftRequest struct {
	ShiftID           types.ID
	ClientID          types.ID
	State             string
	Date              time.Time
	StartTime         time.Time
	EndTime           time.Time
	Requirements      []Requirement
	PreferredLanguage string
	PreferredGender   string
	MaxDistanceMiles  *float64
	Location          *types.Point
	BlockedWorkerIDs  []types.ID
	Urgent            bool
}

func (r ShiftRequest) DurationHours() float64 {
	return r.EndTime.Sub(r.StartTime).Hours()
}

func (r ShiftRequest) IsBlocked(id types.ID) bool {
	for _, b := range r.BlockedWorkerIDs {
		if b == id {
			return true
		}
	}
	return false
}

// WorkerMatchContext holds the per-candidate facts evaluation needs. It is
// recomputed on every match attempt and never persisted.
type WorkerMatchContext struct {
	Worker           *worker.Worker
	CurrentWeekHours float64
	Conflicts        []visit.Overlap
	PriorVisits      visit.ClientStats
	ReliabilityScore float64
	RecentRejections int
	// DistanceMiles is nil when either coordinate is missing; the algorithm
	// treats that as unknown, not as zero.
	DistanceMiles *float64
}

type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
)

// MatchCandidate is the evaluated result for one worker. Ineligible candidates
// are still returned with their reasons so callers can explain the outcome.
type MatchCandidate struct {
	WorkerID          types.ID
	WorkerName        string
	OverallScore      float64
	Quality           Quality
	IsEligible        bool
	EligibilityIssues []string
	MatchReasons      []string
	Warnings          []string

	// Tie-break inputs carried alongside the score.
	Reliability      float64
	RecentRejections int
	DistanceMiles    *float64
}

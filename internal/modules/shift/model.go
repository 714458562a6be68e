// README: Open shift aggregate and matching-status state machine.
package shift

import (
	"time"

	"shiftmatch/internal/modules/matching"
	"shiftmatch/internal/types"
)

type MatchingStatus string

const (
	StatusNew       MatchingStatus = "new"
	StatusMatching  MatchingStatus = "matching"
	StatusMatched   MatchingStatus = "matched"
	StatusNoMatch   MatchingStatus = "no_match"
	StatusProposed  MatchingStatus = "proposed"
	StatusAssigned  MatchingStatus = "assigned"
	StatusCancelled MatchingStatus = "cancelled"
)

// AllowedTransitions represents the shift state flow (diagram) as code.
// ASSIGNED and CANCELLED are terminal. Self-selection can assign a shift from
// any non-terminal state, so ASSIGNED is reachable outside the PROPOSED path.
var AllowedTransitions = map[MatchingStatus][]MatchingStatus{
	StatusNew:      {StatusMatching, StatusAssigned, StatusCancelled},
	StatusMatching: {StatusMatched, StatusNoMatch, StatusCancelled},
	StatusMatched:  {StatusProposed, StatusMatching, StatusAssigned, StatusCancelled},
	StatusNoMatch:  {StatusMatching, StatusAssigned, StatusCancelled},
	StatusProposed: {StatusAssigned, StatusMatched, StatusCancelled},
}

func CanTransition(from, to MatchingStatus) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func (s MatchingStatus) IsTerminal() bool {
	return s == StatusAssigned || s == StatusCancelled
}

// OpenShift is a unit of work awaiting a worker assignment. Created when a
// visit becomes unassigned; mutated only through status-guarded updates.
type OpenShift struct {
	ID       types.ID
	OrgID    types.ID
	BranchID *types.ID
	VisitID  types.ID
	ClientID types.ID

	ServiceType string
	Date        time.Time
	StartTime   time.Time
	EndTime     time.Time

	Requirements      []matching.Requirement
	PreferredLanguage string
	PreferredGender   string
	MaxDistanceMiles  *float64
	Location          *types.Point
	// State is the shift's jurisdiction code, e.g. "OH".
	State  string
	Urgent bool

	MatchingStatus   MatchingStatus
	StatusVersion    int
	MatchAttempts    int
	BlockedWorkerIDs []types.ID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MatchRequest maps the persisted shift onto the algorithm's input view.
func (s *OpenShift) MatchRequest() matching.ShiftRequest {
	return matching.ShiftRequest{
		ShiftID:           s.ID,
		ClientID:          s.ClientID,
		State:             s.State,
		Date:              s.Date,
		StartTime:         s.StartTime,
		EndTime:           s.EndTime,
		Requirements:      s.Requirements,
		PreferredLanguage: s.PreferredLanguage,
		PreferredGender:   s.PreferredGender,
		MaxDistanceMiles:  s.MaxDistanceMiles,
		Location:          s.Location,
		BlockedWorkerIDs:  s.BlockedWorkerIDs,
		Urgent:            s.Urgent,
	}
}

func (s *OpenShift) IsBlocked(workerID types.ID) bool {
	for _, b := range s.BlockedWorkerIDs {
		if b == workerID {
			return true
		}
	}
	return false
}

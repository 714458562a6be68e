// README: Assignment proposal aggregate and its state machine.
package shift

import (
	"time"

	"shiftmatch/internal/modules/matching"
	"shiftmatch/internal/types"
)

type ProposalStatus string

const (
	ProposalPending    ProposalStatus = "pending"
	ProposalSent       ProposalStatus = "sent"
	ProposalViewed     ProposalStatus = "viewed"
	ProposalAccepted   ProposalStatus = "accepted"
	ProposalRejected   ProposalStatus = "rejected"
	ProposalExpired    ProposalStatus = "expired"
	ProposalSuperseded ProposalStatus = "superseded"
)

// ProposalTransitions: ACCEPTED, REJECTED, EXPIRED, and SUPERSEDED are
// terminal. Every open status can expire or be superseded.
var ProposalTransitions = map[ProposalStatus][]ProposalStatus{
	ProposalPending: {ProposalSent, ProposalAccepted, ProposalRejected, ProposalExpired, ProposalSuperseded},
	ProposalSent:    {ProposalViewed, ProposalAccepted, ProposalRejected, ProposalExpired, ProposalSuperseded},
	ProposalViewed:  {ProposalAccepted, ProposalRejected, ProposalExpired, ProposalSuperseded},
}

func CanProposalTransition(from, to ProposalStatus) bool {
	next, ok := ProposalTransitions[from]
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

// IsOpen reports whether the proposal can still be acted on.
func (s ProposalStatus) IsOpen() bool {
	return s == ProposalPending || s == ProposalSent || s == ProposalViewed
}

type ProposalMethod string

const (
	MethodAutomatic  ProposalMethod = "automatic"
	MethodSelfSelect ProposalMethod = "self_select"
)

// AssignmentProposal is a time-boxed offer of a shift to a worker. The score,
// quality, and reasons are a frozen snapshot from proposal time, never
// recomputed. Proposals are never deleted, only resolved, to keep the audit
// trail intact.
type AssignmentProposal struct {
	ID       types.ID
	ShiftID  types.ID
	WorkerID types.ID
	// ConfigID pins the configuration version in force when the proposal was
	// issued; expiration is judged against it.
	ConfigID types.ID

	Method        ProposalMethod
	Status        ProposalStatus
	StatusVersion int

	Score        float64
	Quality      matching.Quality
	MatchReasons []string

	SentAt          *time.Time
	ViewedAt        *time.Time
	RespondedAt     *time.Time
	RejectionReason *string

	CreatedAt time.Time
}

// ExpiryReference is the instant expiration is measured from: sentAt when the
// proposal went out, creation time for proposals that never left PENDING.
func (p *AssignmentProposal) ExpiryReference() time.Time {
	if p.SentAt != nil {
		return *p.SentAt
	}
	return p.CreatedAt
}

// README: Append-only match history audit records.
package shift

import (
	"time"

	"shiftmatch/internal/types"
)

type Outcome string

const (
	OutcomeMatched    Outcome = "matched"
	OutcomeNoMatch    Outcome = "no_match"
	OutcomeProposed   Outcome = "proposed"
	OutcomeAccepted   Outcome = "accepted"
	OutcomeRejected   Outcome = "rejected"
	OutcomeExpired    Outcome = "expired"
	OutcomeSuperseded Outcome = "superseded"
	OutcomeError      Outcome = "error"
)

// HistoryRecord is written once per match attempt or proposal resolution and
// never updated. History writes are best-effort: a failed write must not mask
// the primary operation's result.
type HistoryRecord struct {
	ID            types.ID
	ShiftID       types.ID
	AttemptNumber int
	Outcome       Outcome
	ConfigID      *types.ID
	ProposalID    *types.ID
	WorkerID      *types.ID

	EligibleCount   int
	IneligibleCount int
	Notes           string

	CreatedAt time.Time
}

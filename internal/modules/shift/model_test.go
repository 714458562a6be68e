// README: State machine tests for shifts and proposals.
package shift

import (
	"testing"
	"time"
)

// TestCanTransition verifies the shift state machine transition table.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to MatchingStatus
		want     bool
	}{
		// happy-path forward transitions
		{StatusNew, StatusMatching, true},
		{StatusMatching, StatusMatched, true},
		{StatusMatching, StatusNoMatch, true},
		{StatusMatched, StatusProposed, true},
		{StatusProposed, StatusAssigned, true},
		// retries and reverts
		{StatusMatched, StatusMatching, true},  // re-run matching with updated config
		{StatusNoMatch, StatusMatching, true},  // retry after a failed attempt
		{StatusProposed, StatusMatched, true},  // last open proposal rejected/expired
		// self-selection can assign outside the proposed path
		{StatusNew, StatusAssigned, true},
		{StatusMatched, StatusAssigned, true},
		{StatusNoMatch, StatusAssigned, true},
		// cancels from every non-terminal state
		{StatusNew, StatusCancelled, true},
		{StatusMatching, StatusCancelled, true},
		{StatusMatched, StatusCancelled, true},
		{StatusNoMatch, StatusCancelled, true},
		{StatusProposed, StatusCancelled, true},
		// invalid: terminal states have no outgoing transitions
		{StatusAssigned, StatusMatching, false},
		{StatusAssigned, StatusCancelled, false},
		{StatusCancelled, StatusMatching, false},
		// invalid: skipping states
		{StatusNew, StatusMatched, false},
		{StatusNew, StatusProposed, false},
		{StatusMatching, StatusProposed, false},
		{StatusMatching, StatusAssigned, false},
		{StatusNoMatch, StatusProposed, false},
	}
	for _, tc := range cases {
		got := CanTransition(tc.from, tc.to)
		if got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanProposalTransition(t *testing.T) {
	cases := []struct {
		from, to ProposalStatus
		want     bool
	}{
		{ProposalPending, ProposalSent, true},
		{ProposalSent, ProposalViewed, true},
		{ProposalSent, ProposalAccepted, true},
		{ProposalViewed, ProposalAccepted, true},
		{ProposalViewed, ProposalRejected, true},
		// every open status can expire or be superseded
		{ProposalPending, ProposalExpired, true},
		{ProposalSent, ProposalExpired, true},
		{ProposalViewed, ProposalExpired, true},
		{ProposalPending, ProposalSuperseded, true},
		{ProposalSent, ProposalSuperseded, true},
		{ProposalViewed, ProposalSuperseded, true},
		// terminal statuses are dead ends
		{ProposalAccepted, ProposalRejected, false},
		{ProposalRejected, ProposalAccepted, false},
		{ProposalExpired, ProposalSent, false},
		{ProposalSuperseded, ProposalViewed, false},
		// no going backwards
		{ProposalViewed, ProposalSent, false},
		{ProposalSent, ProposalPending, false},
	}
	for _, tc := range cases {
		got := CanProposalTransition(tc.from, tc.to)
		if got != tc.want {
			t.Errorf("CanProposalTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestProposalStatusIsOpen(t *testing.T) {
	open := []ProposalStatus{ProposalPending, ProposalSent, ProposalViewed}
	closed := []ProposalStatus{ProposalAccepted, ProposalRejected, ProposalExpired, ProposalSuperseded}
	for _, s := range open {
		if !s.IsOpen() {
			t.Errorf("expected %s to be open", s)
		}
	}
	for _, s := range closed {
		if s.IsOpen() {
			t.Errorf("expected %s to be closed", s)
		}
	}
}

func TestExpiryReference(t *testing.T) {
	created := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	sent := created.Add(5 * time.Minute)

	p := &AssignmentProposal{CreatedAt: created}
	if got := p.ExpiryReference(); !got.Equal(created) {
		t.Fatalf("pending proposal should expire from creation, got %v", got)
	}
	p.SentAt = &sent
	if got := p.ExpiryReference(); !got.Equal(sent) {
		t.Fatalf("sent proposal should expire from sent time, got %v", got)
	}
}

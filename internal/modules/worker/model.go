// README: Worker profile, certifications, and jurisdiction compliance definitions.
package worker

import (
	"strings"
	"time"

	"shiftmatch/internal/types"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusOnLeave  Status = "on_leave"
)

// RegistryStatus is the outcome of the most recent background/registry check a
// worker has on file for a given state. Anything other than Cleared is a hard
// eligibility failure for shifts in that state.
type RegistryStatus string

const (
	RegistryCleared RegistryStatus = "cleared"
	RegistryPending RegistryStatus = "pending"
	RegistryFlagged RegistryStatus = "flagged"
	RegistryUnknown RegistryStatus = "unknown"
)

// JurisdictionCompliance is the typed, per-state compliance record resolved once
// at the directory boundary instead of being re-read off loose profile fields.
type JurisdictionCompliance struct {
	State       string
	Registry    RegistryStatus
	CheckedAt   *time.Time
	EVVEnrolled bool
	// ProviderID is the state program provider identifier, empty when not enrolled.
	ProviderID string
}

type Worker struct {
	ID             types.ID
	OrgID          types.ID
	BranchID       *types.ID
	Status         Status
	FirstName      string
	LastName       string
	Gender         string
	Certifications []string
	Skills         []string
	Languages      []string
	Location       *types.Point
	Compliance     []JurisdictionCompliance
	// AutoAcceptOptIn lets self-selection resolve immediately when the live score
	// clears the configured auto-accept bar.
	AutoAcceptOptIn bool
}

func (w *Worker) Name() string {
	return strings.TrimSpace(w.FirstName + " " + w.LastName)
}

// ComplianceFor returns the compliance record for a state, if the worker has one.
func (w *Worker) ComplianceFor(state string) (JurisdictionCompliance, bool) {
	for _, c := range w.Compliance {
		if strings.EqualFold(c.State, state) {
			return c, true
		}
	}
	return JurisdictionCompliance{}, false
}

func (w *Worker) HasCertification(name string) bool {
	return containsFold(w.Certifications, name)
}

func (w *Worker) HasSkill(name string) bool {
	return containsFold(w.Skills, name)
}

func (w *Worker) SpeaksLanguage(name string) bool {
	return containsFold(w.Languages, name)
}

func containsFold(list []string, name string) bool {
	for _, v := range list {
		if strings.EqualFold(v, name) {
			return true
		}
	}
	return false
}

// README: Versioned matching configuration (weights, thresholds, expiration window).
package matchconfig

import (
	"errors"
	"fmt"
	"time"

	"shiftmatch/internal/types"
)

var ErrNoConfiguration = errors.New("no active default matching configuration")

// Weights are the per-signal scoring multipliers. Each contribution is the
// weight times a 0..1 signal, except RejectionPenalty which is subtracted per
// recent rejection.
type Weights struct {
	SkillMatch       float64
	LanguageMatch    float64
	Compliance       float64
	Distance         float64
	Reliability      float64
	History          float64
	RejectionPenalty float64
}

// QualityCutoffs band an overall score into ordinal match-quality buckets.
// A score >= Excellent is "excellent", >= Good is "good", >= Fair is "fair",
// anything below is "poor".
type QualityCutoffs struct {
	Excellent float64
	Good      float64
	Fair      float64
}

// Configuration is immutable once referenced by a proposal; tuning writes a new
// version instead of mutating in place.
type Configuration struct {
	ID       types.ID
	Name     string
	Version  int
	OrgID    types.ID
	BranchID *types.ID

	IsDefault bool
	IsActive  bool

	Weights                   Weights
	QualityCutoffs            QualityCutoffs
	MinScoreForProposal       float64
	AutoAcceptMinScore        float64
	MaxProposalsPerShift      int
	ProposalExpirationMinutes int
	MaxWeeklyHours            float64

	// IncludeTravelBuffer widens conflict detection by estimated travel time
	// between back-to-back visits. Off by default.
	IncludeTravelBuffer bool

	CreatedAt time.Time
}

func (c *Configuration) Validate() error {
	if c.Name == "" {
		return errors.New("configuration name is required")
	}
	if c.OrgID == "" {
		return errors.New("organization id is required")
	}
	if c.MaxProposalsPerShift <= 0 {
		return errors.New("maxProposalsPerShift must be positive")
	}
	if c.ProposalExpirationMinutes <= 0 {
		return errors.New("proposalExpirationMinutes must be positive")
	}
	if c.MaxWeeklyHours <= 0 {
		return errors.New("maxWeeklyHours must be positive")
	}
	if c.AutoAcceptMinScore < c.MinScoreForProposal {
		return fmt.Errorf("autoAcceptMinScore %.1f below minScoreForProposal %.1f",
			c.AutoAcceptMinScore, c.MinScoreForProposal)
	}
	return nil
}

// Default returns the stock configuration used when an organization has not
// tuned its own. Also the baseline for tests.
func Default(orgID types.ID) Configuration {
	return Configuration{
		ID:        types.NewID(),
		Name:      "standard",
		Version:   1,
		OrgID:     orgID,
		IsDefault: true,
		IsActive:  true,
		Weights: Weights{
			SkillMatch:       25,
			LanguageMatch:    5,
			Compliance:       10,
			Distance:         15,
			Reliability:      25,
			History:          20,
			RejectionPenalty: 2,
		},
		QualityCutoffs:            QualityCutoffs{Excellent: 80, Good: 60, Fair: 40},
		MinScoreForProposal:       40,
		AutoAcceptMinScore:        75,
		MaxProposalsPerShift:      3,
		ProposalExpirationMinutes: 60,
		MaxWeeklyHours:            40,
		CreatedAt:                 time.Now(),
	}
}

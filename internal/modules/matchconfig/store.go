// README: Matching configuration store backed by PostgreSQL (read-mostly).
package matchconfig

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shiftmatch/internal/types"
)

var ErrNotFound = errors.New("matching configuration not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const configColumns = `
        id, name, version, org_id, branch_id, is_default, is_active,
        weight_skill, weight_language, weight_compliance, weight_distance,
        weight_reliability, weight_history, weight_rejection_penalty,
        cutoff_excellent, cutoff_good, cutoff_fair,
        min_score_for_proposal, auto_accept_min_score,
        max_proposals_per_shift, proposal_expiration_minutes, max_weekly_hours,
        include_travel_buffer, created_at`

func (s *Store) GetByID(ctx context.Context, id types.ID) (*Configuration, error) {
	row := s.db.QueryRow(ctx, `SELECT`+configColumns+` FROM matching_configurations WHERE id = $1`, string(id))
	return scanConfig(row)
}

// Resolve returns the active, default configuration for an (org, branch) pair.
// A branch-scoped configuration wins over the organization-wide one; newest
// version wins within a scope.
func (s *Store) Resolve(ctx context.Context, orgID types.ID, branchID *types.ID) (*Configuration, error) {
	row := s.db.QueryRow(ctx, `
        SELECT`+configColumns+`
        FROM matching_configurations
        WHERE org_id = $1
          AND is_default AND is_active
          AND (branch_id = $2 OR branch_id IS NULL)
        ORDER BY (branch_id IS NOT NULL) DESC, version DESC
        LIMIT 1`,
		string(orgID), toStringPtr(branchID),
	)
	cfg, err := scanConfig(row)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoConfiguration
	}
	return cfg, err
}

// Create persists a new configuration version. Callers pass the fully built
// record; version assignment stays application-side so tests can pin versions.
func (s *Store) Create(ctx context.Context, c *Configuration) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO matching_configurations (`+configColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7,
                $8, $9, $10, $11, $12, $13, $14,
                $15, $16, $17,
                $18, $19, $20, $21, $22, $23, $24)`,
		string(c.ID), c.Name, c.Version, string(c.OrgID), toStringPtr(c.BranchID),
		c.IsDefault, c.IsActive,
		c.Weights.SkillMatch, c.Weights.LanguageMatch, c.Weights.Compliance,
		c.Weights.Distance, c.Weights.Reliability, c.Weights.History,
		c.Weights.RejectionPenalty,
		c.QualityCutoffs.Excellent, c.QualityCutoffs.Good, c.QualityCutoffs.Fair,
		c.MinScoreForProposal, c.AutoAcceptMinScore,
		c.MaxProposalsPerShift, c.ProposalExpirationMinutes, c.MaxWeeklyHours,
		c.IncludeTravelBuffer, c.CreatedAt,
	)
	return err
}

// NextVersion returns one past the highest stored version of a named
// configuration within an organization.
func (s *Store) NextVersion(ctx context.Context, orgID types.ID, name string) (int, error) {
	row := s.db.QueryRow(ctx, `
        SELECT COALESCE(MAX(version), 0) + 1
        FROM matching_configurations
        WHERE org_id = $1 AND name = $2`,
		string(orgID), name,
	)
	var v int
	if err := row.Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// DeactivatePrior marks older versions of a named configuration inactive so
// exactly one default resolves per scope.
func (s *Store) DeactivatePrior(ctx context.Context, orgID types.ID, name string, keepVersion int) error {
	_, err := s.db.Exec(ctx, `
        UPDATE matching_configurations
        SET is_active = FALSE
        WHERE org_id = $1 AND name = $2 AND version < $3`,
		string(orgID), name, keepVersion,
	)
	return err
}

func scanConfig(row pgx.Row) (*Configuration, error) {
	var c Configuration
	var branchID sql.NullString
	err := row.Scan(
		&c.ID, &c.Name, &c.Version, &c.OrgID, &branchID, &c.IsDefault, &c.IsActive,
		&c.Weights.SkillMatch, &c.Weights.LanguageMatch, &c.Weights.Compliance,
		&c.Weights.Distance, &c.Weights.Reliability, &c.Weights.History,
		&c.Weights.RejectionPenalty,
		&c.QualityCutoffs.Excellent, &c.QualityCutoffs.Good, &c.QualityCutoffs.Fair,
		&c.MinScoreForProposal, &c.AutoAcceptMinScore,
		&c.MaxProposalsPerShift, &c.ProposalExpirationMinutes, &c.MaxWeeklyHours,
		&c.IncludeTravelBuffer, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if branchID.Valid {
		b := types.ID(branchID.String)
		c.BranchID = &b
	}
	return &c, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

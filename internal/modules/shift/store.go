// README: Shift/proposal/history store backed by PostgreSQL.
package shift

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shiftmatch/internal/modules/matching"
	"shiftmatch/internal/types"
)

// PgStore implements Store on PostgreSQL. Requirements are stored as jsonb,
// blocked worker IDs as text[].
type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

const shiftColumns = `
	id, org_id, branch_id, visit_id, client_id,
	service_type, shift_date, start_time, end_time,
	requirements, preferred_language, preferred_gender,
	max_distance_miles, location_lat, location_lng, state, urgent,
	matching_status, status_version, match_attempts, blocked_worker_ids,
	created_at, updated_at`

func (s *PgStore) CreateShift(ctx context.Context, sh *OpenShift) error {
	reqs, err := json.Marshal(sh.Requirements)
	if err != nil {
		return err
	}
	var lat, lng *float64
	if sh.Location != nil {
		lat, lng = &sh.Location.Lat, &sh.Location.Lng
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO open_shifts (`+shiftColumns+`
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, $20, $21,
			$22, $23
		)`,
		string(sh.ID),
		string(sh.OrgID),
		idPtr(sh.BranchID),
		string(sh.VisitID),
		string(sh.ClientID),
		sh.ServiceType,
		sh.Date,
		sh.StartTime,
		sh.EndTime,
		reqs,
		sh.PreferredLanguage,
		sh.PreferredGender,
		sh.MaxDistanceMiles,
		lat, lng,
		sh.State,
		sh.Urgent,
		string(sh.MatchingStatus),
		sh.StatusVersion,
		sh.MatchAttempts,
		idsToStrings(sh.BlockedWorkerIDs),
		sh.CreatedAt,
		sh.UpdatedAt,
	)
	return err
}

func (s *PgStore) GetShift(ctx context.Context, id types.ID) (*OpenShift, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+shiftColumns+`
		FROM open_shifts
		WHERE id = $1`, string(id),
	)
	return scanShift(row)
}

// UpdateShiftStatus is a compare-and-set on (status, status_version). A false
// return means another writer got there first.
func (s *PgStore) UpdateShiftStatus(ctx context.Context, id types.ID, from, to MatchingStatus, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE open_shifts
		SET matching_status = $1,
		    status_version = status_version + 1,
		    updated_at = NOW()
		WHERE id = $2 AND matching_status = $3 AND status_version = $4`,
		string(to),
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PgStore) IncrementMatchAttempts(ctx context.Context, id types.ID) (int, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE open_shifts
		SET match_attempts = match_attempts + 1,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING match_attempts`, string(id),
	)
	var attempts int
	err := row.Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

// ListOpenShifts returns non-terminal shifts starting inside [from, to),
// soonest first.
func (s *PgStore) ListOpenShifts(ctx context.Context, orgID types.ID, from, to time.Time) ([]*OpenShift, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+shiftColumns+`
		FROM open_shifts
		WHERE org_id = $1
		  AND start_time >= $2 AND start_time < $3
		  AND matching_status NOT IN ('assigned', 'cancelled')
		ORDER BY start_time ASC`,
		string(orgID), from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*OpenShift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

const proposalColumns = `
	id, shift_id, worker_id, config_id,
	method, status, status_version,
	score, quality, match_reasons,
	sent_at, viewed_at, responded_at, rejection_reason,
	created_at`

func (s *PgStore) CreateProposal(ctx context.Context, p *AssignmentProposal) error {
	reasons, err := json.Marshal(p.MatchReasons)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO assignment_proposals (`+proposalColumns+`
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10,
			$11, $12, $13, $14,
			$15
		)`,
		string(p.ID),
		string(p.ShiftID),
		string(p.WorkerID),
		string(p.ConfigID),
		string(p.Method),
		string(p.Status),
		p.StatusVersion,
		p.Score,
		string(p.Quality),
		reasons,
		p.SentAt,
		p.ViewedAt,
		p.RespondedAt,
		p.RejectionReason,
		p.CreatedAt,
	)
	return err
}

func (s *PgStore) GetProposal(ctx context.Context, id types.ID) (*AssignmentProposal, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+proposalColumns+`
		FROM assignment_proposals
		WHERE id = $1`, string(id),
	)
	return scanProposal(row)
}

// UpdateProposalStatus is the proposal compare-and-set. Lifecycle timestamps
// follow the destination status; the rejection reason is only written on
// rejection.
func (s *PgStore) UpdateProposalStatus(ctx context.Context, id types.ID, from, to ProposalStatus, version int, rejectionReason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE assignment_proposals
		SET status = $1,
		    status_version = status_version + 1,
		    sent_at = CASE WHEN $1 = 'sent' THEN NOW() ELSE sent_at END,
		    viewed_at = CASE WHEN $1 = 'viewed' THEN NOW() ELSE viewed_at END,
		    responded_at = CASE WHEN $1 IN ('accepted', 'rejected') THEN NOW() ELSE responded_at END,
		    rejection_reason = CASE WHEN $1 = 'rejected' THEN $2 ELSE rejection_reason END
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		rejectionReason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PgStore) ListOpenProposalsByShift(ctx context.Context, shiftID types.ID) ([]*AssignmentProposal, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+proposalColumns+`
		FROM assignment_proposals
		WHERE shift_id = $1
		  AND status IN ('pending', 'sent', 'viewed')
		ORDER BY created_at ASC`, string(shiftID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProposals(rows)
}

func (s *PgStore) ListOpenProposals(ctx context.Context) ([]*AssignmentProposal, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+proposalColumns+`
		FROM assignment_proposals
		WHERE status IN ('pending', 'sent', 'viewed')
		ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProposals(rows)
}

// CountRecentRejections counts the worker's rejected proposals since the given
// instant. Feeds the rejection penalty during scoring.
func (s *PgStore) CountRecentRejections(ctx context.Context, workerID types.ID, since time.Time) (int, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM assignment_proposals
		WHERE worker_id = $1
		  AND status = 'rejected'
		  AND responded_at >= $2`,
		string(workerID), since,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PgStore) AppendHistory(ctx context.Context, rec *HistoryRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO match_history (
			id, shift_id, attempt_number, outcome,
			config_id, proposal_id, worker_id,
			eligible_count, ineligible_count, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(rec.ID),
		string(rec.ShiftID),
		rec.AttemptNumber,
		string(rec.Outcome),
		idPtr(rec.ConfigID),
		idPtr(rec.ProposalID),
		idPtr(rec.WorkerID),
		rec.EligibleCount,
		rec.IneligibleCount,
		rec.Notes,
		rec.CreatedAt,
	)
	return err
}

// ListHistory returns a shift's audit trail, oldest first.
func (s *PgStore) ListHistory(ctx context.Context, shiftID types.ID) ([]*HistoryRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, shift_id, attempt_number, outcome,
		       config_id, proposal_id, worker_id,
		       eligible_count, ineligible_count, notes, created_at
		FROM match_history
		WHERE shift_id = $1
		ORDER BY created_at ASC`, string(shiftID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*HistoryRecord
	for rows.Next() {
		var rec HistoryRecord
		var configID, proposalID, workerID sql.NullString
		err := rows.Scan(
			&rec.ID, &rec.ShiftID, &rec.AttemptNumber, &rec.Outcome,
			&configID, &proposalID, &workerID,
			&rec.EligibleCount, &rec.IneligibleCount, &rec.Notes, &rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		rec.ConfigID = nullID(configID)
		rec.ProposalID = nullID(proposalID)
		rec.WorkerID = nullID(workerID)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (*OpenShift, error) {
	var sh OpenShift
	var branchID sql.NullString
	var reqs []byte
	var maxDistance sql.NullFloat64
	var lat, lng sql.NullFloat64
	var blocked []string

	err := row.Scan(
		&sh.ID, &sh.OrgID, &branchID, &sh.VisitID, &sh.ClientID,
		&sh.ServiceType, &sh.Date, &sh.StartTime, &sh.EndTime,
		&reqs, &sh.PreferredLanguage, &sh.PreferredGender,
		&maxDistance, &lat, &lng, &sh.State, &sh.Urgent,
		&sh.MatchingStatus, &sh.StatusVersion, &sh.MatchAttempts, &blocked,
		&sh.CreatedAt, &sh.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if branchID.Valid {
		b := types.ID(branchID.String)
		sh.BranchID = &b
	}
	if len(reqs) > 0 {
		if err := json.Unmarshal(reqs, &sh.Requirements); err != nil {
			return nil, err
		}
	}
	if maxDistance.Valid {
		sh.MaxDistanceMiles = &maxDistance.Float64
	}
	if lat.Valid && lng.Valid {
		sh.Location = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	sh.BlockedWorkerIDs = stringsToIDs(blocked)
	return &sh, nil
}

func scanProposal(row rowScanner) (*AssignmentProposal, error) {
	var p AssignmentProposal
	var reasons []byte
	var sentAt, viewedAt, respondedAt sql.NullTime
	var rejectionReason sql.NullString
	var quality string

	err := row.Scan(
		&p.ID, &p.ShiftID, &p.WorkerID, &p.ConfigID,
		&p.Method, &p.Status, &p.StatusVersion,
		&p.Score, &quality, &reasons,
		&sentAt, &viewedAt, &respondedAt, &rejectionReason,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Quality = matching.Quality(quality)
	if len(reasons) > 0 {
		if err := json.Unmarshal(reasons, &p.MatchReasons); err != nil {
			return nil, err
		}
	}
	p.SentAt = nullTime(sentAt)
	p.ViewedAt = nullTime(viewedAt)
	p.RespondedAt = nullTime(respondedAt)
	if rejectionReason.Valid {
		p.RejectionReason = &rejectionReason.String
	}
	return &p, nil
}

func collectProposals(rows pgx.Rows) ([]*AssignmentProposal, error) {
	var out []*AssignmentProposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func nullID(v sql.NullString) *types.ID {
	if !v.Valid {
		return nil
	}
	id := types.ID(v.String)
	return &id
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func idsToStrings(ids []types.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func stringsToIDs(ss []string) []types.ID {
	if len(ss) == 0 {
		return nil
	}
	out := make([]types.ID, len(ss))
	for i, s := range ss {
		out[i] = types.ID(s)
	}
	return out
}

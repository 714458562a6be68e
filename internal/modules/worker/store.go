// README: Worker directory store backed by PostgreSQL.
package worker

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shiftmatch/internal/types"
)

var ErrNotFound = errors.New("worker not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetByID(ctx context.Context, id types.ID) (*Worker, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, org_id, branch_id, status, first_name, last_name, gender,
               certifications, skills, languages, location_lat, location_lng,
               auto_accept_opt_in
        FROM workers
        WHERE id = $1`, string(id),
	)
	w, err := scanWorker(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadCompliance(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// SearchActive returns all active workers in an organization, optionally
// narrowed to a branch.
func (s *Store) SearchActive(ctx context.Context, orgID types.ID, branchID *types.ID) ([]*Worker, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, org_id, branch_id, status, first_name, last_name, gender,
               certifications, skills, languages, location_lat, location_lng,
               auto_accept_opt_in
        FROM workers
        WHERE org_id = $1
          AND status = 'active'
          AND ($2::text IS NULL OR branch_id = $2)`,
		string(orgID), toStringPtr(branchID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []*Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, w := range workers {
		if err := s.loadCompliance(ctx, w); err != nil {
			return nil, err
		}
	}
	return workers, nil
}

// UpdateLocation stores the worker's current primary location.
func (s *Store) UpdateLocation(ctx context.Context, id types.ID, p types.Point) error {
	tag, err := s.db.Exec(ctx, `
        UPDATE workers
        SET location_lat = $1, location_lng = $2
        WHERE id = $3`,
		p.Lat, p.Lng, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) loadCompliance(ctx context.Context, w *Worker) error {
	rows, err := s.db.Query(ctx, `
        SELECT state, registry_status, checked_at, evv_enrolled, provider_id
        FROM worker_compliance
        WHERE worker_id = $1`, string(w.ID),
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c JurisdictionCompliance
		var checkedAt sql.NullTime
		var providerID sql.NullString
		if err := rows.Scan(&c.State, &c.Registry, &checkedAt, &c.EVVEnrolled, &providerID); err != nil {
			return err
		}
		if checkedAt.Valid {
			t := checkedAt.Time
			c.CheckedAt = &t
		}
		if providerID.Valid {
			c.ProviderID = providerID.String
		}
		w.Compliance = append(w.Compliance, c)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorker(row rowScanner) (*Worker, error) {
	var w Worker
	var branchID, gender sql.NullString
	var lat, lng sql.NullFloat64
	err := row.Scan(
		&w.ID, &w.OrgID, &branchID, &w.Status, &w.FirstName, &w.LastName, &gender,
		&w.Certifications, &w.Skills, &w.Languages, &lat, &lng,
		&w.AutoAcceptOptIn,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if branchID.Valid {
		b := types.ID(branchID.String)
		w.BranchID = &b
	}
	if gender.Valid {
		w.Gender = gender.String
	}
	if lat.Valid && lng.Valid {
		w.Location = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &w, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

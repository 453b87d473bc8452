package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/smart-farming/internal/model"
)

// AdvisoryRepo encapsulates queries on the advisory_requests table.
type AdvisoryRepo struct {
	db *sql.DB
}

func NewAdvisoryRepo(db *sql.DB) *AdvisoryRepo {
	return &AdvisoryRepo{db: db}
}

const advisoryColumns = `id, user_id, crop_name, question, status, response,
	resolved_by, resolved_at, created_at, updated_at`

func scanAdvisory(s rowScanner) (*model.AdvisoryRequest, error) {
	var (
		a          model.AdvisoryRequest
		status     string
		resolvedBy sql.NullInt64
		resolvedAt sql.NullTime
	)
	if err := s.Scan(&a.ID, &a.UserID, &a.CropName, &a.Question, &status, &a.Response,
		&resolvedBy, &resolvedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Status = model.AdvisoryStatus(status)
	if resolvedBy.Valid {
		v := uint64(resolvedBy.Int64)
		a.ResolvedBy = &v
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		a.ResolvedAt = &t
	}
	return &a, nil
}

// Create inserts a pending request and fills in the stored row.
func (r *AdvisoryRepo) Create(ctx context.Context, a *model.AdvisoryRequest) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO advisory_requests (user_id, crop_name, question, status) VALUES (?,?,?,?)",
		a.UserID, a.CropName, a.Question, string(model.AdvisoryPending))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*a = *stored
	return nil
}

// GetByID returns ErrNotFound if the request does not exist.
func (r *AdvisoryRepo) GetByID(ctx context.Context, id uint64) (*model.AdvisoryRequest, error) {
	a, err := scanAdvisory(r.db.QueryRowContext(ctx,
		"SELECT "+advisoryColumns+" FROM advisory_requests WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// ListByUser returns a farmer's requests, newest first.
func (r *AdvisoryRepo) ListByUser(ctx context.Context, userID uint64) ([]model.AdvisoryRequest, error) {
	return r.list(ctx, "SELECT "+advisoryColumns+
		" FROM advisory_requests WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
}

// ListAll returns every request, optionally filtered by status (empty
// status means no filter), newest first.
func (r *AdvisoryRepo) ListAll(ctx context.Context, status model.AdvisoryStatus) ([]model.AdvisoryRequest, error) {
	if status == "" {
		return r.list(ctx, "SELECT "+advisoryColumns+
			" FROM advisory_requests ORDER BY created_at DESC, id DESC")
	}
	return r.list(ctx, "SELECT "+advisoryColumns+
		" FROM advisory_requests WHERE status = ? ORDER BY created_at DESC, id DESC", string(status))
}

// Resolve moves a pending request to resolved. The status guard lives in
// the WHERE clause so that two admins racing on the same request cannot
// both succeed: the loser gets ErrConflict. A missing id gives ErrNotFound.
func (r *AdvisoryRepo) Resolve(ctx context.Context, id, adminID uint64, response string, at time.Time) (*model.AdvisoryRequest, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE advisory_requests
		 SET status = ?, response = ?, resolved_by = ?, resolved_at = ?, updated_at = CURRENT_TIMESTAMP(3)
		 WHERE id = ? AND status = ?`,
		string(model.AdvisoryResolved), response, adminID, at, id, string(model.AdvisoryPending))
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return r.GetByID(ctx, id)
}

func (r *AdvisoryRepo) list(ctx context.Context, q string, args ...any) ([]model.AdvisoryRequest, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.AdvisoryRequest{}
	for rows.Next() {
		a, err := scanAdvisory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

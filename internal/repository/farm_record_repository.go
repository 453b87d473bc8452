// Package repository contains data access logic separated from HTTP handlers.
// This file holds the farm record queries. Every lookup that a farmer can
// trigger is scoped by user_id so that records owned by someone else look
// exactly like records that do not exist.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/smart-farming/internal/model"
)

// FarmRecordRepo encapsulates all database queries related to farm records.
type FarmRecordRepo struct {
	db *sql.DB
}

// NewFarmRecordRepo constructs a FarmRecordRepo with the provided DB handle.
func NewFarmRecordRepo(db *sql.DB) *FarmRecordRepo {
	return &FarmRecordRepo{db: db}
}

const farmRecordColumns = `id, user_id, crop_name, season, record_date,
	area_value, area_unit, yield_amount, yield_unit, price_per_unit,
	expense_seeds, expense_fertilizers, expense_pesticides,
	expense_irrigation, expense_labor, expense_others, notes,
	revenue, total_expenses, net_profit, profit_margin,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFarmRecord(s rowScanner) (*model.FarmRecord, error) {
	var (
		r      model.FarmRecord
		season string
	)
	err := s.Scan(&r.ID, &r.UserID, &r.CropName, &season, &r.Date,
		&r.Area.Value, &r.Area.Unit, &r.Yield.Amount, &r.Yield.Unit, &r.PricePerUnit,
		&r.Expenses.Seeds, &r.Expenses.Fertilizers, &r.Expenses.Pesticides,
		&r.Expenses.Irrigation, &r.Expenses.Labor, &r.Expenses.Others, &r.Notes,
		&r.Revenue, &r.TotalExpenses, &r.NetProfit, &r.ProfitMargin,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Season = model.Season(season)
	return &r, nil
}

// Create inserts a record and re-reads it so callers receive the
// database timestamps. r.ID, r.CreatedAt and r.UpdatedAt are populated.
func (r *FarmRecordRepo) Create(ctx context.Context, rec *model.FarmRecord) error {
	const q = `INSERT INTO farm_records (user_id, crop_name, season, record_date,
		area_value, area_unit, yield_amount, yield_unit, price_per_unit,
		expense_seeds, expense_fertilizers, expense_pesticides,
		expense_irrigation, expense_labor, expense_others, notes,
		revenue, total_expenses, net_profit, profit_margin)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q, rec.UserID, rec.CropName, string(rec.Season), rec.Date,
		rec.Area.Value, rec.Area.Unit, rec.Yield.Amount, rec.Yield.Unit, rec.PricePerUnit,
		rec.Expenses.Seeds, rec.Expenses.Fertilizers, rec.Expenses.Pesticides,
		rec.Expenses.Irrigation, rec.Expenses.Labor, rec.Expenses.Others, rec.Notes,
		rec.Revenue, rec.TotalExpenses, rec.NetProfit, rec.ProfitMargin)
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
	*rec = *stored
	return nil
}

// GetByID fetches a record regardless of owner. It returns ErrNotFound if
// no row exists.
func (r *FarmRecordRepo) GetByID(ctx context.Context, id uint64) (*model.FarmRecord, error) {
	q := "SELECT " + farmRecordColumns + " FROM farm_records WHERE id = ?"
	rec, err := scanFarmRecord(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListByUser returns every record owned by userID, most recently created
// first. The list is not paginated.
func (r *FarmRecordRepo) ListByUser(ctx context.Context, userID uint64) ([]model.FarmRecord, error) {
	q := "SELECT " + farmRecordColumns + ` FROM farm_records
		WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.FarmRecord{}
	for rows.Next() {
		rec, err := scanFarmRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update overwrites every mutable column of rec, matching on both id and
// user_id. It returns ErrNotFound when no row matched. The owner column
// itself is never written.
func (r *FarmRecordRepo) Update(ctx context.Context, rec *model.FarmRecord) error {
	const q = `UPDATE farm_records SET crop_name = ?, season = ?, record_date = ?,
		area_value = ?, area_unit = ?, yield_amount = ?, yield_unit = ?, price_per_unit = ?,
		expense_seeds = ?, expense_fertilizers = ?, expense_pesticides = ?,
		expense_irrigation = ?, expense_labor = ?, expense_others = ?, notes = ?,
		revenue = ?, total_expenses = ?, net_profit = ?, profit_margin = ?,
		updated_at = CURRENT_TIMESTAMP(3)
		WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, q, rec.CropName, string(rec.Season), rec.Date,
		rec.Area.Value, rec.Area.Unit, rec.Yield.Amount, rec.Yield.Unit, rec.PricePerUnit,
		rec.Expenses.Seeds, rec.Expenses.Fertilizers, rec.Expenses.Pesticides,
		rec.Expenses.Irrigation, rec.Expenses.Labor, rec.Expenses.Others, rec.Notes,
		rec.Revenue, rec.TotalExpenses, rec.NetProfit, rec.ProfitMargin,
		rec.ID, rec.UserID)
	if err != nil {
		return err
	}
	// MySQL reports 0 affected rows when the values are unchanged, so
	// confirm existence before treating that as a miss.
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.getByIDAndUser(ctx, rec.ID, rec.UserID); err != nil {
			return err
		}
	}
	stored, err := r.GetByID(ctx, rec.ID)
	if err != nil {
		return err
	}
	*rec = *stored
	return nil
}

// DeleteByIDAndUser removes a record owned by userID. It returns
// ErrNotFound when nothing was deleted.
func (r *FarmRecordRepo) DeleteByIDAndUser(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM farm_records WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *FarmRecordRepo) getByIDAndUser(ctx context.Context, id, userID uint64) (*model.FarmRecord, error) {
	q := "SELECT " + farmRecordColumns + " FROM farm_records WHERE id = ? AND user_id = ?"
	rec, err := scanFarmRecord(r.db.QueryRowContext(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"roomBookingManagement/models"
)

type FloorPlanRepository struct {
	db *sql.DB
}

func NewFloorPlanRepository(db *sql.DB) *FloorPlanRepository {
	return &FloorPlanRepository{db: db}
}

func (r *FloorPlanRepository) Create(ctx context.Context, f *models.FloorPlan) (*models.FloorPlan, error) {
	if f == nil {
		return nil, errors.New("floor plan is nil")
	}
	if f.LastModifiedAt.IsZero() {
		f.LastModifiedAt = time.Now()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO floor_plans (name, capacity, available, last_modified_by, last_modified_at) VALUES (?,?,?,?,?)`,
		f.Name, f.Capacity, boolToInt(f.Available), f.LastModifiedBy, f.LastModifiedAt.Unix())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	f.ID = id
	return f, nil
}

func (r *FloorPlanRepository) GetByName(ctx context.Context, name string) (*models.FloorPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	f, err := scanFloorPlan(r.db.QueryRowContext(ctx, `SELECT id, name, capacity, available, last_modified_by, last_modified_at FROM floor_plans WHERE name = ?`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

func (r *FloorPlanRepository) List(ctx context.Context) ([]models.FloorPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, capacity, available, last_modified_by, last_modified_at FROM floor_plans ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.FloorPlan
	for rows.Next() {
		f, err := scanFloorPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FloorPlanRepository) Update(ctx context.Context, f *models.FloorPlan) error {
	if f == nil {
		return errors.New("floor plan is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE floor_plans SET capacity = ?, available = ?, last_modified_by = ?, last_modified_at = ? WHERE name = ?`,
		f.Capacity, boolToInt(f.Available), f.LastModifiedBy, f.LastModifiedAt.Unix(), f.Name)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanFloorPlan(s rowScanner) (*models.FloorPlan, error) {
	var f models.FloorPlan
	var available int
	var modified int64
	if err := s.Scan(&f.ID, &f.Name, &f.Capacity, &available, &f.LastModifiedBy, &modified); err != nil {
		return nil, err
	}
	f.Available = available == 1
	f.LastModifiedAt = time.Unix(modified, 0)
	return &f, nil
}

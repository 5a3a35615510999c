// Package floorplan manages floor plans. They are listed and edited by admins only
// and take no part in booking.
package floorplan

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"roomBookingManagement/internal/errs"
	"roomBookingManagement/models"
	"roomBookingManagement/repository"
)

type Registry struct {
	plans repository.FloorPlanRepositoryI
	log   logrus.FieldLogger
	now   func() time.Time
}

func New(plans repository.FloorPlanRepositoryI, log logrus.FieldLogger) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{plans: plans, log: log, now: time.Now}
}

func (r *Registry) Upload(ctx context.Context, admin, name string, capacity int, available bool) (*models.FloorPlan, error) {
	if name == "" || capacity < 0 {
		return nil, fmt.Errorf("floor plan %q capacity %d: %w", name, capacity, errs.ErrInvalidInput)
	}
	existing, err := r.plans.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("floor plan %q: %w", name, errs.ErrAlreadyExists)
	}
	f := &models.FloorPlan{Name: name, Capacity: capacity, Available: available, LastModifiedBy: admin, LastModifiedAt: r.now()}
	if _, err := r.plans.Create(ctx, f); err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{"plan": name, "admin": admin}).Info("floor plan uploaded")
	return f, nil
}

func (r *Registry) Modify(ctx context.Context, admin, name string, capacity int, available bool) (*models.FloorPlan, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("capacity %d: %w", capacity, errs.ErrInvalidInput)
	}
	f, err := r.plans.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("floor plan %q: %w", name, errs.ErrNotFound)
	}
	f.Capacity = capacity
	f.Available = available
	f.LastModifiedBy = admin
	f.LastModifiedAt = r.now()
	if err := r.plans.Update(ctx, f); err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{"plan": name, "admin": admin}).Info("floor plan modified")
	return f, nil
}

func (r *Registry) Find(ctx context.Context, name string) (*models.FloorPlan, error) {
	return r.plans.GetByName(ctx, name)
}

func (r *Registry) List(ctx context.Context) ([]models.FloorPlan, error) {
	return r.plans.List(ctx)
}

// Restore inserts a plan as given unless the name exists.
func (r *Registry) Restore(ctx context.Context, f models.FloorPlan) (bool, error) {
	existing, err := r.plans.GetByName(ctx, f.Name)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if _, err := r.plans.Create(ctx, &f); err != nil {
		return false, err
	}
	return true, nil
}

// Package registry owns the set of bookable rooms.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"roomBookingManagement/internal/errs"
	"roomBookingManagement/models"
	"roomBookingManagement/repository"
)

// Recorder receives room lifecycle events.
type Recorder interface {
	RecordRoom(ctx context.Context, action models.HistoryAction, room *models.Room, actor string) error
}

type Registry struct {
	rooms   repository.RoomRepositoryI
	history Recorder
	log     logrus.FieldLogger
	now     func() time.Time
}

func New(rooms repository.RoomRepositoryI, history Recorder, log logrus.FieldLogger) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{rooms: rooms, history: history, log: log, now: time.Now}
}

// Add uploads a new room. A room uploaded as unavailable is held in the admin's name.
func (r *Registry) Add(ctx context.Context, admin, name string, capacity int, available bool) (*models.Room, error) {
	if name == "" {
		return nil, fmt.Errorf("room name is empty: %w", errs.ErrInvalidInput)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("capacity %d: %w", capacity, errs.ErrInvalidInput)
	}
	existing, err := r.rooms.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("room %q: %w", name, errs.ErrAlreadyExists)
	}
	room := &models.Room{
		Name:           name,
		Capacity:       capacity,
		Available:      available,
		LastModifiedBy: admin,
		LastModifiedAt: r.now(),
	}
	if !available {
		room.BookedBy = admin
	}
	if _, err := r.rooms.Create(ctx, room); err != nil {
		return nil, err
	}
	r.record(ctx, models.HistoryCreate, room, admin)
	r.log.WithFields(logrus.Fields{"room": name, "admin": admin, "capacity": capacity}).Info("room uploaded")
	return room, nil
}

// Modify updates capacity and availability. Making a booked room available clears
// its booker (admin override); making a free room unavailable holds it in the
// admin's name. A booked room kept unavailable keeps its booker.
func (r *Registry) Modify(ctx context.Context, admin, name string, capacity int, available bool) (*models.Room, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("capacity %d: %w", capacity, errs.ErrInvalidInput)
	}
	room, err := r.rooms.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("room %q: %w", name, errs.ErrNotFound)
	}
	switch {
	case !room.Available && available:
		r.log.WithFields(logrus.Fields{"room": name, "admin": admin, "booked_by": room.BookedBy}).Warn("booking cleared by admin")
		room.Available = true
		room.BookedBy = ""
	case room.Available && !available:
		room.Available = false
		room.BookedBy = admin
	}
	room.Capacity = capacity
	room.LastModifiedBy = admin
	room.LastModifiedAt = r.now()
	if err := r.rooms.Update(ctx, room); err != nil {
		return nil, err
	}
	r.record(ctx, models.HistoryModify, room, admin)
	r.log.WithFields(logrus.Fields{"room": name, "admin": admin, "capacity": capacity, "available": room.Available}).Info("room modified")
	return room, nil
}

// Find returns the room or nil when absent.
func (r *Registry) Find(ctx context.Context, name string) (*models.Room, error) {
	return r.rooms.GetByName(ctx, name)
}

// Save persists a room mutated by the caller.
func (r *Registry) Save(ctx context.Context, room *models.Room) error {
	if room.Available != (room.BookedBy == "") {
		return fmt.Errorf("room %q: availability and booker disagree: %w", room.Name, errs.ErrInvalidInput)
	}
	return r.rooms.Update(ctx, room)
}

// Delete removes a room. Booked rooms must be released first.
func (r *Registry) Delete(ctx context.Context, name, admin string) error {
	room, err := r.rooms.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if room == nil {
		return fmt.Errorf("room %q: %w", name, errs.ErrNotFound)
	}
	if !room.Available {
		return fmt.Errorf("room %q is booked by %s: %w", name, room.BookedBy, errs.ErrConflict)
	}
	if err := r.rooms.Delete(ctx, name); err != nil {
		return err
	}
	r.record(ctx, models.HistoryDelete, room, admin)
	r.log.WithFields(logrus.Fields{"room": name, "admin": admin}).Info("room deleted")
	return nil
}

// List returns every room in registry order.
func (r *Registry) List(ctx context.Context) ([]models.Room, error) {
	return r.rooms.List(ctx)
}

// Restore inserts a room exactly as given, normalising an unavailable room without a
// booker to be held by its last modifier. Existing names are skipped and reported as false.
func (r *Registry) Restore(ctx context.Context, room models.Room) (bool, error) {
	existing, err := r.rooms.GetByName(ctx, room.Name)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if room.Available {
		room.BookedBy = ""
	} else if room.BookedBy == "" {
		room.BookedBy = room.LastModifiedBy
	}
	if _, err := r.rooms.Create(ctx, &room); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Registry) record(ctx context.Context, action models.HistoryAction, room *models.Room, actor string) {
	if r.history == nil {
		return
	}
	// The mutation is already committed; a failed audit write is logged by the recorder.
	_ = r.history.RecordRoom(ctx, action, room, actor)
}

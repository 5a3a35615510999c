package repository

import (
	"context"

	"roomBookingManagement/models"
)

// UserRepositoryI defines operations on User entities.
type UserRepositoryI interface {
	Create(ctx context.Context, username string, hash uint64, role models.Role) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, username string, hash uint64, role models.Role) error
	Delete(ctx context.Context, username string) error
}

// RoomRepositoryI defines operations on Room entities.
type RoomRepositoryI interface {
	Create(ctx context.Context, r *models.Room) (*models.Room, error)
	GetByName(ctx context.Context, name string) (*models.Room, error)
	List(ctx context.Context) ([]models.Room, error)
	ListBookedBy(ctx context.Context, username string) ([]models.Room, error)
	Update(ctx context.Context, r *models.Room) error
	Delete(ctx context.Context, name string) error
}

// FloorPlanRepositoryI defines operations on FloorPlan entities.
type FloorPlanRepositoryI interface {
	Create(ctx context.Context, f *models.FloorPlan) (*models.FloorPlan, error)
	GetByName(ctx context.Context, name string) (*models.FloorPlan, error)
	List(ctx context.Context) ([]models.FloorPlan, error)
	Update(ctx context.Context, f *models.FloorPlan) error
}

// HistoryRepositoryI defines the append-only history store.
type HistoryRepositoryI interface {
	Append(ctx context.Context, e *models.HistoryEntry) (*models.HistoryEntry, error)
	List(ctx context.Context, p ListHistoryParams) ([]models.HistoryEntry, error)
}

// CommandRepositoryI defines the persisted offline queue.
type CommandRepositoryI interface {
	Append(ctx context.Context, uuid string, kind models.CommandKind, line string) (*models.QueuedCommand, error)
	List(ctx context.Context) ([]models.QueuedCommand, error)
	DeleteThrough(ctx context.Context, maxID int64) (int64, error)
	Count(ctx context.Context) (int, error)
}

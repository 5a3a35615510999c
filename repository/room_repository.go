package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"roomBookingManagement/models"
)

const roomColumns = `id, name, capacity, available, booked_by, last_modified_by, last_modified_at`

type RoomRepository struct {
	db *sql.DB
}

func NewRoomRepository(db *sql.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts a new room. LastModifiedAt defaults to now when zero.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) (*models.Room, error) {
	if room == nil {
		return nil, errors.New("room is nil")
	}
	if room.LastModifiedAt.IsZero() {
		room.LastModifiedAt = time.Now()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO rooms (name, capacity, available, booked_by, last_modified_by, last_modified_at) VALUES (?,?,?,?,?,?)`,
		room.Name, room.Capacity, boolToInt(room.Available), room.BookedBy, room.LastModifiedBy, room.LastModifiedAt.Unix())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	room.ID = id
	return room, nil
}

func (r *RoomRepository) GetByName(ctx context.Context, name string) (*models.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	room, err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE name = ?`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return room, nil
}

// List returns all rooms in insertion order.
func (r *RoomRepository) List(ctx context.Context) ([]models.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoomRows(rows)
}

// ListBookedBy returns the rooms currently held by username, in insertion order.
func (r *RoomRepository) ListBookedBy(ctx context.Context, username string) ([]models.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE available = 0 AND booked_by = ? ORDER BY id`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoomRows(rows)
}

// Update writes every mutable column of the room identified by name.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	if room == nil {
		return errors.New("room is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE rooms SET capacity = ?, available = ?, booked_by = ?, last_modified_by = ?, last_modified_at = ? WHERE name = ?`,
		room.Capacity, boolToInt(room.Available), room.BookedBy, room.LastModifiedBy, room.LastModifiedAt.Unix(), room.Name)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *RoomRepository) Delete(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE name = ?`, name)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanRoom(s rowScanner) (*models.Room, error) {
	var room models.Room
	var available int
	var modified int64
	if err := s.Scan(&room.ID, &room.Name, &room.Capacity, &available, &room.BookedBy, &room.LastModifiedBy, &modified); err != nil {
		return nil, err
	}
	room.Available = available == 1
	room.LastModifiedAt = time.Unix(modified, 0)
	return &room, nil
}

func scanRoomRows(rows *sql.Rows) ([]models.Room, error) {
	var out []models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

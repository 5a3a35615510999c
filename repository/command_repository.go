package repository

import (
	"context"
	"database/sql"
	"time"

	"roomBookingManagement/models"
)

// CommandRepository persists the offline command queue in FIFO order.
type CommandRepository struct {
	db *sql.DB
}

func NewCommandRepository(db *sql.DB) *CommandRepository {
	return &CommandRepository{db: db}
}

func (r *CommandRepository) Append(ctx context.Context, uuid string, kind models.CommandKind, line string) (*models.QueuedCommand, error) {
	now := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO offline_commands (uuid, kind, line, queued_at) VALUES (?,?,?,?)`,
		uuid, string(kind), line, now.Unix())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.QueuedCommand{ID: id, UUID: uuid, Kind: kind, Line: line, QueuedAt: time.Unix(now.Unix(), 0)}, nil
}

// List returns all queued commands oldest first.
func (r *CommandRepository) List(ctx context.Context) ([]models.QueuedCommand, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, uuid, kind, line, queued_at FROM offline_commands ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.QueuedCommand
	for rows.Next() {
		var c models.QueuedCommand
		var kind string
		var queued int64
		if err := rows.Scan(&c.ID, &c.UUID, &kind, &c.Line, &queued); err != nil {
			return nil, err
		}
		c.Kind = models.CommandKind(kind)
		c.QueuedAt = time.Unix(queued, 0)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteThrough removes every command with id <= maxID and reports how many were removed.
// Commands queued after a replay snapshot survive.
func (r *CommandRepository) DeleteThrough(ctx context.Context, maxID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM offline_commands WHERE id <= ?`, maxID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *CommandRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM offline_commands`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"roomBookingManagement/models"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append stores an entry. The table rejects updates and deletes.
func (r *HistoryRepository) Append(ctx context.Context, e *models.HistoryEntry) (*models.HistoryEntry, error) {
	if e == nil {
		return nil, errors.New("history entry is nil")
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO history (ts, action, room_name, actor, capacity, available) VALUES (?,?,?,?,?,?)`,
		e.Timestamp.Unix(), string(e.Action), e.RoomName, e.Actor, e.Capacity, boolToInt(e.Available))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	e.ID = id
	return e, nil
}

// ListHistoryParams represents filters and pagination for List.
type ListHistoryParams struct {
	RoomName *string
	Actions  []models.HistoryAction
	Actor    *string
	Since    *time.Time // inclusive lower bound on the entry timestamp
	PageSize int        // 0 means no limit
	AfterID  int64      // keyset cursor: entries with id greater than this
}

// List returns entries matching filters in append order (id asc).
func (r *HistoryRepository) List(ctx context.Context, p ListHistoryParams) ([]models.HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var where []string
	var args []any

	if p.RoomName != nil {
		where = append(where, "room_name = ?")
		args = append(args, *p.RoomName)
	}
	if len(p.Actions) > 0 {
		placeholders := make([]string, len(p.Actions))
		for i, a := range p.Actions {
			placeholders[i] = "?"
			args = append(args, string(a))
		}
		where = append(where, "action IN ("+strings.Join(placeholders, ",")+")")
	}
	if p.Actor != nil {
		where = append(where, "actor = ?")
		args = append(args, *p.Actor)
	}
	if p.Since != nil {
		where = append(where, "ts >= ?")
		args = append(args, p.Since.Unix())
	}
	if p.AfterID > 0 {
		where = append(where, "id > ?")
		args = append(args, p.AfterID)
	}

	query := `SELECT id, ts, action, room_name, actor, capacity, available FROM history`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"
	if p.PageSize > 0 {
		query += " LIMIT ?"
		args = append(args, p.PageSize)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var ts int64
		var action string
		var available int
		if err := rows.Scan(&e.ID, &ts, &action, &e.RoomName, &e.Actor, &e.Capacity, &available); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0)
		e.Action = models.HistoryAction(action)
		e.Available = available == 1
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

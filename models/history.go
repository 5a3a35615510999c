package models

import "time"

// HistoryAction enumerates the kinds of room history entries.
type HistoryAction string

const (
	HistoryCreate  HistoryAction = "CREATE"
	HistoryModify  HistoryAction = "MODIFY"
	HistoryDelete  HistoryAction = "DELETE"
	HistoryBook    HistoryAction = "BOOK"
	HistoryRelease HistoryAction = "RELEASE"
)

// Valid reports whether a is one of the known actions.
func (a HistoryAction) Valid() bool {
	switch a {
	case HistoryCreate, HistoryModify, HistoryDelete, HistoryBook, HistoryRelease:
		return true
	}
	return false
}

// HistoryEntry is one immutable line of the room history.
// Capacity is -1 when the entry does not carry a capacity (deletions).
type HistoryEntry struct {
	ID        int64         `db:"id" json:"id"`
	Timestamp time.Time     `db:"ts" json:"timestamp"`
	Action    HistoryAction `db:"action" json:"action"`
	RoomName  string        `db:"room_name" json:"room_name"`
	Actor     string        `db:"actor" json:"actor"`
	Capacity  int           `db:"capacity" json:"capacity"`
	Available bool          `db:"available" json:"available"`
}

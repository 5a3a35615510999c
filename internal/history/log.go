// Package history keeps the append-only audit trail of room changes and bookings.
// Entries are informational; nothing reads them to make decisions.
package history

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"roomBookingManagement/models"
	"roomBookingManagement/repository"
)

type Log struct {
	repo repository.HistoryRepositoryI
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewLog(repo repository.HistoryRepositoryI, log logrus.FieldLogger) *Log {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Log{repo: repo, log: log, now: time.Now}
}

// Record appends an entry, stamping it with the current time when unset.
func (l *Log) Record(ctx context.Context, e models.HistoryEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	if _, err := l.repo.Append(ctx, &e); err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{"room": e.RoomName, "action": e.Action}).Error("history append failed")
		return err
	}
	l.log.WithFields(logrus.Fields{"room": e.RoomName, "action": e.Action, "actor": e.Actor}).Debug("history recorded")
	return nil
}

// RecordRoom appends an entry describing the room's state after action.
func (l *Log) RecordRoom(ctx context.Context, action models.HistoryAction, room *models.Room, actor string) error {
	e := models.HistoryEntry{Action: action, RoomName: room.Name, Actor: actor, Capacity: room.Capacity, Available: room.Available}
	if action == models.HistoryDelete {
		e.Capacity = -1
		e.Available = false
	}
	return l.Record(ctx, e)
}

func (l *Log) All(ctx context.Context) ([]models.HistoryEntry, error) {
	return l.repo.List(ctx, repository.ListHistoryParams{})
}

func (l *Log) ForRoom(ctx context.Context, name string) ([]models.HistoryEntry, error) {
	return l.repo.List(ctx, repository.ListHistoryParams{RoomName: &name})
}

func (l *Log) Query(ctx context.Context, p repository.ListHistoryParams) ([]models.HistoryEntry, error) {
	return l.repo.List(ctx, p)
}

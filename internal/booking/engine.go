// Package booking matches participant counts to rooms and handles releases.
package booking

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"roomBookingManagement/internal/errs"
	"roomBookingManagement/models"
)

// ReleaseStatus is the outcome of a release request.
type ReleaseStatus int

const (
	ReleaseSuccess ReleaseStatus = iota
	ReleaseNotFound
	ReleaseNotBooked
	ReleaseNotOwner
	// ReleaseQueued is never produced by the engine; callers report it for a
	// release deferred to the offline queue, whose real status is not yet known.
	ReleaseQueued
)

func (s ReleaseStatus) String() string {
	switch s {
	case ReleaseSuccess:
		return "SUCCESS"
	case ReleaseNotFound:
		return "NOT_FOUND"
	case ReleaseNotBooked:
		return "NOT_BOOKED"
	case ReleaseNotOwner:
		return "NOT_OWNER"
	case ReleaseQueued:
		return "QUEUED"
	}
	return fmt.Sprintf("ReleaseStatus(%d)", int(s))
}

// Rooms is the slice of the room registry the engine needs.
type Rooms interface {
	Find(ctx context.Context, name string) (*models.Room, error)
	List(ctx context.Context) ([]models.Room, error)
	Save(ctx context.Context, room *models.Room) error
}

// Recorder receives booking events.
type Recorder interface {
	RecordRoom(ctx context.Context, action models.HistoryAction, room *models.Room, actor string) error
}

type Engine struct {
	rooms   Rooms
	history Recorder
	log     logrus.FieldLogger
}

func NewEngine(rooms Rooms, history Recorder, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{rooms: rooms, history: history, log: log}
}

// Book reserves a room for username. With a room name only that room is considered;
// otherwise the best fit among all rooms is chosen. Returns nil, nil when nothing qualifies.
func (e *Engine) Book(ctx context.Context, username string, required int, roomName string) (*models.Room, error) {
	if required < 1 {
		return nil, fmt.Errorf("participants %d: %w", required, errs.ErrInvalidInput)
	}
	var room *models.Room
	if roomName != "" {
		r, err := e.rooms.Find(ctx, roomName)
		if err != nil {
			return nil, err
		}
		if r != nil && r.Available && r.Capacity >= required {
			room = r
		}
	} else {
		rooms, err := e.rooms.List(ctx)
		if err != nil {
			return nil, err
		}
		room = SelectBestFit(rooms, required)
	}
	if room == nil {
		e.log.WithFields(logrus.Fields{"user": username, "participants": required, "room": roomName}).Info("no suitable room")
		return nil, nil
	}

	room.Available = false
	room.BookedBy = username
	if err := e.rooms.Save(ctx, room); err != nil {
		return nil, err
	}
	e.record(ctx, models.HistoryBook, room, username)
	e.log.WithFields(logrus.Fields{"user": username, "room": room.Name, "participants": required}).Info("room booked")
	return room, nil
}

// Release frees a room held by username. A room held by someone else reports
// ReleaseNotOwner rather than a generic failure.
func (e *Engine) Release(ctx context.Context, username, roomName string) (ReleaseStatus, error) {
	room, err := e.rooms.Find(ctx, roomName)
	if err != nil {
		return ReleaseNotFound, err
	}
	if room == nil {
		return ReleaseNotFound, nil
	}
	if room.Available {
		return ReleaseNotBooked, nil
	}
	if room.BookedBy != username {
		return ReleaseNotOwner, nil
	}
	room.Available = true
	room.BookedBy = ""
	if err := e.rooms.Save(ctx, room); err != nil {
		return ReleaseSuccess, err
	}
	e.record(ctx, models.HistoryRelease, room, username)
	e.log.WithFields(logrus.Fields{"user": username, "room": roomName}).Info("room released")
	return ReleaseSuccess, nil
}

// Suggest lists every available room that can seat participants, in registry order.
func (e *Engine) Suggest(ctx context.Context, participants int) ([]models.Room, error) {
	rooms, err := e.rooms.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Room
	for _, r := range rooms {
		if r.Available && r.Capacity >= participants {
			out = append(out, r)
		}
	}
	return out, nil
}

// BookedBy lists the rooms currently held by username.
func (e *Engine) BookedBy(ctx context.Context, username string) ([]models.Room, error) {
	rooms, err := e.rooms.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Room
	for _, r := range rooms {
		if !r.Available && r.BookedBy == username {
			out = append(out, r)
		}
	}
	return out, nil
}

// SelectBestFit returns the available room with the smallest non-negative surplus.
// Ties go to the earliest room in the slice.
func SelectBestFit(rooms []models.Room, required int) *models.Room {
	best := -1
	for i := range rooms {
		r := &rooms[i]
		if !r.Available || r.Capacity < required {
			continue
		}
		if best < 0 || r.Capacity-required < rooms[best].Capacity-required {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	chosen := rooms[best]
	return &chosen
}

func (e *Engine) record(ctx context.Context, action models.HistoryAction, room *models.Room, actor string) {
	if e.history == nil {
		return
	}
	_ = e.history.RecordRoom(ctx, action, room, actor)
}

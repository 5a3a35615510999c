package repository

import (
	"context"
	"testing"
	"time"

	"roomBookingManagement/models"
)

func TestHistoryRepository_AppendAndFilter(t *testing.T) {
	d := openTestDB(t, "historyrepo")
	repo := NewHistoryRepository(d)
	ctx := context.Background()

	base := time.Unix(1700000000, 0)
	entries := []models.HistoryEntry{
		{Timestamp: base, Action: models.HistoryCreate, RoomName: "A", Actor: "Chetan", Capacity: 4, Available: true},
		{Timestamp: base.Add(time.Minute), Action: models.HistoryBook, RoomName: "A", Actor: "alice", Capacity: 4},
		{Timestamp: base.Add(2 * time.Minute), Action: models.HistoryCreate, RoomName: "B", Actor: "Chetan", Capacity: 8, Available: true},
		{Timestamp: base.Add(3 * time.Minute), Action: models.HistoryRelease, RoomName: "A", Actor: "alice", Capacity: 4, Available: true},
	}
	for i := range entries {
		if _, err := repo.Append(ctx, &entries[i]); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	all, err := repo.List(ctx, ListHistoryParams{})
	if err != nil || len(all) != 4 {
		t.Fatalf("list all: %v len=%d", err, len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ID <= all[i-1].ID {
			t.Fatalf("entries out of order: %+v", all)
		}
	}

	room := "A"
	forA, err := repo.List(ctx, ListHistoryParams{RoomName: &room})
	if err != nil || len(forA) != 3 {
		t.Fatalf("room filter: %v %+v", err, forA)
	}

	bookings, err := repo.List(ctx, ListHistoryParams{Actions: []models.HistoryAction{models.HistoryBook, models.HistoryRelease}})
	if err != nil || len(bookings) != 2 || bookings[0].Action != models.HistoryBook {
		t.Fatalf("action filter: %v %+v", err, bookings)
	}

	actor := "Chetan"
	since := base.Add(time.Minute)
	late, err := repo.List(ctx, ListHistoryParams{Actor: &actor, Since: &since})
	if err != nil || len(late) != 1 || late[0].RoomName != "B" {
		t.Fatalf("actor+since filter: %v %+v", err, late)
	}

	page1, err := repo.List(ctx, ListHistoryParams{PageSize: 2})
	if err != nil || len(page1) != 2 {
		t.Fatalf("page1: %v %+v", err, page1)
	}
	page2, err := repo.List(ctx, ListHistoryParams{PageSize: 2, AfterID: page1[1].ID})
	if err != nil || len(page2) != 2 || page2[0].ID <= page1[1].ID {
		t.Fatalf("page2: %v %+v", err, page2)
	}
}

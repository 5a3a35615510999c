package repository

import (
	"context"
	"testing"
	"time"

	"roomBookingManagement/models"
)

func TestRoomRepository_CRUD(t *testing.T) {
	d := openTestDB(t, "roomrepo")
	repo := NewRoomRepository(d)
	ctx := context.Background()

	at := time.Unix(1700000000, 0)
	r, err := repo.Create(ctx, &models.Room{Name: "Everest", Capacity: 10, Available: true, LastModifiedBy: "Chetan", LastModifiedAt: at})
	if err != nil || r.ID == 0 {
		t.Fatalf("create: %v %+v", err, r)
	}
	if _, err := repo.Create(ctx, &models.Room{Name: "Everest", Capacity: 3, Available: true, LastModifiedBy: "Chetan"}); err == nil {
		t.Fatalf("expected duplicate name to fail")
	}
	if _, err := repo.Create(ctx, &models.Room{Name: "K2", Capacity: 4, Available: false, BookedBy: "Chetan", LastModifiedBy: "Chetan"}); err != nil {
		t.Fatalf("create held room: %v", err)
	}

	got, err := repo.GetByName(ctx, "Everest")
	if err != nil || got == nil || got.Capacity != 10 || !got.Available || !got.LastModifiedAt.Equal(at) {
		t.Fatalf("get: %v %+v", err, got)
	}
	missing, err := repo.GetByName(ctx, "Nowhere")
	if err != nil || missing != nil {
		t.Fatalf("get missing: %v %+v", err, missing)
	}

	got.Available = false
	got.BookedBy = "alice"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	booked, err := repo.ListBookedBy(ctx, "alice")
	if err != nil || len(booked) != 1 || booked[0].Name != "Everest" {
		t.Fatalf("list booked: %v %+v", err, booked)
	}

	all, err := repo.List(ctx)
	if err != nil || len(all) != 2 || all[0].Name != "Everest" || all[1].Name != "K2" {
		t.Fatalf("list: %v %+v", err, all)
	}

	if err := repo.Delete(ctx, "K2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "K2"); err == nil {
		t.Fatalf("expected error deleting missing room")
	}
}

func TestFloorPlanRepository_CRUD(t *testing.T) {
	d := openTestDB(t, "floorrepo")
	repo := NewFloorPlanRepository(d)
	ctx := context.Background()

	if _, err := repo.Create(ctx, &models.FloorPlan{Name: "L1", Capacity: 50, Available: true, LastModifiedBy: "Chetan"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	f, err := repo.GetByName(ctx, "L1")
	if err != nil || f == nil || f.Capacity != 50 {
		t.Fatalf("get: %v %+v", err, f)
	}
	f.Capacity = 60
	f.Available = false
	if err := repo.Update(ctx, f); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 || list[0].Capacity != 60 || list[0].Available {
		t.Fatalf("list: %v %+v", err, list)
	}
}

package models

import "time"

// Room is a bookable meeting room.
// A room is either available with an empty BookedBy, or unavailable and held by BookedBy.
type Room struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Capacity       int       `db:"capacity" json:"capacity"`
	Available      bool      `db:"available" json:"available"`
	BookedBy       string    `db:"booked_by" json:"booked_by,omitempty"`
	LastModifiedBy string    `db:"last_modified_by" json:"last_modified_by"`
	LastModifiedAt time.Time `db:"last_modified_at" json:"last_modified_at"`
}

// FloorPlan is an auxiliary room-like record managed by admins.
// It takes no part in booking.
type FloorPlan struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Capacity       int       `db:"capacity" json:"capacity"`
	Available      bool      `db:"available" json:"available"`
	LastModifiedBy string    `db:"last_modified_by" json:"last_modified_by"`
	LastModifiedAt time.Time `db:"last_modified_at" json:"last_modified_at"`
}

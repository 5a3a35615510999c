package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomBookingManagement/internal/errs"
	"roomBookingManagement/internal/history"
	"roomBookingManagement/internal/testutil"
	"roomBookingManagement/models"
	"roomBookingManagement/repository"
)

func newRegistry(t *testing.T, name string) (*Registry, *history.Log) {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, name)
	h := history.NewLog(repository.NewHistoryRepository(d), testutil.NullLogger())
	return New(repository.NewRoomRepository(d), h, testutil.NullLogger()), h
}

func assertInvariant(t *testing.T, r *Registry) {
	t.Helper()
	rooms, err := r.List(context.Background())
	require.NoError(t, err)
	for _, room := range rooms {
		assert.Equal(t, room.Available, room.BookedBy == "", "room %s: available=%v bookedBy=%q", room.Name, room.Available, room.BookedBy)
	}
}

func TestRegistry_AddFindList(t *testing.T) {
	r, h := newRegistry(t, "regadd")
	ctx := context.Background()

	a, err := r.Add(ctx, "Chetan", "A", 10, true)
	require.NoError(t, err)
	assert.True(t, a.Available)
	assert.Empty(t, a.BookedBy)

	held, err := r.Add(ctx, "Chetan", "B", 4, false)
	require.NoError(t, err)
	assert.False(t, held.Available)
	assert.Equal(t, "Chetan", held.BookedBy)

	_, err = r.Add(ctx, "Chetan", "A", 3, true)
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)
	_, err = r.Add(ctx, "Chetan", "C", -1, true)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	found, err := r.Find(ctx, "A")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 10, found.Capacity)
	missing, err := r.Find(ctx, "Z")
	require.NoError(t, err)
	assert.Nil(t, missing)

	rooms, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "A", rooms[0].Name)

	entries, err := h.All(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assertInvariant(t, r)
}

func TestRegistry_ModifyKeepsBookerUnlessFreed(t *testing.T) {
	r, _ := newRegistry(t, "regmodify")
	ctx := context.Background()

	_, err := r.Add(ctx, "Chetan", "A", 10, true)
	require.NoError(t, err)

	room, err := r.Modify(ctx, "admin2", "A", 12, true)
	require.NoError(t, err)
	assert.Equal(t, 12, room.Capacity)
	assert.Equal(t, "admin2", room.LastModifiedBy)

	room, err = r.Modify(ctx, "admin2", "A", 12, false)
	require.NoError(t, err)
	assert.Equal(t, "admin2", room.BookedBy)

	// Booked by someone: only capacity may change
	room.BookedBy = "alice"
	require.NoError(t, r.Save(ctx, room))
	room, err = r.Modify(ctx, "Chetan", "A", 20, false)
	require.NoError(t, err)
	assert.Equal(t, "alice", room.BookedBy)
	room, err = r.Modify(ctx, "Chetan", "A", 20, true)
	require.NoError(t, err)
	assert.True(t, room.Available)
	assert.Empty(t, room.BookedBy)

	_, err = r.Modify(ctx, "Chetan", "Nope", 1, true)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assertInvariant(t, r)
}

func TestRegistry_ModifyFreesAdminHeldRoom(t *testing.T) {
	r, h := newRegistry(t, "regadminheld")
	ctx := context.Background()

	_, err := r.Add(ctx, "Chetan", "X", 5, false)
	require.NoError(t, err)

	room, err := r.Modify(ctx, "Chetan", "X", 5, true)
	require.NoError(t, err)
	assert.True(t, room.Available)
	assert.Empty(t, room.BookedBy)

	stored, err := r.Find(ctx, "X")
	require.NoError(t, err)
	assert.True(t, stored.Available)
	assert.Empty(t, stored.BookedBy)
	require.NoError(t, r.Delete(ctx, "X", "Chetan"))

	entries, err := h.ForRoom(ctx, "X")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, models.HistoryModify, entries[1].Action)
	assert.True(t, entries[1].Available)
	assertInvariant(t, r)
}

func TestRegistry_DeleteRejectsBooked(t *testing.T) {
	r, h := newRegistry(t, "regdelete")
	ctx := context.Background()

	_, err := r.Add(ctx, "Chetan", "S", 5, false)
	require.NoError(t, err)
	assert.ErrorIs(t, r.Delete(ctx, "S", "Chetan"), errs.ErrConflict)
	assert.ErrorIs(t, r.Delete(ctx, "missing", "Chetan"), errs.ErrNotFound)

	room, _ := r.Find(ctx, "S")
	room.Available = true
	room.BookedBy = ""
	require.NoError(t, r.Save(ctx, room))
	require.NoError(t, r.Delete(ctx, "S", "Chetan"))

	entries, err := h.ForRoom(ctx, "S")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.HistoryDelete, entries[1].Action)
}

func TestRegistry_SaveRejectsBrokenInvariant(t *testing.T) {
	r, _ := newRegistry(t, "regsave")
	ctx := context.Background()
	room, err := r.Add(ctx, "Chetan", "A", 1, true)
	require.NoError(t, err)
	room.Available = false
	assert.ErrorIs(t, r.Save(ctx, room), errs.ErrInvalidInput)
}

func TestRegistry_RestoreNormalises(t *testing.T) {
	r, _ := newRegistry(t, "regrestore")
	ctx := context.Background()

	added, err := r.Restore(ctx, models.Room{Name: "X", Capacity: 3, Available: false, LastModifiedBy: "Chetan"})
	require.NoError(t, err)
	assert.True(t, added)
	added, err = r.Restore(ctx, models.Room{Name: "Y", Capacity: 3, Available: true, BookedBy: "stale", LastModifiedBy: "Chetan"})
	require.NoError(t, err)
	assert.True(t, added)
	added, err = r.Restore(ctx, models.Room{Name: "X", Capacity: 9, Available: true, LastModifiedBy: "Chetan"})
	require.NoError(t, err)
	assert.False(t, added)

	x, _ := r.Find(ctx, "X")
	assert.Equal(t, "Chetan", x.BookedBy)
	assertInvariant(t, r)
}

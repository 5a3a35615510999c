package offline

import (
	"context"
	"errors"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomBookingManagement/internal/metrics"
	"roomBookingManagement/internal/testutil"
	"roomBookingManagement/models"
	"roomBookingManagement/repository"
)

type recordingApplier struct {
	applied []models.OfflineCommand
	failOn  map[models.CommandKind]bool
}

func (r *recordingApplier) Apply(_ context.Context, cmd models.OfflineCommand) error {
	r.applied = append(r.applied, cmd)
	if r.failOn[cmd.Kind] {
		return errors.New("boom")
	}
	return nil
}

func newManager(t *testing.T, name string) (*Manager, *repository.CommandRepository) {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, name)
	repo := repository.NewCommandRepository(d)
	return NewManager(repo, testutil.NullLogger()), repo
}

func TestManager_ModeTransitions(t *testing.T) {
	m, _ := newManager(t, "offlinemode")
	assert.Equal(t, Online, m.Mode())
	m.GoOffline()
	assert.True(t, m.IsOffline())
	assert.Equal(t, "OFFLINE", m.Mode().String())

	report, err := m.GoOnline(context.Background(), &recordingApplier{})
	require.NoError(t, err)
	assert.Equal(t, SyncReport{}, report)
	assert.Equal(t, Online, m.Mode())
}

func TestManager_ReplaysInOrderAndClears(t *testing.T) {
	m, _ := newManager(t, "offlinefifo")
	ctx := context.Background()
	m.GoOffline()

	cmds := []models.OfflineCommand{
		models.UploadRoomCommand("Chetan", "A", 10, true),
		models.BookRoomCommand("bob", 5, ""),
		models.ReleaseRoomCommand("bob", "A"),
		models.DeleteRoomCommand("A", "Chetan"),
	}
	for _, c := range cmds {
		_, err := m.Enqueue(ctx, c)
		require.NoError(t, err)
	}
	lines, err := m.ListQueued(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"UPLOAD_ROOM Chetan A 10 Yes", "BOOK_ROOM bob 5", "RELEASE_ROOM bob A", "DELETE_ROOM A Chetan"}, lines)

	// Listing does not consume
	n, err := m.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	applier := &recordingApplier{failOn: map[models.CommandKind]bool{models.CommandBookRoom: true}}
	report, err := m.GoOnline(ctx, applier)
	require.NoError(t, err)
	assert.Equal(t, cmds, applier.applied)
	assert.Equal(t, SyncReport{Applied: 3, Failed: 1}, report)

	n, err = m.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestManager_SkipsUndecodableRows(t *testing.T) {
	m, repo := newManager(t, "offlineskip")
	ctx := context.Background()
	logger, hook := testutil.CapturingLogger()
	m.log = logger

	_, err := repo.Append(ctx, "bad", models.CommandBookRoom, "BOOK_ROOM bob lots")
	require.NoError(t, err)
	_, err = m.Enqueue(ctx, models.DeleteUserCommand("bob"))
	require.NoError(t, err)

	applier := &recordingApplier{}
	report, err := m.Synchronize(ctx, applier)
	require.NoError(t, err)
	assert.Equal(t, SyncReport{Applied: 1, Skipped: 1}, report)
	require.Len(t, applier.applied, 1)
	assert.Equal(t, models.CommandDeleteUser, applier.applied[0].Kind)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	assert.True(t, warned)

	n, _ := m.Pending(ctx)
	assert.Zero(t, n)
}

func TestManager_EnqueueRejectsUnencodable(t *testing.T) {
	m, _ := newManager(t, "offlinereject")
	_, err := m.Enqueue(context.Background(), models.ReleaseRoomCommand("bob", "two words"))
	assert.Error(t, err)
	n, _ := m.Pending(context.Background())
	assert.Zero(t, n)
}

func TestNewManager_DepthGaugeCountsLeftoverRows(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "offlineleftover")
	repo := repository.NewCommandRepository(d)
	ctx := context.Background()
	_, err := repo.Append(ctx, "u-1", models.CommandDeleteUser, "DELETE_USER bob")
	require.NoError(t, err)
	_, err = repo.Append(ctx, "u-2", models.CommandDeleteUser, "DELETE_USER carol")
	require.NoError(t, err)

	metrics.QueueDepth.Set(0)
	m := NewManager(repo, testutil.NullLogger())
	assert.Equal(t, float64(2), promtest.ToFloat64(metrics.QueueDepth))

	n, err := m.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

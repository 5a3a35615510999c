package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"roomBookingManagement/internal/app"
	"roomBookingManagement/internal/archive"
	"roomBookingManagement/internal/errs"
	"roomBookingManagement/internal/testutil"
	"roomBookingManagement/models"
)

const testSecret = "test-secret"

type harness struct {
	conn   *grpc.ClientConn
	client *Client
	store  *archive.LocalProvider
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, "grpc_"+t.Name())
	log := testutil.NullLogger()
	svc := app.NewFromDB(d, log)
	require.NoError(t, svc.EnsureSuperAdmin(context.Background(), models.DefaultSuperAdminPassword))

	store := archive.NewLocalProvider(t.TempDir())
	srv := NewGRPCServer(testSecret, &Server{
		Service:  svc,
		Secret:   testSecret,
		TokenTTL: time.Hour,
		Archive:  store,
		Log:      log,
	})
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &harness{conn: conn, client: NewClient(conn), store: store}
}

func (h *harness) call(t *testing.T, token, method string, req map[string]any) (map[string]any, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if token != "" {
		ctx = testutil.OutgoingBearer(ctx, token)
	}
	return h.client.Call(ctx, method, req)
}

func (h *harness) mustCall(t *testing.T, token, method string, req map[string]any) map[string]any {
	t.Helper()
	out, err := h.call(t, token, method, req)
	require.NoError(t, err, method)
	return out
}

func (h *harness) login(t *testing.T, username, password string) string {
	t.Helper()
	out := h.mustCall(t, "", "Login", map[string]any{"username": username, "password": password})
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (h *harness) register(t *testing.T, username, password string) string {
	t.Helper()
	h.mustCall(t, "", "Register", map[string]any{"username": username, "password": password})
	return h.login(t, username, password)
}

func codeOf(err error) codes.Code {
	return status.Code(err)
}

func TestHealthCheck_BypassesAuth(t *testing.T) {
	h := newHarness(t)
	resp, err := healthpb.NewHealthClient(h.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestCallsWithoutToken_AreUnauthenticated(t *testing.T) {
	h := newHarness(t)
	_, err := h.call(t, "", "ListRooms", nil)
	assert.Equal(t, codes.Unauthenticated, codeOf(err))
}

func TestLogin_RejectsBadPassword(t *testing.T) {
	h := newHarness(t)
	_, err := h.call(t, "", "Login", map[string]any{"username": models.SuperAdminUsername, "password": "nope"})
	assert.Equal(t, codes.Unauthenticated, codeOf(err))

	_, err = h.call(t, "", "Login", map[string]any{"username": "ghost", "password": "x"})
	assert.Equal(t, codes.Unauthenticated, codeOf(err))
}

func TestLogin_WrongRoleIsRejected(t *testing.T) {
	h := newHarness(t)
	_, err := h.call(t, "", "Login", map[string]any{
		"username": models.SuperAdminUsername,
		"password": models.DefaultSuperAdminPassword,
		"role":     "USER",
	})
	assert.Equal(t, codes.Unauthenticated, codeOf(err))
}

func TestBookingFlow(t *testing.T) {
	h := newHarness(t)
	admin := h.login(t, models.SuperAdminUsername, models.DefaultSuperAdminPassword)

	h.mustCall(t, admin, "UploadRoom", map[string]any{"name": "A", "capacity": 4, "available": true})
	h.mustCall(t, admin, "UploadRoom", map[string]any{"name": "B", "capacity": 10, "available": true})

	alice := h.register(t, "alice", "pw1")
	bob := h.register(t, "bob", "pw2")

	out := h.mustCall(t, alice, "BookRoom", map[string]any{"participants": 3})
	assert.Equal(t, "APPLIED", out["outcome"])
	assert.Equal(t, true, out["booked"])
	room, _ := out["room"].(map[string]any)
	require.NotNil(t, room)
	assert.Equal(t, "A", room["name"])
	assert.Equal(t, "alice", room["booked_by"])

	out = h.mustCall(t, bob, "ReleaseRoom", map[string]any{"room": "A"})
	assert.Equal(t, "NOT_OWNER", out["status"])
	assert.Equal(t, false, out["released"])

	out = h.mustCall(t, alice, "MyRooms", nil)
	rooms, _ := out["rooms"].([]any)
	assert.Len(t, rooms, 1)

	_, err := h.call(t, admin, "DeleteRoom", map[string]any{"name": "A"})
	assert.Equal(t, codes.FailedPrecondition, codeOf(err))

	out = h.mustCall(t, alice, "ReleaseRoom", map[string]any{"room": "A"})
	assert.Equal(t, "SUCCESS", out["status"])

	h.mustCall(t, admin, "DeleteRoom", map[string]any{"name": "A"})
	out = h.mustCall(t, alice, "ListRooms", nil)
	rooms, _ = out["rooms"].([]any)
	assert.Len(t, rooms, 1)
}

func TestModifyRoom_AvailabilityDefaultsToCurrentState(t *testing.T) {
	h := newHarness(t)
	admin := h.login(t, models.SuperAdminUsername, models.DefaultSuperAdminPassword)
	h.mustCall(t, admin, "UploadRoom", map[string]any{"name": "A", "capacity": 4})
	alice := h.register(t, "alice", "pw")
	h.mustCall(t, alice, "BookRoom", map[string]any{"participants": 2, "room": "A"})

	out := h.mustCall(t, admin, "ModifyRoom", map[string]any{"name": "A", "capacity": 6})
	room, _ := out["room"].(map[string]any)
	assert.Equal(t, false, room["available"])
	assert.Equal(t, "alice", room["booked_by"])

	out = h.mustCall(t, admin, "ModifyRoom", map[string]any{"name": "A", "capacity": 6, "available": true})
	room, _ = out["room"].(map[string]any)
	assert.Equal(t, true, room["available"])
	assert.Equal(t, "", room["booked_by"])

	_, err := h.call(t, admin, "ModifyRoom", map[string]any{"name": "Ghost", "capacity": 1})
	assert.Equal(t, codes.NotFound, codeOf(err))
}

func TestBookRoom_NoFitIsNotAnError(t *testing.T) {
	h := newHarness(t)
	admin := h.login(t, models.SuperAdminUsername, models.DefaultSuperAdminPassword)
	h.mustCall(t, admin, "UploadRoom", map[string]any{"name": "A", "capacity": 2})
	alice := h.register(t, "alice", "pw")

	out := h.mustCall(t, alice, "BookRoom", map[string]any{"participants": 9})
	assert.Equal(t, false, out["booked"])
	assert.Nil(t, out["room"])
}

func TestAdminMethods_RejectUsers(t *testing.T) {
	h := newHarness(t)
	alice := h.register(t, "alice", "pw")

	_, err := h.call(t, alice, "UploadRoom", map[string]any{"name": "A", "capacity": 4})
	assert.Equal(t, codes.PermissionDenied, codeOf(err))
	_, err = h.call(t, alice, "GoOffline", nil)
	assert.Equal(t, codes.PermissionDenied, codeOf(err))
}

func TestDemotedAdminToken_IsRejected(t *testing.T) {
	h := newHarness(t)
	admin := h.login(t, models.SuperAdminUsername, models.DefaultSuperAdminPassword)
	h.mustCall(t, admin, "RegisterAdmin", map[string]any{"username": "ops", "password": "pw"})
	ops := h.login(t, "ops", "pw")
	h.mustCall(t, ops, "ListUsers", nil)

	h.mustCall(t, admin, "EditUser", map[string]any{"username": "ops", "password": "pw", "role": "USER"})
	_, err := h.call(t, ops, "ListUsers", nil)
	assert.Equal(t, codes.PermissionDenied, codeOf(err))
}

func TestSuperAdmin_CannotBeDeleted(t *testing.T) {
	h := newHarness(t)
	admin := h.login(t, models.SuperAdminUsername, models.DefaultSuperAdminPassword)
	_, err := h.call(t, admin, "DeleteUser", map[string]any{"username": models.SuperAdminUsername})
	assert.Equal(t, codes.PermissionDenied, codeOf(err))
}

func TestInvalidArguments(t *testing.T) {
	h := newHarness(t)
	admin := h.login(t, models.SuperAdminUsername, models.DefaultSuperAdminPassword)

	_, err := h.call(t, admin, "UploadRoom", map[string]any{"name": "A"})
	assert.Equal(t, codes.InvalidArgument, codeOf(err))
	_, err = h.call(t, admin, "UploadRoom", map[string]any{"name": "A", "capacity": 2.5})
	assert.Equal(t, codes.InvalidArgument, codeOf(err))
	_, err = h.call(t, admin, "UploadRoom", map[string]any{"name": "two words", "capacity": 2})
	assert.Equal(t, codes.InvalidArgument, codeOf(err))
	_, err = h.call(t, admin, "EditUser", map[string]any{"username": "x", "password": "y", "role": "ROOT"})
	assert.Equal(t, codes.InvalidArgument, codeOf(err))
}

func TestOfflineQueue_ReplaysOnGoOnline(t *testing.T) {
	h := newHarness(t)
	admin := h.login(t, models.SuperAdminUsername, models.DefaultSuperAdminPassword)
	h.mustCall(t, admin, "UploadRoom", map[string]any{"name": "A", "capacity": 4})
	alice := h.register(t, "alice", "pw")

	out := h.mustCall(t, admin, "GoOffline", nil)
	assert.Equal(t, "OFFLINE", out["mode"])

	out = h.mustCall(t, alice, "BookRoom", map[string]any{"participants": 2, "room": "A"})
	assert.Equal(t, "QUEUED", out["outcome"])
	assert.Equal(t, false, out["booked"])

	out = h.mustCall(t, alice, "Status", nil)
	assert.Equal(t, float64(1), out["pending"])

	out = h.mustCall(t, admin, "ListQueued", nil)
	cmds, _ := out["commands"].([]any)
	require.Len(t, cmds, 1)

	out = h.mustCall(t, admin, "GoOnline", nil)
	assert.Equal(t, "ONLINE", out["mode"])
	assert.Equal(t, float64(1), out["applied"])
	assert.Equal(t, float64(0), out["failed"])

	out = h.mustCall(t, alice, "MyRooms", nil)
	rooms, _ := out["rooms"].([]any)
	assert.Len(t, rooms, 1)
}

func TestHistory_Paginates(t *testing.T) {
	h := newHarness(t)
	admin := h.login(t, models.SuperAdminUsername, models.DefaultSuperAdminPassword)
	for i := 0; i < 3; i++ {
		h.mustCall(t, admin, "UploadRoom", map[string]any{"name": fmt.Sprintf("R%d", i), "capacity": 4})
	}

	out := h.mustCall(t, admin, "History", map[string]any{"page_size": 2})
	entries, _ := out["entries"].([]any)
	require.Len(t, entries, 2)
	token, _ := out["next_page_token"].(string)
	require.NotEmpty(t, token)

	out = h.mustCall(t, admin, "History", map[string]any{"page_size": 2, "page_token": token})
	entries, _ = out["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "", out["next_page_token"])
	last, _ := entries[0].(map[string]any)
	assert.Equal(t, "R2", last["room"])

	out = h.mustCall(t, admin, "History", map[string]any{"room": "R1", "actions": []any{"CREATE"}})
	entries, _ = out["entries"].([]any)
	assert.Len(t, entries, 1)

	_, err := h.call(t, admin, "History", map[string]any{"page_token": "!!"})
	assert.Equal(t, codes.InvalidArgument, codeOf(err))
	_, err = h.call(t, admin, "History", map[string]any{"actions": []any{"EXPLODE"}})
	assert.Equal(t, codes.InvalidArgument, codeOf(err))
}

func TestFloorPlans(t *testing.T) {
	h := newHarness(t)
	admin := h.login(t, models.SuperAdminUsername, models.DefaultSuperAdminPassword)
	h.mustCall(t, admin, "GoOffline", nil)

	out := h.mustCall(t, admin, "UploadFloorPlan", map[string]any{"name": "F1", "capacity": 30})
	plan, _ := out["floor_plan"].(map[string]any)
	assert.Equal(t, "F1", plan["name"])

	h.mustCall(t, admin, "ModifyFloorPlan", map[string]any{"name": "F1", "capacity": 40, "available": false})
	out = h.mustCall(t, admin, "ListFloorPlans", nil)
	plans, _ := out["floor_plans"].([]any)
	require.Len(t, plans, 1)
	got, _ := plans[0].(map[string]any)
	assert.Equal(t, float64(40), got["capacity"])
	assert.Equal(t, false, got["available"])

	_, err := h.call(t, admin, "ModifyFloorPlan", map[string]any{"name": "nope", "capacity": 1})
	assert.Equal(t, codes.NotFound, codeOf(err))
}

func TestExportImportBundle(t *testing.T) {
	h := newHarness(t)
	admin := h.login(t, models.SuperAdminUsername, models.DefaultSuperAdminPassword)
	h.mustCall(t, admin, "UploadRoom", map[string]any{"name": "A", "capacity": 4})

	h.mustCall(t, admin, "ExportBundle", map[string]any{"prefix": "snap"})
	keys, err := h.store.List(context.Background(), "snap")
	require.NoError(t, err)
	assert.NotEmpty(t, keys)

	out := h.mustCall(t, admin, "ImportBundle", map[string]any{"prefix": "snap"})
	assert.Equal(t, float64(0), out["rooms"])
	assert.Greater(t, out["skipped"].(float64), float64(0))

	_, err = h.call(t, admin, "ImportBundle", map[string]any{"prefix": "missing"})
	assert.Equal(t, codes.NotFound, codeOf(err))
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("room: %w", errs.ErrNotFound), codes.NotFound},
		{fmt.Errorf("room: %w", errs.ErrAlreadyExists), codes.AlreadyExists},
		{errs.ErrConflict, codes.FailedPrecondition},
		{errs.ErrForbidden, codes.PermissionDenied},
		{errs.ErrInvalidInput, codes.InvalidArgument},
		{status.Error(codes.Unavailable, "down"), codes.Unavailable},
		{errors.New("boom"), codes.Internal},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, codeOf(toStatus(c.err)), c.err.Error())
	}
	assert.NoError(t, toStatus(nil))
}

func TestCursorRoundTrip(t *testing.T) {
	id, err := decodeCursor(encodeCursor(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = decodeCursor("not-base64!")
	assert.Error(t, err)
}

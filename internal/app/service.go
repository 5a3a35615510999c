// Package app wires the room-booking components together and routes every mutating
// operation either to live state or, while offline, to the replay queue.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"roomBookingManagement/internal/booking"
	"roomBookingManagement/internal/credential"
	"roomBookingManagement/internal/errs"
	"roomBookingManagement/internal/flatfile"
	"roomBookingManagement/internal/floorplan"
	"roomBookingManagement/internal/history"
	"roomBookingManagement/internal/metrics"
	"roomBookingManagement/internal/offline"
	"roomBookingManagement/internal/registry"
	"roomBookingManagement/models"
	"roomBookingManagement/repository"
)

// Outcome tells the caller whether an operation ran or was deferred.
// A queued operation carries no real result; it is applied on the next GoOnline.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeQueued
)

func (o Outcome) String() string {
	if o == OutcomeQueued {
		return "QUEUED"
	}
	return "APPLIED"
}

var errNoSuitableRoom = errors.New("no suitable room")

// Service serialises all access to the booking components.
type Service struct {
	mu sync.Mutex

	creds   *credential.Store
	rooms   *registry.Registry
	plans   *floorplan.Registry
	engine  *booking.Engine
	history *history.Log
	queue   *offline.Manager
	log     logrus.FieldLogger
}

// NewFromDB builds every component on top of an opened database.
func NewFromDB(d *sql.DB, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := history.NewLog(repository.NewHistoryRepository(d), log.WithField("component", "history"))
	rooms := registry.New(repository.NewRoomRepository(d), h, log.WithField("component", "registry"))
	return &Service{
		creds:   credential.NewStore(repository.NewUserRepository(d), log.WithField("component", "credential")),
		rooms:   rooms,
		plans:   floorplan.New(repository.NewFloorPlanRepository(d), log.WithField("component", "floorplan")),
		engine:  booking.NewEngine(rooms, h, log.WithField("component", "booking")),
		history: h,
		queue:   offline.NewManager(repository.NewCommandRepository(d), log.WithField("component", "offline")),
		log:     log,
	}
}

// EnsureSuperAdmin seeds the protected administrator account.
func (s *Service) EnsureSuperAdmin(ctx context.Context, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.EnsureSuperAdmin(ctx, password)
}

// Register creates a regular user. Self-registration is never deferred.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if err := validNames(username); err != nil {
		return err
	}
	if err := validTokens(password); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Register(ctx, username, password, models.RoleUser)
}

// Login checks credentials against the expected role.
func (s *Service) Login(ctx context.Context, username, password string, role models.Role) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Authenticate(ctx, username, password, role)
}

// LookupUser returns the stored account or nil.
func (s *Service) LookupUser(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Lookup(ctx, username)
}

func (s *Service) UploadRoom(ctx context.Context, admin, name string, capacity int, available bool) (Outcome, *models.Room, error) {
	if err := validRoomInput(admin, name, capacity); err != nil {
		return OutcomeApplied, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.IsOffline() {
		return s.defer3(ctx, models.UploadRoomCommand(admin, name, capacity, available))
	}
	room, err := s.rooms.Add(ctx, admin, name, capacity, available)
	return OutcomeApplied, room, err
}

func (s *Service) ModifyRoom(ctx context.Context, admin, name string, capacity int, available bool) (Outcome, *models.Room, error) {
	if err := validRoomInput(admin, name, capacity); err != nil {
		return OutcomeApplied, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.IsOffline() {
		return s.defer3(ctx, models.ModifyRoomCommand(admin, name, capacity, available))
	}
	room, err := s.rooms.Modify(ctx, admin, name, capacity, available)
	return OutcomeApplied, room, err
}

func (s *Service) DeleteRoom(ctx context.Context, admin, name string) (Outcome, error) {
	if err := validNames(admin, name); err != nil {
		return OutcomeApplied, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.IsOffline() {
		return s.defer2(ctx, models.DeleteRoomCommand(name, admin))
	}
	return OutcomeApplied, s.rooms.Delete(ctx, name, admin)
}

func (s *Service) RegisterAdmin(ctx context.Context, admin, username, password string) (Outcome, error) {
	if err := validNames(admin, username); err != nil {
		return OutcomeApplied, err
	}
	if err := validTokens(password); err != nil {
		return OutcomeApplied, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.IsOffline() {
		return s.defer2(ctx, models.RegisterAdminCommand(admin, username, password))
	}
	return OutcomeApplied, s.registerAdmin(ctx, admin, username, password)
}

func (s *Service) DeleteUser(ctx context.Context, target string) (Outcome, error) {
	if err := validNames(target); err != nil {
		return OutcomeApplied, err
	}
	if target == models.SuperAdminUsername {
		return OutcomeApplied, fmt.Errorf("delete %q: %w", target, errs.ErrForbidden)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.IsOffline() {
		return s.defer2(ctx, models.DeleteUserCommand(target))
	}
	return OutcomeApplied, s.creds.Delete(ctx, target)
}

func (s *Service) EditUser(ctx context.Context, target, password string, role models.Role) (Outcome, error) {
	if err := validNames(target); err != nil {
		return OutcomeApplied, err
	}
	if err := validTokens(password); err != nil {
		return OutcomeApplied, err
	}
	if _, err := models.ParseRole(string(role)); err != nil {
		return OutcomeApplied, fmt.Errorf("%v: %w", err, errs.ErrInvalidInput)
	}
	if target == models.SuperAdminUsername {
		return OutcomeApplied, fmt.Errorf("edit %q: %w", target, errs.ErrForbidden)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.IsOffline() {
		return s.defer2(ctx, models.EditUserCommand(target, password, role))
	}
	return OutcomeApplied, s.creds.Edit(ctx, target, password, role)
}

// BookRoom books roomName, or the best fit when roomName is empty.
// A nil room with a nil error means nothing qualified.
func (s *Service) BookRoom(ctx context.Context, username string, participants int, roomName string) (Outcome, *models.Room, error) {
	if err := validNames(username); err != nil {
		return OutcomeApplied, nil, err
	}
	if roomName != "" && !flatfile.ValidName(roomName) {
		return OutcomeApplied, nil, fmt.Errorf("room name %q: %w", roomName, errs.ErrInvalidInput)
	}
	if participants < 1 {
		return OutcomeApplied, nil, fmt.Errorf("participants %d: %w", participants, errs.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.IsOffline() {
		metrics.BookingsTotal.WithLabelValues("queued").Inc()
		return s.defer3(ctx, models.BookRoomCommand(username, participants, roomName))
	}
	room, err := s.book(ctx, username, participants, roomName)
	return OutcomeApplied, room, err
}

func (s *Service) ReleaseRoom(ctx context.Context, username, roomName string) (Outcome, booking.ReleaseStatus, error) {
	if err := validNames(username, roomName); err != nil {
		return OutcomeApplied, booking.ReleaseNotFound, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.IsOffline() {
		outcome, err := s.defer2(ctx, models.ReleaseRoomCommand(username, roomName))
		return outcome, booking.ReleaseQueued, err
	}
	status, err := s.release(ctx, username, roomName)
	return OutcomeApplied, status, err
}

func (s *Service) SuggestRooms(ctx context.Context, participants int) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Suggest(ctx, participants)
}

func (s *Service) MyRooms(ctx context.Context, username string) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.BookedBy(ctx, username)
}

func (s *Service) ListRooms(ctx context.Context) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms.List(ctx)
}

func (s *Service) FindRoom(ctx context.Context, name string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms.Find(ctx, name)
}

func (s *Service) ListUsers(ctx context.Context) ([]credential.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.ListAll(ctx)
}

func (s *Service) History(ctx context.Context, p repository.ListHistoryParams) ([]models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Query(ctx, p)
}

// Floor plans are applied immediately in either mode.

func (s *Service) ListFloorPlans(ctx context.Context) ([]models.FloorPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plans.List(ctx)
}

func (s *Service) UploadFloorPlan(ctx context.Context, admin, name string, capacity int, available bool) (*models.FloorPlan, error) {
	if err := validRoomInput(admin, name, capacity); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plans.Upload(ctx, admin, name, capacity, available)
}

func (s *Service) ModifyFloorPlan(ctx context.Context, admin, name string, capacity int, available bool) (*models.FloorPlan, error) {
	if err := validRoomInput(admin, name, capacity); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plans.Modify(ctx, admin, name, capacity, available)
}

func (s *Service) Mode() offline.Mode {
	return s.queue.Mode()
}

func (s *Service) GoOffline() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.GoOffline()
}

// GoOnline switches to online mode and replays every queued command in order.
func (s *Service) GoOnline(ctx context.Context) (offline.SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.GoOnline(ctx, liveApplier{s: s})
}

func (s *Service) ListQueued(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.ListQueued(ctx)
}

func (s *Service) Pending(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Pending(ctx)
}

func (s *Service) defer2(ctx context.Context, cmd models.OfflineCommand) (Outcome, error) {
	if _, err := s.queue.Enqueue(ctx, cmd); err != nil {
		return OutcomeApplied, err
	}
	return OutcomeQueued, nil
}

func (s *Service) defer3(ctx context.Context, cmd models.OfflineCommand) (Outcome, *models.Room, error) {
	outcome, err := s.defer2(ctx, cmd)
	return outcome, nil, err
}

func (s *Service) registerAdmin(ctx context.Context, admin, username, password string) error {
	if err := s.creds.Register(ctx, username, password, models.RoleAdmin); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"admin": admin, "user": username}).Info("admin registered")
	return nil
}

func (s *Service) book(ctx context.Context, username string, participants int, roomName string) (*models.Room, error) {
	room, err := s.engine.Book(ctx, username, participants, roomName)
	switch {
	case err != nil:
		metrics.BookingsTotal.WithLabelValues("error").Inc()
	case room == nil:
		metrics.BookingsTotal.WithLabelValues("none").Inc()
	default:
		metrics.BookingsTotal.WithLabelValues("booked").Inc()
	}
	return room, err
}

func (s *Service) release(ctx context.Context, username, roomName string) (booking.ReleaseStatus, error) {
	status, err := s.engine.Release(ctx, username, roomName)
	if err == nil {
		metrics.ReleasesTotal.WithLabelValues(status.String()).Inc()
	}
	return status, err
}

// liveApplier replays a command through the same paths as an online call.
// It runs with the service lock already held.
type liveApplier struct {
	s *Service
}

func (a liveApplier) Apply(ctx context.Context, cmd models.OfflineCommand) error {
	s := a.s
	switch cmd.Kind {
	case models.CommandUploadRoom:
		_, err := s.rooms.Add(ctx, cmd.Actor, cmd.RoomName, cmd.Capacity, cmd.Available)
		return err
	case models.CommandModifyRoom:
		_, err := s.rooms.Modify(ctx, cmd.Actor, cmd.RoomName, cmd.Capacity, cmd.Available)
		return err
	case models.CommandRegisterNewAdmin:
		return s.registerAdmin(ctx, cmd.Actor, cmd.TargetUser, cmd.Password)
	case models.CommandBookRoom:
		room, err := s.book(ctx, cmd.Actor, cmd.Participants, cmd.RoomName)
		if err != nil {
			return err
		}
		if room == nil {
			return errNoSuitableRoom
		}
		return nil
	case models.CommandReleaseRoom:
		status, err := s.release(ctx, cmd.Actor, cmd.RoomName)
		if err != nil {
			return err
		}
		if status != booking.ReleaseSuccess {
			return fmt.Errorf("release %s: %s", cmd.RoomName, status)
		}
		return nil
	case models.CommandDeleteUser:
		return s.creds.Delete(ctx, cmd.TargetUser)
	case models.CommandEditUser:
		return s.creds.Edit(ctx, cmd.TargetUser, cmd.Password, cmd.Role)
	case models.CommandDeleteRoom:
		admin := cmd.Actor
		if admin == "" {
			admin = models.SuperAdminUsername
		}
		return s.rooms.Delete(ctx, cmd.RoomName, admin)
	}
	return fmt.Errorf("command kind %q: %w", cmd.Kind, errs.ErrInvalidInput)
}

func validTokens(tokens ...string) error {
	for _, t := range tokens {
		if !flatfile.ValidToken(t) {
			return fmt.Errorf("%q must be a single non-empty word: %w", t, errs.ErrInvalidInput)
		}
	}
	return nil
}

// validNames checks user and room names, which must also survive export.
func validNames(names ...string) error {
	for _, n := range names {
		if !flatfile.ValidName(n) {
			return fmt.Errorf("%q must be a single word, not \"none\" and not starting with '#': %w", n, errs.ErrInvalidInput)
		}
	}
	return nil
}

func validRoomInput(admin, name string, capacity int) error {
	if err := validNames(admin, name); err != nil {
		return err
	}
	if capacity < 0 {
		return fmt.Errorf("capacity %d: %w", capacity, errs.ErrInvalidInput)
	}
	return nil
}

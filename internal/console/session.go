// Package console implements the line-oriented operator session.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"roomBookingManagement/internal/app"
	"roomBookingManagement/internal/archive"
	"roomBookingManagement/internal/errs"
	"roomBookingManagement/models"
	"roomBookingManagement/repository"
)

// ErrQuit is returned by Execute when the session should end.
var ErrQuit = errors.New("quit")

type command struct {
	usage string
	admin bool // requires an ADMIN session
	user  bool // requires a USER session
	run   func(ctx context.Context, s *Session, args []string) error
}

// Session reads commands from in and writes results to out.
// One Session serves one operator; the Service handles concurrent sessions.
type Session struct {
	svc      *app.Service
	provider archive.Provider
	in       *bufio.Scanner
	out      io.Writer
	log      logrus.FieldLogger

	current *models.User
}

func New(svc *app.Service, provider archive.Provider, in io.Reader, out io.Writer, log logrus.FieldLogger) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{svc: svc, provider: provider, in: bufio.NewScanner(in), out: out, log: log}
}

// Run processes lines until quit, EOF or ctx cancellation.
func (s *Session) Run(ctx context.Context) error {
	s.printf("Room booking console. Type 'help' for commands.\n")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.printf("%s> ", s.prompt())
		if !s.in.Scan() {
			return s.in.Err()
		}
		err := s.Execute(ctx, s.in.Text())
		if errors.Is(err, ErrQuit) {
			s.printf("bye\n")
			return nil
		}
		if err != nil {
			s.printf("error: %v\n", err)
		}
	}
}

// Execute runs a single command line.
func (s *Session) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, try 'help'", name)
	}
	if cmd.admin {
		if err := s.requireRole(ctx, models.RoleAdmin); err != nil {
			return err
		}
	}
	if cmd.user {
		if err := s.requireRole(ctx, models.RoleUser); err != nil {
			return err
		}
	}
	return cmd.run(ctx, s, args)
}

func (s *Session) prompt() string {
	if s.current == nil {
		return s.svc.Mode().String()
	}
	return s.current.Username + "@" + s.svc.Mode().String()
}

// requireRole checks the session role and re-reads the stored account so a
// demoted or deleted admin loses access immediately.
func (s *Session) requireRole(ctx context.Context, role models.Role) error {
	if s.current == nil {
		return fmt.Errorf("log in first: %w", errs.ErrUnauthorized)
	}
	u, err := s.svc.LookupUser(ctx, s.current.Username)
	if err != nil {
		return err
	}
	if u == nil {
		s.current = nil
		return fmt.Errorf("account no longer exists: %w", errs.ErrUnauthorized)
	}
	if u.Role != role {
		return fmt.Errorf("only %s accounts can do that: %w", strings.ToLower(string(role)), errs.ErrForbidden)
	}
	return nil
}

func (s *Session) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Session) report(outcome app.Outcome, done string) {
	if outcome == app.OutcomeQueued {
		s.printf("queued for replay when back online\n")
		return
	}
	s.printf("%s\n", done)
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":     {usage: "help", run: cmdHelp},
		"quit":     {usage: "quit", run: func(context.Context, *Session, []string) error { return ErrQuit }},
		"login":    {usage: "login <username> <password> [USER|ADMIN]", run: cmdLogin},
		"register": {usage: "register <username> <password>", run: cmdRegister},
		"logout":   {usage: "logout", run: cmdLogout},
		"rooms":    {usage: "rooms", run: cmdRooms},

		"suggest": {usage: "suggest <participants>", user: true, run: cmdSuggest},
		"book":    {usage: "book <participants> [room]", user: true, run: cmdBook},
		"release": {usage: "release <room>", user: true, run: cmdRelease},
		"mine":    {usage: "mine", user: true, run: cmdMine},

		"upload":      {usage: "upload <room> <capacity> [yes|no]", admin: true, run: cmdUpload},
		"modify":      {usage: "modify <room> <capacity> <yes|no>", admin: true, run: cmdModify},
		"delete-room": {usage: "delete-room <room>", admin: true, run: cmdDeleteRoom},
		"plans":       {usage: "plans", admin: true, run: cmdPlans},
		"upload-plan": {usage: "upload-plan <name> <capacity> [yes|no]", admin: true, run: cmdUploadPlan},
		"modify-plan": {usage: "modify-plan <name> <capacity> <yes|no>", admin: true, run: cmdModifyPlan},
		"add-admin":   {usage: "add-admin <username> <password>", admin: true, run: cmdAddAdmin},
		"users":       {usage: "users", admin: true, run: cmdUsers},
		"edit-user":   {usage: "edit-user <username> <password> <USER|ADMIN>", admin: true, run: cmdEditUser},
		"delete-user": {usage: "delete-user <username>", admin: true, run: cmdDeleteUser},
		"offline":     {usage: "offline", admin: true, run: cmdOffline},
		"online":      {usage: "online", admin: true, run: cmdOnline},
		"queue":       {usage: "queue", admin: true, run: cmdQueue},
		"history":     {usage: "history [room]", admin: true, run: cmdHistory},
		"export":      {usage: "export <prefix>", admin: true, run: cmdExport},
		"import":      {usage: "import <prefix>", admin: true, run: cmdImport},
	}
}

func usageError(name string) error {
	return fmt.Errorf("usage: %s: %w", commands[name].usage, errs.ErrInvalidInput)
}

func parseCount(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number: %w", raw, errs.ErrInvalidInput)
	}
	return n, nil
}

func parseYesNo(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "yes", "y", "true":
		return true, nil
	case "no", "n", "false":
		return false, nil
	}
	return false, fmt.Errorf("%q: expected yes or no: %w", raw, errs.ErrInvalidInput)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func cmdHelp(_ context.Context, s *Session, _ []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands[name]
		tag := ""
		switch {
		case c.admin:
			tag = " (admin)"
		case c.user:
			tag = " (user)"
		}
		s.printf("  %s%s\n", c.usage, tag)
	}
	return nil
}

func cmdLogin(ctx context.Context, s *Session, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return usageError("login")
	}
	var role models.Role
	if len(args) == 3 {
		r, err := models.ParseRole(args[2])
		if err != nil {
			return fmt.Errorf("%v: %w", err, errs.ErrInvalidInput)
		}
		role = r
	} else {
		u, err := s.svc.LookupUser(ctx, args[0])
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("invalid credentials: %w", errs.ErrUnauthorized)
		}
		role = u.Role
	}
	ok, err := s.svc.Login(ctx, args[0], args[1], role)
	if err != nil {
		return err
	}
	if !ok {
		s.log.WithField("user", args[0]).Warn("console login rejected")
		return fmt.Errorf("invalid credentials: %w", errs.ErrUnauthorized)
	}
	s.current = &models.User{Username: args[0], Role: role}
	s.printf("logged in as %s (%s)\n", args[0], role)
	return nil
}

func cmdRegister(ctx context.Context, s *Session, args []string) error {
	if len(args) != 2 {
		return usageError("register")
	}
	if err := s.svc.Register(ctx, args[0], args[1]); err != nil {
		return err
	}
	s.printf("registered %s\n", args[0])
	return nil
}

func cmdLogout(_ context.Context, s *Session, _ []string) error {
	s.current = nil
	s.printf("logged out\n")
	return nil
}

func (s *Session) printRooms(rooms []models.Room) {
	if len(rooms) == 0 {
		s.printf("no rooms\n")
		return
	}
	for _, r := range rooms {
		holder := "-"
		if r.BookedBy != "" {
			holder = r.BookedBy
		}
		s.printf("%-16s capacity=%-4d available=%-3s booked_by=%s\n", r.Name, r.Capacity, yesNo(r.Available), holder)
	}
}

func cmdRooms(ctx context.Context, s *Session, _ []string) error {
	if s.current == nil {
		return fmt.Errorf("log in first: %w", errs.ErrUnauthorized)
	}
	rooms, err := s.svc.ListRooms(ctx)
	if err != nil {
		return err
	}
	s.printRooms(rooms)
	return nil
}

func cmdSuggest(ctx context.Context, s *Session, args []string) error {
	if len(args) != 1 {
		return usageError("suggest")
	}
	n, err := parseCount(args[0])
	if err != nil {
		return err
	}
	rooms, err := s.svc.SuggestRooms(ctx, n)
	if err != nil {
		return err
	}
	s.printRooms(rooms)
	return nil
}

func cmdBook(ctx context.Context, s *Session, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError("book")
	}
	n, err := parseCount(args[0])
	if err != nil {
		return err
	}
	name := ""
	if len(args) == 2 {
		name = args[1]
	}
	outcome, room, err := s.svc.BookRoom(ctx, s.current.Username, n, name)
	if err != nil {
		return err
	}
	switch {
	case outcome == app.OutcomeQueued:
		s.report(outcome, "")
	case room == nil:
		s.printf("no suitable room available\n")
	default:
		s.printf("booked %s (capacity %d)\n", room.Name, room.Capacity)
	}
	return nil
}

func cmdRelease(ctx context.Context, s *Session, args []string) error {
	if len(args) != 1 {
		return usageError("release")
	}
	outcome, st, err := s.svc.ReleaseRoom(ctx, s.current.Username, args[0])
	if err != nil {
		return err
	}
	if outcome == app.OutcomeQueued {
		s.report(outcome, "")
		return nil
	}
	s.printf("release %s: %s\n", args[0], st)
	return nil
}

func cmdMine(ctx context.Context, s *Session, _ []string) error {
	rooms, err := s.svc.MyRooms(ctx, s.current.Username)
	if err != nil {
		return err
	}
	s.printRooms(rooms)
	return nil
}

type roomArgs struct {
	name      string
	capacity  int
	available bool
}

func parseRoomArgs(name string, args []string, availabilityRequired bool) (roomArgs, error) {
	want := 2
	if availabilityRequired {
		want = 3
	}
	if len(args) < want || len(args) > 3 {
		return roomArgs{}, usageError(name)
	}
	capacity, err := parseCount(args[1])
	if err != nil {
		return roomArgs{}, err
	}
	ra := roomArgs{name: args[0], capacity: capacity, available: true}
	if len(args) == 3 {
		if ra.available, err = parseYesNo(args[2]); err != nil {
			return roomArgs{}, err
		}
	}
	return ra, nil
}

func cmdUpload(ctx context.Context, s *Session, args []string) error {
	ra, err := parseRoomArgs("upload", args, false)
	if err != nil {
		return err
	}
	outcome, _, err := s.svc.UploadRoom(ctx, s.current.Username, ra.name, ra.capacity, ra.available)
	if err != nil {
		return err
	}
	s.report(outcome, "room "+ra.name+" added")
	return nil
}

func cmdModify(ctx context.Context, s *Session, args []string) error {
	ra, err := parseRoomArgs("modify", args, true)
	if err != nil {
		return err
	}
	outcome, _, err := s.svc.ModifyRoom(ctx, s.current.Username, ra.name, ra.capacity, ra.available)
	if err != nil {
		return err
	}
	s.report(outcome, "room "+ra.name+" updated")
	return nil
}

func cmdDeleteRoom(ctx context.Context, s *Session, args []string) error {
	if len(args) != 1 {
		return usageError("delete-room")
	}
	outcome, err := s.svc.DeleteRoom(ctx, s.current.Username, args[0])
	if err != nil {
		return err
	}
	s.report(outcome, "room "+args[0]+" deleted")
	return nil
}

func cmdPlans(ctx context.Context, s *Session, _ []string) error {
	plans, err := s.svc.ListFloorPlans(ctx)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		s.printf("no floor plans\n")
	}
	for _, p := range plans {
		s.printf("%-16s capacity=%-4d available=%s\n", p.Name, p.Capacity, yesNo(p.Available))
	}
	return nil
}

func cmdUploadPlan(ctx context.Context, s *Session, args []string) error {
	ra, err := parseRoomArgs("upload-plan", args, false)
	if err != nil {
		return err
	}
	if _, err := s.svc.UploadFloorPlan(ctx, s.current.Username, ra.name, ra.capacity, ra.available); err != nil {
		return err
	}
	s.printf("floor plan %s added\n", ra.name)
	return nil
}

func cmdModifyPlan(ctx context.Context, s *Session, args []string) error {
	ra, err := parseRoomArgs("modify-plan", args, true)
	if err != nil {
		return err
	}
	if _, err := s.svc.ModifyFloorPlan(ctx, s.current.Username, ra.name, ra.capacity, ra.available); err != nil {
		return err
	}
	s.printf("floor plan %s updated\n", ra.name)
	return nil
}

func cmdAddAdmin(ctx context.Context, s *Session, args []string) error {
	if len(args) != 2 {
		return usageError("add-admin")
	}
	outcome, err := s.svc.RegisterAdmin(ctx, s.current.Username, args[0], args[1])
	if err != nil {
		return err
	}
	s.report(outcome, "admin "+args[0]+" registered")
	return nil
}

func cmdUsers(ctx context.Context, s *Session, _ []string) error {
	accounts, err := s.svc.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		note := ""
		if a.Protected {
			note = " (protected)"
		}
		s.printf("%-16s %s%s\n", a.Username, a.Role, note)
	}
	return nil
}

func cmdEditUser(ctx context.Context, s *Session, args []string) error {
	if len(args) != 3 {
		return usageError("edit-user")
	}
	role, err := models.ParseRole(args[2])
	if err != nil {
		return fmt.Errorf("%v: %w", err, errs.ErrInvalidInput)
	}
	outcome, err := s.svc.EditUser(ctx, args[0], args[1], role)
	if err != nil {
		return err
	}
	s.report(outcome, "user "+args[0]+" updated")
	return nil
}

func cmdDeleteUser(ctx context.Context, s *Session, args []string) error {
	if len(args) != 1 {
		return usageError("delete-user")
	}
	outcome, err := s.svc.DeleteUser(ctx, args[0])
	if err != nil {
		return err
	}
	s.report(outcome, "user "+args[0]+" deleted")
	return nil
}

func cmdOffline(_ context.Context, s *Session, _ []string) error {
	s.svc.GoOffline()
	s.printf("offline: changes will be queued\n")
	return nil
}

func cmdOnline(ctx context.Context, s *Session, _ []string) error {
	report, err := s.svc.GoOnline(ctx)
	if err != nil {
		return err
	}
	s.printf("online: replayed %d, failed %d, skipped %d\n", report.Applied, report.Failed, report.Skipped)
	return nil
}

func cmdQueue(ctx context.Context, s *Session, _ []string) error {
	lines, err := s.svc.ListQueued(ctx)
	if err != nil {
		return err
	}
	s.printf("mode %s, %d queued\n", s.svc.Mode(), len(lines))
	for i, l := range lines {
		s.printf("%3d  %s\n", i+1, l)
	}
	return nil
}

func cmdHistory(ctx context.Context, s *Session, args []string) error {
	if len(args) > 1 {
		return usageError("history")
	}
	var p repository.ListHistoryParams
	if len(args) == 1 {
		p.RoomName = &args[0]
	}
	entries, err := s.svc.History(ctx, p)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		s.printf("no history\n")
	}
	for _, e := range entries {
		capacity := "-"
		if e.Capacity >= 0 {
			capacity = strconv.Itoa(e.Capacity)
		}
		s.printf("%s %-7s %-16s by %-12s capacity=%s available=%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.RoomName, e.Actor, capacity, yesNo(e.Available))
	}
	return nil
}

func (s *Session) archive() (archive.Provider, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("archive is not configured: %w", errs.ErrConflict)
	}
	return s.provider, nil
}

func cmdExport(ctx context.Context, s *Session, args []string) error {
	if len(args) != 1 {
		return usageError("export")
	}
	p, err := s.archive()
	if err != nil {
		return err
	}
	if err := archive.NewExporter(s.svc, p, s.log).Export(ctx, args[0]); err != nil {
		return err
	}
	s.printf("exported to %s\n", args[0])
	return nil
}

func cmdImport(ctx context.Context, s *Session, args []string) error {
	if len(args) != 1 {
		return usageError("import")
	}
	p, err := s.archive()
	if err != nil {
		return err
	}
	r, err := archive.NewImporter(s.svc, p, s.log).Import(ctx, args[0])
	if err != nil {
		return err
	}
	s.printf("imported users=%d rooms=%d floor_plans=%d history=%d queued=%d skipped=%d\n",
		r.Users, r.Rooms, r.FloorPlans, r.History, r.Queued, r.Skipped)
	return nil
}

package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	"roomBookingManagement/internal/errs"
	"roomBookingManagement/internal/flatfile"
	"roomBookingManagement/models"
)

// Bundle file names.
const (
	ManifestFile   = "manifest.txt"
	UsersFile      = "hashed_users.txt"
	AdminsFile     = "hashed_admins.txt"
	RoomsFile      = "rooms.txt"
	FloorPlansFile = "floor_plans.txt"
	HistoryFile    = "history.log"
	QueueFile      = "offline_changes.txt"
)

const textContentType = "text/plain; charset=utf-8"

// Source supplies the state written by Export.
type Source interface {
	ExportUsers(ctx context.Context) ([]models.User, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
	ListFloorPlans(ctx context.Context) ([]models.FloorPlan, error)
	ExportHistory(ctx context.Context) ([]models.HistoryEntry, error)
	ListQueued(ctx context.Context) ([]string, error)
}

// Sink receives the state read by Import. Restore methods report false for
// records whose name already exists.
type Sink interface {
	RestoreUser(ctx context.Context, username string, hash uint64, role models.Role) (bool, error)
	RestoreRoom(ctx context.Context, room models.Room) (bool, error)
	RestoreFloorPlan(ctx context.Context, plan models.FloorPlan) (bool, error)
	RestoreHistory(ctx context.Context, entries []models.HistoryEntry) (int, error)
	RestoreQueued(ctx context.Context, cmd models.OfflineCommand) error
}

// Report counts what an import added and skipped.
type Report struct {
	Users      int `json:"users"`
	Rooms      int `json:"rooms"`
	FloorPlans int `json:"floor_plans"`
	History    int `json:"history"`
	Queued     int `json:"queued"`
	Skipped    int `json:"skipped"`
}

type Exporter struct {
	src      Source
	provider Provider
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewExporter(src Source, provider Provider, log logrus.FieldLogger) *Exporter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Exporter{src: src, provider: provider, log: log, now: time.Now}
}

// Export writes a full bundle under prefix. The manifest is written last so a
// bundle without one is known to be incomplete.
func (e *Exporter) Export(ctx context.Context, prefix string) error {
	users, err := e.src.ExportUsers(ctx)
	if err != nil {
		return err
	}
	var plain, admins []flatfile.Credential
	for _, u := range users {
		c := flatfile.Credential{Username: u.Username, Hash: u.PasswordHash}
		if u.Role == models.RoleAdmin {
			admins = append(admins, c)
		} else {
			plain = append(plain, c)
		}
	}
	rooms, err := e.src.ListRooms(ctx)
	if err != nil {
		return err
	}
	plans, err := e.src.ListFloorPlans(ctx)
	if err != nil {
		return err
	}
	entries, err := e.src.ExportHistory(ctx)
	if err != nil {
		return err
	}
	queued, err := e.src.ListQueued(ctx)
	if err != nil {
		return err
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{UsersFile, func(w io.Writer) error { return flatfile.WriteAll(w, plain, flatfile.EncodeCredential) }},
		{AdminsFile, func(w io.Writer) error { return flatfile.WriteAll(w, admins, flatfile.EncodeCredential) }},
		{RoomsFile, func(w io.Writer) error { return flatfile.WriteAll(w, rooms, flatfile.EncodeRoom) }},
		{FloorPlansFile, func(w io.Writer) error { return flatfile.WriteAll(w, plans, flatfile.EncodeFloorPlan) }},
		{HistoryFile, func(w io.Writer) error { return flatfile.WriteAll(w, entries, flatfile.EncodeHistory) }},
		{QueueFile, func(w io.Writer) error {
			return flatfile.WriteAll(w, queued, func(s string) (string, error) { return s, nil })
		}},
		{ManifestFile, func(w io.Writer) error {
			_, err := io.WriteString(w, flatfile.EncodeManifest(flatfile.FormatVersion, e.now()))
			return err
		}},
	}
	for _, f := range files {
		var buf bytes.Buffer
		if err := f.write(&buf); err != nil {
			return fmt.Errorf("encode %s: %w", f.name, err)
		}
		if err := e.provider.Put(ctx, path.Join(prefix, f.name), bytes.NewReader(buf.Bytes()), textContentType); err != nil {
			return fmt.Errorf("store %s: %w", f.name, err)
		}
	}
	e.log.WithFields(logrus.Fields{"prefix": prefix, "users": len(users), "rooms": len(rooms)}).Info("bundle exported")
	return nil
}

type Importer struct {
	sink     Sink
	provider Provider
	log      logrus.FieldLogger
}

func NewImporter(sink Sink, provider Provider, log logrus.FieldLogger) *Importer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Importer{sink: sink, provider: provider, log: log}
}

// Import loads the bundle under prefix. Only the manifest is mandatory; records
// whose names already exist are left untouched.
func (im *Importer) Import(ctx context.Context, prefix string) (Report, error) {
	var report Report

	rc, err := im.provider.Get(ctx, path.Join(prefix, ManifestFile))
	if err != nil {
		return report, fmt.Errorf("bundle %q: %w", prefix, err)
	}
	version, err := flatfile.DecodeManifest(rc)
	_ = rc.Close()
	if err != nil {
		return report, err
	}
	if version != flatfile.FormatVersion {
		return report, fmt.Errorf("bundle format %d, want %d: %w", version, flatfile.FormatVersion, errs.ErrInvalidInput)
	}

	for _, f := range []struct {
		name string
		role models.Role
	}{{UsersFile, models.RoleUser}, {AdminsFile, models.RoleAdmin}} {
		creds, err := readFile(ctx, im.provider, path.Join(prefix, f.name), flatfile.DecodeCredential)
		if err != nil {
			return report, err
		}
		for _, c := range creds {
			added, err := im.sink.RestoreUser(ctx, c.Username, c.Hash, f.role)
			if err != nil {
				return report, err
			}
			count(&report.Users, &report.Skipped, added)
		}
	}

	rooms, err := readFile(ctx, im.provider, path.Join(prefix, RoomsFile), flatfile.DecodeRoom)
	if err != nil {
		return report, err
	}
	for _, r := range rooms {
		added, err := im.sink.RestoreRoom(ctx, r)
		if err != nil {
			return report, err
		}
		count(&report.Rooms, &report.Skipped, added)
	}

	plans, err := readFile(ctx, im.provider, path.Join(prefix, FloorPlansFile), flatfile.DecodeFloorPlan)
	if err != nil {
		return report, err
	}
	for _, p := range plans {
		added, err := im.sink.RestoreFloorPlan(ctx, p)
		if err != nil {
			return report, err
		}
		count(&report.FloorPlans, &report.Skipped, added)
	}

	entries, err := readFile(ctx, im.provider, path.Join(prefix, HistoryFile), flatfile.DecodeHistory)
	if err != nil {
		return report, err
	}
	if report.History, err = im.sink.RestoreHistory(ctx, entries); err != nil {
		return report, err
	}

	cmds, err := readFile(ctx, im.provider, path.Join(prefix, QueueFile), flatfile.DecodeCommand)
	if err != nil {
		return report, err
	}
	for _, c := range cmds {
		if err := im.sink.RestoreQueued(ctx, c); err != nil {
			return report, err
		}
		report.Queued++
	}

	im.log.WithFields(logrus.Fields{
		"prefix": prefix, "users": report.Users, "rooms": report.Rooms,
		"floor_plans": report.FloorPlans, "history": report.History, "queued": report.Queued, "skipped": report.Skipped,
	}).Info("bundle imported")
	return report, nil
}

func readFile[T any](ctx context.Context, p Provider, key string, decode func(string) (T, error)) ([]T, error) {
	rc, err := p.Get(ctx, key)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	defer rc.Close()
	items, err := flatfile.ReadAll(rc, decode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return items, nil
}

func count(added, skipped *int, ok bool) {
	if ok {
		*added++
	} else {
		*skipped++
	}
}

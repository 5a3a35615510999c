// Package flatfile reads and writes the whitespace-delimited text records used by
// the legacy room-booking data files.
//
//	hashed_users.txt   <username> <hash>
//	rooms.txt          <name> <lastModifiedBy> <capacity> <Yes|No> <bookedBy|none>
//	floor_plans.txt    <name> <lastModifiedBy> <capacity> <Yes|No>
//	history.log        <unix> <ACTION> <room> <actor> <capacity> <Yes|No>
//	offline_changes    <TAG> <args...>
//
// Blank lines and lines starting with '#' are ignored on read.
package flatfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"roomBookingManagement/internal/errs"
	"roomBookingManagement/models"
)

const noBooker = "none"

// FormatVersion is written to export manifests.
const FormatVersion = 1

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func parseYesNo(s string) (bool, error) {
	switch s {
	case "Yes":
		return true, nil
	case "No":
		return false, nil
	}
	return false, fmt.Errorf("expected Yes or No, got %q: %w", s, errs.ErrInvalidInput)
}

func parseInt(field, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number: %w", field, s, errs.ErrInvalidInput)
	}
	return n, nil
}

// ValidToken reports whether s can be stored as a single field. Any rune that
// strings.Fields splits on is rejected.
func ValidToken(s string) bool {
	return s != "" && strings.IndexFunc(s, unicode.IsSpace) < 0
}

// ValidName reports whether s can be stored as a user or room name: a valid token
// that is neither the "none" booker placeholder nor starts a comment line.
func ValidName(s string) bool {
	return ValidToken(s) && s != noBooker && !strings.HasPrefix(s, "#")
}

func checkTokens(tokens ...string) error {
	for _, t := range tokens {
		if !ValidToken(t) {
			return fmt.Errorf("field %q is empty or contains whitespace: %w", t, errs.ErrInvalidInput)
		}
	}
	return nil
}

func checkNames(names ...string) error {
	for _, n := range names {
		if !ValidName(n) {
			return fmt.Errorf("name %q is empty, reserved or contains whitespace: %w", n, errs.ErrInvalidInput)
		}
	}
	return nil
}

func expectFields(line string, n ...int) ([]string, error) {
	f := strings.Fields(line)
	for _, want := range n {
		if len(f) == want {
			return f, nil
		}
	}
	return nil, fmt.Errorf("expected %v fields, got %d in %q: %w", n, len(f), line, errs.ErrInvalidInput)
}

// Credential is one line of a hashed credential file.
type Credential struct {
	Username string
	Hash     uint64
}

func EncodeCredential(c Credential) (string, error) {
	if err := checkNames(c.Username); err != nil {
		return "", err
	}
	return c.Username + " " + strconv.FormatUint(c.Hash, 10), nil
}

func DecodeCredential(line string) (Credential, error) {
	f, err := expectFields(line, 2)
	if err != nil {
		return Credential{}, err
	}
	h, err := strconv.ParseUint(f[1], 10, 64)
	if err != nil {
		return Credential{}, fmt.Errorf("hash %q: %w", f[1], errs.ErrInvalidInput)
	}
	return Credential{Username: f[0], Hash: h}, nil
}

func EncodeRoom(r models.Room) (string, error) {
	if err := checkNames(r.Name); err != nil {
		return "", err
	}
	if err := checkTokens(r.LastModifiedBy); err != nil {
		return "", err
	}
	booker := noBooker
	if r.BookedBy != "" {
		if err := checkNames(r.BookedBy); err != nil {
			return "", err
		}
		booker = r.BookedBy
	}
	return fmt.Sprintf("%s %s %d %s %s", r.Name, r.LastModifiedBy, r.Capacity, yesNo(r.Available), booker), nil
}

// DecodeRoom parses a room line. An unavailable room with no booker is held by its last modifier.
func DecodeRoom(line string) (models.Room, error) {
	f, err := expectFields(line, 5)
	if err != nil {
		return models.Room{}, err
	}
	capacity, err := parseInt("capacity", f[2])
	if err != nil {
		return models.Room{}, err
	}
	if capacity < 0 {
		return models.Room{}, fmt.Errorf("capacity %d: %w", capacity, errs.ErrInvalidInput)
	}
	available, err := parseYesNo(f[3])
	if err != nil {
		return models.Room{}, err
	}
	r := models.Room{Name: f[0], LastModifiedBy: f[1], Capacity: capacity, Available: available}
	switch {
	case available:
	case f[4] != noBooker:
		r.BookedBy = f[4]
	default:
		r.BookedBy = r.LastModifiedBy
	}
	return r, nil
}

func EncodeFloorPlan(p models.FloorPlan) (string, error) {
	if err := checkNames(p.Name); err != nil {
		return "", err
	}
	if err := checkTokens(p.LastModifiedBy); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %d %s", p.Name, p.LastModifiedBy, p.Capacity, yesNo(p.Available)), nil
}

func DecodeFloorPlan(line string) (models.FloorPlan, error) {
	f, err := expectFields(line, 4)
	if err != nil {
		return models.FloorPlan{}, err
	}
	capacity, err := parseInt("capacity", f[2])
	if err != nil {
		return models.FloorPlan{}, err
	}
	available, err := parseYesNo(f[3])
	if err != nil {
		return models.FloorPlan{}, err
	}
	return models.FloorPlan{Name: f[0], LastModifiedBy: f[1], Capacity: capacity, Available: available}, nil
}

func EncodeHistory(e models.HistoryEntry) (string, error) {
	if err := checkTokens(e.RoomName, e.Actor); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %s %s %s %d %s", e.Timestamp.Unix(), e.Action, e.RoomName, e.Actor, e.Capacity, yesNo(e.Available)), nil
}

// DecodeHistory parses a history line. The older four-field booking log form
// "<unix> <BOOK|RELEASE> <room> <user>" is accepted with capacity -1.
func DecodeHistory(line string) (models.HistoryEntry, error) {
	f, err := expectFields(line, 6, 4)
	if err != nil {
		return models.HistoryEntry{}, err
	}
	ts, err := strconv.ParseInt(f[0], 10, 64)
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("timestamp %q: %w", f[0], errs.ErrInvalidInput)
	}
	action := models.HistoryAction(f[1])
	if !action.Valid() {
		return models.HistoryEntry{}, fmt.Errorf("action %q: %w", f[1], errs.ErrInvalidInput)
	}
	e := models.HistoryEntry{Timestamp: time.Unix(ts, 0), Action: action, RoomName: f[2], Actor: f[3]}
	if len(f) == 4 {
		e.Capacity = -1
		e.Available = action == models.HistoryRelease
		return e, nil
	}
	if e.Capacity, err = parseInt("capacity", f[4]); err != nil {
		return models.HistoryEntry{}, err
	}
	if e.Available, err = parseYesNo(f[5]); err != nil {
		return models.HistoryEntry{}, err
	}
	return e, nil
}

// EncodeManifest describes an export bundle.
func EncodeManifest(version int, at time.Time) string {
	return fmt.Sprintf("format %d\nexported %d\n", version, at.Unix())
}

// DecodeManifest returns the format version of a bundle manifest.
func DecodeManifest(r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) == 2 && f[0] == "format" {
			return parseInt("format", f[1])
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("manifest has no format line: %w", errs.ErrInvalidInput)
}

// ReadAll decodes every record line from r. Errors carry the 1-based line number.
func ReadAll[T any](r io.Reader, decode func(string) (T, error)) ([]T, error) {
	sc := bufio.NewScanner(r)
	var out []T
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		v, err := decode(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteAll encodes every item as one line.
func WriteAll[T any](w io.Writer, items []T, encode func(T) (string, error)) error {
	bw := bufio.NewWriter(w)
	for _, it := range items {
		line, err := encode(it)
		if err != nil {
			return err
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

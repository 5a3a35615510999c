package flatfile

import (
	"fmt"
	"strconv"
	"strings"

	"roomBookingManagement/internal/errs"
	"roomBookingManagement/models"
)

// EncodeCommand renders a deferred command as a queue line:
//
//	UPLOAD_ROOM <admin> <room> <capacity> <Yes|No>
//	MODIFY_ROOM <admin> <room> <capacity> <Yes|No>
//	REGISTER_NEW_ADMIN <admin> <username> <password>
//	BOOK_ROOM <user> <participants> [room]
//	RELEASE_ROOM <user> <room>
//	DELETE_USER <username>
//	EDIT_USER <username> <password> <USER|ADMIN>
//	DELETE_ROOM <room> [admin]
func EncodeCommand(c models.OfflineCommand) (string, error) {
	var fields []string
	switch c.Kind {
	case models.CommandUploadRoom, models.CommandModifyRoom:
		if err := checkTokens(c.Actor, c.RoomName); err != nil {
			return "", err
		}
		fields = []string{c.Actor, c.RoomName, strconv.Itoa(c.Capacity), yesNo(c.Available)}
	case models.CommandRegisterNewAdmin:
		if err := checkTokens(c.Actor, c.TargetUser, c.Password); err != nil {
			return "", err
		}
		fields = []string{c.Actor, c.TargetUser, c.Password}
	case models.CommandBookRoom:
		if err := checkTokens(c.Actor); err != nil {
			return "", err
		}
		fields = []string{c.Actor, strconv.Itoa(c.Participants)}
		if c.RoomName != "" {
			if err := checkTokens(c.RoomName); err != nil {
				return "", err
			}
			fields = append(fields, c.RoomName)
		}
	case models.CommandReleaseRoom:
		if err := checkTokens(c.Actor, c.RoomName); err != nil {
			return "", err
		}
		fields = []string{c.Actor, c.RoomName}
	case models.CommandDeleteUser:
		if err := checkTokens(c.TargetUser); err != nil {
			return "", err
		}
		fields = []string{c.TargetUser}
	case models.CommandEditUser:
		if err := checkTokens(c.TargetUser, c.Password, string(c.Role)); err != nil {
			return "", err
		}
		fields = []string{c.TargetUser, c.Password, string(c.Role)}
	case models.CommandDeleteRoom:
		if err := checkTokens(c.RoomName); err != nil {
			return "", err
		}
		fields = []string{c.RoomName}
		if c.Actor != "" {
			if err := checkTokens(c.Actor); err != nil {
				return "", err
			}
			fields = append(fields, c.Actor)
		}
	default:
		return "", fmt.Errorf("command kind %q: %w", c.Kind, errs.ErrInvalidInput)
	}
	return string(c.Kind) + " " + strings.Join(fields, " "), nil
}

// DecodeCommand parses a queue line produced by EncodeCommand.
func DecodeCommand(line string) (models.OfflineCommand, error) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return models.OfflineCommand{}, fmt.Errorf("empty command line: %w", errs.ErrInvalidInput)
	}
	kind := models.CommandKind(f[0])
	args := f[1:]
	arity := func(n ...int) error {
		for _, want := range n {
			if len(args) == want {
				return nil
			}
		}
		return fmt.Errorf("%s expects %v arguments, got %d: %w", kind, n, len(args), errs.ErrInvalidInput)
	}

	switch kind {
	case models.CommandUploadRoom, models.CommandModifyRoom:
		if err := arity(4); err != nil {
			return models.OfflineCommand{}, err
		}
		capacity, err := parseInt("capacity", args[2])
		if err != nil {
			return models.OfflineCommand{}, err
		}
		available, err := parseYesNo(args[3])
		if err != nil {
			return models.OfflineCommand{}, err
		}
		if kind == models.CommandUploadRoom {
			return models.UploadRoomCommand(args[0], args[1], capacity, available), nil
		}
		return models.ModifyRoomCommand(args[0], args[1], capacity, available), nil
	case models.CommandRegisterNewAdmin:
		if err := arity(3); err != nil {
			return models.OfflineCommand{}, err
		}
		return models.RegisterAdminCommand(args[0], args[1], args[2]), nil
	case models.CommandBookRoom:
		if err := arity(2, 3); err != nil {
			return models.OfflineCommand{}, err
		}
		participants, err := parseInt("participants", args[1])
		if err != nil {
			return models.OfflineCommand{}, err
		}
		room := ""
		if len(args) == 3 {
			room = args[2]
		}
		return models.BookRoomCommand(args[0], participants, room), nil
	case models.CommandReleaseRoom:
		if err := arity(2); err != nil {
			return models.OfflineCommand{}, err
		}
		return models.ReleaseRoomCommand(args[0], args[1]), nil
	case models.CommandDeleteUser:
		if err := arity(1); err != nil {
			return models.OfflineCommand{}, err
		}
		return models.DeleteUserCommand(args[0]), nil
	case models.CommandEditUser:
		if err := arity(3); err != nil {
			return models.OfflineCommand{}, err
		}
		role, err := models.ParseRole(args[2])
		if err != nil {
			return models.OfflineCommand{}, fmt.Errorf("%v: %w", err, errs.ErrInvalidInput)
		}
		return models.EditUserCommand(args[0], args[1], role), nil
	case models.CommandDeleteRoom:
		if err := arity(1, 2); err != nil {
			return models.OfflineCommand{}, err
		}
		admin := ""
		if len(args) == 2 {
			admin = args[1]
		}
		return models.DeleteRoomCommand(args[0], admin), nil
	}
	return models.OfflineCommand{}, fmt.Errorf("unknown command %q: %w", f[0], errs.ErrInvalidInput)
}

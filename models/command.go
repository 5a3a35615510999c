package models

import "time"

// CommandKind names a mutating operation that can be deferred while offline.
type CommandKind string

const (
	CommandUploadRoom       CommandKind = "UPLOAD_ROOM"
	CommandModifyRoom       CommandKind = "MODIFY_ROOM"
	CommandRegisterNewAdmin CommandKind = "REGISTER_NEW_ADMIN"
	CommandBookRoom         CommandKind = "BOOK_ROOM"
	CommandReleaseRoom      CommandKind = "RELEASE_ROOM"
	CommandDeleteUser       CommandKind = "DELETE_USER"
	CommandEditUser         CommandKind = "EDIT_USER"
	CommandDeleteRoom       CommandKind = "DELETE_ROOM"
)

// OfflineCommand is a deferred mutation. Only the fields relevant to Kind are set.
type OfflineCommand struct {
	Kind         CommandKind `json:"kind"`
	Actor        string      `json:"actor,omitempty"`
	RoomName     string      `json:"room_name,omitempty"`
	Capacity     int         `json:"capacity,omitempty"`
	Available    bool        `json:"available,omitempty"`
	Participants int         `json:"participants,omitempty"`
	TargetUser   string      `json:"target_user,omitempty"`
	Password     string      `json:"-"`
	Role         Role        `json:"role,omitempty"`
}

func UploadRoomCommand(admin, room string, capacity int, available bool) OfflineCommand {
	return OfflineCommand{Kind: CommandUploadRoom, Actor: admin, RoomName: room, Capacity: capacity, Available: available}
}

func ModifyRoomCommand(admin, room string, capacity int, available bool) OfflineCommand {
	return OfflineCommand{Kind: CommandModifyRoom, Actor: admin, RoomName: room, Capacity: capacity, Available: available}
}

func RegisterAdminCommand(admin, username, password string) OfflineCommand {
	return OfflineCommand{Kind: CommandRegisterNewAdmin, Actor: admin, TargetUser: username, Password: password}
}

// BookRoomCommand builds a booking request; room may be empty to let the engine pick.
func BookRoomCommand(user string, participants int, room string) OfflineCommand {
	return OfflineCommand{Kind: CommandBookRoom, Actor: user, Participants: participants, RoomName: room}
}

func ReleaseRoomCommand(user, room string) OfflineCommand {
	return OfflineCommand{Kind: CommandReleaseRoom, Actor: user, RoomName: room}
}

func DeleteUserCommand(target string) OfflineCommand {
	return OfflineCommand{Kind: CommandDeleteUser, TargetUser: target}
}

func EditUserCommand(target, password string, role Role) OfflineCommand {
	return OfflineCommand{Kind: CommandEditUser, TargetUser: target, Password: password, Role: role}
}

func DeleteRoomCommand(room, admin string) OfflineCommand {
	return OfflineCommand{Kind: CommandDeleteRoom, RoomName: room, Actor: admin}
}

// QueuedCommand is a persisted queue row holding the encoded command line.
type QueuedCommand struct {
	ID       int64       `db:"id" json:"id"`
	UUID     string      `db:"uuid" json:"uuid"`
	Kind     CommandKind `db:"kind" json:"kind"`
	Line     string      `db:"line" json:"line"`
	QueuedAt time.Time   `db:"queued_at" json:"queued_at"`
}

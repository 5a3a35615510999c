package grpcserver

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"roomBookingManagement/internal/app"
	"roomBookingManagement/internal/auth"
	"roomBookingManagement/internal/booking"
	"roomBookingManagement/internal/errs"
	"roomBookingManagement/models"
)

func roomValue(r *models.Room) any {
	if r == nil {
		return nil
	}
	return map[string]any{
		"name":             r.Name,
		"capacity":         r.Capacity,
		"available":        r.Available,
		"booked_by":        r.BookedBy,
		"last_modified_by": r.LastModifiedBy,
		"last_modified_at": r.LastModifiedAt.Unix(),
	}
}

func roomList(rooms []models.Room) []any {
	out := make([]any, 0, len(rooms))
	for i := range rooms {
		out = append(out, roomValue(&rooms[i]))
	}
	return out
}

func planValue(p *models.FloorPlan) any {
	if p == nil {
		return nil
	}
	return map[string]any{
		"name":             p.Name,
		"capacity":         p.Capacity,
		"available":        p.Available,
		"last_modified_by": p.LastModifiedBy,
		"last_modified_at": p.LastModifiedAt.Unix(),
	}
}

// ListRooms returns every room in the registry.
func (s *Server) ListRooms(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if _, err := auth.RequireUserOrAdmin(ctx); err != nil {
		return nil, err
	}
	rooms, err := s.Service.ListRooms(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"rooms": roomList(rooms)})
}

// SuggestRooms lists available rooms that fit the participant count, in registry order.
func (s *Server) SuggestRooms(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := auth.RequireKind(ctx, auth.KindUser); err != nil {
		return nil, err
	}
	n, err := argsOf(req).integer("participants")
	if err != nil {
		return nil, err
	}
	rooms, err := s.Service.SuggestRooms(ctx, n)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"rooms": roomList(rooms)})
}

// MyRooms lists the rooms held by the caller.
func (s *Server) MyRooms(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequireKind(ctx, auth.KindUser)
	if err != nil {
		return nil, err
	}
	rooms, err := s.Service.MyRooms(ctx, p.Name)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"rooms": roomList(rooms)})
}

// BookRoom books the named room, or the best available fit when no room is named.
// booked is false when nothing suitable was free.
func (s *Server) BookRoom(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequireKind(ctx, auth.KindUser)
	if err != nil {
		return nil, err
	}
	a := argsOf(req)
	n, err := a.integer("participants")
	if err != nil {
		return nil, err
	}
	outcome, room, err := s.Service.BookRoom(ctx, p.Name, n, a.str("room"))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{
		"outcome": outcome.String(),
		"booked":  room != nil,
		"room":    roomValue(room),
	})
}

// ReleaseRoom releases a room held by the caller. The release status is part of the
// response, not an error.
func (s *Server) ReleaseRoom(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequireKind(ctx, auth.KindUser)
	if err != nil {
		return nil, err
	}
	outcome, st, err := s.Service.ReleaseRoom(ctx, p.Name, argsOf(req).str("room"))
	if err != nil {
		return nil, toStatus(err)
	}
	body := map[string]any{"outcome": outcome.String()}
	if outcome == app.OutcomeApplied {
		body["status"] = st.String()
		body["released"] = st == booking.ReleaseSuccess
	}
	return reply(body)
}

// roomMutation runs an admin room change. When the request omits available,
// defaultAvailable supplies it.
func (s *Server) roomMutation(ctx context.Context, req *structpb.Struct,
	defaultAvailable func(ctx context.Context, name string) (bool, error),
	apply func(ctx context.Context, admin, name string, capacity int, available bool) (app.Outcome, *models.Room, error),
) (*structpb.Struct, error) {
	p, err := auth.RequireAdmin(ctx, s.Service)
	if err != nil {
		return nil, err
	}
	a := argsOf(req)
	capacity, err := a.integer("capacity")
	if err != nil {
		return nil, err
	}
	name := a.str("name")
	available, ok := a["available"].(bool)
	if !ok {
		if available, err = defaultAvailable(ctx, name); err != nil {
			return nil, toStatus(err)
		}
	}
	outcome, room, err := apply(ctx, p.Name, name, capacity, available)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"outcome": outcome.String(), "room": roomValue(room)})
}

// UploadRoom adds a room. Admin only.
func (s *Server) UploadRoom(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.roomMutation(ctx, req, func(context.Context, string) (bool, error) { return true, nil }, s.Service.UploadRoom)
}

// ModifyRoom changes the capacity and availability of a room. Admin only.
// Omitting available keeps the current state; setting it on a booked room
// clears the booking.
func (s *Server) ModifyRoom(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.roomMutation(ctx, req, s.currentAvailability, s.Service.ModifyRoom)
}

func (s *Server) currentAvailability(ctx context.Context, name string) (bool, error) {
	room, err := s.Service.FindRoom(ctx, name)
	if err != nil {
		return false, err
	}
	if room == nil {
		return false, fmt.Errorf("room %q: %w", name, errs.ErrNotFound)
	}
	return room.Available, nil
}

// DeleteRoom removes a room that is not booked. Admin only.
func (s *Server) DeleteRoom(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequireAdmin(ctx, s.Service)
	if err != nil {
		return nil, err
	}
	outcome, err := s.Service.DeleteRoom(ctx, p.Name, argsOf(req).str("name"))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"outcome": outcome.String()})
}

func (s *Server) ListFloorPlans(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if _, err := auth.RequireAdmin(ctx, s.Service); err != nil {
		return nil, err
	}
	plans, err := s.Service.ListFloorPlans(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]any, 0, len(plans))
	for i := range plans {
		out = append(out, planValue(&plans[i]))
	}
	return reply(map[string]any{"floor_plans": out})
}

func (s *Server) planMutation(ctx context.Context, req *structpb.Struct,
	apply func(ctx context.Context, admin, name string, capacity int, available bool) (*models.FloorPlan, error),
) (*structpb.Struct, error) {
	p, err := auth.RequireAdmin(ctx, s.Service)
	if err != nil {
		return nil, err
	}
	a := argsOf(req)
	capacity, err := a.integer("capacity")
	if err != nil {
		return nil, err
	}
	plan, err := apply(ctx, p.Name, a.str("name"), capacity, a.boolean("available", true))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"floor_plan": planValue(plan)})
}

func (s *Server) UploadFloorPlan(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.planMutation(ctx, req, s.Service.UploadFloorPlan)
}

func (s *Server) ModifyFloorPlan(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.planMutation(ctx, req, s.Service.ModifyFloorPlan)
}

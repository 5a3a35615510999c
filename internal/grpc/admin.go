package grpcserver

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"roomBookingManagement/internal/archive"
	"roomBookingManagement/internal/auth"
	"roomBookingManagement/models"
	"roomBookingManagement/repository"
)

// Login checks credentials and issues a bearer token. The role is optional; when
// omitted the stored role of the account is used.
func (s *Server) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(req)
	username, password := a.str("username"), a.str("password")
	if username == "" || password == "" {
		return nil, status.Error(codes.InvalidArgument, "username and password are required")
	}

	var role models.Role
	if a.has("role") {
		r, err := models.ParseRole(a.str("role"))
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		role = r
	} else {
		u, err := s.Service.LookupUser(ctx, username)
		if err != nil {
			return nil, toStatus(err)
		}
		if u == nil {
			return nil, status.Error(codes.Unauthenticated, "invalid credentials")
		}
		role = u.Role
	}

	ok, err := s.Service.Login(ctx, username, password, role)
	if err != nil {
		return nil, toStatus(err)
	}
	if !ok {
		s.logger().WithField("user", username).Warn("login rejected")
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}

	kind := auth.KindForRole(role)
	token, err := auth.IssueToken(s.Secret, username, kind, s.TokenTTL)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "issue token: %v", err)
	}
	return reply(map[string]any{"token": token, "kind": kind, "role": string(role)})
}

// Register creates a USER account. It is never queued.
func (s *Server) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(req)
	if err := s.Service.Register(ctx, a.str("username"), a.str("password")); err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"username": a.str("username")})
}

func (s *Server) RegisterAdmin(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequireAdmin(ctx, s.Service)
	if err != nil {
		return nil, err
	}
	a := argsOf(req)
	outcome, err := s.Service.RegisterAdmin(ctx, p.Name, a.str("username"), a.str("password"))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"outcome": outcome.String()})
}

func (s *Server) ListUsers(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if _, err := auth.RequireAdmin(ctx, s.Service); err != nil {
		return nil, err
	}
	accounts, err := s.Service.ListUsers(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]any, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, map[string]any{"username": acc.Username, "role": string(acc.Role), "protected": acc.Protected})
	}
	return reply(map[string]any{"users": out})
}

// EditUser replaces the password and role of an account. The super admin cannot be edited.
func (s *Server) EditUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := auth.RequireAdmin(ctx, s.Service); err != nil {
		return nil, err
	}
	a := argsOf(req)
	role, err := models.ParseRole(a.str("role"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	outcome, err := s.Service.EditUser(ctx, a.str("username"), a.str("password"), role)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"outcome": outcome.String()})
}

func (s *Server) DeleteUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := auth.RequireAdmin(ctx, s.Service); err != nil {
		return nil, err
	}
	outcome, err := s.Service.DeleteUser(ctx, argsOf(req).str("username"))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"outcome": outcome.String()})
}

func (s *Server) GoOffline(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequireAdmin(ctx, s.Service)
	if err != nil {
		return nil, err
	}
	s.Service.GoOffline()
	s.logger().WithField("user", p.Name).Info("switched to offline mode")
	return reply(map[string]any{"mode": s.Service.Mode().String()})
}

// GoOnline switches back to online mode and replays the queue in order.
func (s *Server) GoOnline(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequireAdmin(ctx, s.Service)
	if err != nil {
		return nil, err
	}
	report, err := s.Service.GoOnline(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger().WithFields(logrus.Fields{
		"user":    p.Name,
		"applied": report.Applied,
		"failed":  report.Failed,
	}).Info("switched to online mode")
	return reply(map[string]any{
		"mode":    s.Service.Mode().String(),
		"applied": report.Applied,
		"failed":  report.Failed,
		"skipped": report.Skipped,
	})
}

// Status reports the current mode and the queue depth.
func (s *Server) Status(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if _, err := auth.RequireUserOrAdmin(ctx); err != nil {
		return nil, err
	}
	pending, err := s.Service.Pending(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"mode": s.Service.Mode().String(), "pending": pending})
}

func (s *Server) ListQueued(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if _, err := auth.RequireAdmin(ctx, s.Service); err != nil {
		return nil, err
	}
	lines, err := s.Service.ListQueued(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]any, 0, len(lines))
	for _, l := range lines {
		out = append(out, l)
	}
	return reply(map[string]any{"commands": out})
}

// History pages through the room history in append order. Filters: room, actor,
// actions, since (RFC 3339). page_token continues a previous page.
func (s *Server) History(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := auth.RequireAdmin(ctx, s.Service); err != nil {
		return nil, err
	}
	a := argsOf(req)

	pageSize := defaultPageSize
	if a.has("page_size") {
		n, err := a.integer("page_size")
		if err != nil {
			return nil, err
		}
		if n > 0 {
			pageSize = n
		}
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	params := repository.ListHistoryParams{PageSize: pageSize + 1}
	if room := a.str("room"); room != "" {
		params.RoomName = &room
	}
	if actor := a.str("actor"); actor != "" {
		params.Actor = &actor
	}
	for _, raw := range a.strings("actions") {
		action := models.HistoryAction(raw)
		if !action.Valid() {
			return nil, status.Errorf(codes.InvalidArgument, "unknown action %q", raw)
		}
		params.Actions = append(params.Actions, action)
	}
	if since := a.str("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid since: %v", err)
		}
		params.Since = &t
	}
	if token := a.str("page_token"); token != "" {
		id, err := decodeCursor(token)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid page_token: %v", err)
		}
		params.AfterID = id
	}

	entries, err := s.Service.History(ctx, params)
	if err != nil {
		return nil, toStatus(err)
	}

	next := ""
	if len(entries) > pageSize {
		entries = entries[:pageSize]
		next = encodeCursor(entries[len(entries)-1].ID)
	}
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"id":        e.ID,
			"timestamp": e.Timestamp.Unix(),
			"action":    string(e.Action),
			"room":      e.RoomName,
			"actor":     e.Actor,
			"capacity":  e.Capacity,
			"available": e.Available,
		})
	}
	return reply(map[string]any{"entries": out, "next_page_token": next})
}

// ExportBundle writes the full state to the archive under prefix.
func (s *Server) ExportBundle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := auth.RequireAdmin(ctx, s.Service); err != nil {
		return nil, err
	}
	if s.Archive == nil {
		return nil, status.Error(codes.FailedPrecondition, "archive is not configured")
	}
	prefix := argsOf(req).str("prefix")
	if prefix == "" {
		return nil, status.Error(codes.InvalidArgument, "prefix is required")
	}
	if err := archive.NewExporter(s.Service, s.Archive, s.logger()).Export(ctx, prefix); err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"prefix": prefix})
}

// ImportBundle loads a bundle from the archive. Existing names are skipped.
func (s *Server) ImportBundle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := auth.RequireAdmin(ctx, s.Service); err != nil {
		return nil, err
	}
	if s.Archive == nil {
		return nil, status.Error(codes.FailedPrecondition, "archive is not configured")
	}
	prefix := argsOf(req).str("prefix")
	if prefix == "" {
		return nil, status.Error(codes.InvalidArgument, "prefix is required")
	}
	report, err := archive.NewImporter(s.Service, s.Archive, s.logger()).Import(ctx, prefix)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{
		"users":       report.Users,
		"rooms":       report.Rooms,
		"floor_plans": report.FloorPlans,
		"history":     report.History,
		"queued":      report.Queued,
		"skipped":     report.Skipped,
	})
}

package app

import (
	"context"

	"roomBookingManagement/models"
)

// The methods below let archive.Exporter and archive.Importer read and restore
// full state through the service lock.

func (s *Service) ExportUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Users(ctx)
}

func (s *Service) ExportHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.All(ctx)
}

func (s *Service) RestoreUser(ctx context.Context, username string, hash uint64, role models.Role) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Restore(ctx, username, hash, role)
}

func (s *Service) RestoreRoom(ctx context.Context, room models.Room) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms.Restore(ctx, room)
}

func (s *Service) RestoreFloorPlan(ctx context.Context, plan models.FloorPlan) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plans.Restore(ctx, plan)
}

// RestoreHistory appends entries only into an empty history so repeated imports
// do not duplicate the audit trail.
func (s *Service) RestoreHistory(ctx context.Context, entries []models.HistoryEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.history.All(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, e := range entries {
		if err := s.history.Record(ctx, e); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}

// RestoreQueued appends an imported command to the replay queue.
func (s *Service) RestoreQueued(ctx context.Context, cmd models.OfflineCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.queue.Enqueue(ctx, cmd)
	return err
}

// Package offline defers mutating commands while the service is disconnected and
// replays them in FIFO order on reconnect.
package offline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"roomBookingManagement/internal/flatfile"
	"roomBookingManagement/internal/metrics"
	"roomBookingManagement/models"
	"roomBookingManagement/repository"
)

// Mode is the connectivity state.
type Mode int

const (
	Online Mode = iota
	Offline
)

func (m Mode) String() string {
	if m == Offline {
		return "OFFLINE"
	}
	return "ONLINE"
}

// Applier executes one decoded command against live state.
type Applier interface {
	Apply(ctx context.Context, cmd models.OfflineCommand) error
}

// SyncReport summarises one replay.
type SyncReport struct {
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type Manager struct {
	repo repository.CommandRepositoryI
	log  logrus.FieldLogger

	mu   sync.RWMutex
	mode Mode
}

// NewManager starts in Online mode. Rows left from a previous run stay queued until
// the next GoOnline; the depth gauge reflects them from the start.
func NewManager(repo repository.CommandRepositoryI, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := &Manager{repo: repo, log: log, mode: Online}
	m.refreshDepth(context.Background())
	return m
}

func (m *Manager) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

func (m *Manager) IsOffline() bool {
	return m.Mode() == Offline
}

func (m *Manager) GoOffline() {
	m.mu.Lock()
	m.mode = Offline
	m.mu.Unlock()
	m.log.Info("switched to offline mode")
}

// Enqueue encodes cmd and appends it to the durable queue.
func (m *Manager) Enqueue(ctx context.Context, cmd models.OfflineCommand) (*models.QueuedCommand, error) {
	line, err := flatfile.EncodeCommand(cmd)
	if err != nil {
		return nil, err
	}
	q, err := m.repo.Append(ctx, uuid.NewString(), cmd.Kind, line)
	if err != nil {
		return nil, fmt.Errorf("queue %s: %w", cmd.Kind, err)
	}
	metrics.QueuedTotal.WithLabelValues(string(cmd.Kind)).Inc()
	metrics.QueueDepth.Inc()
	m.log.WithFields(logrus.Fields{"kind": cmd.Kind, "id": q.UUID}).Info("command queued")
	return q, nil
}

// GoOnline switches to Online and replays the queue through applier.
func (m *Manager) GoOnline(ctx context.Context, applier Applier) (SyncReport, error) {
	m.mu.Lock()
	m.mode = Online
	m.mu.Unlock()
	m.log.Info("switched to online mode")
	return m.Synchronize(ctx, applier)
}

// Synchronize applies every queued command in enqueue order and then clears the
// rows it read. A failing or undecodable command is logged and does not stop replay.
func (m *Manager) Synchronize(ctx context.Context, applier Applier) (SyncReport, error) {
	timer := prometheus.NewTimer(metrics.ReplayDuration)
	defer timer.ObserveDuration()

	var report SyncReport
	queued, err := m.repo.List(ctx)
	if err != nil {
		return report, err
	}
	if len(queued) == 0 {
		return report, nil
	}
	for _, q := range queued {
		entry := m.log.WithFields(logrus.Fields{"kind": q.Kind, "id": q.UUID})
		cmd, err := flatfile.DecodeCommand(q.Line)
		if err != nil {
			report.Skipped++
			metrics.ReplayTotal.WithLabelValues(string(q.Kind), "skipped").Inc()
			entry.WithError(err).Warn("skipping undecodable queued command")
			continue
		}
		if err := applier.Apply(ctx, cmd); err != nil {
			report.Failed++
			metrics.ReplayTotal.WithLabelValues(string(q.Kind), "failed").Inc()
			entry.WithError(err).Warn("queued command failed on replay")
			continue
		}
		report.Applied++
		metrics.ReplayTotal.WithLabelValues(string(q.Kind), "applied").Inc()
		entry.Debug("queued command applied")
	}
	if _, err := m.repo.DeleteThrough(ctx, queued[len(queued)-1].ID); err != nil {
		return report, fmt.Errorf("clear replayed commands: %w", err)
	}
	m.refreshDepth(ctx)
	m.log.WithFields(logrus.Fields{"applied": report.Applied, "failed": report.Failed, "skipped": report.Skipped}).Info("offline queue synchronized")
	return report, nil
}

// ListQueued returns the raw queued lines, oldest first.
func (m *Manager) ListQueued(ctx context.Context) ([]string, error) {
	queued, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(queued))
	for _, q := range queued {
		lines = append(lines, q.Line)
	}
	return lines, nil
}

// Pending returns the queue depth.
func (m *Manager) Pending(ctx context.Context) (int, error) {
	return m.repo.Count(ctx)
}

func (m *Manager) refreshDepth(ctx context.Context) {
	n, err := m.repo.Count(ctx)
	if err != nil {
		m.log.WithError(err).Error("count queued commands")
		return
	}
	metrics.QueueDepth.Set(float64(n))
}

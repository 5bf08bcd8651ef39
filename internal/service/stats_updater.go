package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StatsUpdater refreshes aggregate statistics on a fixed interval.
type StatsUpdater struct {
	monitoring *MonitoringService
	logger     *zap.Logger
	ticker     *time.Ticker
	done       chan bool
}

func NewStatsUpdater(monitoring *MonitoringService, logger *zap.Logger, interval time.Duration) *StatsUpdater {
	return &StatsUpdater{
		monitoring: monitoring,
		logger:     logger,
		ticker:     time.NewTicker(interval),
		done:       make(chan bool),
	}
}

// Start begins the periodic stats update loop.
func (s *StatsUpdater) Start(ctx context.Context) {
	go func() {
		s.logger.Info("Starting stats updater")
		for {
			select {
			case <-s.done:
				s.logger.Info("Stats updater stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Stats updater stopped due to context cancellation")
				return
			case <-s.ticker.C:
				s.updateStats()
			}
		}
	}()
}

// Stop stops the stats updater.
func (s *StatsUpdater) Stop() {
	s.ticker.Stop()
	close(s.done)
}

func (s *StatsUpdater) updateStats() {
	s.logger.Debug("Updating statistics")

	if err := s.monitoring.UpdateSystemStats(); err != nil {
		s.logger.Error("Failed to update system stats", zap.Error(err))
	}

	if err := s.monitoring.UpdatePlatformStats(); err != nil {
		s.logger.Error("Failed to update platform stats", zap.Error(err))
	}

	// Keep the last 90 days of samples.
	if err := s.monitoring.CleanupOldData(90); err != nil {
		s.logger.Error("Failed to cleanup old data", zap.Error(err))
	}

	s.logger.Debug("Statistics updated successfully")
}

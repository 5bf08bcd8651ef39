package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/recastlabs/recast/internal/store"
)

// Recorder applies job outcomes and keeps the aggregate status current. It is
// the single write path for completions, whatever order they arrive in.
type Recorder struct {
	store      store.Store
	logger     *zap.Logger
	monitoring *MonitoringService
}

func NewRecorder(st store.Store, logger *zap.Logger, monitoring *MonitoringService) *Recorder {
	return &Recorder{
		store:      st,
		logger:     logger,
		monitoring: monitoring,
	}
}

// Record persists one job outcome and re-derives the owning unit's status.
// Outcomes from superseded dispatch generations are discarded without
// touching the stored result or the aggregate; the fresher job owns the row.
func (r *Recorder) Record(o store.JobOutcome) (string, error) {
	applied, err := r.store.ApplyOutcome(o, time.Now())
	if err != nil {
		return "", err
	}
	if !applied {
		r.logger.Info("Discarding stale job completion",
			zap.Uint("unit_id", o.ContentUnitID),
			zap.String("platform", o.Platform),
			zap.Int("generation", o.Generation))
		return "", nil
	}

	if r.monitoring != nil {
		metric := "job_success"
		if !o.Succeeded {
			metric = "job_failure"
			r.monitoring.RecordError("ERROR", "recorder", "Platform job failed", o.ErrorMessage,
				WithPlatform(o.Platform),
				WithUnit(o.ContentUnitID))
		}
		r.monitoring.RecordMetric(metric, "counter", 1, map[string]interface{}{
			"platform": o.Platform,
			"unit_id":  o.ContentUnitID,
		})
	}

	status, err := r.store.RecomputeStatus(o.ContentUnitID, DeriveStatus)
	if err != nil {
		return "", err
	}

	r.logger.Info("Job outcome recorded",
		zap.Uint("unit_id", o.ContentUnitID),
		zap.String("platform", o.Platform),
		zap.Bool("success", o.Succeeded),
		zap.String("unit_status", status))
	return status, nil
}

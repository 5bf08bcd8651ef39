package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/recastlabs/recast/internal/models"
	"github.com/recastlabs/recast/internal/service/social"
	"github.com/recastlabs/recast/internal/store"
	"github.com/recastlabs/recast/pkg/util"
)

// PublishWorker periodically pushes due scheduled results to the external
// publishing service. It is the deferred half of the Scheduling Coordinator.
type PublishWorker struct {
	store      store.Store
	logger     *zap.Logger
	client     social.Client
	monitoring *MonitoringService
	interval   time.Duration
	batch      int
	ticker     *time.Ticker
	stopCh     chan struct{}
}

func NewPublishWorker(st store.Store, logger *zap.Logger, client social.Client, monitoring *MonitoringService, interval time.Duration, batch int) *PublishWorker {
	return &PublishWorker{
		store:      st,
		logger:     logger,
		client:     client,
		monitoring: monitoring,
		interval:   interval,
		batch:      batch,
		stopCh:     make(chan struct{}),
	}
}

func (w *PublishWorker) Start(ctx context.Context) {
	w.ticker = time.NewTicker(w.interval)

	go func() {
		w.logger.Info("Starting publish worker", zap.Duration("interval", w.interval))
		for {
			select {
			case <-w.ticker.C:
				if err := w.RunOnce(ctx); err != nil {
					w.logger.Error("Publish pass failed", zap.Error(err))
				}
			case <-w.stopCh:
				w.logger.Info("Publish worker stopped")
				return
			case <-ctx.Done():
				w.logger.Info("Publish worker context cancelled")
				return
			}
		}
	}()
}

func (w *PublishWorker) Stop() {
	if w.ticker != nil {
		w.ticker.Stop()
	}
	close(w.stopCh)
}

// RunOnce publishes every currently due result. Deliveries run concurrently;
// one platform's failure is logged and retried on a later pass without
// holding back the rest of the batch.
func (w *PublishWorker) RunOnce(ctx context.Context) error {
	now := time.Now()
	due, err := w.store.DueResults(now, w.batch)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	w.logger.Info("Publishing due results", zap.Int("count", len(due)))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, result := range due {
		result := result
		g.Go(func() error {
			w.publishOne(ctx, result)
			return nil
		})
	}
	return g.Wait()
}

func (w *PublishWorker) publishOne(ctx context.Context, result models.PlatformResult) {
	body := ComposePost(&result)

	if err := w.client.Publish(ctx, result.Platform, body, *result.ScheduledFor); err != nil {
		w.logger.Error("Failed to publish result",
			zap.Uint("result_id", result.ID),
			zap.String("platform", result.Platform),
			zap.Error(err))
		if w.monitoring != nil {
			w.monitoring.RecordError("ERROR", "publisher", "Publish delivery failed", err.Error(),
				WithPlatform(result.Platform),
				WithResult(result.ID))
		}
		return
	}

	if err := w.store.MarkPublished(result.ID, time.Now()); err != nil {
		w.logger.Error("Failed to mark result published",
			zap.Uint("result_id", result.ID),
			zap.Error(err))
		return
	}

	if w.monitoring != nil {
		w.monitoring.RecordMetric("publish_success", "counter", 1, map[string]interface{}{
			"platform": result.Platform,
		})
	}
	w.logger.Info("Result published",
		zap.Uint("result_id", result.ID),
		zap.String("platform", result.Platform))
}

// ComposePost builds the final post body. The user's override copy and
// hashtags win when the edited flag is set and the field was supplied;
// otherwise the generated ones are used. An edit that cleared the hashtag
// list keeps it cleared. Copy and the hashtag line are joined with a blank
// line.
func ComposePost(result *models.PlatformResult) string {
	copyText := result.GeneratedCopy
	tags := []string(result.Hashtags)

	if result.UserEdited {
		if result.EditedCopy != "" {
			copyText = result.EditedCopy
		}
		if result.HashtagsEdited {
			tags = result.EditedHashtags
		}
	}

	tagLine := util.FormatHashtags(tags)
	if tagLine == "" {
		return copyText
	}
	return copyText + "\n\n" + tagLine
}

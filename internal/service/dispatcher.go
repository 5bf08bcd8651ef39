package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/recastlabs/recast/internal/models"
	"github.com/recastlabs/recast/internal/service/generation"
	"github.com/recastlabs/recast/internal/store"
	"github.com/recastlabs/recast/pkg/util"
)

// DispatcherOptions bound the per-platform jobs.
type DispatcherOptions struct {
	JobTimeout     time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// Dispatcher fans a content unit out to one independent job per platform.
// Jobs share nothing but the store; a platform's failure never blocks or
// delays its siblings. Completion is reported through the Recorder, not to
// the caller.
type Dispatcher struct {
	store     store.Store
	logger    *zap.Logger
	generator generation.Generator
	images    generation.ImageTransformer
	recorder  *Recorder
	opts      DispatcherOptions

	wg sync.WaitGroup
}

func NewDispatcher(st store.Store, logger *zap.Logger, gen generation.Generator, images generation.ImageTransformer, recorder *Recorder, opts DispatcherOptions) *Dispatcher {
	if opts.JobTimeout == 0 {
		opts.JobTimeout = 5 * time.Minute
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 2
	}
	if opts.RetryBaseDelay == 0 {
		opts.RetryBaseDelay = 2 * time.Second
	}
	return &Dispatcher{
		store:     st,
		logger:    logger,
		generator: gen,
		images:    images,
		recorder:  recorder,
		opts:      opts,
	}
}

type platformJob struct {
	unit       models.ContentUnit
	platform   string
	generation int
	config     EffectiveConfig
	prompts    PromptSet
}

// Dispatch resolves configuration, builds prompts and launches one job per
// platform. The input set is assumed validated against enabled platform
// configs; platforms may be the unit's full target set on first submission
// or a subset on regeneration. Fire-and-forget: jobs run on background
// contexts detached from the caller's request.
func (d *Dispatcher) Dispatch(unit *models.ContentUnit, platforms []string) error {
	profile, err := d.store.GetProfile(unit.ProfileID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	now := time.Now()
	if err := d.store.MarkProcessing(unit.ID, now); err != nil {
		return fmt.Errorf("failed to mark unit processing: %w", err)
	}

	jobs := make([]platformJob, 0, len(platforms))
	for _, platform := range platforms {
		pc, err := d.store.GetPlatformConfig(unit.ProfileID, platform)
		if err != nil {
			return fmt.Errorf("failed to load platform config for %s: %w", platform, err)
		}

		cfg := Resolve(profile, pc, platform)
		prompts := BuildPrompts(cfg, unit)

		gen, err := d.store.BeginDispatch(unit.ID, platform, cfg.ConfigVersion, now)
		if err != nil {
			return fmt.Errorf("failed to begin dispatch for %s: %w", platform, err)
		}

		jobs = append(jobs, platformJob{
			unit:       *unit,
			platform:   platform,
			generation: gen,
			config:     cfg,
			prompts:    prompts,
		})
	}

	// A sibling completion landing between MarkProcessing and the supersede
	// loop can re-derive a terminal status; once every row is superseded the
	// derivation sees the unresolved rows again, so recompute here before
	// any new job can report.
	if _, err := d.store.RecomputeStatus(unit.ID, DeriveStatus); err != nil {
		return fmt.Errorf("failed to recompute status after dispatch: %w", err)
	}

	for _, job := range jobs {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.runJob(job)
		}()

		d.logger.Info("Platform job dispatched",
			zap.String("unit", unit.PublicID),
			zap.String("platform", job.platform),
			zap.Int("generation", job.generation))
	}

	return nil
}

// Drain blocks until every in-flight job has reported its outcome. Used on
// shutdown and by tests.
func (d *Dispatcher) Drain() {
	d.wg.Wait()
}

func (d *Dispatcher) runJob(job platformJob) {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.JobTimeout)
	defer cancel()

	start := time.Now()
	outcome := store.JobOutcome{
		ContentUnitID: job.unit.ID,
		Platform:      job.platform,
		Generation:    job.generation,
	}

	// Image transform runs first and is not retried: a transform failure
	// fails the whole job.
	if len(job.unit.ImageRefs) > 0 {
		optimized, err := d.images.Transform(ctx, job.unit.ImageRefs[0], job.config.ImageWidth, job.config.ImageHeight)
		if err != nil {
			d.failJob(outcome, start, fmt.Errorf("image transform failed: %w", err))
			return
		}
		outcome.ImageURL = optimized
	}

	copyResult, err := d.generateWithRetry(ctx, job.prompts.System, job.prompts.Copy)
	if err != nil {
		d.failJob(outcome, start, fmt.Errorf("copy generation failed: %w", err))
		return
	}
	outcome.Copy = copyResult.Text
	outcome.Model = copyResult.Model
	outcome.InputTokens = copyResult.InputTokens
	outcome.OutputTokens = copyResult.OutputTokens

	// Hashtag failure degrades to an empty list instead of failing the job.
	tagResult, err := d.generateWithRetry(ctx, job.prompts.System, job.prompts.Hashtags)
	if err != nil {
		d.logger.Warn("Hashtag generation failed, continuing without hashtags",
			zap.String("unit", job.unit.PublicID),
			zap.String("platform", job.platform),
			zap.Error(err))
	} else {
		outcome.Hashtags = util.ParseHashtags(tagResult.Text)
		outcome.InputTokens += tagResult.InputTokens
		outcome.OutputTokens += tagResult.OutputTokens
	}

	outcome.Succeeded = true
	outcome.LatencyMs = time.Since(start).Milliseconds()

	if _, err := d.recorder.Record(outcome); err != nil {
		d.logger.Error("Failed to record job outcome",
			zap.String("unit", job.unit.PublicID),
			zap.String("platform", job.platform),
			zap.Error(err))
	}
}

func (d *Dispatcher) failJob(outcome store.JobOutcome, start time.Time, cause error) {
	outcome.Succeeded = false
	outcome.ErrorMessage = cause.Error()
	outcome.LatencyMs = time.Since(start).Milliseconds()

	if _, err := d.recorder.Record(outcome); err != nil {
		d.logger.Error("Failed to record job failure",
			zap.Uint("unit_id", outcome.ContentUnitID),
			zap.String("platform", outcome.Platform),
			zap.Error(err))
	}
}

// generateWithRetry retries generation calls with exponential backoff, the
// base delay doubling after each attempt, up to MaxRetries retries.
func (d *Dispatcher) generateWithRetry(ctx context.Context, systemPrompt, userPrompt string) (*generation.Result, error) {
	delay := d.opts.RetryBaseDelay
	var lastErr error

	for attempt := 0; attempt <= d.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		result, err := d.generator.GenerateText(ctx, systemPrompt, userPrompt)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("exhausted %d attempts: %w", d.opts.MaxRetries+1, lastErr)
}

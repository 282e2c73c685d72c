package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/allocator"
	"github.com/jakechorley/watchtower/pkg/core/allocator/criteria"
	"github.com/jakechorley/watchtower/pkg/core/compliance"
	"github.com/jakechorley/watchtower/pkg/core/corro"
	"github.com/jakechorley/watchtower/pkg/core/model"
	"github.com/jakechorley/watchtower/pkg/core/registry"
	"github.com/jakechorley/watchtower/pkg/metrics"
)

// GeneratorStore defines the database operations needed for generating a roster
type GeneratorStore interface {
	GetMembers(ctx context.Context, station string) ([]model.Member, error)
	GetShiftRecords(ctx context.Context, from, to time.Time) ([]model.ShiftRecord, error)
	GetPublishedAssignments(ctx context.Context, station string, from, to time.Time) ([]model.ShiftAssignment, error)
	SaveRoster(ctx context.Context, roster *model.RosterPeriod) error
}

// RosterGenerator runs roster generations as background tasks, at most one per station and period
type RosterGenerator struct {
	store      GeneratorStore
	locks      registry.Locker
	logger     *zap.Logger
	metrics    metrics.Recorder
	weights    criteria.Weights
	thresholds corro.Thresholds
	now        func() time.Time
}

// GeneratorOption configures a RosterGenerator
type GeneratorOption func(*RosterGenerator)

// WithMetrics records generation outcomes
func WithMetrics(recorder metrics.Recorder) GeneratorOption {
	return func(g *RosterGenerator) {
		g.metrics = recorder
	}
}

// WithWeights overrides the soft criterion weights
func WithWeights(weights criteria.Weights) GeneratorOption {
	return func(g *RosterGenerator) {
		g.weights = weights
	}
}

// WithCorroThresholds overrides the corro rotation tiers used for corro priority
func WithCorroThresholds(thresholds corro.Thresholds) GeneratorOption {
	return func(g *RosterGenerator) {
		g.thresholds = thresholds
	}
}

// WithClock sets the clock used for created and evaluated timestamps
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *RosterGenerator) {
		g.now = now
	}
}

// NewRosterGenerator creates a generator guarded by locks
func NewRosterGenerator(store GeneratorStore, locks registry.Locker, logger *zap.Logger, opts ...GeneratorOption) *RosterGenerator {
	g := &RosterGenerator{
		store:      store,
		locks:      locks,
		logger:     logger,
		metrics:    metrics.NewNop(),
		weights:    criteria.DefaultWeights(),
		thresholds: corro.DefaultThresholds(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerationTask is an in-flight roster generation
type GenerationTask struct {
	Key string

	cancel context.CancelFunc
	done   chan struct{}
	roster *model.RosterPeriod
	err    error
}

// Done is closed once the task has finished and released its key
func (t *GenerationTask) Done() <-chan struct{} {
	return t.done
}

// Cancel stops the task. Nothing is persisted by a cancelled task.
func (t *GenerationTask) Cancel() {
	t.cancel()
}

// Wait blocks until the task finishes or ctx is done.
// The draft is returned even when some slots are unresolved; see RosterPeriod.InfeasibleSlots.
func (t *GenerationTask) Wait(ctx context.Context) (*model.RosterPeriod, error) {
	select {
	case <-t.done:
		return t.roster, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Generate starts a generation and waits for its result
func (g *RosterGenerator) Generate(ctx context.Context, cfg model.GenerationConfig) (*model.RosterPeriod, error) {
	task, err := g.Start(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return task.Wait(ctx)
}

// Start validates the config, claims the (station, period) key and runs the generation in the background.
// A key already in flight is rejected with model.ErrConcurrentGeneration. Invalid configs are rejected
// with a *model.ConfigError before any scheduling work begins.
func (g *RosterGenerator) Start(ctx context.Context, cfg model.GenerationConfig) (*GenerationTask, error) {
	cfg.StartDate = model.Day(cfg.StartDate)
	key := cfg.Key()
	logger := g.logger.With(zap.String("generation_key", key))
	logger.Debug("Starting generateRoster", zap.Int("period_weeks", cfg.PeriodWeeks), zap.Int64("seed", cfg.Seed))

	// Step 1: Reject unusable configs up front
	if err := cfg.Validate(); err != nil {
		g.metrics.ObserveGeneration(cfg.Station, metrics.OutcomeRejected, 0, 0)
		return nil, err
	}

	// Step 2: Claim the key
	release, err := g.locks.TryAcquire(ctx, key)
	if err != nil {
		if errors.Is(err, model.ErrConcurrentGeneration) {
			logger.Info("Generation already in flight")
			g.metrics.ObserveGeneration(cfg.Station, metrics.OutcomeConflict, 0, 0)
			return nil, fmt.Errorf("%w: %s", model.ErrConcurrentGeneration, key)
		}
		return nil, fmt.Errorf("failed to acquire generation lock: %w", err)
	}

	// Step 3: Check the config against the station's member pool
	members, err := g.store.GetMembers(ctx, cfg.Station)
	if err != nil {
		release()
		return nil, fmt.Errorf("failed to fetch members: %w", err)
	}
	if len(members) == 0 {
		release()
		g.metrics.ObserveGeneration(cfg.Station, metrics.OutcomeRejected, 0, 0)
		return nil, &model.ConfigError{Problems: []string{fmt.Sprintf("no members at station %s", cfg.Station)}}
	}
	if err := cfg.ValidateForPool(len(members)); err != nil {
		release()
		g.metrics.ObserveGeneration(cfg.Station, metrics.OutcomeRejected, 0, 0)
		return nil, err
	}
	logger.Debug("Loaded member pool", zap.Int("count", len(members)))

	runCtx, cancel := context.WithCancel(ctx)
	task := &GenerationTask{
		Key:    key,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(task.done)
		defer release()
		defer cancel()

		started := time.Now()
		task.roster, task.err = g.run(runCtx, logger, cfg, members)
		g.observe(cfg.Station, task.roster, task.err, time.Since(started))
	}()

	return task, nil
}

// run allocates, evaluates and persists one roster. Nothing is written unless every step succeeds.
func (g *RosterGenerator) run(
	ctx context.Context,
	logger *zap.Logger,
	cfg model.GenerationConfig,
	members []model.Member,
) (*model.RosterPeriod, error) {
	memberIDs := getMemberIDs(members)
	start := cfg.StartDate
	end := cfg.EndDate()

	// Step 4: Load history up to the day before the period, plus published rosters up to its end
	history, err := g.store.GetShiftRecords(ctx, historyStart(start), start.AddDate(0, 0, -1))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift history: %w", err)
	}
	published, err := g.store.GetPublishedAssignments(ctx, cfg.Station, historyStart(start), end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch published assignments: %w", err)
	}
	history = filterRecordsByMembers(withPublished(history, published, ""), memberIDs)
	logger.Debug("Loaded shift history",
		zap.Int("records", len(history)),
		zap.Int("published_assignments", len(published)))

	// Step 5: Allocate
	rules := compliance.RulesFromConfig(cfg)
	outcome, err := allocator.Allocate(ctx, allocator.AllocationConfig{
		Config:   cfg,
		Criteria: criteria.ForConfig(cfg, rules, g.weights, g.thresholds),
		Members:  members,
		History:  history,
		Patterns: rules.Patterns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to allocate roster: %w", err)
	}
	for _, ve := range outcome.ValidationErrors {
		logger.Warn("Roster validation error",
			zap.String("criterion", ve.CriterionName),
			zap.String("member_id", ve.MemberID),
			zap.String("description", ve.Description))
	}

	roster := &model.RosterPeriod{
		ID:              uuid.NewString(),
		Station:         cfg.Station,
		StartDate:       start,
		EndDate:         end,
		Status:          model.RosterDraft,
		Config:          cfg,
		Assignments:     outcome.Assignments,
		UnresolvedSlots: outcome.UnresolvedSlots,
		CreatedAt:       g.now(),
	}

	// Step 6: Evaluate the whole roster against the EBA
	records := make([]model.ShiftRecord, 0, len(history)+len(roster.Assignments))
	records = append(records, history...)
	records = append(records, roster.AssignmentsAsRecords()...)
	roster.ComplianceStatus = compliance.Summarize(memberIDs, records, roster.Dates(), rules, g.now())

	// Step 7: Persist, unless cancelled in the meantime
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := g.store.SaveRoster(ctx, roster); err != nil {
		return nil, fmt.Errorf("failed to save roster: %w", err)
	}

	for _, slot := range roster.UnresolvedSlots {
		logger.Warn("Unresolved coverage slot", zap.String("slot", slot.String()))
	}
	logger.Info("Roster generated",
		zap.String("roster_id", roster.ID),
		zap.Int("assignments", len(roster.Assignments)),
		zap.Int("unresolved_slots", len(roster.UnresolvedSlots)),
		zap.Bool("has_violations", roster.ComplianceStatus.HasViolations))

	return roster, nil
}

func (g *RosterGenerator) observe(station string, roster *model.RosterPeriod, err error, duration time.Duration) {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		g.logger.Info("Roster generation cancelled", zap.String("station", station))
		g.metrics.ObserveGeneration(station, metrics.OutcomeCancelled, duration, 0)
	case err != nil:
		g.logger.Error("Roster generation failed", zap.String("station", station), zap.Error(err))
		g.metrics.ObserveGeneration(station, metrics.OutcomeFailed, duration, 0)
	case len(roster.UnresolvedSlots) > 0:
		g.metrics.ObserveGeneration(station, metrics.OutcomeIncomplete, duration, len(roster.UnresolvedSlots))
	default:
		g.metrics.ObserveGeneration(station, metrics.OutcomeComplete, duration, 0)
	}
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"feature-rollout/entity"
	"feature-rollout/models"
	"feature-rollout/repository"
)

// decision - memoized outcome for one feature name
type decision struct {
	on      bool
	feature models.Feature
}

// Flaggable is the evaluation context of one record. Decisions are memoized
// for its lifetime, so it should live no longer than a request.
type Flaggable struct {
	sr     *ServiceRollout
	record entity.Flaggable

	mu   sync.Mutex
	memo map[string]decision
}

// For opens an evaluation context for record.
func (sr *ServiceRollout) For(record entity.Flaggable) *Flaggable {
	return &Flaggable{
		sr:     sr,
		record: record,
		memo:   make(map[string]decision),
	}
}

func (f *Flaggable) Record() entity.Flaggable {
	return f.record
}

// HasFeature reports whether the feature is on for the record.
// A feature that is not persisted is off.
func (f *Flaggable) HasFeature(ctx context.Context, name string) (bool, error) {
	d, err := f.decide(ctx, name)
	if err != nil {
		return false, err
	}
	return d.on, nil
}

// RunIfFeature runs action when the feature is on for the record.
// An action error is counted against the feature and returned unchanged;
// if counting fails too both errors are returned.
func (f *Flaggable) RunIfFeature(ctx context.Context, name string, action func(ctx context.Context) error) (bool, error) {
	d, err := f.decide(ctx, name)
	if err != nil || !d.on || action == nil {
		return d.on, err
	}

	actionErr := action(ctx)
	if actionErr == nil {
		return true, nil
	}

	actionFailures.WithLabelValues(name).Inc()
	// the counter survives a cancelled request
	if err := f.sr.store.IncrementFailureCount(context.WithoutCancel(ctx), d.feature); err != nil {
		f.sr.log.ErrorContext(ctx, "failure count increment",
			slog.String("feature", name),
			slog.String("record", entity.RecordOf(f.record).String()),
			slog.Any("error", err))
		return true, errors.Join(actionErr, storageError("failure count increment", err))
	}
	f.sr.log.WarnContext(ctx, "guarded action failed",
		slog.String("feature", name),
		slog.String("record", entity.RecordOf(f.record).String()),
		slog.Any("error", actionErr))

	return true, actionErr
}

// Forget drops memoized decisions; with no names every decision is dropped.
func (f *Flaggable) Forget(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(names) == 0 {
		clear(f.memo)
		return
	}
	for _, name := range names {
		delete(f.memo, name)
	}
}

// decide does not hold the memo lock while evaluating, group predicates
// may check other features on the same context
func (f *Flaggable) decide(ctx context.Context, name string) (decision, error) {
	f.mu.Lock()
	d, ok := f.memo[name]
	f.mu.Unlock()
	if ok {
		return d, nil
	}

	d, err := f.sr.evaluate(ctx, name, f.record)
	if err != nil {
		return decision{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	// first stored decision wins
	if prev, ok := f.memo[name]; ok {
		return prev, nil
	}
	f.memo[name] = d
	return d, nil
}

func (sr *ServiceRollout) evaluate(ctx context.Context, name string, record entity.Flaggable) (decision, error) {
	feature, err := sr.store.FeatureByName(ctx, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		evaluations.WithLabelValues(name, resultAbsent).Inc()
		return decision{}, nil
	case err != nil:
		storageErrors.WithLabelValues("feature lookup").Inc()
		return decision{}, storageError("feature lookup", err)
	}

	d := decision{feature: feature}

	_, err = sr.store.OptOutFor(ctx, feature.ID, record.FlaggableID())
	optedOut, err := found("opt-out lookup", err)
	if err != nil {
		storageErrors.WithLabelValues("opt-out lookup").Inc()
		return decision{}, err
	}
	if optedOut {
		evaluations.WithLabelValues(name, resultOptedOut).Inc()
		return d, nil
	}

	d.on, err = sr.Match(ctx, &feature, record)
	if err != nil {
		if errors.Is(err, ErrStorage) {
			storageErrors.WithLabelValues("match").Inc()
		}
		return decision{}, err
	}

	result := resultOff
	if d.on {
		result = resultOn
	}
	evaluations.WithLabelValues(name, result).Inc()
	sr.log.DebugContext(ctx, "feature decision",
		slog.String("feature", name),
		slog.String("record", entity.RecordOf(record).String()),
		slog.String("result", result))

	return d, nil
}

// FlagInCount returns the number of records of recordType flagged in.
func (sr *ServiceRollout) FlagInCount(ctx context.Context, name, recordType string) (int64, error) {
	feature, err := sr.counterFeature(ctx, name)
	if err != nil {
		return 0, err
	}
	return feature.FlagInCount(recordType), nil
}

// OptOutCount returns the number of records of recordType opted out.
func (sr *ServiceRollout) OptOutCount(ctx context.Context, name, recordType string) (int64, error) {
	feature, err := sr.counterFeature(ctx, name)
	if err != nil {
		return 0, err
	}
	return feature.OptOutCount(recordType), nil
}

func (sr *ServiceRollout) FailureCount(ctx context.Context, name string) (int64, error) {
	feature, err := sr.counterFeature(ctx, name)
	if err != nil {
		return 0, err
	}
	return feature.FailureCount, nil
}

func (sr *ServiceRollout) Counters(ctx context.Context, name string) (*entity.Counters, error) {
	feature, err := sr.counterFeature(ctx, name)
	if err != nil {
		return nil, err
	}
	return entity.NewCounters(feature), nil
}

func (sr *ServiceRollout) counterFeature(ctx context.Context, name string) (models.Feature, error) {
	feature, err := sr.store.FeatureByName(ctx, name)
	if err != nil {
		return models.Feature{}, translate("feature lookup", "feature", name, err)
	}
	return feature, nil
}

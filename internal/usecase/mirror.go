package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/internal/domain"
)

var tracer = otel.Tracer("mirror")

type MirrorConfig struct {
	BatchSize   int
	Concurrency int
	Channel     string
}

type MirrorUsecase struct {
	repo      MirrorRepository
	publisher Publisher
	filter    Filter
	conf      MirrorConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewMirrorUsecase wires a mirror. publisher and filter may be nil: nothing is
// announced and everything is kept.
func NewMirrorUsecase(
	repo MirrorRepository,
	publisher Publisher,
	filter Filter,
	conf MirrorConfig,
	logger *zap.Logger,
) *MirrorUsecase {
	if conf.BatchSize <= 0 {
		conf.BatchSize = 50
	}
	if conf.Concurrency <= 0 {
		conf.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MirrorUsecase{
		repo:      repo,
		publisher: publisher,
		filter:    filter,
		conf:      conf,
		logger:    logger,
		now:       time.Now,
	}
}

// run is the mutable part of one Sync, shared by the batch workers.
type run struct {
	mu     sync.Mutex
	report domain.SyncReport
}

func (r *run) fail(ids ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Failed = append(r.report.Failed, ids...)
}

func (r *run) count(o domain.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Count(o)
}

// Sync mirrors every object of src matching text. IDs are collected from the
// search in batches, each batch is bulk fetched, filtered and stored by at most
// Concurrency workers. A batch the server cannot deliver is recorded as failed
// and the run goes on; storage errors abort it.
func (uc *MirrorUsecase) Sync(ctx context.Context, src Source, text string) (domain.SyncReport, error) {
	ctx, span := tracer.Start(ctx, "Mirror.Sync",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("mirror.resource", src.Resource())),
	)
	defer span.End()

	r := &run{report: domain.SyncReport{
		RunID:    uuid.NewString(),
		Resource: src.Resource(),
		Text:     text,
		Status:   domain.RunStatusRunning,
		Failed:   []string{},
		Started:  uc.now(),
	}}
	span.SetAttributes(attribute.String("mirror.run", r.report.RunID))

	if err := uc.repo.BeginRun(ctx, r.report); err != nil {
		return r.report, errors.Wrap(err, "failed to record run")
	}
	log := uc.logger.With(zap.String("run", r.report.RunID), zap.String("resource", src.Resource()))
	log.Info("mirror run started", zap.String("text", text))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.conf.Concurrency)

	batch := make([]string, 0, uc.conf.BatchSize)
	flush := func() {
		ids := batch
		batch = make([]string, 0, uc.conf.BatchSize)
		g.Go(func() error {
			return uc.process(gctx, src, ids, r, log)
		})
	}

	var searchErr error
	for obj, err := range src.Search(gctx, text) {
		if err != nil {
			searchErr = errors.Wrap(err, "search failed")
			break
		}
		r.mu.Lock()
		r.report.Seen++
		r.mu.Unlock()
		batch = append(batch, obj.ID)
		if len(batch) == uc.conf.BatchSize {
			flush()
		}
	}
	if searchErr == nil && len(batch) > 0 {
		flush()
	}

	err := g.Wait()
	if err == nil {
		err = searchErr
	}

	r.mu.Lock()
	report := r.report
	r.mu.Unlock()
	report.Finished = uc.now()
	switch {
	case err != nil:
		report.Status = domain.RunStatusFailed
		report.Error = err.Error()
	case len(report.Failed) > 0:
		report.Status = domain.RunStatusPartial
	default:
		report.Status = domain.RunStatusDone
	}

	if finishErr := uc.repo.FinishRun(context.WithoutCancel(ctx), report); finishErr != nil {
		log.Warn("failed to record run result", zap.Error(finishErr))
		if err == nil {
			err = errors.Wrap(finishErr, "failed to record run result")
		}
	}

	log.Info("mirror run finished",
		zap.String("status", string(report.Status)),
		zap.Int("seen", report.Seen),
		zap.Int("stored", report.Stored),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failed)),
	)
	span.SetAttributes(attribute.Int("mirror.stored", report.Stored), attribute.Int("mirror.failed", len(report.Failed)))
	return report, err
}

func (uc *MirrorUsecase) process(ctx context.Context, src Source, ids []string, r *run, log *zap.Logger) error {
	res, err := src.Fetch(ctx, ids)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("bulk fetch failed", zap.Int("ids", len(ids)), zap.Error(err))
		r.fail(ids...)
		return nil
	}
	r.fail(res.Failed...)

	for _, obj := range res.Succeeded {
		outcome, err := uc.store(ctx, src.Resource(), obj, log)
		if err != nil {
			return err
		}
		r.count(outcome)
	}
	return nil
}

func (uc *MirrorUsecase) store(ctx context.Context, resource string, obj enovia.RawObject, log *zap.Logger) (domain.Outcome, error) {
	if uc.filter != nil {
		keep, err := uc.filter.Keep(obj)
		if err != nil {
			log.Warn("filter failed, object skipped", zap.String("id", obj.ID), zap.Error(err))
			return domain.OutcomeSkipped, nil
		}
		if !keep {
			return domain.OutcomeSkipped, nil
		}
	}

	payload := []byte(obj.Raw)
	if len(payload) == 0 {
		var err error
		if payload, err = json.Marshal(obj.Object); err != nil {
			return domain.OutcomeFailed, err
		}
	}

	mirrored := domain.MirroredObject{
		Resource: resource,
		ID:       obj.ID,
		Type:     obj.Type,
		Title:    obj.Title,
		State:    obj.State,
		Revision: obj.Revision,
		Cestamp:  obj.Cestamp,
		Modified: obj.Modified,
		Payload:  payload,
		SyncedAt: uc.now(),
	}
	hash, changed, err := uc.repo.Upsert(ctx, mirrored)
	if err != nil {
		return domain.OutcomeFailed, err
	}
	if !changed {
		return domain.OutcomeUnchanged, nil
	}

	if uc.publisher != nil {
		event := enovia.ChangeEvent{
			Resource: resource,
			ID:       obj.ID,
			Type:     obj.Type,
			Cestamp:  obj.Cestamp,
			Hash:     hash,
			SyncedAt: mirrored.SyncedAt,
		}
		if err := uc.publisher.Publish(ctx, uc.conf.Channel, event); err != nil {
			log.Warn("failed to publish change", zap.String("id", obj.ID), zap.Error(err))
		}
	}
	return domain.OutcomeStored, nil
}

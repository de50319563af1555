package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/messaging"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

var meter = otel.Meter("github.com/SilkenBread/restaurant-ordering-backend/worker")

// Handler executes the body of one job kind.
type Handler func(ctx context.Context, job Job) error

// HandlerRegistration binds a job kind to its handler and retry budget.
type HandlerRegistration struct {
	Kind        Kind
	Handler     Handler
	MaxAttempts int
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine consumes job envelopes and runs them on a pool of goroutines.
type Engine struct {
	client        messaging.Client
	logger        *zap.Logger
	cfg           config.Config
	registrations map[Kind]HandlerRegistration
	backoff       time.Duration
	processed     metric.Int64Counter
	attempts      metric.Int64Counter
	duration      metric.Float64Histogram
	cancel        context.CancelFunc
	wg            *sync.WaitGroup
}

// NewEngine constructs the worker Engine.
func NewEngine(p Params) *Engine {
	reg := make(map[Kind]HandlerRegistration, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.Kind == "" || r.Handler == nil {
			continue
		}
		if r.MaxAttempts <= 0 {
			r.MaxAttempts = 1
		}
		reg[r.Kind] = r
	}

	processed, err := meter.Int64Counter("jobs.processed", metric.WithDescription("Jobs finished, by kind and outcome"))
	if err != nil {
		p.Logger.Warn("jobs.processed counter unavailable", zap.Error(err))
	}
	attempts, err := meter.Int64Counter("jobs.attempts", metric.WithDescription("Job handler invocations, by kind"))
	if err != nil {
		p.Logger.Warn("jobs.attempts counter unavailable", zap.Error(err))
	}

	duration, err := meter.Float64Histogram("jobs.duration", metric.WithUnit("s"), metric.WithDescription("Job run time including retries"))
	if err != nil {
		p.Logger.Warn("jobs.duration histogram unavailable", zap.Error(err))
	}

	return &Engine{
		client:        p.Client,
		logger:        p.Logger,
		cfg:           p.Config,
		registrations: reg,
		backoff:       p.Config.Jobs.RetryBackoff,
		processed:     processed,
		attempts:      attempts,
		duration:      duration,
	}
}

// QueueModule provides job submission to request-path components.
var QueueModule = fx.Provide(NewQueue)

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.start,
			OnStop:  engine.stop,
		})
	}),
)

// Run executes job with its registered handler. Retryable failures are
// attempted again, up to the registration's MaxAttempts, sleeping the
// configured backoff times the attempt number in between. The last error is
// returned once the budget is spent or the error is not retryable.
func (e *Engine) Run(ctx context.Context, job Job) error {
	reg, ok := e.registrations[job.Kind]
	if !ok {
		e.logger.Warn("no handler for job kind", zap.String("kind", string(job.Kind)), zap.String("job_id", job.ID))

		return nil
	}

	kindAttr := metric.WithAttributes(attribute.String("job.kind", string(job.Kind)))
	started := time.Now()
	defer func() {
		if e.duration != nil {
			e.duration.Record(ctx, time.Since(started).Seconds(), metric.WithAttributes(attribute.String("job.kind", string(job.Kind))))
		}
	}()
	var err error
	for attempt := 1; attempt <= reg.MaxAttempts; attempt++ {
		e.count(ctx, e.attempts, kindAttr)
		err = reg.Handler(ctx, job)
		if err == nil {
			e.count(ctx, e.processed, metric.WithAttributes(
				attribute.String("job.kind", string(job.Kind)),
				attribute.String("job.outcome", "succeeded"),
			))
			e.logger.Info("job finished",
				zap.String("job_id", job.ID),
				zap.String("kind", string(job.Kind)),
				zap.Int("attempt", attempt),
			)
			return nil
		}
		if !errorbank.IsRetryable(err) || attempt == reg.MaxAttempts {
			break
		}

		e.logger.Warn("job attempt failed; retrying",
			zap.String("job_id", job.ID),
			zap.String("kind", string(job.Kind)),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", reg.MaxAttempts),
			zap.Error(err),
		)
		select {
		case <-time.After(e.backoff * time.Duration(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	e.count(ctx, e.processed, metric.WithAttributes(
		attribute.String("job.kind", string(job.Kind)),
		attribute.String("job.outcome", "failed"),
	))
	e.logger.Error("job failed",
		zap.String("job_id", job.ID),
		zap.String("kind", string(job.Kind)),
		zap.Error(err),
	)
	return err
}

func (e *Engine) count(ctx context.Context, counter metric.Int64Counter, opts ...metric.AddOption) {
	if counter != nil {
		counter.Add(ctx, 1, opts...)
	}
}

func (e *Engine) start(ctx context.Context) error {
	if !e.cfg.Messaging.Enabled || !e.cfg.Messaging.Workers.Enabled {
		e.logger.Info("worker engine disabled")

		return nil
	}
	if len(e.registrations) == 0 {
		e.logger.Info("worker engine has no handlers; skipping")

		return nil
	}

	concurrency := e.cfg.Messaging.Workers.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg = &sync.WaitGroup{}

	for i := 0; i < concurrency; i++ {
		workerID := i
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consumeLoop(runCtx, workerID)
		}()
	}

	e.logger.Info("worker engine started", zap.Int("workers", concurrency), zap.Int("kinds", len(e.registrations)))

	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()
	done := make(chan struct{})
	go func() {
		if e.wg != nil {
			e.wg.Wait()
		}
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")

		return nil
	}
}

func (e *Engine) consumeLoop(ctx context.Context, workerID int) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			var job Job
			if err := json.Unmarshal(msg.Value, &job); err != nil {
				e.logger.Error("discarding malformed job envelope", zap.Error(err), zap.Int64("offset", msg.Offset))

				return nil
			}

			e.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("kind", string(job.Kind)), zap.Int("worker", workerID))

			return e.Run(msgCtx, job)
		})

		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consume loop error", zap.Error(err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}

		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

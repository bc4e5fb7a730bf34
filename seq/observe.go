package seq

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/observability"
	"github.com/kbukum/seqkit/validation"
)

// probe observes one enumeration, from the first Next to disposal.
type probe interface {
	begin(ctx context.Context)
	// scope decorates the context handed to the upstream iterator.
	scope(ctx context.Context) context.Context
	end(ctx context.Context, elements int64, err error)
}

type observedIter[T any] struct {
	iterState[T]
	source   Sequence[T]
	newProbe func() probe
	probe    probe
	upstream Iterator[T]
	elements int64
	err      error
}

func observe[T any](source Sequence[T], newProbe func() probe) Sequence[T] {
	return &observedIter[T]{source: source, newProbe: newProbe}
}

func (it *observedIter[T]) Iter(context.Context) Iterator[T] { return it.Clone() }
func (it *observedIter[T]) Clone() Iterator[T] {
	return &observedIter[T]{source: it.source, newProbe: it.newProbe}
}

func (it *observedIter[T]) Next(ctx context.Context) (bool, error) {
	switch it.state {
	case stateAllocated:
		it.probe = it.newProbe()
		it.probe.begin(ctx)
		it.upstream = it.source.Iter(it.probe.scope(ctx))
		it.state = stateIterating
		fallthrough
	case stateIterating:
		ok, err := it.upstream.Next(it.probe.scope(ctx))
		if err != nil {
			it.err = err
			return false, fail(ctx, it, "Observe", err)
		}
		if !ok {
			return false, it.Close(ctx)
		}
		it.elements++
		return it.yield(it.upstream.Current())
	}
	return false, nil
}

func (it *observedIter[T]) Close(ctx context.Context) error {
	if it.probe == nil {
		it.dispose()
		return nil
	}
	err := closeUpstream(ctx, &it.upstream)
	ended := it.err
	if ended == nil {
		ended = err
	}
	it.probe.end(ctx, it.elements, ended)
	it.probe, it.err = nil, nil
	it.dispose()
	return err
}

// outcome classifies how an enumeration ended.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// --- tracing ---

type traceProbe struct {
	name string
	span trace.Span
}

// Traced records one span per enumeration of source, from the first Next to
// disposal. Upstream iterators see the span in their context.
func Traced[T any](source Sequence[T], name string) Sequence[T] {
	validation.New().NotNil("source", source).Required("name", name).MustPass()
	return observe(source, func() probe { return &traceProbe{name: name} })
}

func (p *traceProbe) begin(ctx context.Context) {
	_, p.span = observability.StartSpan(ctx, observability.SpanEnumeration,
		trace.WithAttributes(attribute.String(observability.AttrSequence, p.name)))
}

func (p *traceProbe) scope(ctx context.Context) context.Context {
	return trace.ContextWithSpan(ctx, p.span)
}

func (p *traceProbe) end(_ context.Context, elements int64, err error) {
	p.span.SetAttributes(
		attribute.Int64(observability.AttrElements, elements),
		attribute.String(observability.AttrStatus, outcome(err)),
	)
	if err != nil {
		p.span.RecordError(err)
		p.span.SetStatus(codes.Error, err.Error())
	}
	p.span.End()
}

// --- metrics ---

type meterProbe struct {
	name    string
	metrics *observability.Metrics
	start   time.Time
}

// Metered records enumeration count, yielded elements, duration and faults
// of source under name.
func Metered[T any](source Sequence[T], metrics *observability.Metrics, name string) Sequence[T] {
	validation.New().NotNil("source", source).NotNil("metrics", metrics).Required("name", name).MustPass()
	return observe(source, func() probe { return &meterProbe{name: name, metrics: metrics} })
}

func (p *meterProbe) begin(ctx context.Context) {
	p.start = time.Now()
	p.metrics.RecordEnumerationStart(ctx, p.name)
}

func (p *meterProbe) scope(ctx context.Context) context.Context { return ctx }

func (p *meterProbe) end(ctx context.Context, elements int64, err error) {
	status := outcome(err)
	p.metrics.RecordEnumerationEnd(ctx, p.name, status, elements, time.Since(p.start))
	if status == "error" {
		code := string(errors.CodeOf(err))
		if code == "" {
			code = "upstream"
		}
		p.metrics.RecordError(ctx, code, p.name)
	}
}

// --- logging ---

type logProbe struct {
	name  string
	log   *logger.Logger
	id    string
	start time.Time
}

// Logged logs the start and end of every enumeration of source with an
// enumeration id, the element count and the duration. Faults are logged at
// error level, everything else at debug.
func Logged[T any](source Sequence[T], log *logger.Logger, name string) Sequence[T] {
	validation.New().NotNil("source", source).NotNil("log", log).Required("name", name).MustPass()
	return observe(source, func() probe { return &logProbe{name: name, log: log} })
}

func (p *logProbe) begin(ctx context.Context) {
	p.id = uuid.NewString()
	p.start = time.Now()
	p.log.WithContext(ctx).Debug("enumeration started", logger.Fields(
		logger.FieldSequence, p.name,
		logger.FieldEnumeration, p.id,
	))
}

func (p *logProbe) scope(ctx context.Context) context.Context { return ctx }

func (p *logProbe) end(ctx context.Context, elements int64, err error) {
	fields := logger.DurationFields("Logged", time.Since(p.start))
	fields[logger.FieldSequence] = p.name
	fields[logger.FieldEnumeration] = p.id
	fields[logger.FieldElements] = elements
	log := p.log.WithContext(ctx)
	switch outcome(err) {
	case "ok":
		log.Debug("enumeration finished", fields)
	case "canceled":
		log.Debug("enumeration canceled", fields)
	default:
		log.Error("enumeration failed", logger.MergeWithError(fields, err))
	}
}

/*
Package behavior 提供流水线中的性能与事务行为。
*/
package behavior

import (
	"context"
	"time"

	"catalog/application/mediator"
	"catalog/pkg/metrics"
	"catalog/pkg/result"
	"catalog/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultSlowThreshold 超过该耗时的请求会记录警告
const DefaultSlowThreshold = 500 * time.Millisecond

// Performance 计时行为。只做观测，不改变结果，也不吞掉错误。
type Performance struct {
	threshold time.Duration
	log       *zap.Logger
	metrics   *metrics.Collector
	tracer    trace.Tracer
	now       func() time.Time
}

// PerformanceOption 配置计时行为
type PerformanceOption func(*Performance)

// WithThreshold 覆盖慢请求阈值
func WithThreshold(d time.Duration) PerformanceOption {
	return func(p *Performance) {
		if d > 0 {
			p.threshold = d
		}
	}
}

// WithMetrics 记录 Prometheus 指标
func WithMetrics(c *metrics.Collector) PerformanceOption {
	return func(p *Performance) { p.metrics = c }
}

// WithTracer 覆盖 tracer
func WithTracer(t trace.Tracer) PerformanceOption {
	return func(p *Performance) { p.tracer = t }
}

// NewPerformance 创建计时行为；log 为 nil 时不输出日志
func NewPerformance(log *zap.Logger, opts ...PerformanceOption) *Performance {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Performance{
		threshold: DefaultSlowThreshold,
		log:       log,
		tracer:    tracing.Tracer(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle 实现 mediator.Behavior
func (p *Performance) Handle(ctx context.Context, req mediator.Request, next mediator.Next) (any, error) {
	name := mediator.RequestName(req)
	kind := req.Kind().String()

	ctx, span := p.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("pipeline.request", name),
		attribute.String("pipeline.kind", kind),
	))
	defer span.End()

	start := p.now()
	resp, err := next(ctx)
	elapsed := p.now().Sub(start)

	outcome := outcomeOf(resp, err)
	span.SetAttributes(attribute.String("pipeline.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	p.metrics.ObserveRequest(name, kind, outcome, elapsed)

	if elapsed > p.threshold {
		p.metrics.ObserveSlowRequest(name)
		p.log.Warn("Long running request",
			zap.String("request", name),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", p.threshold),
			zap.Any("payload", req))
	}

	return resp, err
}

func outcomeOf(resp any, err error) string {
	if err != nil {
		return "error"
	}
	if o, ok := resp.(result.Outcome); ok {
		return o.Outcome()
	}
	return "unknown"
}

var _ mediator.Behavior = (*Performance)(nil)

package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/hoist/internal/core/ports"
)

// PhaseLogger implements sdktrace.SpanProcessor and logs each finished span
// with its duration at debug level.
type PhaseLogger struct {
	logger ports.Logger
}

// NewPhaseLogger returns a new PhaseLogger.
func NewPhaseLogger(logger ports.Logger) *PhaseLogger {
	return &PhaseLogger{logger: logger}
}

// OnStart does nothing.
func (p *PhaseLogger) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd is called when a span ends.
func (p *PhaseLogger) OnEnd(s sdktrace.ReadOnlySpan) {
	if p.logger == nil || !s.SpanContext().IsValid() {
		return
	}

	elapsed := s.EndTime().Sub(s.StartTime()).Round(time.Millisecond)
	msg := fmt.Sprintf("%s finished in %s", s.Name(), elapsed)
	if s.Status().Code == codes.Error {
		msg = fmt.Sprintf("%s failed after %s", s.Name(), elapsed)
	}
	p.logger.Debug(msg)
}

// ForceFlush does nothing.
func (p *PhaseLogger) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (p *PhaseLogger) Shutdown(_ context.Context) error {
	return nil
}

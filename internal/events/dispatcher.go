// Package events provides the in-process domain event dispatcher.
//
// The dispatcher decouples the workflow engine from its consumers (trail
// recording, notifications, reporting): the engine emits events without any
// compile-time knowledge of who listens. Handlers are registered once during
// wiring in cmd/server; the table is never mutated during request processing,
// so Emit needs no locking.
package events

import (
	"context"
	"fmt"
	"log/slog"
)

// Handler consumes one event payload. Returning an error (or panicking) is
// isolated: it is logged and never aborts remaining handlers or the emitting
// caller, whose state change has already been committed by the time handlers
// run.
type Handler func(ctx context.Context, payload any) error

// Dispatcher delivers events synchronously, in registration order.
type Dispatcher struct {
	logger   *slog.Logger
	handlers map[string][]Handler
}

// NewDispatcher builds an empty dispatcher. Register all handlers before the
// first Emit; registration is wiring-time configuration, not runtime state.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		handlers: make(map[string][]Handler),
	}
}

// Register appends a handler for the given event type.
func (d *Dispatcher) Register(eventType string, h Handler) {
	d.handlers[eventType] = append(d.handlers[eventType], h)
}

// Emit invokes every handler registered for eventType, synchronously and in
// registration order. Handler failures are logged and swallowed.
func (d *Dispatcher) Emit(ctx context.Context, eventType string, payload any) {
	for i, h := range d.handlers[eventType] {
		if err := d.safeInvoke(ctx, h, payload); err != nil {
			d.logger.ErrorContext(ctx, "event handler failed",
				"event_type", eventType,
				"handler_index", i,
				"error", err,
			)
		}
	}
}

func (d *Dispatcher) safeInvoke(ctx context.Context, h Handler, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, payload)
}

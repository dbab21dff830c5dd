package events

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Papyszoo/Modelibr-sub005/common"
	"github.com/Papyszoo/Modelibr-sub005/internal/logger"
)

// Handler consumes a single domain event. Handlers run synchronously in
// registration order; an error fails the operation that raised the event.
type Handler func(ctx context.Context, e Event) error

// Dispatcher delivers events in-process, sequentially, in raise order.
// Registration happens at wiring time; Publish is safe for concurrent
// use afterwards.
type Dispatcher struct {
	log      *logger.Logger
	handlers map[string][]Handler
}

func NewDispatcher(log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		log:      log.With("component", "dispatcher"),
		handlers: map[string][]Handler{},
	}
}

// Register adds a handler for the named event type.
func (d *Dispatcher) Register(eventName string, h Handler) {
	d.handlers[eventName] = append(d.handlers[eventName], h)
}

// Publish delivers each event to all handlers registered for its type,
// in order, before moving to the next event. A handler error or panic is
// caught at the handler boundary and returned as a typed failure; it
// never crashes the dispatcher, and handlers for other event types stay
// registered and unaffected.
func (d *Dispatcher) Publish(ctx context.Context, evs ...Event) error {
	for _, e := range evs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("dispatch %s: %w", e.EventName(), err)
		}
		for i, h := range d.handlers[e.EventName()] {
			if err := d.deliver(ctx, e, i, h); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, e Event, idx int, h Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("handler panic", "event", e.EventName(), "handler", idx, "panic", r)
			err = common.Errf(http.StatusInternalServerError, common.CodeHandlerFailed,
				"handler %d for %s panicked", idx, e.EventName())
		}
	}()

	if err := h(ctx, e); err != nil {
		var apiErr common.APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		d.log.Error("handler failed", "event", e.EventName(), "handler", idx, "error", err)
		return common.Errf(http.StatusInternalServerError, common.CodeHandlerFailed,
			"handler %d for %s failed: %v", idx, e.EventName(), err)
	}
	return nil
}

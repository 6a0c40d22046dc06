package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher() *Dispatcher {
	return NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEmit_RegistrationOrder(t *testing.T) {
	d := newDispatcher()
	var order []string

	d.Register("status_changed", func(ctx context.Context, payload any) error {
		order = append(order, "first")
		return nil
	})
	d.Register("status_changed", func(ctx context.Context, payload any) error {
		order = append(order, "second")
		return nil
	})

	d.Emit(context.Background(), "status_changed", "payload")
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEmit_HandlerFailureIsIsolated(t *testing.T) {
	d := newDispatcher()
	var reached bool

	d.Register("status_changed", func(ctx context.Context, payload any) error {
		return errors.New("smtp down")
	})
	d.Register("status_changed", func(ctx context.Context, payload any) error {
		reached = true
		return nil
	})

	d.Emit(context.Background(), "status_changed", nil)
	assert.True(t, reached, "a failing handler must not abort the remaining handlers")
}

func TestEmit_HandlerPanicIsIsolated(t *testing.T) {
	d := newDispatcher()
	var reached bool

	d.Register("status_changed", func(ctx context.Context, payload any) error {
		panic("boom")
	})
	d.Register("status_changed", func(ctx context.Context, payload any) error {
		reached = true
		return nil
	})

	require.NotPanics(t, func() {
		d.Emit(context.Background(), "status_changed", nil)
	})
	assert.True(t, reached)
}

func TestEmit_UnregisteredTypeIsNoop(t *testing.T) {
	d := newDispatcher()
	require.NotPanics(t, func() {
		d.Emit(context.Background(), "nobody_listens", 42)
	})
}

func TestEmit_PayloadDelivered(t *testing.T) {
	d := newDispatcher()
	var got any

	d.Register("decision_issued", func(ctx context.Context, payload any) error {
		got = payload
		return nil
	})

	d.Emit(context.Background(), "decision_issued", map[string]string{"value": "certify"})
	assert.Equal(t, map[string]string{"value": "certify"}, got)
}

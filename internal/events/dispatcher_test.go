package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Papyszoo/Modelibr-sub005/common"
	"github.com/Papyszoo/Modelibr-sub005/internal/logger"
)

func TestDispatcher_DeliversInOrder(t *testing.T) {
	d := NewDispatcher(logger.Nop())

	var got []uint
	d.Register(ModelShownName, func(_ context.Context, e Event) error {
		got = append(got, e.(ModelShown).ModelID)
		return nil
	})

	err := d.Publish(context.Background(),
		ModelShown{ModelID: 1}, ModelShown{ModelID: 2}, ModelShown{ModelID: 3})

	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, got)
}

func TestDispatcher_MultipleHandlersPerEvent(t *testing.T) {
	d := NewDispatcher(logger.Nop())

	var order []string
	d.Register(ModelShownName, func(context.Context, Event) error {
		order = append(order, "first")
		return nil
	})
	d.Register(ModelShownName, func(context.Context, Event) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), ModelShown{ModelID: 1}))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDispatcher_HandlerErrorFailsOperation(t *testing.T) {
	d := NewDispatcher(logger.Nop())

	d.Register(ModelShownName, func(context.Context, Event) error {
		return errors.New("boom")
	})

	err := d.Publish(context.Background(), ModelShown{ModelID: 1})

	require.Error(t, err)
	apiErr, ok := err.(common.APIError)
	require.True(t, ok)
	assert.Equal(t, common.CodeHandlerFailed, apiErr.Code)
}

func TestDispatcher_APIErrorPassesThrough(t *testing.T) {
	d := NewDispatcher(logger.Nop())

	want := common.Errf(404, common.CodeNotFound, "model not found")
	d.Register(ModelShownName, func(context.Context, Event) error {
		return want
	})

	err := d.Publish(context.Background(), ModelShown{ModelID: 1})

	apiErr, ok := err.(common.APIError)
	require.True(t, ok)
	assert.Equal(t, want.Code, apiErr.Code)
	assert.Equal(t, want.Status, apiErr.Status)
}

func TestDispatcher_PanicIsContained(t *testing.T) {
	d := NewDispatcher(logger.Nop())

	d.Register(ModelShownName, func(context.Context, Event) error {
		panic("handler exploded")
	})

	var delivered bool
	d.Register(ThumbnailStatusChangedName, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), ModelShown{ModelID: 1})
	require.Error(t, err)
	apiErr, ok := err.(common.APIError)
	require.True(t, ok)
	assert.Equal(t, common.CodeHandlerFailed, apiErr.Code)

	// A failure on one event type does not poison delivery for others.
	require.NoError(t, d.Publish(context.Background(), ThumbnailStatusChanged{JobID: 1}))
	assert.True(t, delivered)
}

func TestDispatcher_NoHandlersIsFine(t *testing.T) {
	d := NewDispatcher(logger.Nop())
	require.NoError(t, d.Publish(context.Background(), ModelShown{ModelID: 1}))
}

func TestDispatcher_CancelledContext(t *testing.T) {
	d := NewDispatcher(logger.Nop())
	d.Register(ModelShownName, func(context.Context, Event) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Publish(ctx, ModelShown{ModelID: 1})
	require.Error(t, err)
}

func TestRaiser(t *testing.T) {
	var r Raiser
	assert.False(t, r.HasPending())
	assert.Empty(t, r.PullEvents())

	r.Raise(ModelShown{ModelID: 1})
	r.Raise(ModelShown{ModelID: 2})
	assert.True(t, r.HasPending())

	evs := r.PullEvents()
	require.Len(t, evs, 2)
	assert.Equal(t, ModelShown{ModelID: 1}, evs[0])
	assert.Equal(t, ModelShown{ModelID: 2}, evs[1])

	// Pull clears the buffer.
	assert.False(t, r.HasPending())
	assert.Empty(t, r.PullEvents())
}

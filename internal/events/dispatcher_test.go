package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPublishContinuesAfterHandlerError(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dispatcher := NewInMemoryDispatcher(zap.New(core))

	var calls []string
	dispatcher.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("mailbox full")
	})
	dispatcher.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	dispatcher.Subscribe(EventCommentAdded, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{ID: "evt-1", Type: EventTicketCreated})

	assert.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
}

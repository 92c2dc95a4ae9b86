package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/envres/events"
)

func TestBusSubscribe(t *testing.T) {
	t.Run("Subscriber Receives Published Event", func(t *testing.T) {
		bus := events.New(0)
		var got events.Event
		bus.Subscribe(events.SubscriberFunc(func(e events.Event) { got = e }))

		bus.Publish(events.Event{Kind: events.KindSourceAdded, SourceID: "file:a"})
		assert.Equal(t, events.KindSourceAdded, got.Kind)
		assert.Equal(t, "file:a", got.SourceID)
	})

	t.Run("Multiple Subscribers Delivered In Order", func(t *testing.T) {
		bus := events.New(0)
		var order []int
		bus.Subscribe(events.SubscriberFunc(func(events.Event) { order = append(order, 1) }))
		bus.Subscribe(events.SubscriberFunc(func(events.Event) { order = append(order, 2) }))

		bus.Publish(events.Event{Kind: events.KindCacheInvalidated})
		assert.Equal(t, []int{1, 2}, order)
	})

	t.Run("Panicking Subscriber Does Not Block Others", func(t *testing.T) {
		bus := events.New(0)
		delivered := false
		bus.Subscribe(events.SubscriberFunc(func(events.Event) { panic("boom") }))
		bus.Subscribe(events.SubscriberFunc(func(events.Event) { delivered = true }))

		assert.NotPanics(t, func() {
			bus.Publish(events.Event{Kind: events.KindCacheInvalidated})
		})
		assert.True(t, delivered)
	})

	t.Run("Unsubscribe Removes By Identity", func(t *testing.T) {
		bus := events.New(0)
		calls := 0
		sub := events.SubscriberFunc(func(events.Event) { calls++ })
		bus.Subscribe(sub)
		bus.Unsubscribe(sub)
		bus.Publish(events.Event{Kind: events.KindCacheInvalidated})
		assert.Equal(t, 0, calls)
	})

	t.Run("SubscriberCount Reflects Registrations", func(t *testing.T) {
		bus := events.New(0)
		bus.Subscribe(events.SubscriberFunc(func(events.Event) {}))
		bus.Subscribe(events.SubscriberFunc(func(events.Event) {}))
		assert.Equal(t, 2, bus.SubscriberCount())
	})
}

func TestBusChannel(t *testing.T) {
	t.Run("Channel Receives Published Event", func(t *testing.T) {
		bus := events.New(4)
		ch := bus.Channel()
		bus.Publish(events.Event{Kind: events.KindVariablesChanged, Added: []string{"FOO"}})

		select {
		case e := <-ch:
			assert.Equal(t, []string{"FOO"}, e.Added)
		default:
			t.Fatal("expected event on channel")
		}
	})

	t.Run("Full Channel Drops Rather Than Blocks", func(t *testing.T) {
		bus := events.New(1)
		ch := bus.Channel()
		bus.Publish(events.Event{Kind: events.KindCacheInvalidated})
		require.NotPanics(t, func() {
			bus.Publish(events.Event{Kind: events.KindCacheInvalidated})
		})
		assert.Len(t, ch, 1)
	})
}

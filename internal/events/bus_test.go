package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	bus := NewBus()
	var got []Event
	sub := bus.Subscribe(TopicKeyboardShown, func(e Event) {
		got = append(got, e)
	})
	defer sub.Release()

	bus.Publish(TopicKeyboardShown, 42)
	bus.Publish(TopicFocusLost, nil)

	require.Len(t, got, 1)
	assert.Equal(t, TopicKeyboardShown, got[0].Topic)
	assert.Equal(t, 42, got[0].Data)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestReleaseStopsDelivery(t *testing.T) {
	bus := NewBus()
	calls := 0
	sub := bus.Subscribe(TopicKeyboardShown, func(Event) { calls++ })

	bus.Publish(TopicKeyboardShown, nil)
	sub.Release()
	bus.Publish(TopicKeyboardShown, nil)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Count(TopicKeyboardShown))
}

func TestReleaseIsIdempotent(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe(TopicKeyboardShown, func(Event) {})
	b := bus.Subscribe(TopicKeyboardShown, func(Event) {})

	a.Release()
	a.Release()

	assert.Equal(t, 1, bus.Count(TopicKeyboardShown))
	b.Release()
	assert.Equal(t, 0, bus.Count(TopicKeyboardShown))

	var nilSub *Subscription
	assert.NotPanics(t, func() { nilSub.Release() })
}

func TestHandlerMayReleaseDuringPublish(t *testing.T) {
	bus := NewBus()
	var sub *Subscription
	calls := 0
	sub = bus.Subscribe(TopicFocusLost, func(Event) {
		calls++
		sub.Release()
	})

	bus.Publish(TopicFocusLost, nil)
	bus.Publish(TopicFocusLost, nil)

	assert.Equal(t, 1, calls)
}

func TestClear(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(TopicKeyboardShown, func(Event) {})
	bus.Subscribe(TopicFocusLost, func(Event) {})

	bus.Clear()

	assert.Equal(t, 0, bus.Count(TopicKeyboardShown))
	assert.Equal(t, 0, bus.Count(TopicFocusLost))
}

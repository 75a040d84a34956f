package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loreleaf/loreleaf/models"
)

func TestEvents_FanOutToAllSubscribers(t *testing.T) {
	events := NewEvents(nil)
	first, stopFirst := events.Subscribe(4)
	second, stopSecond := events.Subscribe(4)
	defer stopFirst()
	defer stopSecond()

	events.Publish(models.EngineEvent{Type: models.EventSyncStarted})

	for _, ch := range []<-chan models.EngineEvent{first, second} {
		select {
		case event := <-ch:
			assert.Equal(t, models.EventSyncStarted, event.Type)
			assert.False(t, event.At.IsZero(), "publish stamps the event time")
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestEvents_KeepsExplicitTimestamps(t *testing.T) {
	events := NewEvents(nil)
	ch, stop := events.Subscribe(1)
	defer stop()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	events.Publish(models.EngineEvent{Type: models.EventSyncFinished, At: at})

	event := <-ch
	assert.Equal(t, at, event.At)
}

func TestEvents_FullSubscriberDropsInsteadOfBlocking(t *testing.T) {
	events := NewEvents(nil)
	ch, stop := events.Subscribe(1)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		events.Publish(models.EngineEvent{Type: models.EventSyncStarted, Reason: "one"})
		events.Publish(models.EngineEvent{Type: models.EventSyncStarted, Reason: "two"})
		events.Publish(models.EngineEvent{Type: models.EventSyncStarted, Reason: "three"})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	event := <-ch
	assert.Equal(t, "one", event.Reason, "oldest buffered event survives")
	assert.Empty(t, ch, "overflow was dropped, not queued")
}

func TestEvents_UnsubscribeClosesTheChannel(t *testing.T) {
	events := NewEvents(nil)
	leaving, stopLeaving := events.Subscribe(4)
	staying, stopStaying := events.Subscribe(4)
	defer stopStaying()

	stopLeaving()
	stopLeaving() // second call is harmless

	events.Publish(models.EngineEvent{Type: models.EventSyncStarted})

	_, open := <-leaving
	assert.False(t, open)

	select {
	case event := <-staying:
		assert.Equal(t, models.EventSyncStarted, event.Type)
	case <-time.After(time.Second):
		t.Fatal("remaining subscriber lost delivery")
	}
}

func TestEvents_CloseEndsEverySubscription(t *testing.T) {
	events := NewEvents(nil)
	first, _ := events.Subscribe(4)
	second, stopSecond := events.Subscribe(4)

	events.Close()

	_, open := <-first
	assert.False(t, open)
	_, open = <-second
	assert.False(t, open)

	// All of these are no-ops on a closed broadcaster.
	events.Publish(models.EngineEvent{Type: models.EventSyncStarted})
	stopSecond()
	events.Close()

	late, stopLate := events.Subscribe(4)
	_, open = <-late
	require.False(t, open, "subscriptions after close are born closed")
	stopLate()
}

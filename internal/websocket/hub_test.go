package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"subscription-cancel-be/internal/pkg/logger"
	"subscription-cancel-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func connect(t *testing.T, hub *Hub, email string) *Client {
	t.Helper()
	c := &Client{Hub: hub, Email: normalize(email), Send: make(chan []byte, 1)}
	hub.register <- c
	require.Eventually(t, func() bool { return hub.Count(email) > 0 }, time.Second, 5*time.Millisecond)
	return c
}

func TestPublishReachesOnlyThatUser(t *testing.T) {
	hub := runHub(t)
	mine := connect(t, hub, "User3@example.com")
	other := connect(t, hub, "user1@example.com")

	ev := events.New(events.TypeSubscriptionPendingCancel, map[string]interface{}{"email": "user3@example.com"})
	require.NoError(t, hub.Publish(context.Background(), ev))

	select {
	case raw := <-mine.Send:
		var msg struct {
			Type string           `json:"type"`
			Data events.BaseEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "event", msg.Type)
		assert.Equal(t, events.TypeSubscriptionPendingCancel, msg.Data.Type)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
	assert.Empty(t, other.Send)
}

func TestPublishWithoutEmailIsIgnored(t *testing.T) {
	hub := runHub(t)
	c := connect(t, hub, "user1@example.com")

	require.NoError(t, hub.Publish(context.Background(), events.New(events.TypeWizardFinalizeFailed, nil)))
	assert.Empty(t, c.Send)
}

func TestFullBufferDropsClient(t *testing.T) {
	hub := runHub(t)
	c := connect(t, hub, "user2@example.com")
	ev := events.New(events.TypeDownsellAccepted, map[string]interface{}{"email": "user2@example.com"})

	require.NoError(t, hub.Publish(context.Background(), ev))
	require.NoError(t, hub.Publish(context.Background(), ev))

	assert.Eventually(t, func() bool { return hub.Count("user2@example.com") == 0 }, time.Second, 5*time.Millisecond)

	// The buffered message is still readable, then the channel is closed.
	_, ok := <-c.Send
	assert.True(t, ok)
	_, ok = <-c.Send
	assert.False(t, ok)
}

func TestDeliverWhileRemovingDoesNotPanic(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	const email = "user1@example.com"

	clients := make([]*Client, 2000)
	for i := range clients {
		clients[i] = &Client{Hub: hub, Email: email, Send: make(chan []byte, 1)}
	}
	hub.clients[email] = append([]*Client(nil), clients...)

	// Drain drop requests from full buffers; nothing runs the hub loop here.
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case c := <-hub.unregister:
				hub.remove(c)
			case <-done:
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			hub.deliver(email, []byte(`{}`))
		}
	}()
	go func() {
		defer wg.Done()
		for i := len(clients) - 1; i >= 0; i-- {
			hub.remove(clients[i])
		}
	}()
	wg.Wait()

	assert.Equal(t, 0, hub.Count(email))
}

package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docgen/pkg"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func connect(hub *Hub) *Client {
	c := &Client{hub: hub, send: make(chan []byte, sendBufSize)}
	hub.register <- c
	return c
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestParseBatchIDFromSubject(t *testing.T) {
	id := uuid.New()
	got, err := parseBatchIDFromSubject("docgen.batch." + id.String() + ".progress")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	for _, subject := range []string{
		"docgen.batch.progress",
		"other.batch." + id.String() + ".progress",
		"docgen.batch.not-a-uuid.progress",
	} {
		_, err := parseBatchIDFromSubject(subject)
		assert.Error(t, err, subject)
	}
}

func TestBridge_RoutesProgressToSubscribers(t *testing.T) {
	hub := runHub(t)
	followed, other := uuid.New(), uuid.New()

	subscriber := connect(hub)
	bystander := connect(hub)
	subscriber.handle([]byte(`{"action":"subscribe","batchId":"` + followed.String() + `"}`))
	bystander.handle([]byte(`{"action":"subscribe","batchId":"` + other.String() + `"}`))

	bridge := &NATSBridge{hub: hub, logger: hub.logger}
	bridge.handle(&nats.Msg{
		Subject: "docgen.batch." + followed.String() + ".progress",
		Data:    []byte(`{"index":1,"status":"completed"}`),
	})

	var envelope outgoingMsg
	require.NoError(t, json.Unmarshal(receive(t, subscriber), &envelope))
	assert.Equal(t, "batch.progress", envelope.Type)
	assert.Equal(t, followed.String(), envelope.BatchID)
	assert.JSONEq(t, `{"index":1,"status":"completed"}`, string(envelope.Payload))

	select {
	case msg := <-bystander.send:
		t.Fatalf("unexpected message %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := runHub(t)
	c := connect(hub)
	hub.unregister <- c

	select {
	case _, ok := <-c.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestHub_StoppedHubDropsSends(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	c := connect(hub)
	cancel()
	<-stopped

	_, ok := <-c.send
	assert.False(t, ok, "send closed on shutdown")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 300 {
			assert.False(t, hub.Publish(uuid.New(), []byte("{}")))
		}
		assert.False(t, enqueue(hub.done, hub.unregister, c))
		c.follow(uuid.New())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sends to a stopped hub blocked")
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws?token=query", nil)
	token, err := bearerToken(r)
	require.NoError(t, err)
	assert.Equal(t, "query", token)

	r.Header.Set("Authorization", "Bearer header")
	token, err = bearerToken(r)
	require.NoError(t, err)
	assert.Equal(t, "header", token)

	r.Header.Set("Authorization", "Basic abc")
	_, err = bearerToken(r)
	assert.ErrorIs(t, err, errMissingToken)

	_, err = bearerToken(httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.ErrorIs(t, err, errMissingToken)
}

func TestServeWS_RejectsBeforeUpgrade(t *testing.T) {
	hub := runHub(t)
	token, err := pkg.GenerateToken(3, "ops@example.com", "user", "secret", 5)
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{name: "no token", target: "/ws", want: http.StatusUnauthorized},
		{name: "bad token", target: "/ws?token=nope", want: http.StatusUnauthorized},
		{name: "bad batch id", target: "/ws?token=" + token + "&batchId=42", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ServeWS(hub, "secret", rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

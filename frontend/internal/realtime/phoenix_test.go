package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/itchan-dev/foro/shared/config"
	"github.com/itchan-dev/foro/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRealtime is a minimal Phoenix channel server: it accepts the join,
// forwards frames the test pushes, and records what the client sends.
type fakeRealtime struct {
	t        *testing.T
	push     chan []byte
	received chan message
	reject   bool
}

func newFakeRealtime(t *testing.T) (*fakeRealtime, *httptest.Server) {
	f := &fakeRealtime{t: t, push: make(chan []byte, 8), received: make(chan message, 1024)}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeRealtime) serve(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, "secret", r.URL.Query().Get("apikey"))
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Event == phxJoin {
				status := "ok"
				if f.reject {
					status = "error"
				}
				payload, _ := json.Marshal(replyPayload{Status: status, Response: json.RawMessage(`{}`)})
				_ = conn.WriteJSON(message{Topic: msg.Topic, Event: phxReply, Payload: payload, Ref: msg.Ref})
			}
			select {
			case f.received <- msg:
			default:
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case frame := <-f.push:
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}
}

func (f *fakeRealtime) next(t *testing.T, event string) message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-f.received:
			if msg.Event == event {
				return msg
			}
		case <-timeout:
			t.Fatalf("no %s frame received", event)
		}
	}
}

func broadcastFrame(event string, inner string) []byte {
	payload, _ := json.Marshal(broadcastPayload{Type: "broadcast", Event: event, Payload: json.RawMessage(inner)})
	frame, _ := json.Marshal(message{Topic: "realtime:respuestas-realtime", Event: phxBroadcast, Payload: payload})
	return frame
}

func startClient(t *testing.T, srv *httptest.Server, hub *Hub) (*Client, context.CancelFunc, <-chan error) {
	t.Helper()
	cfg := config.Defaults().Realtime
	cfg.URL = "ws" + strings.TrimPrefix(srv.URL, "http")
	cfg.HeartbeatInterval = 20 * time.Millisecond
	client := NewClient(cfg, "secret", hub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()
	return client, cancel, done
}

func TestClientReceivesBroadcasts(t *testing.T) {
	fake, srv := newFakeRealtime(t)
	hub := NewHub(4)
	sub := hub.Subscribe()
	defer sub.Close()

	_, cancel, done := startClient(t, srv, hub)
	join := fake.next(t, phxJoin)
	assert.Equal(t, "realtime:respuestas-realtime", join.Topic)

	fake.push <- []byte(`not json`)
	fake.push <- broadcastFrame("otro-evento", `{"tipo":"nueva-respuesta"}`)
	fake.push <- broadcastFrame("evento-respuesta", `{"respuesta":{"idrespuesta":"R1"}}`)
	fake.push <- broadcastFrame("evento-respuesta", `{"tipo":"nueva-replica","respuesta":{"idrespuesta":"R2","idforo":"F1","idrespuesta_padre":"R1"}}`)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, domain.EventNewNested, ev.Type)
		assert.Equal(t, domain.ReplyId("R1"), ev.Reply.ParentReplyId)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	fake.next(t, phxHeartbeat)

	cancel()
	assert.NoError(t, <-done)
}

func TestClientBroadcast(t *testing.T) {
	fake, srv := newFakeRealtime(t)
	hub := NewHub(4)
	sub := hub.Subscribe()
	defer sub.Close()

	client, cancel, done := startClient(t, srv, hub)
	defer func() {
		cancel()
		<-done
	}()
	fake.next(t, phxJoin)

	ev := domain.ReplyEvent{Type: domain.EventReplyDeleted, Reply: &domain.ReplyRecord{Id: "R1", ForumId: "F1"}}
	require.Eventually(t, func() bool {
		return client.Broadcast(context.Background(), ev) == nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, domain.EventReplyDeleted, (<-sub.Events()).Type, "published locally")

	msg := fake.next(t, phxBroadcast)
	var bp broadcastPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &bp))
	assert.Equal(t, "evento-respuesta", bp.Event)
	got, err := ParseEvent(bp.Payload)
	require.NoError(t, err)
	assert.Equal(t, domain.ReplyId("R1"), got.Reply.Id)
}

func TestClientNotConnected(t *testing.T) {
	hub := NewHub(1)
	client := NewClient(config.Defaults().Realtime, "", hub)
	err := client.Broadcast(context.Background(), newReplyEvent(domain.EventNewReply, "F1"))
	assert.ErrorIs(t, err, errNotConnected)
}

func TestClientRetriesRejectedJoin(t *testing.T) {
	fake, srv := newFakeRealtime(t)
	fake.reject = true

	_, cancel, done := startClient(t, srv, NewHub(1))
	fake.next(t, phxJoin)
	fake.next(t, phxJoin)
	cancel()
	assert.NoError(t, <-done)
}

func TestParseEvent(t *testing.T) {
	_, err := ParseEvent([]byte(`{"respuesta":{"idrespuesta":"R1"}}`))
	assert.Error(t, err)
	_, err = ParseEvent([]byte(`{"tipo":"respuesta-eliminada","respuesta":{"mensaje":"x"}}`))
	assert.Error(t, err)
	_, err = ParseEvent([]byte(`[]`))
	assert.Error(t, err)

	ev, err := ParseEvent([]byte(`{"tipo":"respuesta-eliminada","respuesta":{"idrespuesta":5}}`))
	require.NoError(t, err)
	assert.Equal(t, domain.KindDeleted, ev.Kind())
}

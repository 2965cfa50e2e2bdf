package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/itchan-dev/foro/shared/config"
	"github.com/itchan-dev/foro/shared/domain"
	"github.com/itchan-dev/foro/shared/logger"
	"golang.org/x/sync/errgroup"
)

// Phoenix channel events used by the realtime server.
const (
	phxJoin      = "phx_join"
	phxReply     = "phx_reply"
	phxError     = "phx_error"
	phxClose     = "phx_close"
	phxHeartbeat = "heartbeat"
	phxBroadcast = "broadcast"
)

var errNotConnected = errors.New("realtime channel not connected")

// message is a Phoenix v1 (JSON object) frame.
type message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
	JoinRef *string         `json:"join_ref,omitempty"`
}

type broadcastPayload struct {
	Type    string          `json:"type"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// Client keeps one subscription to the broadcast channel open, publishing
// received events to Hub.
type Client struct {
	URL       string
	APIKey    string
	Channel   string
	Event     string
	Heartbeat time.Duration
	Hub       *Hub
	Dialer    *websocket.Dialer

	log *slog.Logger
	ref atomic.Uint64

	mu      sync.Mutex // guards conn and serialises writes
	conn    *websocket.Conn
	joinRef string
}

func NewClient(cfg config.Realtime, apiKey string, hub *Hub) *Client {
	return &Client{
		URL:       cfg.URL,
		APIKey:    apiKey,
		Channel:   cfg.Channel,
		Event:     cfg.Event,
		Heartbeat: cfg.HeartbeatInterval,
		Hub:       hub,
		Dialer:    websocket.DefaultDialer,
		log:       logger.Component("realtime"),
	}
}

func (c *Client) topic() string {
	return "realtime:" + c.Channel
}

func (c *Client) nextRef() string {
	return strconv.FormatUint(c.ref.Add(1), 10)
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("invalid realtime url: %w", err)
	}
	q := u.Query()
	if c.APIKey != "" {
		q.Set("apikey", c.APIKey)
	}
	q.Set("vsn", "1.0.0")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run connects and stays subscribed until ctx ends, reconnecting with
// exponential backoff. It returns nil once ctx is done.
func (c *Client) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0
	b.MaxInterval = 30 * time.Second

	for {
		joined, err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if joined {
			b.Reset()
		}
		wait := b.NextBackOff()
		c.log.Warn("realtime connection lost, reconnecting", "error", err, "wait", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// session runs one connection: dial, join, then heartbeat and read until
// either fails or ctx ends. joined reports whether the join was accepted.
func (c *Client) session(ctx context.Context) (joined bool, err error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return false, err
	}
	header := http.Header{}
	if c.APIKey != "" {
		header.Set("apikey", c.APIKey)
	}
	conn, _, err := c.Dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}()

	if err := c.join(conn); err != nil {
		return false, err
	}
	c.log.Info("joined realtime channel", "topic", c.topic())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		// unblocks ReadMessage
		conn.Close()
		return nil
	})
	g.Go(func() error {
		return c.heartbeat(gctx)
	})
	g.Go(func() error {
		return c.readLoop(conn)
	})
	return true, g.Wait()
}

// join sends phx_join and waits for its reply before publishing conn.
func (c *Client) join(conn *websocket.Conn) error {
	joinRef := c.nextRef()
	payload, _ := json.Marshal(map[string]any{
		"config": map[string]any{
			"broadcast": map[string]bool{"self": false, "ack": false},
			"presence":  map[string]string{"key": ""},
		},
		"access_token": c.APIKey,
	})
	if err := conn.WriteJSON(message{Topic: c.topic(), Event: phxJoin, Payload: payload, Ref: &joinRef, JoinRef: &joinRef}); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	defer conn.SetReadDeadline(time.Time{})
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("join: %w", err)
		}
		if msg.Event != phxReply || msg.Ref == nil || *msg.Ref != joinRef {
			continue
		}
		var reply replyPayload
		if err := json.Unmarshal(msg.Payload, &reply); err != nil {
			return fmt.Errorf("join reply: %w", err)
		}
		if reply.Status != "ok" {
			return fmt.Errorf("join rejected: %s %s", reply.Status, string(reply.Response))
		}
		break
	}

	c.mu.Lock()
	c.conn = conn
	c.joinRef = joinRef
	c.mu.Unlock()
	return nil
}

func (c *Client) heartbeat(ctx context.Context) error {
	interval := c.Heartbeat
	if interval <= 0 {
		interval = 25 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			ref := c.nextRef()
			if err := c.write(message{Topic: "phoenix", Event: phxHeartbeat, Payload: json.RawMessage(`{}`), Ref: &ref}); err != nil {
				return fmt.Errorf("heartbeat: %w", err)
			}
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("skipping malformed realtime frame", "error", err)
			continue
		}
		if msg.Topic != c.topic() {
			continue
		}
		switch msg.Event {
		case phxBroadcast:
			c.handleBroadcast(msg.Payload)
		case phxError, phxClose:
			return fmt.Errorf("channel %s: %s", msg.Event, string(msg.Payload))
		}
	}
}

func (c *Client) handleBroadcast(raw json.RawMessage) {
	var bp broadcastPayload
	if err := json.Unmarshal(raw, &bp); err != nil {
		c.log.Warn("skipping malformed broadcast", "error", err)
		return
	}
	if bp.Event != c.Event {
		return
	}
	ev, err := ParseEvent(bp.Payload)
	if err != nil {
		c.log.Warn("skipping malformed reply event", "error", err)
		return
	}
	c.log.Debug("reply event received", "tipo", ev.Type)
	c.Hub.Publish(ev)
}

// ParseEvent decodes a reply event payload. The tipo is required; the reply
// record, when present, must carry an id.
func ParseEvent(data []byte) (domain.ReplyEvent, error) {
	var ev domain.ReplyEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("decoding reply event: %w", err)
	}
	if ev.Type == "" {
		return ev, errors.New("reply event has no tipo")
	}
	if ev.Reply != nil && ev.Reply.Id.IsZero() {
		return ev, errors.New("reply event record has no id")
	}
	return ev, nil
}

// Broadcast publishes ev to local pages and sends it to the channel for
// the other instances. The channel does not echo it back.
func (c *Client) Broadcast(ctx context.Context, ev domain.ReplyEvent) error {
	c.Hub.Publish(ev)

	inner, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding reply event: %w", err)
	}
	payload, _ := json.Marshal(broadcastPayload{Type: phxBroadcast, Event: c.Event, Payload: inner})
	ref := c.nextRef()
	msg := message{Topic: c.topic(), Event: phxBroadcast, Payload: payload, Ref: &ref}

	c.mu.Lock()
	joinRef := c.joinRef
	c.mu.Unlock()
	msg.JoinRef = &joinRef

	if deadline, ok := ctx.Deadline(); ok {
		return c.writeWithDeadline(msg, deadline)
	}
	return c.writeWithDeadline(msg, time.Now().Add(5*time.Second))
}

func (c *Client) write(msg message) error {
	return c.writeWithDeadline(msg, time.Now().Add(5*time.Second))
}

func (c *Client) writeWithDeadline(msg message, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errNotConnected
	}
	_ = c.conn.SetWriteDeadline(deadline)
	return c.conn.WriteJSON(msg)
}

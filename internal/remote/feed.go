package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Subscribe opens the change feed. The channel is closed when ctx is done.
// Dropped connections are redialled with exponential backoff; events missed
// while disconnected are not replayed.
func (b *HTTPBackend) Subscribe(ctx context.Context) (<-chan Change, error) {
	conn, err := b.dial(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan Change, 64)
	go b.pump(ctx, conn, out)
	return out, nil
}

func (b *HTTPBackend) feedURL() string {
	u := *b.baseURL
	u.Scheme = "ws"
	if b.baseURL.Scheme == "https" {
		u.Scheme = "wss"
	}
	u.Path = b.baseURL.Path + "/api/realtime"
	return u.String()
}

func (b *HTTPBackend) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if token := b.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := b.dialer.DialContext(ctx, b.feedURL(), header)
	if err != nil {
		if resp != nil {
			return nil, &StatusError{Status: resp.StatusCode, Message: "realtime subscription rejected"}
		}
		return nil, fmt.Errorf("dialing realtime feed: %w", err)
	}
	return conn, nil
}

func (b *HTTPBackend) pump(ctx context.Context, conn *websocket.Conn, out chan<- Change) {
	defer close(out)
	backoff := b.reconnectMin
	for {
		err := b.read(ctx, conn, out)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		b.logger.Warn("realtime feed dropped", "error", err)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			conn, err = b.dial(ctx)
			if err == nil {
				backoff = b.reconnectMin
				b.logger.Info("realtime feed reconnected")
				break
			}
			b.logger.Debug("realtime redial failed", "error", err, "backoff", backoff)
			backoff = min(backoff*2, b.reconnectMax)
		}
	}
}

func (b *HTTPBackend) read(ctx context.Context, conn *websocket.Conn, out chan<- Change) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var ch Change
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&ch); err != nil {
			b.logger.Debug("skipping malformed change", "error", err)
			continue
		}
		select {
		case out <- ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

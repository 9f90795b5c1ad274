// Package client implements the host and participant sides of the relay
// protocol over a websocket channel.
package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"scrum-poker-relay/domain"
	"scrum-poker-relay/protocol"
)

const (
	DefaultKeepAlive      = 30 * time.Second
	DefaultReconnectDelay = 3 * time.Second

	writeWait = 10 * time.Second
)

type Options struct {
	// KeepAlive is the interval between ping frames.
	KeepAlive time.Duration
	// ReconnectDelay is how long a dropped participant waits before its
	// single reconnect attempt.
	ReconnectDelay time.Duration
	Dialer         *websocket.Dialer
}

func (o Options) withDefaults() Options {
	if o.KeepAlive <= 0 {
		o.KeepAlive = DefaultKeepAlive
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = DefaultReconnectDelay
	}
	if o.Dialer == nil {
		o.Dialer = websocket.DefaultDialer
	}
	return o
}

// link is one live channel. gorilla allows a single concurrent writer, so
// every frame goes through writeMu.
type link struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

func dial(ctx context.Context, url string, opts Options) (*link, error) {
	ws, _, err := opts.Dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &link{ws: ws, done: make(chan struct{})}, nil
}

func (l *link) send(frame domain.Inbound) error {
	data, err := protocol.Encode(frame)
	if err != nil {
		return err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	select {
	case <-l.done:
		return domain.ErrChannelUnavailable
	default:
	}
	l.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return l.ws.WriteMessage(websocket.TextMessage, data)
}

func (l *link) close() {
	l.once.Do(func() {
		close(l.done)
		l.ws.Close()
	})
}

func (l *link) closed() <-chan struct{} {
	return l.done
}

// keepAlive pings the relay until the link closes or a write fails.
func (l *link) keepAlive(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			if err := l.send(domain.Ping{}); err != nil {
				slog.Debug("keepalive failed", "error", err)
				return
			}
		}
	}
}

// read delivers every frame to handle and closes the link once the
// channel fails.
func (l *link) read(handle func(frameType domain.FrameType, data []byte)) {
	defer l.close()

	for {
		_, data, err := l.ws.ReadMessage()
		if err != nil {
			select {
			case <-l.done:
			default:
				slog.Debug("relay channel closed", "error", err)
			}
			return
		}

		var env struct {
			Type domain.FrameType `json:"type"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			slog.Warn("malformed relay frame", "error", err)
			continue
		}
		handle(env.Type, data)
	}
}

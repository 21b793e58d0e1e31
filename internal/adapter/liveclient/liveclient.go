// Package liveclient subscribes to the server's live snapshot feed.
package liveclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/niksmo/prime-house/internal/adapter/httphandler"
	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/port"
)

const (
	writeWait = 10 * time.Second

	// Server pings more often than this.
	pongWait = 60 * time.Second

	defaultReconnectDelay = 2 * time.Second
)

var _ port.PropertiesSubscriber = (*Subscriber)(nil)

type Subscriber struct {
	url            string
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
}

type Opt func(*Subscriber)

func ReconnectDelayOpt(d time.Duration) Opt {
	return func(s *Subscriber) {
		s.reconnectDelay = d
	}
}

func NewSubscriber(url string, opts ...Opt) Subscriber {
	s := Subscriber{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		reconnectDelay: defaultReconnectDelay,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Subscribe keeps a connection to the feed until ctx is done, every
// dropped connection is reported to onError and dialed again.
func (s Subscriber) Subscribe(
	ctx context.Context,
	onChange func([]domain.Property),
	onError func(error),
) {
	const op = "Subscriber.Subscribe"
	log := slog.With("op", op, "url", s.url)

	for ctx.Err() == nil {
		err := s.session(ctx, onChange)
		if ctx.Err() != nil {
			return
		}
		log.Warn("live feed is interrupted", "err", err)
		onError(fmt.Errorf("%s: %w", op, err))
		s.slowDown(ctx)
	}
}

func (s Subscriber) session(
	ctx context.Context, onChange func([]domain.Property),
) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		_ = conn.Close()
	})
	defer stop()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(
			websocket.PongMessage, []byte(data), time.Now().Add(writeWait),
		)
	})

	for {
		var ev httphandler.LiveEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return err
		}
		if ev.Event != httphandler.EventSnapshot {
			continue
		}
		onChange(httphandler.PropertiesToDomain(ev.Data))
	}
}

func (s Subscriber) slowDown(ctx context.Context) {
	t := time.NewTimer(s.reconnectDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Package feed streams fulfillment events from an indexer over WebSocket
// and hands them to the audit service. It reconnects with backoff on
// disconnect.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
)

// FulfillmentHandler is called for each decoded fulfillment event.
type FulfillmentHandler func(ctx context.Context, ev domain.FulfillmentEvent)

// FulfillmentFeed subscribes to the indexer's fulfillment stream. Messages
// are JSON-encoded domain.FulfillmentEvent values; malformed messages are
// logged and skipped so one bad event cannot stall the stream.
type FulfillmentFeed struct {
	wsURL     string
	apiKey    string
	handler   FulfillmentHandler
	logger    *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// NewFulfillmentFeed creates a feed for the given stream URL. apiKey may be
// empty for unauthenticated indexers.
func NewFulfillmentFeed(wsURL, apiKey string, handler FulfillmentHandler, logger *slog.Logger) *FulfillmentFeed {
	return &FulfillmentFeed{
		wsURL:   wsURL,
		apiKey:  apiKey,
		handler: handler,
		logger:  logger.With(slog.String("component", "fulfillment_feed")),
		done:    make(chan struct{}),
	}
}

// Run connects and consumes events until ctx is cancelled or Close is
// called. Reconnects with a fixed backoff on disconnect.
func (f *FulfillmentFeed) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("fulfillment stream disconnected, reconnecting",
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(2 * time.Second):
		}
	}
}

func (f *FulfillmentFeed) runConnection(ctx context.Context) error {
	header := http.Header{}
	if f.apiKey != "" {
		header.Set("Authorization", "Bearer "+f.apiKey)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, f.wsURL, header)
	cancel()
	if err != nil {
		return fmt.Errorf("feed: dial %s: %w", f.wsURL, err)
	}
	defer conn.Close()

	f.logger.Info("fulfillment stream connected", slog.String("url", f.wsURL))

	// Unblock ReadMessage when the context ends.
	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			select {
			case <-f.done:
				return nil
			default:
			}
			return fmt.Errorf("feed: read message: %w", err)
		}

		var ev domain.FulfillmentEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			f.logger.Warn("skipping malformed fulfillment event",
				slog.String("error", err.Error()),
			)
			continue
		}
		f.handler(ctx, ev)
	}
}

// Close stops the feed.
func (f *FulfillmentFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

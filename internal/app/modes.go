package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
	"github.com/naveen-imtb/seaport-audit/internal/feed"
)

// VerifyMode runs one audit pass for the fulfillment event described by
// the configured input file, then exits.
func (a *App) VerifyMode(ctx context.Context, deps *Dependencies) error {
	path := a.cfg.Verify.InputPath
	a.logger.InfoContext(ctx, "starting verify mode", slog.String("input", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("app: read fulfillment input %s: %w", path, err)
	}

	var ev domain.FulfillmentEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("app: decode fulfillment input %s: %w", path, err)
	}

	return deps.Service.HandleFulfillment(ctx, ev)
}

// WatchMode subscribes to the indexer's fulfillment stream and audits
// every event until the context is cancelled.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode",
		slog.String("indexer", a.cfg.Indexer.WsURL),
	)

	g, ctx := errgroup.WithContext(ctx)

	stream := feed.NewFulfillmentFeed(
		a.cfg.Indexer.WsURL,
		a.cfg.Indexer.ApiKey,
		func(ctx context.Context, ev domain.FulfillmentEvent) {
			if err := deps.Service.HandleFulfillment(ctx, ev); err != nil {
				a.logger.ErrorContext(ctx, "fulfillment audit failed",
					slog.String("tx_hash", ev.TxHash.Hex()),
					slog.String("error", err.Error()),
				)
			}
		},
		a.logger,
	)
	a.closers = append(a.closers, stream.Close)

	g.Go(func() error {
		return stream.Run(ctx)
	})

	return g.Wait()
}

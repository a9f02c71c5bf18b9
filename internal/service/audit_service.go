// Package service orchestrates the settlement core with the surrounding
// infrastructure: it runs simulate-and-verify passes, persists their
// outcomes, archives reports, and raises alerts on mismatches.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
	"github.com/naveen-imtb/seaport-audit/internal/notify"
	"github.com/naveen-imtb/seaport-audit/internal/settlement"
)

// AuditService is the public surface of the engine. Store, archiver, and
// notifier are optional; without them SimulateAndVerify still works as a
// pure library call.
type AuditService struct {
	simulator *settlement.Simulator
	verifier  *settlement.Verifier
	store     domain.AuditStore
	archiver  domain.ReportArchiver
	notifier  *notify.Notifier
	observer  settlement.WriteObserver
	baseline  domain.BalanceOracle
	logger    *slog.Logger
}

// NewAuditService creates an AuditService. store, archiver, and notifier
// may be nil.
func NewAuditService(
	simulator *settlement.Simulator,
	verifier *settlement.Verifier,
	store domain.AuditStore,
	archiver domain.ReportArchiver,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *AuditService {
	return &AuditService{
		simulator: simulator,
		verifier:  verifier,
		store:     store,
		archiver:  archiver,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "audit_service")),
	}
}

// WithWriteObserver attaches a sink invoked with before/after values for
// every ledger write, for callers that want the intermediate state
// surfaced. Returns the service for chaining.
func (s *AuditService) WithWriteObserver(obs settlement.WriteObserver) *AuditService {
	s.observer = obs
	return s
}

// WithBaselineOracle makes every simulation start from live balances read
// through the given oracle instead of a zero baseline, so expected ledgers
// hold absolute post-fulfillment balances. Short staleness is acceptable
// here, which is what makes a cached oracle a valid choice; the verifier
// itself must keep reading uncached. Returns the service for chaining.
func (s *AuditService) WithBaselineOracle(oracle domain.BalanceOracle) *AuditService {
	s.baseline = oracle
	return s
}

// SimulateAndVerify computes the expected post-fulfillment ledger and
// reconciles it against the oracle, returning every detected mismatch. An
// empty slice means the settlement checked out.
func (s *AuditService) SimulateAndVerify(
	ctx context.Context,
	order domain.Order,
	fulfiller common.Address,
	fill domain.FillInput,
	opts settlement.Options,
) ([]domain.Mismatch, error) {
	if opts.Observer == nil {
		opts.Observer = s.observer
	}
	if opts.Baseline == nil {
		opts.Baseline = s.baseline
	}
	ledger, err := s.simulator.Simulate(ctx, order, fulfiller, fill, opts)
	if err != nil {
		return nil, fmt.Errorf("service: simulate: %w", err)
	}
	mismatches, err := s.verifier.Verify(ctx, ledger)
	if err != nil {
		return nil, fmt.Errorf("service: verify: %w", err)
	}
	return mismatches, nil
}

// HandleFulfillment runs a full audit pass for one observed fulfillment:
// simulate, verify, persist the run, archive the report, and alert when
// discrepancies were found.
func (s *AuditService) HandleFulfillment(ctx context.Context, ev domain.FulfillmentEvent) error {
	runID := uuid.NewString()
	logger := s.logger.With(
		slog.String("run_id", runID),
		slog.String("tx_hash", ev.TxHash.Hex()),
	)

	opts := settlement.Options{
		Tips:     ev.Tips,
		Window:   ev.Window,
		Receipt:  ev.Receipt,
		Baseline: s.baseline,
		Observer: s.observer,
	}

	ledger, err := s.simulator.Simulate(ctx, ev.Order, ev.Fulfiller, ev.Fill, opts)
	if err != nil {
		s.notifyError(ctx, ev, err)
		return fmt.Errorf("service: simulate %s: %w", ev.TxHash.Hex(), err)
	}
	mismatches, err := s.verifier.Verify(ctx, ledger)
	if err != nil {
		s.notifyError(ctx, ev, err)
		return fmt.Errorf("service: verify %s: %w", ev.TxHash.Hex(), err)
	}

	run := domain.VerificationRun{
		ID:          runID,
		TxHash:      ev.TxHash,
		Offerer:     ev.Order.Offerer,
		Fulfiller:   ev.Fulfiller,
		CheckedKeys: ledger.Len(),
		Mismatches:  mismatches,
		CreatedAt:   time.Now().UTC(),
	}

	if s.store != nil {
		if err := s.store.InsertRun(ctx, run); err != nil {
			logger.Error("failed to persist verification run",
				slog.String("error", err.Error()),
			)
		}
	}
	if s.archiver != nil {
		key, err := s.archiver.Archive(ctx, run)
		if err != nil {
			logger.Error("failed to archive report",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("report archived", slog.String("key", key))
		}
	}

	if run.Clean() {
		logger.Info("settlement verified clean",
			slog.Int("checked_keys", run.CheckedKeys),
		)
		if s.notifier != nil {
			_ = s.notifier.Notify(ctx, "clean",
				"Settlement verified",
				fmt.Sprintf("tx %s: %d balance keys checked, no discrepancies", ev.TxHash.Hex(), run.CheckedKeys),
			)
		}
		return nil
	}

	logger.Warn("settlement mismatches detected",
		slog.Int("mismatches", len(mismatches)),
	)
	if s.notifier != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "tx %s: %d of %d balance keys off\n", ev.TxHash.Hex(), len(mismatches), run.CheckedKeys)
		for _, m := range mismatches {
			fmt.Fprintf(&b, "- %s\n", m)
		}
		_ = s.notifier.Notify(ctx, "mismatch", "Settlement mismatch", b.String())
	}
	return nil
}

func (s *AuditService) notifyError(ctx context.Context, ev domain.FulfillmentEvent, err error) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Notify(ctx, "error",
		"Verification failed",
		fmt.Sprintf("tx %s: %v", ev.TxHash.Hex(), err),
	)
}

package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
)

// Options configures a single simulation. The zero value means no tips, no
// time window, no fee deduction, and a zero-balance baseline.
type Options struct {
	Tips    []domain.TipInput
	Window  *domain.TimeWindow
	Receipt domain.Receipt
	// Baseline, when set, seeds the ledger with each owner's balance read
	// from this oracle before any delta is applied, so the resulting ledger
	// holds expected absolute post-fulfillment balances. When nil the
	// ledger starts at zero and holds pure deltas.
	Baseline domain.BalanceOracle
	Observer WriteObserver
}

// Simulator computes the expected post-fulfillment ledger for one
// settlement. It pulls rescaled amounts from the amount resolver,
// prorates tips, interpolates time-based prices, and writes deltas for
// the offerer, the fulfiller, and every recipient.
type Simulator struct {
	resolver domain.AmountResolver
	interp   domain.TimeInterpolator
	logger   *slog.Logger
}

// NewSimulator creates a Simulator. interp may be nil, in which case the
// built-in linear interpolator is used.
func NewSimulator(resolver domain.AmountResolver, interp domain.TimeInterpolator, logger *slog.Logger) *Simulator {
	if interp == nil {
		interp = LinearInterpolator{}
	}
	return &Simulator{
		resolver: resolver,
		interp:   interp,
		logger:   logger.With(slog.String("component", "simulator")),
	}
}

// Simulate returns the expected ledger after fulfilling order with the
// given fill. It has no side effects: the input order is never mutated and
// all state lives in the returned ledger. Any precondition violation
// aborts the whole call; no partial ledger is returned. ctx bounds the
// baseline oracle reads and is unused without opts.Baseline.
func (s *Simulator) Simulate(ctx context.Context, order domain.Order, fulfiller common.Address, fill domain.FillInput, opts Options) (*Ledger, error) {
	// Tips become consideration-shaped items prorated against the order's
	// maximum fillable size, regardless of the size basis used for the
	// order's own items.
	tipItems := make([]domain.Item, len(opts.Tips))
	for i, tip := range opts.Tips {
		tipItems[i] = s.resolver.TipToConsideration(tip)
	}
	var adjustedTips []domain.Item
	if len(tipItems) > 0 {
		maxUnits := s.resolver.MaxFillableSize(order)
		numerator := big.NewInt(1)
		if fill.ByUnits() {
			numerator = fill.UnitsToFill
		}
		var err error
		adjustedTips, err = AdjustTipsForPartialFills(tipItems, numerator, maxUnits)
		if err != nil {
			return nil, err
		}
	}

	adjusted, err := s.rescale(order, fill)
	if err != nil {
		return nil, err
	}

	consideration := make([]domain.Item, 0, len(adjusted.Consideration)+len(adjustedTips))
	consideration = append(consideration, adjusted.Consideration...)
	consideration = append(consideration, adjustedTips...)

	addresses := relevantAddresses(adjusted.Offerer, fulfiller, consideration)
	allItems := make([]domain.Item, 0, len(adjusted.Offer)+len(consideration))
	allItems = append(allItems, adjusted.Offer...)
	allItems = append(allItems, consideration...)

	ledger := NewLedger(opts.Observer)
	if opts.Baseline != nil {
		if err := ledger.SnapshotWithBalances(ctx, addresses, allItems, opts.Baseline); err != nil {
			return nil, err
		}
	} else {
		ledger.Snapshot(addresses, allItems)
	}

	// Offer items are depleted: debit the offerer, credit the fulfiller.
	for _, item := range adjusted.Offer {
		exchanged, err := s.interp.PresentAmount(item.StartAmount, item.EndAmount, opts.Window, domain.SideOffer)
		if err != nil {
			return nil, err
		}
		debit := new(big.Int).Neg(exchanged)
		if err := ledger.ApplyDelta(adjusted.Offerer, item.Asset, debit, item); err != nil {
			return nil, err
		}
		if err := ledger.ApplyDelta(fulfiller, item.Asset, exchanged, item); err != nil {
			return nil, err
		}
		s.logger.Debug("offer item exchanged",
			slog.String("asset", item.Asset.String()),
			slog.String("amount", exchanged.String()),
		)
	}

	// Consideration items (tips included) flow from the fulfiller to each
	// item's recipient.
	for _, item := range consideration {
		exchanged, err := s.interp.PresentAmount(item.StartAmount, item.EndAmount, opts.Window, domain.SideConsideration)
		if err != nil {
			return nil, err
		}
		debit := new(big.Int).Neg(exchanged)
		if err := ledger.ApplyDelta(fulfiller, item.Asset, debit, item); err != nil {
			return nil, err
		}
		if err := ledger.ApplyDelta(item.Recipient, item.Asset, exchanged, item); err != nil {
			return nil, err
		}
		s.logger.Debug("consideration item exchanged",
			slog.String("asset", item.Asset.String()),
			slog.String("recipient", item.Recipient.Hex()),
			slog.String("amount", exchanged.String()),
		)
	}

	// Gas is attributable only to the fulfiller's native entry, at most
	// once per settlement, and only when the order touched native currency.
	ledger.DeductGas(fulfiller, opts.Receipt)

	return ledger, nil
}

func (s *Simulator) rescale(order domain.Order, fill domain.FillInput) (domain.Order, error) {
	if fill.ByUnits() {
		adjusted, err := s.resolver.RescaleByUnitsToFill(order, fill.UnitsToFill, fill.TotalSize)
		if err != nil {
			return domain.Order{}, fmt.Errorf("settlement: rescale by units: %w", err)
		}
		return adjusted, nil
	}
	totalFilled := fill.TotalFilled
	if totalFilled == nil {
		totalFilled = new(big.Int)
	}
	totalSize := fill.TotalSize
	if totalSize == nil {
		totalSize = new(big.Int)
	}
	adjusted, err := s.resolver.RescaleByFilledStatus(order, totalFilled, totalSize)
	if err != nil {
		return domain.Order{}, fmt.Errorf("settlement: rescale by filled status: %w", err)
	}
	return adjusted, nil
}

// relevantAddresses returns {offerer, fulfiller} plus every consideration
// recipient, deduplicated in first-seen order.
func relevantAddresses(offerer, fulfiller common.Address, consideration []domain.Item) []common.Address {
	seen := make(map[common.Address]bool)
	out := make([]common.Address, 0, 2+len(consideration))
	for _, addr := range []common.Address{offerer, fulfiller} {
		if !seen[addr] {
			seen[addr] = true
			out = append(out, addr)
		}
	}
	for _, item := range consideration {
		if !seen[item.Recipient] {
			seen[item.Recipient] = true
			out = append(out, item.Recipient)
		}
	}
	return out
}

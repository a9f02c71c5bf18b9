package settlement

import (
	"fmt"
	"math/big"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
)

// LinearInterpolator is the default domain.TimeInterpolator: straight-line
// interpolation between start and end amount over the time window, with
// elapsed time clamped to the window bounds.
//
// The rounding is deliberately asymmetric. Consideration amounts round up
// and offer amounts round down, so rounding error can never drain value
// from the recipient or squeeze extra units out of the offerer.
type LinearInterpolator struct{}

// PresentAmount implements domain.TimeInterpolator.
func (LinearInterpolator) PresentAmount(start, end *big.Int, window *domain.TimeWindow, side domain.Side) (*big.Int, error) {
	if window == nil {
		return new(big.Int).Set(start), nil
	}
	if window.End < window.Start {
		return nil, fmt.Errorf("settlement: window end %d before start %d: %w",
			window.End, window.Start, domain.ErrInvalidTimeWindow)
	}
	if start.Cmp(end) == 0 || window.End == window.Start {
		return new(big.Int).Set(start), nil
	}

	duration := window.End - window.Start
	elapsed := window.Current - window.Start
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > duration {
		elapsed = duration
	}
	remaining := duration - elapsed

	durationBig := big.NewInt(duration)
	total := new(big.Int).Mul(start, big.NewInt(remaining))
	total.Add(total, new(big.Int).Mul(end, big.NewInt(elapsed)))
	if side == domain.SideConsideration {
		total.Add(total, new(big.Int).Sub(durationBig, big.NewInt(1)))
	}
	return total.Quo(total, durationBig), nil
}

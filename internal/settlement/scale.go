package settlement

import "math/big"

// MulDivFloor returns floor(amount * num / den). Used for offer-side
// scaling so the offerer never overdelivers. den must be non-zero.
func MulDivFloor(amount, num, den *big.Int) *big.Int {
	out := new(big.Int).Mul(amount, num)
	return out.Quo(out, den)
}

// MulDivCeil returns ceil(amount * num / den). Used for consideration-side
// and tip scaling so recipients are never underpaid. den must be non-zero.
func MulDivCeil(amount, num, den *big.Int) *big.Int {
	out := new(big.Int).Mul(amount, num)
	out.Add(out, new(big.Int).Sub(den, big.NewInt(1)))
	return out.Quo(out, den)
}

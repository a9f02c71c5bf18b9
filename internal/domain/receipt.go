package domain

import "math/big"

// Receipt carries the transaction-fee inputs of a fulfillment. The fee
// (gas used × gas price) is deducted from the fulfiller's native-asset
// balance exactly once per settlement.
type Receipt struct {
	GasUsed  *big.Int `json:"gas_used"`
	GasPrice *big.Int `json:"gas_price"`
}

// Fee returns gasUsed * gasPrice. Nil fields count as zero.
func (r Receipt) Fee() *big.Int {
	if r.GasUsed == nil || r.GasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(r.GasUsed, r.GasPrice)
}

package domain

import "github.com/shopspring/decimal"

// WholeUnits floors a token holding to whole units.
// The fractional remainder (dust) stays in the wallet; flooring never sells
// more than is actually held.
func WholeUnits(holding decimal.Decimal) decimal.Decimal {
	if !holding.IsPositive() {
		return decimal.Zero
	}
	return holding.Floor()
}

// SplitEvenly divides total into parts equal amounts.
// parts below 1 is treated as 1.
func SplitEvenly(total decimal.Decimal, parts int) decimal.Decimal {
	if parts < 1 {
		parts = 1
	}
	return total.Div(decimal.NewFromInt(int64(parts)))
}

package pricing

// Money represents a monetary value stored in minor units (centavos).
type Money = int64

// Line describes a single cart line used for price resolution. PriceFull and
// PriceRefill are snapshots of the product's two price points taken when the
// line was added.
type Line struct {
	ProductID      int64
	Qty            int64
	ReturnedBottle bool
	CustomPrice    *Money
	PriceFull      Money
	PriceRefill    Money
}

// UnitPrice resolves the effective unit price for a line. An explicit custom
// price always wins, including an explicit override of zero. Otherwise the
// returned-bottle flag selects between the refill and full price points.
func UnitPrice(line Line) Money {
	if line.CustomPrice != nil {
		return *line.CustomPrice
	}
	if line.ReturnedBottle {
		return line.PriceRefill
	}
	return line.PriceFull
}

// Total computes the running total for a set of lines. Lines without an
// assigned product are placeholders and contribute zero.
func Total(lines []Line) Money {
	var total Money
	for _, line := range lines {
		if line.ProductID <= 0 {
			continue
		}
		total += UnitPrice(line) * line.Qty
	}
	return total
}

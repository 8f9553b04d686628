package pricing

import "testing"

func TestUnitPriceCustomWins(t *testing.T) {
	custom := Money(750)
	line := Line{ProductID: 1, Qty: 1, ReturnedBottle: true, CustomPrice: &custom, PriceFull: 1000, PriceRefill: 500}
	if got := UnitPrice(line); got != 750 {
		t.Fatalf("expected custom price 750, got %d", got)
	}
}

func TestUnitPriceCustomZero(t *testing.T) {
	zero := Money(0)
	line := Line{ProductID: 1, Qty: 2, CustomPrice: &zero, PriceFull: 1000, PriceRefill: 500}
	if got := UnitPrice(line); got != 0 {
		t.Fatalf("explicit zero override must win, got %d", got)
	}
}

func TestUnitPriceReturnedBottle(t *testing.T) {
	line := Line{ProductID: 1, Qty: 1, PriceFull: 1000, PriceRefill: 500}
	if got := UnitPrice(line); got != 1000 {
		t.Fatalf("expected full price 1000, got %d", got)
	}
	line.ReturnedBottle = true
	if got := UnitPrice(line); got != 500 {
		t.Fatalf("expected refill price 500, got %d", got)
	}
}

func TestTotalSkipsPlaceholders(t *testing.T) {
	lines := []Line{
		{ProductID: 1, Qty: 2, PriceFull: 1000, PriceRefill: 500},
		{ProductID: 0, Qty: 3, PriceFull: 9999},
		{ProductID: 2, Qty: 1, ReturnedBottle: true, PriceFull: 6000, PriceRefill: 5000},
	}
	if got := Total(lines); got != 7000 {
		t.Fatalf("expected total 7000, got %d", got)
	}
}

func TestTotalEmpty(t *testing.T) {
	if got := Total(nil); got != 0 {
		t.Fatalf("empty cart must total 0, got %d", got)
	}
}

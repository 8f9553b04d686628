package cart

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-agua/internal/pricing"
)

var agua = Product{ID: 1, Name: "Agua 20L", PriceFull: 1000, PriceRefill: 500}
var gas = Product{ID: 2, Name: "Gas 13kg", PriceFull: 6000, PriceRefill: 5000}

func TestAddItemMergesDuplicates(t *testing.T) {
	c := New()
	c.AddItem(agua, 2, false)
	c.AddItem(agua, 3, false)

	items := c.Items()
	require.Len(t, items, 1)
	require.Equal(t, int64(5), items[0].Quantity)
}

func TestAddItemDefaults(t *testing.T) {
	c := New()
	c.AddItem(agua, 0, true)

	items := c.Items()
	require.Len(t, items, 1)
	require.Equal(t, int64(1), items[0].Quantity)
	require.True(t, items[0].ReturnedBottle)
}

func TestRemoveItemAbsentIsNoop(t *testing.T) {
	c := New()
	c.AddItem(agua, 1, false)
	c.RemoveItem(999)
	require.Equal(t, 1, c.Len())

	c.RemoveItem(agua.ID)
	require.Equal(t, 0, c.Len())
}

func TestUpdateQuantityFloor(t *testing.T) {
	c := New()
	c.AddItem(agua, 1, false)

	c.UpdateQuantity(agua.ID, 0)
	require.Equal(t, 0, c.Len())

	c.AddItem(agua, 1, false)
	c.UpdateQuantity(agua.ID, -5)
	require.Equal(t, 0, c.Len())
}

func TestCustomPriceSetAndClear(t *testing.T) {
	c := New()
	c.AddItem(agua, 2, false)

	override := pricing.Money(800)
	c.UpdateCustomPrice(agua.ID, &override)
	items := c.Items()
	require.Equal(t, pricing.Money(800), ItemPrice(items[0]))

	c.UpdateCustomPrice(agua.ID, nil)
	items = c.Items()
	require.Nil(t, items[0].CustomPrice)
	require.Equal(t, agua.PriceFull, ItemPrice(items[0]))
}

func TestCustomPriceMasksToggle(t *testing.T) {
	c := New()
	c.AddItem(agua, 1, false)
	zero := pricing.Money(0)
	c.UpdateCustomPrice(agua.ID, &zero)
	c.ToggleReturnedBottle(agua.ID)

	items := c.Items()
	require.True(t, items[0].ReturnedBottle)
	require.Equal(t, pricing.Money(0), ItemPrice(items[0]))
}

func TestToggleReturnedBottle(t *testing.T) {
	c := New()
	c.AddItem(agua, 1, false)

	c.ToggleReturnedBottle(agua.ID)
	require.Equal(t, agua.PriceRefill, ItemPrice(c.Items()[0]))

	c.ToggleReturnedBottle(agua.ID)
	require.Equal(t, agua.PriceFull, ItemPrice(c.Items()[0]))
}

func TestTotalRecomputedFromState(t *testing.T) {
	c := New()
	require.Equal(t, pricing.Money(0), c.Total())

	c.AddItem(agua, 2, true)
	require.Equal(t, pricing.Money(1000), c.Total())

	c.AddItem(gas, 1, false)
	require.Equal(t, pricing.Money(7000), c.Total())

	override := pricing.Money(800)
	c.UpdateCustomPrice(agua.ID, &override)
	require.Equal(t, pricing.Money(7600), c.Total())
}

func TestClear(t *testing.T) {
	c := New()
	c.AddItem(agua, 1, false)
	c.AddItem(gas, 1, false)
	c.Clear()
	require.Equal(t, 0, c.Len())
	require.Equal(t, pricing.Money(0), c.Total())
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry()
	c := reg.Create()

	got, err := reg.Get(c.ID())
	require.NoError(t, err)
	require.Same(t, c, got)

	reg.Drop(c.ID())
	_, err = reg.Get(c.ID())
	require.ErrorIs(t, err, ErrNotFound)

	// dropping twice is fine
	reg.Drop(c.ID())
	require.Equal(t, 0, reg.Len())
}

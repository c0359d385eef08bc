package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDetails() ProductDetails {
	return ProductDetails{
		Name:       "Campus Hoodie",
		Price:      decimal.NewFromInt(250000),
		CategoryID: uuid.New(),
		Color:      "navy",
		Size:       "L",
	}
}

func TestNewProduct(t *testing.T) {
	sellerID := uuid.New()
	p, err := NewProduct(uuid.New(), sellerID, validDetails(), 3)
	require.NoError(t, err)

	assert.Equal(t, ProductStatusAvailable, p.Status)
	assert.True(t, p.IsOwnedBy(sellerID))
	assert.Equal(t, 1, p.GetVersion())
	assert.True(t, p.EffectivePrice().Equal(decimal.NewFromInt(250000)))
}

func TestNewProduct_WithoutStockIsOutOfStock(t *testing.T) {
	p, err := NewProduct(uuid.New(), uuid.New(), validDetails(), 0)
	require.NoError(t, err)
	assert.Equal(t, ProductStatusOutOfStock, p.Status)
}

func TestProduct_Update_Validation(t *testing.T) {
	discount := decimal.NewFromInt(300000)
	tests := []struct {
		name   string
		mutate func(*ProductDetails)
		msg    string
	}{
		{"short name", func(d *ProductDetails) { d.Name = "x" }, "between 2 and 100"},
		{"zero price", func(d *ProductDetails) { d.Price = decimal.Zero }, "greater than 0"},
		{"discount above price", func(d *ProductDetails) { d.DiscountPrice = &discount }, "less than price"},
		{"missing category", func(d *ProductDetails) { d.CategoryID = uuid.Nil }, "Category is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDetails()
			tt.mutate(&d)
			_, err := NewProduct(uuid.New(), uuid.New(), d, 1)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestProduct_EffectivePriceUsesDiscount(t *testing.T) {
	d := validDetails()
	discount := decimal.NewFromInt(199000)
	d.DiscountPrice = &discount
	p, err := NewProduct(uuid.New(), uuid.New(), d, 1)
	require.NoError(t, err)
	assert.True(t, p.EffectivePrice().Equal(discount))
}

func TestProduct_SetQuantityFlipsStatus(t *testing.T) {
	p, err := NewProduct(uuid.New(), uuid.New(), validDetails(), 2)
	require.NoError(t, err)

	require.NoError(t, p.SetQuantity(0))
	assert.Equal(t, ProductStatusOutOfStock, p.Status)

	require.NoError(t, p.SetQuantity(5))
	assert.Equal(t, ProductStatusAvailable, p.Status)

	require.NoError(t, p.SetStatus(ProductStatusDiscontinued))
	require.NoError(t, p.SetQuantity(0))
	assert.Equal(t, ProductStatusDiscontinued, p.Status)

	assert.Error(t, p.SetQuantity(-1))
}

func TestProduct_SetStatus(t *testing.T) {
	p, err := NewProduct(uuid.New(), uuid.New(), validDetails(), 0)
	require.NoError(t, err)

	assert.Error(t, p.SetStatus(ProductStatus("sold")))
	assert.Error(t, p.SetStatus(ProductStatusAvailable))
	assert.NoError(t, p.SetStatus(ProductStatusPending))
}

func TestProduct_CanPurchase(t *testing.T) {
	p, err := NewProduct(uuid.New(), uuid.New(), validDetails(), 2)
	require.NoError(t, err)

	assert.NoError(t, p.CanPurchase(2))
	assert.ErrorContains(t, p.CanPurchase(3), "Insufficient stock")

	require.NoError(t, p.SetStatus(ProductStatusPending))
	assert.ErrorContains(t, p.CanPurchase(1), "not available")
}

func TestStockStatusFor(t *testing.T) {
	assert.Equal(t, ProductStatusOutOfStock, StockStatusFor(ProductStatusAvailable, 0))
	assert.Equal(t, ProductStatusAvailable, StockStatusFor(ProductStatusOutOfStock, 4))
	assert.Equal(t, ProductStatusPending, StockStatusFor(ProductStatusPending, 0))
	assert.Equal(t, ProductStatusAvailable, StockStatusFor(ProductStatusAvailable, 1))
}

func TestNewCategory(t *testing.T) {
	c, err := NewCategory(uuid.New(), "  Books ", "Textbooks and novels")
	require.NoError(t, err)
	assert.Equal(t, "Books", c.Name)

	_, err = NewCategory(uuid.New(), "B", "")
	assert.Error(t, err)
}

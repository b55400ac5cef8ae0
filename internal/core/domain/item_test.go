package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
)

func TestItem_Status(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		threshold int
		want      domain.StockStatus
	}{
		{name: "zero_is_out_of_stock", quantity: 0, threshold: 3, want: domain.StatusOutOfStock},
		{name: "at_threshold_is_low", quantity: 3, threshold: 3, want: domain.StatusLowStock},
		{name: "above_threshold_is_in_stock", quantity: 4, threshold: 3, want: domain.StatusInStock},
		{name: "one_unit_is_low", quantity: 1, threshold: 3, want: domain.StatusLowStock},
		{name: "zero_threshold_never_low", quantity: 1, threshold: 0, want: domain.StatusInStock},
		{name: "zero_threshold_empty_is_out", quantity: 0, threshold: 0, want: domain.StatusOutOfStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &domain.Item{Quantity: tt.quantity, AlertThreshold: tt.threshold}
			assert.Equal(t, tt.want, item.Status())
			assert.Equal(t, tt.want == domain.StatusLowStock, item.IsLowStock())
			assert.Equal(t, tt.want == domain.StatusOutOfStock, item.IsOutOfStock())
		})
	}
}

func TestItem_Validate(t *testing.T) {
	valid := func() *domain.Item {
		return &domain.Item{Name: "Monitor", Category: domain.CategoryMonitors, AlertThreshold: 3}
	}

	tests := []struct {
		name      string
		mutate    func(*domain.Item)
		wantField string
	}{
		{name: "valid", mutate: func(*domain.Item) {}},
		{name: "blank_name", mutate: func(i *domain.Item) { i.Name = " " }, wantField: "name"},
		{name: "missing_category", mutate: func(i *domain.Item) { i.Category = "" }, wantField: "category"},
		{name: "unknown_category", mutate: func(i *domain.Item) { i.Category = "meubles" }, wantField: "category"},
		{name: "negative_quantity", mutate: func(i *domain.Item) { i.Quantity = -1 }, wantField: "quantity"},
		{name: "negative_threshold", mutate: func(i *domain.Item) { i.AlertThreshold = -1 }, wantField: "alertThreshold"},
		{name: "maximum_quantity", mutate: func(i *domain.Item) { i.Quantity = domain.MaxQuantity }},
		{name: "quantity_above_column_range", mutate: func(i *domain.Item) { i.Quantity = domain.MaxQuantity + 1 }, wantField: "quantity"},
		{name: "threshold_above_column_range", mutate: func(i *domain.Item) { i.AlertThreshold = domain.MaxQuantity + 1 }, wantField: "alertThreshold"},
		{name: "negative_price", mutate: func(i *domain.Item) { i.Price = decimal.NewFromInt(-5) }, wantField: "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := valid()
			tt.mutate(item)

			err := item.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var validation *domain.ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.wantField, validation.Field)
		})
	}
}

func TestItem_PrepareForStorage(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	item := &domain.Item{Name: "  Monitor  "}
	item.PrepareForStorage(now)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Monitor", item.Name)
	assert.Equal(t, now, item.CreatedAt)
	assert.Equal(t, now, item.UpdatedAt)

	kept := &domain.Item{ID: "client-id"}
	kept.PrepareForStorage(now)
	assert.Equal(t, "client-id", kept.ID)
}

func TestItem_InitialEntry(t *testing.T) {
	empty := &domain.Item{ID: "a"}
	assert.Nil(t, empty.InitialEntry("x"))

	now := time.Now()
	stocked := &domain.Item{ID: "b", Quantity: 4, CreatedAt: now}
	entry := stocked.InitialEntry("admin@example.com")
	require.NotNil(t, entry)
	assert.Equal(t, domain.MovementEntry{
		ItemID:      "b",
		Type:        domain.MovementAdd,
		Quantity:    4,
		NewQuantity: 4,
		Note:        domain.NoteInitialStock,
		Date:        now,
		Actor:       "admin@example.com",
	}, *entry)
}

func TestItemPatch_Apply(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(time.Hour)

	item := &domain.Item{
		ID: "a", Name: "Monitor", Category: domain.CategoryMonitors,
		Location: "A1", Quantity: 7, AlertThreshold: 3, CreatedAt: created, UpdatedAt: created,
	}

	location := "B2"
	price := decimal.RequireFromString("99.99")
	require.NoError(t, domain.ItemPatch{Location: &location, Price: &price}.Apply(item, now))

	assert.Equal(t, "B2", item.Location)
	assert.Equal(t, "Monitor", item.Name)
	assert.True(t, price.Equal(item.Price))
	assert.Equal(t, 7, item.Quantity)
	assert.Equal(t, created, item.CreatedAt)
	assert.Equal(t, now, item.UpdatedAt)

	bad := domain.Category("inconnu")
	err := domain.ItemPatch{Category: &bad}.Apply(item, now.Add(time.Hour))
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestItem_Value(t *testing.T) {
	item := &domain.Item{Quantity: 3, Price: decimal.RequireFromString("19.99")}
	assert.Equal(t, "59.97", item.Value().String())
}

func TestCategory_IsValid(t *testing.T) {
	for _, c := range domain.Categories {
		assert.True(t, c.IsValid(), string(c))
	}
	assert.Len(t, domain.Categories, 12)
	assert.False(t, domain.Category("ECRANS").IsValid())
}

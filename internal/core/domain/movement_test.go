package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
)

func TestAdjustment_Validate(t *testing.T) {
	due := time.Now().Add(time.Hour)

	tests := []struct {
		name       string
		adj        domain.Adjustment
		wantField  string
		wantPerson string
		wantDue    bool
	}{
		{name: "missing_item", adj: domain.Adjustment{Type: domain.MovementAdd, Quantity: 1}, wantField: "id"},
		{name: "bad_type", adj: domain.Adjustment{ItemID: "a", Type: "move", Quantity: 1}, wantField: "type"},
		{name: "zero_quantity", adj: domain.Adjustment{ItemID: "a", Type: domain.MovementAdd}, wantField: "quantity"},
		{
			name:      "quantity_above_column_range",
			adj:       domain.Adjustment{ItemID: "a", Type: domain.MovementAdd, Quantity: domain.MaxQuantity + 1},
			wantField: "quantity",
		},
		{
			name:    "add_drops_borrower",
			adj:     domain.Adjustment{ItemID: "a", Type: domain.MovementAdd, Quantity: 1, Person: "Alice", ExpectedReturnDate: &due},
			wantDue: false,
		},
		{
			name:       "remove_keeps_borrower",
			adj:        domain.Adjustment{ItemID: "a", Type: domain.MovementRemove, Quantity: 1, Person: " Alice ", ExpectedReturnDate: &due},
			wantPerson: "Alice",
			wantDue:    true,
		},
		{
			name: "date_without_person_dropped",
			adj:  domain.Adjustment{ItemID: "a", Type: domain.MovementRemove, Quantity: 1, Person: "   ", ExpectedReturnDate: &due},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj := tt.adj
			err := adj.Validate()
			if tt.wantField != "" {
				var validation *domain.ValidationError
				require.ErrorAs(t, err, &validation)
				assert.Equal(t, tt.wantField, validation.Field)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPerson, adj.Person)
			assert.Equal(t, tt.wantDue, adj.ExpectedReturnDate != nil)
		})
	}
}

func TestAdjustment_Apply(t *testing.T) {
	now := time.Now()

	add := domain.Adjustment{ItemID: "a", Type: domain.MovementAdd, Quantity: 10, Note: "livraison"}
	entry, err := add.Apply(0, now)
	require.NoError(t, err)
	assert.Equal(t, 0, entry.PreviousQuantity)
	assert.Equal(t, 10, entry.NewQuantity)
	assert.Equal(t, "livraison", entry.Note)
	assert.Equal(t, now, entry.Date)

	remove := domain.Adjustment{ItemID: "a", Type: domain.MovementRemove, Quantity: 10}
	entry, err = remove.Apply(10, now)
	require.NoError(t, err)
	assert.Equal(t, 0, entry.NewQuantity)

	_, err = remove.Apply(9, now)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 9, insufficient.Available)
	assert.Equal(t, 10, insufficient.Requested)
	assert.Contains(t, err.Error(), "9 available, 10 requested")
}

func TestAdjustment_ApplyBounds(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		adj       domain.Adjustment
		current   int
		wantNew   int
		wantField string
	}{
		{
			name:    "add_up_to_maximum",
			adj:     domain.Adjustment{ItemID: "a", Type: domain.MovementAdd, Quantity: 1},
			current: domain.MaxQuantity - 1,
			wantNew: domain.MaxQuantity,
		},
		{
			name:      "add_past_maximum",
			adj:       domain.Adjustment{ItemID: "a", Type: domain.MovementAdd, Quantity: 2},
			current:   domain.MaxQuantity - 1,
			wantField: "quantity",
		},
		{
			name:      "add_huge_quantity_to_stocked_item",
			adj:       domain.Adjustment{ItemID: "a", Type: domain.MovementAdd, Quantity: domain.MaxQuantity},
			current:   1,
			wantField: "quantity",
		},
		{
			name:    "remove_from_maximum",
			adj:     domain.Adjustment{ItemID: "a", Type: domain.MovementRemove, Quantity: domain.MaxQuantity},
			current: domain.MaxQuantity,
			wantNew: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := tt.adj.Apply(tt.current, now)
			if tt.wantField != "" {
				var validation *domain.ValidationError
				require.ErrorAs(t, err, &validation)
				assert.Equal(t, tt.wantField, validation.Field)
				assert.Nil(t, entry)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantNew, entry.NewQuantity)
			assert.GreaterOrEqual(t, entry.NewQuantity, 0)
		})
	}
}

func TestAdjustment_ValidateNormalizesReturnDate(t *testing.T) {
	due := time.Date(2025, 6, 5, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600))
	adj := domain.Adjustment{ItemID: "a", Type: domain.MovementRemove, Quantity: 1, Person: "Alice", ExpectedReturnDate: &due}

	require.NoError(t, adj.Validate())
	require.NotNil(t, adj.ExpectedReturnDate)
	assert.Equal(t, time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC), *adj.ExpectedReturnDate)
	assert.Equal(t, 30, due.Minute(), "caller's time is left untouched")
}

func TestMovementEntry_IsLoan(t *testing.T) {
	assert.True(t, (&domain.MovementEntry{Type: domain.MovementRemove, Person: "Bob"}).IsLoan())
	assert.False(t, (&domain.MovementEntry{Type: domain.MovementRemove}).IsLoan())
	assert.False(t, (&domain.MovementEntry{Type: domain.MovementAdd, Person: "Bob"}).IsLoan())
}

func TestReplayLedger(t *testing.T) {
	tests := []struct {
		name       string
		entries    []domain.MovementEntry
		want       int
		wantReason string
	}{
		{name: "empty", entries: nil, want: 0},
		{
			name: "consistent_chain",
			entries: []domain.MovementEntry{
				{ID: 1, Type: domain.MovementAdd, Quantity: 10, PreviousQuantity: 0, NewQuantity: 10},
				{ID: 2, Type: domain.MovementRemove, Quantity: 8, PreviousQuantity: 10, NewQuantity: 2},
				{ID: 3, Type: domain.MovementAdd, Quantity: 1, PreviousQuantity: 2, NewQuantity: 3},
			},
			want: 3,
		},
		{
			name: "broken_link",
			entries: []domain.MovementEntry{
				{ID: 1, Type: domain.MovementAdd, Quantity: 10, PreviousQuantity: 0, NewQuantity: 10},
				{ID: 2, Type: domain.MovementRemove, Quantity: 1, PreviousQuantity: 9, NewQuantity: 8},
			},
			wantReason: "previous quantity does not match running total",
		},
		{
			name: "wrong_new_quantity",
			entries: []domain.MovementEntry{
				{ID: 1, Type: domain.MovementAdd, Quantity: 10, PreviousQuantity: 0, NewQuantity: 11},
			},
			wantReason: "new quantity does not match movement",
		},
		{
			name: "negative_stock",
			entries: []domain.MovementEntry{
				{ID: 1, Type: domain.MovementRemove, Quantity: 1, PreviousQuantity: 0, NewQuantity: 0},
			},
			wantReason: "negative stock",
		},
		{
			name: "non_positive_quantity",
			entries: []domain.MovementEntry{
				{ID: 1, Type: domain.MovementAdd, Quantity: 0},
			},
			wantReason: "non-positive quantity",
		},
		{
			name: "unknown_type",
			entries: []domain.MovementEntry{
				{ID: 7, Type: "transfer", Quantity: 1},
			},
			wantReason: "unknown movement type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ReplayLedger("item", tt.entries)
			if tt.wantReason == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}

			var inconsistency *domain.LedgerInconsistencyError
			require.ErrorAs(t, err, &inconsistency)
			assert.Equal(t, tt.wantReason, inconsistency.Reason)
		})
	}
}

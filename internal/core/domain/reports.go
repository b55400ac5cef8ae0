// internal/core/domain/reports.go
package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Statistics is a point-in-time snapshot over all items.
type Statistics struct {
	TotalItems int                        `json:"totalItems"`
	TotalUnits int                        `json:"totalUnits"`
	InStock    int                        `json:"inStock"`
	OutOfStock int                        `json:"outOfStock"`
	LowStock   int                        `json:"lowStock"`
	TotalValue decimal.Decimal            `json:"totalValue"`
	Categories map[Category]CategoryStats `json:"categories"`
}

// CategoryStats breaks totals down per category.
type CategoryStats struct {
	Items int `json:"items"`
	Units int `json:"units"`
}

// ComputeStatistics scans items once.
func ComputeStatistics(items []*Item) Statistics {
	stats := Statistics{
		TotalValue: decimal.Zero,
		Categories: make(map[Category]CategoryStats),
	}

	for _, item := range items {
		stats.TotalItems++
		stats.TotalUnits += item.Quantity
		stats.TotalValue = stats.TotalValue.Add(item.Value())

		switch item.Status() {
		case StatusOutOfStock:
			stats.OutOfStock++
		case StatusLowStock:
			stats.LowStock++
			stats.InStock++
		default:
			stats.InStock++
		}

		cat := stats.Categories[item.Category]
		cat.Items++
		cat.Units += item.Quantity
		stats.Categories[item.Category] = cat
	}

	return stats
}

// LowStockAlerts returns the low-stock items ordered by ascending quantity,
// then by name.
func LowStockAlerts(items []*Item) []*Item {
	alerts := make([]*Item, 0)
	for _, item := range items {
		if item.IsLowStock() {
			alerts = append(alerts, item)
		}
	}

	sort.SliceStable(alerts, func(a, b int) bool {
		if alerts[a].Quantity != alerts[b].Quantity {
			return alerts[a].Quantity < alerts[b].Quantity
		}
		return alerts[a].Name < alerts[b].Name
	})
	return alerts
}

// LoanRecord is a borrower removal joined with the name of its item.
type LoanRecord struct {
	Entry    MovementEntry
	ItemName string
}

// Loan is one outstanding borrow as seen from the ledger.
type Loan struct {
	EntryID            int64      `json:"entryId"`
	ItemID             string     `json:"itemId"`
	ItemName           string     `json:"itemName"`
	Quantity           int        `json:"quantity"`
	Date               time.Time  `json:"date"`
	ExpectedReturnDate *time.Time `json:"expectedReturnDate,omitempty"`
	Note               string     `json:"note,omitempty"`
	Overdue            bool       `json:"overdue"`
}

// BorrowerLoans groups the loans of one person.
type BorrowerLoans struct {
	Person       string `json:"person"`
	Loans        []Loan `json:"loans"`
	TotalUnits   int    `json:"totalUnits"`
	OverdueCount int    `json:"overdueCount"`
}

// GroupLoans derives the loans view from borrower removals. Later re-adds are
// not matched against loans, so the view can overstate what is still out.
func GroupLoans(records []LoanRecord, now time.Time) []BorrowerLoans {
	byPerson := make(map[string]*BorrowerLoans)
	for _, rec := range records {
		if !rec.Entry.IsLoan() {
			continue
		}

		group, ok := byPerson[rec.Entry.Person]
		if !ok {
			group = &BorrowerLoans{Person: rec.Entry.Person}
			byPerson[rec.Entry.Person] = group
		}

		loan := Loan{
			EntryID:            rec.Entry.ID,
			ItemID:             rec.Entry.ItemID,
			ItemName:           rec.ItemName,
			Quantity:           rec.Entry.Quantity,
			Date:               rec.Entry.Date,
			ExpectedReturnDate: rec.Entry.ExpectedReturnDate,
			Note:               rec.Entry.Note,
			Overdue:            rec.Entry.ExpectedReturnDate != nil && rec.Entry.ExpectedReturnDate.Before(now),
		}

		group.Loans = append(group.Loans, loan)
		group.TotalUnits += loan.Quantity
		if loan.Overdue {
			group.OverdueCount++
		}
	}

	result := make([]BorrowerLoans, 0, len(byPerson))
	for _, group := range byPerson {
		sort.SliceStable(group.Loans, func(a, b int) bool {
			return group.Loans[a].EntryID < group.Loans[b].EntryID
		})
		result = append(result, *group)
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].Person < result[b].Person
	})
	return result
}

// SortHistory orders entries by date, ties broken by id.
func SortHistory(entries []MovementEntry, descending bool) {
	sort.SliceStable(entries, func(a, b int) bool {
		ea, eb := entries[a], entries[b]
		if !ea.Date.Equal(eb.Date) {
			if descending {
				return ea.Date.After(eb.Date)
			}
			return ea.Date.Before(eb.Date)
		}
		if descending {
			return ea.ID > eb.ID
		}
		return ea.ID < eb.ID
	})
}

// StockAlert is a low-stock notice recorded by the alert worker.
type StockAlert struct {
	ItemID         string      `json:"itemId"`
	ItemName       string      `json:"itemName"`
	Quantity       int         `json:"quantity"`
	AlertThreshold int         `json:"alertThreshold"`
	Status         StockStatus `json:"status"`
	RaisedAt       time.Time   `json:"raisedAt"`
}

// NewStockAlert snapshots the alert state of item at now.
func NewStockAlert(item *Item, now time.Time) StockAlert {
	return StockAlert{
		ItemID:         item.ID,
		ItemName:       item.Name,
		Quantity:       item.Quantity,
		AlertThreshold: item.AlertThreshold,
		Status:         item.Status(),
		RaisedAt:       now,
	}
}

// Package engine holds the pure aggregation rules: safety stock, period sales,
// day/trailing/month/range rollups and the inventory display rank. Nothing in
// here mutates its input or reads the clock; callers pass "today" explicitly.
package engine

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockpulse/backend/internal/domain"
)

// Book is a read-only view of the controller tables.
type Book struct {
	Models     []string
	Prices     map[string]decimal.Decimal
	Attributes map[string]domain.Attribute
	Inventory  map[string]domain.InventoryEntry
	Sales      []domain.SaleRecord
}

func (b Book) isPush(model string) bool {
	attr, ok := b.Attributes[model]
	return ok && attr.Category == domain.CategoryPush
}

func (b Book) price(model string) decimal.Decimal {
	if price, ok := b.Prices[model]; ok {
		return price
	}
	return decimal.Zero
}

// window returns the inclusive [start, end] day strings covering the last
// days calendar days ending at today.
func window(today time.Time, days int) (string, string) {
	return domain.Day(today.AddDate(0, 0, -(days - 1))), domain.Day(today)
}

func inWindow(date string, start string, end string) bool {
	return date >= start && date <= end
}

// SafetyStock sums line-item quantities per registered model over the
// trailing period ending today. Every registered model gets an entry.
func SafetyStock(sales []domain.SaleRecord, models []string, period int, today time.Time) map[string]int {
	result := make(map[string]int, len(models))
	for _, model := range models {
		result[model] = 0
	}
	if period < 1 {
		return result
	}

	start, end := window(today, period)
	for _, sale := range sales {
		if !inWindow(sale.Date, start, end) {
			continue
		}
		for _, item := range sale.Items {
			if _, ok := result[item.Model]; ok {
				result[item.Model] += item.Quantity
			}
		}
	}
	return result
}

func SalesForPeriod(sales []domain.SaleRecord, model string, days int, today time.Time) (int, error) {
	if days < 1 {
		return 0, fmt.Errorf("%w: days must be at least 1, got %d", domain.ErrInvalidRange, days)
	}

	start, end := window(today, days)
	total := 0
	for _, sale := range sales {
		if !inWindow(sale.Date, start, end) {
			continue
		}
		for _, item := range sale.Items {
			if item.Model == model {
				total += item.Quantity
			}
		}
	}
	return total, nil
}

func AggregateForDay(b Book, date string) domain.DayAggregate {
	agg := domain.DayAggregate{
		Date:         date,
		TotalRevenue: decimal.Zero,
		LineItems:    make([]domain.DayLineItem, 0, 8),
	}

	for _, sale := range b.Sales {
		if sale.Date != date {
			continue
		}
		for _, item := range sale.Items {
			unitPrice := b.price(item.Model)
			revenue := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
			push := b.isPush(item.Model)

			agg.TotalUnits += item.Quantity
			if push {
				agg.StructureUnits += item.Quantity
			}
			agg.TotalRevenue = agg.TotalRevenue.Add(revenue)
			agg.LineItems = append(agg.LineItems, domain.DayLineItem{
				SaleID:    sale.ID,
				Model:     item.Model,
				Quantity:  item.Quantity,
				Time:      sale.Time,
				UnitPrice: unitPrice,
				Revenue:   revenue,
				Push:      push,
			})
		}
	}
	return agg
}

func AggregateForTrailingDays(b Book, days int, today time.Time) (domain.TrailingAggregate, error) {
	if days < 1 || days > domain.MaxTrailingDays {
		return domain.TrailingAggregate{}, fmt.Errorf("%w: days must be between 1 and %d, got %d", domain.ErrInvalidRange, domain.MaxTrailingDays, days)
	}

	result := domain.TrailingAggregate{
		Days:         make([]domain.DaySummary, days),
		TotalRevenue: decimal.Zero,
	}
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := domain.Day(today.AddDate(0, 0, i-(days-1)))
		result.Days[i] = domain.DaySummary{Date: date, TotalRevenue: decimal.Zero}
		index[date] = i
	}

	for _, sale := range b.Sales {
		i, ok := index[sale.Date]
		if !ok {
			continue
		}
		day := &result.Days[i]
		for _, item := range sale.Items {
			revenue := b.price(item.Model).Mul(decimal.NewFromInt(int64(item.Quantity)))
			day.TotalUnits += item.Quantity
			if b.isPush(item.Model) {
				day.StructureUnits += item.Quantity
			}
			day.TotalRevenue = day.TotalRevenue.Add(revenue)
		}
	}

	for _, day := range result.Days {
		result.TotalUnits += day.TotalUnits
		result.StructureUnits += day.StructureUnits
		result.TotalRevenue = result.TotalRevenue.Add(day.TotalRevenue)
	}
	return result, nil
}

func AggregateForMonth(b Book, today time.Time, targets domain.MonthlyTargets) domain.MonthAggregate {
	month := today.Format("2006-01")
	agg := domain.MonthAggregate{
		Month:        month,
		TotalRevenue: decimal.Zero,
		Targets:      targets,
	}

	prefix := month + "-"
	for _, sale := range b.Sales {
		if !strings.HasPrefix(sale.Date, prefix) {
			continue
		}
		for _, item := range sale.Items {
			agg.TotalUnits += item.Quantity
			if b.isPush(item.Model) {
				agg.StructureUnits += item.Quantity
			}
			agg.TotalRevenue = agg.TotalRevenue.Add(b.price(item.Model).Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	agg.RevenuePercent = Percent(agg.TotalRevenue, decimal.NewFromInt(targets.Revenue))
	agg.TotalUnitsPercent = Percent(decimal.NewFromInt(int64(agg.TotalUnits)), decimal.NewFromInt(int64(targets.TotalUnits)))
	agg.StructureUnitsPercent = Percent(decimal.NewFromInt(int64(agg.StructureUnits)), decimal.NewFromInt(int64(targets.StructureUnits)))
	return agg
}

// Percent returns min(100, round(actual/target*100)), or 0 for a non-positive
// target. The result is always within [0, 100].
func Percent(actual decimal.Decimal, target decimal.Decimal) int {
	if !target.IsPositive() || !actual.IsPositive() {
		return 0
	}
	pct := actual.Div(target).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if pct > 100 {
		return 100
	}
	return int(pct)
}

func AggregateForDateRange(b Book, start string, end string) (domain.RangeAggregate, error) {
	from, err := domain.ParseDay(start)
	if err != nil {
		return domain.RangeAggregate{}, fmt.Errorf("%w: invalid start date %q", domain.ErrInvalidRange, start)
	}
	to, err := domain.ParseDay(end)
	if err != nil {
		return domain.RangeAggregate{}, fmt.Errorf("%w: invalid end date %q", domain.ErrInvalidRange, end)
	}
	if from.After(to) {
		return domain.RangeAggregate{}, fmt.Errorf("%w: start %s is after end %s", domain.ErrInvalidRange, start, end)
	}

	startDay, endDay := domain.Day(from), domain.Day(to)
	agg := domain.RangeAggregate{
		Start:        startDay,
		End:          endDay,
		TotalRevenue: decimal.Zero,
		Models:       make([]domain.ModelSales, 0, len(b.Models)),
	}

	byModel := map[string]*domain.ModelSales{}
	for _, sale := range b.Sales {
		if !inWindow(sale.Date, startDay, endDay) {
			continue
		}
		for _, item := range sale.Items {
			revenue := b.price(item.Model).Mul(decimal.NewFromInt(int64(item.Quantity)))
			push := b.isPush(item.Model)

			agg.TotalUnits += item.Quantity
			if push {
				agg.StructureUnits += item.Quantity
			}
			agg.TotalRevenue = agg.TotalRevenue.Add(revenue)

			entry := byModel[item.Model]
			if entry == nil {
				entry = &domain.ModelSales{Model: item.Model, Revenue: decimal.Zero, Push: push}
				byModel[item.Model] = entry
			}
			entry.Units += item.Quantity
			entry.Revenue = entry.Revenue.Add(revenue)
		}
	}

	for _, entry := range byModel {
		agg.Models = append(agg.Models, *entry)
	}
	slices.SortFunc(agg.Models, func(x, y domain.ModelSales) int {
		if x.Units != y.Units {
			return y.Units - x.Units
		}
		if c := y.Revenue.Cmp(x.Revenue); c != 0 {
			return c
		}
		return strings.Compare(x.Model, y.Model)
	})
	return agg, nil
}

func StockStatusOf(stock int, safetyStock int) domain.StockStatus {
	switch {
	case stock == 0:
		return domain.StockOutOfStock
	case safetyStock > 0 && stock < safetyStock:
		return domain.StockLow
	default:
		return domain.StockNormal
	}
}

// RankInventory orders registry rows for display: urgent rows (zero stock and
// not marked clean) first, everything else in registry order.
func RankInventory(b Book) []domain.InventoryRow {
	rows := make([]domain.InventoryRow, 0, len(b.Models))
	for _, model := range b.Models {
		entry := b.Inventory[model]
		attr, ok := b.Attributes[model]
		if !ok {
			attr = domain.DefaultAttribute()
		}
		rows = append(rows, domain.InventoryRow{
			Model:       model,
			Stock:       entry.Stock,
			SafetyStock: entry.SafetyStock,
			Difference:  entry.Stock - entry.SafetyStock,
			Price:       b.price(model),
			Status:      attr.Status,
			Category:    attr.Category,
			Urgent:      entry.Stock == 0 && attr.Status != domain.StatusClean,
			StockStatus: StockStatusOf(entry.Stock, entry.SafetyStock),
		})
	}

	slices.SortStableFunc(rows, func(x, y domain.InventoryRow) int {
		switch {
		case x.Urgent && !y.Urgent:
			return -1
		case !x.Urgent && y.Urgent:
			return 1
		default:
			return 0
		}
	})
	return rows
}

// Summarize counts out-of-stock and low-stock rows for the export header.
func Summarize(rows []domain.InventoryRow, generatedAt time.Time) domain.InventorySummary {
	summary := domain.InventorySummary{
		GeneratedAt: generatedAt,
		Rows:        rows,
		TotalModels: len(rows),
	}
	for _, row := range rows {
		switch row.StockStatus {
		case domain.StockOutOfStock:
			summary.OutOfStock++
		case domain.StockLow:
			summary.LowStock++
		}
	}
	return summary
}

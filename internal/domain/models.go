package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day format used by the sales ledger.
const DateLayout = "2006-01-02"

// TimeLayout is the optional time-of-day format of a sale record.
const TimeLayout = "15:04"

const (
	DefaultSaleTime          = "12:00"
	DefaultSafetyStockPeriod = 9
	MinSafetyStockPeriod     = 1
	MaxSafetyStockPeriod     = 30
	MaxTrailingDays          = 366
)

type ModelStatus string

const (
	StatusUsual ModelStatus = "usual"
	StatusClean ModelStatus = "clean"
)

func (s ModelStatus) Valid() bool {
	return s == StatusUsual || s == StatusClean
}

type ModelCategory string

const (
	CategoryPush    ModelCategory = "push"
	CategoryNonPush ModelCategory = "non-push"
)

func (c ModelCategory) Valid() bool {
	return c == CategoryPush || c == CategoryNonPush
}

type StockStatus string

const (
	StockOutOfStock StockStatus = "out_of_stock"
	StockLow        StockStatus = "low_stock"
	StockNormal     StockStatus = "normal"
)

// Label returns the human readable form used in exports.
func (s StockStatus) Label() string {
	switch s {
	case StockOutOfStock:
		return "Out of Stock"
	case StockLow:
		return "Low Stock"
	default:
		return "Normal"
	}
}

type Attribute struct {
	Status   ModelStatus   `json:"status"`
	Category ModelCategory `json:"category"`
}

func DefaultAttribute() Attribute {
	return Attribute{Status: StatusUsual, Category: CategoryNonPush}
}

type InventoryEntry struct {
	Stock       int `json:"stock"`
	SafetyStock int `json:"safetyStock"`
}

type LineItem struct {
	Model    string `json:"model" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

type SaleRecord struct {
	ID    string     `json:"id,omitempty"`
	Date  string     `json:"date"`
	Time  string     `json:"time,omitempty"`
	Items []LineItem `json:"items"`
}

type MonthlyTargets struct {
	Revenue        int64 `json:"revenue" validate:"gt=0"`
	TotalUnits     int   `json:"totalUnits" validate:"gt=0"`
	StructureUnits int   `json:"structureUnits" validate:"gt=0,ltefield=TotalUnits"`
}

func DefaultMonthlyTargets() MonthlyTargets {
	return MonthlyTargets{Revenue: 500000, TotalUnits: 150, StructureUnits: 100}
}

type Settings struct {
	SafetyStockPeriod int            `json:"safetyStockPeriod"`
	MonthlyTargets    MonthlyTargets `json:"monthlyTargets"`
}

type ModelView struct {
	Model       string          `json:"model"`
	Price       decimal.Decimal `json:"price"`
	Status      ModelStatus     `json:"status"`
	Category    ModelCategory   `json:"category"`
	Stock       int             `json:"stock"`
	SafetyStock int             `json:"safetyStock"`
}

type InventoryRow struct {
	Model       string          `json:"model"`
	Stock       int             `json:"stock"`
	SafetyStock int             `json:"safetyStock"`
	Difference  int             `json:"difference"`
	Price       decimal.Decimal `json:"price"`
	Status      ModelStatus     `json:"status"`
	Category    ModelCategory   `json:"category"`
	Urgent      bool            `json:"urgent"`
	StockStatus StockStatus     `json:"stockStatus"`
}

type DayLineItem struct {
	SaleID    string          `json:"saleId,omitempty"`
	Model     string          `json:"model"`
	Quantity  int             `json:"quantity"`
	Time      string          `json:"time,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Revenue   decimal.Decimal `json:"revenue"`
	Push      bool            `json:"push"`
}

type DayAggregate struct {
	Date           string          `json:"date"`
	TotalUnits     int             `json:"totalUnits"`
	StructureUnits int             `json:"structureUnits"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	LineItems      []DayLineItem   `json:"lineItems"`
}

type DaySummary struct {
	Date           string          `json:"date"`
	TotalUnits     int             `json:"totalUnits"`
	StructureUnits int             `json:"structureUnits"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
}

type TrailingAggregate struct {
	Days           []DaySummary    `json:"days"`
	TotalUnits     int             `json:"totalUnits"`
	StructureUnits int             `json:"structureUnits"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
}

type MonthAggregate struct {
	Month                 string          `json:"month"`
	TotalUnits            int             `json:"totalUnits"`
	StructureUnits        int             `json:"structureUnits"`
	TotalRevenue          decimal.Decimal `json:"totalRevenue"`
	Targets               MonthlyTargets  `json:"targets"`
	RevenuePercent        int             `json:"revenuePercent"`
	TotalUnitsPercent     int             `json:"totalUnitsPercent"`
	StructureUnitsPercent int             `json:"structureUnitsPercent"`
}

type ModelSales struct {
	Model   string          `json:"model"`
	Units   int             `json:"units"`
	Revenue decimal.Decimal `json:"revenue"`
	Push    bool            `json:"push"`
}

type RangeAggregate struct {
	Start          string          `json:"start"`
	End            string          `json:"end"`
	TotalUnits     int             `json:"totalUnits"`
	StructureUnits int             `json:"structureUnits"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	Models         []ModelSales    `json:"models"`
}

type PeriodSales struct {
	Model string `json:"model"`
	Days  int    `json:"days"`
	Units int    `json:"units"`
}

type InventorySummary struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Rows        []InventoryRow `json:"rows"`
	TotalModels int            `json:"totalModels"`
	OutOfStock  int            `json:"outOfStock"`
	LowStock    int            `json:"lowStock"`
}

type SaleRequest struct {
	Date  string     `json:"date" validate:"required,datetime=2006-01-02"`
	Time  string     `json:"time,omitempty" validate:"omitempty,datetime=15:04"`
	Items []LineItem `json:"items" validate:"required,min=1,dive"`
}

type StockUpdateItem struct {
	Model string `json:"model" validate:"required"`
	Stock int    `json:"stock" validate:"gte=0"`
}

type StockUpdateRequest struct {
	Date  string            `json:"date" validate:"required,datetime=2006-01-02"`
	Items []StockUpdateItem `json:"items" validate:"required,min=1,dive"`
}

type StockUpdateResponse struct {
	Date    string   `json:"date"`
	Changed []string `json:"changed"`
}

type AttributeUpdateRequest struct {
	Status   *ModelStatus   `json:"status,omitempty"`
	Category *ModelCategory `json:"category,omitempty"`
}

// NormalizeModel canonicalises a model identifier.
func NormalizeModel(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Day truncates t to its calendar day in t's location and formats it.
func Day(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDay parses a ledger date, returning midnight UTC of that day.
func ParseDay(value string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(value))
}

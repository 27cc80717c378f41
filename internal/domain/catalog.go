package domain

import "github.com/shopspring/decimal"

type CatalogEntry struct {
	Model    string
	Price    decimal.Decimal
	Category ModelCategory
}

// DefaultCatalog is the model list a fresh installation starts with.
func DefaultCatalog() []CatalogEntry {
	entry := func(model string, price int64, category ModelCategory) CatalogEntry {
		return CatalogEntry{Model: model, Price: decimal.NewFromInt(price), Category: category}
	}
	return []CatalogEntry{
		entry("100Q7800H", 45000, CategoryPush),
		entry("86X8700G", 35000, CategoryPush),
		entry("86X8500G", 32000, CategoryPush),
		entry("75X8700G", 25000, CategoryPush),
		entry("75X8500G", 22000, CategoryNonPush),
		entry("75Q6600H", 20000, CategoryPush),
		entry("65X8700G", 18000, CategoryPush),
		entry("65X8500G", 16000, CategoryNonPush),
		entry("65Q6620G", 15000, CategoryPush),
		entry("60Q6600H", 12000, CategoryNonPush),
		entry("55Q6600H", 10000, CategoryNonPush),
		entry("43E5520H", 7000, CategoryNonPush),
		entry("40E5520H", 6000, CategoryNonPush),
		entry("32E5520H", 4500, CategoryNonPush),
	}
}

package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("snapshot not found")
	ErrCorruptSnapshot   = errors.New("corrupt snapshot")
	ErrUnsupportedSchema = errors.New("unsupported snapshot schema")
)

// Snapshot keys. Each key holds one complete table.
const (
	KeyInventory         = "inventory"
	KeySales             = "sales"
	KeyMonthlyTargets    = "monthlyTargets"
	KeyModels            = "models"
	KeyPrices            = "productPrices"
	KeyAttributes        = "productAttributes"
	KeySafetyStockPeriod = "safetyStockDays"
)

// AllKeys lists every snapshot key in load order.
var AllKeys = []string{
	KeyModels,
	KeyPrices,
	KeyAttributes,
	KeyInventory,
	KeySales,
	KeyMonthlyTargets,
	KeySafetyStockPeriod,
}

// Repository is a key-value store of opaque snapshot payloads.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, payload []byte) error
	Close() error
}

func Namespaced(prefix string, key string) string {
	if prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", prefix, key)
}

package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"stockpulse/backend/internal/domain"
)

// RangeReportCache stores date-range reports. Keys embed the ledger
// generation, so entries never need explicit invalidation.
type RangeReportCache interface {
	Get(ctx context.Context, key string) (*domain.RangeAggregate, bool, error)
	Set(ctx context.Context, key string, value *domain.RangeAggregate, ttl time.Duration) error
}

type NoopRangeReportCache struct{}

func (NoopRangeReportCache) Get(_ context.Context, _ string) (*domain.RangeAggregate, bool, error) {
	return nil, false, nil
}

func (NoopRangeReportCache) Set(_ context.Context, _ string, _ *domain.RangeAggregate, _ time.Duration) error {
	return nil
}

const rangeReportSegment = ":report:range:"

var ErrForeignKey = errors.New("cache key outside range report namespace")

func RangeReportKey(prefix string, generation string, start string, end string) string {
	hash := sha1.Sum([]byte(strings.Join([]string{generation, start, end}, "|")))
	if prefix == "" {
		prefix = "stockpulse"
	}
	return prefix + rangeReportSegment + hex.EncodeToString(hash[:])
}

// IsRangeReportKey reports whether key was built by RangeReportKey.
func IsRangeReportKey(key string) bool {
	prefix, digest, ok := strings.Cut(key, rangeReportSegment)
	if !ok || prefix == "" || len(digest) != hex.EncodedLen(sha1.Size) {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}

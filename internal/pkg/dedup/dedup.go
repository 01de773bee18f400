package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "algotracker:dedup:problem:"

// LinkDeduplicator remembers recently submitted problem links so a double
// submit does not create two records.
type LinkDeduplicator struct {
	rdb    *redis.Client
	window time.Duration
}

// NewLinkDeduplicator creates a deduplicator. A non-positive window defaults
// to one minute.
func NewLinkDeduplicator(rdb *redis.Client, window time.Duration) *LinkDeduplicator {
	if window <= 0 {
		window = time.Minute
	}
	return &LinkDeduplicator{
		rdb:    rdb,
		window: window,
	}
}

// Claim records link and reports whether it was already claimed inside the
// window.
func (d *LinkDeduplicator) Claim(ctx context.Context, link string) (bool, error) {
	norm := NormalizeLink(link)
	if d == nil || d.rdb == nil || norm == "" {
		return false, nil
	}
	ok, err := d.rdb.SetNX(ctx, keyPrefix+hashLink(norm), "1", d.window).Result()
	if err != nil {
		return false, fmt.Errorf("dedup setnx: %w", err)
	}
	return !ok, nil
}

// Release forgets link so it can be submitted again.
func (d *LinkDeduplicator) Release(ctx context.Context, link string) error {
	norm := NormalizeLink(link)
	if d == nil || d.rdb == nil || norm == "" {
		return nil
	}
	if err := d.rdb.Del(ctx, keyPrefix+hashLink(norm)).Err(); err != nil {
		return fmt.Errorf("dedup del: %w", err)
	}
	return nil
}

// NormalizeLink trims whitespace and trailing slashes and lower-cases the link.
func NormalizeLink(link string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(link)), "/")
}

func hashLink(link string) string {
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:])
}

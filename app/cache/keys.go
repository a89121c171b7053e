package cache

import (
	"context"
	"strings"
	"time"
)

const (
	ProductListKey = "products:all"
	ProductListTTL = 5 * time.Minute
	ProductTTL     = 30 * time.Minute
	CartTTL        = 24 * time.Hour
	WishlistTTL    = 15 * time.Minute
)

func ProductKey(productID string) string {
	return "product:" + productID
}

// CartKey holds a hash of cart line id to the JSON encoded line.
func CartKey(userID string) string {
	return "cart:" + userID
}

// WishlistKey holds the set of product ids on the user's wishlist.
func WishlistKey(userID string) string {
	return "wishlist:user:" + userID
}

// patterns matches every key this package writes.
var patterns = []string{ProductListKey, "product:*", "cart:*", "wishlist:user:*"}

// Flush drops every cached product, cart and wishlist entry. Other keys in
// the same Redis database are left alone.
func Flush(ctx context.Context, c Cache) (int, error) {
	total := 0
	for _, pattern := range patterns {
		n, err := c.DeletePattern(ctx, pattern)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func family(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

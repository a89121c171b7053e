package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rakhulsr/go-ecommerce-api/app/testutil"
	"github.com/alicebob/miniredis/v2"
)

type cachedProduct struct {
	ID    string `json:"id"`
	Stock int    `json:"stock"`
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, client := testutil.NewTestRedis(t)
	return NewRedisCache(client, testutil.DiscardLogger()), mr
}

func TestRedisCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	var got cachedProduct
	hit, err := c.Get(ctx, ProductKey("p1"), &got)
	if err != nil || hit {
		t.Fatalf("expected clean miss, got hit=%v err=%v", hit, err)
	}

	if err := c.Set(ctx, ProductKey("p1"), cachedProduct{ID: "p1", Stock: 4}, ProductTTL); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	hit, err = c.Get(ctx, ProductKey("p1"), &got)
	if err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if got.Stock != 4 {
		t.Errorf("expected stock 4, got %d", got.Stock)
	}

	mr.FastForward(ProductTTL + time.Second)
	hit, _ = c.Get(ctx, ProductKey("p1"), &got)
	if hit {
		t.Error("expected entry to expire after its ttl")
	}
}

func TestRedisCacheDropsUndecodableEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	if err := c.client.Set(ctx, ProductKey("bad"), "{not json", 0).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	var got cachedProduct
	hit, err := c.Get(ctx, ProductKey("bad"), &got)
	if hit || err == nil {
		t.Fatalf("expected decode failure, got hit=%v err=%v", hit, err)
	}
	if exists, _ := c.Exists(ctx, ProductKey("bad")); exists {
		t.Error("expected undecodable entry to be removed")
	}
}

func TestReadThrough(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	calls := 0
	load := func(ctx context.Context) ([]cachedProduct, error) {
		calls++
		return []cachedProduct{{ID: "a", Stock: 1}, {ID: "b", Stock: 2}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := ReadThrough(ctx, c, ProductListKey, ProductListTTL, load)
		if err != nil {
			t.Fatalf("read through failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 products, got %d", len(got))
		}
	}
	if calls != 1 {
		t.Errorf("expected loader to run once, ran %d times", calls)
	}
}

func TestReadThroughDoesNotStoreValueInvalidatedDuringLoad(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	key := ProductKey("p1")

	calls := 0
	load := func(ctx context.Context) (cachedProduct, error) {
		calls++
		if calls == 1 {
			// A writer commits and invalidates after this load read the store.
			if err := c.Delete(ctx, key); err != nil {
				t.Fatalf("delete failed: %v", err)
			}
			return cachedProduct{ID: "p1", Stock: 5}, nil
		}
		return cachedProduct{ID: "p1", Stock: 2}, nil
	}

	got, err := ReadThrough(ctx, c, key, ProductTTL, load)
	if err != nil || got.Stock != 5 {
		t.Fatalf("expected the loaded value back, got %+v (%v)", got, err)
	}
	if exists, _ := c.Exists(ctx, key); exists {
		t.Fatal("expected the stale load to stay out of the cache")
	}

	for i := 0; i < 2; i++ {
		got, err = ReadThrough(ctx, c, key, ProductTTL, load)
		if err != nil || got.Stock != 2 {
			t.Fatalf("expected fresh stock 2, got %+v (%v)", got, err)
		}
	}
	if calls != 2 {
		t.Errorf("expected the fresh value to be cached, loader ran %d times", calls)
	}
}

func TestReplaceRefusedAfterConcurrentWrite(t *testing.T) {
	ctx := context.Background()

	writers := map[string]func(c *RedisCache, key string) error{
		"delete": func(c *RedisCache, key string) error {
			return c.Delete(ctx, key)
		},
		"hash write-through": func(c *RedisCache, key string) error {
			_, err := c.HashSetIfExists(ctx, key, "line-1", `{"id":"line-1"}`, CartTTL)
			return err
		},
		"hash delete": func(c *RedisCache, key string) error {
			return c.HashDelete(ctx, key, "line-1")
		},
		"member add": func(c *RedisCache, key string) error {
			return c.MemberAdd(ctx, key, "p9", WishlistTTL)
		},
		"member remove": func(c *RedisCache, key string) error {
			return c.MemberRemove(ctx, key, "p1")
		},
	}

	for name, write := range writers {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestCache(t)
			hashKey, setKey := CartKey("u1"), WishlistKey("u1")

			hashGen, _ := c.Generation(ctx, hashKey)
			setGen, _ := c.Generation(ctx, setKey)
			if err := write(c, hashKey); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			if err := write(c, setKey); err != nil {
				t.Fatalf("write failed: %v", err)
			}

			ok, err := c.HashReplaceIfGeneration(ctx, hashKey, map[string]string{"line-0": `{"id":"line-0"}`}, CartTTL, hashGen)
			if err != nil || ok {
				t.Errorf("expected hash replace to be refused, got ok=%v err=%v", ok, err)
			}
			if ok, _ := c.MemberTest(ctx, setKey, "p1"); ok {
				t.Error("expected no stale member before replace")
			}
			ok, err = c.MemberReplaceIfGeneration(ctx, setKey, []string{"p1"}, WishlistTTL, setGen)
			if err != nil || ok {
				t.Errorf("expected set replace to be refused, got ok=%v err=%v", ok, err)
			}
			if ok, _ := c.MemberTest(ctx, setKey, "p1"); ok {
				t.Error("expected stale member p1 to stay out of the set")
			}
		})
	}
}

func TestReadThroughDoesNotCacheLoaderErrors(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	errMissing := errors.New("missing")

	_, err := ReadThrough(ctx, c, ProductKey("gone"), ProductTTL, func(ctx context.Context) (*cachedProduct, error) {
		return nil, errMissing
	})
	if !errors.Is(err, errMissing) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if exists, _ := c.Exists(ctx, ProductKey("gone")); exists {
		t.Error("expected nothing cached for a failed load")
	}
}

func TestReadThroughSurvivesCacheOutage(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	mr.SetError("ERR server unavailable")

	got, err := ReadThrough(ctx, c, ProductKey("p1"), ProductTTL, func(ctx context.Context) (cachedProduct, error) {
		return cachedProduct{ID: "p1", Stock: 9}, nil
	})
	if err != nil {
		t.Fatalf("expected store value despite cache outage, got %v", err)
	}
	if got.Stock != 9 {
		t.Errorf("expected stock 9, got %d", got.Stock)
	}
}

func TestDeletePattern(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	for _, key := range []string{ProductKey("1"), ProductKey("2"), ProductListKey, CartKey("u1")} {
		if err := c.Set(ctx, key, 1, time.Minute); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}

	n, err := c.DeletePattern(ctx, "product:*")
	if err != nil {
		t.Fatalf("delete pattern failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted keys, got %d", n)
	}
	if exists, _ := c.Exists(ctx, ProductListKey); !exists {
		t.Error("expected product list key to survive product:* pattern")
	}
}

func TestFlush(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	for _, key := range []string{ProductKey("1"), ProductListKey, CartKey("u1"), WishlistKey("u1"), "session:other"} {
		if err := mr.Set(key, "x"); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	n, err := Flush(ctx, c)
	if err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 flushed keys, got %d", n)
	}
	if !mr.Exists("session:other") {
		t.Error("expected unrelated key to survive")
	}
}

func TestHashSetIfExists(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	key := CartKey("u1")

	written, err := c.HashSetIfExists(ctx, key, "line-1", `{"id":"line-1"}`, CartTTL)
	if err != nil {
		t.Fatalf("hset failed: %v", err)
	}
	if written {
		t.Fatal("expected no write into an absent hash")
	}
	if exists, _ := c.Exists(ctx, key); exists {
		t.Fatal("expected absent hash to stay absent")
	}

	gen, err := c.Generation(ctx, key)
	if err != nil || gen != 1 {
		t.Fatalf("expected the skipped write to move the generation to 1, got %d (%v)", gen, err)
	}
	if ok, err := c.HashReplaceIfGeneration(ctx, key, map[string]string{"line-0": `{"id":"line-0"}`}, CartTTL, gen); err != nil || !ok {
		t.Fatalf("replace failed: ok=%v err=%v", ok, err)
	}
	written, err = c.HashSetIfExists(ctx, key, "line-1", `{"id":"line-1"}`, CartTTL)
	if err != nil || !written {
		t.Fatalf("expected write into present hash, got written=%v err=%v", written, err)
	}

	fields, err := c.HashGetAll(ctx, key)
	if err != nil {
		t.Fatalf("hgetall failed: %v", err)
	}
	if len(fields) != 2 {
		t.Errorf("expected 2 fields, got %d", len(fields))
	}

	if err := c.HashDelete(ctx, key, "line-0"); err != nil {
		t.Fatalf("hdel failed: %v", err)
	}
	fields, _ = c.HashGetAll(ctx, key)
	if _, ok := fields["line-0"]; ok {
		t.Error("expected line-0 removed")
	}
}

func TestMembers(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	key := WishlistKey("u1")

	if ok, err := c.MemberReplaceIfGeneration(ctx, key, []string{"p1", "p2"}, WishlistTTL, 0); err != nil || !ok {
		t.Fatalf("replace failed: ok=%v err=%v", ok, err)
	}
	if ok, _ := c.MemberTest(ctx, key, "p2"); !ok {
		t.Error("expected p2 in set")
	}
	if err := c.MemberRemove(ctx, key, "p2"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if ok, _ := c.MemberTest(ctx, key, "p2"); ok {
		t.Error("expected p2 removed")
	}
	if err := c.MemberAdd(ctx, key, "p3", WishlistTTL); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if ok, _ := c.MemberTest(ctx, key, "p3"); !ok {
		t.Error("expected p3 in set")
	}
}

func TestFamily(t *testing.T) {
	tests := map[string]string{
		ProductListKey:   "products",
		ProductKey("x"):  "product",
		CartKey("u"):     "cart",
		WishlistKey("u"): "wishlist",
		"no-separator":   "no-separator",
	}
	for key, want := range tests {
		if got := family(key); got != want {
			t.Errorf("family(%q) = %q, want %q", key, got, want)
		}
	}
}

package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNull(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set() error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v, want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		key  string
		data []byte
		ttl  time.Duration
		hit  bool
	}{
		{"fresh", "a", []byte{0x89, 'P', 'N', 'G'}, time.Hour, true},
		{"no expiry", "b", []byte("raw"), 0, true},
		{"expired", "c", []byte("old"), -time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Set(ctx, tt.key, tt.data, tt.ttl); err != nil {
				t.Fatalf("Set() error: %v", err)
			}
			got, hit, err := c.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && string(got) != string(tt.data) {
				t.Errorf("data = %q, want %q", got, tt.data)
			}
		})
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("k")
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get() = hit %v, err %v, want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileCacheStatsAndPrune(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "keep", []byte("1234"), time.Hour)
	_ = c.Set(ctx, "forever", []byte("56"), 0)
	_ = c.Set(ctx, "stale", []byte("78"), time.Minute)
	bad := filepath.Join(c.Dir(), "zz", "bad.json")
	_ = os.MkdirAll(filepath.Dir(bad), 0o755)
	_ = os.WriteFile(bad, []byte("{"), 0o644)

	now = now.Add(10 * time.Minute)

	st, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.Entries != 4 || st.Expired != 2 || st.Bytes == 0 {
		t.Errorf("Stats() = %+v, want 4 entries with 2 expired", st)
	}

	removed, err := c.Prune()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("Prune() removed %d, want 2", removed)
	}
	for _, key := range []string{"keep", "forever"} {
		if _, hit, _ := c.Get(ctx, key); !hit {
			t.Errorf("%s pruned", key)
		}
	}
	if st, _ := c.Stats(); st.Entries != 2 || st.Expired != 0 {
		t.Errorf("Stats() after prune = %+v", st)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "x", []byte("1"), 0)
	_ = c.Set(ctx, "y", []byte("2"), 0)
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "x"); hit {
		t.Error("entry survived Clear")
	}
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) = %v", err)
	}
}

func TestViewKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	rgb := k.ImageKey("http://host/load_image/", "42", "RGB")
	if !strings.HasPrefix(rgb, "view:") || !strings.HasSuffix(rgb, ":42:RGB") {
		t.Errorf("ImageKey() = %q", rgb)
	}
	if rgb == k.ImageKey("http://host/load_image/", "42", "mask") {
		t.Error("views share a key")
	}
	if rgb == k.ImageKey("http://other/load_image/", "42", "RGB") {
		t.Error("hosts share a key")
	}

	scoped := ViewKeyer{Prefix: "viewgrid:"}
	if got := scoped.ImageKey("http://host/load_image/", "42", "RGB"); got != "viewgrid:"+rgb {
		t.Errorf("prefixed ImageKey() = %q", got)
	}
}

func TestHash(t *testing.T) {
	h := Hash([]byte("hello"))
	if h != Hash([]byte("hello")) {
		t.Error("Hash is not deterministic")
	}
	if h == Hash([]byte("world")) {
		t.Error("different inputs hash alike")
	}
	if len(h) != 64 {
		t.Errorf("len(Hash) = %d, want 64", len(h))
	}
}

package capcache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestKey_StableAndSafe(t *testing.T) {
	k1 := Key("grundbuch", "http://qgis:8001/ows/")
	k2 := Key("grundbuch", "http://qgis:8001/ows/")
	if k1 != k2 {
		t.Fatalf("key not stable: %q vs %q", k1, k2)
	}
	if !strings.HasPrefix(k1, "capabilities:grundbuch:u=") {
		t.Fatalf("unexpected key shape: %q", k1)
	}
	if strings.ContainsAny(Key("so map/übersicht", "u"), " /ü") {
		t.Fatalf("key not sanitized: %q", Key("so map/übersicht", "u"))
	}
}

func TestKey_DiffersPerServer(t *testing.T) {
	if Key("grundbuch", "http://a/ows") == Key("grundbuch", "http://b/ows") {
		t.Fatal("keys for different servers must differ")
	}
}

func TestMemory_GetSet(t *testing.T) {
	m := NewMemory(8, time.Minute)
	ctx := context.Background()

	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("expected miss on empty store")
	}
	if err := m.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, ok, err := m.Get(ctx, "k")
	if err != nil || !ok || string(b) != "v" {
		t.Fatalf("get: b=%q ok=%v err=%v", b, ok, err)
	}
}

func TestRedis_GetSetAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	r, err := NewRedis(ctx, mr.Addr(), 90*time.Second)
	if err != nil {
		t.Fatalf("new redis: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	if _, ok, err := r.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
	if err := r.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, ok, err := r.Get(ctx, "k")
	if err != nil || !ok || string(b) != "v" {
		t.Fatalf("get: b=%q ok=%v err=%v", b, ok, err)
	}
	if ttl := mr.TTL("k"); ttl != 90*time.Second {
		t.Fatalf("ttl=%v want 90s", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := r.Get(ctx, "k"); ok {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	if _, err := New(context.Background(), "memcached", "", time.Minute); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

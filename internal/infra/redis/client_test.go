package redis

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
)

func TestKeyPrefix(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	tests := []struct {
		prefix string
		want   string
	}{
		{"", "n1study:cache:item:1"},
		{"test:", "test:cache:item:1"},
		{"app", "app:cache:item:1"},
	}
	for _, tt := range tests {
		c := NewFromClient(rdb, tt.prefix)
		if got := c.key("cache", "item:1"); got != tt.want {
			t.Errorf("prefix %q: key = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New(context.Background(), Config{URL: "http://not-redis"}); err == nil {
		t.Fatal("expected error for non-redis url")
	}
}

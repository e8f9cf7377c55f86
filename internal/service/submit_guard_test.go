package service

import (
	"testing"

	"github.com/go-redis/redis/v8"
)

func TestNewSubmitGuard(t *testing.T) {
	// 客户端只在发命令时建立连接
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { rdb.Close() })

	tests := []struct {
		name      string
		rdb       *redis.Client
		dedupe    bool
		wantRedis bool
	}{
		{"redis with dedupe", rdb, true, true},
		{"redis without dedupe", rdb, false, false},
		{"no redis", nil, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, isRedis := NewSubmitGuard(tt.rdb, tt.dedupe).(*RedisSubmitGuard)
			if isRedis != tt.wantRedis {
				t.Errorf("redis guard = %v, want %v", isRedis, tt.wantRedis)
			}
		})
	}
}

func TestNopSubmitGuardNeverBlocks(t *testing.T) {
	g := NewSubmitGuard(nil, true)
	for i := 0; i < 2; i++ {
		release, err := g.Acquire(bg, 1, 1)
		if err != nil {
			t.Fatalf("Acquire #%d: %v", i+1, err)
		}
		release()
	}
}

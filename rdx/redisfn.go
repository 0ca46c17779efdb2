package rdx

import (
	"log"
	"os"
	"time"

	"timegrid/globals"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

func init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{Addr: addr})
}

// Session token cache. Hash "tokki" maps userid -> current access token so
// logout can invalidate a token before its JWT expiry.

func RdxHset(hash, field, value string) error {
	return Conn.HSet(globals.Ctx, hash, field, value).Err()
}

func RdxHget(hash, field string) (string, error) {
	return Conn.HGet(globals.Ctx, hash, field).Result()
}

func RdxHdel(hash, field string) (int64, error) {
	return Conn.HDel(globals.Ctx, hash, field).Result()
}

func RdxSet(key, value string) error {
	return Conn.Set(globals.Ctx, key, value, 0).Err()
}

func RdxGet(key string) (string, error) {
	return Conn.Get(globals.Ctx, key).Result()
}

func SetWithExpiry(key, value string, ttl time.Duration) error {
	return Conn.Set(globals.Ctx, key, value, ttl).Err()
}

// TokenActive reports whether the cached token for userid matches the
// presented one. Redis being down fails open; the JWT signature check
// already ran.
func TokenActive(userID, token string) bool {
	cached, err := RdxHget("tokki", userID)
	if err == redis.Nil {
		return false
	}
	if err != nil {
		log.Printf("redis token lookup failed: %v", err)
		return true
	}
	return cached == token
}

package lib

import (
	"context"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

// MarkEventProcessed records a webhook event id so redeliveries can be
// skipped. Returns false when the id was already seen.
func MarkEventProcessed(ctx context.Context, eventId string) bool {
	rd := GetRedisClient()
	if rd == nil {
		return true
	}
	ok, err := rd.SetNX(ctx, "stripe:event:"+eventId, 1, 0).Result()
	if err != nil {
		log.Printf("[redis] Error recording event %s: %s\n", eventId, err.Error())
		return true
	}
	return ok
}

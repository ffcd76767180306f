package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/user/rental-crawler/internal/repository"
)

const crawlQueueKey = "rental:queue"

// QueueRepoImpl is a FIFO keyword queue on a Redis list.
type QueueRepoImpl struct {
	client *redis.Client
}

func NewQueueRepo(client *redis.Client) *QueueRepoImpl {
	return &QueueRepoImpl{client: client}
}

// Push adds a keyword to the left side of the list.
func (r *QueueRepoImpl) Push(ctx context.Context, keyword string) error {
	return r.client.LPush(ctx, crawlQueueKey, keyword).Err()
}

// Pop takes the oldest keyword from the right side of the list.
func (r *QueueRepoImpl) Pop(ctx context.Context) (string, error) {
	keyword, err := r.client.RPop(ctx, crawlQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", repository.ErrQueueEmpty
	}
	return keyword, err
}

func (r *QueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, crawlQueueKey).Result()
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/rental-crawler/pkg/utils"
)

const recentKeywordPrefix = "rental:recent:"

// RecentKeywordRepoImpl marks keywords as recently crawled with expiring keys.
type RecentKeywordRepoImpl struct {
	client *redis.Client
}

func NewRecentKeywordRepo(client *redis.Client) *RecentKeywordRepoImpl {
	return &RecentKeywordRepoImpl{client: client}
}

func (r *RecentKeywordRepoImpl) generateKey(keyword string) string {
	return fmt.Sprintf("%s%s", recentKeywordPrefix, utils.KeywordKey(keyword))
}

// MarkRecent sets the keyword's key with an expiry (SETEX).
func (r *RecentKeywordRepoImpl) MarkRecent(ctx context.Context, keyword string, expiry time.Duration) error {
	return r.client.SetEx(ctx, r.generateKey(keyword), "1", expiry).Err()
}

func (r *RecentKeywordRepoImpl) IsRecent(ctx context.Context, keyword string) (bool, error) {
	val, err := r.client.Exists(ctx, r.generateKey(keyword)).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

// RemoveRecent deletes the mark, used for forced crawls.
func (r *RecentKeywordRepoImpl) RemoveRecent(ctx context.Context, keyword string) error {
	return r.client.Del(ctx, r.generateKey(keyword)).Err()
}

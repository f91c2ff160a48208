// Package redisstore keeps short-lived LINE channel access tokens in Redis,
// keyed by channel ID, with the token lifetime as the entry TTL.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tacck/line-api-use-case-smart-retail/internal/domain"
)

const tokenKeyPrefix = "channel_access_token:"

type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

func (s *TokenStore) GetChannelAccessToken(ctx context.Context, channelID string) (string, error) {
	token, err := s.client.Get(ctx, tokenKeyPrefix+channelID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrChannelTokenNotFound
		}
		return "", fmt.Errorf("get channel access token: %w", err)
	}
	return token, nil
}

// PutChannelAccessToken stores a token for its remaining lifetime; the entry
// expires with the token so a stale token is never served.
func (s *TokenStore) PutChannelAccessToken(ctx context.Context, channelID, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, tokenKeyPrefix+channelID, token, ttl).Err(); err != nil {
		return fmt.Errorf("put channel access token: %w", err)
	}
	return nil
}

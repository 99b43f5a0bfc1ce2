package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceService tracks which users currently hold a live chat connection,
// per group. It is advisory state: the gateway keeps working if Redis is down.
type PresenceService struct {
	client *redis.Client
}

func NewPresenceService(client *redis.Client) *PresenceService {
	return &PresenceService{client: client}
}

func groupPresenceKey(groupID string) string {
	return fmt.Sprintf("presence:group:%s", groupID)
}

func (p *PresenceService) SetUserOnline(ctx context.Context, groupID, userID string) error {
	pipe := p.client.Pipeline()
	pipe.SAdd(ctx, groupPresenceKey(groupID), userID)
	pipe.HSet(ctx, fmt.Sprintf("user:%s:status", userID), map[string]interface{}{
		"status":    "online",
		"last_seen": time.Now().Unix(),
	})
	pipe.Expire(ctx, fmt.Sprintf("user:%s:status", userID), 5*time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("Failed to set user online", "groupID", groupID, "userID", userID, "error", err)
		return err
	}
	return nil
}

func (p *PresenceService) SetUserOffline(ctx context.Context, groupID, userID string) error {
	pipe := p.client.Pipeline()
	pipe.SRem(ctx, groupPresenceKey(groupID), userID)
	pipe.HSet(ctx, fmt.Sprintf("user:%s:status", userID), map[string]interface{}{
		"status":    "offline",
		"last_seen": time.Now().Unix(),
	})

	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("Failed to set user offline", "groupID", groupID, "userID", userID, "error", err)
		return err
	}
	return nil
}

func (p *PresenceService) OnlineUsers(ctx context.Context, groupID string) ([]string, error) {
	return p.client.SMembers(ctx, groupPresenceKey(groupID)).Result()
}

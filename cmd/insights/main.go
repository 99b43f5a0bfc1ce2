package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"genielearn-backend/internal/config"
	"genielearn-backend/internal/database"
	"genielearn-backend/internal/events"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// insights consumes chat events from Kafka and maintains per-group activity
// counters in Redis. Counters feed the group dashboard:
//
//	insights:group:<id>:messages:<yyyy-mm-dd>  daily message count
//	insights:group:<id>:senders:<yyyy-mm-dd>   distinct active senders
const counterTTL = 90 * 24 * time.Hour

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	redisClient, err := database.NewRedisConnection(&cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topic,
		GroupID:        cfg.Kafka.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("Insights consumer shutting down...")
		cancel()
	}()

	slog.Info("Insights consumer started", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("Failed to read from Kafka", "error", err)
			time.Sleep(time.Second)
			continue
		}

		var event events.ChatEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			slog.Warn("Skipping malformed event", "offset", msg.Offset, "error", err)
			continue
		}
		if event.Kind != events.KindMessagePersisted {
			continue
		}

		if err := recordActivity(ctx, redisClient, &event); err != nil {
			slog.Error("Failed to record activity", "groupID", event.GroupID, "error", err)
		}
	}
}

func recordActivity(ctx context.Context, client *redis.Client, event *events.ChatEvent) error {
	day := event.Timestamp.UTC().Format("2006-01-02")
	messagesKey := fmt.Sprintf("insights:group:%s:messages:%s", event.GroupID, day)
	sendersKey := fmt.Sprintf("insights:group:%s:senders:%s", event.GroupID, day)

	pipe := client.Pipeline()
	pipe.Incr(ctx, messagesKey)
	pipe.Expire(ctx, messagesKey, counterTTL)
	pipe.SAdd(ctx, sendersKey, event.SenderID)
	pipe.Expire(ctx, sendersKey, counterTTL)
	_, err := pipe.Exec(ctx)
	return err
}

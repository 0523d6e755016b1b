package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/khalteck/Rooms/internal/api"
	"github.com/khalteck/Rooms/internal/auth"
	"github.com/khalteck/Rooms/internal/config"
	"github.com/khalteck/Rooms/internal/events"
	"github.com/khalteck/Rooms/internal/hub"
	"github.com/khalteck/Rooms/internal/logger"
	"github.com/khalteck/Rooms/internal/presence"
	"github.com/khalteck/Rooms/internal/repository"
	"github.com/khalteck/Rooms/internal/service"
	"github.com/khalteck/Rooms/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("ROOMS_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("config: jwt.secret is required")
	}

	zlog, err := logger.New(!cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := repository.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		zlog.Fatalw("mongo: connect failed", "err", err)
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(c)
	}()

	db := client.Database(cfg.Mongo.Database)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		zlog.Fatalw("mongo: index creation failed", "err", err)
	}

	users := repository.NewUserStore(db)
	rooms := repository.NewRoomStore(db)
	messages := repository.NewMessageStore(db)
	notifications := repository.NewNotificationStore(db)

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			zlog.Warnw("redis: unreachable, presence keys disabled", "err", err)
			rdb = nil
		}
	}

	publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicMessageSent)
	defer publisher.Close()

	tokens := auth.NewManager(cfg.JWT.Secret, cfg.TokenTTL)
	h := hub.New()
	tracker := presence.NewTracker(users, rdb, cfg.Redis.Prefix, zlog)

	authSvc := service.NewAuthService(users, tokens)
	roomSvc := service.NewRoomService(rooms, users, messages, zlog)
	messageSvc := service.NewMessageService(rooms, messages, notifications, h, publisher, zlog)
	notificationSvc := service.NewNotificationService(notifications)

	socket := ws.NewHandler(h, tokens, tracker, roomSvc, messageSvc, notificationSvc, ws.Config{
		PingInterval:   cfg.PingInterval,
		WriteDeadline:  cfg.WriteDeadline,
		MaxMessageSize: cfg.WS.MaxMessageSizeBytes,
	}, zlog)

	app := api.New(authSvc, roomSvc, messageSvc, notificationSvc, tokens, users, socket, cfg.IsProduction(), zlog)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		zlog.Infow("server: listening", "addr", addr, "env", cfg.App.Env)
		if err := app.Listen(addr); err != nil {
			zlog.Fatalw("server: listen failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Infow("server: shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Errorw("server: shutdown error", "err", err)
	}
}

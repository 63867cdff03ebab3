package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"eventcheck/internal/attendance"
	"eventcheck/internal/config"
	"eventcheck/internal/feed"
	"eventcheck/internal/queue"
	"eventcheck/internal/registration"
	"eventcheck/internal/store"
)

// Worker consumes scan messages, logs the audit trail, and drops the cached
// dashboard stats so the next poll recomputes.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "")
	}

	var statsCache *redis.Client
	if cfg.UseStatsCache() {
		statsCache = redisClient.Client
	}

	participants := registration.NewRepository(db.Client)
	ledger := attendance.NewRepository(db.Client)
	feedSvc := feed.NewService(participants, ledger, statsCache, cfg.StatsCacheTTL)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for scan events...")
	for msg := range messages {
		if msg.Type != queue.TypeScan {
			continue
		}

		id := string(msg.Body)
		rec, err := ledger.Get(ctx, id)
		if err != nil {
			log.Printf("fetch record %s failed: %v", id, err)
			continue
		}
		log.Printf("scan: %s (%s) at %s by %s in %s",
			rec.Name, rec.RegistrationID, rec.Timestamp.Format("15:04:05"), rec.ScannedBy, rec.Location)

		feedSvc.InvalidateStats(ctx)
	}

	log.Println("worker stopped")
}

package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"mediguru/internal/backup"
	"mediguru/internal/cloudinary"
	"mediguru/internal/config"
	"mediguru/internal/queue"
	"mediguru/internal/store"
)

// Worker drains upload events from Redis and mirrors each backup artifact to Cloudinary.
func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.CloudinaryConfigured() {
		log.Fatal("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	if redisClient == nil {
		log.Fatal("REDIS_ADDR is required for the worker")
	}
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Printf("WARNING: redis not reachable at %s, will keep retrying", cfg.RedisAddr)
	}

	files, err := backup.NewFileStore(cfg.BackupDir)
	if err != nil {
		log.Fatalf("backup dir: %v", err)
	}

	cdn := cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
	q := queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)

	log.Printf("worker started, mirroring %s to cloudinary folder %q", cfg.BackupDir, cfg.CloudinaryFolder)
	if err := backup.NewMirror(files, cdn).Run(ctx, q); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker failed: %v", err)
	}
	log.Println("worker stopped")
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"mediguru/internal/account"
	"mediguru/internal/auth"
	"mediguru/internal/backup"
	"mediguru/internal/cloudinary"
	"mediguru/internal/config"
	"mediguru/internal/handler"
	"mediguru/internal/httpmiddleware"
	"mediguru/internal/ingest"
	"mediguru/internal/meeting"
	"mediguru/internal/queue"
	"mediguru/internal/statistics"
	"mediguru/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewDB(cfg.DatabaseURL)
	if db == nil {
		return err
	}
	if err != nil {
		log.Printf("warning: db not reachable: %v", err)
	}
	defer db.Close()

	if err == nil && cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		log.Println("schema up to date")
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	users := account.NewRepository(db.Client)
	if err := account.SeedAdmin(ctx, users, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Printf("warning: %v", err)
	}

	files, err := backup.NewFileStore(cfg.BackupDir)
	if err != nil {
		return err
	}

	up := uploader(cfg)
	events := eventQueue(cfg, redisClient, up != nil)
	if mem, ok := events.(*queue.InMemory); ok {
		go func() {
			if err := backup.NewMirror(files, up).Run(ctx, mem); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("backup mirror stopped: %v", err)
			}
		}()
	}

	h := handler.New(handler.Options{
		Accounts:     account.NewService(users, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL),
		Meetings:     meeting.NewService(meeting.NewRepository(db.Client), cfg.Location),
		Statistics:   statistics.NewService(statistics.NewRepository(db.Client)),
		Uploads:      ingest.NewService(ingest.NewRepository(db.Client), files, events),
		Display:      cfg.Display,
		ExposeErrors: cfg.ExposeErrors,
		DB:           db,
		Redis:        redisClient,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.Metrics())
	r.Use(httpmiddleware.RateLimit(limiter(cfg, redisClient)))

	h.Register(r, auth.Bearer(cfg.JWTSigningKey, cfg.JWTIssuer))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// eventQueue picks the upload event backend. nil disables publishing. The
// in-memory queue is only built when this process runs the mirror to drain it.
func eventQueue(cfg config.App, rdb *store.Redis, mirrorInProcess bool) queue.Queue {
	switch cfg.QueueBackend {
	case "memory":
		if !mirrorInProcess {
			log.Println("QUEUE_BACKEND=memory without Cloudinary credentials, upload events disabled")
			return nil
		}
		return queue.NewInMemory(64)
	case "redis":
		if rdb == nil {
			log.Println("QUEUE_BACKEND=redis but REDIS_ADDR is empty, upload events disabled")
			return nil
		}
		return queue.NewRedisQueue(rdb.Client, queue.DefaultKey)
	default:
		return nil
	}
}

func uploader(cfg config.App) *cloudinary.Client {
	if !cfg.CloudinaryConfigured() {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
		return nil
	}
	log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	return cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
}

func limiter(cfg config.App, rdb *store.Redis) httpmiddleware.Limiter {
	if cfg.RateLimitBackend == "redis" && rdb != nil {
		return httpmiddleware.NewRedisWindow(rdb.Client, cfg.RateLimitPerMin)
	}
	return httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
}

func init() {
	if _, ok := os.LookupEnv("JWT_SIGNING_KEY"); !ok {
		log.Println("warning: JWT_SIGNING_KEY not set, using development key")
	}
}

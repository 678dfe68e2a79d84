package main

import (
	"context"
	"log"

	"bakatter.app/server/internal/cache"
	"bakatter.app/server/internal/config"
	"bakatter.app/server/internal/model"
	"bakatter.app/server/internal/repository"
	"bakatter.app/server/internal/server"
	"bakatter.app/server/pkg/database"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := seedCategories(db); err != nil {
		log.Fatalf("failed to seed categories: %v", err)
	}

	snapshots, err := cache.Open(cfg.CacheDir)
	if err != nil {
		log.Fatalf("failed to open snapshot cache: %v", err)
	}
	defer snapshots.Close()

	redisClient := connectRedis(cfg.RedisURL)

	srv := server.NewServer(cfg, db, redisClient, snapshots)

	log.Printf("listening on :%s", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Category{},
		&model.Post{},
		&model.Report{},
	)
}

func seedCategories(db *gorm.DB) error {
	repo := repository.NewCategoryRepository(db)
	return repo.Seed(context.Background(), model.DefaultCategories())
}

// connectRedis returns nil when REDIS_URL is unset or unreachable; posting
// rate limits are simply disabled in that case.
func connectRedis(url string) *redis.Client {
	if url == "" {
		log.Println("REDIS_URL not set, rate limiting disabled")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("invalid REDIS_URL, rate limiting disabled: %v", err)
		return nil
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis unreachable, rate limiting disabled: %v", err)
		return nil
	}
	return client
}

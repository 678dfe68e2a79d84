package server

import (
	"context"
	"log"
	"strings"
	"time"

	"bakatter.app/server/internal/cache"
	"bakatter.app/server/internal/config"
	"bakatter.app/server/internal/handler"
	"bakatter.app/server/internal/middleware"
	"bakatter.app/server/internal/preview"
	"bakatter.app/server/internal/repository"
	"bakatter.app/server/internal/service"
	"bakatter.app/server/internal/store"
	"bakatter.app/server/pkg/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	posts       *store.PostStore
	cfg         *config.Config
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, snapshots *cache.Cache) *Server {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	reportRepo := repository.NewReportRepository(db)

	imageStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	meiliClient := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := service.NewSearchService(meiliClient)

	var previews preview.Fetcher
	if cfg.PreviewServiceURL != "" {
		previews = preview.NewClient(cfg.PreviewServiceURL, cfg.PreviewToken)
	}

	posts := store.NewPostStore(postRepo, snapshots)
	if err := posts.Load(context.Background()); err != nil {
		log.Printf("server: initial post load failed, starting empty: %v", err)
	}

	authSvc := service.NewAuthService(userRepo, snapshots, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := handler.NewAuthHandler(authSvc)

	composerSvc := service.NewComposerService(posts, userRepo, imageStorage, previews, searchSvc,
		redisClient, cfg.CloudinaryUploadFolder, cfg.RateLimit)
	postSvc := service.NewPostService(posts, searchSvc)
	postHandler := handler.NewPostHandler(composerSvc, postSvc, authSvc)

	reactionSvc := service.NewReactionService(posts)
	reactionHandler := handler.NewReactionHandler(reactionSvc)

	profileSvc := service.NewProfileService(userRepo, snapshots)
	profileHandler := handler.NewProfileHandler(profileSvc)

	reportSvc := service.NewReportService(reportRepo)
	reportHandler := handler.NewReportHandler(reportSvc)

	searchHandler := handler.NewSearchHandler(searchSvc)
	categoryHandler := handler.NewCategoryHandler(categoryRepo)

	// Periodically re-pull the canonical post list so a node that missed a
	// remote write converges without a restart.
	if cfg.ResyncEvery > 0 {
		go func() {
			ticker := time.NewTicker(cfg.ResyncEvery)
			defer ticker.Stop()
			for range ticker.C {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := posts.Resync(ctx); err != nil {
					log.Printf("server: periodic resync failed: %v", err)
				}
				cancel()
			}
		}()
	}

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Public reads carry an optional token so a signed-in viewer sees their
	// current profile on their own posts.
	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/posts", postHandler.Feed)
		public.GET("/posts/:post_id", postHandler.Get)
		public.GET("/search", searchHandler.Search)
		public.GET("/categories", categoryHandler.List)
		public.GET("/profile/:username", profileHandler.GetByUsername)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.DELETE("/auth/account", authHandler.DeleteAccount)

		protected.POST("/posts", postHandler.Create)
		protected.POST("/posts/:post_id/comments", postHandler.CreateComment)
		protected.DELETE("/posts/:post_id/nodes/:node_id", postHandler.DeleteNode)

		protected.POST("/reactions", reactionHandler.Toggle)

		protected.PUT("/profile", profileHandler.Update)

		protected.POST("/reports", reportHandler.Create)
	}

	return &Server{
		engine:      router,
		posts:       posts,
		cfg:         cfg,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

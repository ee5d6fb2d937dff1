package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/givelane/givelane-api/api/swagger"
	"github.com/givelane/givelane-api/internal/handler"
	"github.com/givelane/givelane-api/internal/middleware"
	"github.com/givelane/givelane-api/internal/repository"
	"github.com/givelane/givelane-api/internal/service"
	"github.com/givelane/givelane-api/pkg/cache"
	"github.com/givelane/givelane-api/pkg/config"
	"github.com/givelane/givelane-api/pkg/database"
	"github.com/givelane/givelane-api/pkg/jobs"
	"github.com/givelane/givelane-api/pkg/logger"
	corsmiddleware "github.com/givelane/givelane-api/pkg/middleware/cors"
	reqidmiddleware "github.com/givelane/givelane-api/pkg/middleware/requestid"
	"github.com/givelane/givelane-api/pkg/storage"
)

// @title GiveLane API
// @version 1.0.0
// @description Community resource sharing marketplace
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, feed cache disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	imageStore, err := storage.NewLocalStorage(cfg.Storage.ImageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init image storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	expirationRepo := repository.NewExpirationRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	tagRepo := repository.NewTagRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	reportRepo := repository.NewReportRepository(db)

	var feedCacheRepo service.FeedCacheRepository
	if redisClient != nil {
		feedCacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	// Services.
	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	feedCache := service.NewFeedCacheService(feedCacheRepo, metricsSvc, cfg.Listings.FeedCacheTTL, logr)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	listingSvc := service.NewListingService(listingRepo, claimRepo, tagRepo, expirationRepo, feedCache, imageStore, validate, logr)
	requestSvc := service.NewRequestService(requestRepo, offerRepo, expirationRepo, validate, logr)
	claimSvc := service.NewClaimService(claimRepo, listingRepo, feedCache, metricsSvc, validate, logr)
	expirationSvc := service.NewExpirationService(expirationRepo, validate, logr)
	offerSvc := service.NewOfferService(offerRepo, requestRepo, imageStore, validate, logr)
	tagSvc := service.NewTagService(tagRepo, listingRepo, logr)
	reviewSvc := service.NewReviewService(reviewRepo, userRepo, validate, logr)
	reportSvc := service.NewReportService(reportRepo, validate, logr)
	exportSvc := service.NewExportService(claimRepo, listingRepo, logr)
	sweeperSvc := service.NewSweeperService(expirationRepo, listingRepo, requestRepo, feedCache, metricsSvc, cfg.Sweeper.BatchSize, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweepQueue := jobs.NewQueue("sweep", sweeperSvc.HandleSweepJob, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 1,
		MaxRetries: 1,
		Logger:     logr,
	})
	sweepQueue.Start(rootCtx)
	defer sweepQueue.Stop()
	if cfg.Sweeper.Enabled {
		sweeperSvc.StartTicker(rootCtx, sweepQueue, cfg.Sweeper.Interval)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	listingHandler := handler.NewListingHandler(listingSvc, cfg.Storage.MaxFileSizeBytes)
	requestHandler := handler.NewRequestHandler(requestSvc)
	claimHandler := handler.NewClaimHandler(claimSvc)
	expirationHandler := handler.NewExpirationHandler(expirationSvc)
	offerHandler := handler.NewOfferHandler(offerSvc, cfg.Storage.MaxFileSizeBytes)
	tagHandler := handler.NewTagHandler(tagSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	imageHandler := handler.NewImageHandler(listingSvc, imageStore, signer)
	sweepHandler := handler.NewSweepHandler(sweeperSvc, sweepQueue)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authRequired := middleware.JWT(authSvc)
	authOptional := middleware.OptionalJWT(authSvc)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", authRequired, authHandler.Me)
	}

	listings := api.Group("/listings")
	{
		listings.GET("", authOptional, listingHandler.List)
		listings.GET("/:id", listingHandler.Get)
		listings.GET("/:id/tags", tagHandler.ListByListing)
		listings.GET("/:id/image-url", imageHandler.SignedURL)
		listings.POST("", authRequired, listingHandler.Create)
		listings.PATCH("/:id", authRequired, listingHandler.Update)
		listings.POST("/:id/toggle-hidden", authRequired, listingHandler.ToggleHidden)
		listings.DELETE("/:id", authRequired, listingHandler.Delete)
		listings.POST("/:id/image", authRequired, listingHandler.UploadImage)
		listings.GET("/:id/claims", authRequired, claimHandler.ListByListing)
		listings.POST("/:id/tags", authRequired, tagHandler.Add)
		listings.DELETE("/:id/tags/:label", authRequired, tagHandler.Remove)
	}

	requests := api.Group("/requests")
	{
		requests.GET("", authOptional, requestHandler.List)
		requests.GET("/:id", requestHandler.Get)
		requests.GET("/:id/offers", authRequired, offerHandler.ListByRequest)
		requests.POST("", authRequired, requestHandler.Create)
		requests.PATCH("/:id", authRequired, requestHandler.Update)
		requests.POST("/:id/toggle-hidden", authRequired, requestHandler.ToggleHidden)
		requests.DELETE("/:id", authRequired, requestHandler.Delete)
	}

	claims := api.Group("/claims", authRequired)
	{
		claims.POST("", claimHandler.Create)
		claims.GET("", claimHandler.ListMine)
		claims.GET("/:id", claimHandler.Get)
		claims.DELETE("/:id", claimHandler.Release)
		claims.GET("/:id/receipt.pdf", exportHandler.ClaimReceiptPDF)
	}

	expirations := api.Group("/expirations")
	{
		expirations.GET("/item/:itemId", expirationHandler.GetByItem)
		expirations.POST("", authRequired, expirationHandler.Allocate)
		expirations.PATCH("/:id", authRequired, expirationHandler.Edit)
		expirations.DELETE("/:id", authRequired, expirationHandler.Delete)
	}

	offers := api.Group("/offers", authRequired)
	{
		offers.POST("", offerHandler.Create)
		offers.GET("", offerHandler.ListMine)
		offers.GET("/:id", offerHandler.Get)
		offers.PATCH("/:id", offerHandler.Update)
		offers.POST("/:id/accept", offerHandler.Accept)
		offers.DELETE("/:id", offerHandler.Delete)
		offers.POST("/:id/image", offerHandler.UploadImage)
	}

	api.GET("/tags/search", tagHandler.Search)
	api.GET("/users/:userId/reviews", reviewHandler.ListBySubject)
	api.GET("/users/:userId/reviews/summary", reviewHandler.Summary)
	api.POST("/reviews", authRequired, reviewHandler.Create)
	api.DELETE("/reviews/:id", authRequired, reviewHandler.Delete)

	api.POST("/reports", authRequired, reportHandler.Create)
	api.GET("/reports", authRequired, reportHandler.ListOpen)
	api.POST("/reports/:id/resolve", authRequired, reportHandler.Resolve)
	api.DELETE("/reports/:id", authRequired, reportHandler.Delete)

	api.GET("/exports/claims.csv", authRequired, exportHandler.ClaimHistoryCSV)
	api.GET("/exports/claims.pdf", authRequired, exportHandler.ClaimHistoryPDF)
	api.GET("/files/:token", imageHandler.Download)

	admin := api.Group("/admin", authRequired)
	{
		admin.POST("/sweep", sweepHandler.RunNow)
		admin.POST("/sweep/enqueue", sweepHandler.Enqueue)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

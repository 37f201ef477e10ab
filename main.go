package main

import (
	"context"
	"log"
	"time"

	"survey-service/internal/config"
	"survey-service/internal/db"
	"survey-service/internal/event"
	"survey-service/internal/handlers"
	"survey-service/internal/quality"
	"survey-service/internal/questions"
	"survey-service/internal/repository"
	"survey-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, err := db.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Disconnect(client)
	database := client.Database(cfg.DatabaseName)

	// RabbitMQ event publisher; a nil publisher is a no-op.
	var publisher *event.Publisher
	if cfg.RabbitURI != "" && cfg.RabbitExchange != "" {
		publisher, err = event.NewPublisher(cfg.RabbitURI, cfg.RabbitExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, survey events will not be published")
	}

	// Question catalogue; a missing file degrades to built-in fallback data.
	tree := questions.Load(cfg.QuestionsPath)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sessionRepo := repository.NewSessionRepository(database)
	responseRepo := repository.NewResponseRepository(database)
	quotaRepo := repository.NewQuotaRepository(database)
	reservationRepo := repository.NewReservationRepository(database)
	for _, ensure := range []func(context.Context) error{
		sessionRepo.EnsureIndexes,
		responseRepo.EnsureIndexes,
		reservationRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatalf("Failed to ensure indexes: %v", err)
		}
	}
	if err := quotaRepo.Init(ctx, cfg.Quotas.Limits()); err != nil {
		log.Fatalf("Failed to initialize region quotas: %v", err)
	}

	sessionService := service.NewSessionService(
		sessionRepo,
		responseRepo,
		quotaRepo,
		reservationRepo,
		tree,
		cfg.Attention.Interval,
	)
	responseService := service.NewResponseService(sessionRepo, responseRepo, tree, quality.NewAnalyzer(nil))

	sessionHandler := handlers.NewSessionHandler(sessionService)
	responseHandler := handlers.NewResponseHandler(responseService)
	regionHandler := handlers.NewRegionHandler(sessionService)
	catalogueHandler := handlers.NewCatalogueHandler(tree)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")

	sessions := api.Group("/sessions")
	{
		sessions.POST("/", func(c *gin.Context) {
			sessionHandler.CreateSession(c)
			if c.Writer.Status() == 201 {
				publisher.Publish(event.SessionCreated, gin.H{"timestamp": time.Now()})
			}
		})
		sessions.GET("/check-identity/:participantId", sessionHandler.CheckIdentity)
		sessions.GET("/:id", sessionHandler.GetSession)
		sessions.GET("/:id/resume", sessionHandler.Resume)
		sessions.PUT("/:id/position", sessionHandler.UpdatePosition)
		sessions.PUT("/:id/complete", func(c *gin.Context) {
			sessionHandler.Complete(c)
			if c.Writer.Status() == 200 {
				publisher.Publish(event.SessionCompleted, gin.H{"session_id": c.Param("id"), "timestamp": time.Now()})
			}
		})
		sessions.GET("/:id/attention-check", sessionHandler.NextAttentionCheck)
		sessions.POST("/:id/attention-check", func(c *gin.Context) {
			sessionHandler.SubmitAttentionCheck(c)
			if passed, ok := c.Get("attentionPassed"); ok && passed == false {
				publisher.Publish(event.AttentionFailed, gin.H{"session_id": c.Param("id"), "timestamp": time.Now()})
			}
		})
	}

	responses := api.Group("/responses")
	{
		responses.POST("/", responseHandler.SaveResponse)
		responses.POST("/batch", responseHandler.SaveBatch)
		responses.GET("/:sessionId", responseHandler.ListResponses)
	}

	regions := api.Group("/region-availability")
	{
		regions.POST("/reserve", func(c *gin.Context) {
			regionHandler.Reserve(c)
			if available, ok := c.Get("regionAvailable"); ok && available == false {
				publisher.Publish(event.QuotaRejected, gin.H{"timestamp": time.Now()})
			}
		})
		regions.POST("/release", regionHandler.Release)
		regions.GET("/", regionHandler.Quotas)
	}

	catalogue := api.Group("/catalogue")
	{
		catalogue.GET("/info", catalogueHandler.Info)
		catalogue.POST("/reload", catalogueHandler.Reload)
	}

	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"education-service/config"
	"education-service/internal/client"
	"education-service/internal/engine"
	"education-service/internal/handlers"
	"education-service/internal/repository"
	"education-service/internal/service"
	"education-service/internal/session"
	"education-service/pkg/cache"
	"education-service/pkg/database"
	"education-service/pkg/messaging"

	"github.com/gin-gonic/gin"
)

const sessionTTL = 24 * time.Hour

func main() {
	cfg := config.Load()
	log.Println("Configuration loaded")

	pgClient, err := database.NewPostgresClient(&cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("Connected to PostgreSQL")
	defer pgClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := pgClient.InitSchema(ctx); err != nil {
		log.Printf("Warning: Failed to initialize PostgreSQL schema: %v", err)
	} else {
		log.Println("PostgreSQL schema initialized")
	}
	cancel()

	var sessions session.Store
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis, sessions are in-memory: %v", err)
		sessions = session.NewMemoryStore()
	} else {
		log.Println("Connected to Redis")
		defer redisClient.Close()
		sessions = session.NewRedisStore(redisClient, sessionTTL)
	}

	var events engine.Publisher
	rabbitClient, err := messaging.NewRabbitMQClient(&cfg.RabbitMQ)
	if err != nil {
		log.Printf("Warning: Failed to connect to RabbitMQ, events disabled: %v", err)
	} else {
		log.Println("Connected to RabbitMQ")
		defer rabbitClient.Close()
		for _, queue := range []string{
			engine.QueueLessonCompleted,
			engine.QueueExamCompleted,
			engine.QueueCRMSyncFailed,
		} {
			if _, err := rabbitClient.DeclareQueue(queue); err != nil {
				log.Printf("Warning: Failed to declare queue %s: %v", queue, err)
			}
		}
		events = rabbitClient
	}

	userRepo := repository.NewUserRepository(pgClient.GetDB())
	attemptRepo := repository.NewAttemptRepository(pgClient.GetDB())

	amoClient := client.NewAmoClient(&cfg.Amo)
	chatClient := client.NewChatClient(&cfg.Bot)

	lessonEngine := engine.NewLessonEngine(sessions, attemptRepo, amoClient, events)
	examEngine := engine.NewExamEngine(sessions, attemptRepo, amoClient, events)

	botService := service.NewBotService(
		userRepo, attemptRepo, sessions,
		lessonEngine, examEngine,
		chatClient, amoClient,
		cfg.Admin.RootID,
	)
	webhookHandler := handlers.NewWebhookHandler(botService, cfg.Bot.WebhookSecret)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "education-service",
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		if pgClient == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})

	router.POST("/webhook", webhookHandler.Handle)

	server := &http.Server{
		Addr:    ":" + cfg.Server.HTTPPort,
		Handler: router,
	}

	log.Printf("Education service starting on port %s...", cfg.Server.HTTPPort)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: HTTP server shutdown: %v", err)
	}

	log.Println("Education service stopped")
}

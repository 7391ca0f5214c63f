package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"assessment-service/internal/content"
	"assessment-service/internal/db"
	"assessment-service/internal/event"
	"assessment-service/internal/handlers"
	"assessment-service/internal/hint"
	"assessment-service/internal/repository"
	"assessment-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}

	// Stores: Mongo when configured, in-memory otherwise
	var sessionStore repository.SessionStore
	var resultStore repository.ResultStore
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI != "" {
		db.InitMongo(mongoURI)
		database := db.Client.Database("assessment_service")
		sessionStore = repository.NewMongoSessionStore(database)
		resultStore = repository.NewMongoResultStore(database)
	} else {
		log.Println("MONGO_URI not set, using in-memory stores")
		sessionStore = repository.NewMemorySessionStore()
		resultStore = repository.NewMemoryResultStore()
	}
	sessions := repository.NewSessions(sessionStore)

	// RabbitMQ event publisher
	rabbitURL := os.Getenv("RABBITMQ_URI")
	eventExchange := os.Getenv("RABBITMQ_EXCHANGE")
	var publisher *event.EventPublisher
	if rabbitURL != "" && eventExchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(rabbitURL, eventExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, events will not be published")
	}

	// Content generation client (OpenAI-compatible)
	llmBaseURL := os.Getenv("LLM_BASE_URL")
	if llmBaseURL == "" {
		llmBaseURL = "http://localhost:8000/v1"
	}
	llmModel := os.Getenv("LLM_MODEL")
	if llmModel == "" {
		llmModel = "gpt-4o-mini"
	}
	llm := content.NewClient(llmBaseURL, os.Getenv("LLM_API_KEY"), llmModel)

	maxCheckpointAttempts := 0
	if v := os.Getenv("MAX_CHECKPOINT_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("Invalid MAX_CHECKPOINT_ATTEMPTS: %v", err)
		}
		maxCheckpointAttempts = n
	}

	sessionService := service.NewSessionService(sessions, resultStore, llm, &hint.Policy{Generator: llm})
	learningService := service.NewLearningService(sessions, llm, llm, llm, maxCheckpointAttempts)

	sessionHandler := handlers.NewSessionHandler(sessionService)
	learningHandler := handlers.NewLearningHandler(learningService)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", sessionHandler.HealthCheck)

	setupQuizRoutes(r, sessionHandler, learningHandler, publisher)

	port := os.Getenv("PORT")
	if port == "" {
		port = "6666"
	}
	r.Run(":" + port)
}

func setupQuizRoutes(r *gin.Engine, sessionHandler *handlers.SessionHandler, learningHandler *handlers.LearningHandler, publisher *event.EventPublisher) {
	quiz := r.Group("/quiz/sessions")
	{
		// === SESSION LIFECYCLE ===

		quiz.POST("/", func(c *gin.Context) {
			sessionHandler.CreateSession(c)
			if c.Writer.Status() < 400 {
				publisher.Publish(event.SessionCreated, gin.H{
					"timestamp": time.Now(),
				})
			}
		})

		quiz.POST("/:id/start", func(c *gin.Context) {
			sessionHandler.StartQuiz(c)
			if c.Writer.Status() < 400 {
				publisher.Publish(event.SessionStarted, gin.H{
					"session_id": c.Param("id"),
					"timestamp":  time.Now(),
				})
			}
		})

		quiz.POST("/:id/abandon", func(c *gin.Context) {
			sessionHandler.Abandon(c)
			if c.Writer.Status() < 400 {
				publisher.Publish(event.SessionAbandoned, gin.H{
					"session_id": c.Param("id"),
					"timestamp":  time.Now(),
				})
			}
		})

		// === QUIZ INTERACTION ===

		quiz.POST("/:id/answer", func(c *gin.Context) {
			sessionHandler.SubmitAnswer(c)
			if c.Writer.Status() < 400 {
				publisher.Publish(event.AnswerSubmitted, gin.H{
					"session_id": c.Param("id"),
					"timestamp":  time.Now(),
				})
				if c.GetBool("session_completed") {
					publisher.Publish(event.SessionCompleted, gin.H{
						"session_id": c.Param("id"),
						"timestamp":  time.Now(),
					})
				}
			}
		})

		quiz.POST("/:id/hint", sessionHandler.GetHint)
		quiz.POST("/:id/navigate", sessionHandler.Navigate)

		// === LEARNING MODE ===

		quiz.POST("/:id/learning-mode", func(c *gin.Context) {
			learningHandler.EnterLearningMode(c)
			if c.Writer.Status() < 400 {
				publisher.Publish(event.LearningModeEntered, gin.H{
					"session_id": c.Param("id"),
					"timestamp":  time.Now(),
				})
			}
		})

		quiz.POST("/:id/learning-mode/response", func(c *gin.Context) {
			learningHandler.RespondCheckpoint(c)
			if c.Writer.Status() < 400 && c.GetBool("episode_complete") {
				publisher.Publish(event.LearningModeCompleted, gin.H{
					"session_id": c.Param("id"),
					"timestamp":  time.Now(),
				})
			}
		})

		// === STATUS AND RESULTS ===

		quiz.GET("/:id", sessionHandler.GetSession)
		quiz.GET("/:id/progress", sessionHandler.GetProgress)
		quiz.GET("/:id/result", sessionHandler.GetResult)
	}
}

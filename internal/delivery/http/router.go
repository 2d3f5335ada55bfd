package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httpH "github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/handlers"
	httpMW "github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/middleware"
)

type RouterConfig struct {
	Logger         *zap.Logger
	CORSOrigins    []string
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler    *httpH.HealthHandler
	UserHandler      *httpH.UserHandler
	ItemHandler      *httpH.ItemHandler
	FlashcardHandler *httpH.FlashcardHandler
	QuizHandler      *httpH.QuizHandler
	ProgressHandler  *httpH.ProgressHandler
	SettingsHandler  *httpH.SettingsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Logger))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// User (Me)
	if cfg.UserHandler != nil {
		protected.GET("/me", cfg.UserHandler.GetMe)
		protected.DELETE("/me/progress", cfg.UserHandler.ResetProgress)
	}

	// Items and generated content
	if cfg.ItemHandler != nil {
		protected.GET("/items", cfg.ItemHandler.List)
		protected.POST("/items", cfg.ItemHandler.Create)
		protected.GET("/items/:id", cfg.ItemHandler.Get)
		protected.PUT("/items/:id", cfg.ItemHandler.Update)
		protected.DELETE("/items/:id", cfg.ItemHandler.Delete)
		protected.GET("/items/:id/generated", cfg.ItemHandler.ListGenerated)
		protected.POST("/items/:id/generate", cfg.ItemHandler.Generate)
	}

	// Flashcards
	if cfg.FlashcardHandler != nil {
		protected.GET("/flashcards/due", cfg.FlashcardHandler.Due)
		protected.POST("/flashcards/review", cfg.FlashcardHandler.Review)
	}

	// Quizzes
	if cfg.QuizHandler != nil {
		protected.POST("/quizzes", cfg.QuizHandler.Start)
		protected.GET("/quizzes", cfg.QuizHandler.History)
		protected.GET("/quizzes/:id", cfg.QuizHandler.Get)
		protected.POST("/quizzes/:id/answer", cfg.QuizHandler.Answer)
	}

	// Progress
	if cfg.ProgressHandler != nil {
		protected.GET("/progress/summary", cfg.ProgressHandler.Summary)
		protected.GET("/progress/by-kind", cfg.ProgressHandler.ByKind)
		protected.GET("/progress/activity", cfg.ProgressHandler.Activity)
		protected.GET("/progress/forecast", cfg.ProgressHandler.Forecast)
		protected.GET("/progress/export", cfg.ProgressHandler.Export)
	}

	// Settings and reminders
	if cfg.SettingsHandler != nil {
		protected.GET("/settings", cfg.SettingsHandler.GetSettings)
		protected.PATCH("/settings", cfg.SettingsHandler.UpdateSettings)
		protected.GET("/reminders", cfg.SettingsHandler.GetReminders)
		protected.PUT("/reminders", cfg.SettingsHandler.UpdateReminders)
		protected.POST("/reminders/telegram/link", cfg.SettingsHandler.CreateTelegramLink)
	}

	return r
}

package app

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"authgate/internal/config"
	"authgate/internal/handlers"
	"authgate/internal/mailer"
	"authgate/internal/middleware"
	"authgate/internal/repositories"
	"authgate/internal/routes"
	"authgate/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
)

func Run() {
	cfg := config.LoadConfig()

	middleware.JWTKey = []byte(cfg.Auth.JWTSecret)

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	accountRepo := repositories.NewAccountRepository(db)
	verificationRepo := repositories.NewVerificationRepository(db)

	// === Mail transport ===
	// порядок выбора: Resend API -> SMTP -> консольная заглушка
	var sender mailer.Sender
	switch {
	case cfg.Email.APIKey != "":
		sender = mailer.NewResendClient(cfg.Email.APIKey, cfg.Email.FromEmail)
		log.Printf("[mail] using resend transport, from=%s", cfg.Email.FromEmail)
	case cfg.Email.SMTPHost != "":
		sender = mailer.NewSMTPSender(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		)
		log.Printf("[mail] using smtp transport, host=%s", cfg.Email.SMTPHost)
	default:
		sender = mailer.NewConsoleSender()
		log.Printf("[mail] no transport configured, codes will be logged")
	}

	// === Services ===
	otpService := services.NewOTPService(verificationRepo, userRepo, sender)
	sessionService := services.NewSessionService(sessionRepo)
	socialService := services.NewSocialService(cfg.Google, userRepo, accountRepo)
	if !socialService.Enabled() {
		log.Printf("[social] google credentials empty, provider inert")
	}

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(otpService, sessionService, userRepo, accountRepo)
	socialHandler := handlers.NewSocialHandler(socialService, sessionService)

	// фоновая уборка протухших сессий
	go purgeSessionsLoop(sessionService)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	routes.SetupRoutes(router, authHandler, socialHandler, sessionService)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Ошибка запуска сервера: ", err)
	}
}

func purgeSessionsLoop(sessions services.SessionService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		n, err := sessions.PurgeExpired()
		if err != nil {
			log.Printf("[session][purge] failed: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("[session][purge] removed=%d", n)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

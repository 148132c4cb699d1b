package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contrib-gateway/internal/config"
	"github.com/contrib-gateway/internal/infrastructure/dynamo"
	"github.com/contrib-gateway/internal/infrastructure/github"
	jwtinfra "github.com/contrib-gateway/internal/infrastructure/jwt"
	"github.com/contrib-gateway/internal/infrastructure/memstore"
	s3infra "github.com/contrib-gateway/internal/infrastructure/s3"
	"github.com/contrib-gateway/internal/infrastructure/smtp"
	"github.com/contrib-gateway/internal/infrastructure/sns"
	transporthttp "github.com/contrib-gateway/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Verification codes live in memory; restarting the process invalidates
	// all outstanding codes, which is acceptable for a 10-minute TTL.
	codes := memstore.New(cfg.CodeTTL, cfg.CodeResendCooldown)
	defer codes.Close()

	mailer := smtp.NewMailer(cfg)
	exchanger := github.NewExchanger(cfg)
	publisher := github.NewPublisher(cfg)

	// S3 store for share-file staging.
	s3Client := s3infra.NewClient(cfg)
	stager := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SNS admin alerts (optional).
	var alerts sns.AlertPublisher
	if cfg.SNSTopicARN != "" {
		if a, err := sns.NewPublisher(cfg); err == nil {
			alerts = a
		} else {
			log.Printf("WARN: SNS alerts not available: %v", err)
		}
	}

	// DynamoDB audit log (optional).
	var audit transporthttp.AuditStore
	if cfg.DynamoTableSubmissions != "" {
		repo := dynamo.NewSubmissionRepo(dynamo.NewClient(cfg), cfg.DynamoTableSubmissions)
		if err := repo.EnsureTable(context.Background()); err != nil {
			log.Printf("WARN: audit table not available: %v", err)
		} else {
			audit = repo
		}
	}

	// JWT provider for the admin surface (optional, needs key files).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available, admin surface disabled: %v", err)
	}

	deps := &transporthttp.Deps{
		Codes:       codes,
		Exchanger:   exchanger,
		Publisher:   publisher,
		Mailer:      mailer,
		Stager:      stager,
		Alerts:      alerts,
		Audit:       audit,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

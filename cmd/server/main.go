package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vetscan/internal/config"
	"vetscan/internal/email/noop"
	"vetscan/internal/email/ses"
	"vetscan/internal/export"
	"vetscan/internal/extract"
	"vetscan/internal/handler"
	"vetscan/internal/middleware"
	"vetscan/internal/ocr"
	"vetscan/internal/pdf"
	"vetscan/internal/port"
	"vetscan/internal/repository/postgres"
	"vetscan/internal/router"
	"vetscan/internal/service"
	s3storage "vetscan/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repository
	docRepo := postgres.NewDocumentRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize email sender for processing failure alerts
	var emailSender port.EmailSender
	switch cfg.Email.Provider {
	case "ses":
		emailSender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		emailSender = noop.NewNoopSender()
	}

	// Initialize extraction pipeline components
	textExtractor := ocr.NewFitzExtractor()
	imageExtractor := pdf.NewImageExtractor(cfg.Extract.MinImageDim, cfg.Extract.MaxImageBytes())
	engine := extract.NewEngine()

	queue := service.NewIngestQueue(service.IngestQueueConfig{
		Capacity:       cfg.Queue.Capacity,
		Concurrency:    cfg.Queue.Concurrency,
		ProcessTimeout: cfg.Queue.ProcessTimeout(),
	})

	// Initialize services
	docSvc := service.NewDocumentService(
		docRepo,
		s3Client,
		textExtractor,
		imageExtractor,
		engine,
		emailSender,
		queue,
		&cfg.S3,
		cfg.Email.AlertAddress,
	)
	authSvc := service.NewAuthService(cfg.JWT, cfg.Auth)
	exportSvc := export.NewService(docRepo)

	// Initialize handlers
	authH := handler.NewAuthHandler(authSvc)
	docH := handler.NewDocumentHandler(docSvc, exportSvc)
	healthH := handler.NewHealthHandler(db, queue)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	r := router.Setup(authSvc, rateLimiter, cfg.CORS.AllowedOrigins, authH, docH, healthH)

	// Start the ingest worker; it drains in-flight jobs on shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	workerDone := make(chan struct{})
	go func() {
		queue.Start(ctx, docSvc.ProcessDocument)
		close(workerDone)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	// Wait for in-flight document processing to finish.
	<-workerDone
	log.Printf("ingest worker drained")

	return nil
}

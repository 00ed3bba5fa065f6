package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sahayak-agent/internal/auth"
	"sahayak-agent/internal/camera"
	"sahayak-agent/internal/config"
	"sahayak-agent/internal/delivery"
	"sahayak-agent/internal/events"
	"sahayak-agent/internal/geo"
	"sahayak-agent/internal/handlers"
	"sahayak-agent/internal/health"
	h "sahayak-agent/internal/http"
	"sahayak-agent/internal/middleware"
	"sahayak-agent/internal/ocr"
	"sahayak-agent/internal/receipt"
	"sahayak-agent/internal/repositories"
	"sahayak-agent/internal/services"
	"sahayak-agent/internal/store"
	"sahayak-agent/internal/syncer"
)

func main() {
	port := flag.Int("port", 0, "Listen port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local store: everything the agent does lands here first
	st, err := store.Open(cfg.Storage.DataDir)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	log.Printf("[Store] Using data dir %s", st.Dir())

	// Repositories
	khataRepo := repositories.NewKhataRepository(st)
	queueRepo := repositories.NewQueueRepository(st)
	appRepo := repositories.NewApplicationRepository(st)
	deliveryRepo := repositories.NewDeliveryRepository(st)
	statsRepo := repositories.NewStatsRepository(st)

	// Event hub for the device UI
	hub := events.NewHub()
	go hub.Run(ctx)

	// Platform capabilities: camera, location, OCR
	var cam services.CameraProvider
	if cfg.Camera.SnapshotURL != "" {
		cam = camera.NewHTTPCamera(cfg.Camera.SnapshotURL)
	} else {
		log.Println("WARNING: camera.snapshot_url not set, using mock camera")
		cam = camera.NewMockCamera()
	}

	var location geo.LocationProvider
	if cfg.Location.FixURL != "" {
		location = geo.NewHTTPLocation(cfg.Location.FixURL)
	} else {
		log.Fatal("location.fix_url is required: delivery verification cannot run without a fix source")
	}

	ocrProvider := ocr.NewHTTPProvider(cfg.OCR.Endpoint, cfg.OCR.APIKey, 30*time.Second)

	// Services
	trustService := services.NewTrustService()
	captureService := services.NewCaptureService(cam, ocrProvider, cfg.Storage.DataDir+"/evidence")

	ledgerService := services.NewLedgerService(khataRepo, queueRepo, trustService)
	ledgerService.SetStatsRepository(statsRepo)
	ledgerService.SetPublisher(hub)

	registrationService := services.NewRegistrationService(appRepo, queueRepo)
	registrationService.SetStatsRepository(statsRepo)
	registrationService.SetPublisher(hub)

	deliveryService := delivery.NewService(location, deliveryRepo, queueRepo, cfg.Delivery.GeofenceRadiusM)
	deliveryService.SetMaxOTPAttempts(cfg.Delivery.MaxOTPAttempts)
	deliveryService.SetStatsRepository(statsRepo)
	deliveryService.SetPublisher(hub)
	deliveryService.SetReceiptWriter(receipt.NewWriter(cfg.Storage.DataDir + "/receipts"))

	// Sync: connectivity probe, authenticated uploads, evidence store
	connectivity := syncer.NewHTTPConnectivity(cfg.Backend.BaseURL + cfg.Backend.ProbePath)
	uploader := syncer.NewHTTPUploader(cfg.Backend.BaseURL, cfg.Backend.DeviceID, cfg.Backend.DeviceSecret)
	syncService := syncer.NewService(queueRepo, connectivity, uploader, time.Duration(cfg.Sync.IntervalSeconds)*time.Second)
	syncService.SetPublisher(hub)

	if cfg.Evidence.Bucket != "" {
		evidenceStore, err := syncer.NewS3EvidenceStore(ctx,
			cfg.Evidence.Endpoint, cfg.Evidence.Region, cfg.Evidence.Bucket,
			cfg.Evidence.AccessKey, cfg.Evidence.SecretKey)
		if err != nil {
			log.Printf("[Sync] Evidence store unavailable: %v (photos stay local)", err)
		} else {
			syncService.SetEvidenceStore(evidenceStore)
		}
	} else {
		log.Println("[Sync] No evidence bucket configured, photos stay local")
	}

	go syncService.Run(ctx)

	// HTTP surface
	jwtManager := auth.NewJWTManager(cfg.Backend.OperatorTokenSecret)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)
	corsMiddleware := middleware.NewCORS(cfg)

	healthChecker := health.NewHealthChecker(st, cfg.Storage.DataDir)

	router := h.NewRouter(
		handlers.NewKhataHandler(ledgerService),
		handlers.NewApplicationHandler(registrationService),
		handlers.NewCaptureHandler(captureService),
		handlers.NewDeliveryHandler(deliveryService, deliveryRepo),
		handlers.NewSyncHandler(syncService, queueRepo),
		handlers.NewStatsHandler(statsRepo),
		handlers.NewHealthHandler(healthChecker),
		hub,
		authMiddleware,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port),
		Handler:      corsMiddleware(router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Agent running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

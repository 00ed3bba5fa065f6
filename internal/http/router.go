package http

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sahayak-agent/internal/events"
	"sahayak-agent/internal/handlers"
	"sahayak-agent/internal/middleware"
)

func NewRouter(
	khataHandler *handlers.KhataHandler,
	applicationHandler *handlers.ApplicationHandler,
	captureHandler *handlers.CaptureHandler,
	deliveryHandler *handlers.DeliveryHandler,
	syncHandler *handlers.SyncHandler,
	statsHandler *handlers.StatsHandler,
	healthHandler *handlers.HealthHandler,
	hub *events.Hub,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.PanicRecovery)
	r.Use(middleware.RequestLogging)
	r.Use(middleware.MetricsMiddleware)

	// Protected API routes - Khata ledger
	khataAPI := r.PathPrefix("/api/khata").Subrouter()
	khataAPI.Use(authMiddleware.Authenticate)
	khataAPI.HandleFunc("", khataHandler.AddEntry).Methods("POST")
	khataAPI.HandleFunc("", khataHandler.Overview).Methods("GET")
	khataAPI.HandleFunc("", khataHandler.Clear).Methods("DELETE")

	// Protected API routes - Beneficiary applications
	applicationsAPI := r.PathPrefix("/api/applications").Subrouter()
	applicationsAPI.Use(authMiddleware.Authenticate)
	applicationsAPI.HandleFunc("", applicationHandler.Register).Methods("POST")
	applicationsAPI.HandleFunc("", applicationHandler.List).Methods("GET")
	applicationsAPI.HandleFunc("/{id}/status", applicationHandler.UpdateStatus).Methods("PUT")

	// Protected API routes - Identity capture
	captureAPI := r.PathPrefix("/api/capture").Subrouter()
	captureAPI.Use(authMiddleware.Authenticate)
	captureAPI.HandleFunc("", captureHandler.Capture).Methods("POST")

	// Protected API routes - Delivery verification sessions
	deliveryAPI := r.PathPrefix("/api/delivery").Subrouter()
	deliveryAPI.Use(authMiddleware.Authenticate)
	deliveryAPI.HandleFunc("/sessions", deliveryHandler.StartSession).Methods("POST")
	deliveryAPI.HandleFunc("/sessions/{id}", deliveryHandler.SessionStatus).Methods("GET")
	deliveryAPI.HandleFunc("/sessions/{id}", deliveryHandler.Abandon).Methods("DELETE")
	deliveryAPI.HandleFunc("/sessions/{id}/otp", deliveryHandler.VerifyOTP).Methods("POST")
	deliveryAPI.HandleFunc("/sessions/{id}/scan", deliveryHandler.SubmitScan).Methods("POST")
	deliveryAPI.HandleFunc("/sessions/{id}/geofence", deliveryHandler.RefreshGeofence).Methods("POST")
	deliveryAPI.HandleFunc("/sessions/{id}/confirm", deliveryHandler.Confirm).Methods("POST")
	deliveryAPI.HandleFunc("/records", deliveryHandler.ListRecords).Methods("GET")

	// Protected API routes - Sync
	syncAPI := r.PathPrefix("/api/sync").Subrouter()
	syncAPI.Use(authMiddleware.Authenticate)
	syncAPI.HandleFunc("/status", syncHandler.Status).Methods("GET")
	syncAPI.HandleFunc("/run", syncHandler.Run).Methods("POST")

	// Protected API routes - Enumerator stats
	statsAPI := r.PathPrefix("/api/stats").Subrouter()
	statsAPI.Use(authMiddleware.Authenticate)
	statsAPI.HandleFunc("", statsHandler.Get).Methods("GET")

	// Progress events for the device UI
	r.HandleFunc("/ws/events", hub.HandleWS)

	// Health endpoints (no auth required - for the launcher's probes)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

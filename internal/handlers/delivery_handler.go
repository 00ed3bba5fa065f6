package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"sahayak-agent/internal/delivery"
	"sahayak-agent/internal/geo"
	"sahayak-agent/internal/repositories"
	"sahayak-agent/pkg/utils"

	"github.com/gorilla/mux"
)

type DeliveryHandler struct {
	Service *delivery.Service
	Archive *repositories.DeliveryRepository
}

func NewDeliveryHandler(service *delivery.Service, archive *repositories.DeliveryRepository) *DeliveryHandler {
	return &DeliveryHandler{Service: service, Archive: archive}
}

func (h *DeliveryHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var in delivery.StartSessionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status, err := h.Service.StartSession(r.Context(), in)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.JSON(w, http.StatusCreated, status)
}

func (h *DeliveryHandler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Service.Status(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Session not found")
		return
	}

	utils.JSON(w, http.StatusOK, status)
}

type verifyOTPRequest struct {
	Code string `json:"code" validate:"required"`
}

func (h *DeliveryHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.Service.VerifyOTP(r.Context(), mux.Vars(r)["id"], req.Code)
	if err != nil {
		h.writeDeliveryError(w, err, status)
		return
	}

	utils.JSON(w, http.StatusOK, status)
}

type submitScanRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *DeliveryHandler) SubmitScan(w http.ResponseWriter, r *http.Request) {
	var req submitScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.Service.SubmitScan(r.Context(), mux.Vars(r)["id"], req.Token)
	if err != nil {
		h.writeDeliveryError(w, err, status)
		return
	}

	utils.JSON(w, http.StatusOK, status)
}

func (h *DeliveryHandler) RefreshGeofence(w http.ResponseWriter, r *http.Request) {
	status, err := h.Service.RefreshGeofence(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeDeliveryError(w, err, status)
		return
	}

	utils.JSON(w, http.StatusOK, status)
}

func (h *DeliveryHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	record, err := h.Service.Confirm(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeDeliveryError(w, err, delivery.Status{})
		return
	}

	utils.JSON(w, http.StatusOK, record)
}

func (h *DeliveryHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	h.Service.Abandon(mux.Vars(r)["id"])
	utils.JSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
}

func (h *DeliveryHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.Archive.List(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.JSON(w, http.StatusOK, records)
}

// writeDeliveryError maps verification errors onto status codes. The
// session status, when available, rides along so the UI can re-render
// without another round trip.
func (h *DeliveryHandler) writeDeliveryError(w http.ResponseWriter, err error, status delivery.Status) {
	code := http.StatusBadRequest
	switch {
	case errors.Is(err, delivery.ErrSessionNotFound):
		code = http.StatusNotFound
	case errors.Is(err, delivery.ErrInvalidState), errors.Is(err, delivery.ErrGeofenceNotPassed):
		code = http.StatusConflict
	case errors.Is(err, delivery.ErrTooManyOTPAttempts):
		code = http.StatusForbidden
	case errors.Is(err, geo.ErrLocationUnavailable):
		code = http.StatusServiceUnavailable
	}

	resp := map[string]interface{}{"error": err.Error()}
	if status.ID != "" {
		resp["session"] = status
	}
	utils.JSON(w, code, resp)
}

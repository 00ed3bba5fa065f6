package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"sahayak-agent/internal/models"
	"sahayak-agent/internal/repositories"
	"sahayak-agent/internal/services"
	"sahayak-agent/pkg/utils"

	"github.com/gorilla/mux"
)

type ApplicationHandler struct {
	Service *services.RegistrationService
}

func NewApplicationHandler(service *services.RegistrationService) *ApplicationHandler {
	return &ApplicationHandler{Service: service}
}

type registerRequest struct {
	Name             string `json:"name" validate:"required"`
	IdentityNumber   string `json:"identity_number" validate:"required"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	IdentityCaptured bool   `json:"identity_captured"`
	EvidencePath     string `json:"evidence_path"`
}

func (h *ApplicationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.Service.Register(r.Context(), models.BeneficiaryApplication{
		Name:             req.Name,
		IdentityNumber:   req.IdentityNumber,
		Phone:            req.Phone,
		Address:          req.Address,
		IdentityCaptured: req.IdentityCaptured,
		EvidencePath:     req.EvidencePath,
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateIdentity):
			utils.Error(w, http.StatusConflict, "Identity already registered on this device")
		default:
			utils.Error(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	utils.JSON(w, http.StatusCreated, created)
}

func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Service.List(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.JSON(w, http.StatusOK, apps)
}

type updateStatusRequest struct {
	Status models.ApplicationStatus `json:"status" validate:"required"`
}

func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Status.Valid() {
		utils.Error(w, http.StatusBadRequest, "Unknown application status")
		return
	}

	updated, err := h.Service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, repositories.ErrApplicationNotFound) {
			utils.Error(w, http.StatusNotFound, "Application not found")
			return
		}
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.JSON(w, http.StatusOK, updated)
}

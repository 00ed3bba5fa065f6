package handlers

import (
	"encoding/json"
	"net/http"

	"sahayak-agent/internal/services"
	"sahayak-agent/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

type KhataHandler struct {
	Service *services.LedgerService
}

func NewKhataHandler(service *services.LedgerService) *KhataHandler {
	return &KhataHandler{Service: service}
}

type addKhataEntryRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description"`
}

func (h *KhataHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	var req addKhataEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.Service.AddEntry(r.Context(), req.Amount, req.Description)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.JSON(w, http.StatusCreated, entry)
}

func (h *KhataHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.Service.Overview(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.JSON(w, http.StatusOK, ov)
}

func (h *KhataHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Clear(r.Context()); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

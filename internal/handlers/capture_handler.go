package handlers

import (
	"net/http"

	"sahayak-agent/internal/services"
	"sahayak-agent/pkg/utils"
)

type CaptureHandler struct {
	Service *services.CaptureService
}

func NewCaptureHandler(service *services.CaptureService) *CaptureHandler {
	return &CaptureHandler{Service: service}
}

// Capture runs one camera+OCR attempt. A failed capture is a normal
// outcome, not an HTTP error; the result carries the reason and the
// registration proceeds with manual entry.
func (h *CaptureHandler) Capture(w http.ResponseWriter, r *http.Request) {
	result := h.Service.Capture(r.Context())
	utils.JSON(w, http.StatusOK, result)
}

package handlers

import (
	"errors"
	"net/http"

	"sahayak-agent/internal/repositories"
	"sahayak-agent/internal/syncer"
	"sahayak-agent/pkg/utils"
)

type SyncHandler struct {
	Service *syncer.Service
	Queue   *repositories.QueueRepository
}

func NewSyncHandler(service *syncer.Service, queue *repositories.QueueRepository) *SyncHandler {
	return &SyncHandler{Service: service, Queue: queue}
}

func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	n, err := h.Queue.PendingCount(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.JSON(w, http.StatusOK, map[string]int{"pending": n})
}

// Run triggers one reconciliation pass now, on top of the background
// schedule. The UI exposes this as "sync now".
func (h *SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Service.Reconcile(r.Context())
	if err != nil {
		if errors.Is(err, syncer.ErrOffline) {
			utils.Error(w, http.StatusServiceUnavailable, "Device is offline")
			return
		}
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.JSON(w, http.StatusOK, sum)
}

package handlers

import (
	"net/http"

	"sahayak-agent/internal/repositories"
	"sahayak-agent/pkg/utils"
)

type StatsHandler struct {
	Repo *repositories.StatsRepository
}

func NewStatsHandler(repo *repositories.StatsRepository) *StatsHandler {
	return &StatsHandler{Repo: repo}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Repo.Get(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.JSON(w, http.StatusOK, stats)
}

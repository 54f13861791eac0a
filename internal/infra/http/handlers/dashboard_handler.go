package handlers

import (
	"context"
	"net/http"

	"github.com/xavierca1/realty-crm/internal/entity"
	"github.com/xavierca1/realty-crm/internal/usecase"
)

type DashboardService interface {
	Stats(ctx context.Context, p entity.Principal) (*usecase.Stats, error)
	Charts(ctx context.Context, p entity.Principal) (*usecase.Charts, error)
}

type DashboardHandler struct {
	dash DashboardService
}

func NewDashboardHandler(dash DashboardService) *DashboardHandler {
	return &DashboardHandler{dash: dash}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := h.dash.Stats(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *DashboardHandler) Charts(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	charts, err := h.dash.Charts(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, charts)
}

// internal/api/handlers/flow_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusupply/backend-go/internal/service"
)

type FlowHandler struct {
	service *service.FlowService
}

func NewFlowHandler(service *service.FlowService) *FlowHandler {
	return &FlowHandler{service: service}
}

func (h *FlowHandler) GetSnapshot(c *gin.Context) {
	rng, ok := parseDateRange(c)
	if !ok {
		return
	}

	snapshot, err := h.service.BuildSnapshot(c.Request.Context(), rng)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to build flow snapshot")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *FlowHandler) GetAnalysis(c *gin.Context) {
	rng, ok := parseDateRange(c)
	if !ok {
		return
	}

	analysis, err := h.service.GetFlowAnalysis(c.Request.Context(), rng)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to analyze flow")
		return
	}

	c.JSON(http.StatusOK, analysis)
}

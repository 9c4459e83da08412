// internal/api/handlers/report_handler.go
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/edusupply/backend-go/internal/domain"
	"github.com/edusupply/backend-go/internal/service"
)

const dateParamLayout = "2006-01-02"

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) GetWarehouseReport(c *gin.Context) {
	h.getReport(c, domain.Scope{
		Kind:        domain.ScopeWarehouse,
		WarehouseID: strings.TrimSpace(c.Query("id")),
	})
}

func (h *ReportHandler) GetCouncilReport(c *gin.Context) {
	h.getReport(c, domain.Scope{
		Kind:      domain.ScopeCouncil,
		CouncilID: strings.TrimSpace(c.Query("id")),
	})
}

func (h *ReportHandler) GetSchoolReport(c *gin.Context) {
	h.getReport(c, domain.Scope{
		Kind:     domain.ScopeSchool,
		SchoolID: strings.TrimSpace(c.Query("id")),
	})
}

func (h *ReportHandler) getReport(c *gin.Context, scope domain.Scope) {
	rng, ok := parseDateRange(c)
	if !ok {
		return
	}

	payload, err := h.service.GetReport(c.Request.Context(), scope, rng)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to build report")
		return
	}

	c.JSON(http.StatusOK, payload)
}

// parseDateRange reads the optional from/to query params. A malformed date
// is a client error, not an open bound.
func parseDateRange(c *gin.Context) (domain.DateRange, bool) {
	var rng domain.DateRange

	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		from, err := time.Parse(dateParamLayout, raw)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
			return rng, false
		}
		rng.From = from
	}

	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		to, err := time.Parse(dateParamLayout, raw)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
			return rng, false
		}
		rng.To = to
	}

	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		errorResponse(c, http.StatusBadRequest, "to date precedes from date")
		return rng, false
	}

	return rng, true
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}

package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"mise/internal/core/apperror"
	"mise/internal/domain/menu"
	"mise/internal/infrastructure/http/v1/dto"
)

// MenuHandler handles HTTP requests for menu engineering reports.
type MenuHandler struct {
	*BaseHandler
	service *menu.Service
}

// NewMenuHandler creates a new menu handler.
func NewMenuHandler(base *BaseHandler, service *menu.Service) *MenuHandler {
	return &MenuHandler{BaseHandler: base, service: service}
}

// Classify handles GET /menu/engineering?from=...&to=...
func (h *MenuHandler) Classify(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid or missing from date"))
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid or missing to date"))
		return
	}

	performances, err := h.service.Classify(c.Request.Context(), h.TenantID(c), menu.Period{From: from, To: to})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(performances))
}

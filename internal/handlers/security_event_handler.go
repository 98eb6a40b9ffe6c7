package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"canvango_backend/internal/dto"
	"canvango_backend/internal/middleware"
	"canvango_backend/internal/models"
	"canvango_backend/internal/services"
)

// SecurityEventHandler exposes the audit trail to operators.
type SecurityEventHandler struct {
	*BaseHandler
	audit *services.AuditService
}

func NewSecurityEventHandler(base *BaseHandler, audit *services.AuditService) *SecurityEventHandler {
	return &SecurityEventHandler{
		BaseHandler: base,
		audit:       audit,
	}
}

func (h *SecurityEventHandler) RegisterRoutes(r *gin.RouterGroup, authed gin.HandlerFunc) {
	admin := r.Group("/admin")
	admin.Use(authed, middleware.RoleMiddleware(models.UserRoleAdmin))
	{
		admin.GET("/security-events", h.List)
	}
}

// List godoc
// @Summary      List security events
// @Description  Newest first, filterable by severity and event type.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        severity    query  string  false  "low|medium|high|critical"
// @Param        event_type  query  string  false  "event type"
// @Param        limit       query  int     false  "page size (default 50)"
// @Param        offset      query  int     false  "page offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/admin/security-events [get]
func (h *SecurityEventHandler) List(c *gin.Context) {
	var q dto.SecurityEventQuery
	if !h.BindAndValidateQuery(c, &q) {
		return
	}

	events, total, err := h.audit.List(c.Request.Context(), q)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
	})
}

package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"canvango_backend/internal/logger"
	"canvango_backend/internal/metrics"
	"canvango_backend/internal/services"
)

// SignatureHeader is the aggregator's callback signature header.
const SignatureHeader = "X-Callback-Signature"

// maxCallbackBody caps the raw body read; aggregator callbacks are small.
const maxCallbackBody = 64 * 1024

// CallbackHandler exposes the aggregator callback endpoint.
type CallbackHandler struct {
	*BaseHandler
	callbacks *services.CallbackService
}

func NewCallbackHandler(base *BaseHandler, callbacks *services.CallbackService) *CallbackHandler {
	return &CallbackHandler{
		BaseHandler: base,
		callbacks:   callbacks,
	}
}

// RegisterRoutes mounts the callback endpoint. Rate limiting and the
// request timeout are attached by the router, not here, so tests can
// exercise the handler in isolation.
func (h *CallbackHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/tripay-callback", h.HandleCallback)
}

// HandleCallback godoc
// @Summary      Tripay payment callback
// @Description  Receives asynchronous payment-status callbacks from the aggregator. Signature covers the raw request body.
// @Tags         callback
// @Accept       json
// @Produce      json
// @Param        X-Callback-Signature  header  string  true  "hex HMAC-SHA256 of the raw body"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /tripay-callback [post]
func (h *CallbackHandler) HandleCallback(c *gin.Context) {
	start := time.Now()
	metrics.CallbacksReceived.Inc()

	// The raw bytes are the unit of signature verification; nothing may
	// parse or re-serialize the body before the service has seen it.
	rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		logger.CtxWithError(c.Request.Context(), "failed to read callback body", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unreadable request body"})
		return
	}

	outcome := h.callbacks.Process(c.Request.Context(), services.CallbackRequest{
		Body:      rawBody,
		Signature: c.GetHeader(SignatureHeader),
		SourceIP:  c.ClientIP(),
		Endpoint:  c.FullPath(),
	})

	metrics.CallbackOutcomes.WithLabelValues(string(outcome.Code)).Inc()
	metrics.CallbackDuration.Observe(float64(time.Since(start).Milliseconds()))

	resp := gin.H{
		"success": outcome.Success(),
		"message": outcome.Message,
	}
	if len(outcome.Errors) > 0 {
		resp["errors"] = outcome.Errors
	}
	c.JSON(outcome.Code.HTTPStatus(), resp)
}

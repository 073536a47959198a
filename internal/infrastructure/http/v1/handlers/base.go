// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"comercia/internal/core/apperror"
	appctx "comercia/internal/core/context"
	"comercia/internal/domain"
	"comercia/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// GetUserID extracts user ID from request context.
func (h *BaseHandler) GetUserID(c *gin.Context) string {
	return appctx.GetUserID(c.Request.Context())
}

// PageQuery parses and defaults pagination parameters.
func (h *BaseHandler) PageQuery(c *gin.Context) dto.PageQuery {
	q := dto.PageQuery{
		Page:  h.ParseIntQuery(c, "page", 1),
		Limit: h.ParseIntQuery(c, "limit", 50),
	}
	q.Defaults()
	return q
}

// DocumentFilter parses the common document list filter.
func (h *BaseHandler) DocumentFilter(c *gin.Context) domain.DocumentFilter {
	page := h.PageQuery(c)
	filter := domain.DocumentFilter{
		Search:        c.Query("search"),
		Status:        c.Query("status"),
		PaymentStatus: c.Query("paymentStatus"),
		Limit:         page.Limit,
		Offset:        page.Offset(),
	}
	if from, err := time.Parse(time.RFC3339, c.Query("dateFrom")); err == nil {
		filter.DateFrom = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("dateTo")); err == nil {
		filter.DateTo = &to
	}
	return filter
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}

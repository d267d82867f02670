package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct {
	logger *zap.Logger
}

func newBaseHandler(logger *zap.Logger) BaseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return BaseHandler{logger: logger}
}

// Success sends a 200 envelope carrying payload
func (h *BaseHandler) Success(c *gin.Context, payload dto.Payload) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(payload))
}

// Created sends a 201 envelope carrying payload
func (h *BaseHandler) Created(c *gin.Context, payload dto.Payload) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(payload))
}

// BadRequest sends a 400 with ERR_BAD_REQUEST
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.respondError(c, http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, message))
}

// Unauthorized sends a 401 with ERR_UNAUTHORIZED
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.respondError(c, http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrCodeUnauthorized, message))
}

// BindError answers a failed ShouldBind call
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError maps a service error onto the failure envelope
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, resp := dto.ErrorToResponse(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	}
	h.respondError(c, status, resp)
}

func (h *BaseHandler) respondError(c *gin.Context, status int, resp dto.ErrorResponse) {
	resp.RequestID = middleware.GetRequestID(c)
	c.AbortWithStatusJSON(status, resp)
}

// parseUUID reads a uuid from value, answering 400 when it is malformed
func (h *BaseHandler) parseUUID(c *gin.Context, value, field string) (uuid.UUID, bool) {
	if value == "" {
		h.BadRequest(c, field+" is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(value)
	if err != nil {
		h.BadRequest(c, "Invalid "+field+" format")
		return uuid.Nil, false
	}
	return id, true
}

// queryPage reads the 1-based page query parameter; anything unusable is page 1
func queryPage(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// callerID returns the authenticated user, if any
func callerID(c *gin.Context) *uuid.UUID {
	id, ok := middleware.GetUserID(c)
	if !ok {
		return nil
	}
	return &id
}
